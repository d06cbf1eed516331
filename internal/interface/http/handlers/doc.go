// Package handlers contains the HTTP building blocks shared by the API server:
// bearer-token authentication, the admin guard, per-client rate limiting and
// health checks.
//
// # Authentication
//
//	auth := handlers.NewAuthenticator(handlers.AuthConfig{Secret: secret, Issuer: "learnhub"})
//	protected := handlers.Chain(h, auth.Middleware(writeError), handlers.RequireAdmin(writeError))
//
// Tokens are HS256 JWTs. `sub` is the user id, `role` is "user" or "admin"
// (missing means "user") and `exp` is required.
//
// # Health Checks
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("database", handlers.NewPingCheck(conn))
//	checker.AddOptionalCheck("redis", handlers.NewPingCheck(cache))
//
// Checks run in parallel, each under its own timeout. An optional check that
// fails degrades the message but keeps the service ready.
package handlers
