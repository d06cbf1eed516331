package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/activity-hub/internal/interface/http/handlers"
)

func TestTokenCommand(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("JWT_ISSUER", "learnhub")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--sub", "alice", "--role", "admin"})
	require.NoError(t, rootCmd.Execute())

	auth := handlers.NewAuthenticator(handlers.AuthConfig{Secret: "cli-secret", Issuer: "learnhub"})
	p, err := auth.Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserID)
	assert.True(t, p.IsAdmin())
}

func TestPruneRejectsMemoryDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "cli-secret")

	rootCmd.SetArgs([]string{"prune", "--older-than", "720h"})
	err := rootCmd.Execute()
	assert.ErrorIs(t, err, errMemoryDriver)
}
