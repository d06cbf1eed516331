package query

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/learnhub/activity-hub/internal/domain/activity"
	"github.com/learnhub/activity-hub/internal/domain/user"
	"github.com/learnhub/activity-hub/internal/observability"
	"github.com/learnhub/activity-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY ENRICHMENT
// Attaches a display identity to every activity of a result set.
// Best-effort: a missing or failing lookup degrades that entry only.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultFanoutLimit bounds concurrent reads inside one fan-out group.
const DefaultFanoutLimit = 16

// EnrichedActivity is an activity plus the identity of its author.
type EnrichedActivity struct {
	activity.Activity
	User user.Identity `json:"user"`
}

// IdentityCache is an optional read-through cache of resolved identities.
type IdentityCache interface {
	GetMany(ctx context.Context, userIDs []string) (map[string]user.Identity, error)
	SetMany(ctx context.Context, identities []user.Identity) error
}

// ActivityEnricher resolves identities for activity lists.
type ActivityEnricher struct {
	users    user.Repository
	profiles user.ProfileRepository
	cache    IdentityCache
	limit    int
	log      *logger.Logger
}

// EnricherOption configures an ActivityEnricher.
type EnricherOption func(*ActivityEnricher)

// WithIdentityCache enables the identity cache.
func WithIdentityCache(c IdentityCache) EnricherOption {
	return func(e *ActivityEnricher) { e.cache = c }
}

// WithEnricherFanout sets the maximum concurrent lookups.
func WithEnricherFanout(n int) EnricherOption {
	return func(e *ActivityEnricher) {
		if n > 0 {
			e.limit = n
		}
	}
}

// WithEnricherLogger sets the logger.
func WithEnricherLogger(l *logger.Logger) EnricherOption {
	return func(e *ActivityEnricher) {
		if l != nil {
			e.log = l
		}
	}
}

// NewActivityEnricher creates an ActivityEnricher.
func NewActivityEnricher(users user.Repository, profiles user.ProfileRepository, opts ...EnricherOption) *ActivityEnricher {
	e := &ActivityEnricher{
		users:    users,
		profiles: profiles,
		limit:    DefaultFanoutLimit,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(logger.Component("enricher"))
	return e
}

// Enrich returns list with identities attached, in the same order.
func (e *ActivityEnricher) Enrich(ctx context.Context, list []*activity.Activity) []EnrichedActivity {
	out := make([]EnrichedActivity, 0, len(list))
	if len(list) == 0 {
		return out
	}

	identities := e.resolve(ctx, distinctUserIDs(list))
	for _, a := range list {
		out = append(out, EnrichedActivity{Activity: *a, User: identities[a.UserID]})
	}
	return out
}

// resolve returns an identity for every id, consulting the cache first.
func (e *ActivityEnricher) resolve(ctx context.Context, ids []string) map[string]user.Identity {
	result := make(map[string]user.Identity, len(ids))

	missing := ids
	if e.cache != nil {
		cached, err := e.cache.GetMany(ctx, ids)
		if err != nil {
			e.log.Debug("identity cache read failed", logger.Err(err))
			observability.RecordIdentityCache("error", len(ids))
			cached = nil
		}
		missing = make([]string, 0, len(ids))
		for _, id := range ids {
			if ident, ok := cached[id]; ok {
				result[id] = ident
				continue
			}
			missing = append(missing, id)
		}
		observability.RecordIdentityCache("hit", len(ids)-len(missing))
		observability.RecordIdentityCache("miss", len(missing))
	}

	if len(missing) == 0 {
		return result
	}

	type lookup struct {
		identity user.Identity
		complete bool // user and profile both found without errors
	}
	lookups := make([]lookup, len(missing))

	var g errgroup.Group
	g.SetLimit(e.limit)
	for i, id := range missing {
		g.Go(func() error {
			u, uErr := e.users.FindByID(ctx, id)
			p, pErr := e.profiles.FindByUserID(ctx, id)
			if uErr != nil || pErr != nil {
				e.log.Debug("identity lookup failed, using defaults",
					logger.UserID(id), logger.Any("user_err", uErr), logger.Any("profile_err", pErr))
				u, p = nilOnErr(u, uErr), nilOnErr(p, pErr)
			}
			lookups[i] = lookup{
				identity: user.ResolveIdentity(id, u, p),
				complete: uErr == nil && pErr == nil && u != nil && p != nil,
			}
			return nil
		})
	}
	_ = g.Wait()

	fallbacks := 0
	toCache := make([]user.Identity, 0, len(missing))
	for i, id := range missing {
		result[id] = lookups[i].identity
		if lookups[i].complete {
			toCache = append(toCache, lookups[i].identity)
		} else {
			fallbacks++
		}
	}
	observability.RecordEnrichmentFallback(fallbacks)

	if e.cache != nil && len(toCache) > 0 {
		if err := e.cache.SetMany(ctx, toCache); err != nil {
			e.log.Debug("identity cache write failed", logger.Err(err))
		}
	}
	return result
}

func distinctUserIDs(list []*activity.Activity) []string {
	seen := make(map[string]struct{}, len(list))
	ids := make([]string, 0, len(list))
	for _, a := range list {
		if _, ok := seen[a.UserID]; ok {
			continue
		}
		seen[a.UserID] = struct{}{}
		ids = append(ids, a.UserID)
	}
	return ids
}

func nilOnErr[T any](v *T, err error) *T {
	if err != nil {
		return nil
	}
	return v
}
