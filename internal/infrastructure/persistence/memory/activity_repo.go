package memory

import (
	"context"
	"sort"
	"time"

	"github.com/learnhub/activity-hub/internal/domain/activity"
)

// ActivityRepository implements activity.Repository in memory.
type ActivityRepository struct {
	s *Store
}

var _ activity.Repository = (*ActivityRepository)(nil)

// Create appends one activity.
func (r *ActivityRepository) Create(ctx context.Context, a *activity.Activity) error {
	return r.CreateMany(ctx, []*activity.Activity{a})
}

// CreateMany appends the items whose IDs are not stored yet.
// The first occurrence of an ID within the batch wins.
func (r *ActivityRepository) CreateMany(_ context.Context, list []*activity.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seen := make(map[string]struct{}, len(r.s.activities)+len(list))
	for _, e := range r.s.activities {
		seen[e.a.ID] = struct{}{}
	}

	fresh := make([]*activity.Activity, 0, len(list))
	for _, a := range list {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		fresh = append(fresh, a)
	}

	r.s.appendActivitiesLocked(fresh)
	return nil
}

func (s *Store) appendActivities(list []*activity.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendActivitiesLocked(list)
}

func (s *Store) appendActivitiesLocked(list []*activity.Activity) {
	for _, a := range list {
		s.seq++
		cp := *a
		s.activities = append(s.activities, storedActivity{a: &cp, seq: s.seq})
	}
}

// FindByID returns an activity, or (nil, nil) when absent.
func (r *ActivityRepository) FindByID(_ context.Context, id string) (*activity.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, e := range r.s.activities {
		if e.a.ID == id {
			cp := *e.a
			return &cp, nil
		}
	}
	return nil, nil
}

// FindByUserID returns the newest activities of one user.
func (r *ActivityRepository) FindByUserID(_ context.Context, userID string, limit int) ([]*activity.Activity, error) {
	list := r.sorted(activity.Filter{UserID: userID})
	return head(list, 0, limit), nil
}

// FindWithFilters returns one page of the filtered set and its total size.
func (r *ActivityRepository) FindWithFilters(_ context.Context, f activity.Filter, page activity.PageRequest) ([]*activity.Activity, int, error) {
	list := r.sorted(f)
	return head(list, page.Offset(), page.Limit), len(list), nil
}

// FindGlobalRecent returns the newest activities across all users.
func (r *ActivityRepository) FindGlobalRecent(_ context.Context, limit int) ([]*activity.Activity, error) {
	return head(r.sorted(activity.Filter{}), 0, limit), nil
}

// DeleteOlderThan removes activities created before cutoff.
func (r *ActivityRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.activities[:0]
	var removed int64
	for _, e := range r.s.activities {
		if e.a.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.s.activities = kept
	return removed, nil
}

// sorted returns copies of matching activities ordered by createdAt desc, then insertion desc.
func (r *ActivityRepository) sorted(f activity.Filter) []*activity.Activity {
	r.s.mu.RLock()
	matched := make([]storedActivity, 0, len(r.s.activities))
	for _, e := range r.s.activities {
		if f.Matches(e.a) {
			matched = append(matched, e)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		ai, aj := matched[i], matched[j]
		if !ai.a.CreatedAt.Equal(aj.a.CreatedAt) {
			return ai.a.CreatedAt.After(aj.a.CreatedAt)
		}
		return ai.seq > aj.seq
	})

	out := make([]*activity.Activity, len(matched))
	for i, e := range matched {
		cp := *e.a
		out[i] = &cp
	}
	return out
}

func head(list []*activity.Activity, offset, limit int) []*activity.Activity {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) || limit <= 0 {
		return []*activity.Activity{}
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end]
}
