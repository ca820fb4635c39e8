package rules

import (
	"context"
	"sync"
	"time"
)

// Repository is the durable storage contract for versioned rule sets. The
// store treats it as best effort: a failing repository degrades to the
// bundled default, it never takes billing down.
type Repository interface {
	// LoadLatest returns the most recently updated rule set, or nil when
	// storage holds none.
	LoadLatest(ctx context.Context) (*RuleSet, error)

	// Upsert creates or replaces the rule set stored under version.
	Upsert(ctx context.Context, version string, ruleList []Rule) error
}

// InMemoryRepository implements Repository with a mutex-guarded map. Used
// in tests and when the server runs without a database.
type InMemoryRepository struct {
	mu   sync.RWMutex
	sets map[string]*RuleSet
}

// NewInMemoryRepository creates an empty in-memory rule repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{sets: make(map[string]*RuleSet)}
}

// LoadLatest returns the set with the newest update time, nil when empty.
func (r *InMemoryRepository) LoadLatest(ctx context.Context) (*RuleSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *RuleSet
	for _, rs := range r.sets {
		if latest == nil || rs.UpdatedAt.After(latest.UpdatedAt) {
			latest = rs
		}
	}
	if latest == nil {
		return nil, nil
	}
	return copyRuleSet(latest), nil
}

// Upsert stores a copy of the rule list under version.
func (r *InMemoryRepository) Upsert(ctx context.Context, version string, ruleList []Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs := &RuleSet{
		Version:   version,
		Rules:     append([]Rule(nil), ruleList...),
		UpdatedAt: time.Now(),
	}
	r.sets[version] = rs
	return nil
}

// copyRuleSet returns a snapshot callers can hold without racing mutations.
func copyRuleSet(rs *RuleSet) *RuleSet {
	out := *rs
	out.Rules = append([]Rule(nil), rs.Rules...)
	return &out
}
