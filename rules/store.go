package rules

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// ReloadStatus summarizes the outcome of a reload. Reload never fails:
// the worst case is falling back to the bundled default set.
type ReloadStatus struct {
	Version   string `json:"version"`
	RuleCount int    `json:"ruleCount"`
}

// Store holds the active rule set snapshot. Readers always see a complete
// set, either the previous or the new one: Reload builds the replacement
// off to the side and installs it with a single pointer swap under the
// lock. A reload racing an in-flight simulation is fine because every
// crystallized invoice freezes the version that priced it.
type Store struct {
	repo Repository
	log  zerolog.Logger

	reloadMu sync.Mutex // single-writer reload path

	mu      sync.RWMutex
	current *RuleSet
}

// NewStore creates a store around the given repository. The snapshot is
// empty until the first Reload; Snapshot degrades to the bundled default
// in the meantime.
func NewStore(repo Repository, log zerolog.Logger) *Store {
	return &Store{repo: repo, log: log.With().Str("component", "rules.Store").Logger()}
}

// Snapshot returns the active rule set. Never nil: before the first
// successful load it serves the bundled default.
func (s *Store) Snapshot() *RuleSet {
	s.mu.RLock()
	rs := s.current
	s.mu.RUnlock()

	if rs == nil {
		return DefaultRuleSet()
	}
	return rs
}

// Version returns the version tag of the active snapshot.
func (s *Store) Version() string {
	return s.Snapshot().Version
}

// Reload clears the snapshot and reloads from durable storage. When
// storage is empty it seeds the bundled default and persists it; when
// storage is unreachable it falls back to the default in memory. Callers
// always get a usable version back.
func (s *Store) Reload(ctx context.Context) ReloadStatus {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	loaded, err := s.repo.LoadLatest(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("rule storage unreachable, falling back to bundled default")
	} else if loaded != nil {
		if verr := ValidateRules(loaded.Rules); verr != nil {
			s.log.Warn().Err(verr).Str("version", loaded.Version).
				Msg("stored rule set is invalid, falling back to bundled default")
		} else {
			s.swap(loaded)
			s.log.Info().Str("version", loaded.Version).Int("rules", len(loaded.Rules)).
				Msg("rule set loaded from storage")
			return ReloadStatus{Version: loaded.Version, RuleCount: len(loaded.Rules)}
		}
	}

	fallback := DefaultRuleSet()
	if err := s.repo.Upsert(ctx, fallback.Version, fallback.Rules); err != nil {
		s.log.Warn().Err(err).Msg("failed to seed default rule set, keeping it in memory only")
	} else {
		s.log.Info().Str("version", fallback.Version).Int("rules", len(fallback.Rules)).
			Msg("default rule set seeded to storage")
	}
	s.swap(fallback)
	return ReloadStatus{Version: fallback.Version, RuleCount: len(fallback.Rules)}
}

func (s *Store) swap(rs *RuleSet) {
	snapshot := copyRuleSet(rs)
	s.mu.Lock()
	s.current = snapshot
	s.mu.Unlock()
}
