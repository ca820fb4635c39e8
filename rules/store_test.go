package rules

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type failingRepository struct{}

func (failingRepository) LoadLatest(ctx context.Context) (*RuleSet, error) {
	return nil, errors.New("storage down")
}

func (failingRepository) Upsert(ctx context.Context, version string, ruleList []Rule) error {
	return errors.New("storage down")
}

func TestStoreSnapshotBeforeLoadServesDefault(t *testing.T) {
	store := NewStore(NewInMemoryRepository(), zerolog.Nop())

	snapshot := store.Snapshot()
	if snapshot == nil {
		t.Fatal("Snapshot() should never be nil")
	}
	if snapshot.Version != DefaultVersion {
		t.Errorf("Version = %s, want %s", snapshot.Version, DefaultVersion)
	}
	if len(snapshot.Rules) == 0 {
		t.Error("default snapshot should carry the bundled rules")
	}
}

func TestStoreReloadSeedsEmptyStorage(t *testing.T) {
	repo := NewInMemoryRepository()
	store := NewStore(repo, zerolog.Nop())

	status := store.Reload(context.Background())
	if status.Version != DefaultVersion {
		t.Errorf("Version = %s, want %s", status.Version, DefaultVersion)
	}
	if status.RuleCount != len(DefaultRules()) {
		t.Errorf("RuleCount = %d, want %d", status.RuleCount, len(DefaultRules()))
	}

	// The default must have been persisted, not just held in memory.
	stored, err := repo.LoadLatest(context.Background())
	if err != nil {
		t.Fatalf("LoadLatest() failed: %v", err)
	}
	if stored == nil || stored.Version != DefaultVersion {
		t.Errorf("seeding should persist %s, got %+v", DefaultVersion, stored)
	}
}

func TestStoreReloadPicksUpStoredVersion(t *testing.T) {
	repo := NewInMemoryRepository()
	newRules := []Rule{
		{ID: "c-2025", Type: RuleLine, Trigger: "C", Price: 30, PayerShare: 0.7, Label: "Consultation 2025"},
	}
	if err := repo.Upsert(context.Background(), "NGAP_2025", newRules); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	store := NewStore(repo, zerolog.Nop())
	status := store.Reload(context.Background())

	if status.Version != "NGAP_2025" {
		t.Errorf("Version = %s, want NGAP_2025", status.Version)
	}
	if status.RuleCount != 1 {
		t.Errorf("RuleCount = %d, want 1", status.RuleCount)
	}
	if store.Version() != "NGAP_2025" {
		t.Errorf("Snapshot version = %s, want NGAP_2025", store.Version())
	}
}

func TestStoreReloadFallsBackWhenStorageUnreachable(t *testing.T) {
	store := NewStore(failingRepository{}, zerolog.Nop())

	status := store.Reload(context.Background())
	if status.Version != DefaultVersion {
		t.Errorf("Version = %s, want fallback %s", status.Version, DefaultVersion)
	}

	snapshot := store.Snapshot()
	if len(snapshot.Rules) != len(DefaultRules()) {
		t.Errorf("fallback snapshot has %d rules, want %d", len(snapshot.Rules), len(DefaultRules()))
	}
}

func TestStoreReloadRejectsInvalidStoredRules(t *testing.T) {
	repo := NewInMemoryRepository()
	broken := []Rule{
		{ID: "bad-share", Type: RuleLine, Trigger: "C", Price: 10, PayerShare: 1.5, Label: "broken"},
	}
	if err := repo.Upsert(context.Background(), "NGAP_BROKEN", broken); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	store := NewStore(repo, zerolog.Nop())
	status := store.Reload(context.Background())

	if status.Version != DefaultVersion {
		t.Errorf("invalid stored set should fall back to %s, got %s", DefaultVersion, status.Version)
	}
}

func TestStoreSwapIsAtomicUnderConcurrentReaders(t *testing.T) {
	repo := NewInMemoryRepository()
	store := NewStore(repo, zerolog.Nop())
	store.Reload(context.Background())

	if err := repo.Upsert(context.Background(), "NGAP_2025", []Rule{
		{ID: "only", Type: RuleLine, Trigger: "C", Price: 30, PayerShare: 0.7, Label: "Consultation 2025"},
	}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snapshot := store.Snapshot()
				// Readers must only ever see one of the two complete sets.
				switch snapshot.Version {
				case DefaultVersion:
					if len(snapshot.Rules) != len(DefaultRules()) {
						t.Errorf("torn snapshot: %s with %d rules", snapshot.Version, len(snapshot.Rules))
						return
					}
				case "NGAP_2025":
					if len(snapshot.Rules) != 1 {
						t.Errorf("torn snapshot: %s with %d rules", snapshot.Version, len(snapshot.Rules))
						return
					}
				default:
					t.Errorf("unexpected snapshot version %s", snapshot.Version)
					return
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		store.Reload(context.Background())
	}
	close(stop)
	wg.Wait()
}

func TestInMemoryRepositoryLoadLatestReturnsNewest(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	if rs, err := repo.LoadLatest(ctx); err != nil || rs != nil {
		t.Fatalf("empty repo LoadLatest = (%v, %v), want (nil, nil)", rs, err)
	}

	if err := repo.Upsert(ctx, "v1", DefaultRules()); err != nil {
		t.Fatalf("Upsert(v1) failed: %v", err)
	}
	if err := repo.Upsert(ctx, "v2", DefaultRules()[:1]); err != nil {
		t.Fatalf("Upsert(v2) failed: %v", err)
	}

	latest, err := repo.LoadLatest(ctx)
	if err != nil {
		t.Fatalf("LoadLatest() failed: %v", err)
	}
	if latest.Version != "v2" {
		t.Errorf("latest version = %s, want v2", latest.Version)
	}
}
