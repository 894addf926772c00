package search_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"caterer/internal/catalog"
	"caterer/internal/config"
	"caterer/internal/faults"
	"caterer/internal/search"
	"caterer/internal/testsupport"
	"caterer/internal/works"
)

const (
	rootA      = 1
	rootB      = 2
	candidateC = 3
	candidateD = 4
	unrelatedE = 5
	seriesF    = 6
)

// syntheticFixture builds two roots, a candidate sharing a director with A
// and a composer with B, a weakly linked candidate, and an unrelated work.
func syntheticFixture() testsupport.Fixture {
	return testsupport.Fixture{
		Works: []catalog.WorkRow{
			testsupport.Work(rootA, "Alpha", "tvSeries"),
			testsupport.Episode(101, rootA),
			testsupport.Episode(102, rootA),
			testsupport.Episode(103, rootA),
			testsupport.Episode(104, rootA),
			testsupport.Work(rootB, "Beta", "movie"),
			testsupport.Work(candidateC, "Gamma", "movie"),
			testsupport.Work(candidateD, "Delta", "movie"),
			testsupport.Work(unrelatedE, "Epsilon", "movie"),
		},
		Persons: []catalog.PersonRow{
			testsupport.Person(10, "Dana Director"),
			testsupport.Person(11, "Cole Composer"),
			testsupport.Person(12, "Wren Writer"),
			testsupport.Person(13, "Cass Casting"),
			testsupport.Person(14, "Gus Grip"),
			testsupport.Person(15, "Ed Elsewhere"),
		},
		Credits: []catalog.CreditRow{
			// Director on half of Alpha's episodes: full weight.
			testsupport.Credit(10, 101, "director", catalog.NullMarker),
			testsupport.Credit(10, 102, "director", catalog.NullMarker),
			testsupport.Credit(10, candidateC, "director", catalog.NullMarker),
			// Writer on one of four Alpha episodes: half weight.
			testsupport.Credit(12, 103, "writer", "written by"),
			testsupport.Credit(12, candidateC, "writer", "screenplay"),
			testsupport.Credit(11, rootB, "composer", catalog.NullMarker),
			testsupport.Credit(11, candidateC, "composer", catalog.NullMarker),
			testsupport.Credit(13, rootA, "casting_director", catalog.NullMarker),
			testsupport.Credit(13, candidateD, "casting_director", catalog.NullMarker),
			// Non-stylistic crew never widens the search.
			testsupport.Credit(14, rootA, "self", catalog.NullMarker),
			testsupport.Credit(14, unrelatedE, "self", catalog.NullMarker),
			testsupport.Credit(15, unrelatedE, "director", catalog.NullMarker),
		},
	}
}

func newSearcher(t *testing.T, cfg *config.Config, cat search.Catalog) *search.Searcher {
	t.Helper()
	return search.New(cat, search.Options{Workers: cfg.Search.Workers, Top: cfg.Search.Top})
}

func TestRunRanksSharedPersonnel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.MustBuildCatalog(t, cfg, syntheticFixture())
	store := testsupport.MustOpenCatalog(t, cfg)

	result, err := newSearcher(t, cfg, store).Run(context.Background(), []uint64{rootA, rootB})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.RunID == "" {
		t.Fatal("expected run id")
	}
	if len(result.Roots) != 2 || result.Roots[0].ID != rootA || result.Roots[1].ID != rootB {
		t.Fatalf("unexpected roots: %+v", result.Roots)
	}
	// Director, writer and casting on A; composer on B.
	if result.StylisticPersons != 4 {
		t.Fatalf("expected 4 stylistic persons, got %d", result.StylisticPersons)
	}
	if result.Candidates != 2 {
		t.Fatalf("expected candidates C and D only, got %d", result.Candidates)
	}
	if len(result.Skipped) != 0 {
		t.Fatalf("unexpected skips: %+v", result.Skipped)
	}

	gotOrder := make([]uint64, len(result.Ranked))
	for i, a := range result.Ranked {
		gotOrder[i] = a.Work.ID
	}
	if diff := cmp.Diff([]uint64{candidateC, candidateD}, gotOrder); diff != "" {
		t.Fatalf("ranking mismatch (-want +got):\n%s", diff)
	}

	// director 50*50 + writer (40*0.5)*40 + composer 60*60
	wantC := 50.0*50 + 20.0*40 + 60.0*60
	if got := result.Ranked[0].Score; got != wantC {
		t.Fatalf("candidate C score = %v, want %v", got, wantC)
	}
	if got := result.Ranked[1].Score; got != 10*10 {
		t.Fatalf("candidate D score = %v, want 100", got)
	}
	if len(result.Ranked[0].Overlaps) != 3 {
		t.Fatalf("expected three overlaps for C, got %d", len(result.Ranked[0].Overlaps))
	}
	if result.Ranked[0].Overlaps[0].Name != "Cole Composer" {
		t.Fatalf("overlaps should be sorted by name, got %q first", result.Ranked[0].Overlaps[0].Name)
	}

	if diff := cmp.Diff([]string{"self"}, result.IgnoredJobs); diff != "" {
		t.Fatalf("ignored jobs mismatch (-want +got):\n%s", diff)
	}
}

func TestRunResolvesSubWorkHitsToOwner(t *testing.T) {
	fixture := syntheticFixture()
	fixture.Works = append(fixture.Works, testsupport.Work(seriesF, "Phi", "tvSeries"))
	for id := uint64(601); id <= 605; id++ {
		fixture.Works = append(fixture.Works, testsupport.Episode(id, seriesF))
	}
	// Alpha's director only appears on one episode of Phi.
	fixture.Credits = append(fixture.Credits, testsupport.Credit(10, 601, "director", catalog.NullMarker))

	cfg := testsupport.NewConfig(t)
	testsupport.MustBuildCatalog(t, cfg, fixture)
	store := testsupport.MustOpenCatalog(t, cfg)

	result, err := newSearcher(t, cfg, store).Run(context.Background(), []uint64{rootA, rootB})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Candidates != 3 {
		t.Fatalf("expected candidates C, D and F, got %d", result.Candidates)
	}

	gotOrder := make([]uint64, len(result.Ranked))
	for i, a := range result.Ranked {
		gotOrder[i] = a.Work.ID
	}
	if diff := cmp.Diff([]uint64{candidateC, seriesF, candidateD}, gotOrder); diff != "" {
		t.Fatalf("ranking mismatch (-want +got):\n%s", diff)
	}

	phi := result.Ranked[1]
	if len(phi.Work.SubWorks) != 5 {
		t.Fatalf("expected Phi hydrated with 5 episodes, got %d", len(phi.Work.SubWorks))
	}
	// Alpha side: 2 of 4 episodes scales to 1.0 -> 50.
	// Phi side: 1 of 5 episodes scales to 0.4 -> 20.
	if want := 50.0 * 20.0; math.Abs(phi.Score-want) > 1e-9 {
		t.Fatalf("Phi score = %v, want %v", phi.Score, want)
	}
	if len(phi.Overlaps) != 1 {
		t.Fatalf("expected one overlap on Phi, got %d", len(phi.Overlaps))
	}
	overlap := phi.Overlaps[0]
	if overlap.Name != "Dana Director" || overlap.Candidate.Episodes != 1 || overlap.Candidate.SubWorks != 5 {
		t.Fatalf("unexpected Phi overlap: %+v", overlap)
	}
}

// ownerlessCatalog hides selected works from owner resolution.
type ownerlessCatalog struct {
	*catalog.Store
	hidden map[uint64]struct{}
}

func (o *ownerlessCatalog) Owners(ctx context.Context, ids []uint64) (map[uint64]uint64, error) {
	owners, err := o.Store.Owners(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id := range o.hidden {
		delete(owners, id)
	}
	return owners, nil
}

func TestRunAbortsWhenCreditedWorkHasNoOwner(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.MustBuildCatalog(t, cfg, syntheticFixture())
	cat := &ownerlessCatalog{
		Store:  testsupport.MustOpenCatalog(t, cfg),
		hidden: map[uint64]struct{}{candidateC: {}},
	}

	result, err := newSearcher(t, cfg, cat).Run(context.Background(), []uint64{rootA, rootB})
	if !errors.Is(err, faults.ErrWorkNotFound) {
		t.Fatalf("expected ErrWorkNotFound, got %v", err)
	}
	if result != nil {
		t.Fatal("expected no partial result")
	}
}

func TestRunTruncatesToTop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Search.Top = 1
	testsupport.MustBuildCatalog(t, cfg, syntheticFixture())
	store := testsupport.MustOpenCatalog(t, cfg)

	result, err := newSearcher(t, cfg, store).Run(context.Background(), []uint64{rootA, rootB})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Ranked) != 1 || result.Ranked[0].Work.ID != candidateC {
		t.Fatalf("expected only candidate C, got %d entries", len(result.Ranked))
	}
	if result.Candidates != 2 {
		t.Fatalf("truncation should not change candidate count, got %d", result.Candidates)
	}
}

func TestRankingIndependentOfWorkers(t *testing.T) {
	fixture := syntheticFixture()
	// Widen the candidate pool so several workers overlap.
	for i := uint64(0); i < 40; i++ {
		id := 500 + i
		fixture.Works = append(fixture.Works, testsupport.Work(id, fmt.Sprintf("Filler %02d", i%7), "movie"))
		fixture.Credits = append(fixture.Credits, testsupport.Credit(10+i%4, id, []string{"director", "composer", "writer", "casting"}[i%4], catalog.NullMarker))
	}

	type entry struct {
		ID    uint64
		Score float64
	}
	run := func(workers int) []entry {
		cfg := testsupport.NewConfig(t, testsupport.WithWorkers(workers))
		testsupport.MustBuildCatalog(t, cfg, fixture)
		store := testsupport.MustOpenCatalog(t, cfg)
		result, err := newSearcher(t, cfg, store).Run(context.Background(), []uint64{rootA, rootB})
		if err != nil {
			t.Fatalf("Run with %d workers: %v", workers, err)
		}
		out := make([]entry, len(result.Ranked))
		for i, a := range result.Ranked {
			out[i] = entry{ID: a.Work.ID, Score: a.Score}
		}
		return out
	}

	serial := run(1)
	if len(serial) != 42 {
		t.Fatalf("expected 42 ranked candidates, got %d", len(serial))
	}
	for _, workers := range []int{2, 8} {
		if diff := cmp.Diff(serial, run(workers)); diff != "" {
			t.Fatalf("ranking with %d workers differs (-serial +parallel):\n%s", workers, diff)
		}
	}
}

func TestRunRootNotFoundAborts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.MustBuildCatalog(t, cfg, syntheticFixture())
	store := testsupport.MustOpenCatalog(t, cfg)

	result, err := newSearcher(t, cfg, store).Run(context.Background(), []uint64{rootA, 9999})
	if !errors.Is(err, faults.ErrWorkNotFound) {
		t.Fatalf("expected ErrWorkNotFound, got %v", err)
	}
	if result != nil {
		t.Fatal("expected no result on root failure")
	}
}

func TestRunRequiresRoots(t *testing.T) {
	_, err := search.New(nil, search.Options{}).Run(context.Background(), nil)
	if !errors.Is(err, faults.ErrMalformedIdentifier) {
		t.Fatalf("expected ErrMalformedIdentifier, got %v", err)
	}
}

// flakyCatalog fails Work lookups for selected candidates.
type flakyCatalog struct {
	*catalog.Store
	failures map[uint64]error
}

func (f *flakyCatalog) Work(ctx context.Context, id uint64) (catalog.WorkRow, error) {
	if err, ok := f.failures[id]; ok {
		return catalog.WorkRow{}, err
	}
	return f.Store.Work(ctx, id)
}

var _ works.Source = (*flakyCatalog)(nil)

func TestRunSkipsBrokenCandidate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.MustBuildCatalog(t, cfg, syntheticFixture())
	cat := &flakyCatalog{
		Store: testsupport.MustOpenCatalog(t, cfg),
		failures: map[uint64]error{
			candidateD: faults.Wrap(faults.ErrWorkNotFound, "catalog", "work", "no work with id 4", nil),
		},
	}

	result, err := newSearcher(t, cfg, cat).Run(context.Background(), []uint64{rootA, rootB})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].ID != candidateD {
		t.Fatalf("expected candidate D skipped, got %+v", result.Skipped)
	}
	if len(result.Ranked) != 1 || result.Ranked[0].Work.ID != candidateC {
		t.Fatalf("expected only candidate C ranked, got %d", len(result.Ranked))
	}
}

func TestRunAbortsWhenStoreUnavailable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.MustBuildCatalog(t, cfg, syntheticFixture())
	cat := &flakyCatalog{
		Store: testsupport.MustOpenCatalog(t, cfg),
		failures: map[uint64]error{
			candidateD: faults.Wrap(faults.ErrStoreUnavailable, "catalog", "work", "id 4", errors.New("disk I/O error")),
		},
	}

	result, err := newSearcher(t, cfg, cat).Run(context.Background(), []uint64{rootA, rootB})
	if !errors.Is(err, faults.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if result != nil {
		t.Fatal("expected no partial result")
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.MustBuildCatalog(t, cfg, syntheticFixture())
	store := testsupport.MustOpenCatalog(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newSearcher(t, cfg, store).Run(ctx, []uint64{rootA}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
