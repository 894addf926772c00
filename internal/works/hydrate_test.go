package works_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"caterer/internal/catalog"
	"caterer/internal/faults"
	"caterer/internal/works"
)

type memorySource struct {
	works   map[uint64]catalog.WorkRow
	credits []catalog.CreditRow
	calls   map[string]int
	failOn  string
}

func newMemorySource() *memorySource {
	return &memorySource{
		works: make(map[uint64]catalog.WorkRow),
		calls: make(map[string]int),
	}
}

func (m *memorySource) addWork(id uint64, title string) {
	m.works[id] = catalog.WorkRow{ID: id, Title: title, TitleType: "tvSeries", StartYear: "2010", Genres: "Crime,Drama", Rating: "8.1"}
}

func (m *memorySource) addEpisodes(parent uint64, ids ...uint64) {
	for _, id := range ids {
		m.works[id] = catalog.WorkRow{ID: id, Title: "Episode", ParentID: parent, HasParent: true}
	}
}

func (m *memorySource) credit(person, work uint64, name, category, job string) {
	m.credits = append(m.credits, catalog.CreditRow{PersonID: person, WorkID: work, Category: category, Job: job, Name: name})
}

func (m *memorySource) Work(_ context.Context, id uint64) (catalog.WorkRow, error) {
	m.calls["work"]++
	row, ok := m.works[id]
	if !ok {
		return catalog.WorkRow{}, faults.Wrap(faults.ErrWorkNotFound, "catalog", "work", fmt.Sprintf("no work with id %d", id), nil)
	}
	return row, nil
}

func (m *memorySource) SubWorkIDs(_ context.Context, id uint64) ([]uint64, error) {
	m.calls["subworks"]++
	var ids []uint64
	for _, row := range m.works {
		if row.HasParent && row.ParentID == id {
			ids = append(ids, row.ID)
		}
	}
	sortIDs(ids)
	return ids, nil
}

func (m *memorySource) CreditsForWork(_ context.Context, id uint64) ([]catalog.CreditRow, error) {
	m.calls["direct"]++
	var out []catalog.CreditRow
	for _, c := range m.credits {
		if c.WorkID == id {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memorySource) CreditsForWorks(_ context.Context, ids []uint64) ([]catalog.CreditRow, error) {
	m.calls["episodic"]++
	if m.failOn == "episodic" {
		return nil, faults.Wrap(faults.ErrStoreUnavailable, "catalog", "credits for works", "boom", errors.New("disk gone"))
	}
	want := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []catalog.CreditRow
	for _, c := range m.credits {
		if want[c.WorkID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func sortIDs(ids []uint64) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestHydrateBaseAttributes(t *testing.T) {
	src := newMemorySource()
	src.addWork(1, "Show")
	src.works[2] = catalog.WorkRow{ID: 2, Title: "Bare", Genres: catalog.NullMarker, StartYear: catalog.NullMarker, Rating: ""}

	work, err := works.Hydrate(context.Background(), src, 1)
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if work.Title != "Show" || work.TitleType != "tvSeries" || work.StartYear != "2010" || work.Rating != "8.1" {
		t.Fatalf("unexpected base attributes: %+v", work)
	}
	if diff := cmp.Diff([]string{"Crime", "Drama"}, work.Genres); diff != "" {
		t.Fatalf("genres mismatch (-want +got):\n%s", diff)
	}
	if src.calls["episodic"] != 0 {
		t.Fatalf("expected no sub-work credit query without sub-works, got %d", src.calls["episodic"])
	}

	bare, err := works.Hydrate(context.Background(), src, 2)
	if err != nil {
		t.Fatalf("Hydrate bare: %v", err)
	}
	if bare.Genres != nil || bare.StartYear != "" || bare.Rating != "" {
		t.Fatalf("expected null fields to be cleared: %+v", bare)
	}
}

func TestHydrateNotFound(t *testing.T) {
	src := newMemorySource()
	_, err := works.Hydrate(context.Background(), src, 77)
	if !errors.Is(err, faults.ErrWorkNotFound) {
		t.Fatalf("expected ErrWorkNotFound, got %v", err)
	}
}

func TestHydrateAggregatesCredits(t *testing.T) {
	src := newMemorySource()
	src.addWork(1, "Show")
	src.addEpisodes(1, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20)

	// Creator credited directly and on every episode.
	src.credit(100, 1, "Creator", "writer", "created by")
	for id := uint64(11); id <= 20; id++ {
		src.credit(100, id, "Creator", "writer", "written by")
	}
	// Director on five of ten episodes, job null.
	for id := uint64(11); id <= 15; id++ {
		src.credit(200, id, "Half Director", "director", catalog.NullMarker)
	}
	// Composer on two of ten episodes, two edges on the same episode.
	src.credit(300, 11, "Rare Composer", "composer", catalog.NullMarker)
	src.credit(300, 11, "Rare Composer", "composer", "main title theme")
	src.credit(300, 12, "Rare Composer", "composer", catalog.NullMarker)
	// Uncategorized crew.
	src.credit(400, 1, "Grip", "self", catalog.NullMarker)
	// Person with only null jobs.
	src.credit(500, 1, "Ghost", catalog.NullMarker, catalog.NullMarker)

	work, err := works.Hydrate(context.Background(), src, 1)
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if len(work.SubWorks) != 10 {
		t.Fatalf("expected 10 sub-works, got %d", len(work.SubWorks))
	}
	if src.calls["episodic"] != 1 {
		t.Fatalf("expected a single sub-work credit query, got %d", src.calls["episodic"])
	}

	creator := work.Credits[100]
	if creator == nil || !creator.Direct || creator.EpisodeCount != 10 {
		t.Fatalf("unexpected creator credit: %+v", creator)
	}
	if diff := cmp.Diff([]string{"writer", "created by", "written by"}, creator.Jobs); diff != "" {
		t.Fatalf("creator jobs mismatch (-want +got):\n%s", diff)
	}
	if !approx(creator.Score, 40) || !creator.Stylistic {
		t.Fatalf("unexpected creator score: %+v", creator)
	}

	director := work.Credits[200]
	if director.Direct || director.EpisodeCount != 5 {
		t.Fatalf("unexpected director credit: %+v", director)
	}
	if diff := cmp.Diff([]string{"director"}, director.Jobs); diff != "" {
		t.Fatalf("director jobs should exclude null marker (-want +got):\n%s", diff)
	}
	if !approx(director.Score, 50) {
		t.Fatalf("five of ten episodes should keep full weight, got %v", director.Score)
	}

	composer := work.Credits[300]
	if composer.EpisodeCount != 2 {
		t.Fatalf("composer should count distinct sub-works, got %d", composer.EpisodeCount)
	}
	if !approx(composer.Score, 60*0.4) {
		t.Fatalf("two of ten episodes should scale to 0.4, got %v", composer.Score)
	}

	grip := work.Credits[400]
	if grip.Stylistic || !approx(grip.Score, 1) {
		t.Fatalf("uncategorized crew should not be stylistic: %+v", grip)
	}

	ghost := work.Credits[500]
	if ghost == nil || len(ghost.Jobs) != 0 || ghost.Score != 0 || ghost.Stylistic {
		t.Fatalf("null-only credit should be inert: %+v", ghost)
	}

	if diff := cmp.Diff([]uint64{100, 200, 300}, work.StylisticPersons()); diff != "" {
		t.Fatalf("stylistic persons mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"main title theme", "self"}, work.IgnoredJobs()); diff != "" {
		t.Fatalf("ignored jobs mismatch (-want +got):\n%s", diff)
	}
	for _, credit := range work.Credits {
		if credit.EpisodeCount > len(work.SubWorks) {
			t.Fatalf("episode count %d exceeds sub-works for %s", credit.EpisodeCount, credit.Name)
		}
	}

	sorted := work.SortedCredits()
	if sorted[0].Name != "Creator" || sorted[len(sorted)-1].Name != "Rare Composer" {
		t.Fatalf("unexpected credit order: %s .. %s", sorted[0].Name, sorted[len(sorted)-1].Name)
	}
}

func TestHydratePropagatesStoreFailure(t *testing.T) {
	src := newMemorySource()
	src.addWork(1, "Show")
	src.addEpisodes(1, 2)
	src.failOn = "episodic"

	_, err := works.Hydrate(context.Background(), src, 1)
	if !errors.Is(err, faults.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestEpisodeProportion(t *testing.T) {
	cases := []struct {
		episodes, total int
		want            float64
	}{
		{5, 10, 1},
		{2, 10, 0.4},
		{10, 10, 1},
		{1, 3, 2.0 / 3.0},
		{3, 0, 1},
	}
	for _, tc := range cases {
		if got := works.EpisodeProportion(tc.episodes, tc.total); !approx(got, tc.want) {
			t.Fatalf("EpisodeProportion(%d, %d) = %v, want %v", tc.episodes, tc.total, got, tc.want)
		}
	}
}
