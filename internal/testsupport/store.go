package testsupport

import (
	"context"
	"testing"

	"caterer/internal/catalog"
	"caterer/internal/config"
)

// Fixture describes catalog rows to seed. Works are inserted first, then
// parent links and ratings, then persons, then credits.
type Fixture struct {
	Works   []catalog.WorkRow
	Persons []catalog.PersonRow
	Credits []catalog.CreditRow
}

// Work returns a top-level work row.
func Work(id uint64, title, titleType string) catalog.WorkRow {
	return catalog.WorkRow{ID: id, Title: title, TitleType: titleType, StartYear: "2008", Genres: "Drama"}
}

// Episode returns a sub-work row owned by parent.
func Episode(id, parent uint64) catalog.WorkRow {
	return catalog.WorkRow{ID: id, Title: "Episode", TitleType: "tvEpisode", StartYear: "2008", Genres: catalog.NullMarker, ParentID: parent, HasParent: true}
}

// Person returns a person row.
func Person(id uint64, name string) catalog.PersonRow {
	return catalog.PersonRow{ID: id, Name: name, Born: catalog.NullMarker}
}

// Credit returns a credit edge; use catalog.NullMarker for an absent job.
func Credit(personID, workID uint64, category, job string) catalog.CreditRow {
	return catalog.CreditRow{PersonID: personID, WorkID: workID, Category: category, Job: job}
}

// MustBuildCatalog writes fixture into the catalog at cfg.Paths.Catalog.
func MustBuildCatalog(t testing.TB, cfg *config.Config, fixture Fixture) {
	t.Helper()

	ctx := context.Background()
	builder, err := catalog.Create(ctx, cfg.Paths.Catalog, cfg.Ingest.BatchSize)
	if err != nil {
		t.Fatalf("catalog.Create: %v", err)
	}
	fail := func(what string, err error) {
		t.Helper()
		builder.Abort()
		t.Fatalf("%s: %v", what, err)
	}
	for _, work := range fixture.Works {
		if err := builder.PutWork(ctx, work); err != nil {
			fail("PutWork", err)
		}
	}
	for _, work := range fixture.Works {
		if work.HasParent {
			if err := builder.SetParent(ctx, work.ID, work.ParentID); err != nil {
				fail("SetParent", err)
			}
		}
		if work.Rating != "" {
			if err := builder.SetRating(ctx, work.ID, work.Rating); err != nil {
				fail("SetRating", err)
			}
		}
	}
	for _, person := range fixture.Persons {
		if err := builder.PutPerson(ctx, person); err != nil {
			fail("PutPerson", err)
		}
	}
	for _, credit := range fixture.Credits {
		if err := builder.PutCredit(ctx, credit); err != nil {
			fail("PutCredit", err)
		}
	}
	if err := builder.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

// MustOpenCatalog opens a catalog.Store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(context.Background(), cfg.Paths.Catalog, catalog.Options{MaxOpenConns: cfg.Search.Workers})
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
