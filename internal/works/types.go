package works

import (
	"context"
	"sort"

	"caterer/internal/catalog"
	"caterer/internal/roles"
)

// Source is the slice of the catalog the hydrator reads from.
type Source interface {
	Work(ctx context.Context, id uint64) (catalog.WorkRow, error)
	SubWorkIDs(ctx context.Context, id uint64) ([]uint64, error)
	CreditsForWork(ctx context.Context, id uint64) ([]catalog.CreditRow, error)
	CreditsForWorks(ctx context.Context, ids []uint64) ([]catalog.CreditRow, error)
}

// Work is a hydrated catalog work.
type Work struct {
	ID        uint64
	Title     string
	TitleType string
	StartYear string
	Genres    []string
	// Rating is empty when unknown.
	Rating   string
	SubWorks []uint64
	Credits  map[uint64]*PersonCredit
}

// PersonCredit aggregates everything one person did on a work.
type PersonCredit struct {
	PersonID uint64
	Name     string
	// Jobs holds distinct raw job strings in the order first seen.
	Jobs []string
	// Direct is set when the person is credited on the work itself.
	Direct bool
	// EpisodeCount is the number of distinct sub-works crediting the person.
	EpisodeCount int
	BestJob      string
	Stylistic    bool
	Score        float64
}

// StylisticPersons returns the identifiers of stylistic credits in ascending order.
func (w *Work) StylisticPersons() []uint64 {
	ids := make([]uint64, 0, len(w.Credits))
	for id, credit := range w.Credits {
		if credit.Stylistic {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IgnoredJobs returns the distinct raw jobs on this work that carry only the
// minimum weight, sorted.
func (w *Work) IgnoredJobs() []string {
	set := make(map[string]struct{})
	for _, credit := range w.Credits {
		for _, job := range credit.Jobs {
			if !roles.IsStylistic(job) {
				set[job] = struct{}{}
			}
		}
	}
	jobs := make([]string, 0, len(set))
	for job := range set {
		jobs = append(jobs, job)
	}
	sort.Strings(jobs)
	return jobs
}

// SortedCredits returns the credits ordered by name, then person identifier.
func (w *Work) SortedCredits() []*PersonCredit {
	credits := make([]*PersonCredit, 0, len(w.Credits))
	for _, credit := range w.Credits {
		credits = append(credits, credit)
	}
	sort.Slice(credits, func(i, j int) bool {
		if credits[i].Name != credits[j].Name {
			return credits[i].Name < credits[j].Name
		}
		return credits[i].PersonID < credits[j].PersonID
	})
	return credits
}

func (c *PersonCredit) addJob(job string) {
	if job == "" || job == catalog.NullMarker {
		return
	}
	for _, existing := range c.Jobs {
		if existing == job {
			return
		}
	}
	c.Jobs = append(c.Jobs, job)
}
