package works

import (
	"context"
	"fmt"
	"math"
	"strings"

	"caterer/internal/catalog"
	"caterer/internal/roles"
)

// Hydrate loads the work identified by id together with its sub-works and
// aggregated credits. A missing work surfaces the store's not-found error.
func Hydrate(ctx context.Context, src Source, id uint64) (*Work, error) {
	row, err := src.Work(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("hydrate work %d: %w", id, err)
	}
	work := &Work{
		ID:        row.ID,
		Title:     row.Title,
		TitleType: row.TitleType,
		StartYear: stripNull(row.StartYear),
		Genres:    splitGenres(row.Genres),
		Rating:    stripNull(row.Rating),
		Credits:   make(map[uint64]*PersonCredit),
	}

	work.SubWorks, err = src.SubWorkIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("hydrate work %d sub-works: %w", id, err)
	}

	direct, err := src.CreditsForWork(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("hydrate work %d credits: %w", id, err)
	}
	for _, edge := range direct {
		credit := work.credit(edge)
		credit.Direct = true
		credit.addJob(edge.Category)
		credit.addJob(edge.Job)
	}

	if len(work.SubWorks) > 0 {
		episodic, err := src.CreditsForWorks(ctx, work.SubWorks)
		if err != nil {
			return nil, fmt.Errorf("hydrate work %d sub-work credits: %w", id, err)
		}
		work.addEpisodic(episodic)
	}

	work.finalize()
	return work, nil
}

func (w *Work) credit(edge catalog.CreditRow) *PersonCredit {
	credit, ok := w.Credits[edge.PersonID]
	if !ok {
		credit = &PersonCredit{PersonID: edge.PersonID, Name: edge.Name}
		w.Credits[edge.PersonID] = credit
	}
	return credit
}

func (w *Work) addEpisodic(edges []catalog.CreditRow) {
	// A person with several edges on one sub-work still counts it once.
	seen := make(map[uint64]map[uint64]struct{})
	for _, edge := range edges {
		credit := w.credit(edge)
		episodes, ok := seen[edge.PersonID]
		if !ok {
			episodes = make(map[uint64]struct{})
			seen[edge.PersonID] = episodes
		}
		if _, counted := episodes[edge.WorkID]; !counted {
			episodes[edge.WorkID] = struct{}{}
			credit.EpisodeCount++
		}
		credit.addJob(edge.Category)
		credit.addJob(edge.Job)
	}
}

func (w *Work) finalize() {
	for _, credit := range w.Credits {
		best, err := roles.BestJob(credit.Jobs)
		if err != nil {
			// Every job on the edge was null; the person contributes nothing.
			credit.BestJob = ""
			credit.Score = 0
			credit.Stylistic = false
			continue
		}
		credit.BestJob = best
		credit.Score = roles.JobWeight(best)
		credit.Stylistic = roles.IsStylistic(best)
		if len(w.SubWorks) > 0 && credit.EpisodeCount > 0 {
			credit.Score *= EpisodeProportion(credit.EpisodeCount, len(w.SubWorks))
		}
	}
}

// EpisodeProportion is the score multiplier for a person credited on
// episodes of total sub-works: full weight at half the run or more.
func EpisodeProportion(episodes, total int) float64 {
	if total <= 0 {
		return 1
	}
	return math.Min(1, 2*float64(episodes)/float64(total))
}

func splitGenres(raw string) []string {
	raw = stripNull(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	genres := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			genres = append(genres, part)
		}
	}
	return genres
}

func stripNull(value string) string {
	if value == catalog.NullMarker {
		return ""
	}
	return value
}
