package affinity

import (
	"fmt"
	"sort"
	"strings"

	"caterer/internal/works"
)

// BarWidth is the number of cells on each side of an overlap bar.
const BarWidth = 10

// Affinity is a scored candidate.
type Affinity struct {
	Work     *works.Work
	Score    float64
	Overlaps []Overlap
}

// Side describes one person's involvement in one work.
type Side struct {
	Jobs    []string
	BestJob string
	// Episodes is the person's sub-work count; SubWorks the work's.
	Episodes int
	SubWorks int
}

// Overlap is one person shared between a root and the candidate.
type Overlap struct {
	PersonID     uint64
	Name         string
	RootID       uint64
	RootTitle    string
	Root         Side
	Candidate    Side
	Contribution float64
}

// Score compares candidate with every root. A person credited on several
// roots contributes once per root.
func Score(roots []*works.Work, candidate *works.Work) Affinity {
	result := Affinity{Work: candidate}
	for _, root := range roots {
		for _, rootCredit := range root.SortedCredits() {
			candCredit, ok := candidate.Credits[rootCredit.PersonID]
			if !ok {
				continue
			}
			contribution := rootCredit.Score * candCredit.Score
			result.Score += contribution
			result.Overlaps = append(result.Overlaps, Overlap{
				PersonID:     rootCredit.PersonID,
				Name:         rootCredit.Name,
				RootID:       root.ID,
				RootTitle:    root.Title,
				Root:         sideOf(rootCredit, root),
				Candidate:    sideOf(candCredit, candidate),
				Contribution: contribution,
			})
		}
	}
	sort.SliceStable(result.Overlaps, func(i, j int) bool {
		a, b := result.Overlaps[i], result.Overlaps[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.RootTitle != b.RootTitle {
			return a.RootTitle < b.RootTitle
		}
		return a.PersonID < b.PersonID
	})
	return result
}

func sideOf(credit *works.PersonCredit, work *works.Work) Side {
	return Side{
		Jobs:     credit.Jobs,
		BestJob:  credit.BestJob,
		Episodes: credit.EpisodeCount,
		SubWorks: len(work.SubWorks),
	}
}

// Filled returns how many of the BarWidth cells are filled for this side.
// A zero count or zero denominator is read as 10, so a direct credit on a
// work without sub-works fills the whole bar.
func (s Side) Filled() int {
	return BarCells(s.Episodes, s.SubWorks)
}

// Fraction renders "episodes/sub-works", or "" when the person has no
// sub-work credits.
func (s Side) Fraction() string {
	if s.Episodes <= 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", s.Episodes, s.SubWorks)
}

// BarCells returns ceil(10 * episodes / total) capped at BarWidth.
func BarCells(episodes, total int) int {
	if total <= 0 {
		total = 10
	}
	if episodes <= 0 {
		episodes = 10
	}
	cells := (episodes*BarWidth + total - 1) / total
	if cells > BarWidth {
		cells = BarWidth
	}
	return cells
}

// Bar renders the overlap without colour: the root side fills from the
// right, the candidate side from the left.
func (o Overlap) Bar() string {
	l, r := o.Root.Filled(), o.Candidate.Filled()
	return strings.Repeat("─", BarWidth-l) + strings.Repeat("▓", l) +
		" / " +
		strings.Repeat("▓", r) + strings.Repeat("─", BarWidth-r)
}

// Description renders the overlap line without colour.
func (o Overlap) Description() string {
	return fmt.Sprintf("[%s] %s: %s → %s", o.RootTitle, o.Name, describe(o.Root), describe(o.Candidate))
}

func describe(s Side) string {
	jobs := "(" + strings.Join(s.Jobs, ", ") + ")"
	if fraction := s.Fraction(); fraction != "" {
		return fraction + " " + jobs
	}
	return jobs
}
