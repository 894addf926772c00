package roles

import (
	"errors"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
)

// Role is a canonical creative role.
type Role string

const (
	WrittenBy          Role = "written-by"
	CastingDirector    Role = "casting-director"
	ProductionDesigner Role = "production-designer"
	Editor             Role = "editor"
	Composer           Role = "composer"
	Cinematographer    Role = "cinematographer"
	Producer           Role = "producer"
	BasedOn            Role = "based-on"
	Director           Role = "director"
	Other              Role = "other"
)

// MinWeight is the weight of Other. Any heavier role is stylistic.
const MinWeight = 1.0

// ErrNoJobs is returned by BestJob for an empty job list.
var ErrNoJobs = errors.New("no jobs to rank")

type rule struct {
	role     Role
	keywords []string
}

// Order matters: earlier rules shadow later ones.
var rules = []rule{
	{WrittenBy, []string{"written", "script", "writer", "developed", "created", "story", "screenplay", "writing", "adapted", "devise", "idea"}},
	{CastingDirector, []string{"casting"}},
	{ProductionDesigner, []string{"designer"}},
	{Editor, []string{"editor"}},
	{Composer, []string{"composer"}},
	{Cinematographer, []string{"cinematographer", "photograph"}},
	{Producer, []string{"producer"}},
	{BasedOn, []string{"based", "original", "novel"}},
	{Director, []string{"director", "showrunner"}},
}

var weights = map[Role]float64{
	Cinematographer:    60,
	Composer:           60,
	Director:           50,
	WrittenBy:          40,
	ProductionDesigner: 30,
	Editor:             20,
	BasedOn:            20,
	Producer:           20,
	CastingDirector:    10,
	Other:              MinWeight,
}

var colors = map[Role]text.Colors{
	Cinematographer:    {text.FgMagenta},
	Composer:           {text.FgGreen},
	Director:           {text.FgCyan},
	WrittenBy:          {text.FgYellow},
	BasedOn:            {text.FgYellow},
	ProductionDesigner: {text.FgBlue},
	Editor:             {text.FgBlue},
	Producer:           {text.FgBlue},
	CastingDirector:    {text.FgBlue},
	Other:              {text.FgRed},
}

// Normalize maps a raw job string to its canonical role.
func Normalize(raw string) Role {
	// Casers carry state, so each call gets its own.
	folded := cases.Fold().String(raw)
	for _, r := range rules {
		for _, keyword := range r.keywords {
			if strings.Contains(folded, keyword) {
				return r.role
			}
		}
	}
	return Other
}

// Weight returns the importance weight of role. Unknown roles weigh the minimum.
func Weight(role Role) float64 {
	if w, ok := weights[role]; ok {
		return w
	}
	return MinWeight
}

// JobWeight classifies job and returns its weight.
func JobWeight(job string) float64 {
	return Weight(Normalize(job))
}

// IsStylistic reports whether job carries more than the minimum weight.
func IsStylistic(job string) bool {
	return JobWeight(job) > MinWeight
}

// BestJob returns the heaviest job. On equal weight the earlier job is kept.
func BestJob(jobs []string) (string, error) {
	if len(jobs) == 0 {
		return "", ErrNoJobs
	}
	best := jobs[0]
	bestWeight := JobWeight(best)
	for _, job := range jobs[1:] {
		if w := JobWeight(job); w > bestWeight {
			best = job
			bestWeight = w
		}
	}
	return best, nil
}

func roleColor(role Role) text.Colors {
	if c, ok := colors[role]; ok {
		return c
	}
	return colors[Other]
}

// JobColor returns the display colour for a raw job string.
func JobColor(job string) text.Colors {
	return roleColor(Normalize(job))
}
