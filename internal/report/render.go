package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/text"

	"caterer/internal/affinity"
	"caterer/internal/roles"
	"caterer/internal/search"
	"caterer/internal/works"
)

const ansiReset = "\x1b[0m"

var (
	styleTitle     = text.Colors{text.Bold}
	styleRootTitle = text.Colors{text.Bold, text.Underline}
	styleEmpty     = text.Colors{text.FgRed, text.Faint}
	styleHeading   = text.Colors{text.FgHiBlack}
)

// Renderer writes reports. The zero value renders without colour using the
// "tt" identifier prefix.
type Renderer struct {
	Color    bool
	IDPrefix string
}

func (r Renderer) paint(colors text.Colors, s string) string {
	if !r.Color || s == "" || len(colors) == 0 {
		return s
	}
	return colors.EscapeSeq() + s + ansiReset
}

func (r Renderer) prefix() string {
	if r.IDPrefix == "" {
		return "tt"
	}
	return r.IDPrefix
}

// Summary writes the run overview: roots, expansion counts, skipped
// candidates, ignored jobs, and phase timings.
func (r Renderer) Summary(w io.Writer, result *search.Result) error {
	var b strings.Builder

	b.WriteString(r.paint(styleHeading, "----> Root works") + "\n")
	for _, root := range result.Roots {
		fmt.Fprintf(&b, "  • %s %s: %s credits, %s sub-works\n",
			r.paint(styleTitle, titleWithYear(root)),
			search.FormatWorkID(root.ID, r.prefix()),
			humanize.Comma(int64(len(root.Credits))),
			humanize.Comma(int64(len(root.SubWorks))),
		)
	}
	fmt.Fprintf(&b, "%s Found %s stylistic people and %s linked works\n",
		r.paint(styleHeading, "---->"),
		humanize.Comma(int64(result.StylisticPersons)),
		humanize.Comma(int64(result.Candidates)),
	)

	if len(result.Skipped) > 0 {
		fmt.Fprintf(&b, "%s Skipped %d works that could not be loaded\n", r.paint(styleHeading, "---->"), len(result.Skipped))
		for _, skip := range result.Skipped {
			fmt.Fprintf(&b, "  • %s: %v\n", search.FormatWorkID(skip.ID, r.prefix()), skip.Err)
		}
	}

	if len(result.IgnoredJobs) > 0 {
		b.WriteString("Ignoring the following jobs as non-stylistic:\n")
		for _, job := range result.IgnoredJobs {
			fmt.Fprintf(&b, "  • %s\n", job)
		}
	}

	rows := [][]string{
		{"Root works", formatElapsed(result.Timings.Roots)},
		{"Expansion", formatElapsed(result.Timings.Expansion)},
		{"Candidates", formatElapsed(result.Timings.Candidates)},
		{"Scoring", formatElapsed(result.Timings.Scoring)},
	}
	b.WriteString(Table([]string{"Phase", "Elapsed"}, rows, []Alignment{AlignLeft, AlignRight}))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// Affinities writes one block per ranked candidate.
func (r Renderer) Affinities(w io.Writer, ranked []affinity.Affinity) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Top %d works:\n", r.paint(styleHeading, "---->"), len(ranked))
	for _, a := range ranked {
		b.WriteString("\n")
		r.writeBlock(&b, a)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r Renderer) writeBlock(b *strings.Builder, a affinity.Affinity) {
	work := a.Work
	fmt.Fprintf(b, "### %s\n", r.paint(styleTitle, titleWithYear(work)))
	rating := work.Rating
	if rating == "" {
		rating = "unknown"
	}
	fmt.Fprintf(b, "Rating: %s\n", rating)
	fmt.Fprintf(b, "%s: %s\n", work.TitleType, strings.Join(work.Genres, ","))
	for _, overlap := range a.Overlaps {
		fmt.Fprintf(b, "%s %s\n", r.bar(overlap), r.description(overlap))
	}
}

func (r Renderer) bar(o affinity.Overlap) string {
	if !r.Color {
		return o.Bar()
	}
	left, right := o.Root.Filled(), o.Candidate.Filled()
	return r.paint(styleEmpty, strings.Repeat("─", affinity.BarWidth-left)) +
		r.paint(roles.JobColor(o.Root.BestJob), strings.Repeat("▓", left)) +
		" / " +
		r.paint(roles.JobColor(o.Candidate.BestJob), strings.Repeat("▓", right)) +
		r.paint(styleEmpty, strings.Repeat("─", affinity.BarWidth-right))
}

func (r Renderer) description(o affinity.Overlap) string {
	if !r.Color {
		return o.Description()
	}
	return fmt.Sprintf("[%s] %s: %s → %s",
		r.paint(styleRootTitle, o.RootTitle), o.Name, r.side(o.Root), r.side(o.Candidate))
}

func (r Renderer) side(s affinity.Side) string {
	jobs := make([]string, len(s.Jobs))
	for i, job := range s.Jobs {
		jobs[i] = r.paint(roles.JobColor(job), job)
	}
	out := "(" + strings.Join(jobs, ", ") + ")"
	if fraction := s.Fraction(); fraction != "" {
		out = fraction + " " + out
	}
	return out
}

func titleWithYear(work *works.Work) string {
	if work.StartYear == "" {
		return work.Title
	}
	return fmt.Sprintf("%s (%s)", work.Title, work.StartYear)
}

func formatElapsed(d time.Duration) string {
	if d < time.Millisecond {
		return d.Round(time.Microsecond).String()
	}
	return d.Round(time.Millisecond).String()
}
