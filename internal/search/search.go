package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"caterer/internal/affinity"
	"caterer/internal/faults"
	"caterer/internal/logging"
	"caterer/internal/works"
)

// DefaultTop is the number of ranked candidates kept when Options.Top is unset.
const DefaultTop = 100

// Catalog is the store surface a search needs.
type Catalog interface {
	works.Source
	WorkIDsForPersons(ctx context.Context, personIDs []uint64) ([]uint64, error)
	Owners(ctx context.Context, ids []uint64) (map[uint64]uint64, error)
}

// Options tunes a Searcher.
type Options struct {
	// Workers bounds concurrent candidate hydration. Zero means NumCPU.
	Workers int
	// Top limits the ranking. Zero means DefaultTop.
	Top    int
	Logger *slog.Logger
}

// Searcher ranks catalog works by affinity with a set of roots.
type Searcher struct {
	catalog Catalog
	workers int
	top     int
	logger  *slog.Logger
}

// Skipped records a candidate dropped because it could not be hydrated.
type Skipped struct {
	ID  uint64
	Err error
}

// Timings records wall-clock time per phase.
type Timings struct {
	Roots      time.Duration
	Expansion  time.Duration
	Candidates time.Duration
	Scoring    time.Duration
}

// Result is the outcome of a successful run.
type Result struct {
	RunID string
	Roots []*works.Work
	// StylisticPersons is the size of the union of stylistic people on the roots.
	StylisticPersons int
	// Candidates counts the works discovered through those people, roots excluded.
	Candidates  int
	Skipped     []Skipped
	IgnoredJobs []string
	// Ranked holds at most Top affinities, best first.
	Ranked  []affinity.Affinity
	Timings Timings
}

// New builds a Searcher over catalog.
func New(catalog Catalog, opts Options) *Searcher {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	top := opts.Top
	if top <= 0 {
		top = DefaultTop
	}
	return &Searcher{
		catalog: catalog,
		workers: workers,
		top:     top,
		logger:  logging.NewComponentLogger(opts.Logger, "search"),
	}
}

// Run performs a search rooted at rootIDs.
func (s *Searcher) Run(ctx context.Context, rootIDs []uint64) (*Result, error) {
	if len(rootIDs) == 0 {
		return nil, faults.Wrap(faults.ErrMalformedIdentifier, "search", "run", "no root work identifiers given", nil)
	}
	result := &Result{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, result.RunID)
	ctx = logging.WithRoots(ctx, rootIDs)
	logger := logging.WithContext(ctx, s.logger)

	started := time.Now()
	roots, err := s.hydrateRoots(ctx, rootIDs)
	if err != nil {
		return nil, err
	}
	result.Roots = roots
	result.Timings.Roots = time.Since(started)
	for _, root := range roots {
		logger.Info("root work hydrated",
			logging.Uint64(logging.FieldWorkID, root.ID),
			logging.String("title", root.Title),
			logging.Int("credits", len(root.Credits)),
			logging.Int("sub_works", len(root.SubWorks)),
		)
	}

	started = time.Now()
	persons := stylisticUnion(roots)
	result.StylisticPersons = len(persons)
	candidateIDs, err := s.expand(ctx, persons, rootIDs)
	if err != nil {
		return nil, err
	}
	result.Candidates = len(candidateIDs)
	result.Timings.Expansion = time.Since(started)
	logger.Info("candidate works discovered",
		logging.String("stylistic_persons", humanize.Comma(int64(len(persons)))),
		logging.String("candidates", humanize.Comma(int64(len(candidateIDs)))),
		logging.Duration("elapsed", result.Timings.Expansion),
	)

	started = time.Now()
	candidates, skipped, err := s.hydrateCandidates(ctx, candidateIDs)
	if err != nil {
		return nil, err
	}
	result.Skipped = skipped
	result.Timings.Candidates = time.Since(started)
	for _, skip := range skipped {
		logging.WarnWithContext(logger, "candidate skipped", "candidate_skipped",
			logging.Uint64(logging.FieldWorkID, skip.ID),
			logging.Error(skip.Err),
			logging.String(logging.FieldErrorHint, faults.Hint(skip.Err)),
			logging.String(logging.FieldImpact, "candidate left out of the ranking"),
		)
	}
	logger.Info("candidate works hydrated",
		logging.Int("hydrated", len(candidates)),
		logging.Int("skipped", len(skipped)),
		logging.Int("workers", s.workers),
		logging.Duration("elapsed", result.Timings.Candidates),
	)

	started = time.Now()
	result.IgnoredJobs = ignoredJobs(roots, candidates)
	result.Ranked = rank(roots, candidates, s.top)
	result.Timings.Scoring = time.Since(started)
	logger.Info("candidates ranked",
		logging.Int("ranked", len(result.Ranked)),
		logging.Int("ignored_jobs", len(result.IgnoredJobs)),
		logging.Duration("elapsed", result.Timings.Scoring),
	)
	return result, nil
}

func (s *Searcher) hydrateRoots(ctx context.Context, ids []uint64) ([]*works.Work, error) {
	roots := make([]*works.Work, 0, len(ids))
	for _, id := range ids {
		root, err := works.Hydrate(ctx, s.catalog, id)
		if err != nil {
			return nil, fmt.Errorf("root: %w", err)
		}
		roots = append(roots, root)
	}
	return roots, nil
}

// expand returns the top-level works crediting any of persons, roots
// excluded, in ascending order.
func (s *Searcher) expand(ctx context.Context, persons, rootIDs []uint64) ([]uint64, error) {
	if len(persons) == 0 {
		return nil, nil
	}
	credited, err := s.catalog.WorkIDsForPersons(ctx, persons)
	if err != nil {
		return nil, fmt.Errorf("expand personnel: %w", err)
	}
	owners, err := s.catalog.Owners(ctx, credited)
	if err != nil {
		return nil, fmt.Errorf("resolve owners: %w", err)
	}

	exclude := make(map[uint64]struct{}, len(rootIDs))
	for _, id := range rootIDs {
		exclude[id] = struct{}{}
	}
	set := make(map[uint64]struct{})
	for _, id := range credited {
		owner, ok := owners[id]
		if !ok {
			return nil, faults.Wrap(faults.ErrWorkNotFound, "search", "resolve owners", fmt.Sprintf("credited work %d missing from catalog", id), nil)
		}
		if _, isRoot := exclude[owner]; isRoot {
			continue
		}
		set[owner] = struct{}{}
	}

	ids := make([]uint64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// hydrateCandidates hydrates ids with at most s.workers in flight. Each
// worker writes only its own slot, so the output order follows ids.
func (s *Searcher) hydrateCandidates(ctx context.Context, ids []uint64) ([]*works.Work, []Skipped, error) {
	hydrated := make([]*works.Work, len(ids))
	failures := make([]error, len(ids))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for i, id := range ids {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			work, err := works.Hydrate(groupCtx, s.catalog, id)
			if err != nil {
				if fatal(err) {
					return fmt.Errorf("candidate: %w", err)
				}
				failures[i] = err
				return nil
			}
			hydrated[i] = work
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, nil, err
	}

	candidates := make([]*works.Work, 0, len(ids))
	var skipped []Skipped
	for i, id := range ids {
		if failures[i] != nil {
			skipped = append(skipped, Skipped{ID: id, Err: failures[i]})
			continue
		}
		candidates = append(candidates, hydrated[i])
	}
	return candidates, skipped, nil
}

func fatal(err error) bool {
	return errors.Is(err, faults.ErrStoreUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func stylisticUnion(roots []*works.Work) []uint64 {
	set := make(map[uint64]struct{})
	for _, root := range roots {
		for _, id := range root.StylisticPersons() {
			set[id] = struct{}{}
		}
	}
	ids := make([]uint64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func ignoredJobs(roots, candidates []*works.Work) []string {
	set := make(map[string]struct{})
	for _, group := range [][]*works.Work{roots, candidates} {
		for _, work := range group {
			for _, job := range work.IgnoredJobs() {
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

// rank scores every candidate and keeps the best top, ordered by score, then
// title, then identifier.
func rank(roots, candidates []*works.Work, top int) []affinity.Affinity {
	ranked := make([]affinity.Affinity, 0, len(candidates))
	for _, candidate := range candidates {
		ranked = append(ranked, affinity.Score(roots, candidate))
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Work.Title != b.Work.Title {
			return a.Work.Title < b.Work.Title
		}
		return a.Work.ID < b.Work.ID
	})
	if len(ranked) > top {
		ranked = ranked[:top]
	}
	return ranked
}
