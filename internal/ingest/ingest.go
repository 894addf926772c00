package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"caterer/internal/catalog"
	"caterer/internal/logging"
)

const (
	workPrefix   = "tt"
	personPrefix = "nm"
)

// Options configures a catalog build.
type Options struct {
	// DatasetDir holds the dump files.
	DatasetDir string
	// Catalog is the destination catalog path.
	Catalog   string
	BatchSize int
	// Progress receives a byte-level progress bar per dump. Nil disables it.
	Progress io.Writer
	Logger   *slog.Logger
}

// Stats counts what a build wrote and dropped.
type Stats struct {
	Works          int64
	SubWorks       int64
	Ratings        int64
	Persons        int64
	Credits        int64
	DroppedLinks   int64
	DroppedRatings int64
	DroppedCredits int64
	Elapsed        time.Duration
}

type loader struct {
	opts    Options
	builder *catalog.Builder
	logger  *slog.Logger
	works   map[uint64]struct{}
	persons map[uint64]struct{}
	stats   Stats
}

// Build loads every dump under opts.DatasetDir into a new catalog at
// opts.Catalog. On any failure the previous catalog is left in place.
func Build(ctx context.Context, opts Options) (Stats, error) {
	started := time.Now()
	logger := logging.WithContext(ctx, logging.NewComponentLogger(opts.Logger, "ingest"))

	// Locate everything up front so a missing dump fails before any writes.
	paths := make(map[string]string, 5)
	for _, d := range []dump{titleBasics, titleEpisode, titleRatings, nameBasics, titlePrincipals} {
		path, err := d.locate(opts.DatasetDir)
		if err != nil {
			return Stats{}, err
		}
		paths[d.name] = path
	}

	builder, err := catalog.Create(ctx, opts.Catalog, opts.BatchSize)
	if err != nil {
		return Stats{}, err
	}
	defer builder.Abort()

	l := &loader{
		opts:    opts,
		builder: builder,
		logger:  logger,
		works:   make(map[uint64]struct{}),
		persons: make(map[uint64]struct{}),
	}
	steps := []struct {
		dump dump
		load func(context.Context, *rowReader) (int64, error)
	}{
		{titleBasics, l.loadWorks},
		{titleEpisode, l.loadEpisodes},
		{titleRatings, l.loadRatings},
		{nameBasics, l.loadPersons},
		{titlePrincipals, l.loadCredits},
	}
	for _, step := range steps {
		if err := l.run(ctx, step.dump, paths[step.dump.name], step.load); err != nil {
			return Stats{}, err
		}
	}

	if err := builder.Commit(ctx); err != nil {
		return Stats{}, err
	}
	l.stats.Elapsed = time.Since(started)
	logger.Info("catalog built",
		logging.String("catalog", opts.Catalog),
		logging.String("works", humanize.Comma(l.stats.Works)),
		logging.String("persons", humanize.Comma(l.stats.Persons)),
		logging.String("credits", humanize.Comma(l.stats.Credits)),
		logging.Duration("elapsed", l.stats.Elapsed),
	)
	return l.stats, nil
}

func (l *loader) run(ctx context.Context, d dump, path string, load func(context.Context, *rowReader) (int64, error)) error {
	started := time.Now()
	bar := l.progressBar(d, path)
	var progress io.Writer
	if bar != nil {
		progress = bar
	}

	rows, err := d.open(path, progress)
	if err != nil {
		return err
	}
	defer rows.Close()

	count, err := load(ctx, rows)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}
	l.logger.Info("dump loaded",
		logging.String("dump", d.name),
		logging.String("rows", humanize.Comma(count)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func (l *loader) progressBar(d dump, path string) *progressbar.ProgressBar {
	if l.opts.Progress == nil {
		return nil
	}
	size := int64(-1)
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(l.opts.Progress),
		progressbar.OptionSetDescription(d.name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (l *loader) loadWorks(ctx context.Context, rows *rowReader) (int64, error) {
	var count int64
	for {
		fields, ok, err := rows.next()
		if err != nil || !ok {
			return count, err
		}
		id, err := rows.id(fields[0], workPrefix)
		if err != nil {
			return count, err
		}
		work := catalog.WorkRow{
			ID:        id,
			TitleType: fields[1],
			Title:     fields[2],
			StartYear: fields[5],
			Genres:    fields[8],
		}
		if err := l.builder.PutWork(ctx, work); err != nil {
			return count, rows.annotate(err)
		}
		l.works[id] = struct{}{}
		count++
		l.stats.Works++
	}
}

func (l *loader) loadEpisodes(ctx context.Context, rows *rowReader) (int64, error) {
	var count int64
	for {
		fields, ok, err := rows.next()
		if err != nil || !ok {
			return count, err
		}
		count++
		id, err := rows.id(fields[0], workPrefix)
		if err != nil {
			return count, err
		}
		parent, err := rows.id(fields[1], workPrefix)
		if err != nil {
			return count, err
		}
		if !l.knownWork(id) || !l.knownWork(parent) || id == parent {
			l.stats.DroppedLinks++
			continue
		}
		if err := l.builder.SetParent(ctx, id, parent); err != nil {
			return count, rows.annotate(err)
		}
		l.stats.SubWorks++
	}
}

func (l *loader) loadRatings(ctx context.Context, rows *rowReader) (int64, error) {
	var count int64
	for {
		fields, ok, err := rows.next()
		if err != nil || !ok {
			return count, err
		}
		count++
		id, err := rows.id(fields[0], workPrefix)
		if err != nil {
			return count, err
		}
		if !l.knownWork(id) {
			l.stats.DroppedRatings++
			continue
		}
		if err := l.builder.SetRating(ctx, id, fields[1]); err != nil {
			return count, rows.annotate(err)
		}
		l.stats.Ratings++
	}
}

func (l *loader) loadPersons(ctx context.Context, rows *rowReader) (int64, error) {
	var count int64
	for {
		fields, ok, err := rows.next()
		if err != nil || !ok {
			return count, err
		}
		id, err := rows.id(fields[0], personPrefix)
		if err != nil {
			return count, err
		}
		if err := l.builder.PutPerson(ctx, catalog.PersonRow{ID: id, Name: fields[1], Born: fields[2]}); err != nil {
			return count, rows.annotate(err)
		}
		l.persons[id] = struct{}{}
		count++
		l.stats.Persons++
	}
}

func (l *loader) loadCredits(ctx context.Context, rows *rowReader) (int64, error) {
	var count int64
	for {
		fields, ok, err := rows.next()
		if err != nil || !ok {
			return count, err
		}
		count++
		workID, err := rows.id(fields[0], workPrefix)
		if err != nil {
			return count, err
		}
		personID, err := rows.id(fields[2], personPrefix)
		if err != nil {
			return count, err
		}
		if !l.knownWork(workID) {
			l.stats.DroppedCredits++
			continue
		}
		if _, ok := l.persons[personID]; !ok {
			l.stats.DroppedCredits++
			continue
		}
		credit := catalog.CreditRow{PersonID: personID, WorkID: workID, Category: fields[3], Job: fields[4]}
		if err := l.builder.PutCredit(ctx, credit); err != nil {
			return count, rows.annotate(err)
		}
		l.stats.Credits++
	}
}

func (l *loader) knownWork(id uint64) bool {
	_, ok := l.works[id]
	return ok
}

// Summary renders stats as a one-line description.
func (s Stats) Summary() string {
	return fmt.Sprintf("%s works (%s sub-works), %s persons, %s credits in %s",
		humanize.Comma(s.Works), humanize.Comma(s.SubWorks),
		humanize.Comma(s.Persons), humanize.Comma(s.Credits),
		s.Elapsed.Round(time.Millisecond))
}
