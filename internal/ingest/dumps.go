package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"caterer/internal/faults"
)

// maxLineBytes bounds a single dump row; knownForTitles lists can be long.
const maxLineBytes = 16 << 20

type dump struct {
	name   string
	header []string
}

var (
	titleBasics = dump{"title.basics", []string{
		"tconst", "titleType", "primaryTitle", "originalTitle", "isAdult",
		"startYear", "endYear", "runtimeMinutes", "genres",
	}}
	titleEpisode    = dump{"title.episode", []string{"tconst", "parentTconst", "seasonNumber", "episodeNumber"}}
	titleRatings    = dump{"title.ratings", []string{"tconst", "averageRating", "numVotes"}}
	nameBasics      = dump{"name.basics", []string{"nconst", "primaryName", "birthYear", "deathYear", "primaryProfession", "knownForTitles"}}
	titlePrincipals = dump{"title.principals", []string{"tconst", "ordering", "nconst", "category", "job", "characters"}}
)

// Dumps lists the dump base names in load order.
func Dumps() []string {
	return []string{titleBasics.name, titleEpisode.name, titleRatings.name, nameBasics.name, titlePrincipals.name}
}

// locate returns the path of d inside dir, preferring the uncompressed form.
func (d dump) locate(dir string) (string, error) {
	for _, candidate := range []string{d.name + ".tsv", d.name + ".tsv.gz"} {
		path := filepath.Join(dir, candidate)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", faults.Wrap(faults.ErrDataset, "ingest", "locate", path, err)
		}
	}
	return "", faults.Wrap(faults.ErrDataset, "ingest", "locate",
		fmt.Sprintf("no %s.tsv or %s.tsv.gz in %s", d.name, d.name, dir), nil)
}

// rowReader yields the tab-separated fields of each data row after checking
// the header.
type rowReader struct {
	dump    dump
	path    string
	scanner *bufio.Scanner
	closers []io.Closer
	line    int
}

// open reads from path, counting raw bytes into progress when non-nil.
func (d dump) open(path string, progress io.Writer) (*rowReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrDataset, "ingest", "open", path, err)
	}
	rr := &rowReader{dump: d, path: path, closers: []io.Closer{file}}

	var src io.Reader = file
	if progress != nil {
		src = io.TeeReader(file, progress)
	}
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(src)
		if err != nil {
			rr.Close()
			return nil, faults.Wrap(faults.ErrDataset, "ingest", "open", path, err)
		}
		rr.closers = append(rr.closers, gz)
		src = gz
	}

	rr.scanner = bufio.NewScanner(src)
	rr.scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	if err := rr.checkHeader(); err != nil {
		rr.Close()
		return nil, err
	}
	return rr, nil
}

func (r *rowReader) checkHeader() error {
	fields, ok, err := r.next()
	if err != nil {
		return err
	}
	if !ok {
		return faults.Wrap(faults.ErrDataset, "ingest", "header", fmt.Sprintf("%s is empty", r.path), nil)
	}
	if strings.Join(fields, "\t") != strings.Join(r.dump.header, "\t") {
		return faults.Wrap(faults.ErrDataset, "ingest", "header",
			fmt.Sprintf("%s does not match the expected %s header", r.path, r.dump.name), nil)
	}
	return nil
}

// next returns the fields of the next row. ok is false at end of input.
func (r *rowReader) next() ([]string, bool, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, false, faults.Wrap(faults.ErrDataset, "ingest", "read", fmt.Sprintf("%s line %d", r.path, r.line+1), err)
		}
		return nil, false, nil
	}
	r.line++
	fields := strings.Split(strings.TrimSuffix(r.scanner.Text(), "\r"), "\t")
	if r.line > 1 && len(fields) < len(r.dump.header) {
		return nil, false, r.rowError(fmt.Sprintf("expected %d fields, found %d", len(r.dump.header), len(fields)), nil)
	}
	return fields, true, nil
}

func (r *rowReader) rowError(message string, err error) error {
	return faults.Wrap(faults.ErrDataset, "ingest", r.dump.name, fmt.Sprintf("%s line %d: %s", r.path, r.line, message), err)
}

// annotate adds the row position to a failure that is not the dump's fault.
func (r *rowReader) annotate(err error) error {
	return fmt.Errorf("%s line %d: %w", r.path, r.line, err)
}

// id parses a prefixed identifier such as tt0903747 or nm0000001.
func (r *rowReader) id(raw, prefix string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(raw, prefix), 10, 64)
	if err != nil {
		return 0, r.rowError(fmt.Sprintf("bad identifier %q", raw), err)
	}
	return id, nil
}

func (r *rowReader) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
