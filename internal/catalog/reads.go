package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"caterer/internal/faults"
)

const workColumns = "id, title, title_type, start_year, genres, rating, parent_id"

const creditColumns = "credits.person_id, credits.work_id, credits.category, credits.job, persons.name"

// Work fetches a single work's base attributes.
func (s *Store) Work(ctx context.Context, id uint64) (WorkRow, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+workColumns+` FROM works WHERE id = ?`, int64(id))
	work, err := scanWork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return WorkRow{}, faults.Wrap(faults.ErrWorkNotFound, "catalog", "work", fmt.Sprintf("no work with id %d", id), nil)
	}
	if err != nil {
		return WorkRow{}, unavailable("work", fmt.Sprintf("id %d", id), err)
	}
	return work, nil
}

// SubWorkIDs returns the identifiers of every work whose parent is id, in id order.
func (s *Store) SubWorkIDs(ctx context.Context, id uint64) ([]uint64, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM works WHERE parent_id = ? ORDER BY id`, int64(id))
	if err != nil {
		return nil, unavailable("sub-works", fmt.Sprintf("parent %d", id), err)
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var raw int64
		if err := rows.Scan(&raw); err != nil {
			return nil, unavailable("sub-works", fmt.Sprintf("parent %d", id), err)
		}
		ids = append(ids, uint64(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("sub-works", fmt.Sprintf("parent %d", id), err)
	}
	return ids, nil
}

// CreditsForWork returns every credit edge recorded directly on id.
func (s *Store) CreditsForWork(ctx context.Context, id uint64) ([]CreditRow, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+creditColumns+`
         FROM credits
         JOIN persons ON credits.person_id = persons.id
         WHERE credits.work_id = ?
         ORDER BY credits.id`,
		int64(id),
	)
	if err != nil {
		return nil, unavailable("credits for work", fmt.Sprintf("work %d", id), err)
	}
	defer rows.Close()

	credits, err := scanCredits(rows, nil)
	if err != nil {
		return nil, unavailable("credits for work", fmt.Sprintf("work %d", id), err)
	}
	return credits, nil
}

// CreditsForWorks returns every credit edge recorded on any of ids. Large sets
// are split into several statements; callers see one result.
func (s *Store) CreditsForWorks(ctx context.Context, ids []uint64) ([]CreditRow, error) {
	ctx = ensureContext(ctx)
	var credits []CreditRow
	for _, chunk := range chunkIDs(ids, maxQueryParams) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+creditColumns+`
             FROM credits
             JOIN persons ON credits.person_id = persons.id
             WHERE credits.work_id IN (`+makePlaceholders(len(chunk))+`)
             ORDER BY credits.id`,
			idArgs(chunk)...,
		)
		if err != nil {
			return nil, unavailable("credits for works", fmt.Sprintf("%d works", len(ids)), err)
		}
		credits, err = scanCredits(rows, credits)
		rows.Close()
		if err != nil {
			return nil, unavailable("credits for works", fmt.Sprintf("%d works", len(ids)), err)
		}
	}
	return credits, nil
}

// WorkIDsForPersons returns the distinct identifiers of works (top-level or
// sub-works) crediting any of personIDs, in ascending order.
func (s *Store) WorkIDsForPersons(ctx context.Context, personIDs []uint64) ([]uint64, error) {
	ctx = ensureContext(ctx)
	seen := make(map[uint64]struct{})
	for _, chunk := range chunkIDs(personIDs, maxQueryParams) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT DISTINCT work_id FROM credits WHERE person_id IN (`+makePlaceholders(len(chunk))+`)`,
			idArgs(chunk)...,
		)
		if err != nil {
			return nil, unavailable("works for persons", fmt.Sprintf("%d persons", len(personIDs)), err)
		}
		for rows.Next() {
			var raw int64
			if err := rows.Scan(&raw); err != nil {
				rows.Close()
				return nil, unavailable("works for persons", fmt.Sprintf("%d persons", len(personIDs)), err)
			}
			seen[uint64(raw)] = struct{}{}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, unavailable("works for persons", fmt.Sprintf("%d persons", len(personIDs)), err)
		}
	}
	return sortedIDs(seen), nil
}

// Owners maps each of ids to its owning top-level work: the parent for a
// sub-work, the work itself otherwise. Identifiers absent from the catalog are
// absent from the result.
func (s *Store) Owners(ctx context.Context, ids []uint64) (map[uint64]uint64, error) {
	ctx = ensureContext(ctx)
	owners := make(map[uint64]uint64, len(ids))
	for _, chunk := range chunkIDs(ids, maxQueryParams) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, parent_id FROM works WHERE id IN (`+makePlaceholders(len(chunk))+`)`,
			idArgs(chunk)...,
		)
		if err != nil {
			return nil, unavailable("owners", fmt.Sprintf("%d works", len(ids)), err)
		}
		for rows.Next() {
			var (
				id     int64
				parent sql.NullInt64
			)
			if err := rows.Scan(&id, &parent); err != nil {
				rows.Close()
				return nil, unavailable("owners", fmt.Sprintf("%d works", len(ids)), err)
			}
			if parent.Valid {
				owners[uint64(id)] = uint64(parent.Int64)
			} else {
				owners[uint64(id)] = uint64(id)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, unavailable("owners", fmt.Sprintf("%d works", len(ids)), err)
		}
	}
	return owners, nil
}

// Stats counts the rows in each catalog table.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{Path: s.path}
	queries := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(1) FROM works WHERE parent_id IS NULL`, &stats.Works},
		{`SELECT COUNT(1) FROM works WHERE parent_id IS NOT NULL`, &stats.SubWorks},
		{`SELECT COUNT(1) FROM persons`, &stats.Persons},
		{`SELECT COUNT(1) FROM credits`, &stats.Credits},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return stats, unavailable("stats", "", err)
		}
	}
	return stats, nil
}

func scanWork(scanner interface{ Scan(dest ...any) error }) (WorkRow, error) {
	var (
		id        int64
		title     sql.NullString
		titleType sql.NullString
		startYear sql.NullString
		genres    sql.NullString
		rating    sql.NullString
		parentID  sql.NullInt64
	)
	if err := scanner.Scan(&id, &title, &titleType, &startYear, &genres, &rating, &parentID); err != nil {
		return WorkRow{}, err
	}
	work := WorkRow{
		ID:        uint64(id),
		Title:     title.String,
		TitleType: titleType.String,
		StartYear: startYear.String,
		Genres:    genres.String,
		Rating:    rating.String,
	}
	if parentID.Valid {
		work.ParentID = uint64(parentID.Int64)
		work.HasParent = true
	}
	return work, nil
}

func scanCredits(rows *sql.Rows, dst []CreditRow) ([]CreditRow, error) {
	for rows.Next() {
		var (
			personID int64
			workID   int64
			category sql.NullString
			job      sql.NullString
			name     sql.NullString
		)
		if err := rows.Scan(&personID, &workID, &category, &job, &name); err != nil {
			return nil, err
		}
		dst = append(dst, CreditRow{
			PersonID: uint64(personID),
			WorkID:   uint64(workID),
			Category: nullToMarker(category),
			Job:      nullToMarker(job),
			Name:     name.String,
		})
	}
	return dst, rows.Err()
}

// nullToMarker folds SQL NULL into the dataset's own null marker so callers
// only need to filter one representation.
func nullToMarker(value sql.NullString) string {
	if !value.Valid {
		return NullMarker
	}
	return value.String
}

func sortedIDs(set map[uint64]struct{}) []uint64 {
	ids := make([]uint64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
