package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrWorkNotFound        = errors.New("work not found")
	ErrStoreUnavailable    = errors.New("catalog store unavailable")
	ErrMalformedIdentifier = errors.New("malformed identifier")
	ErrConfiguration       = errors.New("configuration error")
	ErrDataset             = errors.New("dataset error")
	ErrCatalogBusy         = errors.New("catalog busy")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrStoreUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short classification for err, used in log fields.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrWorkNotFound):
		return "not_found"
	case errors.Is(err, ErrMalformedIdentifier):
		return "malformed_identifier"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrDataset):
		return "dataset"
	case errors.Is(err, ErrCatalogBusy):
		return "busy"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}

// Hint returns a next-step suggestion for err, or "" when none applies.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrWorkNotFound):
		return "check the identifier against the catalog, or rebuild it with `caterer build`"
	case errors.Is(err, ErrMalformedIdentifier):
		return "identifiers look like tt0903747 or 903747"
	case errors.Is(err, ErrCatalogBusy):
		return "another caterer build is running; wait for it to finish"
	case errors.Is(err, ErrStoreUnavailable):
		return "verify paths.catalog points at a catalog created by `caterer build`"
	case errors.Is(err, ErrDataset):
		return "verify paths.dataset_dir holds the IMDb TSV dumps"
	default:
		return ""
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "catalog failure"
	}
	return strings.Join(parts, ": ")
}
