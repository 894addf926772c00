package search

import (
	"fmt"
	"strconv"
	"strings"

	"caterer/internal/faults"
)

// ParseWorkID turns a catalog identifier such as "tt0306414" into its numeric
// form. The prefix is optional.
func ParseWorkID(raw, prefix string) (uint64, error) {
	trimmed := strings.TrimSpace(raw)
	digits := strings.TrimPrefix(trimmed, prefix)
	if digits == "" {
		return 0, faults.Wrap(faults.ErrMalformedIdentifier, "search", "parse id", fmt.Sprintf("%q is not a work identifier", raw), nil)
	}
	id, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, faults.Wrap(faults.ErrMalformedIdentifier, "search", "parse id", fmt.Sprintf("%q is not a work identifier", raw), err)
	}
	return id, nil
}

// ParseWorkIDs parses every raw identifier, dropping repeats while keeping
// the first-seen order. At least one identifier is required.
func ParseWorkIDs(raws []string, prefix string) ([]uint64, error) {
	if len(raws) == 0 {
		return nil, faults.Wrap(faults.ErrMalformedIdentifier, "search", "parse id", "no root work identifiers given", nil)
	}
	seen := make(map[uint64]struct{}, len(raws))
	ids := make([]uint64, 0, len(raws))
	for _, raw := range raws {
		id, err := ParseWorkID(raw, prefix)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// FormatWorkID renders id in the catalog's native form, zero-padded to seven
// digits as the dumps are.
func FormatWorkID(id uint64, prefix string) string {
	return fmt.Sprintf("%s%07d", prefix, id)
}
