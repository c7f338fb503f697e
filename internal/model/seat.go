package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Seat describes a physical seat of the venue.  Seats are identified
// by an opaque numeric ID and a human readable label such as "A1".
// Seats never change after creation; whether a seat is free or taken
// only makes sense relative to a ShowingKey.
//
// Fields:
//  ID    – primary key identifier.
//  Label – unique label shown to customers.
type Seat struct {
	ID    uint64 `json:"seat_id"`    // seats.seat_id
	Label string `json:"seat_label"` // seats.seat_label
}

// ExpandSeatLabels turns a compact catalog description into a list of
// labels.  Items are separated by commas; an item is either a single
// label ("B7") or a range within one row ("A1-A10").  Duplicates are
// removed while preserving the first occurrence.
func ExpandSeatLabels(catalog string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	add := func(label string) {
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	for _, item := range strings.Split(catalog, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		from, to, isRange := strings.Cut(item, "-")
		if !isRange {
			add(item)
			continue
		}
		rowA, nA, err := splitLabel(strings.TrimSpace(from))
		if err != nil {
			return nil, err
		}
		rowB, nB, err := splitLabel(strings.TrimSpace(to))
		if err != nil {
			return nil, err
		}
		if rowA != rowB || nB < nA {
			return nil, fmt.Errorf("invalid seat range %q", item)
		}
		for n := nA; n <= nB; n++ {
			add(rowA + strconv.Itoa(n))
		}
	}
	return out, nil
}

// splitLabel separates "AB12" into its row prefix and seat number.
func splitLabel(label string) (string, int, error) {
	i := strings.IndexFunc(label, func(r rune) bool { return r >= '0' && r <= '9' })
	if i <= 0 {
		return "", 0, fmt.Errorf("invalid seat label %q", label)
	}
	n, err := strconv.Atoi(label[i:])
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("invalid seat label %q", label)
	}
	return label[:i], n, nil
}
