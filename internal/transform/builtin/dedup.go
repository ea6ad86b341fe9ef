// DeDup is the policy-driven de-duplication transformer for the table
// builders. It collapses duplicate records by a configured key and chooses a
// winner according to a configurable policy:
//
//   - "keep-first" : keep the earliest occurrence in the batch (default)
//   - "keep-last"  : keep the latest occurrence in the batch
//   - "max-field"  : keep the record with the greatest numeric value in
//     MaxField; ties break by keep-last
//
// This runs in-memory on a single batch of records. Extract order is not
// guaranteed across runs, so tables whose survivor matters (users, where the
// subscription level changes over time) should use "max-field" on the event
// timestamp rather than a positional policy.
//
// Keys: a record's key is the concatenation of the configured fields as
// strings (nil -> "\x00"). Records missing a key field pass through
// untouched; the builders gate on Require first so that never happens in
// practice.

package builtin

import (
	"fmt"
	"sort"
	"strings"

	"sparkify/pkg/records"
)

// DeDup implements a configurable, in-memory de-duplication policy.
type DeDup struct {
	// Keys are the field names that form the business key, e.g. ["song_id"].
	Keys []string

	// Policy selects the winner among duplicates: "keep-first", "keep-last",
	// or "max-field" (default is "keep-first").
	Policy string

	// MaxField names the numeric field compared under the "max-field" policy.
	MaxField string

	// OnDrop, when set, is invoked once per losing duplicate.
	OnDrop func(records.Record)
}

// Apply executes the de-duplication and returns a new slice containing only
// the winning record for each key, in the winners' original input order.
func (d DeDup) Apply(in []records.Record) []records.Record {
	if len(in) == 0 || len(d.Keys) == 0 {
		return in
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = "keep-first"
	}

	type slot struct {
		rec   records.Record
		index int     // original position in input
		max   float64 // MaxField value (for max-field)
	}

	winners := make(map[string]slot, len(in))

	keyOf := func(r records.Record) (string, bool) {
		var b strings.Builder
		for _, k := range d.Keys {
			v, ok := r[k]
			if !ok {
				return "", false
			}
			if b.Len() > 0 {
				b.WriteByte('\x1f') // unlikely separator
			}
			switch t := v.(type) {
			case nil:
				b.WriteByte('\x00')
			case string:
				b.WriteString(t)
			default:
				b.WriteString(fmt.Sprint(t))
			}
		}
		return b.String(), true
	}

	drop := func(r records.Record) {
		if d.OnDrop != nil {
			d.OnDrop(r)
		}
	}

	for i, r := range in {
		key, ok := keyOf(r)
		if !ok {
			continue
		}
		switch policy {
		case "keep-last":
			if prev, exists := winners[key]; exists {
				drop(prev.rec)
			}
			winners[key] = slot{rec: r, index: i}
		case "max-field":
			v, _ := r.Float64(d.MaxField)
			s := slot{rec: r, index: i, max: v}
			if prev, exists := winners[key]; !exists {
				winners[key] = s
			} else if s.max > prev.max || (s.max == prev.max && s.index > prev.index) {
				drop(prev.rec)
				winners[key] = s
			} else {
				drop(r)
			}
		default: // "keep-first"
			if _, exists := winners[key]; exists {
				drop(r)
				continue
			}
			winners[key] = slot{rec: r, index: i}
		}
	}

	// Compose output: winners in stable original-index order, then any
	// pass-through records missing a key field.
	indexes := make([]int, 0, len(winners))
	posByIndex := make(map[int]records.Record, len(winners))
	for _, s := range winners {
		indexes = append(indexes, s.index)
		posByIndex[s.index] = s.rec
	}
	sort.Ints(indexes)

	out := make([]records.Record, 0, len(winners))
	for _, idx := range indexes {
		out = append(out, posByIndex[idx])
	}
	for _, r := range in {
		if _, ok := keyOf(r); !ok {
			out = append(out, r)
		}
	}
	return out
}
