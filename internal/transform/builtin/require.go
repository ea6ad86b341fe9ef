// Package builtin contains simple, reusable transformers used by the table
// builders.
package builtin

import "sparkify/pkg/records"

// Require removes any record missing a value for any of the specified fields.
type Require struct {
	Fields []string

	// OnDrop, when set, is invoked once per removed record.
	OnDrop func(records.Record)
}

// Apply returns a filtered slice containing only records that have all
// required fields present and non-empty. The input slice is reused.
func (r Require) Apply(in []records.Record) []records.Record {
	out := in[:0]
	for _, rec := range in {
		ok := true
		for _, f := range r.Fields {
			if !rec.Has(f) {
				ok = false
				break
			}
		}
		if !ok {
			if r.OnDrop != nil {
				r.OnDrop(rec)
			}
			continue
		}
		out = append(out, rec)
	}
	return out
}
