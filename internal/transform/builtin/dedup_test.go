package builtin

import (
	"reflect"
	"testing"

	"sparkify/pkg/records"
)

func mk(id string, fields map[string]any) records.Record {
	r := records.Record{"song_id": id}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

func TestDeDupKeepFirst(t *testing.T) {
	in := []records.Record{
		mk("S1", map[string]any{"title": "A"}),
		mk("S1", map[string]any{"title": "B"}),
		mk("S2", map[string]any{"title": "C"}),
	}
	d := DeDup{Keys: []string{"song_id"}}
	got := d.Apply(in)
	want := []records.Record{
		mk("S1", map[string]any{"title": "A"}),
		mk("S2", map[string]any{"title": "C"}),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("keep-first: got %#v want %#v", got, want)
	}
}

func TestDeDupKeepLast(t *testing.T) {
	in := []records.Record{
		mk("S1", map[string]any{"title": "A"}),
		mk("S1", map[string]any{"title": "B"}),
		mk("S2", map[string]any{"title": "C"}),
	}
	d := DeDup{Keys: []string{"song_id"}, Policy: "keep-last"}
	got := d.Apply(in)
	want := []records.Record{
		mk("S1", map[string]any{"title": "B"}),
		mk("S2", map[string]any{"title": "C"}),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("keep-last: got %#v want %#v", got, want)
	}
}

func TestDeDupMaxField(t *testing.T) {
	in := []records.Record{
		mk("S1", map[string]any{"ts": float64(30), "level": "paid"}),
		mk("S1", map[string]any{"ts": float64(10), "level": "free"}),
		mk("S2", map[string]any{"ts": float64(20), "level": "free"}),
	}
	d := DeDup{Keys: []string{"song_id"}, Policy: "max-field", MaxField: "ts"}
	got := d.Apply(in)
	want := []records.Record{
		mk("S1", map[string]any{"ts": float64(30), "level": "paid"}),
		mk("S2", map[string]any{"ts": float64(20), "level": "free"}),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("max-field: got %#v want %#v", got, want)
	}
}

func TestDeDupCountsLosers(t *testing.T) {
	in := []records.Record{
		mk("S1", nil),
		mk("S1", nil),
		mk("S1", nil),
		mk("S2", nil),
	}
	dropped := 0
	d := DeDup{Keys: []string{"song_id"}, OnDrop: func(records.Record) { dropped++ }}
	got := d.Apply(in)
	if len(got) != 2 {
		t.Fatalf("winners: got %d want 2", len(got))
	}
	if dropped != 2 {
		t.Fatalf("dropped: got %d want 2", dropped)
	}
}

func TestDeDupPassthroughWithoutKeyField(t *testing.T) {
	in := []records.Record{
		mk("S1", nil),
		{"title": "no id field"},
	}
	d := DeDup{Keys: []string{"song_id"}}
	got := d.Apply(in)
	if len(got) != 2 {
		t.Fatalf("got %d records want 2 (unkeyed record passes through)", len(got))
	}
}
