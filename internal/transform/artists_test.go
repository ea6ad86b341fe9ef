package transform

import (
	"testing"

	"sparkify/pkg/records"
)

func TestArtistsOptionalCoordinates(t *testing.T) {
	in := []records.Record{
		{"artist_id": "AR1", "artist_name": "Elena", "artist_location": "Dubai UAE", "artist_latitude": nil, "artist_longitude": nil},
		{"artist_id": "AR2", "artist_name": "Casual", "artist_location": "California - LA", "artist_latitude": 35.14968, "artist_longitude": -90.04892},
	}
	rows, st := Artists(in)
	if len(rows) != 2 {
		t.Fatalf("rows: %#v", rows)
	}
	if rows[0].Latitude != nil || rows[0].Longitude != nil {
		t.Fatalf("AR1 coordinates should be nil: %+v", rows[0])
	}
	if rows[1].Latitude == nil || *rows[1].Latitude != 35.14968 {
		t.Fatalf("AR2 latitude: %+v", rows[1])
	}
	if !st.Balanced() {
		t.Fatalf("stats not balanced: %+v", st)
	}
}

func TestArtistsDedupByID(t *testing.T) {
	in := []records.Record{
		{"artist_id": "AR1", "artist_name": "Casual"},
		{"artist_id": "AR1", "artist_name": "Casual"},
		{"artist_id": "", "artist_name": "nobody"},
	}
	rows, st := Artists(in)
	if len(rows) != 1 {
		t.Fatalf("rows: %#v", rows)
	}
	if st.Dropped[DropDuplicateKey] != 1 || st.Dropped[DropNullKey] != 1 {
		t.Fatalf("drops: %+v", st.Dropped)
	}
}
