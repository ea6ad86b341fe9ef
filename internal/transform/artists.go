package transform

import (
	"sort"

	"sparkify/internal/storage/parquetsink"
	"sparkify/internal/transform/builtin"
	"sparkify/pkg/records"
)

// ArtistRow is one row of the artists dimension table. Coordinates are
// optional; many artists carry no location data.
type ArtistRow struct {
	ArtistID  string   `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Name      string   `parquet:"name=artist_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Location  string   `parquet:"name=artist_location, type=BYTE_ARRAY, convertedtype=UTF8"`
	Latitude  *float64 `parquet:"name=artist_latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Longitude *float64 `parquet:"name=artist_longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// Partition returns nil; the artists table is unpartitioned.
func (r ArtistRow) Partition() []parquetsink.KV { return nil }

// Artists projects song-metadata records onto the artists table: rows with a
// null artist_id are dropped, the rest are deduplicated by artist_id, and the
// output is sorted by artist_id.
func Artists(in []records.Record) ([]ArtistRow, TableStats) {
	st := newStats("artists", len(in))

	recs := append([]records.Record(nil), in...)
	recs = builtin.Require{
		Fields: []string{"artist_id"},
		OnDrop: func(records.Record) { st.drop(DropNullKey) },
	}.Apply(recs)
	recs = builtin.DeDup{
		Keys:   []string{"artist_id"},
		OnDrop: func(records.Record) { st.drop(DropDuplicateKey) },
	}.Apply(recs)

	rows := make([]ArtistRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, ArtistRow{
			ArtistID:  rec.String("artist_id"),
			Name:      rec.String("artist_name"),
			Location:  rec.String("artist_location"),
			Latitude:  rec.FloatPtr("artist_latitude"),
			Longitude: rec.FloatPtr("artist_longitude"),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ArtistID < rows[j].ArtistID })

	st.Output = len(rows)
	return rows, st
}
