package transform

import (
	"sort"
	"strconv"

	"sparkify/internal/storage/parquetsink"
	"sparkify/internal/transform/builtin"
	"sparkify/pkg/records"
)

// SongRow is one row of the songs dimension table.
type SongRow struct {
	SongID   string  `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Title    string  `parquet:"name=title, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArtistID string  `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Year     int32   `parquet:"name=year, type=INT32"`
	Duration float64 `parquet:"name=duration, type=DOUBLE"`
}

// Partition places songs under artist_id=<id>/year=<y>/ subdirectories.
func (r SongRow) Partition() []parquetsink.KV {
	return []parquetsink.KV{
		{Col: "artist_id", Value: r.ArtistID},
		{Col: "year", Value: strconv.Itoa(int(r.Year))},
	}
}

// Songs projects song-metadata records onto the songs table: rows with a null
// song_id are dropped, the rest are deduplicated by song_id, and the output
// is sorted by song_id.
func Songs(in []records.Record) ([]SongRow, TableStats) {
	st := newStats("songs", len(in))

	recs := append([]records.Record(nil), in...)
	recs = builtin.Require{
		Fields: []string{"song_id"},
		OnDrop: func(records.Record) { st.drop(DropNullKey) },
	}.Apply(recs)
	recs = builtin.DeDup{
		Keys:   []string{"song_id"},
		OnDrop: func(records.Record) { st.drop(DropDuplicateKey) },
	}.Apply(recs)

	rows := make([]SongRow, 0, len(recs))
	for _, rec := range recs {
		year, _ := rec.Int64("year")
		duration, _ := rec.Float64("duration")
		rows = append(rows, SongRow{
			SongID:   rec.String("song_id"),
			Title:    rec.String("title"),
			ArtistID: rec.String("artist_id"),
			Year:     int32(year),
			Duration: duration,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].SongID < rows[j].SongID })

	st.Output = len(rows)
	return rows, st
}
