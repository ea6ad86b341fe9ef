package transform

import (
	"sort"
	"strconv"

	"sparkify/internal/storage/parquetsink"
	"sparkify/internal/transform/builtin"
	"sparkify/pkg/records"
)

// NextSongPage is the page value marking an actual playback event. Only
// records with this page feed the users, time, and songplays tables.
const NextSongPage = "NextSong"

// UserRow is one row of the users dimension table.
type UserRow struct {
	UserID    string `parquet:"name=userId, type=BYTE_ARRAY, convertedtype=UTF8"`
	FirstName string `parquet:"name=firstName, type=BYTE_ARRAY, convertedtype=UTF8"`
	LastName  string `parquet:"name=lastName, type=BYTE_ARRAY, convertedtype=UTF8"`
	Gender    string `parquet:"name=gender, type=BYTE_ARRAY, convertedtype=UTF8"`
	Level     string `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Partition returns nil; the users table is unpartitioned.
func (r UserRow) Partition() []parquetsink.KV { return nil }

// FilterPlays keeps only NextSong events, counting everything else as
// filtered. Run once per log extract; the result feeds all three log-derived
// tables.
func FilterPlays(in []records.Record) ([]records.Record, TableStats) {
	st := newStats("log_events", len(in))
	out := make([]records.Record, 0, len(in))
	for _, rec := range in {
		if rec.String("page") != NextSongPage {
			st.drop(DropFilteredPage)
			continue
		}
		out = append(out, rec)
	}
	st.Output = len(out)
	return out, st
}

// Users derives the users table from filtered play events: rows with a null
// userId are dropped and duplicates collapse to the event with the greatest
// ts, so a user's most recent subscription level wins deterministically.
// Output is sorted by userId (numeric when both ids parse).
func Users(plays []records.Record) ([]UserRow, TableStats) {
	st := newStats("users", len(plays))

	recs := append([]records.Record(nil), plays...)
	recs = builtin.Require{
		Fields: []string{"userId"},
		OnDrop: func(records.Record) { st.drop(DropNullKey) },
	}.Apply(recs)
	recs = builtin.DeDup{
		Keys:     []string{"userId"},
		Policy:   "max-field",
		MaxField: "ts",
		OnDrop:   func(records.Record) { st.drop(DropDuplicateKey) },
	}.Apply(recs)

	rows := make([]UserRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, UserRow{
			UserID:    rec.String("userId"),
			FirstName: rec.String("firstName"),
			LastName:  rec.String("lastName"),
			Gender:    rec.String("gender"),
			Level:     rec.String("level"),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return lessUserID(rows[i].UserID, rows[j].UserID) })

	st.Output = len(rows)
	return rows, st
}

// lessUserID orders ids numerically when both parse, lexically otherwise.
func lessUserID(a, b string) bool {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
