package transform

import (
	"sort"
	"strconv"
	"time"

	"sparkify/internal/storage/parquetsink"
	"sparkify/internal/transform/builtin"
	"sparkify/pkg/records"
)

// TimeRow is one row of the time dimension table: a distinct event timestamp
// broken down into calendar attributes.
//
// Day is the day of year and Week the ISO week number, matching the source's
// 'D' and 'w' derivations. Weekday is the actual day of week (0=Sunday ..
// 6=Saturday); the source derived this field from a week-of-month pattern,
// which was a defect, not a contract.
type TimeRow struct {
	StartTime int64 `parquet:"name=start_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Hour      int32 `parquet:"name=hour, type=INT32"`
	Day       int32 `parquet:"name=day, type=INT32"`
	Week      int32 `parquet:"name=week, type=INT32"`
	Month     int32 `parquet:"name=month, type=INT32"`
	Year      int32 `parquet:"name=year, type=INT32"`
	Weekday   int32 `parquet:"name=weekday, type=INT32"`
}

// Partition places time rows under year=<y>/month=<m>/ subdirectories.
func (r TimeRow) Partition() []parquetsink.KV {
	return []parquetsink.KV{
		{Col: "year", Value: strconv.Itoa(int(r.Year))},
		{Col: "month", Value: strconv.Itoa(int(r.Month))},
	}
}

// TimeTable derives one row per distinct event timestamp from filtered play
// events. Events without a ts are dropped as null-key; duplicate timestamps
// collapse (the derivation is a pure function of ts, so the survivor does
// not matter). Output is sorted by start_time.
func TimeTable(plays []records.Record) ([]TimeRow, TableStats) {
	st := newStats("time", len(plays))

	recs := append([]records.Record(nil), plays...)
	recs = builtin.Require{
		Fields: []string{"ts"},
		OnDrop: func(records.Record) { st.drop(DropNullKey) },
	}.Apply(recs)
	recs = builtin.DeDup{
		Keys:   []string{"ts"},
		OnDrop: func(records.Record) { st.drop(DropDuplicateKey) },
	}.Apply(recs)

	rows := make([]TimeRow, 0, len(recs))
	for _, rec := range recs {
		ts, ok := rec.Int64("ts")
		if !ok {
			st.drop(DropNullKey)
			continue
		}
		rows = append(rows, NewTimeRow(ts))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StartTime < rows[j].StartTime })

	st.Output = len(rows)
	return rows, st
}

// NewTimeRow expands an epoch-millisecond timestamp (UTC) into a TimeRow.
func NewTimeRow(ts int64) TimeRow {
	t := time.UnixMilli(ts).UTC()
	_, week := t.ISOWeek()
	return TimeRow{
		StartTime: ts,
		Hour:      int32(t.Hour()),
		Day:       int32(t.YearDay()),
		Week:      int32(week),
		Month:     int32(t.Month()),
		Year:      int32(t.Year()),
		Weekday:   int32(t.Weekday()),
	}
}
