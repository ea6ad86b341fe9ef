// Package transform derives the five analytical tables from raw song and log
// records.
//
// Every builder follows the same contract: it never errors on bad data,
// it drops records through the null-key / duplicate-key gates instead, and it
// reports every drop in the returned TableStats so nothing disappears
// silently. Output rows are sorted by the table key, which keeps reruns
// byte-stable regardless of extract ordering.
package transform

// Drop reasons reported in TableStats.Dropped.
const (
	DropNullKey       = "null_key"
	DropDuplicateKey  = "duplicate_key"
	DropFilteredPage  = "filtered_page"
	DropUnmatchedJoin = "unmatched_join"
)

// TableStats accounts for one builder pass: how many records came in, how
// many rows came out, and where the difference went.
type TableStats struct {
	Table   string
	Input   int
	Output  int
	Dropped map[string]int
}

func newStats(table string, input int) TableStats {
	return TableStats{Table: table, Input: input, Dropped: make(map[string]int)}
}

func (s *TableStats) drop(reason string) { s.Dropped[reason]++ }

// DroppedTotal sums drops across all reasons.
func (s TableStats) DroppedTotal() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

// Balanced reports the conservation invariant input == output + dropped.
// It holds for every projection/dedup table; the songplays join can fan one
// event out to several rows, so its stats are checked differently.
func (s TableStats) Balanced() bool {
	return s.Input == s.Output+s.DroppedTotal()
}
