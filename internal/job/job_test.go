package job

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"sparkify/internal/config"
	"sparkify/internal/session"
	"sparkify/internal/transform"
)

const songFixture = `{"num_songs":1,"song_id":"SOZCTXZ12AB0182364","title":"Setanta matins","artist_id":"AR5KOSW1187FB35FF4","artist_name":"Elena","artist_location":"Dubai UAE","year":0,"duration":269.58322}
{"num_songs":1,"song_id":"SOUPIRU12A6D4FA1E1","title":"Der Kleine Dompfaff","artist_id":"ARJIE2Y1187B994AB7","artist_name":"Line Renaud","artist_location":"","year":0,"duration":152.92036}
`

const logFixture = `{"ts":1542241826796,"userId":"15","level":"paid","song":"Setanta matins","artist":"Elena","sessionId":818,"page":"NextSong","firstName":"Lily","lastName":"Koch","gender":"F","location":"Chicago-Naperville-Elgin, IL-IN-WI","userAgent":"Mozilla/5.0"}
{"ts":1542242000000,"userId":"26","level":"free","song":"Unknown Tune","sessionId":300,"page":"NextSong","firstName":"Ryan","lastName":"Smith","gender":"M"}
{"ts":1542242100000,"userId":"26","level":"free","page":"Home"}
`

func writeFixture(t *testing.T, root, key, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func fixtureJob(t *testing.T) (config.Job, string) {
	t.Helper()
	srcRoot := t.TempDir()
	dstRoot := t.TempDir()
	writeFixture(t, srcRoot, "song_data/A/A/A/TRAAAAW128F429D538.json", songFixture)
	writeFixture(t, srcRoot, "log_data/2018/11/2018-11-15-events.json", logFixture)

	cfg := config.Job{
		Name:   "sparkify-test",
		Source: config.Store{Kind: "file", Root: srcRoot},
		Sink:   config.Store{Kind: "file", Root: dstRoot, WriteMode: config.WriteOverwrite},
		Runtime: config.Runtime{
			ReaderWorkers: 2,
			ChannelBuffer: 16,
		},
	}
	return cfg, dstRoot
}

func runJob(t *testing.T, cfg config.Job) *Result {
	t.Helper()
	sess, err := session.New(cfg)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	res, err := New(cfg, sess, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res
}

func statFor(t *testing.T, res *Result, table string) transform.TableStats {
	t.Helper()
	for _, st := range res.Tables {
		if st.Table == table {
			return st
		}
	}
	t.Fatalf("no stats for table %s in %+v", table, res.Tables)
	return transform.TableStats{}
}

func readTable[T any](t *testing.T, path string) []T {
	t.Helper()
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, new(T), 4)
	if err != nil {
		t.Fatalf("reader %s: %v", path, err)
	}
	defer pr.ReadStop()
	rows := make([]T, pr.GetNumRows())
	if err := pr.Read(&rows); err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func listKeys(t *testing.T, root string) []string {
	t.Helper()
	var keys []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, p)
			keys = append(keys, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return keys
}

func TestRunBuildsAllTables(t *testing.T) {
	cfg, dstRoot := fixtureJob(t)
	res := runJob(t, cfg)

	// Extract accounting: both trees read, song metadata read twice.
	for _, name := range []string{"song_data", "log_data", "song_data_for_join"} {
		if _, ok := res.Extracts[name]; !ok {
			t.Fatalf("missing extract stats for %s: %v", name, res.Extracts)
		}
	}
	if xs := res.Extracts["log_data"]; xs.Files != 1 || xs.Records != 3 {
		t.Fatalf("log extract: %+v", xs)
	}

	// Page filter drops the Home event before any log table sees it.
	if st := statFor(t, res, "log_events"); st.Dropped[transform.DropFilteredPage] != 1 || st.Output != 2 {
		t.Fatalf("log_events stats: %+v", st)
	}
	if st := statFor(t, res, UsersTable); st.Output != 2 {
		t.Fatalf("users stats: %+v", st)
	}
	if st := statFor(t, res, TimeTable); st.Output != 2 {
		t.Fatalf("time stats: %+v", st)
	}
	if st := statFor(t, res, SongplaysTable); st.Output != 1 || st.Dropped[transform.DropUnmatchedJoin] != 1 {
		t.Fatalf("songplays stats: %+v", st)
	}
	if st := statFor(t, res, SongsTable); st.Output != 2 {
		t.Fatalf("songs stats: %+v", st)
	}
	if st := statFor(t, res, ArtistsTable); st.Output != 2 {
		t.Fatalf("artists stats: %+v", st)
	}

	// The one matched play joins to the right song and artist.
	plays := readTable[transform.SongplayRow](t,
		filepath.Join(dstRoot, "songplays", "year=2018", "month=11", "part-00000.parquet"))
	if len(plays) != 1 {
		t.Fatalf("songplay rows: %#v", plays)
	}
	p := plays[0]
	if p.SongID != "SOZCTXZ12AB0182364" || p.ArtistID != "AR5KOSW1187FB35FF4" {
		t.Fatalf("join result: %+v", p)
	}
	if p.StartTime != 1542241826796 || p.UserID != "15" || p.Level != "paid" || p.SessionID != 818 {
		t.Fatalf("event fields: %+v", p)
	}

	// Songs land under their artist_id/year partitions.
	songs := readTable[transform.SongRow](t,
		filepath.Join(dstRoot, "songs", "artist_id=AR5KOSW1187FB35FF4", "year=0", "part-00000.parquet"))
	if len(songs) != 1 || songs[0].Title != "Setanta matins" {
		t.Fatalf("songs partition: %#v", songs)
	}

	// Time rows carry the corrected weekday derivation.
	times := readTable[transform.TimeRow](t,
		filepath.Join(dstRoot, "time", "year=2018", "month=11", "part-00000.parquet"))
	if len(times) != 2 {
		t.Fatalf("time rows: %#v", times)
	}
	if times[0] != transform.NewTimeRow(times[0].StartTime) {
		t.Fatalf("time row does not match derivation: %+v", times[0])
	}

	users := readTable[transform.UserRow](t, filepath.Join(dstRoot, "users", "part-00000.parquet"))
	if len(users) != 2 || users[0].UserID != "15" || users[1].UserID != "26" {
		t.Fatalf("user rows: %#v", users)
	}
}

func TestRunOverwriteIsIdempotent(t *testing.T) {
	cfg, dstRoot := fixtureJob(t)

	runJob(t, cfg)
	first := listKeys(t, dstRoot)

	runJob(t, cfg)
	second := listKeys(t, dstRoot)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reruns diverged:\nfirst:  %v\nsecond: %v", first, second)
	}

	plays := readTable[transform.SongplayRow](t,
		filepath.Join(dstRoot, "songplays", "year=2018", "month=11", "part-00000.parquet"))
	if len(plays) != 1 {
		t.Fatalf("rerun duplicated rows: %#v", plays)
	}
}

func TestRunFailsOnMissingInput(t *testing.T) {
	cfg, _ := fixtureJob(t)
	cfg.Source.Root = t.TempDir() // empty tree

	sess, err := session.New(cfg)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	_, err = New(cfg, sess, zerolog.Nop()).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no input files match") {
		t.Fatalf("expected empty-input failure, got %v", err)
	}
}
