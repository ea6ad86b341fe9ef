package extract

import (
	"context"
	"sort"
	"strings"
	"testing"

	"sparkify/internal/lake/fslake"
)

func seed(t *testing.T, s *fslake.Store, key, body string) {
	t.Helper()
	if err := s.Put(context.Background(), key, strings.NewReader(body)); err != nil {
		t.Fatalf("put %s: %v", key, err)
	}
}

func TestRecordsReadsAllFiles(t *testing.T) {
	s := fslake.New(t.TempDir())
	seed(t, s, "song_data/A/A/A/TRA.json", `{"song_id":"SOA"}`+"\n")
	seed(t, s, "song_data/A/B/C/TRB.json", `{"song_id":"SOB"}`+"\n"+`{"song_id":"SOC"}`+"\n")
	seed(t, s, "log_data/2018/11/events.json", `{"page":"NextSong"}`+"\n")

	recs, st, err := Records(context.Background(), s, "song_data/*/*/*", 4, 16)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if st.Files != 2 || st.Records != 3 || st.ParseErrors != 0 {
		t.Fatalf("stats: %+v", st)
	}

	var ids []string
	for _, r := range recs {
		ids = append(ids, r.String("song_id"))
	}
	sort.Strings(ids)
	if strings.Join(ids, ",") != "SOA,SOB,SOC" {
		t.Fatalf("ids: %v", ids)
	}
}

func TestRecordsEmptyGlobIsError(t *testing.T) {
	s := fslake.New(t.TempDir())
	_, _, err := Records(context.Background(), s, "song_data/*/*/*", 1, 1)
	if err == nil {
		t.Fatal("expected error for empty glob result")
	}
	if !strings.Contains(err.Error(), "no input files match") {
		t.Fatalf("error: %v", err)
	}
}

func TestRecordsCountsParseErrors(t *testing.T) {
	s := fslake.New(t.TempDir())
	seed(t, s, "log_data/2018/11/events.json",
		`{"page":"NextSong"}`+"\nBROKEN LINE\n"+`{"page":"Home"}`+"\n{also broken\n")

	recs, st, err := Records(context.Background(), s, "log_data/*/*", 1, 4)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(recs) != 2 || st.ParseErrors != 2 {
		t.Fatalf("recs=%d stats=%+v", len(recs), st)
	}
	if len(st.ErrorSamples) != 2 {
		t.Fatalf("samples: %v", st.ErrorSamples)
	}
	if !strings.Contains(st.ErrorSamples[0], "events.json") {
		t.Fatalf("sample should carry the key: %q", st.ErrorSamples[0])
	}
}

func TestRecordsSamplesAreCapped(t *testing.T) {
	s := fslake.New(t.TempDir())
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("junk line\n")
	}
	seed(t, s, "log_data/2018/11/events.json", b.String())

	_, st, err := Records(context.Background(), s, "log_data/*/*", 1, 4)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if st.ParseErrors != 10 {
		t.Fatalf("parse errors: %d", st.ParseErrors)
	}
	if len(st.ErrorSamples) != sampleErrors {
		t.Fatalf("samples: got %d want %d", len(st.ErrorSamples), sampleErrors)
	}
}

func TestRecordsZeroWorkerFallback(t *testing.T) {
	s := fslake.New(t.TempDir())
	seed(t, s, "log_data/2018/11/events.json", `{"a":1}`+"\n")
	recs, _, err := Records(context.Background(), s, "log_data/*/*", 0, 0)
	if err != nil || len(recs) != 1 {
		t.Fatalf("recs=%d err=%v", len(recs), err)
	}
}
