package lake

import "testing"

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern, key string
		want         bool
	}{
		{"song_data/*/*/*", "song_data/A/A/A/TRAAAAW128F429D538.json", true},
		{"song_data/*/*/*", "song_data/A/B/C/file.json", true},
		{"song_data/*/*/*", "song_data/A/A", false},
		{"song_data/*/*/*", "log_data/2018/11/x.json", false},
		{"log_data/*/*", "log_data/2018/11/2018-11-12-events.json", true},
		{"log_data/*/*", "log_data/2018", false},
		{"songs/*", "songs/year=2018/part-00000.parquet", true},
		{"exact/key.json", "exact/key.json", true},
		{"exact/key.json", "exact/other.json", false},
	}
	for _, c := range cases {
		if got := Match(c.pattern, c.key); got != c.want {
			t.Errorf("Match(%q, %q) = %v, want %v", c.pattern, c.key, got, c.want)
		}
	}
}

func TestLiteralPrefix(t *testing.T) {
	cases := []struct {
		pattern, want string
	}{
		{"song_data/*/*/*", "song_data/"},
		{"log_data/2018/*", "log_data/2018/"},
		{"*/anything", ""},
		{"plain/literal", "plain/literal/"},
	}
	for _, c := range cases {
		if got := LiteralPrefix(c.pattern); got != c.want {
			t.Errorf("LiteralPrefix(%q) = %q, want %q", c.pattern, got, c.want)
		}
	}
}
