// Package lake abstracts the object store the ETL job reads raw records from
// and writes analytical tables to.
//
// Keys are slash-separated, relative to the store's configured root. The two
// implementations are s3lake (aws-sdk backed) and fslake (local filesystem,
// used by tests and offline runs). Both resolve the same wildcard patterns so
// a job behaves identically against either backend.
package lake

import (
	"context"
	"io"
	"path"
	"strings"
)

// Store is an object store scoped to a root location.
//
// List resolves a wildcard pattern (e.g. "song_data/*/*/*") against the
// store's keys. Open and Put move whole objects; DeletePrefix removes every
// object under a key prefix. All methods honor context cancellation.
type Store interface {
	List(ctx context.Context, pattern string) ([]string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, r io.Reader) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Match reports whether key falls under pattern.
//
// Pattern segments are matched one-to-one against the leading key segments
// with path.Match semantics; any trailing key segments are accepted. This
// mirrors directory-glob loading: "song_data/*/*/*" addresses the
// three-level partition directories, and the data files inside them match
// regardless of name.
func Match(pattern, key string) bool {
	pat := splitKey(pattern)
	seg := splitKey(key)
	if len(seg) < len(pat) {
		return false
	}
	for i, p := range pat {
		ok, err := path.Match(p, seg[i])
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// LiteralPrefix returns the leading pattern segments up to the first segment
// containing a wildcard, joined with a trailing slash. Stores use it to
// narrow listing before Match filtering. An all-literal pattern returns the
// whole pattern plus "/".
func LiteralPrefix(pattern string) string {
	var lit []string
	for _, seg := range splitKey(pattern) {
		if strings.ContainsAny(seg, "*?[") {
			break
		}
		lit = append(lit, seg)
	}
	if len(lit) == 0 {
		return ""
	}
	return strings.Join(lit, "/") + "/"
}

func splitKey(k string) []string {
	k = strings.Trim(k, "/")
	if k == "" {
		return nil
	}
	return strings.Split(k, "/")
}
