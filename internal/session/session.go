// Package session establishes the processing session for a run: it resolves
// storage credentials and binds the source and sink lake stores.
//
// Credentials come from a shared-credentials file (the conventional dl.cfg
// with an [AWS] section) and are handed to the SDK session explicitly. The
// process environment is never written to, so concurrent sessions with
// different credentials cannot interfere.
package session

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	awssession "github.com/aws/aws-sdk-go/aws/session"

	"sparkify/internal/config"
	"sparkify/internal/lake"
	"sparkify/internal/lake/fslake"
	"sparkify/internal/lake/s3lake"
)

// Session holds the bound source and sink stores for one job run.
type Session struct {
	Source lake.Store
	Sink   lake.Store
}

// New builds a Session from the job configuration. An AWS session is only
// created when at least one store is S3-backed; file-only jobs never touch
// the SDK.
func New(cfg config.Job) (*Session, error) {
	var creds *credentials.Credentials
	if cfg.Credentials.File != "" {
		creds = credentials.NewSharedCredentials(cfg.Credentials.File, cfg.Credentials.Profile)
	}

	// A bad credentials file is a fatal startup error, not something to
	// discover mid-run; force resolution now when any store will use it.
	if creds != nil && (cfg.Source.Kind == "s3" || cfg.Sink.Kind == "s3") {
		if _, err := creds.Get(); err != nil {
			return nil, fmt.Errorf("credentials %s [%s]: %w", cfg.Credentials.File, cfg.Credentials.Profile, err)
		}
	}

	src, err := newStore(cfg.Source, creds)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	dst, err := newStore(cfg.Sink, creds)
	if err != nil {
		return nil, fmt.Errorf("sink: %w", err)
	}
	return &Session{Source: src, Sink: dst}, nil
}

func newStore(sc config.Store, creds *credentials.Credentials) (lake.Store, error) {
	switch sc.Kind {
	case "file":
		return fslake.New(sc.Root), nil
	case "s3":
		awsCfg := aws.NewConfig()
		if sc.Region != "" {
			awsCfg = awsCfg.WithRegion(sc.Region)
		}
		if creds != nil {
			awsCfg = awsCfg.WithCredentials(creds)
		}
		sess, err := awssession.NewSession(awsCfg)
		if err != nil {
			return nil, fmt.Errorf("aws session: %w", err)
		}
		return s3lake.New(sess, sc.Bucket, sc.Root), nil
	default:
		return nil, fmt.Errorf("unsupported store kind=%s", sc.Kind)
	}
}
