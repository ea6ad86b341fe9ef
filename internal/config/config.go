// Package config defines the canonical, JSON-serializable configuration model
// for the data-lake ETL job. It is intentionally small, explicit, and
// dependency-free so that job files can be loaded from disk and passed through
// the program without additional glue code.
//
// Design goals:
//
//  1. Stability: changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: field names in Go mirror the JSON structure used in job files
//     under configs/*.json.
//  3. Minimalism: no third-party config libraries; decoding is performed by
//     the standard library.
//
// Example (trimmed):
//
//	{
//	  "job":    "sparkify",
//	  "source": { "kind": "s3", "bucket": "udacity-dend", "region": "us-west-2" },
//	  "sink":   { "kind": "file", "root": "analytics", "write_mode": "overwrite" },
//	  "credentials": { "file": "dl.cfg", "profile": "AWS" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Write modes accepted by Store.WriteMode on a sink.
const (
	// WriteOverwrite clears each table prefix before writing, making reruns
	// idempotent. This is the default.
	WriteOverwrite = "overwrite"
	// WriteAppend leaves existing output in place and adds new files next to
	// it. Reruns under this mode are NOT idempotent.
	WriteAppend = "append"
)

// Job describes one full ETL run. It is the top-level object decoded from a
// job file (e.g., configs/sparkify.json).
type Job struct {
	// Name identifies the run for logging and metrics labeling.
	Name string `json:"job"`

	// Source is the object store holding the raw song_data/ and log_data/
	// trees.
	Source Store `json:"source"`

	// Sink is the object store that receives the analytical tables.
	Sink Store `json:"sink"`

	// Credentials locates the shared-credentials file used for S3 stores.
	// The values are passed explicitly into the AWS session; the process
	// environment is never mutated.
	Credentials Credentials `json:"credentials"`

	// Runtime controls extract concurrency and buffering.
	Runtime Runtime `json:"runtime"`
}

// Store identifies an object store endpoint. Kind selects the implementation.
type Store struct {
	// Kind is "s3" or "file".
	Kind string `json:"kind"`

	// Bucket is the S3 bucket name (s3 kind only).
	Bucket string `json:"bucket"`

	// Region is the AWS region (s3 kind only).
	Region string `json:"region"`

	// Root is the directory (file kind) or key prefix (s3 kind) all keys are
	// resolved against. May be empty for s3.
	Root string `json:"root"`

	// WriteMode selects rerun semantics for a sink: "overwrite" (default) or
	// "append". Ignored on sources.
	WriteMode string `json:"write_mode"`
}

// Credentials locates an AWS shared-credentials file and the profile section
// to read from it. The conventional pair is dl.cfg / "AWS". Only consulted
// when an S3 store is configured; jobs using file stores run fully offline.
type Credentials struct {
	File    string `json:"file"`
	Profile string `json:"profile"`
}

// Runtime controls concurrency and channel buffer sizes for the extract
// stage. Zero values fall back to defaults at load time.
type Runtime struct {
	ReaderWorkers int `json:"reader_workers"`
	ChannelBuffer int `json:"channel_buffer"`
}

// Default returns the built-in job configuration reproducing the original
// invocation: read from the public udacity-dend bucket, write tables under a
// local analytics/ directory, overwrite on rerun.
func Default() Job {
	return Job{
		Name: "sparkify",
		Source: Store{
			Kind:   "s3",
			Bucket: "udacity-dend",
			Region: "us-west-2",
		},
		Sink: Store{
			Kind:      "file",
			Root:      "analytics",
			WriteMode: WriteOverwrite,
		},
		Credentials: Credentials{
			File:    "dl.cfg",
			Profile: "AWS",
		},
		Runtime: Runtime{
			ReaderWorkers: 4,
			ChannelBuffer: 1024,
		},
	}
}

// Load reads and decodes a job file, then fills zero-valued runtime and
// write-mode fields with defaults. An empty path returns Default() untouched.
func Load(path string) (Job, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Job{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var j Job
	if err := json.NewDecoder(f).Decode(&j); err != nil {
		return Job{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	applyDefaults(&j)
	return j, nil
}

func applyDefaults(j *Job) {
	if j.Name == "" {
		j.Name = "sparkify"
	}
	if j.Sink.WriteMode == "" {
		j.Sink.WriteMode = WriteOverwrite
	}
	if j.Runtime.ReaderWorkers <= 0 {
		j.Runtime.ReaderWorkers = 4
	}
	if j.Runtime.ChannelBuffer <= 0 {
		j.Runtime.ChannelBuffer = 1024
	}
}
