// Package config provides configuration models and helpers for the ETL job.
//
// This file adds a lightweight linter/validator for Job values. It performs
// static checks over a decoded Job and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Job.
//
// Path is a dotted path into the config (e.g. "sink.write_mode"). Message is
// human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidateJob performs static validation / linting of a Job.
//
// It does not mutate the job. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
//
// Example:
//
//	j, err := config.Load(path)
//	if err != nil { ... }
//	issues := config.ValidateJob(j)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidateJob(j Job) []Issue {
	var issues []Issue

	if strings.TrimSpace(j.Name) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}

	issues = append(issues, validateStore(j.Source, "source", false)...)
	issues = append(issues, validateStore(j.Sink, "sink", true)...)

	if storeNeedsAWS(j.Source) || storeNeedsAWS(j.Sink) {
		if strings.TrimSpace(j.Credentials.File) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "credentials.file",
				Message:  "no shared-credentials file configured; the AWS SDK default credential chain will be used",
			})
		} else if strings.TrimSpace(j.Credentials.Profile) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "credentials.profile",
				Message:  "credentials.profile (the section name inside the credentials file) is required when credentials.file is set",
			})
		}
	}

	if j.Runtime.ReaderWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.reader_workers",
			Message:  "reader_workers must not be negative",
		})
	}
	if j.Runtime.ChannelBuffer < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.channel_buffer",
			Message:  "channel_buffer must not be negative",
		})
	}

	return issues
}

func validateStore(s Store, path string, sink bool) []Issue {
	var issues []Issue

	switch s.Kind {
	case "s3":
		if strings.TrimSpace(s.Bucket) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".bucket",
				Message:  "bucket is required for s3 stores",
			})
		}
		if strings.TrimSpace(s.Region) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".region",
				Message:  "region is empty; the SDK default region resolution will apply",
			})
		}
	case "file":
		if strings.TrimSpace(s.Root) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".root",
				Message:  "root directory is required for file stores",
			})
		}
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  "kind is required (s3 or file)",
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  fmt.Sprintf("unsupported kind %q (want s3 or file)", s.Kind),
		})
	}

	if sink {
		switch s.WriteMode {
		case "", WriteOverwrite:
		case WriteAppend:
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".write_mode",
				Message:  "append mode leaves previous run output in place; reruns are not idempotent",
			})
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".write_mode",
				Message:  fmt.Sprintf("unsupported write_mode %q (want overwrite or append)", s.WriteMode),
			})
		}
	}

	return issues
}

func storeNeedsAWS(s Store) bool { return s.Kind == "s3" }
