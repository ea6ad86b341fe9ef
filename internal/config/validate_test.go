package config

import (
	"strings"
	"testing"
)

func countSeverity(issues []Issue, sev IssueSeverity) int {
	n := 0
	for _, i := range issues {
		if i.Severity == sev {
			n++
		}
	}
	return n
}

func findIssue(issues []Issue, path string) (Issue, bool) {
	for _, i := range issues {
		if i.Path == path {
			return i, true
		}
	}
	return Issue{}, false
}

func TestValidateDefaultJobIsClean(t *testing.T) {
	issues := ValidateJob(Default())
	if countSeverity(issues, SeverityError) != 0 {
		t.Fatalf("default job has errors: %v", issues)
	}
}

func TestValidateMissingFields(t *testing.T) {
	j := Job{
		Source: Store{Kind: "s3"},   // no bucket
		Sink:   Store{Kind: "file"}, // no root
	}
	issues := ValidateJob(j)

	for _, path := range []string{"job", "source.bucket", "sink.root"} {
		iss, ok := findIssue(issues, path)
		if !ok || iss.Severity != SeverityError {
			t.Errorf("expected error at %s, got %v", path, issues)
		}
	}
}

func TestValidateUnsupportedKind(t *testing.T) {
	j := Default()
	j.Source.Kind = "gcs"
	iss, ok := findIssue(ValidateJob(j), "source.kind")
	if !ok || iss.Severity != SeverityError {
		t.Fatalf("expected kind error, got %v", ValidateJob(j))
	}
	if !strings.Contains(iss.Message, "gcs") {
		t.Fatalf("message should name the bad kind: %q", iss.Message)
	}
}

func TestValidateAppendModeWarns(t *testing.T) {
	j := Default()
	j.Sink.WriteMode = WriteAppend
	iss, ok := findIssue(ValidateJob(j), "sink.write_mode")
	if !ok || iss.Severity != SeverityWarning {
		t.Fatalf("expected append warning, got %v", ValidateJob(j))
	}
}

func TestValidateBadWriteMode(t *testing.T) {
	j := Default()
	j.Sink.WriteMode = "truncate"
	iss, ok := findIssue(ValidateJob(j), "sink.write_mode")
	if !ok || iss.Severity != SeverityError {
		t.Fatalf("expected write_mode error, got %v", ValidateJob(j))
	}
}

func TestValidateCredentials(t *testing.T) {
	j := Default()
	j.Credentials.Profile = ""
	iss, ok := findIssue(ValidateJob(j), "credentials.profile")
	if !ok || iss.Severity != SeverityError {
		t.Fatalf("expected profile error, got %v", ValidateJob(j))
	}

	j.Credentials = Credentials{}
	iss, ok = findIssue(ValidateJob(j), "credentials.file")
	if !ok || iss.Severity != SeverityWarning {
		t.Fatalf("expected credentials warning, got %v", ValidateJob(j))
	}
}

func TestValidateNegativeRuntime(t *testing.T) {
	j := Default()
	j.Runtime.ReaderWorkers = -1
	if _, ok := findIssue(ValidateJob(j), "runtime.reader_workers"); !ok {
		t.Fatal("expected reader_workers error")
	}
}

func TestIssueError(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "sink.root", Message: "root directory is required for file stores"}
	got := iss.Error()
	if !strings.Contains(got, "sink.root") || !strings.HasPrefix(got, "error") {
		t.Fatalf("Error(): %q", got)
	}
}
