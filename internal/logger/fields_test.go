package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-feed/internal/jobs"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  company  ", Value: "  Acme  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "company" || fields[0].String != "Acme" {
		t.Fatalf("unexpected company field: %+v", fields[0])
	}

	empty := StringFields()
	if len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithFields(logger, zap.String("foo", "bar"))
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	enriched = WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	// Ensure logging with the fallback logger does not panic.
	enriched.Info("another log")
}

func TestJobFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	job := &jobs.Job{ID: "j1", Company: "Acme", Title: strings.Repeat("t", maxTitleLength+10)}
	logger.Info("job", JobFields(job)...)

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldJobID] != "j1" || ctx[FieldCompany] != "Acme" {
		t.Fatalf("unexpected fields: %v", ctx)
	}
	title, _ := ctx[FieldTitle].(string)
	if !strings.HasSuffix(title, "...") || len(title) != maxTitleLength+3 {
		t.Fatalf("expected truncated title, got %q", title)
	}

	if fields := JobFields(nil); fields != nil {
		t.Fatalf("expected no fields for nil job, got %v", fields)
	}
}

func TestProfileFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	logger.Info("anonymous", ProfileFields(nil)...)
	logger.Info("profile", ProfileFields(&jobs.Profile{
		Location:   "Mumbai",
		Skills:     []string{"Cooking", "Driving"},
		Experience: []jobs.Experience{{Title: "Cook"}},
	})...)

	entries := observed.All()
	if entries[0].ContextMap()["profile"] != false {
		t.Fatalf("expected profile=false, got %v", entries[0].ContextMap())
	}

	ctx := entries[1].ContextMap()
	if ctx["profile"] != true || ctx["location"] != "Mumbai" || ctx["skills"] != int64(2) {
		t.Fatalf("unexpected profile fields: %v", ctx)
	}
	if ctx["experience_entries"] != int64(1) {
		t.Fatalf("unexpected experience_entries: %#v", ctx["experience_entries"])
	}
	if _, ok := ctx["headline"]; ok {
		t.Fatalf("did not expect an empty headline field")
	}
}
