package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewJSONLogger(&buf, slog.LevelDebug), &buf
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("not a JSON record: %q: %v", sc.Text(), err)
		}
		out = append(out, rec)
	}
	return out
}

func TestSlogLogger_LevelsAndAttributes(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "slice scanned", "read", 3)
	log.Info(ctx, "backfill started", "pool", 4)
	log.Warn(ctx, "task abandoned", "device", "truck-1")
	log.Error(ctx, "address update failed", "timestamp", 1700000000)

	recs := records(t, buf)
	if len(recs) != 4 {
		t.Fatalf("expected 4 records, got %d", len(recs))
	}

	want := []struct {
		level, msg, key string
	}{
		{"DEBUG", "slice scanned", "read"},
		{"INFO", "backfill started", "pool"},
		{"WARN", "task abandoned", "device"},
		{"ERROR", "address update failed", "timestamp"},
	}
	for i, w := range want {
		if recs[i]["level"] != w.level || recs[i]["msg"] != w.msg {
			t.Fatalf("record %d = %v, want level=%s msg=%q", i, recs[i], w.level, w.msg)
		}
		if _, ok := recs[i][w.key]; !ok {
			t.Fatalf("record %d is missing %q: %v", i, w.key, recs[i])
		}
	}
}

func TestSlogLogger_WithScopesChildOnly(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	child := log.With("module", "backfill", "run_id", "r-1")
	child.Info(ctx, "backfill finished")
	log.Info(ctx, "app stopped")

	recs := records(t, buf)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0]["module"] != "backfill" || recs[0]["run_id"] != "r-1" {
		t.Fatalf("child record lacks scope: %v", recs[0])
	}
	if _, ok := recs[1]["module"]; ok {
		t.Fatalf("parent picked up child attributes: %v", recs[1])
	}
}

func TestSlogLogger_ContextDoesNotPanic(t *testing.T) {
	log, _ := newTestLogger(t)

	ctx := context.TODO()
	log.Info(ctx, "ctx-ok")
	log.Debug(ctx, "ctx-ok")
	log.Warn(ctx, "ctx-ok")
	log.Error(ctx, "ctx-ok")
}

func TestNewJSONLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, slog.LevelWarn)
	ctx := context.Background()

	log.Info(ctx, "hidden")
	log.Warn(ctx, "shown", "account", "acme")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered, got:\n%s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"account":"acme"`) {
		t.Fatalf("expected JSON warn record, got:\n%s", out)
	}
}

func TestNewNop_DoesNotPanic(t *testing.T) {
	log := NewNop()
	log.With("k", "v").Error(context.Background(), "dropped")
}
