package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	charmlog "github.com/charmbracelet/log"
)

func TestRunCollectDryRunWritesDigest(t *testing.T) {
	dir := t.TempDir()
	sources := filepath.Join(dir, "sources.toml")
	if err := os.WriteFile(sources, []byte("[categories.frontend]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "digest.html")

	t.Setenv("DRY_RUN", "true")
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("LOOKBACK_DAYS", "7")

	ctx := withLogger(context.Background(), charmlog.New(io.Discard))
	if err := runCollect(ctx, sources, output); err != nil {
		t.Fatalf("runCollect error: %v", err)
	}

	html, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("digest not written: %v", err)
	}
	if !strings.Contains(string(html), "Weekly Tech Digest") {
		t.Errorf("unexpected digest content:\n%s", html)
	}
	if !strings.Contains(string(html), "no data") {
		t.Errorf("empty categories should render no data:\n%s", html)
	}
}

func TestRunCollectRejectsBadSources(t *testing.T) {
	dir := t.TempDir()
	sources := filepath.Join(dir, "sources.toml")
	if err := os.WriteFile(sources, []byte("[categories.mobile]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DRY_RUN", "true")
	ctx := withLogger(context.Background(), charmlog.New(io.Discard))
	if err := runCollect(ctx, sources, filepath.Join(dir, "out.html")); err == nil {
		t.Error("unknown category should fail the run")
	}
}

func TestLoggerFromContextFallsBack(t *testing.T) {
	if loggerFromContext(context.Background()) == nil {
		t.Error("loggerFromContext must never return nil")
	}
}
