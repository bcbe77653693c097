package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestInfoWritesPrefixedLine(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Info("hello %s", "world")
	if !strings.Contains(buf.String(), "hello world") {
		t.Errorf("expected message in output, got %q", buf.String())
	}
}

func TestSuccessWarnErrorWritePrefixes(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Success("done")
	l.Warn("careful")
	l.Error("broken")
	out := buf.String()
	for _, want := range []string{"done", "careful", "broken"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got %q", want, out)
		}
	}
}

func TestBannerBoxesTitle(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Banner("Search Results")
	out := buf.String()
	if !strings.Contains(out, "Search Results") {
		t.Errorf("expected title in banner, got %q", out)
	}
	if strings.Count(out, "\n") < 3 {
		t.Errorf("expected a 3-line banner, got %q", out)
	}
}

func TestSectionHeading(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Section("Guard Report")
	if !strings.Contains(buf.String(), "Guard Report") {
		t.Errorf("expected section title in output, got %q", buf.String())
	}
}

func TestStatsHumanizesLargeNumbers(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Stats("Guard Metrics", map[string]int64{"expansions": 1234567})
	if !strings.Contains(buf.String(), "1,234,567") {
		t.Errorf("expected humanized count, got %q", buf.String())
	}
}

func TestNewDoesNotColorizeNonTTYWriter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Info("plain")
	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("expected no ANSI codes writing to a plain buffer, got %q", buf.String())
	}
}
