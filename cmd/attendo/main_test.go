package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/attendo/internal/attendance"
	"github.com/verte-zerg/attendo/internal/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRecordThenStatusPersists(t *testing.T) {
	isolate(t)

	out, err := execute(t, "record", "--classes", "4", "--total", "5")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !strings.Contains(out, "Current: 80.00%") {
		t.Fatalf("unexpected record output:\n%s", out)
	}

	out, err = execute(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"80.00%", "Present     4", "Total       5", "Session "} {
		if !strings.Contains(out, want) {
			t.Fatalf("status missing %q:\n%s", want, out)
		}
	}
}

func TestRecordRejectsExcess(t *testing.T) {
	isolate(t)
	_, err := execute(t, "--ephemeral", "record", "--status", "absent", "--classes", "6", "--total", "5")
	if err == nil || err.Error() != "Absent classes cannot exceed total classes." {
		t.Fatalf("unexpected error %v", err)
	}
	_, err = execute(t, "--ephemeral", "record", "--status", "late", "--total", "5")
	if !errors.Is(err, attendance.ErrInvalidStatus) || !strings.Contains(err.Error(), "unknown status") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestPredictRejectsUnknownUnit(t *testing.T) {
	isolate(t)
	_, err := execute(t, "--ephemeral", "predict", "--value", "1", "--unit", "months")
	if !errors.Is(err, attendance.ErrInvalidUnit) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestResetClearsCounters(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "record", "--classes", "3", "--total", "4"); err != nil {
		t.Fatalf("record: %v", err)
	}
	out, err := execute(t, "reset")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if strings.TrimSpace(out) != "Attendance reset." {
		t.Fatalf("unexpected reset output %q", out)
	}
	out, err = execute(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Total       0") {
		t.Fatalf("expected cleared counters:\n%s", out)
	}
}

func TestPredictNeedsBaseline(t *testing.T) {
	isolate(t)
	_, err := execute(t, "--ephemeral", "predict", "--value", "2")
	if err == nil || err.Error() != "Record some attendance before predicting." {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestPredictWithPreview(t *testing.T) {
	isolate(t)
	out, err := execute(t, "--ephemeral", "predict", "--value", "1", "--preview-classes", "3", "--preview-total", "4")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !strings.Contains(out, "Predicted: 80.00%") {
		t.Fatalf("unexpected prediction output:\n%s", out)
	}
}

func TestSettingsSetWarnsAndPersists(t *testing.T) {
	isolate(t)
	out, err := execute(t, "settings", "set", "required_percentage", "150")
	if err != nil {
		t.Fatalf("settings set: %v", err)
	}
	if !strings.Contains(out, "required-percentage  150") || !strings.Contains(out, "warning: Required percentage") {
		t.Fatalf("unexpected settings output:\n%s", out)
	}

	out, err = execute(t, "settings")
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if !strings.Contains(out, "required-percentage  150") {
		t.Fatalf("settings were not persisted:\n%s", out)
	}

	if _, err := execute(t, "record", "--classes", "1", "--total", "1"); err == nil {
		t.Fatalf("expected invalid settings to block recording")
	}
}

func TestSettingsSetRejectsBadInput(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "--ephemeral", "settings", "set", "bogus", "1"); err == nil || !strings.Contains(err.Error(), "Unknown setting") {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := execute(t, "--ephemeral", "settings", "set", "days-per-week", "abc"); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := execute(t, "--ephemeral", "settings", "set", "days-per-week", "2.5"); err == nil || err.Error() != "Days per week must be a whole number." {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestResolveRuntimeFlagOverridesFile(t *testing.T) {
	isolate(t)
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "[storage]\nbackend = \"redis\"\n\n[log]\nlevel = \"info\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	root := newRootCmd()
	sub, _, err := root.Find([]string{"status"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if err := sub.ParseFlags([]string{"--backend", "memory"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	rt, err := resolveRuntime(sub)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rt.Backend != config.BackendMemory {
		t.Fatalf("expected flag to win, got %q", rt.Backend)
	}
	if rt.LogLevel != "info" {
		t.Fatalf("expected file log level, got %q", rt.LogLevel)
	}
}

func TestResolveRuntimeRejectsUnknownBackend(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "--backend", "etcd", "status"); err == nil || !strings.Contains(err.Error(), "unknown backend") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestEnsureConfigFileKeepsExisting(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.toml")
	if err := ensureConfigFile(path); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != config.DefaultTemplate() {
		t.Fatalf("expected template contents")
	}
	if err := os.WriteFile(path, []byte("# mine\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ensureConfigFile(path); err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "# mine\n" {
		t.Fatalf("existing config was overwritten")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{"debug": "DEBUG", "INFO": "INFO", "error": "ERROR", "": "WARN", "bogus": "WARN"}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
