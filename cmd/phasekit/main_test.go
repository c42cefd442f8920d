package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func parse(t *testing.T, args ...string) (*cobra.Command, error) {
	t.Helper()
	sf = systemFlags{}
	cmd := &cobra.Command{Use: "test"}
	addSystemFlags(cmd)
	return cmd, cmd.ParseFlags(args)
}

func TestResolveConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	yaml := "dt: 0.05\nduration: 3\nsystem:\n  params:\n    k: 2\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cmd, err := parse(t, "--preset", "logistic", "--config", path, "--time", "7", "-p", "k=4")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := resolveConfig(cmd, sf)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.System.Formula != "k*X*(1-X)" {
		t.Errorf("formula should come from the preset, got %q", cfg.System.Formula)
	}
	if cfg.Dt != 0.05 {
		t.Errorf("dt should come from the file, got %v", cfg.Dt)
	}
	if cfg.Duration != 7 {
		t.Errorf("changed flag should win over the file, got %v", cfg.Duration)
	}
	if cfg.System.Params["k"] != 4 {
		t.Errorf("k: got %v, want 4", cfg.System.Params["k"])
	}
	if cfg.Domain.Min != -0.5 {
		t.Errorf("unchanged flag must not override the preset domain, got %v", cfg.Domain.Min)
	}
}

func TestResolveConfigBareFormula(t *testing.T) {
	cmd, err := parse(t, "-f", "Y, -X", "--dim", "2")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := resolveConfig(cmd, sf)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.System.Dim != 2 || len(cfg.System.Params) != 0 {
		t.Errorf("unexpected system: %+v", cfg.System)
	}
}

func TestResolveConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown preset", []string{"--preset", "lorenz"}},
		{"missing file", []string{"--config", "/nonexistent/cfg.yaml"}},
		{"bad param", []string{"-p", "k"}},
		{"bad param value", []string{"-p", "k=abc"}},
		{"empty domain", []string{"--min", "1", "--max", "1"}},
		{"negative dt", []string{"--dt", "-0.1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := parse(t, tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := resolveConfig(cmd, sf); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseParams(t *testing.T) {
	got, err := parseParams([]string{"k=0.5", " r = 2 "})
	if err != nil {
		t.Fatal(err)
	}
	if got["k"] != 0.5 || got["r"] != 2 {
		t.Errorf("got %v", got)
	}
	if _, err := parseParams([]string{"=1"}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestFormatParams(t *testing.T) {
	if got := formatParams(map[string]float64{"b": 2, "a": 0.5}); got != "a=0.5 b=2" {
		t.Errorf("got %q", got)
	}
}
