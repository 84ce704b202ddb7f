package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("command has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "leakwatch" {
			t.Errorf("expected Use to be 'leakwatch', got %q", cmd.Use)
		}
	})

	t.Run("has all subcommands", func(t *testing.T) {
		t.Parallel()

		want := []string{"run", "serve", "leaks", "init", "version"}
		for _, name := range want {
			found := false
			for _, sub := range cmd.Commands() {
				if sub.Name() == name {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("missing subcommand %q", name)
			}
		}
	})

	t.Run("has persistent flags", func(t *testing.T) {
		t.Parallel()

		if cmd.PersistentFlags().Lookup("verbose") == nil {
			t.Error("missing --verbose flag")
		}
		if cmd.PersistentFlags().Lookup("config") == nil {
			t.Error("missing --config flag")
		}
	})

	t.Run("help output mentions the commands", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--help"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		for _, name := range []string{"run", "serve", "leaks", "init", "version"} {
			if !strings.Contains(output, name) {
				t.Errorf("help output missing %q:\n%s", name, output)
			}
		}
	})

	t.Run("unknown subcommand fails", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"bogus"})

		if err := cmd.Execute(); err == nil {
			t.Error("expected error for unknown subcommand")
		}
	})
}
