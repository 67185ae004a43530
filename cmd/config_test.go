package cmd

import (
	"testing"
)

func TestConfigCmd_Structure(t *testing.T) {
	if configCmd == nil {
		t.Fatal("configCmd should not be nil")
	}

	var names []string
	for _, sub := range configCmd.Commands() {
		names = append(names, sub.Name())
	}

	for _, want := range []string{"init", "show"} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("config command missing %q subcommand, have %v", want, names)
		}
	}
}

func TestBaselineCmd_Structure(t *testing.T) {
	if baselineCmd == nil {
		t.Fatal("baselineCmd should not be nil")
	}

	for _, want := range []string{"history", "prune"} {
		found := false
		for _, sub := range baselineCmd.Commands() {
			if sub.Name() == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("baseline command missing %q subcommand", want)
		}
	}
}
