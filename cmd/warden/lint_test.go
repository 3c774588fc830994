package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"tessera-hq/warden/pkg/policy"
)

func writePolicyFile(t *testing.T, pol *policy.Policy) string {
	t.Helper()
	data, err := json.Marshal(pol)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "policy.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRunLint_ValidPolicy(t *testing.T) {
	lintFlags.file = writePolicyFile(t, &policy.Policy{
		PolicyID:     "lint-check",
		Version:      "v1.0.0",
		Title:        "Lint check",
		Jurisdiction: "AU",
		EvaluationStrategy: policy.EvaluationStrategy{
			Order:              "ASC_PRIORITY",
			ConflictResolution: "FIRST_MATCH",
			DefaultEffect:      policy.EffectAllow,
		},
	})
	lintFlags.format = "text"

	if err := runLint(lintCmd, nil); err != nil {
		t.Errorf("runLint: %v", err)
	}
}

func TestRunLint_InvalidPolicy(t *testing.T) {
	lintFlags.file = writePolicyFile(t, &policy.Policy{
		PolicyID: "lint-check",
		Version:  "not-semver",
	})
	lintFlags.format = "json"

	if err := runLint(lintCmd, nil); err == nil {
		t.Error("runLint accepted an invalid policy")
	}
}

func TestRunLint_MissingFile(t *testing.T) {
	lintFlags.file = filepath.Join(t.TempDir(), "absent.json")
	if err := runLint(lintCmd, nil); err == nil {
		t.Error("runLint accepted a missing file")
	}
}
