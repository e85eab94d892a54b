// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/dlist/internal/cli/output"
)

// Scenario files written by SetupScenarioDir.
const (
	ValidScenario   = "valid.yaml"
	InvalidScenario = "invalid.yaml"
	AbortScenario   = "abort.yaml"
)

var scenarioFiles = map[string]string{
	ValidScenario: `name: valid
payloads: [a, b, c]
steps:
  - op: insert
    payload: x
    position: 1
  - op: position
    payload: x
  - op: node
    position: 3
  - op: verify
`,
	InvalidScenario: `name: invalid
payloads: [a, b, c]
corrupt:
  - break_prev: 2
`,
	AbortScenario: `name: abort
payloads: [a, b]
steps:
  - op: node
    position: 9
  - op: verify
`,
}

// SetupScenarioDir creates a temporary directory holding the test scenarios.
func SetupScenarioDir(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range scenarioFiles {
		path := filepath.Join(tmpDir, name)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a colorless renderer writing into buffers.
func NewTestRenderer(mode output.Mode) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRenderer(out, errOut, mode, true),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertContains checks that the string contains the expected substring.
func AssertContains(t *testing.T, s, expected string) {
	t.Helper()
	if !strings.Contains(s, expected) {
		t.Errorf("string %q does not contain expected %q", s, expected)
	}
}

// AssertNotContains checks that the string does not contain the substring.
func AssertNotContains(t *testing.T, s, unexpected string) {
	t.Helper()
	if strings.Contains(s, unexpected) {
		t.Errorf("string %q unexpectedly contains %q", s, unexpected)
	}
}

// GetTestdataDir returns the path to the scenario testdata directory.
func GetTestdataDir(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	// Try different relative paths based on where tests are run from
	candidates := []string{
		filepath.Join(wd, "testdata"),
		filepath.Join(wd, "..", "scenario", "testdata"),
		filepath.Join(wd, "..", "..", "scenario", "testdata"),
		filepath.Join(wd, "..", "..", "internal", "scenario", "testdata"),
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(filepath.Join(candidate, "splice.yaml")); err == nil {
			return candidate
		}
	}

	t.Fatalf("testdata directory not found, tried: %v", candidates)
	return ""
}
