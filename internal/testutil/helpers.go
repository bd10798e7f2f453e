// Package testutil provides reusable test helper functions for filter file tests.
package testutil

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-12
	PCM24Tolerance   = 1.0 / 8388607
)

// FixedTime is a deterministic timestamp for file headers.
var FixedTime = time.Date(2025, time.March, 7, 14, 5, 9, 0, time.UTC)

// Now returns FixedTime.
func Now() time.Time {
	return FixedTime
}

// AssertRowsInDelta verifies that two coefficient arrays have the same shape
// and agree element-wise within tolerance.
func AssertRowsInDelta(t *testing.T, expected, actual [][]float64, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if !assert.Len(t, actual, len(expected), msgAndArgs...) {
		return false
	}
	for i := range expected {
		if !assert.Len(t, actual[i], len(expected[i]), "row %d length", i) {
			return false
		}
		if !floats.EqualApprox(expected[i], actual[i], tolerance) {
			return assert.Fail(t, "rows differ",
				"row %d: expected %v, got %v (tolerance %g)", i, expected[i], actual[i], tolerance)
		}
	}
	return true
}

// AssertNoFile verifies that nothing exists at path.
func AssertNoFile(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return assert.True(t, os.IsNotExist(err), "expected no file at %s, stat error: %v", path, err)
}

// ReadLines returns the lines of a text file, split on "\n".
func ReadLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(string(data), "\n")
}
