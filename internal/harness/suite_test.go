package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindScenarioFiles(t *testing.T) {
	files, err := FindScenarioFiles("testdata", "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "scenarios", "car_unsigned.yaml"),
		filepath.Join("testdata", "scenarios", "numbers_ranges.yaml"),
		filepath.Join("testdata", "scenarios", "person_basic.yaml"),
		filepath.Join("testdata", "scenarios", "shop_orders.yaml"),
	}, files)

	files, err = FindScenarioFiles("testdata/scenarios", "*_orders")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("testdata", "scenarios", "shop_orders.yaml")}, files)

	_, err = FindScenarioFiles("testdata", "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")

	_, err = FindScenarioFiles(filepath.Join(t.TempDir(), "missing"), "")
	require.Error(t, err)
}

func TestRunFiles(t *testing.T) {
	broken := writeScenario(t, "name: broken\ndescription: d\nschema: person\n")
	failing := writeScenario(t, `
name: failing
description: "expects the wrong answer"
schema: numbers
steps:
  - query: getSomeNumber()
    expect:
      output: "41"
`)

	suite := RunFiles([]string{
		"testdata/scenarios/numbers_ranges.yaml",
		broken,
		failing,
	})

	assert.Equal(t, 3, suite.Total)
	assert.Equal(t, 1, suite.Passed)
	assert.Equal(t, 2, suite.Failed)
	require.Len(t, suite.Scenarios, 3)

	assert.Equal(t, "numbers_ranges", suite.Scenarios[0].Name)
	assert.True(t, suite.Scenarios[0].Pass)

	assert.Equal(t, "scenario.yaml", suite.Scenarios[1].Name)
	require.Len(t, suite.Scenarios[1].Errors, 1)
	assert.Contains(t, suite.Scenarios[1].Errors[0], "failed to load scenario")

	assert.Equal(t, "failing", suite.Scenarios[2].Name)
	require.Len(t, suite.Scenarios[2].Errors, 1)
	assert.Contains(t, suite.Scenarios[2].Errors[0], `expected output "41", got "42"`)
}
