package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/priority/pkg/isoduration"
)

const sampleFixture = `
now = 2024-03-10T12:00:00Z

[[rules]]
name = "work"
boost = 5
  [[rules.conditions]]
  field = "category"
  operator = "equals"
  value = "Work"

[[rules]]
name = "due within two days"
boost = 10
  [[rules.conditions]]
  field = "deadline"
  operator = "less_than"
  value = "P2D"

[[rules]]
name = "long haul"
boost = -3
  [[rules.conditions]]
  field = "duration"
  operator = "greater_than"
  value = "PT2H"

[[tasks]]
title = "Quarterly report"
category = "work"
duration = "PT4H"
deadline = 2024-03-12T12:00:00Z

[[tasks]]
title = "Water plants"
tags = ["home"]
duration = "PT10M"
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScoreFixture(t *testing.T) {
	f, err := loadFixture(writeFixture(t, sampleFixture))
	require.NoError(t, err)

	results, err := scoreFixture(f)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Quarterly report", results[0].Title)
	assert.Equal(t, 12, results[0].Breakdown.Score, "deadline boundary is inclusive")
	assert.Equal(t, 0, results[1].Breakdown.Score)
}

func TestScoreFixtureRejectsInvalidRule(t *testing.T) {
	f, err := loadFixture(writeFixture(t, `
[[rules]]
name = "broken"
boost = 1
  [[rules.conditions]]
  field = "deadline"
  operator = "less_than"
  value = "two days"
`))
	require.NoError(t, err)

	_, err = scoreFixture(f)
	assert.True(t, isoduration.IsMalformed(err))
}

func TestLoadFixtureErrors(t *testing.T) {
	_, err := loadFixture(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = loadFixture(writeFixture(t, "this is not [toml"))
	assert.ErrorContains(t, err, "parse fixture")
}

func TestScoreCommandOutput(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"score", writeFixture(t, sampleFixture)})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Quarterly report")
	assert.Contains(t, out.String(), "work (+5)")
	assert.Contains(t, out.String(), "long haul (-3)")
}

func TestDurationCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	rootCmd.SetArgs([]string{"duration", "P7DT12H", "PT30M"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "180h0m0s")
	assert.Contains(t, out.String(), "30 min")

	out.Reset()
	rootCmd.SetArgs([]string{"duration", "PT30M", "soon"})
	err := rootCmd.Execute()
	assert.ErrorContains(t, err, "1 of 2")
	assert.Contains(t, out.String(), "malformed duration")
}
