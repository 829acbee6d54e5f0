package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRunIsValid(t *testing.T) {
	require.NoError(t, DefaultRun().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Run)
		field  string
	}{
		{"Zero outlier criterion", func(r *Run) { r.Params.OutlierCriterion = 0 }, "OutlierCriterion"},
		{"Negative max head width", func(r *Run) { r.Params.MaxHeadWidth = -1 }, "MaxHeadWidth"},
		{"Zero ratio", func(r *Run) { r.Params.HeadBodyRatio = 0 }, "HeadBodyRatio"},
		{"Zero head outlier criterion", func(r *Run) { r.Params.HeadOutlierCriterion = 0 }, "HeadOutlierCriterion"},
		{"Zero dt", func(r *Run) { r.DeltaT = 0 }, "DeltaT"},
		{"Zero scale", func(r *Run) { r.Scale = 0 }, "Scale"},
		{"No engines", func(r *Run) { r.Engines = 0 }, "Engines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRun()
			tt.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadTuning(t *testing.T) {
	path := writeFile(t, "tuning.json", `{"max_head_width": 12, "engines": 4, "scale": 65}`)

	tuning, err := LoadTuning(path)
	require.NoError(t, err)

	r := DefaultRun()
	tuning.Apply(&r)
	assert.Equal(t, 12.0, r.Params.MaxHeadWidth)
	assert.Equal(t, 4, r.Engines)
	assert.Equal(t, 65.0, r.Scale)
	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultOutlierCriterion, r.Params.OutlierCriterion)
	assert.Equal(t, 1.0, r.DeltaT)
}

func TestLoadTuningErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"Wrong extension", func(t *testing.T) string { return writeFile(t, "tuning.yaml", "{}") }},
		{"Missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }},
		{"Bad JSON", func(t *testing.T) string { return writeFile(t, "tuning.json", "{not json") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTuning(tt.path(t))
			assert.Error(t, err)
		})
	}
}

func TestApplyNil(t *testing.T) {
	var tuning *Tuning
	r := DefaultRun()
	tuning.Apply(&r)
	assert.Equal(t, DefaultRun(), r)
}
