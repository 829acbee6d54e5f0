package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresmejia3/motility/internal/types"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is returned for parameters that make segmentation meaningless.
var ErrInvalidConfig = errors.New("invalid configuration")

// Defaults used by the CLI when neither a flag nor a tuning file sets a value.
const (
	DefaultOutlierCriterion     = 2.75
	DefaultMaxHeadWidth         = 80
	DefaultHeadBodyRatio        = 0.25
	DefaultHeadOutlierCriterion = 135
)

// Tuning is the on-disk form of the segmentation parameters. Fields omitted
// from the file stay nil and leave the current value untouched.
type Tuning struct {
	OutlierCriterion     *float64 `json:"outlier_criterion,omitempty"`
	MaxHeadWidth         *float64 `json:"max_head_width,omitempty"`
	HeadBodyRatio        *float64 `json:"head_body_ratio,omitempty"`
	HeadOutlierCriterion *float64 `json:"head_outlier_criterion,omitempty"`
	DeltaT               *float64 `json:"delta_t,omitempty"`
	Scale                *float64 `json:"scale,omitempty"`
	Engines              *int     `json:"engines,omitempty"`
}

// Run is everything a segmentation run needs besides its input.
type Run struct {
	Params  types.Params
	DeltaT  float64
	Scale   float64
	Engines int
}

// DefaultRun returns the CLI defaults.
func DefaultRun() Run {
	return Run{
		Params: types.Params{
			OutlierCriterion:     DefaultOutlierCriterion,
			MaxHeadWidth:         DefaultMaxHeadWidth,
			HeadBodyRatio:        DefaultHeadBodyRatio,
			HeadOutlierCriterion: DefaultHeadOutlierCriterion,
		},
		DeltaT:  1,
		Scale:   1,
		Engines: 1,
	}
}

// LoadTuning reads a tuning file. The file must be JSON and under 1MB.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	t := &Tuning{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return t, nil
}

// Apply copies every field set in t onto r.
func (t *Tuning) Apply(r *Run) {
	if t == nil {
		return
	}
	if t.OutlierCriterion != nil {
		r.Params.OutlierCriterion = *t.OutlierCriterion
	}
	if t.MaxHeadWidth != nil {
		r.Params.MaxHeadWidth = *t.MaxHeadWidth
	}
	if t.HeadBodyRatio != nil {
		r.Params.HeadBodyRatio = *t.HeadBodyRatio
	}
	if t.HeadOutlierCriterion != nil {
		r.Params.HeadOutlierCriterion = *t.HeadOutlierCriterion
	}
	if t.DeltaT != nil {
		r.DeltaT = *t.DeltaT
	}
	if t.Scale != nil {
		r.Scale = *t.Scale
	}
	if t.Engines != nil {
		r.Engines = *t.Engines
	}
}

type checkedRun struct {
	OutlierCriterion     float64 `validate:"gt=0"`
	MaxHeadWidth         float64 `validate:"gt=0"`
	HeadBodyRatio        float64 `validate:"gt=0"`
	HeadOutlierCriterion float64 `validate:"gt=0"`
	DeltaT               float64 `validate:"gt=0"`
	Scale                float64 `validate:"gt=0"`
	Engines              int     `validate:"gte=1"`
}

var validate = validator.New()

// Validate rejects non-positive thresholds, calibration, and engine counts.
func (r Run) Validate() error {
	err := validate.Struct(checkedRun{
		OutlierCriterion:     r.Params.OutlierCriterion,
		MaxHeadWidth:         r.Params.MaxHeadWidth,
		HeadBodyRatio:        r.Params.HeadBodyRatio,
		HeadOutlierCriterion: r.Params.HeadOutlierCriterion,
		DeltaT:               r.DeltaT,
		Scale:                r.Scale,
		Engines:              r.Engines,
	})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s must be %s %s, got %v", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}
