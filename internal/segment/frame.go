package segment

import (
	"fmt"

	"github.com/andresmejia3/motility/internal/types"
)

// ProcessFrame runs the full separation on the foreground pixels of one frame.
// It never fails: every rejection becomes an invalid result carrying the reason.
func ProcessFrame(index int, pixels types.PointSet, params types.Params) types.FrameResult {
	if len(pixels) == 0 {
		return types.Invalid(index, fmt.Errorf("%w: no foreground pixels", ErrDegenerateFrame).Error())
	}

	body := RemoveOutliers(pixels, params.OutlierCriterion)
	if len(body) == 0 {
		return types.Invalid(index, fmt.Errorf("%w: every pixel is an outlier", ErrDegenerateFrame).Error())
	}

	axis := DominantAxis(body)
	lower := ExtractBoundary(body, axis, Lower)
	upper := ExtractBoundary(body, axis, Upper)

	cls, err := Classify(lower, upper, params.MaxHeadWidth, params.HeadBodyRatio)
	if err != nil {
		return types.Invalid(index, err.Error())
	}
	if !cls.Good {
		return types.Invalid(index, fmt.Sprintf("width peak %d of %d is not near a body end", cls.Peak, len(cls.Profile)))
	}

	parts, err := Partition(lower, upper, cls, axis, params.HeadOutlierCriterion)
	if err != nil {
		return types.Invalid(index, err.Error())
	}

	return types.FrameResult{
		Index: index,
		Valid: true,
		Segmentation: &types.Segmentation{
			Body:        body,
			Head:        parts.Head,
			Flagellum:   parts.Flagellum,
			Axis:        axis,
			Orientation: parts.Orientation,
		},
	}
}
