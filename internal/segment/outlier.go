// Package segment splits a sperm body silhouette into head and flagellum.
package segment

import (
	"github.com/andresmejia3/motility/internal/types"
	"gonum.org/v1/gonum/stat"
)

// RemoveOutliers keeps the points lying within criterion standard deviations of
// the mean on both axes. Bounds are inclusive, so a singleton survives.
func RemoveOutliers(ps types.PointSet, criterion float64) types.PointSet {
	if len(ps) == 0 {
		return types.PointSet{}
	}

	rows := make([]float64, len(ps))
	cols := make([]float64, len(ps))
	for i, p := range ps {
		rows[i] = float64(p.Row)
		cols[i] = float64(p.Col)
	}
	rowMu, rowSd := stat.PopMeanStdDev(rows, nil)
	colMu, colSd := stat.PopMeanStdDev(cols, nil)

	rowMin, rowMax := rowMu-rowSd*criterion, rowMu+rowSd*criterion
	colMin, colMax := colMu-colSd*criterion, colMu+colSd*criterion

	out := make(types.PointSet, 0, len(ps))
	for i, p := range ps {
		if rows[i] >= rowMin && rows[i] <= rowMax && cols[i] >= colMin && cols[i] <= colMax {
			out = append(out, p)
		}
	}
	return out
}
