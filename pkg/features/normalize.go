package features

import "gonum.org/v1/gonum/floats"

// rowNormalize divides each row by its own sum, turning a raw count
// matrix into a mix (what fraction of a store's activity each column
// represents) rather than a volume. Rows that sum to zero are left as
// all-zero rather than divided, since the caller drops all-zero stores
// before this point.
//
// gonum has no row-wise matrix normalization primitive (its stat/floats
// helpers operate on a single []float64 at a time), so this is hand-
// written over plain [][]float64 rather than gonum.org/v1/gonum/mat.Dense
// — building a mat.Dense just to iterate its rows back out would add
// ceremony without buying anything gonum already solves.
func rowNormalize(rows [][]float64) {
	for _, row := range rows {
		sum := floats.Sum(row)
		if sum == 0 {
			continue
		}
		floats.Scale(1/sum, row)
	}
}

// minMaxColumn rescales one column (passed as a slice of the values in
// store order) into [0, 1]. A column with zero range (every store has the
// same value) maps to all zeros rather than dividing by zero.
func minMaxColumn(col []float64) []float64 {
	lo := floats.Min(col)
	hi := floats.Max(col)
	spread := hi - lo
	out := make([]float64, len(col))
	if spread == 0 {
		return out
	}
	for i, v := range col {
		out[i] = (v - lo) / spread
	}
	return out
}

// scaleColumn multiplies every element of col by c, returning a new
// slice so callers can apply a group weight without mutating the
// normalized column in place.
func scaleColumn(col []float64, c float64) []float64 {
	out := make([]float64, len(col))
	copy(out, col)
	floats.Scale(c, out)
	return out
}
