package clustering

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"retail-assortment-optimizer/pkg/domain"
)

// reducedBlocks is the PCA output for the three feature families spec.md
// §4.2 names: the SPU-level sales mix, the subcategory-level sales mix,
// and everything else (style, capacity, temperature, geographic) treated
// as one aggregated "category" family, since Feature Assembly (C1) never
// materializes a third, separately-built category-level sales matrix —
// only build_sales_matrix and build_subcategory_matrix exist. Folding the
// four non-sales groups into the "aggregated category" family is this
// package's resolution of that naming gap (see DESIGN.md).
type reducedBlocks struct {
	Data            [][]float64
	CategoryOffset  int // column index where the category block starts in Data
	CategoryWidth   int
}

// ReduceFeatures runs PCA independently over the SPU, subcategory, and
// aggregated-category column families of m, then stacks the reduced
// blocks back into one row-aligned matrix, per spec.md §4.2 step 1.
func ReduceFeatures(m *domain.FeatureMatrix, spuComponents, subcatComponents, categoryComponents int) (*reducedBlocks, error) {
	spuCols := columnsWithPrefix(m, "spu:")
	subcatCols := columnsWithPrefix(m, "subcat:")
	categoryCols := remainingColumns(m, spuCols, subcatCols)

	spuBlock, err := reduceBlock(extractColumns(m, spuCols), spuComponents)
	if err != nil {
		return nil, fmt.Errorf("pca: spu family: %w", err)
	}
	subcatBlock, err := reduceBlock(extractColumns(m, subcatCols), subcatComponents)
	if err != nil {
		return nil, fmt.Errorf("pca: subcategory family: %w", err)
	}
	categoryBlock, err := reduceBlock(extractColumns(m, categoryCols), categoryComponents)
	if err != nil {
		return nil, fmt.Errorf("pca: aggregated category family: %w", err)
	}

	n := m.NumStores()
	categoryOffset := width(spuBlock) + width(subcatBlock)
	categoryWidth := width(categoryBlock)
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, 0, categoryOffset+categoryWidth)
		if i < len(spuBlock) {
			row = append(row, spuBlock[i]...)
		}
		if i < len(subcatBlock) {
			row = append(row, subcatBlock[i]...)
		}
		if i < len(categoryBlock) {
			row = append(row, categoryBlock[i]...)
		}
		out[i] = row
	}

	return &reducedBlocks{Data: out, CategoryOffset: categoryOffset, CategoryWidth: categoryWidth}, nil
}

func width(block [][]float64) int {
	if len(block) == 0 {
		return 0
	}
	return len(block[0])
}

// reduceBlock mean-centers each column and projects onto the top-k
// principal axes found via mat.Dense.SVD — the corpus's one linear-algebra
// library and the only acceptable PCA path per the teacher's dependency
// set. k is clamped to min(columns, rows-1), since PCA cannot discover
// more components than the data supports; degenerate blocks do not error:
// a block with no columns yields empty rows and a single-row block passes
// through unreduced.
func reduceBlock(data [][]float64, k int) ([][]float64, error) {
	rows := len(data)
	if rows == 0 {
		return nil, nil
	}
	cols := len(data[0])
	if cols == 0 {
		return make([][]float64, rows), nil
	}
	maxK := cols
	if rows-1 < maxK {
		maxK = rows - 1
	}
	if maxK < 1 {
		// Too few samples to reduce meaningfully; pass the raw block through.
		return data, nil
	}
	if k <= 0 || k > maxK {
		k = maxK
	}

	flat := make([]float64, rows*cols)
	for i, r := range data {
		copy(flat[i*cols:(i+1)*cols], r)
	}
	x := mat.NewDense(rows, cols, flat)

	means := make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		means[j] = stat.Mean(col, nil)
	}
	centered := mat.NewDense(rows, cols, nil)
	centered.Apply(func(_, j int, v float64) float64 { return v - means[j] }, x)

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return nil, fmt.Errorf("SVD factorization failed on a %dx%d block", rows, cols)
	}
	var v mat.Dense
	svd.VTo(&v)
	_, vCols := v.Dims()
	if k > vCols {
		k = vCols
	}
	vk := mat.DenseCopyOf(v.Slice(0, cols, 0, k))

	var scores mat.Dense
	scores.Mul(centered, vk)

	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = mat.Row(nil, i, &scores)
	}
	return out, nil
}

func columnsWithPrefix(m *domain.FeatureMatrix, prefix string) []int {
	var idx []int
	for i, name := range m.ColumnNames {
		if strings.HasPrefix(name, prefix) {
			idx = append(idx, i)
		}
	}
	return idx
}

func remainingColumns(m *domain.FeatureMatrix, used ...[]int) []int {
	excluded := make(map[int]struct{})
	for _, group := range used {
		for _, i := range group {
			excluded[i] = struct{}{}
		}
	}
	var idx []int
	for i := range m.ColumnNames {
		if _, skip := excluded[i]; !skip {
			idx = append(idx, i)
		}
	}
	return idx
}

func extractColumns(m *domain.FeatureMatrix, cols []int) [][]float64 {
	out := make([][]float64, m.NumStores())
	for i, row := range m.Data {
		sub := make([]float64, len(cols))
		for j, c := range cols {
			sub[j] = row[c]
		}
		out[i] = sub
	}
	return out
}
