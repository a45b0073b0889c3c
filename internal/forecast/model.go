package forecast

import (
	"math"
	"sort"
)

// gbm is a least-absolute-deviation gradient boosting model over small
// regression trees. Expense distributions are skewed, so the MAE
// objective is used: trees are fit to residual signs and leaf values
// are residual medians, which keeps single outlier months from
// dominating the fit.
type gbm struct {
	base         float64
	trees        []*treeNode
	learningRate float64
}

type gbmConfig struct {
	rounds       int
	learningRate float64
	maxDepth     int
	minLeaf      int
}

// Hyperparameters are not load-bearing; these mirror common defaults
// for ~100 boosting rounds on tiny monthly tables.
var defaultGBMConfig = gbmConfig{
	rounds:       100,
	learningRate: 0.1,
	maxDepth:     3,
	minLeaf:      1,
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

// trainGBM fits the model to the feature matrix x and target y.
// Callers guarantee len(x) == len(y) > 0.
func trainGBM(cfg gbmConfig, x [][]float64, y []float64) *gbm {
	n := len(y)
	model := &gbm{
		base:         median(y),
		learningRate: cfg.learningRate,
		trees:        make([]*treeNode, 0, cfg.rounds),
	}

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = model.base
	}

	residual := make([]float64, n)
	gradient := make([]float64, n)
	indices := make([]int, n)

	for round := 0; round < cfg.rounds; round++ {
		for i := 0; i < n; i++ {
			residual[i] = y[i] - pred[i]
			gradient[i] = sign(residual[i])
			indices[i] = i
		}

		tree := buildTree(cfg, x, gradient, residual, indices, 0)
		model.trees = append(model.trees, tree)

		for i := 0; i < n; i++ {
			pred[i] += cfg.learningRate * tree.predict(x[i])
		}
	}
	return model
}

func (m *gbm) predict(x []float64) float64 {
	out := m.base
	for _, t := range m.trees {
		out += m.learningRate * t.predict(x)
	}
	return out
}

func (t *treeNode) predict(x []float64) float64 {
	node := t
	for !node.leaf {
		if x[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

// buildTree grows a regression tree on the sign gradients using
// squared-error splits; leaf values are the medians of the raw
// residuals reaching the leaf (the LAD TreeBoost line search).
func buildTree(cfg gbmConfig, x [][]float64, gradient, residual []float64, indices []int, depth int) *treeNode {
	if depth >= cfg.maxDepth || len(indices) < 2*cfg.minLeaf || uniform(gradient, indices) {
		return leafNode(residual, indices)
	}

	feature, threshold, ok := bestSplit(cfg, x, gradient, indices)
	if !ok {
		return leafNode(residual, indices)
	}

	var left, right []int
	for _, i := range indices {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < cfg.minLeaf || len(right) < cfg.minLeaf {
		return leafNode(residual, indices)
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      buildTree(cfg, x, gradient, residual, left, depth+1),
		right:     buildTree(cfg, x, gradient, residual, right, depth+1),
	}
}

func leafNode(residual []float64, indices []int) *treeNode {
	vals := make([]float64, len(indices))
	for j, i := range indices {
		vals[j] = residual[i]
	}
	return &treeNode{leaf: true, value: median(vals)}
}

// bestSplit scans every feature and every midpoint between adjacent
// distinct values, minimizing the summed squared error of the gradient
// targets. The tables are tiny, so the quadratic scan is fine.
func bestSplit(cfg gbmConfig, x [][]float64, gradient []float64, indices []int) (feature int, threshold float64, ok bool) {
	if len(indices) == 0 {
		return 0, 0, false
	}
	nFeatures := len(x[indices[0]])
	bestErr := math.Inf(1)

	vals := make([]float64, 0, len(indices))
	for f := 0; f < nFeatures; f++ {
		vals = vals[:0]
		for _, i := range indices {
			vals = append(vals, x[i][f])
		}
		sort.Float64s(vals)

		for v := 0; v < len(vals)-1; v++ {
			if vals[v] == vals[v+1] {
				continue
			}
			thr := (vals[v] + vals[v+1]) / 2
			if err, valid := splitError(cfg, x, gradient, indices, f, thr); valid && err < bestErr {
				bestErr = err
				feature = f
				threshold = thr
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func splitError(cfg gbmConfig, x [][]float64, gradient []float64, indices []int, feature int, threshold float64) (float64, bool) {
	var sumL, sumR float64
	var nL, nR int
	for _, i := range indices {
		if x[i][feature] <= threshold {
			sumL += gradient[i]
			nL++
		} else {
			sumR += gradient[i]
			nR++
		}
	}
	if nL < cfg.minLeaf || nR < cfg.minLeaf {
		return 0, false
	}

	meanL := sumL / float64(nL)
	meanR := sumR / float64(nR)
	var sse float64
	for _, i := range indices {
		var d float64
		if x[i][feature] <= threshold {
			d = gradient[i] - meanL
		} else {
			d = gradient[i] - meanR
		}
		sse += d * d
	}
	return sse, true
}

func uniform(vals []float64, indices []int) bool {
	for _, i := range indices[1:] {
		if vals[i] != vals[indices[0]] {
			return false
		}
	}
	return true
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
