package classifier

import (
	"math/rand/v2"
	"slices"
)

// Splitter selects how a tree chooses split thresholds.
type Splitter string

const (
	// SplitBest evaluates every distinct threshold of each candidate feature.
	SplitBest Splitter = "best"
	// SplitRandom draws one threshold uniformly between the feature's min and
	// max in the node (extremely randomized trees).
	SplitRandom Splitter = "random"
)

// leafFeature marks a TreeNode as a leaf.
const leafFeature = -1

// TreeNode is one node of a DecisionTree, stored in a flat slice so the tree
// can be gob-encoded. Samples with x[Feature] <= Threshold go Left.
type TreeNode struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     []float64 // class probabilities, or a single regression output
}

// IsLeaf reports whether the node has no children.
func (n *TreeNode) IsLeaf() bool {
	return n.Feature == leafFeature
}

// DecisionTree is a CART tree. Classification trees split on Gini impurity
// and store class probabilities in their leaves; regression trees split on
// squared error and store the mean target.
type DecisionTree struct {
	Nodes           []TreeNode
	NumClasses      int // 0 for regression trees
	MaxDepth        int // 0 means unlimited
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // features considered per split, 0 means all
	Splitter        Splitter
}

// newTree returns a tree with the usual stopping defaults.
func newTree(maxDepth, maxFeatures int, splitter Splitter) *DecisionTree {
	return &DecisionTree{
		MaxDepth:        maxDepth,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     maxFeatures,
		Splitter:        splitter,
	}
}

// treeBuilder holds the training data while a tree grows.
type treeBuilder struct {
	tree        *DecisionTree
	x           [][]float64
	labels      []int     // classification targets
	targets     []float64 // regression targets
	rng         *rand.Rand
	numFeatures int
	scratch     []int
}

// fitClassifier grows a classification tree on the rows listed in idx.
func (t *DecisionTree) fitClassifier(x [][]float64, y []int, numClasses int, idx []int, rng *rand.Rand) {
	t.NumClasses = numClasses
	t.Nodes = t.Nodes[:0]
	b := &treeBuilder{tree: t, x: x, labels: y, rng: rng, numFeatures: len(x[0])}
	b.grow(idx, 0)
}

// fitRegressor grows a regression tree on the rows listed in idx.
func (t *DecisionTree) fitRegressor(x [][]float64, target []float64, idx []int, rng *rand.Rand) {
	t.NumClasses = 0
	t.Nodes = t.Nodes[:0]
	b := &treeBuilder{tree: t, x: x, targets: target, rng: rng, numFeatures: len(x[0])}
	b.grow(idx, 0)
}

func (b *treeBuilder) regression() bool {
	return b.tree.NumClasses == 0
}

// grow appends the subtree for idx and returns its node index. idx is
// partitioned in place.
func (b *treeBuilder) grow(idx []int, depth int) int {
	t := b.tree
	node := len(t.Nodes)
	t.Nodes = append(t.Nodes, TreeNode{Feature: leafFeature, Value: b.leafValue(idx)})

	if len(idx) < t.MinSamplesSplit || len(idx) < 2*t.MinSamplesLeaf {
		return node
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return node
	}
	if b.pure(idx) {
		return node
	}

	feature, threshold, ok := b.findSplit(idx)
	if !ok {
		return node
	}

	split := partition(idx, func(i int) bool { return b.x[i][feature] <= threshold })
	left := b.grow(idx[:split], depth+1)
	right := b.grow(idx[split:], depth+1)

	t.Nodes[node] = TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      left,
		Right:     right,
		Value:     t.Nodes[node].Value,
	}
	return node
}

func (b *treeBuilder) leafValue(idx []int) []float64 {
	if b.regression() {
		sum := 0.0
		for _, i := range idx {
			sum += b.targets[i]
		}
		return []float64{sum / float64(len(idx))}
	}

	proba := make([]float64, b.tree.NumClasses)
	for _, i := range idx {
		proba[b.labels[i]]++
	}
	for c := range proba {
		proba[c] /= float64(len(idx))
	}
	return proba
}

func (b *treeBuilder) pure(idx []int) bool {
	for _, i := range idx[1:] {
		if b.regression() {
			if b.targets[i] != b.targets[idx[0]] {
				return false
			}
		} else if b.labels[i] != b.labels[idx[0]] {
			return false
		}
	}
	return true
}

// candidateFeatures returns features in the order they should be tried.
// With MaxFeatures set, the order is a random permutation and the search
// stops after MaxFeatures features unless none of them yields a split.
func (b *treeBuilder) candidateFeatures() []int {
	if b.tree.MaxFeatures > 0 && b.tree.MaxFeatures < b.numFeatures || b.tree.Splitter == SplitRandom {
		return b.rng.Perm(b.numFeatures)
	}
	features := make([]int, b.numFeatures)
	for f := range features {
		features[f] = f
	}
	return features
}

// findSplit scores candidate features and returns the best split. Scores
// are "proxy improvements": higher is better and only comparable within a
// node.
func (b *treeBuilder) findSplit(idx []int) (feature int, threshold float64, ok bool) {
	limit := b.tree.MaxFeatures
	if limit <= 0 || limit > b.numFeatures {
		limit = b.numFeatures
	}

	bestScore := 0.0
	tried := 0
	for _, f := range b.candidateFeatures() {
		if tried >= limit && ok {
			break
		}
		tried++

		var score, thr float64
		var valid bool
		if b.tree.Splitter == SplitRandom {
			score, thr, valid = b.randomSplit(idx, f)
		} else {
			score, thr, valid = b.bestSplit(idx, f)
		}
		if valid && (!ok || score > bestScore) {
			feature, threshold, bestScore, ok = f, thr, score, true
		}
	}
	return feature, threshold, ok
}

// bestSplit sweeps all thresholds of feature f.
func (b *treeBuilder) bestSplit(idx []int, f int) (score, threshold float64, ok bool) {
	b.scratch = append(b.scratch[:0], idx...)
	sorted := b.scratch
	slices.SortFunc(sorted, func(i, j int) int {
		switch {
		case b.x[i][f] < b.x[j][f]:
			return -1
		case b.x[i][f] > b.x[j][f]:
			return 1
		default:
			return 0
		}
	})

	n := len(sorted)
	minLeaf := b.tree.MinSamplesLeaf
	acc := b.newAccumulator(sorted)

	for pos := 0; pos < n-1; pos++ {
		acc.moveLeft(sorted[pos])
		nl := pos + 1
		if nl < minLeaf || n-nl < minLeaf {
			continue
		}
		lo, hi := b.x[sorted[pos]][f], b.x[sorted[pos+1]][f]
		if lo == hi {
			continue
		}
		if s := acc.score(nl, n-nl); !ok || s > score {
			score, threshold, ok = s, lo+(hi-lo)/2, true
		}
	}
	return score, threshold, ok
}

// randomSplit draws a single threshold for feature f.
func (b *treeBuilder) randomSplit(idx []int, f int) (score, threshold float64, ok bool) {
	lo, hi := b.x[idx[0]][f], b.x[idx[0]][f]
	for _, i := range idx[1:] {
		lo = min(lo, b.x[i][f])
		hi = max(hi, b.x[i][f])
	}
	if lo == hi {
		return 0, 0, false
	}

	threshold = lo + b.rng.Float64()*(hi-lo)
	if threshold >= hi {
		threshold = lo
	}

	acc := b.newAccumulator(idx)
	nl := 0
	for _, i := range idx {
		if b.x[i][f] <= threshold {
			acc.moveLeft(i)
			nl++
		}
	}
	nr := len(idx) - nl
	if nl < b.tree.MinSamplesLeaf || nr < b.tree.MinSamplesLeaf {
		return 0, 0, false
	}
	return acc.score(nl, nr), threshold, true
}

// splitAccumulator tracks left/right statistics while samples move from the
// right side to the left side of a candidate split.
type splitAccumulator struct {
	b *treeBuilder

	// classification: class counts and sums of squared counts
	left, right    []float64
	sumSqL, sumSqR float64
	// regression: target sums
	sumL, sumR float64
}

func (b *treeBuilder) newAccumulator(idx []int) *splitAccumulator {
	acc := &splitAccumulator{b: b}
	if b.regression() {
		for _, i := range idx {
			acc.sumR += b.targets[i]
		}
		return acc
	}

	acc.left = make([]float64, b.tree.NumClasses)
	acc.right = make([]float64, b.tree.NumClasses)
	for _, i := range idx {
		acc.right[b.labels[i]]++
	}
	for _, c := range acc.right {
		acc.sumSqR += c * c
	}
	return acc
}

func (a *splitAccumulator) moveLeft(i int) {
	if a.b.regression() {
		a.sumL += a.b.targets[i]
		a.sumR -= a.b.targets[i]
		return
	}
	c := a.b.labels[i]
	a.sumSqL += 2*a.left[c] + 1
	a.sumSqR -= 2*a.right[c] - 1
	a.left[c]++
	a.right[c]--
}

// score is maximised by the split with the lowest weighted impurity: for
// Gini, n*G = n - sum(c^2)/n per side; for squared error, SSE = sum(y^2) -
// sum(y)^2/n per side. The terms independent of the split are dropped.
func (a *splitAccumulator) score(nl, nr int) float64 {
	if a.b.regression() {
		return a.sumL*a.sumL/float64(nl) + a.sumR*a.sumR/float64(nr)
	}
	return a.sumSqL/float64(nl) + a.sumSqR/float64(nr)
}

// partition reorders idx so that elements satisfying left come first and
// returns their count.
func partition(idx []int, left func(int) bool) int {
	j := 0
	for k := range idx {
		if left(idx[k]) {
			idx[j], idx[k] = idx[k], idx[j]
			j++
		}
	}
	return j
}

// leaf returns the index of the leaf reached by x.
func (t *DecisionTree) leaf(x []float64) int {
	node := 0
	for !t.Nodes[node].IsLeaf() {
		n := &t.Nodes[node]
		if x[n.Feature] <= n.Threshold {
			node = n.Left
		} else {
			node = n.Right
		}
	}
	return node
}

// PredictProba returns the class distribution of the leaf reached by x.
func (t *DecisionTree) PredictProba(x []float64) []float64 {
	return t.Nodes[t.leaf(x)].Value
}

// predictValue returns the regression output for x.
func (t *DecisionTree) predictValue(x []float64) float64 {
	return t.Nodes[t.leaf(x)].Value[0]
}

// Depth returns the length of the longest root-to-leaf path.
func (t *DecisionTree) Depth() int {
	var walk func(node, depth int) int
	walk = func(node, depth int) int {
		n := &t.Nodes[node]
		if n.IsLeaf() {
			return depth
		}
		return max(walk(n.Left, depth+1), walk(n.Right, depth+1))
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0, 0)
}
