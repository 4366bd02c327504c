package model

// tree.go - regression trees used as boosting base learners

import "sort"

// regNode is one node of a regression tree. Fields are exported so a
// fitted ensemble can be persisted with encoding/gob.
type regNode struct {
	IsLeaf    bool
	Feature   int
	Threshold float64 // x[Feature] <= Threshold goes left
	Left      *regNode
	Right     *regNode
	Value     float64 // leaf output (Newton step for the boosting loss)
}

// treeParams bound the recursive build.
type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
}

// buildRegTree fits a CART-style regression tree to the gradient/hessian
// pairs of the boosting loss. Splits maximize squared-error reduction on
// the gradients; leaf values are sum(grad)/(sum(hess)+eps).
func buildRegTree(X [][]float64, grad, hess []float64, indices []int, depth int, p treeParams) *regNode {
	if depth >= p.maxDepth || len(indices) < 2*p.minSamplesLeaf {
		return leafNode(grad, hess, indices)
	}

	feature, threshold, ok := bestSplit(X, grad, indices, p.minSamplesLeaf)
	if !ok {
		return leafNode(grad, hess, indices)
	}

	var left, right []int
	for _, i := range indices {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < p.minSamplesLeaf || len(right) < p.minSamplesLeaf {
		return leafNode(grad, hess, indices)
	}

	return &regNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildRegTree(X, grad, hess, left, depth+1, p),
		Right:     buildRegTree(X, grad, hess, right, depth+1, p),
	}
}

func leafNode(grad, hess []float64, indices []int) *regNode {
	const eps = 1e-9
	var g, h float64
	for _, i := range indices {
		g += grad[i]
		h += hess[i]
	}
	return &regNode{IsLeaf: true, Value: g / (h + eps)}
}

// bestSplit scans every feature for the threshold with the largest
// squared-error reduction over the gradients.
func bestSplit(X [][]float64, grad []float64, indices []int, minLeaf int) (feature int, threshold float64, ok bool) {
	if len(indices) == 0 {
		return 0, 0, false
	}
	nFeatures := len(X[indices[0]])

	var totalSum float64
	for _, i := range indices {
		totalSum += grad[i]
	}
	n := float64(len(indices))
	baseScore := totalSum * totalSum / n

	bestGain := 0.0
	sorted := make([]int, len(indices))

	for f := 0; f < nFeatures; f++ {
		copy(sorted, indices)
		sort.Slice(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })

		leftSum := 0.0
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			leftSum += grad[i]

			// No split between equal feature values.
			if X[i][f] == X[sorted[k+1]][f] {
				continue
			}
			nLeft := k + 1
			nRight := len(sorted) - nLeft
			if nLeft < minLeaf || nRight < minLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			gain := leftSum*leftSum/float64(nLeft) + rightSum*rightSum/float64(nRight) - baseScore
			if gain > bestGain {
				bestGain = gain
				feature = f
				threshold = (X[i][f] + X[sorted[k+1]][f]) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

// predict walks the tree for one sample.
func (n *regNode) predict(x []float64) float64 {
	node := n
	for !node.IsLeaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}
