package model

import "math/rand"

// StratifiedSplit splits X, y into train and test sets, sampling the test
// fraction from each class separately so the split preserves class
// balance. The same seed always produces the same split.
func StratifiedSplit(X [][]float64, y []int, testSize float64, seed int64) (XTrain, XTest [][]float64, yTrain, yTest []int) {
	rng := rand.New(rand.NewSource(seed))

	byClass := map[int][]int{}
	var classes []int
	for i, label := range y {
		if _, ok := byClass[label]; !ok {
			classes = append(classes, label)
		}
		byClass[label] = append(byClass[label], i)
	}

	for _, label := range classes {
		indices := byClass[label]
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		nTest := int(float64(len(indices)) * testSize)
		for k, idx := range indices {
			if k < nTest {
				XTest = append(XTest, X[idx])
				yTest = append(yTest, y[idx])
			} else {
				XTrain = append(XTrain, X[idx])
				yTrain = append(yTrain, y[idx])
			}
		}
	}
	return
}
