package model

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableData returns a two-feature problem where class 1 sits above
// x0+x1 = 10 and class 0 below it.
func separableData(n int, seed int64) (X [][]float64, y []int) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		x0 := rng.Float64() * 10
		x1 := rng.Float64() * 10
		X = append(X, []float64{x0, x1})
		if x0+x1 > 10 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	return
}

func TestNewGBTClassifier_Defaults(t *testing.T) {
	c := NewGBTClassifier()
	assert.Equal(t, 300, c.NEstimators)
	assert.Equal(t, 0.1, c.LearningRate)
	assert.Equal(t, 6, c.MaxDepth)
	assert.Equal(t, 1, c.MinSamplesLeaf)
	assert.Equal(t, int64(42), c.RandomState)
}

func TestNewGBTClassifier_Options(t *testing.T) {
	c := NewGBTClassifier(
		WithNEstimators(50),
		WithLearningRate(0.3),
		WithMaxDepth(3),
		WithMinSamplesLeaf(5),
		WithRandomState(7),
	)
	assert.Equal(t, 50, c.NEstimators)
	assert.Equal(t, 0.3, c.LearningRate)
	assert.Equal(t, 3, c.MaxDepth)
	assert.Equal(t, 5, c.MinSamplesLeaf)
	assert.Equal(t, int64(7), c.RandomState)

	want := map[string]string{
		"n_estimators":     "50",
		"learning_rate":    "0.3",
		"max_depth":        "3",
		"min_samples_leaf": "5",
		"random_state":     "7",
	}
	assert.Equal(t, want, c.Params())
}

func TestFit_SeparableData(t *testing.T) {
	X, y := separableData(200, 11)
	c := NewGBTClassifier(WithNEstimators(20), WithMaxDepth(3))
	require.NoError(t, c.Fit(X, y))
	require.Len(t, c.Trees, 20)

	pred, err := c.Predict(X)
	require.NoError(t, err)
	acc := Accuracy(y, pred)
	assert.Greater(t, acc, 0.95, "training accuracy on separable data")
}

func TestFit_InputErrors(t *testing.T) {
	c := NewGBTClassifier(WithNEstimators(5))

	assert.Error(t, c.Fit(nil, nil))
	assert.Error(t, c.Fit([][]float64{{1}}, []int{0, 1}))
	assert.Error(t, c.Fit([][]float64{{1}, {2}}, []int{0, 2}))
	assert.Error(t, c.Fit([][]float64{{1}, {2}}, []int{1, 1}), "single class")
}

func TestPredict_Unfitted(t *testing.T) {
	c := NewGBTClassifier()
	_, err := c.PredictProba([][]float64{{1, 2}})
	assert.Error(t, err)
}

func TestFit_Deterministic(t *testing.T) {
	X, y := separableData(100, 3)

	a := NewGBTClassifier(WithNEstimators(10), WithMaxDepth(3))
	require.NoError(t, a.Fit(X, y))
	b := NewGBTClassifier(WithNEstimators(10), WithMaxDepth(3))
	require.NoError(t, b.Fit(X, y))

	pa, err := a.PredictProba(X)
	require.NoError(t, err)
	pb, err := b.PredictProba(X)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	X, y := separableData(150, 5)
	c := NewGBTClassifier(WithNEstimators(15), WithMaxDepth(3))
	require.NoError(t, c.Fit(X, y))

	path := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, c.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c.NEstimators, loaded.NEstimators)
	assert.Equal(t, c.BaseScore, loaded.BaseScore)
	require.Len(t, loaded.Trees, 15)

	want, err := c.PredictProba(X)
	require.NoError(t, err)
	got, err := loaded.PredictProba(X)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.gob"))
	assert.Error(t, err)
}
