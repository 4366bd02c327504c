// Package model implements the gradient-boosted tree classifier the
// pipeline trains, plus the split and metric helpers around it.
package model

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
)

// GBTClassifier is a binary classifier boosting regression trees on the
// logistic loss.
type GBTClassifier struct {
	NEstimators    int
	LearningRate   float64
	MaxDepth       int
	MinSamplesLeaf int
	RandomState    int64

	// Fitted state, exported for gob.
	BaseScore float64
	Trees     []*regNode
}

// Option configures a GBTClassifier.
type Option func(*GBTClassifier)

func WithNEstimators(n int) Option       { return func(c *GBTClassifier) { c.NEstimators = n } }
func WithLearningRate(lr float64) Option { return func(c *GBTClassifier) { c.LearningRate = lr } }
func WithMaxDepth(d int) Option          { return func(c *GBTClassifier) { c.MaxDepth = d } }
func WithMinSamplesLeaf(n int) Option    { return func(c *GBTClassifier) { c.MinSamplesLeaf = n } }
func WithRandomState(seed int64) Option  { return func(c *GBTClassifier) { c.RandomState = seed } }

// NewGBTClassifier returns a classifier with the pipeline's defaults.
func NewGBTClassifier(opts ...Option) *GBTClassifier {
	c := &GBTClassifier{
		NEstimators:    300,
		LearningRate:   0.1,
		MaxDepth:       6,
		MinSamplesLeaf: 1,
		RandomState:    42,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Params returns the hyperparameters in loggable form.
func (c *GBTClassifier) Params() map[string]string {
	return map[string]string{
		"n_estimators":     fmt.Sprint(c.NEstimators),
		"learning_rate":    fmt.Sprint(c.LearningRate),
		"max_depth":        fmt.Sprint(c.MaxDepth),
		"min_samples_leaf": fmt.Sprint(c.MinSamplesLeaf),
		"random_state":     fmt.Sprint(c.RandomState),
	}
}

// Fit trains the ensemble on X with binary labels y.
func (c *GBTClassifier) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("model: X and y must be non-empty and the same length")
	}
	for _, label := range y {
		if label != 0 && label != 1 {
			return fmt.Errorf("model: labels must be 0/1, got %d", label)
		}
	}

	n := len(y)
	pos := 0
	for _, label := range y {
		pos += label
	}
	if pos == 0 || pos == n {
		return errors.New("model: training labels contain a single class")
	}

	// Start from the log-odds of the base rate.
	p := float64(pos) / float64(n)
	c.BaseScore = math.Log(p / (1 - p))
	c.Trees = c.Trees[:0]

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = c.BaseScore
	}

	grad := make([]float64, n)
	hess := make([]float64, n)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	params := treeParams{maxDepth: c.MaxDepth, minSamplesLeaf: c.MinSamplesLeaf}

	for iter := 0; iter < c.NEstimators; iter++ {
		for i := 0; i < n; i++ {
			prob := sigmoid(scores[i])
			grad[i] = float64(y[i]) - prob
			hess[i] = prob * (1 - prob)
		}
		tree := buildRegTree(X, grad, hess, indices, 0, params)
		c.Trees = append(c.Trees, tree)
		for i := 0; i < n; i++ {
			scores[i] += c.LearningRate * tree.predict(X[i])
		}
	}
	return nil
}

// PredictProba returns the positive-class probability for each row.
func (c *GBTClassifier) PredictProba(X [][]float64) ([]float64, error) {
	if len(c.Trees) == 0 {
		return nil, errors.New("model: classifier is not fitted")
	}
	out := make([]float64, len(X))
	for i, x := range X {
		score := c.BaseScore
		for _, tree := range c.Trees {
			score += c.LearningRate * tree.predict(x)
		}
		out[i] = sigmoid(score)
	}
	return out, nil
}

// Predict returns 0/1 labels at a 0.5 probability threshold.
func (c *GBTClassifier) Predict(X [][]float64) ([]int, error) {
	proba, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return BinaryPredFromProba(proba, 0.5), nil
}

// Save serializes the fitted ensemble with gob.
func (c *GBTClassifier) Save(path string) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("model: failed to encode classifier: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("model: failed to write %s: %w", path, err)
	}
	return nil
}

// Load reads a serialized ensemble back.
func Load(path string) (*GBTClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: failed to read %s: %w", path, err)
	}
	var c GBTClassifier
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&c); err != nil {
		return nil, fmt.Errorf("model: failed to decode classifier: %w", err)
	}
	return &c, nil
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
