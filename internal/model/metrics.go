package model

// metrics.go - binary classification metrics (labels 0/1)

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Metrics bundles the evaluation results reported for a trained model.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
	ROCAUC    float64 `json:"roc_auc"`
}

// Evaluate computes all metrics from true labels, hard predictions and
// positive-class probabilities.
func Evaluate(yTrue, yPred []int, proba []float64) Metrics {
	prec, rec, f1 := PrecisionRecallF1(yTrue, yPred)
	return Metrics{
		Accuracy:  Accuracy(yTrue, yPred),
		Precision: prec,
		Recall:    rec,
		F1:        f1,
		ROCAUC:    ROCAUC(yTrue, proba),
	}
}

// BinaryPredFromProba thresholds probabilities into 0/1 labels.
func BinaryPredFromProba(proba []float64, threshold float64) []int {
	out := make([]int, len(proba))
	for i, p := range proba {
		if p >= threshold {
			out[i] = 1
		}
	}
	return out
}

// Accuracy is the fraction of matching labels.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}

// PrecisionRecallF1 computes the three confusion-matrix metrics for the
// positive class.
func PrecisionRecallF1(yTrue, yPred []int) (prec, rec, f1 float64) {
	tp, fp, fn := 0, 0, 0
	for i := range yTrue {
		switch {
		case yPred[i] == 1 && yTrue[i] == 1:
			tp++
		case yPred[i] == 1 && yTrue[i] == 0:
			fp++
		case yPred[i] == 0 && yTrue[i] == 1:
			fn++
		}
	}
	if tp+fp > 0 {
		prec = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		rec = float64(tp) / float64(tp+fn)
	}
	if prec+rec > 0 {
		f1 = 2 * prec * rec / (prec + rec)
	}
	return
}

// ROCAUC computes the area under the ROC curve from positive-class
// scores.
func ROCAUC(yTrue []int, scores []float64) float64 {
	n := len(yTrue)
	if n == 0 {
		return 0
	}

	// gonum's ROC wants scores ascending with class labels aligned.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return scores[order[a]] < scores[order[b]] })

	y := make([]float64, n)
	classes := make([]bool, n)
	for k, i := range order {
		y[k] = scores[i]
		classes[k] = yTrue[i] == 1
	}

	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)

	// Trapezoidal area under tpr(fpr).
	auc := 0.0
	for i := 1; i < len(fpr); i++ {
		auc += (fpr[i] - fpr[i-1]) * (tpr[i] + tpr[i-1]) / 2
	}
	if auc < 0 {
		auc = -auc
	}
	return auc
}
