package analytics

import (
	"fmt"

	"academic-advisor-go/models"
)

// Multipliers applied to the current standing for the prediction range.
const (
	optimisticFactor  = 1.15
	pessimisticFactor = 0.85
)

// Prediction is a final-exam estimate on the final-exam mark scale.
type Prediction struct {
	Course          models.Course `json:"course"`
	WeightedAverage float64       `json:"weightedAverage"`
	Consistency     float64       `json:"consistency"`
	FinalMax        float64       `json:"finalMax"`
	Optimistic      float64       `json:"optimistic"`
	Realistic       float64       `json:"realistic"`
	Pessimistic     float64       `json:"pessimistic"`
}

// Predict turns a composite score into optimistic, realistic and pessimistic
// final-exam marks, each clamped to [0, finalMax] and rounded to 2 decimals.
func Predict(perf Performance, finalMax float64) (Prediction, error) {
	if perf.WeightedAverage == nil {
		return Prediction{}, ErrInsufficientData
	}
	if finalMax <= 0 {
		return Prediction{}, fmt.Errorf("invalid final exam maximum %.2f", finalMax)
	}

	base := *perf.WeightedAverage / 100 * finalMax
	return Prediction{
		WeightedAverage: *perf.WeightedAverage,
		Consistency:     perf.Consistency,
		FinalMax:        finalMax,
		Optimistic:      clampRound(base*optimisticFactor, finalMax),
		Realistic:       clampRound(base*perf.Consistency/100, finalMax),
		Pessimistic:     clampRound(base*pessimisticFactor, finalMax),
	}, nil
}

// PredictCourse scores and predicts one course.
func PredictCourse(rec *models.CourseRecords, scale GradingScale) (Prediction, error) {
	p, err := Predict(ScoreRecords(rec, scale), scale.FinalMax)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict %s: %w", rec.Course.Name, err)
	}
	p.Course = rec.Course
	return p, nil
}

// PredictAll predicts every course that has graded work. It returns
// ErrInsufficientData when none does.
func PredictAll(records []*models.CourseRecords, scale GradingScale) ([]Prediction, error) {
	var out []Prediction
	for _, rec := range records {
		if !rec.HasGradedWork() {
			continue
		}
		p, err := PredictCourse(rec, scale)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, ErrInsufficientData
	}
	return out, nil
}

func clampRound(v, hi float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > hi {
		v = hi
	}
	return Round2(v)
}
