package analytics

import "academic-advisor-go/models"

// Component weights of the composite score. Missing components are dropped
// and the remaining weights renormalized.
const (
	QuizWeight       = 0.20
	AssignmentWeight = 0.30
	MidtermWeight    = 0.50
)

// ComponentScore describes the item percentages of one component.
type ComponentScore struct {
	Average     float64 `json:"average"`
	Consistency float64 `json:"consistency"`
	Count       int     `json:"count"`
}

// Performance is the scorer's output. Nil fields mean the component has no data.
type Performance struct {
	Quiz            *ComponentScore `json:"quiz,omitempty"`
	Assignment      *ComponentScore `json:"assignment,omitempty"`
	Midterm         *float64        `json:"midterm,omitempty"`
	WeightedAverage *float64        `json:"weightedAverage,omitempty"`
	// Consistency is the mean of the present component consistencies,
	// 100 when only the midterm is graded.
	Consistency float64 `json:"consistency"`
}

// ItemPercentages converts items with a positive maximum into percentages.
func ItemPercentages(items []models.AssessmentItem) []float64 {
	out := make([]float64, 0, len(items))
	for _, it := range items {
		if it.HasData() {
			out = append(out, it.MarksObtained/it.MaxMarks*100)
		}
	}
	return out
}

// ScoreComponent returns nil for an empty list.
func ScoreComponent(pcts []float64) *ComponentScore {
	if len(pcts) == 0 {
		return nil
	}
	return &ComponentScore{
		Average:     Round2(mean(pcts)),
		Consistency: Round2(Consistency(pcts)),
		Count:       len(pcts),
	}
}

// Consistency is max(0, 100 - variance/10) over the population variance of pcts.
// The result is always within [0, 100].
func Consistency(pcts []float64) float64 {
	if len(pcts) == 0 {
		return 100
	}
	m := mean(pcts)
	var variance float64
	for _, p := range pcts {
		variance += (p - m) * (p - m)
	}
	variance /= float64(len(pcts))

	c := 100 - variance/10
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// Score combines per-item percentages and the midterm percentage.
func Score(quizPcts, assignmentPcts []float64, midtermPct *float64) Performance {
	p := Performance{
		Quiz:       ScoreComponent(quizPcts),
		Assignment: ScoreComponent(assignmentPcts),
	}
	if midtermPct != nil {
		v := Round2(*midtermPct)
		p.Midterm = &v
	}

	var sum, weights float64
	var consistencies []float64
	if p.Quiz != nil {
		sum += p.Quiz.Average * QuizWeight
		weights += QuizWeight
		consistencies = append(consistencies, p.Quiz.Consistency)
	}
	if p.Assignment != nil {
		sum += p.Assignment.Average * AssignmentWeight
		weights += AssignmentWeight
		consistencies = append(consistencies, p.Assignment.Consistency)
	}
	if p.Midterm != nil {
		sum += *p.Midterm * MidtermWeight
		weights += MidtermWeight
	}
	if weights > 0 {
		wa := Round2(sum / weights)
		p.WeightedAverage = &wa
	}

	p.Consistency = 100
	if len(consistencies) > 0 {
		p.Consistency = Round2(mean(consistencies))
	}
	return p
}

// ScoreRecords scores the raw rows of one course.
func ScoreRecords(rec *models.CourseRecords, scale GradingScale) Performance {
	var midtermPct *float64
	if rec.Midterm != nil && scale.MidtermMax > 0 {
		v := *rec.Midterm / scale.MidtermMax * 100
		midtermPct = &v
	}
	return Score(ItemPercentages(rec.Quizzes), ItemPercentages(rec.Assignments), midtermPct)
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
