package analytics

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academic-advisor-go/db"
	"academic-advisor-go/models"
)

func items(prefix string, maxMarks float64, marks ...float64) []models.AssessmentItem {
	out := make([]models.AssessmentItem, len(marks))
	for i, m := range marks {
		out[i] = models.AssessmentItem{Name: prefix + string(rune('1'+i)), MarksObtained: m, MaxMarks: maxMarks}
	}
	return out
}

func ptr(v float64) *float64 { return &v }

// scenarioA is the 4 quizzes / 4 assignments / midterm 15 record set.
func scenarioA() *models.CourseRecords {
	return &models.CourseRecords{
		StudentID:   "1",
		Course:      models.Course{ID: "1", Name: "Calculus"},
		Quizzes:     items("Quiz ", 2.5, 2.0, 2.3, 1.8, 2.2),
		Assignments: items("Assignment ", 5, 4.0, 4.5, 3.8, 4.2),
		Midterm:     ptr(15),
	}
}

func TestSummarize_ScenarioA(t *testing.T) {
	s := Summarize(scenarioA(), DefaultScale())

	assert.InDelta(t, 8.3, s.Quizzes.Total, 1e-9)
	assert.InDelta(t, 10, s.Quizzes.Max, 1e-9)
	assert.InDelta(t, 83.0, s.Quizzes.Percentage, 1e-9)
	assert.InDelta(t, 16.5, s.Assignments.Total, 1e-9)
	assert.InDelta(t, 20, s.Assignments.Max, 1e-9)
	assert.InDelta(t, 82.5, s.Assignments.Percentage, 1e-9)
	require.NotNil(t, s.Midterm)
	assert.InDelta(t, 75.0, s.Midterm.Percentage, 1e-9)
	assert.InDelta(t, 39.8, s.CurrentTotal, 1e-9)
	assert.InDelta(t, 50, s.CurrentMax, 1e-9)
	assert.InDelta(t, 79.6, s.CurrentPercentage, 1e-9)
	assert.Nil(t, s.Attendance)

	require.Len(t, s.Quizzes.Items, 4)
	assert.InDelta(t, 92.0, s.Quizzes.Items[1].Percentage, 1e-9)
}

func TestSummarize_ItemCountIsNotFixed(t *testing.T) {
	rec := &models.CourseRecords{
		Course:  models.Course{ID: "1", Name: "Physics"},
		Quizzes: items("Quiz ", 2.5, 2.5, 2.5, 2.5, 2.5, 2.5, 2.5),
	}
	s := Summarize(rec, DefaultScale())
	assert.InDelta(t, 15, s.Quizzes.Total, 1e-9)
	assert.InDelta(t, 15, s.Quizzes.Max, 1e-9)
	assert.InDelta(t, 100, s.Quizzes.Percentage, 1e-9)
	// midterm maximum still counts towards the current maximum
	assert.InDelta(t, 35, s.CurrentMax, 1e-9)
	assert.Nil(t, s.Midterm)
}

func TestSummarize_ZeroMaxItemIsNoData(t *testing.T) {
	rec := &models.CourseRecords{
		Course:  models.Course{ID: "1", Name: "Physics"},
		Quizzes: []models.AssessmentItem{{Name: "Quiz 1", MarksObtained: 2, MaxMarks: 0}},
	}
	s := Summarize(rec, DefaultScale())
	assert.False(t, s.Quizzes.HasData())
	assert.Equal(t, 0.0, s.Quizzes.Percentage)
	require.Len(t, s.Quizzes.Items, 1)
	assert.Equal(t, 0.0, s.Quizzes.Items[0].Percentage)
}

func TestSummarize_Attendance(t *testing.T) {
	tests := []struct {
		name     string
		attended int
		total    int
		want     float64
	}{
		{"scenario B", 25, 30, 83.33},
		{"scenario C", 20, 30, 66.67},
		{"perfect", 30, 30, 100},
		{"no classes held", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &models.CourseRecords{
				Course:     models.Course{ID: "1", Name: "Physics"},
				Attendance: &models.AttendanceRecord{ClassesAttended: tt.attended, TotalClasses: tt.total},
			}
			s := Summarize(rec, DefaultScale())
			require.NotNil(t, s.Attendance)
			assert.InDelta(t, tt.want, s.Attendance.Percentage, 1e-9)
		})
	}
}

func TestAttendancePercentageRange(t *testing.T) {
	for total := 1; total <= 60; total++ {
		for attended := 0; attended <= total; attended++ {
			pct := Percentage(float64(attended), float64(total))
			assert.GreaterOrEqual(t, pct, 0.0)
			assert.LessOrEqual(t, pct, 100.0)
			assert.Equal(t, math.Round(float64(attended)/float64(total)*100*100)/100, pct)
		}
	}
}

func TestScore_ScenarioA(t *testing.T) {
	p := ScoreRecords(scenarioA(), DefaultScale())

	require.NotNil(t, p.Quiz)
	require.NotNil(t, p.Assignment)
	require.NotNil(t, p.Midterm)
	require.NotNil(t, p.WeightedAverage)

	assert.InDelta(t, 83.0, p.Quiz.Average, 1e-9)
	assert.InDelta(t, 94.1, p.Quiz.Consistency, 1e-9)
	assert.Equal(t, 4, p.Quiz.Count)
	assert.InDelta(t, 82.5, p.Assignment.Average, 1e-9)
	assert.InDelta(t, 97.33, p.Assignment.Consistency, 0.011)
	assert.InDelta(t, 75.0, *p.Midterm, 1e-9)
	assert.InDelta(t, 78.85, *p.WeightedAverage, 1e-9)
}

func TestScore_EmptyComponentsAreAbsent(t *testing.T) {
	p := Score(nil, []float64{}, nil)
	assert.Nil(t, p.Quiz)
	assert.Nil(t, p.Assignment)
	assert.Nil(t, p.WeightedAverage)
}

func TestScore_RenormalizesWeights(t *testing.T) {
	t.Run("midterm only", func(t *testing.T) {
		p := Score(nil, nil, ptr(60))
		require.NotNil(t, p.WeightedAverage)
		assert.InDelta(t, 60, *p.WeightedAverage, 1e-9)
		assert.Equal(t, 100.0, p.Consistency)
	})
	t.Run("quiz and assignment", func(t *testing.T) {
		p := Score([]float64{100}, []float64{50}, nil)
		require.NotNil(t, p.WeightedAverage)
		// (100*0.2 + 50*0.3) / 0.5
		assert.InDelta(t, 70, *p.WeightedAverage, 1e-9)
	})
}

func TestConsistencyRange(t *testing.T) {
	lists := [][]float64{
		{},
		{50},
		{0, 100},
		{0, 100, 0, 100},
		{-500, 900, 12},
		{80, 80, 80},
		{1e6, -1e6},
	}
	for _, l := range lists {
		c := Consistency(l)
		assert.GreaterOrEqual(t, c, 0.0, "list %v", l)
		assert.LessOrEqual(t, c, 100.0, "list %v", l)
	}
	assert.Equal(t, 100.0, Consistency([]float64{80, 80, 80}))
	assert.Equal(t, 0.0, Consistency([]float64{0, 100}))
}

func TestPredict(t *testing.T) {
	p, err := Predict(ScoreRecords(scenarioA(), DefaultScale()), 50)
	require.NoError(t, err)

	assert.InDelta(t, 45.34, p.Optimistic, 0.011)
	assert.InDelta(t, 33.51, p.Pessimistic, 0.011)
	assert.InDelta(t, 78.85/100*50*p.Consistency/100, p.Realistic, 0.011)
	assert.LessOrEqual(t, p.Realistic, p.Optimistic)
}

func TestPredict_ClampsToFinalMax(t *testing.T) {
	wa := 100.0
	p, err := Predict(Performance{WeightedAverage: &wa, Consistency: 100}, 50)
	require.NoError(t, err)
	assert.Equal(t, 50.0, p.Optimistic)
	assert.Equal(t, 50.0, p.Realistic)
	assert.Equal(t, 42.5, p.Pessimistic)
}

func TestPredict_InsufficientData(t *testing.T) {
	_, err := Predict(Performance{}, 50)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = PredictAll([]*models.CourseRecords{
		{Course: models.Course{ID: "1", Name: "Calculus"}},
		{Course: models.Course{ID: "2", Name: "Physics"}, Attendance: &models.AttendanceRecord{ClassesAttended: 3, TotalClasses: 4}},
	}, DefaultScale())
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestPredictAll_SkipsCoursesWithoutMarks(t *testing.T) {
	preds, err := PredictAll([]*models.CourseRecords{
		{Course: models.Course{ID: "1", Name: "Calculus"}},
		scenarioA(),
	}, DefaultScale())
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, "Calculus", preds[0].Course.Name)
}

func TestAnalyzeCourse_ScenarioC(t *testing.T) {
	rec := scenarioA()
	rec.Attendance = &models.AttendanceRecord{ClassesAttended: 20, TotalClasses: 30}

	a := AnalyzeCourse(rec, DefaultScale())
	assert.Equal(t, RiskHigh, a.RiskLevel)
	assert.Equal(t, RiskHigh, a.Priority)
	require.NotEmpty(t, a.Issues)
	assert.Equal(t, IssueAttendance, a.Issues[0].Kind)
	assert.Contains(t, a.Issues[0].Message, "66.67")
	// 5 base + 3 attendance, floored at 10 for high risk
	assert.Equal(t, 10, a.RecommendedHours)
}

func TestAnalyzeCourse_ScenarioB(t *testing.T) {
	rec := scenarioA()
	rec.Attendance = &models.AttendanceRecord{ClassesAttended: 25, TotalClasses: 30}

	a := AnalyzeCourse(rec, DefaultScale())
	assert.Equal(t, RiskLow, a.RiskLevel)
	assert.Empty(t, a.Issues)
	assert.Equal(t, 5, a.RecommendedHours)
	require.NotEmpty(t, a.Strengths)
	assert.Equal(t, "Good attendance (83.33%)", a.Strengths[0].Message)
}

func TestAnalyzeCourse_NeverDowngrades(t *testing.T) {
	// Low attendance raises to high; a poor assignment score only asks for medium.
	rec := &models.CourseRecords{
		Course:      models.Course{ID: "1", Name: "Physics"},
		Attendance:  &models.AttendanceRecord{ClassesAttended: 10, TotalClasses: 30},
		Assignments: items("Assignment ", 5, 1, 1, 1, 1),
		Midterm:     ptr(11), // 55%: below average, medium
	}
	a := AnalyzeCourse(rec, DefaultScale())
	assert.Equal(t, RiskHigh, a.RiskLevel)
	// 5 + 3 + 2 + 3
	assert.Equal(t, 13, a.RecommendedHours)
	assert.Len(t, a.Issues, 3)
}

func TestAnalyzeCourse_MediumFloor(t *testing.T) {
	rec := &models.CourseRecords{
		Course:      models.Course{ID: "1", Name: "Physics"},
		Assignments: items("Assignment ", 5, 2, 2),
	}
	a := AnalyzeCourse(rec, DefaultScale())
	assert.Equal(t, RiskMedium, a.RiskLevel)
	assert.Equal(t, 7, a.RecommendedHours)
}

func TestAnalyzeCourse_FailedMidterm(t *testing.T) {
	rec := &models.CourseRecords{
		Course:  models.Course{ID: "1", Name: "Physics"},
		Midterm: ptr(0), // graded zero is a failure, not missing data
	}
	a := AnalyzeCourse(rec, DefaultScale())
	assert.Equal(t, RiskHigh, a.RiskLevel)
	require.Len(t, a.Issues, 1)
	assert.Equal(t, "Failed midterm (0%)", a.Issues[0].Message)
	assert.Equal(t, 10, a.RecommendedHours)
}

func TestAnalyzeCourse_NoClassesHeldIsLowAttendance(t *testing.T) {
	rec := &models.CourseRecords{
		Course:     models.Course{ID: "1", Name: "Physics"},
		Attendance: &models.AttendanceRecord{ClassesAttended: 0, TotalClasses: 0},
	}
	a := AnalyzeCourse(rec, DefaultScale())
	assert.Equal(t, RiskHigh, a.RiskLevel)
	require.NotNil(t, a.AttendancePercentage)
	assert.Equal(t, 0.0, *a.AttendancePercentage)
	require.Len(t, a.Issues, 1)
	assert.Equal(t, IssueAttendance, a.Issues[0].Kind)
	assert.Equal(t, "Low attendance (0% < 75%)", a.Issues[0].Message)
	assert.Equal(t, 10, a.RecommendedHours)
}

func TestAnalyzeCourse_NoDataIsLowRisk(t *testing.T) {
	a := AnalyzeCourse(&models.CourseRecords{Course: models.Course{ID: "1", Name: "Economics"}}, DefaultScale())
	assert.Equal(t, RiskLow, a.RiskLevel)
	assert.Equal(t, 5, a.RecommendedHours)
	assert.Nil(t, a.AttendancePercentage)
	assert.Nil(t, a.QuizPercentage)
}

func TestRiskLevelMonotonic(t *testing.T) {
	a := CourseAnalysis{}
	for _, step := range []RiskLevel{RiskMedium, RiskHigh, RiskLow, RiskMedium} {
		before := a.RiskLevel
		a.escalate(step)
		assert.GreaterOrEqual(t, a.RiskLevel, before)
	}
	assert.Equal(t, RiskHigh, a.RiskLevel)
}

func TestPlanSuggestions(t *testing.T) {
	good := scenarioA()
	good.Attendance = &models.AttendanceRecord{ClassesAttended: 28, TotalClasses: 30}

	weak := &models.CourseRecords{
		Course:      models.Course{ID: "3", Name: "Physics"},
		Attendance:  &models.AttendanceRecord{ClassesAttended: 18, TotalClasses: 30},
		Quizzes:     items("Quiz ", 2.5, 1, 1, 1, 1),
		Assignments: items("Assignment ", 5, 2, 2, 2, 2),
	}
	medium := &models.CourseRecords{
		Course:      models.Course{ID: "2", Name: "Economics"},
		Assignments: items("Assignment ", 5, 2, 2),
	}

	analyses := AnalyzeAll([]*models.CourseRecords{good, medium, weak}, DefaultScale())
	got := PlanSuggestions(analyses)
	assert.Equal(t, []string{
		"Attend more classes in **Physics**",
		"Improve quiz preparation for **Physics**",
		"Focus on assignments in **Physics**",
		"Focus on assignments in **Economics**",
	}, got)

	assert.Equal(t, []string{OnTrackMessage}, PlanSuggestions(AnalyzeAll([]*models.CourseRecords{good}, DefaultScale())))
	assert.Equal(t, []string{OnTrackMessage}, PlanSuggestions(nil))
}

func TestRiskLevelJSON(t *testing.T) {
	b, err := RiskHigh.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"high"`, string(b))
}

func TestFindCourse(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	require.NoError(t, store.AddCourse(ctx, models.Course{ID: "1", Name: "Calculus"}))
	require.NoError(t, store.AddCourse(ctx, models.Course{ID: "2", Name: "Linear Algebra"}))

	c, err := FindCourse(ctx, store, "linear algebra")
	require.NoError(t, err)
	assert.Equal(t, "2", c.ID)

	_, err = FindCourse(ctx, store, "Astronomy")
	assert.True(t, errors.Is(err, ErrCourseNotFound))
}

func TestLoadAllRecords(t *testing.T) {
	ctx := context.Background()
	store := db.NewMemoryStore()
	require.NoError(t, db.SeedDemoData(ctx, store))

	records, err := LoadAllRecords(ctx, store, db.DemoStudentID)
	require.NoError(t, err)
	require.Len(t, records, 8)
	assert.Equal(t, "Calculus", records[0].Course.Name)
	assert.Len(t, records[0].Quizzes, 4)
	assert.NotNil(t, records[0].Midterm)
	assert.False(t, records[7].HasGradedWork())

	s := Summarize(records[0], DefaultScale())
	assert.InDelta(t, 79.6, s.CurrentPercentage, 1e-9)
}
