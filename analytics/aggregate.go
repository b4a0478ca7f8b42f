// Package analytics turns raw academic rows into the figures the advisor
// reports: current totals, performance and consistency, final-exam
// predictions and per-course risk.
//
// Everything here is recomputed per query and nothing is written back.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"academic-advisor-go/db"
	"academic-advisor-go/models"
)

var (
	// ErrCourseNotFound is returned when a course name is not in the catalog.
	ErrCourseNotFound = errors.New("course not found")
	// ErrInsufficientData is returned when there are no graded components to work from.
	ErrInsufficientData = errors.New("insufficient data")
)

// GradingScale holds the fixed maxima that do not come from item rows.
type GradingScale struct {
	MidtermMax float64 `json:"midtermMax"`
	FinalMax   float64 `json:"finalMax"`
}

// DefaultScale is the 20-mark midterm / 50-mark final convention.
func DefaultScale() GradingScale {
	return GradingScale{MidtermMax: 20, FinalMax: 50}
}

// ItemScore is one assessment item with its percentage.
type ItemScore struct {
	Name          string  `json:"name"`
	MarksObtained float64 `json:"marksObtained"`
	MaxMarks      float64 `json:"maxMarks"`
	Percentage    float64 `json:"percentage"`
}

// ComponentTotals sums the items of one component (quizzes or assignments).
// Max is the sum of item maxima, so it follows however many items exist.
type ComponentTotals struct {
	Items      []ItemScore `json:"items"`
	Total      float64     `json:"total"`
	Max        float64     `json:"max"`
	Percentage float64     `json:"percentage"`
}

// HasData reports whether at least one item with a positive maximum exists.
func (c ComponentTotals) HasData() bool {
	return c.Max > 0
}

// AttendanceSummary is the attendance row with its percentage.
type AttendanceSummary struct {
	ClassesAttended int     `json:"classesAttended"`
	TotalClasses    int     `json:"totalClasses"`
	Percentage      float64 `json:"percentage"`
}

// MidtermSummary is the graded midterm with its percentage.
type MidtermSummary struct {
	Marks      float64 `json:"marks"`
	Max        float64 `json:"max"`
	Percentage float64 `json:"percentage"`
}

// CourseSummary is the aggregated view of one student's standing in one course.
type CourseSummary struct {
	Course            models.Course      `json:"course"`
	Quizzes           ComponentTotals    `json:"quizzes"`
	Assignments       ComponentTotals    `json:"assignments"`
	Attendance        *AttendanceSummary `json:"attendance,omitempty"`
	Midterm           *MidtermSummary    `json:"midterm,omitempty"`
	CurrentTotal      float64            `json:"currentTotal"`
	CurrentMax        float64            `json:"currentMax"`
	CurrentPercentage float64            `json:"currentPercentage"`
}

// FindCourse looks up a catalog entry by name, ignoring case.
func FindCourse(ctx context.Context, repo db.Repository, name string) (models.Course, error) {
	catalog, err := repo.GetCatalog(ctx)
	if err != nil {
		return models.Course{}, err
	}
	want := strings.TrimSpace(name)
	for _, c := range catalog {
		if strings.EqualFold(c.Name, want) {
			return c, nil
		}
	}
	return models.Course{}, fmt.Errorf("%w: %q", ErrCourseNotFound, name)
}

// LoadCourseRecords reads every raw row of one (student, course) pair.
func LoadCourseRecords(ctx context.Context, repo db.Repository, studentID string, course models.Course) (*models.CourseRecords, error) {
	quizzes, err := repo.GetQuizItems(ctx, studentID, course.ID)
	if err != nil {
		return nil, err
	}
	assignments, err := repo.GetAssignmentItems(ctx, studentID, course.ID)
	if err != nil {
		return nil, err
	}
	attendance, err := repo.GetAttendance(ctx, studentID, course.ID)
	if err != nil {
		return nil, err
	}
	midterm, err := repo.GetMidterm(ctx, studentID, course.ID)
	if err != nil {
		return nil, err
	}
	return &models.CourseRecords{
		StudentID:   studentID,
		Course:      course,
		Quizzes:     quizzes,
		Assignments: assignments,
		Attendance:  attendance,
		Midterm:     midterm,
	}, nil
}

// LoadAllRecords reads the records of every catalog course, in catalog order.
func LoadAllRecords(ctx context.Context, repo db.Repository, studentID string) ([]*models.CourseRecords, error) {
	catalog, err := repo.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.CourseRecords, 0, len(catalog))
	for _, c := range catalog {
		rec, err := LoadCourseRecords(ctx, repo, studentID, c)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Summarize aggregates the raw rows of one course.
func Summarize(rec *models.CourseRecords, scale GradingScale) CourseSummary {
	s := CourseSummary{
		Course:      rec.Course,
		Quizzes:     totals(rec.Quizzes),
		Assignments: totals(rec.Assignments),
	}

	if rec.Attendance != nil {
		s.Attendance = &AttendanceSummary{
			ClassesAttended: rec.Attendance.ClassesAttended,
			TotalClasses:    rec.Attendance.TotalClasses,
			Percentage:      Percentage(float64(rec.Attendance.ClassesAttended), float64(rec.Attendance.TotalClasses)),
		}
	}

	midtermMarks := 0.0
	if rec.Midterm != nil {
		midtermMarks = *rec.Midterm
		s.Midterm = &MidtermSummary{
			Marks:      Round2(midtermMarks),
			Max:        scale.MidtermMax,
			Percentage: Percentage(midtermMarks, scale.MidtermMax),
		}
	}

	current := s.Quizzes.Total + s.Assignments.Total + midtermMarks
	s.CurrentTotal = Round2(current)
	s.CurrentMax = Round2(s.Quizzes.Max + s.Assignments.Max + scale.MidtermMax)
	s.CurrentPercentage = Percentage(current, s.CurrentMax)
	return s
}

func totals(items []models.AssessmentItem) ComponentTotals {
	t := ComponentTotals{Items: make([]ItemScore, 0, len(items))}
	var total, maxSum float64
	for _, it := range items {
		t.Items = append(t.Items, ItemScore{
			Name:          it.Name,
			MarksObtained: it.MarksObtained,
			MaxMarks:      it.MaxMarks,
			Percentage:    Percentage(it.MarksObtained, it.MaxMarks),
		})
		if !it.HasData() {
			continue
		}
		total += it.MarksObtained
		maxSum += it.MaxMarks
	}
	t.Total = Round2(total)
	t.Max = Round2(maxSum)
	t.Percentage = Percentage(total, maxSum)
	return t
}

// Percentage returns obtained/max*100 rounded to 2 decimals, or 0 when max is not positive.
func Percentage(obtained, maximum float64) float64 {
	if maximum <= 0 {
		return 0
	}
	return Round2(obtained / maximum * 100)
}

// Round2 rounds half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
