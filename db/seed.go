package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"academic-advisor-go/models"
)

// DemoStudentID is the seeded student with complete records.
const DemoStudentID = "1"

var demoCourses = []models.Course{
	{ID: "1", Name: "Calculus"},
	{ID: "2", Name: "Functional English"},
	{ID: "3", Name: "Physics"},
	{ID: "4", Name: "Programming"},
	{ID: "5", Name: "Data Structures"},
	{ID: "6", Name: "Operating Systems"},
	{ID: "7", Name: "Linear Algebra"},
	{ID: "8", Name: "Economics"},
}

// SeedDemoData loads a small catalog and two students: one on track in the
// first four courses and one at risk in Calculus and Physics.
func SeedDemoData(ctx context.Context, w RecordWriter) error {
	log.Info().Msg("seeding demo data")

	for _, c := range demoCourses {
		if err := w.AddCourse(ctx, c); err != nil {
			return fmt.Errorf("seed course %s: %w", c.Name, err)
		}
	}

	students := []models.Student{
		{ID: DemoStudentID, Name: "Test Student", RegistrationNo: "2021-CS-001", Semester: 7, Department: "CS"},
		{ID: "2", Name: "Alice Khan", RegistrationNo: "2021-CS-002", Semester: 7, Department: "CS"},
	}
	for _, s := range students {
		if err := w.AddStudent(ctx, s); err != nil {
			return fmt.Errorf("seed student %s: %w", s.ID, err)
		}
	}

	onTrack := studentMarks{
		quizzes:     []float64{2.0, 2.3, 1.8, 2.2},
		assignments: []float64{4.0, 4.5, 3.8, 4.2},
		midterm:     15,
	}
	attendance := []int{28, 25, 27, 29}
	for i, c := range demoCourses[:4] {
		if err := onTrack.load(ctx, w, DemoStudentID, c.ID); err != nil {
			return err
		}
		rec := models.AttendanceRecord{ClassesAttended: attendance[i], TotalClasses: 30}
		if err := w.SetAttendance(ctx, DemoStudentID, c.ID, rec); err != nil {
			return fmt.Errorf("seed attendance: %w", err)
		}
	}

	atRisk := map[string]struct {
		marks    studentMarks
		attended int
	}{
		"1": {studentMarks{quizzes: []float64{1.0, 1.5, 0.8, 1.2}, assignments: []float64{2.5, 3.0, 2.0, 3.5}, midterm: 8}, 20},
		"3": {studentMarks{quizzes: []float64{2.4, 2.5, 2.3, 2.4}, assignments: []float64{2.8, 2.6, 3.0, 2.9}, midterm: 11}, 26},
		"4": {studentMarks{quizzes: []float64{2.5, 2.4, 2.5, 2.3}, assignments: []float64{4.8, 4.9, 4.6, 5.0}, midterm: 18}, 30},
	}
	for courseID, r := range atRisk {
		if err := r.marks.load(ctx, w, "2", courseID); err != nil {
			return err
		}
		rec := models.AttendanceRecord{ClassesAttended: r.attended, TotalClasses: 30}
		if err := w.SetAttendance(ctx, "2", courseID, rec); err != nil {
			return fmt.Errorf("seed attendance: %w", err)
		}
	}

	log.Info().Int("courses", len(demoCourses)).Int("students", len(students)).Msg("demo data seeded")
	return nil
}

type studentMarks struct {
	quizzes     []float64 // out of 2.5 each
	assignments []float64 // out of 5 each
	midterm     float64   // out of 20
}

func (m studentMarks) load(ctx context.Context, w RecordWriter, studentID, courseID string) error {
	for i, v := range m.quizzes {
		item := models.AssessmentItem{Name: fmt.Sprintf("Quiz %d", i+1), MarksObtained: v, MaxMarks: 2.5}
		if err := w.AddQuizItem(ctx, studentID, courseID, item); err != nil {
			return fmt.Errorf("seed quiz: %w", err)
		}
	}
	for i, v := range m.assignments {
		item := models.AssessmentItem{Name: fmt.Sprintf("Assignment %d", i+1), MarksObtained: v, MaxMarks: 5}
		if err := w.AddAssignmentItem(ctx, studentID, courseID, item); err != nil {
			return fmt.Errorf("seed assignment: %w", err)
		}
	}
	if err := w.SetMidterm(ctx, studentID, courseID, m.midterm); err != nil {
		return fmt.Errorf("seed midterm: %w", err)
	}
	return nil
}
