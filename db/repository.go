package db

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/maruel/natural"

	"academic-advisor-go/models"
)

// ErrUnavailable marks infrastructure failures of a record store.
// Absent rows are never reported through it.
var ErrUnavailable = errors.New("record store unavailable")

// Repository is the read-only view of academic records used by the advisor.
// Every read is idempotent and may be retried independently.
type Repository interface {
	// GetCatalog returns all courses in catalog (insertion) order.
	GetCatalog(ctx context.Context) ([]models.Course, error)
	// GetStudent returns nil, nil when the student is unknown.
	GetStudent(ctx context.Context, studentID string) (*models.Student, error)
	GetQuizItems(ctx context.Context, studentID, courseID string) ([]models.AssessmentItem, error)
	GetAssignmentItems(ctx context.Context, studentID, courseID string) ([]models.AssessmentItem, error)
	// GetAttendance returns nil, nil when no attendance record exists.
	GetAttendance(ctx context.Context, studentID, courseID string) (*models.AttendanceRecord, error)
	// GetMidterm returns nil, nil when the midterm is not graded yet.
	GetMidterm(ctx context.Context, studentID, courseID string) (*float64, error)
}

// RecordWriter loads records into a store. Used by seeding and workbook import only.
type RecordWriter interface {
	AddCourse(ctx context.Context, course models.Course) error
	AddStudent(ctx context.Context, student models.Student) error
	AddQuizItem(ctx context.Context, studentID, courseID string, item models.AssessmentItem) error
	AddAssignmentItem(ctx context.Context, studentID, courseID string, item models.AssessmentItem) error
	SetAttendance(ctx context.Context, studentID, courseID string, rec models.AttendanceRecord) error
	SetMidterm(ctx context.Context, studentID, courseID string, marks float64) error
}

// Store is a record store that can be both read and loaded.
type Store interface {
	Repository
	RecordWriter
	Close() error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func validateCourse(course models.Course) error {
	if course.ID == "" || course.Name == "" {
		return errors.New("course ID and Name cannot be empty")
	}
	return nil
}

func validateStudent(student models.Student) error {
	if student.ID == "" || student.Name == "" {
		return errors.New("student ID and Name cannot be empty")
	}
	return nil
}

func validateAttendance(rec models.AttendanceRecord) error {
	if rec.ClassesAttended < 0 || rec.TotalClasses < 0 {
		return errors.New("attendance counts cannot be negative")
	}
	if rec.ClassesAttended > rec.TotalClasses {
		return fmt.Errorf("classes attended (%d) exceeds total classes (%d)", rec.ClassesAttended, rec.TotalClasses)
	}
	return nil
}

// sortItems orders items by name, comparing digit runs as numbers so that
// "Quiz 2" comes before "Quiz 10".
func sortItems(items []models.AssessmentItem) {
	sort.SliceStable(items, func(i, j int) bool { return natural.Less(items[i].Name, items[j].Name) })
}
