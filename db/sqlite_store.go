package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"academic-advisor-go/models"
)

//go:embed schema.sql
var schemaSQL string

// Maxima assumed for rows of the legacy fixed-column marks layout.
const (
	legacyQuizMax       = 2.5
	legacyAssignmentMax = 5.0
)

// SQLiteStore serves academic records from a SQLite database.
// It reads the normalized per-item tables and falls back to the legacy
// quiz1..quiz4 / assignment1..assignment4 columns when a pair has no items.
type SQLiteStore struct {
	db          *sql.DB
	readRetries int
}

// OpenSQLiteStore opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLiteStore(path string, readRetries int) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialize pragmas: %w", err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if readRetries < 0 {
		readRetries = 0
	}
	log.Debug().Str("path", path).Msg("sqlite store ready")
	return &SQLiteStore{db: db, readRetries: readRetries}, nil
}

// DB exposes the underlying handle, mainly for loading legacy rows.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withRetry re-runs an idempotent read while SQLite reports a busy or locked database.
func (s *SQLiteStore) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= s.readRetries; attempt++ {
		if err = fn(); err == nil || !isBusy(err) {
			break
		}
		log.Debug().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("sqlite busy, retrying read")
		select {
		case <-ctx.Done():
			return unavailable(op, ctx.Err())
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		}
	}
	if err != nil {
		return unavailable(op, err)
	}
	return nil
}

func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code() & 0xff
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

// --- Repository ---

func (s *SQLiteStore) GetCatalog(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := s.withRetry(ctx, "get catalog", func() error {
		courses = courses[:0]
		rows, err := s.db.QueryContext(ctx, "SELECT course_id, course_name FROM courses ORDER BY rowid")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var c models.Course
			if err := rows.Scan(&c.ID, &c.Name); err != nil {
				return err
			}
			courses = append(courses, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (s *SQLiteStore) GetStudent(ctx context.Context, studentID string) (*models.Student, error) {
	var st *models.Student
	err := s.withRetry(ctx, "get student", func() error {
		var (
			reg, dept sql.NullString
			semester  sql.NullInt64
			found     models.Student
		)
		err := s.db.QueryRowContext(ctx, `
			SELECT student_id, name, registration_no, semester, department
			FROM students WHERE student_id = ?`, studentID).
			Scan(&found.ID, &found.Name, &reg, &semester, &dept)
		if errors.Is(err, sql.ErrNoRows) {
			st = nil
			return nil
		}
		if err != nil {
			return err
		}
		found.RegistrationNo = reg.String
		found.Semester = int(semester.Int64)
		found.Department = dept.String
		st = &found
		return nil
	})
	return st, err
}

func (s *SQLiteStore) GetQuizItems(ctx context.Context, studentID, courseID string) ([]models.AssessmentItem, error) {
	items, err := s.queryItems(ctx, "get quizzes", `
		SELECT quiz_name, marks_obtained, max_marks
		FROM quizzes
		WHERE student_id = ? AND course_id = ?
		ORDER BY quiz_name`, studentID, courseID)
	if err != nil || len(items) > 0 {
		return items, err
	}
	return s.legacyItems(ctx, studentID, courseID, "quiz", "Quiz", legacyQuizMax)
}

func (s *SQLiteStore) GetAssignmentItems(ctx context.Context, studentID, courseID string) ([]models.AssessmentItem, error) {
	items, err := s.queryItems(ctx, "get assignments", `
		SELECT assignment_name, marks_obtained, max_marks
		FROM assignments
		WHERE student_id = ? AND course_id = ?
		ORDER BY assignment_name`, studentID, courseID)
	if err != nil || len(items) > 0 {
		return items, err
	}
	return s.legacyItems(ctx, studentID, courseID, "assignment", "Assignment", legacyAssignmentMax)
}

func (s *SQLiteStore) queryItems(ctx context.Context, op, query, studentID, courseID string) ([]models.AssessmentItem, error) {
	var items []models.AssessmentItem
	err := s.withRetry(ctx, op, func() error {
		items = items[:0]
		rows, err := s.db.QueryContext(ctx, query, studentID, courseID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				name               string
				obtained, maxMarks sql.NullFloat64
			)
			if err := rows.Scan(&name, &obtained, &maxMarks); err != nil {
				return err
			}
			items = append(items, models.AssessmentItem{
				Name:          name,
				MarksObtained: obtained.Float64,
				MaxMarks:      maxMarks.Float64, // NULL max reads as 0, i.e. no data
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	sortItems(items)
	return items, nil
}

// legacyItems unpivots the prefix1..prefix4 columns of the marks table.
// NULL columns are skipped.
func (s *SQLiteStore) legacyItems(ctx context.Context, studentID, courseID, column, label string, maxMarks float64) ([]models.AssessmentItem, error) {
	query := fmt.Sprintf(`SELECT %[1]s1, %[1]s2, %[1]s3, %[1]s4 FROM marks WHERE student_id = ? AND course_id = ?`, column)

	var items []models.AssessmentItem
	err := s.withRetry(ctx, "get legacy "+column+" marks", func() error {
		items = nil
		var cols [4]sql.NullFloat64
		err := s.db.QueryRowContext(ctx, query, studentID, courseID).Scan(&cols[0], &cols[1], &cols[2], &cols[3])
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		for i, c := range cols {
			if !c.Valid {
				continue
			}
			items = append(items, models.AssessmentItem{
				Name:          fmt.Sprintf("%s %d", label, i+1),
				MarksObtained: c.Float64,
				MaxMarks:      maxMarks,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *SQLiteStore) GetAttendance(ctx context.Context, studentID, courseID string) (*models.AttendanceRecord, error) {
	var rec *models.AttendanceRecord
	err := s.withRetry(ctx, "get attendance", func() error {
		var r models.AttendanceRecord
		err := s.db.QueryRowContext(ctx, `
			SELECT classes_attended, total_classes
			FROM attendance
			WHERE student_id = ? AND course_id = ?`, studentID, courseID).
			Scan(&r.ClassesAttended, &r.TotalClasses)
		if errors.Is(err, sql.ErrNoRows) {
			rec = nil
			return nil
		}
		if err != nil {
			return err
		}
		rec = &r
		return nil
	})
	return rec, err
}

func (s *SQLiteStore) GetMidterm(ctx context.Context, studentID, courseID string) (*float64, error) {
	var mark *float64
	err := s.withRetry(ctx, "get midterm", func() error {
		var v sql.NullFloat64
		err := s.db.QueryRowContext(ctx, `
			SELECT midterm FROM marks
			WHERE student_id = ? AND course_id = ?`, studentID, courseID).Scan(&v)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && !v.Valid) {
			mark = nil
			return nil
		}
		if err != nil {
			return err
		}
		mark = &v.Float64
		return nil
	})
	return mark, err
}

// --- RecordWriter ---

func (s *SQLiteStore) AddCourse(ctx context.Context, course models.Course) error {
	if err := validateCourse(course); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO courses (course_id, course_name) VALUES (?, ?)
		ON CONFLICT (course_id) DO UPDATE SET course_name = excluded.course_name`,
		course.ID, course.Name)
	if err != nil {
		return fmt.Errorf("failed to add course %s: %w", course.ID, err)
	}
	return nil
}

func (s *SQLiteStore) AddStudent(ctx context.Context, student models.Student) error {
	if err := validateStudent(student); err != nil {
		return err
	}
	var reg interface{}
	if student.RegistrationNo != "" {
		reg = student.RegistrationNo
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO students (student_id, registration_no, name, semester, department)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (student_id) DO UPDATE SET
			registration_no = excluded.registration_no,
			name = excluded.name,
			semester = excluded.semester,
			department = excluded.department`,
		student.ID, reg, student.Name, student.Semester, student.Department)
	if err != nil {
		return fmt.Errorf("failed to add student %s: %w", student.ID, err)
	}
	return nil
}

func (s *SQLiteStore) AddQuizItem(ctx context.Context, studentID, courseID string, item models.AssessmentItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quizzes (student_id, course_id, quiz_name, marks_obtained, max_marks)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (student_id, course_id, quiz_name) DO UPDATE SET
			marks_obtained = excluded.marks_obtained,
			max_marks = excluded.max_marks`,
		studentID, courseID, item.Name, item.MarksObtained, item.MaxMarks)
	if err != nil {
		return fmt.Errorf("failed to add quiz %q: %w", item.Name, err)
	}
	return nil
}

func (s *SQLiteStore) AddAssignmentItem(ctx context.Context, studentID, courseID string, item models.AssessmentItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assignments (student_id, course_id, assignment_name, marks_obtained, max_marks)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (student_id, course_id, assignment_name) DO UPDATE SET
			marks_obtained = excluded.marks_obtained,
			max_marks = excluded.max_marks`,
		studentID, courseID, item.Name, item.MarksObtained, item.MaxMarks)
	if err != nil {
		return fmt.Errorf("failed to add assignment %q: %w", item.Name, err)
	}
	return nil
}

func (s *SQLiteStore) SetAttendance(ctx context.Context, studentID, courseID string, rec models.AttendanceRecord) error {
	if err := validateAttendance(rec); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance (student_id, course_id, classes_attended, total_classes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (student_id, course_id) DO UPDATE SET
			classes_attended = excluded.classes_attended,
			total_classes = excluded.total_classes`,
		studentID, courseID, rec.ClassesAttended, rec.TotalClasses)
	if err != nil {
		return fmt.Errorf("failed to set attendance: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetMidterm(ctx context.Context, studentID, courseID string, marks float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO marks (student_id, course_id, midterm) VALUES (?, ?, ?)
		ON CONFLICT (student_id, course_id) DO UPDATE SET midterm = excluded.midterm`,
		studentID, courseID, marks)
	if err != nil {
		return fmt.Errorf("failed to set midterm: %w", err)
	}
	return nil
}
