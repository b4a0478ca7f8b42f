package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"academic-advisor-go/models"
)

// Sheet names recognised by ImportWorkbook. Every sheet is optional and the
// first row of each is a header.
const (
	SheetCourses     = "Courses"     // ID | Name
	SheetStudents    = "Students"    // ID | Name | RegistrationNo | Semester | Department
	SheetQuizzes     = "Quizzes"     // StudentID | CourseID | Name | Obtained | Max
	SheetAssignments = "Assignments" // StudentID | CourseID | Name | Obtained | Max
	SheetAttendance  = "Attendance"  // StudentID | CourseID | Attended | Total
	SheetMidterms    = "Midterms"    // StudentID | CourseID | Midterm
)

// errNotGraded marks a midterm row left blank on purpose.
var errNotGraded = errors.New("midterm not graded")

// ImportReport counts what an import stored and skipped
type ImportReport struct {
	Courses     int `json:"courses"`
	Students    int `json:"students"`
	Quizzes     int `json:"quizzes"`
	Assignments int `json:"assignments"`
	Attendance  int `json:"attendance"`
	Midterms    int `json:"midterms"`
	Skipped     int `json:"skipped"`
}

// ImportWorkbook reads an Excel workbook stream and loads its records into w.
// Malformed rows are logged and skipped; only an unreadable workbook fails the import.
func ImportWorkbook(ctx context.Context, file io.Reader, w RecordWriter) (*ImportReport, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing excel file")
		}
	}()

	sheets := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		sheets[name] = true
	}

	report := &ImportReport{}
	steps := []struct {
		sheet string
		count *int
		load  func(row []string) error
	}{
		// Courses and students first so later sheets can refer to them.
		{SheetCourses, &report.Courses, func(row []string) error {
			return w.AddCourse(ctx, models.Course{ID: cell(row, 0), Name: cell(row, 1)})
		}},
		{SheetStudents, &report.Students, func(row []string) error {
			semester, _ := strconv.Atoi(cell(row, 3))
			return w.AddStudent(ctx, models.Student{
				ID:             cell(row, 0),
				Name:           cell(row, 1),
				RegistrationNo: cell(row, 2),
				Semester:       semester,
				Department:     cell(row, 4),
			})
		}},
		{SheetQuizzes, &report.Quizzes, func(row []string) error {
			sid, cid, item, err := parseItemRow(row)
			if err != nil {
				return err
			}
			return w.AddQuizItem(ctx, sid, cid, item)
		}},
		{SheetAssignments, &report.Assignments, func(row []string) error {
			sid, cid, item, err := parseItemRow(row)
			if err != nil {
				return err
			}
			return w.AddAssignmentItem(ctx, sid, cid, item)
		}},
		{SheetAttendance, &report.Attendance, func(row []string) error {
			sid, cid, err := parsePair(row)
			if err != nil {
				return err
			}
			attended, err1 := strconv.Atoi(cell(row, 2))
			total, err2 := strconv.Atoi(cell(row, 3))
			if err := errors.Join(err1, err2); err != nil {
				return fmt.Errorf("invalid attendance counts: %w", err)
			}
			return w.SetAttendance(ctx, sid, cid, models.AttendanceRecord{ClassesAttended: attended, TotalClasses: total})
		}},
		{SheetMidterms, &report.Midterms, func(row []string) error {
			sid, cid, err := parsePair(row)
			if err != nil {
				return err
			}
			raw := cell(row, 2)
			if raw == "" {
				return errNotGraded
			}
			marks, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("invalid midterm %q: %w", raw, err)
			}
			return w.SetMidterm(ctx, sid, cid, marks)
		}},
	}

	for _, step := range steps {
		if !sheets[step.sheet] {
			continue
		}
		rows, err := f.GetRows(step.sheet)
		if err != nil {
			return report, fmt.Errorf("failed to get rows from sheet %s: %w", step.sheet, err)
		}
		for i, row := range rows {
			if i == 0 || isBlankRow(row) {
				continue // Skip header and empty rows
			}
			if err := step.load(row); err != nil {
				if errors.Is(err, errNotGraded) {
					continue
				}
				log.Warn().Err(err).Str("sheet", step.sheet).Int("row", i+1).Msg("skipping row")
				report.Skipped++
				continue
			}
			*step.count++
		}
	}

	log.Info().
		Int("courses", report.Courses).
		Int("students", report.Students).
		Int("quizzes", report.Quizzes).
		Int("assignments", report.Assignments).
		Int("attendance", report.Attendance).
		Int("midterms", report.Midterms).
		Int("skipped", report.Skipped).
		Msg("workbook imported")
	return report, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parsePair(row []string) (string, string, error) {
	sid, cid := cell(row, 0), cell(row, 1)
	if sid == "" || cid == "" {
		return "", "", errors.New("missing student or course ID")
	}
	return sid, cid, nil
}

func parseItemRow(row []string) (string, string, models.AssessmentItem, error) {
	sid, cid, err := parsePair(row)
	if err != nil {
		return "", "", models.AssessmentItem{}, err
	}
	name := cell(row, 2)
	if name == "" {
		return "", "", models.AssessmentItem{}, errors.New("missing item name")
	}
	obtained, err1 := strconv.ParseFloat(cell(row, 3), 64)
	maxMarks, err2 := strconv.ParseFloat(cell(row, 4), 64)
	if err := errors.Join(err1, err2); err != nil {
		return "", "", models.AssessmentItem{}, fmt.Errorf("invalid marks for %q: %w", name, err)
	}
	return sid, cid, models.AssessmentItem{Name: name, MarksObtained: obtained, MaxMarks: maxMarks}, nil
}
