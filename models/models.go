package models

// Course represents an entry of the course catalog
type Course struct {
	ID   string `json:"id"`   // Unique course ID
	Name string `json:"name"` // Human readable, unique course name
}

// Student represents a student
type Student struct {
	ID             string `json:"id"`             // Opaque student ID
	Name           string `json:"name"`           // Display name
	RegistrationNo string `json:"registrationNo"` // e.g. 2021-CS-001
	Semester       int    `json:"semester"`
	Department     string `json:"department"`
}

// AssessmentItem is a single graded quiz or assignment
type AssessmentItem struct {
	Name          string  `json:"name"`
	MarksObtained float64 `json:"marksObtained"`
	MaxMarks      float64 `json:"maxMarks"` // <= 0 means the item carries no data
}

// HasData reports whether the item can be turned into a percentage.
func (i AssessmentItem) HasData() bool {
	return i.MaxMarks > 0
}

// AttendanceRecord holds one student's attendance in one course
type AttendanceRecord struct {
	ClassesAttended int `json:"classesAttended"`
	TotalClasses    int `json:"totalClasses"`
}

// CourseRecords bundles the raw rows of one (student, course) pair.
// A nil Attendance or Midterm means the record does not exist yet.
type CourseRecords struct {
	StudentID   string            `json:"studentId"`
	Course      Course            `json:"course"`
	Quizzes     []AssessmentItem  `json:"quizzes"`
	Assignments []AssessmentItem  `json:"assignments"`
	Attendance  *AttendanceRecord `json:"attendance,omitempty"`
	Midterm     *float64          `json:"midterm,omitempty"`
}

// HasGradedWork reports whether any quiz, assignment or midterm mark exists.
func (r *CourseRecords) HasGradedWork() bool {
	if r.Midterm != nil {
		return true
	}
	for _, q := range r.Quizzes {
		if q.HasData() {
			return true
		}
	}
	for _, a := range r.Assignments {
		if a.HasData() {
			return true
		}
	}
	return false
}
