package analytics

import (
	"encoding/json"
	"fmt"
	"strconv"

	"academic-advisor-go/models"
)

// RiskLevel is ordered: RiskLow < RiskMedium < RiskHigh.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// Thresholds, all in percent.
const (
	minAttendance      = 75.0
	poorScore          = 60.0
	strongScore        = 80.0
	failedMidterm      = 50.0
	baseStudyHours     = 5
	highRiskFloorHours = 10
	mediumFloorHours   = 7
)

// IssueKind names the record an issue was raised from.
type IssueKind string

const (
	IssueAttendance IssueKind = "attendance"
	IssueQuiz       IssueKind = "quiz"
	IssueAssignment IssueKind = "assignment"
	IssueMidterm    IssueKind = "midterm"
)

// Finding is one issue or strength note.
type Finding struct {
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

// CourseAnalysis is the risk assessment of one course. It is derived per query.
type CourseAnalysis struct {
	Course               models.Course `json:"course"`
	RiskLevel            RiskLevel     `json:"riskLevel"`
	Priority             RiskLevel     `json:"priority"`
	RecommendedHours     int           `json:"recommendedHours"`
	Issues               []Finding     `json:"issues"`
	Strengths            []Finding     `json:"strengths"`
	AttendancePercentage *float64      `json:"attendancePercentage,omitempty"`
	QuizPercentage       *float64      `json:"quizPercentage,omitempty"`
	AssignmentPercentage *float64      `json:"assignmentPercentage,omitempty"`
	MidtermPercentage    *float64      `json:"midtermPercentage,omitempty"`
}

// escalate raises the risk level; it never lowers it.
func (a *CourseAnalysis) escalate(level RiskLevel) {
	a.RiskLevel = max(a.RiskLevel, level)
}

func (a *CourseAnalysis) issue(kind IssueKind, hours int, format string, args ...interface{}) {
	a.RecommendedHours += hours
	a.Issues = append(a.Issues, Finding{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func (a *CourseAnalysis) strength(kind IssueKind, format string, args ...interface{}) {
	a.Strengths = append(a.Strengths, Finding{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// HasIssues reports whether any check flagged the course.
func (a CourseAnalysis) HasIssues() bool {
	return len(a.Issues) > 0
}

// AnalyzeCourse runs the attendance, quiz, assignment and midterm checks in
// that order. Records without data are skipped rather than treated as zero.
func AnalyzeCourse(rec *models.CourseRecords, scale GradingScale) CourseAnalysis {
	s := Summarize(rec, scale)
	a := CourseAnalysis{
		Course:           rec.Course,
		RiskLevel:        RiskLow,
		RecommendedHours: baseStudyHours,
		Issues:           []Finding{},
		Strengths:        []Finding{},
	}

	// A row with no classes held reads as 0% and is flagged like any other.
	if s.Attendance != nil {
		pct := s.Attendance.Percentage
		a.AttendancePercentage = &pct
		if pct < minAttendance {
			a.escalate(RiskHigh)
			a.issue(IssueAttendance, 3, "Low attendance (%s%% < 75%%)", fmtPct(pct))
		} else {
			a.strength(IssueAttendance, "Good attendance (%s%%)", fmtPct(pct))
		}
	}

	if s.Quizzes.HasData() {
		pct := s.Quizzes.Percentage
		a.QuizPercentage = &pct
		if pct < poorScore {
			a.escalate(RiskHigh)
			a.issue(IssueQuiz, 2, "Poor quiz performance (%s%%)", fmtPct(pct))
		} else if pct >= strongScore {
			a.strength(IssueQuiz, "Strong quiz performance (%s%%)", fmtPct(pct))
		}
	}

	if s.Assignments.HasData() {
		pct := s.Assignments.Percentage
		a.AssignmentPercentage = &pct
		if pct < poorScore {
			a.escalate(RiskMedium)
			a.issue(IssueAssignment, 2, "Poor assignment performance (%s%%)", fmtPct(pct))
		} else if pct >= strongScore {
			a.strength(IssueAssignment, "Strong assignment performance (%s%%)", fmtPct(pct))
		}
	}

	if s.Midterm != nil && scale.MidtermMax > 0 {
		pct := s.Midterm.Percentage
		a.MidtermPercentage = &pct
		switch {
		case pct < failedMidterm:
			a.escalate(RiskHigh)
			a.issue(IssueMidterm, 5, "Failed midterm (%s%%)", fmtPct(pct))
		case pct < poorScore:
			a.escalate(RiskMedium)
			a.issue(IssueMidterm, 3, "Below average midterm (%s%%)", fmtPct(pct))
		case pct >= strongScore:
			a.strength(IssueMidterm, "Excellent midterm (%s%%)", fmtPct(pct))
		}
	}

	a.Priority = a.RiskLevel
	switch a.RiskLevel {
	case RiskHigh:
		a.RecommendedHours = max(a.RecommendedHours, highRiskFloorHours)
	case RiskMedium:
		a.RecommendedHours = max(a.RecommendedHours, mediumFloorHours)
	}
	return a
}

func fmtPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
