package advisor

import (
	"fmt"
	"strconv"
	"strings"

	"academic-advisor-go/analytics"
	"academic-advisor-go/models"
)

const capabilities = `- **Records**: quiz marks, assignment scores and attendance per course
- **Predictions**: an estimate of your final exam score
- **Study plans**: risk analysis and a weekly study plan across your courses

Try asking:
- "What are my quiz marks in Calculus?"
- "Predict my final score in Physics"
- "Create a study plan for Programming"`

var greetingReply = "🎓 Hello! I'm your academic advisor. Here's what I can help with:\n\n" + capabilities

var capabilityMenu = "I'm not sure what you're asking. Here's what I can help with:\n\n" + capabilities

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatCourseData(s analytics.CourseSummary, focus Focus) string {
	var b strings.Builder
	name := s.Course.Name

	switch focus {
	case FocusAttendance:
		if s.Attendance == nil {
			return fmt.Sprintf("No attendance data found for **%s**.", name)
		}
		fmt.Fprintf(&b, "📅 **Attendance in %s**\n\n", name)
		writeAttendance(&b, s.Attendance)
		return b.String()
	case FocusQuizzes:
		if len(s.Quizzes.Items) == 0 {
			return fmt.Sprintf("No quiz marks found for **%s**.", name)
		}
		fmt.Fprintf(&b, "📝 **Quizzes in %s**\n\n", name)
		writeComponent(&b, "Quizzes", s.Quizzes)
		return b.String()
	case FocusAssignments:
		if len(s.Assignments.Items) == 0 {
			return fmt.Sprintf("No assignment marks found for **%s**.", name)
		}
		fmt.Fprintf(&b, "📂 **Assignments in %s**\n\n", name)
		writeComponent(&b, "Assignments", s.Assignments)
		return b.String()
	}

	if len(s.Quizzes.Items) == 0 && len(s.Assignments.Items) == 0 && s.Midterm == nil && s.Attendance == nil {
		return fmt.Sprintf("No records found for **%s** yet.", name)
	}

	fmt.Fprintf(&b, "📚 **%s**\n\n", name)
	if len(s.Quizzes.Items) > 0 {
		writeComponent(&b, "Quizzes", s.Quizzes)
		b.WriteString("\n")
	}
	if len(s.Assignments.Items) > 0 {
		writeComponent(&b, "Assignments", s.Assignments)
		b.WriteString("\n")
	}
	if s.Midterm != nil {
		fmt.Fprintf(&b, "**Midterm**: %s/%s (%s%%)\n\n", num(s.Midterm.Marks), num(s.Midterm.Max), num(s.Midterm.Percentage))
	} else {
		b.WriteString("**Midterm**: not graded yet\n\n")
	}
	if s.Attendance != nil {
		writeAttendance(&b, s.Attendance)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "**Current total**: %s/%s (%s%%)", num(s.CurrentTotal), num(s.CurrentMax), num(s.CurrentPercentage))
	return b.String()
}

func writeComponent(b *strings.Builder, title string, c analytics.ComponentTotals) {
	fmt.Fprintf(b, "**%s**\n", title)
	for _, it := range c.Items {
		fmt.Fprintf(b, "- %s: %s/%s (%s%%)\n", it.Name, num(it.MarksObtained), num(it.MaxMarks), num(it.Percentage))
	}
	fmt.Fprintf(b, "- Total: %s/%s (%s%%)\n", num(c.Total), num(c.Max), num(c.Percentage))
}

func writeAttendance(b *strings.Builder, a *analytics.AttendanceSummary) {
	fmt.Fprintf(b, "**Attendance**: %d/%d classes (%s%%)\n", a.ClassesAttended, a.TotalClasses, num(a.Percentage))
}

func formatPredictions(preds []analytics.Prediction) string {
	var b strings.Builder
	b.WriteString("🎯 **Final exam predictions**\n")
	for _, p := range preds {
		fmt.Fprintf(&b, "\n**%s** (out of %s)\n", p.Course.Name, num(p.FinalMax))
		fmt.Fprintf(&b, "- Optimistic: %s\n", num(p.Optimistic))
		fmt.Fprintf(&b, "- Realistic: %s\n", num(p.Realistic))
		fmt.Fprintf(&b, "- Pessimistic: %s\n", num(p.Pessimistic))
		fmt.Fprintf(&b, "- Based on a weighted average of %s%% with %s%% consistency\n", num(p.WeightedAverage), num(p.Consistency))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatPlan(student *models.Student, analyses []analytics.CourseAnalysis, suggestions []string) string {
	var b strings.Builder
	if student != nil && student.Name != "" {
		fmt.Fprintf(&b, "💡 **Study plan for %s**\n", student.Name)
	} else {
		b.WriteString("💡 **Study plan**\n")
	}

	for _, a := range analytics.ByPriority(analyses) {
		fmt.Fprintf(&b, "\n**%s**: %s risk, %d hours/week\n", a.Course.Name, a.RiskLevel, a.RecommendedHours)
		for _, is := range a.Issues {
			fmt.Fprintf(&b, "- ⚠️ %s\n", is.Message)
		}
		for _, st := range a.Strengths {
			fmt.Fprintf(&b, "- ✅ %s\n", st.Message)
		}
	}

	b.WriteString("\n**Suggestions**\n")
	for _, s := range suggestions {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	return strings.TrimRight(b.String(), "\n")
}
