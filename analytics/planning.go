package analytics

import (
	"fmt"
	"sort"

	"academic-advisor-go/models"
)

// OnTrackMessage is the single suggestion returned when no course has an issue.
const OnTrackMessage = "You're doing great! All courses are on track."

// AnalyzeAll analyzes every course in records, keeping catalog order.
func AnalyzeAll(records []*models.CourseRecords, scale GradingScale) []CourseAnalysis {
	out := make([]CourseAnalysis, 0, len(records))
	for _, rec := range records {
		out = append(out, AnalyzeCourse(rec, scale))
	}
	return out
}

// ByPriority returns a copy of analyses ordered high priority first.
// Courses of equal priority keep their catalog order.
func ByPriority(analyses []CourseAnalysis) []CourseAnalysis {
	out := make([]CourseAnalysis, len(analyses))
	copy(out, analyses)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

// PlanSuggestions turns issues into study actions, most urgent courses first.
func PlanSuggestions(analyses []CourseAnalysis) []string {
	var suggestions []string
	for _, a := range ByPriority(analyses) {
		seen := make(map[IssueKind]bool)
		for _, is := range a.Issues {
			if seen[is.Kind] {
				continue
			}
			seen[is.Kind] = true
			suggestions = append(suggestions, suggestionFor(is.Kind, a.Course.Name))
		}
	}
	if len(suggestions) == 0 {
		return []string{OnTrackMessage}
	}
	return suggestions
}

func suggestionFor(kind IssueKind, course string) string {
	switch kind {
	case IssueAttendance:
		return fmt.Sprintf("Attend more classes in **%s**", course)
	case IssueQuiz:
		return fmt.Sprintf("Improve quiz preparation for **%s**", course)
	case IssueAssignment:
		return fmt.Sprintf("Focus on assignments in **%s**", course)
	case IssueMidterm:
		return fmt.Sprintf("Review midterm material for **%s**", course)
	default:
		return fmt.Sprintf("Check in with your instructor about **%s**", course)
	}
}
