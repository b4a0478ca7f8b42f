package advisor

import (
	"regexp"
	"strings"
)

// Intent is the coarse category of a student's question.
type Intent string

const (
	IntentGreeting     Intent = "greeting"
	IntentLMSData      Intent = "lms_data"
	IntentPrediction   Intent = "prediction"
	IntentPlanning     Intent = "planning"
	IntentUnrecognized Intent = "unrecognized"
)

var greetings = map[string]bool{
	"hi":           true,
	"hello":        true,
	"hey":          true,
	"good morning": true,
	"good evening": true,
}

type intentRule struct {
	pattern *regexp.Regexp
	intent  Intent
}

// wholeWord anchors expr between non-word characters or the ends of the
// text. Letters and digits of every script count as word characters, which
// \b does not do.
func wholeWord(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(?:` + expr + `)(?:$|[^\p{L}\p{N}_])`)
}

// Evaluated in order; the first rule with a match wins. Data lookups take
// precedence over prediction and planning when keywords co-occur.
var intentRules = []intentRule{
	{wholeWord(`quiz|assignment|attendance`), IntentLMSData},
	{wholeWord(`predict|prediction|final score|marks`), IntentPrediction},
	{wholeWord(`plan|study|rescue|focus`), IntentPlanning},
}

// Normalize lowercases and trims a query.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Classify maps a query to exactly one intent.
func Classify(query string) Intent {
	text := Normalize(query)
	if greetings[text] {
		return IntentGreeting
	}
	for _, r := range intentRules {
		if r.pattern.MatchString(text) {
			return r.intent
		}
	}
	return IntentUnrecognized
}

// Focus narrows an lms_data reply to one kind of record.
type Focus string

const (
	FocusAll         Focus = "all"
	FocusAttendance  Focus = "attendance"
	FocusQuizzes     Focus = "quizzes"
	FocusAssignments Focus = "assignments"
)

var (
	attendanceWord = wholeWord(`attendance`)
	quizWord       = wholeWord(`quiz(zes)?`)
	assignmentWord = wholeWord(`assignments?`)
)

// DataFocus picks which records an lms_data question asks about. A question
// naming both quizzes and assignments gets the full summary.
func DataFocus(query string) Focus {
	text := Normalize(query)
	quiz := quizWord.MatchString(text)
	assignment := assignmentWord.MatchString(text)
	switch {
	case attendanceWord.MatchString(text):
		return FocusAttendance
	case quiz && !assignment:
		return FocusQuizzes
	case assignment && !quiz:
		return FocusAssignments
	default:
		return FocusAll
	}
}
