// Package advisor answers free-text questions from students. It classifies
// the question, resolves the course it refers to, runs the matching
// analytics and formats a markdown reply.
package advisor

import (
	"context"
	"errors"
	"fmt"

	"academic-advisor-go/analytics"
	"academic-advisor-go/db"
	"academic-advisor-go/llm"
	"academic-advisor-go/models"
)

// ErrNoCourseSpecified is returned when a data lookup names no known course.
var ErrNoCourseSpecified = errors.New("no course specified")

// Fixed replies for failures.
const (
	MsgNoCourse         = "Please specify the course name, e.g. \"What are my quiz marks in Calculus?\""
	MsgCourseNotFound   = "I couldn't find that course. Please specify the course name as it appears in your enrolment."
	MsgInsufficientData = "There are not enough records yet to answer that. Predictions need at least one graded quiz, assignment or midterm."
	MsgUnavailable      = "Sorry, I can't reach your academic records right now. Please try again in a moment."
	MsgInternal         = "Sorry, something went wrong while working on your question."
)

const fallbackPrompt = `You are an academic advising assistant for student %s.
You can look up quiz, assignment and attendance records, predict final exam scores and build study plans.
The student asked: %q
Answer briefly and, where it helps, suggest how to phrase the question so you can look up their records.`

// Reply is the outcome of one query.
type Reply struct {
	RequestID string         `json:"requestId"`
	Intent    Intent         `json:"intent"`
	Course    *models.Course `json:"course,omitempty"`
	Text      string         `json:"reply"`
}

// Advisor routes questions to the analytics over one repository.
type Advisor struct {
	repo      db.Repository
	completer llm.Completer
	scale     analytics.GradingScale
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithCompleter answers unrecognized questions through c instead of the
// capability menu.
func WithCompleter(c llm.Completer) Option {
	return func(a *Advisor) { a.completer = c }
}

// WithScale overrides the midterm and final exam maxima.
func WithScale(s analytics.GradingScale) Option {
	return func(a *Advisor) { a.scale = s }
}

// New creates an Advisor reading from repo.
func New(repo db.Repository, opts ...Option) *Advisor {
	a := &Advisor{repo: repo, scale: analytics.DefaultScale()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Answer returns the reply text for one question.
func (a *Advisor) Answer(ctx context.Context, query, studentID string) string {
	return a.Respond(ctx, query, studentID).Text
}

// Respond runs one question through classification, course resolution and
// the matching analytics. It always produces exactly one reply.
func (a *Advisor) Respond(ctx context.Context, query, studentID string) (reply Reply) {
	qc := newQueryContext(a.repo, studentID)
	reply.RequestID = qc.RequestID

	defer func() {
		if r := recover(); r != nil {
			qc.Logger.Error().Interface("panic", r).Msg("query aborted")
			reply.Text = MsgInternal
		}
	}()

	text := Normalize(query)
	reply.Intent = Classify(text)
	qc.Logger.Info().Str("intent", string(reply.Intent)).Msg("query classified")

	switch reply.Intent {
	case IntentGreeting:
		reply.Text = greetingReply
		return reply
	case IntentUnrecognized:
		reply.Text = a.fallback(ctx, qc, query)
		return reply
	}

	catalog, err := qc.Repo.GetCatalog(ctx)
	if err != nil {
		reply.Text = replyForError(qc, err)
		return reply
	}
	var course *models.Course
	if c, ok := ResolveCourse(text, catalog); ok {
		course = &c
		reply.Course = course
		qc.Logger.Debug().Str("course", c.Name).Msg("course resolved")
	}

	var out string
	switch reply.Intent {
	case IntentLMSData:
		out, err = a.courseData(ctx, qc, course, DataFocus(text))
	case IntentPrediction:
		out, err = a.predict(ctx, qc, course)
	case IntentPlanning:
		out, err = a.plan(ctx, qc, course)
	}
	if err != nil {
		reply.Text = replyForError(qc, err)
		return reply
	}
	reply.Text = out
	return reply
}

func (a *Advisor) courseData(ctx context.Context, qc *QueryContext, course *models.Course, focus Focus) (string, error) {
	if course == nil {
		return "", ErrNoCourseSpecified
	}
	rec, err := analytics.LoadCourseRecords(ctx, qc.Repo, qc.StudentID, *course)
	if err != nil {
		return "", err
	}
	return formatCourseData(analytics.Summarize(rec, a.scale), focus), nil
}

func (a *Advisor) predict(ctx context.Context, qc *QueryContext, course *models.Course) (string, error) {
	if course != nil {
		rec, err := analytics.LoadCourseRecords(ctx, qc.Repo, qc.StudentID, *course)
		if err != nil {
			return "", err
		}
		p, err := analytics.PredictCourse(rec, a.scale)
		if err != nil {
			return "", err
		}
		return formatPredictions([]analytics.Prediction{p}), nil
	}

	records, err := analytics.LoadAllRecords(ctx, qc.Repo, qc.StudentID)
	if err != nil {
		return "", err
	}
	preds, err := analytics.PredictAll(records, a.scale)
	if err != nil {
		return "", err
	}
	return formatPredictions(preds), nil
}

func (a *Advisor) plan(ctx context.Context, qc *QueryContext, course *models.Course) (string, error) {
	student, err := qc.Repo.GetStudent(ctx, qc.StudentID)
	if err != nil {
		return "", err
	}

	var analyses []analytics.CourseAnalysis
	if course != nil {
		rec, err := analytics.LoadCourseRecords(ctx, qc.Repo, qc.StudentID, *course)
		if err != nil {
			return "", err
		}
		analyses = []analytics.CourseAnalysis{analytics.AnalyzeCourse(rec, a.scale)}
	} else {
		records, err := analytics.LoadAllRecords(ctx, qc.Repo, qc.StudentID)
		if err != nil {
			return "", err
		}
		analyses = analytics.AnalyzeAll(records, a.scale)
	}
	return formatPlan(student, analyses, analytics.PlanSuggestions(analyses)), nil
}

func (a *Advisor) fallback(ctx context.Context, qc *QueryContext, query string) string {
	if a.completer == nil {
		return capabilityMenu
	}
	out, err := a.completer.Complete(ctx, fmt.Sprintf(fallbackPrompt, qc.StudentID, query))
	if err != nil {
		qc.Logger.Warn().Err(err).Msg("completion failed, showing capability menu")
		return capabilityMenu
	}
	if out == "" {
		return capabilityMenu
	}
	return out
}

func replyForError(qc *QueryContext, err error) string {
	switch {
	case errors.Is(err, ErrNoCourseSpecified):
		return MsgNoCourse
	case errors.Is(err, analytics.ErrCourseNotFound):
		return MsgCourseNotFound
	case errors.Is(err, analytics.ErrInsufficientData):
		qc.Logger.Info().Err(err).Msg("not enough records")
		return MsgInsufficientData
	case errors.Is(err, db.ErrUnavailable):
		qc.Logger.Error().Err(err).Msg("repository unavailable")
		return MsgUnavailable
	default:
		qc.Logger.Error().Err(err).Msg("query failed")
		return MsgInternal
	}
}
