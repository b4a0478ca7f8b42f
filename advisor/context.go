package advisor

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"academic-advisor-go/db"
)

// QueryContext carries everything one query needs. It is built per call and
// passed down explicitly so concurrent queries never share state.
type QueryContext struct {
	RequestID string
	StudentID string
	Repo      db.Repository
	Logger    zerolog.Logger
}

func newQueryContext(repo db.Repository, studentID string) *QueryContext {
	id := uuid.New().String()
	return &QueryContext{
		RequestID: id,
		StudentID: studentID,
		Repo:      repo,
		Logger: log.With().
			Str("request_id", id).
			Str("student_id", studentID).
			Logger(),
	}
}
