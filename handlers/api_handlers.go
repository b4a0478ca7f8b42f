package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"academic-advisor-go/advisor"
	"academic-advisor-go/analytics"
	"academic-advisor-go/db"
	"academic-advisor-go/models"
)

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Repo    db.Repository
	Writer  db.RecordWriter // nil disables workbook import
	Advisor *advisor.Advisor
	Scale   analytics.GradingScale
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(repo db.Repository, writer db.RecordWriter, adv *advisor.Advisor, scale analytics.GradingScale) *APIHandler {
	return &APIHandler{
		Repo:    repo,
		Writer:  writer,
		Advisor: adv,
		Scale:   scale,
	}
}

// RegisterRoutes mounts the API under /api.
func RegisterRoutes(router *gin.Engine, h *APIHandler) {
	api := router.Group("/api")
	{
		api.POST("/ask", h.Ask)
		api.GET("/courses", h.GetCatalog)

		api.GET("/students/:studentId", h.GetStudent)
		api.GET("/students/:studentId/courses/:course/summary", h.GetCourseSummary)
		api.GET("/students/:studentId/analysis", h.GetAnalysis)
		api.GET("/students/:studentId/predictions", h.GetPredictions)

		api.POST("/import", h.ImportWorkbook)
		api.GET("/ping", PingHandler)
	}
}

// AskRequest is the body of POST /api/ask
type AskRequest struct {
	StudentID string `json:"studentId" binding:"required"`
	Query     string `json:"query" binding:"required"`
}

// Ask handles POST /api/ask
func (h *APIHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query must not be blank"})
		return
	}

	reply := h.Advisor.Respond(c.Request.Context(), req.Query, req.StudentID)
	c.JSON(http.StatusOK, reply)
}

// GetCatalog handles GET /api/courses
func (h *APIHandler) GetCatalog(c *gin.Context) {
	courses, err := h.Repo.GetCatalog(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to retrieve courses")
		return
	}
	if courses == nil {
		// Return empty list instead of null for JSON consistency
		c.JSON(http.StatusOK, []models.Course{})
		return
	}
	c.JSON(http.StatusOK, courses)
}

// GetStudent handles GET /api/students/:studentId
func (h *APIHandler) GetStudent(c *gin.Context) {
	studentID := c.Param("studentId")
	student, err := h.Repo.GetStudent(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err, "Failed to retrieve student")
		return
	}
	if student == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}
	c.JSON(http.StatusOK, student)
}

// GetCourseSummary handles GET /api/students/:studentId/courses/:course/summary.
// :course is the course name, matched ignoring case.
func (h *APIHandler) GetCourseSummary(c *gin.Context) {
	ctx := c.Request.Context()
	studentID := c.Param("studentId")

	course, err := analytics.FindCourse(ctx, h.Repo, c.Param("course"))
	if err != nil {
		respondError(c, err, "Failed to resolve course")
		return
	}
	rec, err := analytics.LoadCourseRecords(ctx, h.Repo, studentID, course)
	if err != nil {
		respondError(c, err, "Failed to retrieve course records")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":     analytics.Summarize(rec, h.Scale),
		"performance": analytics.ScoreRecords(rec, h.Scale),
	})
}

// GetAnalysis handles GET /api/students/:studentId/analysis
func (h *APIHandler) GetAnalysis(c *gin.Context) {
	records, err := analytics.LoadAllRecords(c.Request.Context(), h.Repo, c.Param("studentId"))
	if err != nil {
		respondError(c, err, "Failed to retrieve records")
		return
	}
	analyses := analytics.AnalyzeAll(records, h.Scale)
	c.JSON(http.StatusOK, gin.H{
		"courses":     analytics.ByPriority(analyses),
		"suggestions": analytics.PlanSuggestions(analyses),
	})
}

// GetPredictions handles GET /api/students/:studentId/predictions
func (h *APIHandler) GetPredictions(c *gin.Context) {
	records, err := analytics.LoadAllRecords(c.Request.Context(), h.Repo, c.Param("studentId"))
	if err != nil {
		respondError(c, err, "Failed to retrieve records")
		return
	}
	preds, err := analytics.PredictAll(records, h.Scale)
	if err != nil {
		respondError(c, err, "Failed to predict final scores")
		return
	}
	c.JSON(http.StatusOK, preds)
}

// ImportWorkbook handles POST /api/import
func (h *APIHandler) ImportWorkbook(c *gin.Context) {
	if h.Writer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Import is not enabled for this store"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		log.Warn().Err(err).Msg("error getting form file")
		c.JSON(http.StatusBadRequest, gin.H{"message": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	log.Info().Str("file", header.Filename).Msg("received workbook upload")

	report, err := db.ImportWorkbook(c.Request.Context(), file, h.Writer)
	if err != nil {
		log.Error().Err(err).Str("file", header.Filename).Msg("workbook import failed")
		c.JSON(http.StatusBadRequest, gin.H{"message": "Failed to import workbook: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Import successful",
		"report":  report,
	})
}

// PingHandler handles GET /api/ping
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}

func respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, analytics.ErrCourseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
	case errors.Is(err, analytics.ErrInsufficientData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Not enough records yet"})
	case errors.Is(err, db.ErrUnavailable):
		log.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msg})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
