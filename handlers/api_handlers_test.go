package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"academic-advisor-go/advisor"
	"academic-advisor-go/analytics"
	"academic-advisor-go/db"
	"academic-advisor-go/models"
)

func setupRouter(t *testing.T, seed bool) (*gin.Engine, *db.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := db.NewMemoryStore()
	if seed {
		require.NoError(t, db.SeedDemoData(context.Background(), store))
	}
	scale := analytics.DefaultScale()
	h := NewAPIHandler(store, store, advisor.New(store, advisor.WithScale(scale)), scale)

	router := gin.New()
	RegisterRoutes(router, h)
	return router, store
}

func doRequest(router *gin.Engine, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	router, _ := setupRouter(t, false)
	w := doRequest(router, http.MethodGet, "/api/ping", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Pong!"}`, w.Body.String())
}

func TestAsk(t *testing.T) {
	router, _ := setupRouter(t, true)

	body, _ := json.Marshal(AskRequest{StudentID: db.DemoStudentID, Query: "predict my final score in calculus"})
	w := doRequest(router, http.MethodPost, "/api/ask", body, "application/json")
	require.Equal(t, http.StatusOK, w.Code)

	var reply advisor.Reply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, advisor.IntentPrediction, reply.Intent)
	require.NotNil(t, reply.Course)
	assert.Equal(t, "Calculus", reply.Course.Name)
	assert.Contains(t, reply.Text, "Optimistic: 45.34")
	assert.NotEmpty(t, reply.RequestID)
}

func TestAsk_BadRequest(t *testing.T) {
	router, _ := setupRouter(t, true)

	w := doRequest(router, http.MethodPost, "/api/ask", []byte(`{"studentId":"1"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/api/ask", []byte(`{"studentId":"1","query":"   "}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCatalog(t *testing.T) {
	router, _ := setupRouter(t, false)
	w := doRequest(router, http.MethodGet, "/api/courses", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	router, _ = setupRouter(t, true)
	w = doRequest(router, http.MethodGet, "/api/courses", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var courses []models.Course
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &courses))
	require.Len(t, courses, 8)
	assert.Equal(t, "Calculus", courses[0].Name)
}

func TestGetStudent(t *testing.T) {
	router, _ := setupRouter(t, true)

	w := doRequest(router, http.MethodGet, "/api/students/1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2021-CS-001")

	w = doRequest(router, http.MethodGet, "/api/students/404", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetCourseSummary(t *testing.T) {
	router, _ := setupRouter(t, true)

	w := doRequest(router, http.MethodGet, "/api/students/1/courses/calculus/summary", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Summary     analytics.CourseSummary `json:"summary"`
		Performance analytics.Performance   `json:"performance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 39.8, resp.Summary.CurrentTotal, 1e-9)
	assert.InDelta(t, 50, resp.Summary.CurrentMax, 1e-9)
	assert.InDelta(t, 79.6, resp.Summary.CurrentPercentage, 1e-9)
	require.NotNil(t, resp.Performance.WeightedAverage)
	assert.InDelta(t, 78.85, *resp.Performance.WeightedAverage, 1e-9)

	w = doRequest(router, http.MethodGet, "/api/students/1/courses/astrology/summary", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAnalysis(t *testing.T) {
	router, _ := setupRouter(t, true)

	w := doRequest(router, http.MethodGet, "/api/students/2/analysis", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Courses []struct {
			Course    models.Course `json:"course"`
			RiskLevel string        `json:"riskLevel"`
		} `json:"courses"`
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Courses)
	assert.Equal(t, "Calculus", resp.Courses[0].Course.Name)
	assert.Equal(t, "high", resp.Courses[0].RiskLevel)
	assert.Contains(t, resp.Suggestions, "Attend more classes in **Calculus**")
}

func TestGetPredictions(t *testing.T) {
	router, _ := setupRouter(t, true)

	w := doRequest(router, http.MethodGet, "/api/students/1/predictions", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var preds []analytics.Prediction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &preds))
	assert.Len(t, preds, 4)

	w = doRequest(router, http.MethodGet, "/api/students/nobody/predictions", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheets := map[string][][]interface{}{
		db.SheetCourses: {
			{"ID", "Name"},
			{"C1", "Thermodynamics"},
		},
		db.SheetQuizzes: {
			{"StudentID", "CourseID", "Name", "Obtained", "Max"},
			{"S1", "C1", "Quiz 1", 8, 10},
			{"S1", "C1", "Quiz 2", "bad", 10},
		},
		db.SheetMidterms: {
			{"StudentID", "CourseID", "Midterm"},
			{"S1", "C1", 12},
		},
	}
	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows {
			cellRef, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(name, cellRef, &r))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImportWorkbook(t *testing.T) {
	router, store := setupRouter(t, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "records.xlsx")
	require.NoError(t, err)
	_, err = part.Write(buildWorkbook(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := doRequest(router, http.MethodPost, "/api/import", body.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Report db.ImportReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Report.Courses)
	assert.Equal(t, 1, resp.Report.Quizzes)
	assert.Equal(t, 1, resp.Report.Midterms)
	assert.Equal(t, 1, resp.Report.Skipped)

	catalog, err := store.GetCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, "Thermodynamics", catalog[0].Name)
}

func TestImportWorkbook_MissingFile(t *testing.T) {
	router, _ := setupRouter(t, false)
	w := doRequest(router, http.MethodPost, "/api/import", []byte("x"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportWorkbook_NotAWorkbook(t *testing.T) {
	router, _ := setupRouter(t, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "records.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte(strings.Repeat("not a zip", 10)))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := doRequest(router, http.MethodPost, "/api/import", body.Bytes(), mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
