package db

import (
	"context"
	"sync"

	"academic-advisor-go/models"
)

type pairKey struct {
	studentID string
	courseID  string
}

// MemoryStore keeps records in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	courses     []models.Course
	students    map[string]models.Student
	quizzes     map[pairKey]map[string]models.AssessmentItem
	assignments map[pairKey]map[string]models.AssessmentItem
	attendance  map[pairKey]models.AttendanceRecord
	midterms    map[pairKey]float64
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		students:    make(map[string]models.Student),
		quizzes:     make(map[pairKey]map[string]models.AssessmentItem),
		assignments: make(map[pairKey]map[string]models.AssessmentItem),
		attendance:  make(map[pairKey]models.AttendanceRecord),
		midterms:    make(map[pairKey]float64),
	}
}

func (m *MemoryStore) GetCatalog(ctx context.Context) ([]models.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Course, len(m.courses))
	copy(out, m.courses)
	return out, nil
}

func (m *MemoryStore) GetStudent(ctx context.Context, studentID string) (*models.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[studentID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStore) GetQuizItems(ctx context.Context, studentID, courseID string) ([]models.AssessmentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedItems(m.quizzes[pairKey{studentID, courseID}]), nil
}

func (m *MemoryStore) GetAssignmentItems(ctx context.Context, studentID, courseID string) ([]models.AssessmentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedItems(m.assignments[pairKey{studentID, courseID}]), nil
}

func (m *MemoryStore) GetAttendance(ctx context.Context, studentID, courseID string) (*models.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.attendance[pairKey{studentID, courseID}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *MemoryStore) GetMidterm(ctx context.Context, studentID, courseID string) (*float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.midterms[pairKey{studentID, courseID}]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// AddCourse appends a course to the catalog, or renames an existing one in place.
func (m *MemoryStore) AddCourse(ctx context.Context, course models.Course) error {
	if err := validateCourse(course); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.courses {
		if c.ID == course.ID {
			m.courses[i] = course
			return nil
		}
	}
	m.courses = append(m.courses, course)
	return nil
}

func (m *MemoryStore) AddStudent(ctx context.Context, student models.Student) error {
	if err := validateStudent(student); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[student.ID] = student
	return nil
}

func (m *MemoryStore) AddQuizItem(ctx context.Context, studentID, courseID string, item models.AssessmentItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	putItem(m.quizzes, pairKey{studentID, courseID}, item)
	return nil
}

func (m *MemoryStore) AddAssignmentItem(ctx context.Context, studentID, courseID string, item models.AssessmentItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	putItem(m.assignments, pairKey{studentID, courseID}, item)
	return nil
}

func (m *MemoryStore) SetAttendance(ctx context.Context, studentID, courseID string, rec models.AttendanceRecord) error {
	if err := validateAttendance(rec); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendance[pairKey{studentID, courseID}] = rec
	return nil
}

func (m *MemoryStore) SetMidterm(ctx context.Context, studentID, courseID string, marks float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.midterms[pairKey{studentID, courseID}] = marks
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func putItem(dst map[pairKey]map[string]models.AssessmentItem, key pairKey, item models.AssessmentItem) {
	items, ok := dst[key]
	if !ok {
		items = make(map[string]models.AssessmentItem)
		dst[key] = items
	}
	items[item.Name] = item
}

func sortedItems(items map[string]models.AssessmentItem) []models.AssessmentItem {
	out := make([]models.AssessmentItem, 0, len(items))
	for _, it := range items {
		out = append(out, it)
	}
	sortItems(out)
	return out
}
