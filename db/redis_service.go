package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"academic-advisor-go/models"
)

const (
	catalogKey       = "courses"     // List: course IDs in insertion order
	catalogMemberKey = "courses:ids" // Set: course IDs, guards against duplicate list entries
	courseInfoPrefix = "course:"     // Hash prefix: course:{id} -> course details
	studentPrefix    = "student:"    // Hash prefix: student:{id} -> student details
)

// RedisOptions configures the Redis client behind RedisStore
type RedisOptions struct {
	Addr       string
	Password   string
	DB         int
	MaxRetries int // retries for each idempotent read
}

// RedisStore serves academic records from Redis
type RedisStore struct {
	Client *redis.Client
}

// NewRedisStore creates a new RedisStore instance
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

// Helper to generate course info key
func getCourseInfoKey(courseID string) string {
	return courseInfoPrefix + courseID
}

// Helper to generate student info key
func getStudentInfoKey(studentID string) string {
	return studentPrefix + studentID
}

// Helper to generate keys scoped to one (student, course) pair, e.g.
// student:{sid}:course:{cid}:quizzes
func getRecordKey(studentID, courseID, kind string) string {
	return studentPrefix + studentID + ":" + courseInfoPrefix + courseID + ":" + kind
}

// --- Catalog ---

// GetCatalog retrieves all courses in insertion order
func (s *RedisStore) GetCatalog(ctx context.Context) ([]models.Course, error) {
	courseIDs, err := s.Client.LRange(ctx, catalogKey, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.Course{}, nil
		}
		return nil, unavailable("get course IDs", err)
	}

	pipe := s.Client.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, len(courseIDs))
	for i, id := range courseIDs {
		cmds[i] = pipe.HGetAll(ctx, getCourseInfoKey(id))
	}
	if len(cmds) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return nil, unavailable("get course details", err)
		}
	}

	courses := make([]models.Course, 0, len(courseIDs))
	for i, cmd := range cmds {
		data := cmd.Val()
		if len(data) == 0 {
			log.Warn().Str("course_id", courseIDs[i]).Msg("course listed in catalog but has no details")
			continue
		}
		courses = append(courses, models.Course{ID: data["id"], Name: data["name"]})
	}
	return courses, nil
}

// AddCourse adds a course to the catalog. Re-adding an ID updates its name
// without changing its catalog position.
func (s *RedisStore) AddCourse(ctx context.Context, course models.Course) error {
	if err := validateCourse(course); err != nil {
		return err
	}
	added, err := s.Client.SAdd(ctx, catalogMemberKey, course.ID).Result()
	if err != nil {
		return fmt.Errorf("failed to add course to Redis: %w", err)
	}

	pipe := s.Client.Pipeline()
	if added == 1 {
		pipe.RPush(ctx, catalogKey, course.ID)
	}
	pipe.HSet(ctx, getCourseInfoKey(course.ID), map[string]interface{}{
		"id":   course.ID,
		"name": course.Name,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add course to Redis: %w", err)
	}
	log.Debug().Str("course_id", course.ID).Str("course", course.Name).Msg("added course")
	return nil
}

// --- Students ---

// GetStudent retrieves a student by ID
func (s *RedisStore) GetStudent(ctx context.Context, studentID string) (*models.Student, error) {
	data, err := s.Client.HGetAll(ctx, getStudentInfoKey(studentID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, unavailable("get student", err)
	}
	if len(data) == 0 {
		return nil, nil // Not found
	}
	semester, _ := strconv.Atoi(data["semester"])
	return &models.Student{
		ID:             data["id"],
		Name:           data["name"],
		RegistrationNo: data["registrationNo"],
		Semester:       semester,
		Department:     data["department"],
	}, nil
}

// AddStudent stores student details
func (s *RedisStore) AddStudent(ctx context.Context, student models.Student) error {
	if err := validateStudent(student); err != nil {
		return err
	}
	err := s.Client.HSet(ctx, getStudentInfoKey(student.ID), map[string]interface{}{
		"id":             student.ID,
		"name":           student.Name,
		"registrationNo": student.RegistrationNo,
		"semester":       student.Semester,
		"department":     student.Department,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add student to Redis: %w", err)
	}
	return nil
}

// --- Assessment items ---

func (s *RedisStore) GetQuizItems(ctx context.Context, studentID, courseID string) ([]models.AssessmentItem, error) {
	return s.getItems(ctx, getRecordKey(studentID, courseID, "quizzes"))
}

func (s *RedisStore) GetAssignmentItems(ctx context.Context, studentID, courseID string) ([]models.AssessmentItem, error) {
	return s.getItems(ctx, getRecordKey(studentID, courseID, "assignments"))
}

func (s *RedisStore) AddQuizItem(ctx context.Context, studentID, courseID string, item models.AssessmentItem) error {
	return s.putItem(ctx, getRecordKey(studentID, courseID, "quizzes"), item)
}

func (s *RedisStore) AddAssignmentItem(ctx context.Context, studentID, courseID string, item models.AssessmentItem) error {
	return s.putItem(ctx, getRecordKey(studentID, courseID, "assignments"), item)
}

// getItems reads a hash of item name -> JSON encoded AssessmentItem
func (s *RedisStore) getItems(ctx context.Context, key string) ([]models.AssessmentItem, error) {
	data, err := s.Client.HGetAll(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.AssessmentItem{}, nil
		}
		return nil, unavailable("get items "+key, err)
	}

	items := make([]models.AssessmentItem, 0, len(data))
	for name, raw := range data {
		var item models.AssessmentItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			log.Warn().Err(err).Str("key", key).Str("item", name).Msg("skipping malformed item")
			continue
		}
		items = append(items, item)
	}
	sortItems(items)
	return items, nil
}

func (s *RedisStore) putItem(ctx context.Context, key string, item models.AssessmentItem) error {
	if item.Name == "" {
		return errors.New("item name cannot be empty")
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode item: %w", err)
	}
	if err := s.Client.HSet(ctx, key, item.Name, raw).Err(); err != nil {
		return fmt.Errorf("failed to store item in Redis: %w", err)
	}
	return nil
}

// --- Attendance & midterm ---

func (s *RedisStore) GetAttendance(ctx context.Context, studentID, courseID string) (*models.AttendanceRecord, error) {
	data, err := s.Client.HGetAll(ctx, getRecordKey(studentID, courseID, "attendance")).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, unavailable("get attendance", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	attended, err1 := strconv.Atoi(data["attended"])
	total, err2 := strconv.Atoi(data["total"])
	if err1 != nil || err2 != nil {
		log.Warn().Str("student_id", studentID).Str("course_id", courseID).Msg("malformed attendance record")
		return nil, nil
	}
	return &models.AttendanceRecord{ClassesAttended: attended, TotalClasses: total}, nil
}

func (s *RedisStore) SetAttendance(ctx context.Context, studentID, courseID string, rec models.AttendanceRecord) error {
	if err := validateAttendance(rec); err != nil {
		return err
	}
	err := s.Client.HSet(ctx, getRecordKey(studentID, courseID, "attendance"), map[string]interface{}{
		"attended": rec.ClassesAttended,
		"total":    rec.TotalClasses,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to store attendance in Redis: %w", err)
	}
	return nil
}

func (s *RedisStore) GetMidterm(ctx context.Context, studentID, courseID string) (*float64, error) {
	return parseMidterm(s.Client.Get(ctx, getRecordKey(studentID, courseID, "midterm")), studentID, courseID)
}

func parseMidterm(cmd *redis.StringCmd, studentID, courseID string) (*float64, error) {
	v, err := cmd.Float64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Not graded yet
		}
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			log.Warn().Str("student_id", studentID).Str("course_id", courseID).Str("value", cmd.Val()).Msg("malformed midterm record")
			return nil, nil
		}
		return nil, unavailable("get midterm", err)
	}
	return &v, nil
}

func (s *RedisStore) SetMidterm(ctx context.Context, studentID, courseID string, marks float64) error {
	if err := s.Client.Set(ctx, getRecordKey(studentID, courseID, "midterm"), marks, 0).Err(); err != nil {
		return fmt.Errorf("failed to store midterm in Redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}

// --- Utility ---

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:       opts.Addr,
		Password:   opts.Password,
		DB:         opts.DB,
		MaxRetries: opts.MaxRetries,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w: %w", opts.Addr, ErrUnavailable, err)
	}

	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("connected to Redis")
	return rdb, nil
}
