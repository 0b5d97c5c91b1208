package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

// newTestDB 每个测试独立的内存库。单连接串行化写入，
// 并发测试的竞争发生在应用层而不是 sqlite 的文件锁上。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.CourseEnrollment{},
		&model.Test{},
		&model.TestResult{},
	))
	return db
}

type fixture struct {
	db         *gorm.DB
	user       *model.User
	course     *model.Course
	test       *model.Test
	submission *SubmissionService
	skill      *SkillService
}

// newFixture 建好一个 candidate 学员、一门课、一份 4 题客观测试
// （标准答案 [1,0,2,3]，及格线 70）和已 started 的选课记录
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	user := &model.User{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "x",
		Role:     model.RoleCandidate,
	}
	require.NoError(t, db.Create(user).Error)

	course := &model.Course{Title: "Coding Foundations", Subject: "Coding"}
	require.NoError(t, db.Create(course).Error)

	test := makeTest(t, db, course.ID, "Coding Basics Quiz", "Coding", 70, 1, 0, 2, 3)

	enrollment := &model.CourseEnrollment{
		UserID:   user.ID,
		CourseID: course.ID,
		Status:   model.EnrollmentStarted,
	}
	require.NoError(t, db.Create(enrollment).Error)

	testRepo := repository.NewTestRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	userRepo := repository.NewUserRepository(db)

	return &fixture{
		db:         db,
		user:       user,
		course:     course,
		test:       test,
		submission: NewSubmissionService(testRepo, attemptRepo, enrollmentRepo, userRepo, db, nil, 3),
		skill:      NewSkillService(attemptRepo, testRepo, nil, nil),
	}
}

func makeTest(t *testing.T, db *gorm.DB, courseID uint, title, subject string, passingScore int, correct ...int) *model.Test {
	t.Helper()
	qs := make([]model.Question, len(correct))
	for i, c := range correct {
		qs[i] = model.Question{
			Kind:    model.QuestionObjective,
			Prompt:  fmt.Sprintf("question %d", i),
			Options: []string{"a", "b", "c", "d"},
			Correct: intPtr(c),
		}
	}
	data, err := json.Marshal(qs)
	require.NoError(t, err)

	test := &model.Test{
		CourseID:     courseID,
		Title:        title,
		Subject:      subject,
		Type:         model.TestMCQ,
		PassingScore: passingScore,
		Questions:    data,
	}
	require.NoError(t, db.Create(test).Error)
	return test
}

func (f *fixture) reloadUser(t *testing.T) *model.User {
	t.Helper()
	var u model.User
	require.NoError(t, f.db.First(&u, f.user.ID).Error)
	return &u
}

func (f *fixture) reloadEnrollment(t *testing.T) *model.CourseEnrollment {
	t.Helper()
	var e model.CourseEnrollment
	require.NoError(t, f.db.Where("user_id = ? AND course_id = ?", f.user.ID, f.course.ID).First(&e).Error)
	return &e
}

// passingAnswers 答对 3/4 → 75 分
func passingAnswers() model.AnswerSet {
	return model.AnswerSet{
		0: model.ObjectiveAnswer(1),
		1: model.ObjectiveAnswer(0),
		2: model.ObjectiveAnswer(2),
		3: model.ObjectiveAnswer(1),
	}
}

// failingAnswers 答对 2/4 → 50 分
func failingAnswers() model.AnswerSet {
	return model.AnswerSet{
		0: model.ObjectiveAnswer(1),
		1: model.ObjectiveAnswer(0),
	}
}
