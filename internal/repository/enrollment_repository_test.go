package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"learnhub_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

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

func TestEnrollmentStart_DoesNotRegressCompleted(t *testing.T) {
	db := newTestDB(t)
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	require.NoError(t, db.Create(&model.CourseEnrollment{
		UserID:      1,
		CourseID:    2,
		Status:      model.EnrollmentCompleted,
		Progress:    100,
		CompletedAt: &now,
	}).Error)

	e, err := repo.Start(1, 2)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentCompleted, e.Status)
	assert.Equal(t, 100, e.Progress)
}

func TestEnrollmentStart_CreatesStartedRecord(t *testing.T) {
	db := newTestDB(t)
	repo := NewEnrollmentRepository(db)

	e, err := repo.Start(1, 2)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStarted, e.Status)
	assert.Zero(t, e.Progress)
	assert.Nil(t, e.CompletedAt)
}

func TestEnrollmentComplete_TransitionsOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewEnrollmentRepository(db)

	_, err := repo.Start(1, 2)
	require.NoError(t, err)

	first := time.Now()
	did, err := repo.Complete(nil, 1, 2, first)
	require.NoError(t, err)
	assert.True(t, did)

	// 第二次是幂等空操作，完成时间不变
	did, err = repo.Complete(nil, 1, 2, first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, did)

	e, err := repo.Find(1, 2)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentCompleted, e.Status)
	require.NotNil(t, e.CompletedAt)
	assert.WithinDuration(t, first, *e.CompletedAt, time.Second,
		"completion timestamp must keep the first transition's value")
}

func TestEnrollmentComplete_MissingRecord(t *testing.T) {
	db := newTestDB(t)
	repo := NewEnrollmentRepository(db)

	_, err := repo.Complete(nil, 42, 42, time.Now())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPromoteCandidate(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	tests := []struct {
		role     model.UserRole
		promoted bool
		want     model.UserRole
	}{
		{model.RoleCandidate, true, model.RoleLearner},
		{model.RoleLearner, false, model.RoleLearner},
		{model.RoleSupervisor, false, model.RoleSupervisor},
		{model.RoleAdmin, false, model.RoleAdmin},
	}

	for _, tc := range tests {
		t.Run(string(tc.role), func(t *testing.T) {
			user := &model.User{
				Name:     "u",
				Email:    fmt.Sprintf("%s@example.com", tc.role),
				Password: "x",
				Role:     tc.role,
			}
			require.NoError(t, db.Create(user).Error)

			promoted, err := repo.PromoteCandidate(nil, user.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.promoted, promoted)

			reloaded, err := repo.FindByID(user.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, reloaded.Role)

			// 再次升级永远是空操作
			promoted, err = repo.PromoteCandidate(nil, user.ID)
			require.NoError(t, err)
			assert.False(t, promoted)
		})
	}
}
