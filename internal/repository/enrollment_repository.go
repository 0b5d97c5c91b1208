package repository

import (
	"errors"
	"time"

	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Find(userID, courseID uint) (*model.CourseEnrollment, error) {
	var e model.CourseEnrollment
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
	return &e, err
}

// Start 创建选课记录（started 状态）。记录已存在时不做任何修改，
// 尤其不会把 completed 的记录拉回 started。
func (r *EnrollmentRepository) Start(userID, courseID uint) (*model.CourseEnrollment, error) {
	existing, err := r.Find(userID, courseID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	e := &model.CourseEnrollment{
		UserID:   userID,
		CourseID: courseID,
		Status:   model.EnrollmentStarted,
		Progress: 0,
	}
	if err := r.DB.Create(e).Error; err != nil {
		// 并发创建时唯一索引冲突，读回已有记录
		if existing, ferr := r.Find(userID, courseID); ferr == nil {
			return existing, nil
		}
		return nil, err
	}
	return e, nil
}

// Complete 将选课推进到 completed。条件写：WHERE status <> 'completed'
// 保证状态机只能前进，重复执行不会覆盖首次的完成时间。
// 返回本次是否真正发生了状态迁移。记录不存在时返回 ErrRecordNotFound。
func (r *EnrollmentRepository) Complete(tx *gorm.DB, userID, courseID uint, completedAt time.Time) (bool, error) {
	if tx == nil {
		tx = r.DB
	}
	result := tx.Model(&model.CourseEnrollment{}).
		Where("user_id = ? AND course_id = ? AND status <> ?", userID, courseID, model.EnrollmentCompleted).
		Updates(map[string]interface{}{
			"status":       model.EnrollmentCompleted,
			"progress":     100,
			"completed_at": completedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	// 没有命中行：要么记录不存在，要么已经 completed（幂等空操作）
	var e model.CourseEnrollment
	err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
	if err != nil {
		return false, err
	}
	return false, nil
}

func (r *EnrollmentRepository) ListByUser(userID uint) ([]model.CourseEnrollment, error) {
	var es []model.CourseEnrollment
	err := r.DB.Where("user_id = ?", userID).Find(&es).Error
	return es, err
}
