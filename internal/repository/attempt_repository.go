package repository

import (
	"time"

	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

// AttemptRepository 提交台账。对引擎而言只追加：每次提交新增一行，
// 已有记录从不更新或覆盖。
type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(result *model.TestResult) error {
	return r.DB.Create(result).Error
}

func (r *AttemptRepository) FindByID(id string) (*model.TestResult, error) {
	var tr model.TestResult
	err := r.DB.Where("id = ?", id).First(&tr).Error
	return &tr, err
}

func (r *AttemptRepository) ListByUser(userID uint) ([]model.TestResult, error) {
	var trs []model.TestResult
	err := r.DB.Where("user_id = ?", userID).Order("submitted_at asc").Find(&trs).Error
	return trs, err
}

// ListGradedByUser 返回已判分的提交，供技能聚合与对账扫描使用
func (r *AttemptRepository) ListGradedByUser(userID uint) ([]model.TestResult, error) {
	var trs []model.TestResult
	err := r.DB.Where("user_id = ? AND status = ?", userID, model.AttemptGraded).
		Order("submitted_at asc").Find(&trs).Error
	return trs, err
}

// RecentGradedUserIDs 返回窗口期内产生过已判分提交的学员 ID（去重），
// 供后台对账扫描圈定候选集
func (r *AttemptRepository) RecentGradedUserIDs(since time.Time) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.TestResult{}).
		Where("status = ? AND submitted_at >= ?", model.AttemptGraded, since).
		Distinct().Pluck("user_id", &ids).Error
	return ids, err
}

func (r *AttemptRepository) CountByUserAndTest(userID, testID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.TestResult{}).
		Where("user_id = ? AND test_id = ?", userID, testID).Count(&count).Error
	return count, err
}
