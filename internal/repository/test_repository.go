package repository

import (
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

func (r *TestRepository) FindByID(id uint) (*model.Test, error) {
	var t model.Test
	err := r.DB.First(&t, id).Error
	return &t, err
}

func (r *TestRepository) ListByCourse(courseID uint) ([]model.Test, error) {
	var ts []model.Test
	err := r.DB.Where("course_id = ?", courseID).Order("created_at asc").Find(&ts).Error
	return ts, err
}
