package repository

import (
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

// PromoteCandidate 将 candidate 升级为 learner。条件写：只有当前角色
// 恰好是 candidate 的行才会被更新，supervisor/admin 不受影响，也绝不降级。
// 返回本次是否真正发生了升级；已经是 learner 时返回 false 且不报错。
func (r *UserRepository) PromoteCandidate(tx *gorm.DB, userID uint) (bool, error) {
	if tx == nil {
		tx = r.DB
	}
	result := tx.Model(&model.User{}).
		Where("id = ? AND role = ?", userID, model.RoleCandidate).
		Update("role", model.RoleLearner)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
