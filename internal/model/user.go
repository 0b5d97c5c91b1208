package model

import "time"

type UserRole string

const (
	RoleCandidate  UserRole = "candidate"
	RoleLearner    UserRole = "learner"
	RoleSupervisor UserRole = "supervisor"
	RoleAdmin      UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100;unique;not null" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"size:20;default:'candidate'" json:"role"`
	Archetype string    `gorm:"size:50" json:"archetype"` // 推荐系统使用的分类标签，本服务不解释其含义
	LastLogin time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}
