package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentNotStarted EnrollmentStatus = "not_started"
	EnrollmentStarted    EnrollmentStatus = "started"
	EnrollmentCompleted  EnrollmentStatus = "completed"
)

// swagger:model Course
type Course struct {
	BaseModel
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Subject     string `gorm:"size:100" json:"subject"`
	IsPublished bool   `gorm:"default:true" json:"isPublished"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseEnrollment 学员与课程的唯一关联，状态只能单向前进：
// not_started → started → completed。completed 不允许回退。
type CourseEnrollment struct {
	BaseModel
	UserID      uint             `gorm:"uniqueIndex:idx_user_course;type:bigint unsigned" json:"userId"`
	CourseID    uint             `gorm:"uniqueIndex:idx_user_course;type:bigint unsigned" json:"courseId"`
	Status      EnrollmentStatus `gorm:"size:20;default:'not_started'" json:"status"`
	Progress    int              `gorm:"default:0" json:"progress"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

func (CourseEnrollment) TableName() string {
	return "course_enrollments"
}
