package service

import (
	"errors"

	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"

	"gorm.io/gorm"
)

// CourseService 只读目录 + 选课。目录的增删改由运营后台负责，
// 不在本服务范围内。
type CourseService struct {
	CourseRepo     *repository.CourseRepository
	EnrollmentRepo *repository.EnrollmentRepository
}

func NewCourseService(courseRepo *repository.CourseRepository, enrollmentRepo *repository.EnrollmentRepository) *CourseService {
	return &CourseService{
		CourseRepo:     courseRepo,
		EnrollmentRepo: enrollmentRepo,
	}
}

func (s *CourseService) List(page, limit int) ([]model.Course, int64, error) {
	return s.CourseRepo.List(page, limit)
}

func (s *CourseService) Get(id uint) (*model.Course, error) {
	c, err := s.CourseRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return c, nil
}

// Enroll 开始选课。重复选课返回已有记录；completed 的记录不会被
// 拉回 started。
func (s *CourseService) Enroll(userID, courseID uint) (*model.CourseEnrollment, error) {
	if _, err := s.Get(courseID); err != nil {
		return nil, err
	}
	return s.EnrollmentRepo.Start(userID, courseID)
}

// EnrollStatus 查询选课状态；未选课时返回 nil 而不是错误
func (s *CourseService) EnrollStatus(userID, courseID uint) (*model.CourseEnrollment, error) {
	e, err := s.EnrollmentRepo.Find(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}
