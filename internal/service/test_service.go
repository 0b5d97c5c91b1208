package service

import (
	"errors"

	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"

	"gorm.io/gorm"
)

type TestService struct {
	TestRepo *repository.TestRepository
}

func NewTestService(testRepo *repository.TestRepository) *TestService {
	return &TestService{TestRepo: testRepo}
}

// StudentQuestion 学生端题目视图，不携带标准答案
type StudentQuestion struct {
	Kind    model.QuestionKind `json:"kind"`
	Prompt  string             `json:"prompt"`
	Options []string           `json:"options,omitempty"`
}

type StudentTest struct {
	ID           uint              `json:"id"`
	CourseID     uint              `json:"courseId"`
	Title        string            `json:"title"`
	Subject      string            `json:"subject"`
	Type         model.TestType    `json:"type"`
	PassingScore int               `json:"passingScore"`
	Questions    []StudentQuestion `json:"questions"`
}

// GetForStudent 返回去掉标准答案的测试定义
func (s *TestService) GetForStudent(id uint) (*StudentTest, error) {
	test, err := s.TestRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAssessmentNotFound
		}
		return nil, err
	}

	questions := test.DecodeQuestions()
	view := &StudentTest{
		ID:           test.ID,
		CourseID:     test.CourseID,
		Title:        test.Title,
		Subject:      test.Subject,
		Type:         test.Type,
		PassingScore: test.Threshold(),
		Questions:    make([]StudentQuestion, len(questions)),
	}
	for i, q := range questions {
		view.Questions[i] = StudentQuestion{
			Kind:    q.Kind,
			Prompt:  q.Prompt,
			Options: q.Options,
		}
	}
	return view, nil
}

func (s *TestService) ListByCourse(courseID uint) ([]model.Test, error) {
	return s.TestRepo.ListByCourse(courseID)
}
