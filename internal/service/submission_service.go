package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errNotEnrolled 区分"从未选课"与真正的写失败，前者是软失败：
// 判分不能因为选课台账的问题而报错
var errNotEnrolled = errors.New("learner not enrolled in course")

// SubmissionService 提交编排器。一次 Submit 依次执行：
// 读定义 → 纯判分 → 落台账 → （及格时）晋级 + 升角色。
//
// 事务边界是显式选择的：台账写入独立于晋级事务——提交记录是
// "这次作答发生过"的持久事实，不随下游失败回滚；晋级状态迁移和
// 角色升级共用一个事务，内部全部是条件更新，并发重复应用收敛到
// 同一终态。台账已写而晋级事务未完成的窗口由对账扫描补上。
type SubmissionService struct {
	TestRepo       *repository.TestRepository
	AttemptRepo    *repository.AttemptRepository
	EnrollmentRepo *repository.EnrollmentRepository
	UserRepo       *repository.UserRepository
	DB             *gorm.DB
	Cache          *SkillCache

	// 晋级事务的最大重试次数，超过后以 Conflict 上浮。
	// 配置热更新会改它，原子访问。
	retries int32
}

func NewSubmissionService(
	testRepo *repository.TestRepository,
	attemptRepo *repository.AttemptRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	userRepo *repository.UserRepository,
	db *gorm.DB,
	cache *SkillCache,
	retries int,
) *SubmissionService {
	if retries <= 0 {
		retries = 3
	}
	return &SubmissionService{
		TestRepo:       testRepo,
		AttemptRepo:    attemptRepo,
		EnrollmentRepo: enrollmentRepo,
		UserRepo:       userRepo,
		DB:             db,
		Cache:          cache,
		retries:        int32(retries),
	}
}

// SetRetries 配置热更新入口
func (s *SubmissionService) SetRetries(n int) {
	if n > 0 {
		atomic.StoreInt32(&s.retries, int32(n))
	}
}

type SubmissionResult struct {
	AttemptID string              `json:"attemptId"`
	Score     *int                `json:"score"` // 待人工批改时为空
	Status    model.AttemptStatus `json:"status"`

	CourseCompleted    bool `json:"courseCompleted"`
	RolePromoted       bool `json:"rolePromoted"`
	ProgressionPending bool `json:"progressionPending"`
}

// Submit 处理一次作答提交。
//
// 台账写入失败时整个操作失败（ErrStoreUnavailable），对调用方来说
// 这次提交没有发生。台账写入成功之后的晋级失败不会伪装成提交失败：
// 返回的结果里带着已判分的提交，错误是 ErrProgressionPending
// （包裹 ErrConflict），对账扫描稍后会补齐晋级。
func (s *SubmissionService) Submit(ctx context.Context, testID, userID uint, answers model.AnswerSet) (*SubmissionResult, error) {
	test, err := s.TestRepo.FindByID(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAssessmentNotFound
		}
		return nil, err
	}

	percent, status := ScoreTest(test, answers)

	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}

	attempt := &model.TestResult{
		TestID:      testID,
		UserID:      userID,
		Answers:     answersJSON,
		Status:      status,
		SubmittedAt: time.Now(),
	}
	if status == model.AttemptGraded {
		attempt.Score = &percent
	}

	if err := s.AttemptRepo.Create(attempt); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrStoreUnavailable, err)
	}
	monitoring.SubmissionCounter.WithLabelValues(string(status)).Inc()

	result := &SubmissionResult{
		AttemptID: attempt.ID,
		Score:     attempt.Score,
		Status:    status,
	}

	if status != model.AttemptGraded {
		return result, nil
	}

	s.Cache.Invalidate(ctx, userID)

	if percent < test.Threshold() {
		return result, nil
	}

	completed, promoted, err := s.applyProgression(ctx, userID, test.CourseID)
	if err != nil {
		logger.Log.Error("progression failed after attempt recorded",
			zap.String("attemptId", attempt.ID),
			zap.Uint("userId", userID),
			zap.Uint("courseId", test.CourseID),
			zap.Error(err))
		result.ProgressionPending = true
		return result, fmt.Errorf("%w: %w", util.ErrProgressionPending, err)
	}
	result.CourseCompleted = completed
	result.RolePromoted = promoted

	return result, nil
}

// applyProgression 在一个事务内执行选课状态迁移和角色升级，两步都是
// 条件更新，整体幂等。事务失败时带最新读取状态重试，重试耗尽后以
// Conflict 上浮。从未选课按软失败处理：记日志、不报错、不晋级。
func (s *SubmissionService) applyProgression(ctx context.Context, userID, courseID uint) (bool, bool, error) {
	var completed, promoted bool
	var lastErr error

	retries := int(atomic.LoadInt32(&s.retries))
	for i := 0; i < retries; i++ {
		completed, promoted = false, false
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			did, err := s.EnrollmentRepo.Complete(tx, userID, courseID, time.Now())
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errNotEnrolled
				}
				return err
			}
			completed = did

			// 角色升级只跟在真正发生的状态迁移后面，
			// 并发重复提交最多产生一次升级
			if did {
				p, err := s.UserRepo.PromoteCandidate(tx, userID)
				if err != nil {
					return err
				}
				promoted = p
			}
			return nil
		})

		if err == nil {
			if completed {
				monitoring.CompletionCounter.Inc()
			}
			if promoted {
				monitoring.PromotionCounter.Inc()
			}
			return completed, promoted, nil
		}
		if errors.Is(err, errNotEnrolled) {
			logger.Log.Info("passing submission for course without enrollment, skipping progression",
				zap.Uint("userId", userID),
				zap.Uint("courseId", courseID))
			return false, false, nil
		}
		lastErr = err
	}

	return false, false, fmt.Errorf("%w: %v", util.ErrConflict, lastErr)
}

// ReconcileUser 对账：重放该学员所有已判分且及格的提交的晋级步骤。
// 全部操作幂等，已完成的不再变化。覆盖 Submit 在台账写入之后
// 被取消或超时留下的窗口。
func (s *SubmissionService) ReconcileUser(ctx context.Context, userID uint) error {
	attempts, err := s.AttemptRepo.ListGradedByUser(userID)
	if err != nil {
		return err
	}

	for _, attempt := range attempts {
		if attempt.Score == nil {
			continue
		}
		test, err := s.TestRepo.FindByID(attempt.TestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}
		if *attempt.Score < test.Threshold() {
			continue
		}
		if _, _, err := s.applyProgression(ctx, userID, test.CourseID); err != nil {
			return err
		}
	}
	return nil
}

// ReconcileRecent 后台扫描入口：对窗口期内产生过已判分提交的学员补跑对账
func (s *SubmissionService) ReconcileRecent(ctx context.Context, window time.Duration) error {
	userIDs, err := s.AttemptRepo.RecentGradedUserIDs(time.Now().Add(-window))
	if err != nil {
		return err
	}
	for _, uid := range userIDs {
		if err := s.ReconcileUser(ctx, uid); err != nil {
			logger.Log.Error("reconcile failed", zap.Uint("userId", uid), zap.Error(err))
		}
	}
	return nil
}
