package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_AssessmentNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.submission.Submit(context.Background(), 9999, f.user.ID, passingAnswers())
	require.ErrorIs(t, err, util.ErrAssessmentNotFound)

	// 任何写入都不应该发生
	var count int64
	f.db.Model(&model.TestResult{}).Count(&count)
	assert.Zero(t, count)
}

func TestSubmit_PassingSubmission(t *testing.T) {
	f := newFixture(t)

	result, err := f.submission.Submit(context.Background(), f.test.ID, f.user.ID, passingAnswers())
	require.NoError(t, err)

	require.NotNil(t, result.Score)
	assert.Equal(t, 75, *result.Score)
	assert.Equal(t, model.AttemptGraded, result.Status)
	assert.NotEmpty(t, result.AttemptID)
	assert.True(t, result.CourseCompleted)
	assert.True(t, result.RolePromoted)
	assert.False(t, result.ProgressionPending)

	e := f.reloadEnrollment(t)
	assert.Equal(t, model.EnrollmentCompleted, e.Status)
	assert.Equal(t, 100, e.Progress)
	require.NotNil(t, e.CompletedAt)

	u := f.reloadUser(t)
	assert.Equal(t, model.RoleLearner, u.Role)
}

func TestSubmit_FailingSubmission(t *testing.T) {
	f := newFixture(t)

	result, err := f.submission.Submit(context.Background(), f.test.ID, f.user.ID, failingAnswers())
	require.NoError(t, err)

	require.NotNil(t, result.Score)
	assert.Equal(t, 50, *result.Score)
	assert.Equal(t, model.AttemptGraded, result.Status)
	assert.False(t, result.CourseCompleted)
	assert.False(t, result.RolePromoted)

	// 不及格：选课停在 started，角色不动
	e := f.reloadEnrollment(t)
	assert.Equal(t, model.EnrollmentStarted, e.Status)
	assert.Nil(t, e.CompletedAt)

	u := f.reloadUser(t)
	assert.Equal(t, model.RoleCandidate, u.Role)
}

func TestSubmit_ManualTestNeverProgresses(t *testing.T) {
	f := newFixture(t)

	data, err := json.Marshal([]model.Question{{Kind: model.QuestionManual, Prompt: "essay"}})
	require.NoError(t, err)
	manual := &model.Test{
		CourseID:  f.course.ID,
		Title:     "Essay",
		Type:      model.TestManual,
		Questions: data,
		// 及格线 0 也不会触发晋级：submitted 状态没有分数可比
		PassingScore: 0,
	}
	require.NoError(t, f.db.Create(manual).Error)

	result, err := f.submission.Submit(context.Background(), manual.ID, f.user.ID,
		model.AnswerSet{0: model.TextAnswer("my essay")})
	require.NoError(t, err)

	assert.Nil(t, result.Score)
	assert.Equal(t, model.AttemptSubmitted, result.Status)
	assert.False(t, result.CourseCompleted)

	e := f.reloadEnrollment(t)
	assert.Equal(t, model.EnrollmentStarted, e.Status)
}

func TestSubmit_EveryAttemptRecorded(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.submission.Submit(context.Background(), f.test.ID, f.user.ID, passingAnswers())
		require.NoError(t, err)
	}

	var count int64
	f.db.Model(&model.TestResult{}).
		Where("user_id = ? AND test_id = ?", f.user.ID, f.test.ID).Count(&count)
	assert.EqualValues(t, 3, count)
}

func TestSubmit_RepeatedPassIsIdempotent(t *testing.T) {
	f := newFixture(t)

	_, err := f.submission.Submit(context.Background(), f.test.ID, f.user.ID, passingAnswers())
	require.NoError(t, err)
	first := f.reloadEnrollment(t)
	require.NotNil(t, first.CompletedAt)

	time.Sleep(20 * time.Millisecond)

	result, err := f.submission.Submit(context.Background(), f.test.ID, f.user.ID, passingAnswers())
	require.NoError(t, err)
	// 第二次没有发生新的状态迁移
	assert.False(t, result.CourseCompleted)
	assert.False(t, result.RolePromoted)

	second := f.reloadEnrollment(t)
	assert.Equal(t, model.EnrollmentCompleted, second.Status)
	require.NotNil(t, second.CompletedAt)
	// 完成时间保持首次的值
	assert.True(t, first.CompletedAt.Equal(*second.CompletedAt),
		"completion timestamp changed: %v != %v", first.CompletedAt, second.CompletedAt)

	u := f.reloadUser(t)
	assert.Equal(t, model.RoleLearner, u.Role)
}

func TestSubmit_MissingEnrollmentIsSoftNoop(t *testing.T) {
	f := newFixture(t)

	// 删掉选课记录：判分不受影响，晋级静默跳过
	require.NoError(t, f.db.Unscoped().
		Where("user_id = ?", f.user.ID).Delete(&model.CourseEnrollment{}).Error)

	result, err := f.submission.Submit(context.Background(), f.test.ID, f.user.ID, passingAnswers())
	require.NoError(t, err)

	require.NotNil(t, result.Score)
	assert.Equal(t, 75, *result.Score)
	assert.False(t, result.CourseCompleted)
	assert.False(t, result.RolePromoted)
	assert.False(t, result.ProgressionPending)

	// 引擎绝不代替学员选课
	var count int64
	f.db.Model(&model.CourseEnrollment{}).Count(&count)
	assert.Zero(t, count)

	u := f.reloadUser(t)
	assert.Equal(t, model.RoleCandidate, u.Role)
}

func TestSubmit_SupervisorRoleUntouched(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(f.user).Update("role", model.RoleSupervisor).Error)

	result, err := f.submission.Submit(context.Background(), f.test.ID, f.user.ID, passingAnswers())
	require.NoError(t, err)

	assert.True(t, result.CourseCompleted)
	assert.False(t, result.RolePromoted)

	u := f.reloadUser(t)
	assert.Equal(t, model.RoleSupervisor, u.Role)
}

func TestSubmit_AttemptWriteFailureAborts(t *testing.T) {
	f := newFixture(t)

	// 台账表没了，第 3 步必然失败，整个操作以硬失败终止
	require.NoError(t, f.db.Migrator().DropTable(&model.TestResult{}))

	_, err := f.submission.Submit(context.Background(), f.test.ID, f.user.ID, passingAnswers())
	require.ErrorIs(t, err, util.ErrStoreUnavailable)

	// 晋级步骤没有被执行
	e := f.reloadEnrollment(t)
	assert.Equal(t, model.EnrollmentStarted, e.Status)
	u := f.reloadUser(t)
	assert.Equal(t, model.RoleCandidate, u.Role)
}

func TestSubmit_ConcurrentPassingSubmissionsConverge(t *testing.T) {
	f := newFixture(t)

	const n = 8
	var wg sync.WaitGroup
	results := make([]*SubmissionResult, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.submission.Submit(context.Background(), f.test.ID, f.user.ID, passingAnswers())
		}(i)
	}
	wg.Wait()

	completions, promotions := 0, 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		if results[i].CourseCompleted {
			completions++
		}
		if results[i].RolePromoted {
			promotions++
		}
	}

	// N 份台账记录，但只有一次状态迁移和一次角色升级
	var count int64
	f.db.Model(&model.TestResult{}).Where("user_id = ?", f.user.ID).Count(&count)
	assert.EqualValues(t, n, count)
	assert.Equal(t, 1, completions, "exactly one observable completion transition")
	assert.Equal(t, 1, promotions, "exactly one observable promotion")

	e := f.reloadEnrollment(t)
	assert.Equal(t, model.EnrollmentCompleted, e.Status)
	u := f.reloadUser(t)
	assert.Equal(t, model.RoleLearner, u.Role)
}

func TestReconcileUser_RepairsMissedProgression(t *testing.T) {
	f := newFixture(t)

	// 模拟 Submit 在台账写入后被打断：只有记录，没有晋级
	score := 80
	answersJSON, _ := json.Marshal(passingAnswers())
	attempt := &model.TestResult{
		TestID:      f.test.ID,
		UserID:      f.user.ID,
		Answers:     answersJSON,
		Score:       &score,
		Status:      model.AttemptGraded,
		SubmittedAt: time.Now(),
	}
	require.NoError(t, f.db.Create(attempt).Error)

	require.NoError(t, f.submission.ReconcileUser(context.Background(), f.user.ID))

	e := f.reloadEnrollment(t)
	assert.Equal(t, model.EnrollmentCompleted, e.Status)
	u := f.reloadUser(t)
	assert.Equal(t, model.RoleLearner, u.Role)

	// 再跑一遍是空操作
	before := *e.CompletedAt
	require.NoError(t, f.submission.ReconcileUser(context.Background(), f.user.ID))
	after := f.reloadEnrollment(t)
	assert.True(t, before.Equal(*after.CompletedAt))
}

func TestReconcileUser_IgnoresFailingAttempts(t *testing.T) {
	f := newFixture(t)

	score := 50
	answersJSON, _ := json.Marshal(failingAnswers())
	require.NoError(t, f.db.Create(&model.TestResult{
		TestID:      f.test.ID,
		UserID:      f.user.ID,
		Answers:     answersJSON,
		Score:       &score,
		Status:      model.AttemptGraded,
		SubmittedAt: time.Now(),
	}).Error)

	require.NoError(t, f.submission.ReconcileUser(context.Background(), f.user.ID))

	e := f.reloadEnrollment(t)
	assert.Equal(t, model.EnrollmentStarted, e.Status)
}
