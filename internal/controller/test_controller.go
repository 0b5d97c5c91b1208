package controller

import (
	"errors"
	"net/http"

	"learnhub_backend/internal/model"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TestController struct {
	TestService       *service.TestService
	SubmissionService *service.SubmissionService
}

func NewTestController(testService *service.TestService, submissionService *service.SubmissionService) *TestController {
	return &TestController{
		TestService:       testService,
		SubmissionService: submissionService,
	}
}

// @Summary 获取测试定义（不含答案）
// @Tags 测试
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Success 200 {object} util.Response
// @Router /api/tests/{id} [get]
func (c *TestController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	test, err := c.TestService.GetForStudent(id)
	if err != nil {
		if errors.Is(err, util.ErrAssessmentNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, test)
}

type SubmitRequest struct {
	Answers model.AnswerSet `json:"answers"`
}

// @Summary 提交作答
// @Tags 测试
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "测试ID"
// @Param body body SubmitRequest true "答案集合"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "提交已记录并判分，晋级待补齐"
// @Failure 503 {object} util.Response
// @Router /api/tests/{id}/submit [post]
func (c *TestController) Submit(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	testID := util.MustParseUint(ctx.Param("id"))

	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.SubmissionService.Submit(ctx.Request.Context(), testID, user.UserID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAssessmentNotFound):
			util.Error(ctx, http.StatusNotFound, "Assessment not found")
		case errors.Is(err, util.ErrProgressionPending):
			// 提交本身已持久化并判分，绝不能报成"提交失败"
			util.ErrorWithData(ctx, http.StatusConflict,
				"submission graded, progression pending", result)
		case errors.Is(err, util.ErrStoreUnavailable):
			util.Error(ctx, http.StatusServiceUnavailable, "Failed to record submission")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}
