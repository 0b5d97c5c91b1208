package controller

import (
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SkillController struct {
	Service *service.SkillService
}

func NewSkillController(svc *service.SkillService) *SkillController {
	return &SkillController{Service: svc}
}

// @Summary 技能画像
// @Tags 技能
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/skills/profile [get]
func (c *SkillController) Profile(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	nodes, err := c.Service.Aggregate(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, nodes)
}
