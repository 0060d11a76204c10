package controller

import (
	"time"

	"vocab_srs_backend/internal/service"
	"vocab_srs_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StatsController struct {
	StatsService *service.StatsService
}

func NewStatsController(statsService *service.StatsService) *StatsController {
	return &StatsController{StatsService: statsService}
}

// GetStats returns the learner's scheduling overview. GET /api/stats
func (c *StatsController) GetStats(ctx *gin.Context) {
	claims := util.GetLearnerFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	stats, err := c.StatsService.ForLearner(claims.LearnerID, ctx.Query("reviewType"), time.Now().UTC())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
