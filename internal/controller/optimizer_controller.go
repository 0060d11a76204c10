package controller

import (
	"vocab_srs_backend/internal/service"
	"vocab_srs_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type OptimizerController struct {
	OptimizerService *service.OptimizerService
}

func NewOptimizerController(optimizerService *service.OptimizerService) *OptimizerController {
	return &OptimizerController{OptimizerService: optimizerService}
}

type jobRequest struct {
	ReviewType string `json:"reviewType"`
}

// RequestOptimization enqueues a parameter-fitting job. Submitting while a
// job is already active returns that job. POST /api/optimize
func (c *OptimizerController) RequestOptimization(ctx *gin.Context) {
	claims := util.GetLearnerFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	var req jobRequest
	_ = ctx.ShouldBindJSON(&req) // body optional
	job, err := c.OptimizerService.RequestOptimization(claims.LearnerID, req.ReviewType, claims.LearnerID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, job)
}

// RequestCacheRebuild enqueues a card-state rebuild job. POST /api/rebuild
func (c *OptimizerController) RequestCacheRebuild(ctx *gin.Context) {
	claims := util.GetLearnerFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	var req jobRequest
	_ = ctx.ShouldBindJSON(&req)
	job, err := c.OptimizerService.RequestCacheRebuild(claims.LearnerID, req.ReviewType, claims.LearnerID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, job)
}

// ListJobs returns the learner's recent jobs, newest first.
// GET /api/jobs
func (c *OptimizerController) ListJobs(ctx *gin.Context) {
	claims := util.GetLearnerFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	jobs, err := c.OptimizerService.ListJobs(claims.LearnerID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, jobs)
}

// GetJob reports job status and, once completed, its result summary.
// GET /api/jobs/:id
func (c *OptimizerController) GetJob(ctx *gin.Context) {
	claims := util.GetLearnerFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	job, err := c.OptimizerService.GetJob(claims.LearnerID, ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, job)
}
