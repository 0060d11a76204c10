package controller

import (
	"time"

	"vocab_srs_backend/internal/fsrs"
	"vocab_srs_backend/internal/service"
	"vocab_srs_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	ReviewService *service.ReviewService
}

func NewReviewController(reviewService *service.ReviewService) *ReviewController {
	return &ReviewController{ReviewService: reviewService}
}

type recordReviewRequest struct {
	CardID     string `json:"cardId" binding:"required"`
	Rating     int    `json:"rating" binding:"required"`
	ReviewType string `json:"reviewType"`
}

// RecordReview applies one rating outside of a session, e.g. from a widget
// or an import. POST /api/reviews
func (c *ReviewController) RecordReview(ctx *gin.Context) {
	claims := util.GetLearnerFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	var req recordReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	cs, err := c.ReviewService.RecordReview(ctx.Request.Context(), claims.LearnerID, req.CardID, fsrs.Rating(req.Rating), req.ReviewType, time.Now().UTC())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, cs)
}

// PreviewIntervals returns the card state each rating would produce, for
// showing interval hints under the rating buttons. GET /api/cards/:id/preview
func (c *ReviewController) PreviewIntervals(ctx *gin.Context) {
	claims := util.GetLearnerFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	cardID := ctx.Param("id")
	previews, err := c.ReviewService.PreviewIntervals(claims.LearnerID, cardID, ctx.Query("reviewType"), time.Now().UTC())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, previews)
}
