package controller

import (
	"io"
	"time"

	"vocab_srs_backend/internal/model"
	"vocab_srs_backend/internal/service"
	"vocab_srs_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
	QueueService   *service.QueueService
}

func NewSessionController(sessionService *service.SessionService, queueService *service.QueueService) *SessionController {
	return &SessionController{SessionService: sessionService, QueueService: queueService}
}

type startSessionRequest struct {
	DeckID               string `json:"deckId" binding:"required"`
	NewCardsPerSession   int    `json:"newCardsPerSession"`
	MaxReviewsPerSession int    `json:"maxReviewsPerSession"`
	LearnAheadMinutes    int    `json:"learnAheadMinutes"`
}

func (r *startSessionRequest) config() model.SessionConfig {
	cfg := model.SessionConfig{
		NewCardsPerSession:   r.NewCardsPerSession,
		MaxReviewsPerSession: r.MaxReviewsPerSession,
		LearnAheadMinutes:    r.LearnAheadMinutes,
	}
	if cfg.NewCardsPerSession <= 0 {
		cfg.NewCardsPerSession = util.DefaultNewCardsPerSession
	}
	if cfg.MaxReviewsPerSession <= 0 {
		cfg.MaxReviewsPerSession = util.DefaultMaxReviewsPerSession
	}
	if cfg.LearnAheadMinutes <= 0 {
		cfg.LearnAheadMinutes = util.DefaultLearnAheadMinutes
	}
	return cfg
}

// Start opens a session over a deck. POST /api/sessions
func (c *SessionController) Start(ctx *gin.Context) {
	claims := util.GetLearnerFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	var req startSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	sp, err := c.SessionService.Start(ctx.Request.Context(), claims.LearnerID, req.DeckID, req.config(), time.Now().UTC())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, sp)
}

// SubmitAction applies one action to the session. The payload is parsed and
// validated before any state is touched. POST /api/sessions/:id/actions
func (c *SessionController) SubmitAction(ctx *gin.Context) {
	claims := util.GetLearnerFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	body, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		util.BadRequest(ctx, "unreadable body")
		return
	}
	action, err := service.ParseAction(body)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	snap, err := c.SessionService.Submit(ctx.Request.Context(), claims.LearnerID, ctx.Param("id"), action, time.Now().UTC())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// Get returns the live session progress. GET /api/sessions/:id
func (c *SessionController) Get(ctx *gin.Context) {
	claims := util.GetLearnerFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	sp, err := c.SessionService.Get(ctx.Request.Context(), claims.LearnerID, ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, sp)
}

// End terminates a session early and returns the final snapshot.
// DELETE /api/sessions/:id
func (c *SessionController) End(ctx *gin.Context) {
	claims := util.GetLearnerFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	snap, err := c.SessionService.End(ctx.Request.Context(), claims.LearnerID, ctx.Param("id"), time.Now().UTC())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, snap)
}

// DeckQueue previews the due queue of a deck without opening a session.
// GET /api/decks/:id/queue
func (c *SessionController) DeckQueue(ctx *gin.Context) {
	claims := util.GetLearnerFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	var req startSessionRequest
	req.DeckID = ctx.Param("id")
	_, queue, err := c.QueueService.BuildForDeck(claims.LearnerID, req.DeckID, req.config(), time.Now().UTC())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deckId": req.DeckID, "queue": queue, "count": len(queue)})
}
