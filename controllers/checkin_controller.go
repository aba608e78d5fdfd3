package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkpost/services"
	"github.com/cppla/inkpost/utils"
)

// CheckInController handles daily check-in and challenge endpoints.
type CheckInController struct {
	streaks *services.StreakService
}

// NewCheckInController creates a new controller instance.
func NewCheckInController(streaks *services.StreakService) *CheckInController {
	return &CheckInController{streaks: streaks}
}

// DailyCheckIn claims today's streak reward. A repeat on the same day is not
// an error: it reports zero points and when the next reward unlocks.
func (c *CheckInController) DailyCheckIn(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	res, err := c.streaks.CheckIn(ctx.Request.Context(), userID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	message := "check-in successful"
	if res.NextRewardTime != nil {
		message = "already checked in today"
	}
	utils.Respond(ctx, http.StatusOK, 0, message, res)
}

// Status returns points, level progress and streak for the current user.
func (c *CheckInController) Status(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	status, err := c.streaks.Status(ctx.Request.Context(), userID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, status)
}

// History lists recent check-ins, newest first.
func (c *CheckInController) History(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	limit, _ := strconv.Atoi(ctx.Query("limit"))
	items, err := c.streaks.History(ctx.Request.Context(), userID, limit)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}

// QuitChallenge drops the active challenge.
func (c *CheckInController) QuitChallenge(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if err := c.streaks.QuitChallenge(ctx.Request.Context(), userID); err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "challenge cleared"})
}
