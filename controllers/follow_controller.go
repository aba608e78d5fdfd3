package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkpost/services"
	"github.com/cppla/inkpost/utils"
)

// FollowController exposes the follow graph.
type FollowController struct {
	follows *services.FollowService
}

// NewFollowController creates a FollowController.
func NewFollowController(follows *services.FollowService) *FollowController {
	return &FollowController{follows: follows}
}

// ToggleFollow follows or unfollows the author in the path. The body carries
// the caller's view of the relationship.
func (f *FollowController) ToggleFollow(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	authorID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid user id")
		return
	}
	var req struct {
		IsFollowing *bool `json:"is_following" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40071, "invalid request payload")
		return
	}

	res, err := f.follows.ToggleFollow(ctx.Request.Context(), userID, authorID, *req.IsFollowing)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, res)
}

// Status reports whether the current user follows the user in the path.
func (f *FollowController) Status(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	authorID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid user id")
		return
	}
	following, err := f.follows.IsFollowing(ctx.Request.Context(), userID, authorID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"following": following})
}

// RemoveFollower detaches a follower from the current user.
func (f *FollowController) RemoveFollower(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	followerID, ok := parseIDParam(ctx, "followerId")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid user id")
		return
	}
	if err := f.follows.RemoveFollower(ctx.Request.Context(), userID, followerID); err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "follower removed"})
}

// ListFollowers pages through the user's followers.
func (f *FollowController) ListFollowers(ctx *gin.Context) {
	f.list(ctx, f.follows.Followers)
}

// ListFollowing pages through the authors the user follows.
func (f *FollowController) ListFollowing(ctx *gin.Context) {
	f.list(ctx, f.follows.Following)
}

type followLister func(ctx context.Context, userID uint, page, size int) (*services.FollowPage, error)

func (f *FollowController) list(ctx *gin.Context, fetch followLister) {
	userID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid user id")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	res, err := fetch(ctx.Request.Context(), userID, page, pageSize)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, pageData(res.Users, res.Total, page, pageSize))
}
