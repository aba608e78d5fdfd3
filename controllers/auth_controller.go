package controllers

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/inkpost/gamification"
	"github.com/cppla/inkpost/middleware"
	"github.com/cppla/inkpost/models"
	"github.com/cppla/inkpost/services"
	"github.com/cppla/inkpost/store"
	"github.com/cppla/inkpost/utils"
)

// AuthController handles local accounts and public profiles.
type AuthController struct {
	db        *gorm.DB
	tokens    *utils.TokenIssuer
	blacklist *utils.TokenBlacklist
	cache     *utils.Cache
	ladder    *gamification.Ladder
	guard     *utils.RegistrationGuard
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB, tokens *utils.TokenIssuer, blacklist *utils.TokenBlacklist, cache *utils.Cache, ladder *gamification.Ladder, guard *utils.RegistrationGuard) *AuthController {
	return &AuthController{db: db, tokens: tokens, blacklist: blacklist, cache: cache, ladder: ladder, guard: guard}
}

// Register creates a local account and signs the user in.
func (a *AuthController) Register(ctx *gin.Context) {
	ip := ctx.ClientIP()
	if !a.guard.Allow(ctx.Request.Context(), ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42901, "too many registration attempts, please try later")
		return
	}

	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"omitempty,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if l := len([]rune(req.Username)); l < 2 || l > 32 || !validUsername(req.Username) {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username must be 2-32 letters, digits, '-' or '_'")
		return
	}

	var existing models.User
	if err := a.db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrWeakPassword) {
			utils.Error(ctx, http.StatusBadRequest, 40002, err.Error())
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
	}
	if err := a.db.Create(&user).Error; err != nil {
		if store.IsDuplicate(err) {
			utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		return
	}
	_ = a.guard.Record(ctx.Request.Context(), ip)

	token, _, err := a.tokens.Issue(user.ID, user.Username)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}
	utils.Created(ctx, gin.H{"token": token, "user": a.privateUser(user)})
}

func validUsername(s string) bool {
	for _, r := range s {
		if r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

// Login verifies user credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	token, _, err := a.tokens.Issue(user.ID, user.Username)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	utils.Success(ctx, gin.H{"token": token, "user": a.privateUser(user)})
}

// Logout revokes the bearer token until it expires.
func (a *AuthController) Logout(ctx *gin.Context) {
	token, exp := middleware.CurrentToken(ctx)
	if token == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}
	if err := a.blacklist.Revoke(ctx.Request.Context(), token, exp); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to revoke token")
		return
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}
	utils.Success(ctx, a.privateUser(user))
}

// GetUserPublic returns public user info by ID.
func (a *AuthController) GetUserPublic(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid user id")
		return
	}
	// Check-ins and follow changes evict this key.
	key := services.UserCachePrefixes(id)[0]
	if serveCached(ctx, a.cache, key) {
		return
	}

	var user models.User
	if err := a.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to get user")
		return
	}
	successCached(ctx, a.cache, key, a.publicUser(user), 0)
}

func (a *AuthController) publicUser(user models.User) gin.H {
	return gin.H{
		"id":             user.ID,
		"username":       user.Username,
		"avatar_url":     user.AvatarURL,
		"bio":            user.Bio,
		"points":         user.Points,
		"current_streak": user.CurrentStreak,
		"level":          a.ladder.ProgressToNext(user.Points),
		"followers":      user.Followers,
		"following":      user.Following,
		"created_at":     user.CreatedAt,
	}
}

func (a *AuthController) privateUser(user models.User) gin.H {
	m := a.publicUser(user)
	m["email"] = user.Email
	m["last_login_date"] = user.LastLoginDate
	m["challenge"] = user.Challenge
	return m
}
