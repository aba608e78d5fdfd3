package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/inkpost/calendar"
	"github.com/cppla/inkpost/gamification"
	"github.com/cppla/inkpost/models"
	"github.com/cppla/inkpost/services"
	"github.com/cppla/inkpost/store"
	"github.com/cppla/inkpost/utils"
)

// StatsController provides site statistics and the points leaderboard.
type StatsController struct {
	db     *gorm.DB
	store  store.Store
	cal    *calendar.Calendar
	ladder *gamification.Ladder
	cache  *utils.Cache
	size   int
}

// NewStatsController creates a new StatsController instance. size bounds the leaderboard.
func NewStatsController(db *gorm.DB, st store.Store, cal *calendar.Calendar, ladder *gamification.Ladder, cache *utils.Cache, size int) *StatsController {
	if size <= 0 {
		size = 20
	}
	return &StatsController{db: db, store: st, cal: cal, ladder: ladder, cache: cache, size: size}
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        uint   `json:"user_id"`
	Username      string `json:"username"`
	AvatarURL     string `json:"avatar_url"`
	Points        int    `json:"points"`
	CurrentStreak int    `json:"current_streak"`
	Level         string `json:"level"`
}

// GetStats returns aggregate statistics for the site.
func (s *StatsController) GetStats(ctx *gin.Context) {
	key := services.StatsCachePrefix + "summary"
	if serveCached(ctx, s.cache, key) {
		return
	}

	var userCount, postCount, checkInsToday, followEdges int64
	// Counting failures fall back to 0 instead of failing the whole endpoint.
	if err := s.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		userCount = 0
	}
	if err := s.db.Model(&models.Post{}).Count(&postCount).Error; err != nil {
		postCount = 0
	}
	today := s.cal.Current().Today
	if err := s.db.Model(&models.CheckIn{}).Where("date = ?", today).Count(&checkInsToday).Error; err != nil {
		checkInsToday = 0
	}
	if err := s.db.Model(&models.Following{}).Count(&followEdges).Error; err != nil {
		followEdges = 0
	}

	successCached(ctx, s.cache, key, gin.H{
		"user_count":     userCount,
		"post_count":     postCount,
		"checkins_today": checkInsToday,
		"follow_count":   followEdges,
		"civil_date":     today,
	}, 0)
}

// Leaderboard ranks users by points.
func (s *StatsController) Leaderboard(ctx *gin.Context) {
	key := fmt.Sprintf("%s%d", services.LeaderboardCachePrefix, s.size)
	if serveCached(ctx, s.cache, key) {
		return
	}
	users, err := s.store.TopUsers(ctx.Request.Context(), s.size)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50080, "failed to load leaderboard")
		return
	}
	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		_, level := s.ladder.LevelFor(u.Points)
		entries = append(entries, LeaderboardEntry{
			Rank:          i + 1,
			UserID:        u.ID,
			Username:      u.Username,
			AvatarURL:     u.AvatarURL,
			Points:        u.Points,
			CurrentStreak: u.CurrentStreak,
			Level:         level.Name,
		})
	}
	successCached(ctx, s.cache, key, gin.H{"items": entries}, 0)
}
