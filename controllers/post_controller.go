package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/inkpost/models"
	"github.com/cppla/inkpost/utils"
)

// PostCategories lists the accepted post categories; the first is the default.
var PostCategories = []string{"general", "tech", "review", "news", "showcase"}

// PostController manages posts.
type PostController struct {
	db    *gorm.DB
	cache *utils.Cache
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, cache *utils.Cache) *PostController {
	return &PostController{db: db, cache: cache}
}

func validCategory(c string) bool {
	for _, v := range PostCategories {
		if v == c {
			return true
		}
	}
	return false
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Title    string `json:"title" binding:"required"`
		Content  string `json:"content" binding:"required"`
		Category string `json:"category"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := utils.SanitizePlain(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = PostCategories[0]
	}
	if !validCategory(category) {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid category")
		return
	}

	post := models.Post{
		UserID:   userID,
		Title:    title,
		Content:  utils.Sanitize(req.Content),
		Category: category,
	}
	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}
	if err := p.db.Preload("User").First(&post, post.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	p.cache.Invalidate(ctx.Request.Context(),
		"cache:posts:list:",
		fmt.Sprintf("cache:user:%d:posts:", userID),
	)
	utils.Created(ctx, gin.H{"post": post})
}

// ListPosts returns paginated posts including author information.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	search := strings.TrimSpace(ctx.Query("search"))
	category := strings.TrimSpace(ctx.Query("category"))

	// Only unsearched lists are cached to keep the key space bounded.
	cacheKey := fmt.Sprintf("cache:posts:list:cat=%s:page=%d:size=%d", category, page, pageSize)
	if search == "" && serveCached(ctx, p.cache, cacheKey) {
		return
	}

	query := p.db.Model(&models.Post{})
	if search != "" {
		query = query.Where("title LIKE ? OR content LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	payload, ok := p.page(ctx, query, page, pageSize)
	if !ok {
		return
	}
	if search == "" {
		successCached(ctx, p.cache, cacheKey, payload, 0)
		return
	}
	utils.Success(ctx, payload)
}

// GetPost returns a single post.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid post id")
		return
	}
	cacheKey := fmt.Sprintf("cache:post:detail:%d", postID)
	if serveCached(ctx, p.cache, cacheKey) {
		return
	}

	var post models.Post
	if err := p.db.Preload("User").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}
	successCached(ctx, p.cache, cacheKey, gin.H{"post": post}, 0)
}

// ListUserPosts returns posts created by a specific user.
func (p *PostController) ListUserPosts(ctx *gin.Context) {
	userID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid user id")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	cacheKey := fmt.Sprintf("cache:user:%d:posts:page=%d:size=%d", userID, page, pageSize)
	if serveCached(ctx, p.cache, cacheKey) {
		return
	}
	payload, ok := p.page(ctx, p.db.Model(&models.Post{}).Where("user_id = ?", userID), page, pageSize)
	if !ok {
		return
	}
	successCached(ctx, p.cache, cacheKey, payload, 0)
}

// Feed lists posts by the authors the current user follows, newest first.
func (p *PostController) Feed(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	authors := p.db.Model(&models.Following{}).Select("author_id").Where("user_id = ?", userID)
	payload, ok := p.page(ctx, p.db.Model(&models.Post{}).Where("user_id IN (?)", authors), page, pageSize)
	if !ok {
		return
	}
	utils.Success(ctx, payload)
}

// DeletePost allows the author to delete their post.
func (p *PostController) DeletePost(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}
	postID, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid post id")
		return
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40404, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to load post")
		return
	}
	if post.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40302, "you can only delete your own posts")
		return
	}
	if err := p.db.Delete(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to delete post")
		return
	}

	p.cache.Invalidate(ctx.Request.Context(),
		"cache:posts:list:",
		fmt.Sprintf("cache:post:detail:%d", postID),
		fmt.Sprintf("cache:user:%d:posts:", post.UserID),
	)
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// page counts and loads one page of query, writing an error response on failure.
func (p *PostController) page(ctx *gin.Context, query *gorm.DB, page, pageSize int) (utils.PageData, bool) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count posts")
		return utils.PageData{}, false
	}
	var posts []models.Post
	if err := query.Session(&gorm.Session{}).Preload("User").Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return utils.PageData{}, false
	}
	return pageData(posts, total, page, pageSize), true
}
