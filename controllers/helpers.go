package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkpost/middleware"
	"github.com/cppla/inkpost/services"
	"github.com/cppla/inkpost/utils"
)

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func pageData(items interface{}, total int64, page, pageSize int) utils.PageData {
	return utils.PageData{Items: items, Total: total, Page: page, PageSize: pageSize}
}

func getUserID(ctx *gin.Context) (uint, bool) {
	id := middleware.CurrentUserID(ctx)
	return id, id != 0
}

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(ctx.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// respondServiceError maps service sentinels onto the response envelope.
func respondServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
	case errors.Is(err, services.ErrInvalidOperation):
		utils.Error(ctx, http.StatusBadRequest, 40070, err.Error())
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50070, services.ErrOperationFailed.Error())
	}
}

// serveCached writes a previously cached envelope for key.
func serveCached(ctx *gin.Context, cache *utils.Cache, key string) bool {
	b, ok := cache.GetBytes(ctx.Request.Context(), key)
	if !ok {
		return false
	}
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
	return true
}

// successCached responds with payload and stores the same envelope under key.
func successCached(ctx *gin.Context, cache *utils.Cache, key string, payload interface{}, ttl time.Duration) {
	cache.SetJSON(ctx.Request.Context(), key, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, ttl)
	utils.Success(ctx, payload)
}
