package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/inkpost/calendar"
	"github.com/cppla/inkpost/gamification"
	"github.com/cppla/inkpost/utils"
)

// ConfigController serves read-only gamification settings to clients.
type ConfigController struct {
	cal     *calendar.Calendar
	ladder  *gamification.Ladder
	engine  *gamification.Engine
	catalog *gamification.Catalog
	offset  string
}

func NewConfigController(cal *calendar.Calendar, ladder *gamification.Ladder, engine *gamification.Engine, catalog *gamification.Catalog, offset string) *ConfigController {
	return &ConfigController{cal: cal, ladder: ladder, engine: engine, catalog: catalog, offset: offset}
}

// GetGamification returns levels, milestone, challenge pool and the civil day in effect.
func (c *ConfigController) GetGamification(ctx *gin.Context) {
	day := c.cal.Current()
	utils.Success(ctx, gin.H{
		"levels":         c.ladder.Levels(),
		"milestone":      c.engine.Milestone(),
		"challenges":     c.catalog.Definitions(),
		"selection":      c.catalog.Policy(),
		"utc_offset":     c.offset,
		"today":          day.Today,
		"next_day_start": day.NextDayStart,
	})
}
