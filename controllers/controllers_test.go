package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/inkpost/calendar"
	"github.com/cppla/inkpost/gamification"
	"github.com/cppla/inkpost/middleware"
	"github.com/cppla/inkpost/models"
	"github.com/cppla/inkpost/services"
	"github.com/cppla/inkpost/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// 2024-03-10 10:00 at +05:30.
var testNow = time.Date(2024, time.March, 10, 4, 30, 0, 0, time.UTC)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type fixture struct {
	store   *store.MemoryStore
	cal     *calendar.Calendar
	ladder  *gamification.Ladder
	engine  *gamification.Engine
	catalog *gamification.Catalog
	router  *gin.Engine
}

// asUser stands in for AuthRequired by reading the X-User header.
func asUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v := c.GetHeader("X-User"); v != "" {
			var id uint
			_ = json.Unmarshal([]byte(v), &id)
			c.Set(middleware.ContextUserIDKey, id)
		}
		c.Next()
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	st.PutUser(&models.User{ID: 1, Username: "alice", Points: 10, CurrentStreak: 4, LastLoginDate: calendar.NewDate(2024, 3, 9)})
	st.PutUser(&models.User{ID: 2, Username: "bob", Points: 60})
	st.PutUser(&models.User{ID: 3, Username: "carol", Points: 5})

	cal := calendar.New(calendar.DefaultOffset, func() time.Time { return testNow })
	ladder := gamification.DefaultLadder()
	catalog, err := gamification.NewCatalog(gamification.DefaultChallenges, gamification.SelectRoundRobin, false)
	require.NoError(t, err)
	engine := gamification.NewEngine(gamification.DefaultMilestone, catalog)

	streaks := services.NewStreakService(st, cal, engine, ladder, nil, nil)
	follows := services.NewFollowService(st, nil, nil, func() time.Time { return testNow })

	checkIns := NewCheckInController(streaks)
	followCtl := NewFollowController(follows)
	stats := NewStatsController(nil, st, cal, ladder, nil, 2)
	cfgCtl := NewConfigController(cal, ladder, engine, catalog, "UTC+05:30")

	r := gin.New()
	r.Use(asUser())
	r.POST("/checkin/daily", checkIns.DailyCheckIn)
	r.GET("/checkin/status", checkIns.Status)
	r.GET("/checkin/history", checkIns.History)
	r.POST("/challenge/quit", checkIns.QuitChallenge)
	r.POST("/users/:id/follow", followCtl.ToggleFollow)
	r.GET("/users/:id/follow-status", followCtl.Status)
	r.DELETE("/users/me/followers/:followerId", followCtl.RemoveFollower)
	r.GET("/users/:id/followers", followCtl.ListFollowers)
	r.GET("/users/:id/following", followCtl.ListFollowing)
	r.GET("/leaderboard", stats.Leaderboard)
	r.GET("/config/gamification", cfgCtl.GetGamification)

	return &fixture{store: st, cal: cal, ladder: ladder, engine: engine, catalog: catalog, router: r}
}

func (f *fixture) do(t *testing.T, method, path, user string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User", user)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestDailyCheckInEndpoint(t *testing.T) {
	f := newFixture(t)

	code, env := f.do(t, http.MethodPost, "/checkin/daily", "1", nil)
	require.Equal(t, http.StatusOK, code)
	var res services.CheckInResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 5, res.Streak)
	assert.Equal(t, 5, res.PointsAwarded)
	assert.Equal(t, 15, res.TotalPoints)
	require.NotNil(t, res.Challenge)
	assert.Nil(t, res.NextRewardTime)

	code, env = f.do(t, http.MethodPost, "/checkin/daily", "1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "already checked in today", env.Message)
	res = services.CheckInResult{}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 0, res.PointsAwarded)
	assert.Equal(t, 5, res.Streak)
	require.NotNil(t, res.NextRewardTime)

	code, env = f.do(t, http.MethodGet, "/checkin/history", "1", nil)
	require.Equal(t, http.StatusOK, code)
	var history struct {
		Items []models.CheckIn `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history.Items, 1)
	assert.Equal(t, "2024-03-10", history.Items[0].Date.String())
}

func TestCheckInErrorMapping(t *testing.T) {
	f := newFixture(t)

	code, _ := f.do(t, http.MethodPost, "/checkin/daily", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := f.do(t, http.MethodPost, "/checkin/daily", "99", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, 40410, env.Code)

	code, _ = f.do(t, http.MethodPost, "/challenge/quit", "99", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStatusAndQuitChallenge(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodPost, "/checkin/daily", "1", nil)

	code, env := f.do(t, http.MethodGet, "/checkin/status", "1", nil)
	require.Equal(t, http.StatusOK, code)
	var status services.StreakStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.CheckedInToday)
	assert.NotNil(t, status.Challenge)

	code, _ = f.do(t, http.MethodPost, "/challenge/quit", "1", nil)
	require.Equal(t, http.StatusOK, code)

	u, err := f.store.GetUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, u.Challenge)
}

func TestFollowEndpoints(t *testing.T) {
	f := newFixture(t)

	code, env := f.do(t, http.MethodPost, "/users/2/follow", "1", gin.H{"is_following": false})
	require.Equal(t, http.StatusOK, code)
	var res services.FollowResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Following)

	code, env = f.do(t, http.MethodGet, "/users/2/follow-status", "1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"following":true}`, string(env.Data))

	code, env = f.do(t, http.MethodGet, "/users/2/followers", "", nil)
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Items []services.FollowEntry `json:"items"`
		Total int64                  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "alice", page.Items[0].Username)

	code, _ = f.do(t, http.MethodDelete, "/users/me/followers/1", "2", nil)
	require.Equal(t, http.StatusOK, code)
	a, b := f.store.HasEdge(1, 2)
	assert.False(t, a)
	assert.False(t, b)
}

func TestFollowEndpointValidation(t *testing.T) {
	f := newFixture(t)

	code, env := f.do(t, http.MethodPost, "/users/1/follow", "1", gin.H{"is_following": false})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 40070, env.Code)

	code, _ = f.do(t, http.MethodPost, "/users/2/follow", "1", gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPost, "/users/abc/follow", "1", gin.H{"is_following": false})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPost, "/users/42/follow", "1", gin.H{"is_following": false})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(t, http.MethodPost, "/users/2/follow", "", gin.H{"is_following": false})
	assert.Equal(t, http.StatusUnauthorized, code)

	followers, _ := f.store.GetUser(context.Background(), 2)
	assert.Equal(t, 0, followers.Followers)
}

func TestLeaderboard(t *testing.T) {
	f := newFixture(t)

	code, env := f.do(t, http.MethodGet, "/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, code)
	var board struct {
		Items []LeaderboardEntry `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &board))
	require.Len(t, board.Items, 2)
	assert.Equal(t, "bob", board.Items[0].Username)
	assert.Equal(t, "Scribbler", board.Items[0].Level)
	assert.Equal(t, 2, board.Items[1].Rank)
	assert.Equal(t, "alice", board.Items[1].Username)
}

func TestGamificationConfig(t *testing.T) {
	f := newFixture(t)

	code, env := f.do(t, http.MethodGet, "/config/gamification", "", nil)
	require.Equal(t, http.StatusOK, code)
	var cfg struct {
		Levels     []gamification.Level        `json:"levels"`
		Milestone  int                         `json:"milestone"`
		Challenges []gamification.ChallengeDef `json:"challenges"`
		Selection  string                      `json:"selection"`
		Today      string                      `json:"today"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &cfg))
	assert.Len(t, cfg.Levels, len(gamification.DefaultLevels))
	assert.Equal(t, 5, cfg.Milestone)
	assert.Equal(t, "round_robin", cfg.Selection)
	assert.Equal(t, "2024-03-10", cfg.Today)
}

func TestGetStatsCountsFromDatabase(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `users`").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `posts`").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `check_ins` WHERE date = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `user_following`").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	cal := calendar.New(calendar.DefaultOffset, func() time.Time { return testNow })
	stats := NewStatsController(db, store.NewMemoryStore(), cal, gamification.DefaultLadder(), nil, 10)
	r := gin.New()
	r.GET("/stats", stats.GetStats)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":0,"message":"success","data":{"user_count":3,"post_count":7,"checkins_today":2,"follow_count":4,"civil_date":"2024-03-10"}}`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
