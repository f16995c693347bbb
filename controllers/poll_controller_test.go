package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"Stitchup/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// pollRouter registers the public poll routes plus the admin ones without the
// auth middlewares, so admin behavior can be tested in isolation.
func pollRouter(server *Server) *gin.Engine {
	r := gin.New()
	r.GET("/api/v1/poll", server.GetPoll)
	r.POST("/api/v1/poll/vote", server.CastPollVote)
	r.PUT("/api/v1/admin/poll", server.AdminUpdatePoll)
	r.PATCH("/api/v1/admin/poll/active", server.AdminTogglePoll)
	r.POST("/api/v1/admin/poll/reset", server.AdminResetPoll)
	return r
}

func createTestPoll(t *testing.T, server *Server) *models.Poll {
	t.Helper()
	poll, err := models.ReplacePoll(server.DB, "Which drop next?", []string{"Tee", "Crewneck", "Cap"})
	if err != nil {
		t.Fatalf("Failed to create poll: %v", err)
	}
	return poll
}

func castPollVote(r *gin.Engine, optionID uint, clientIP string) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(map[string]uint{"option_id": optionID})
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/poll/vote", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", clientIP)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getPoll(r *gin.Engine, clientIP string) map[string]interface{} {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/poll", nil)
	req.Header.Set("X-Forwarded-For", clientIP)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body["response"].(map[string]interface{})
}

func TestCastPollVote_FirstVote(t *testing.T) {
	server := newTestServer(t)
	r := pollRouter(server)
	poll := createTestPoll(t, server)

	w := castPollVote(r, poll.Options[0].ID, "203.0.113.7")
	assert.Equal(t, http.StatusOK, w.Code)

	tallies, err := models.TallyPoll(server.DB, poll)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), tallies[poll.Options[0].ID])
	assert.Equal(t, int64(0), tallies[poll.Options[1].ID])
}

func TestCastPollVote_SameOptionIsIdempotent(t *testing.T) {
	server := newTestServer(t)
	r := pollRouter(server)
	poll := createTestPoll(t, server)

	assert.Equal(t, http.StatusOK, castPollVote(r, poll.Options[0].ID, "203.0.113.7").Code)
	assert.Equal(t, http.StatusOK, castPollVote(r, poll.Options[0].ID, "203.0.113.7").Code)

	tallies, _ := models.TallyPoll(server.DB, poll)
	assert.Equal(t, int64(1), tallies[poll.Options[0].ID])
}

func TestCastPollVote_MovesBallot(t *testing.T) {
	server := newTestServer(t)
	r := pollRouter(server)
	poll := createTestPoll(t, server)

	assert.Equal(t, http.StatusOK, castPollVote(r, poll.Options[0].ID, "203.0.113.7").Code)
	assert.Equal(t, http.StatusOK, castPollVote(r, poll.Options[1].ID, "203.0.113.7").Code)

	// The ballot moved: one vote total, now on the second option.
	tallies, _ := models.TallyPoll(server.DB, poll)
	assert.Equal(t, int64(0), tallies[poll.Options[0].ID])
	assert.Equal(t, int64(1), tallies[poll.Options[1].ID])

	ballot, err := models.FindPollBallot(server.DB, poll.ID, "203.0.113.7")
	assert.NoError(t, err)
	assert.NotNil(t, ballot)
	assert.Equal(t, poll.Options[1].ID, ballot.OptionID)
}

func TestCastPollVote_InactivePoll(t *testing.T) {
	server := newTestServer(t)
	r := pollRouter(server)
	poll := createTestPoll(t, server)

	_, err := models.TogglePoll(server.DB, false)
	assert.NoError(t, err)

	w := castPollVote(r, poll.Options[0].ID, "203.0.113.7")
	assert.Equal(t, http.StatusConflict, w.Code)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	errs := body["error"].(map[string]interface{})
	assert.Contains(t, errs, "Poll_inactive")

	tallies, _ := models.TallyPoll(server.DB, poll)
	assert.Equal(t, int64(0), tallies[poll.Options[0].ID])
}

func TestCastPollVote_UnknownOption(t *testing.T) {
	server := newTestServer(t)
	r := pollRouter(server)
	createTestPoll(t, server)

	w := castPollVote(r, 9999, "203.0.113.7")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCastPollVote_NoPoll(t *testing.T) {
	server := newTestServer(t)
	r := pollRouter(server)

	w := castPollVote(r, 1, "203.0.113.7")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPoll_TalliesAndBallotState(t *testing.T) {
	server := newTestServer(t)
	r := pollRouter(server)
	poll := createTestPoll(t, server)

	castPollVote(r, poll.Options[0].ID, "203.0.113.7")
	castPollVote(r, poll.Options[0].ID, "198.51.100.22")
	castPollVote(r, poll.Options[1].ID, "198.51.100.33")

	response := getPoll(r, "203.0.113.7")
	assert.Equal(t, true, response["has_voted"])
	assert.Equal(t, float64(poll.Options[0].ID), response["voted_option_id"])
	assert.Equal(t, float64(3), response["total_votes"])

	options := response["options"].([]interface{})
	assert.Len(t, options, 3)
	first := options[0].(map[string]interface{})
	third := options[2].(map[string]interface{})
	assert.Equal(t, float64(2), first["votes"])
	// An option nobody picked still shows up, at zero.
	assert.Equal(t, float64(0), third["votes"])

	// A fresh identity sees the same tallies but no ballot of its own.
	fresh := getPoll(r, "192.0.2.55")
	assert.Equal(t, false, fresh["has_voted"])
	assert.Equal(t, float64(3), fresh["total_votes"])
}

func TestGetPoll_StoreUnavailableWithoutMirror(t *testing.T) {
	server := newTestServer(t)
	r := pollRouter(server)
	createTestPoll(t, server)

	// Kill the store; with no Redis mirror available the poll read must
	// fail closed rather than report an empty or invented state.
	sqlDB, err := server.DB.DB()
	assert.NoError(t, err)
	assert.NoError(t, sqlDB.Close())

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/poll", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	errs := body["error"].(map[string]interface{})
	assert.Contains(t, errs, "Store_unavailable")
}

func TestAdminTogglePoll(t *testing.T) {
	server := newTestServer(t)
	r := pollRouter(server)
	poll := createTestPoll(t, server)

	payload, _ := json.Marshal(map[string]bool{"is_active": false})
	req, _ := http.NewRequest(http.MethodPatch, "/api/v1/admin/poll/active", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	current, err := models.CurrentPoll(server.DB)
	assert.NoError(t, err)
	assert.False(t, current.IsActive)
	assert.Equal(t, poll.ID, current.ID)
}

func TestAdminUpdatePoll_ReplacesOptionsAndReactivates(t *testing.T) {
	server := newTestServer(t)
	r := pollRouter(server)
	poll := createTestPoll(t, server)

	castPollVote(r, poll.Options[0].ID, "203.0.113.7")
	_, err := models.TogglePoll(server.DB, false)
	assert.NoError(t, err)

	payload, _ := json.Marshal(map[string]interface{}{
		"question": "Restock which colorway?",
		"options":  []string{"Washed Black", "Bone"},
	})
	req, _ := http.NewRequest(http.MethodPut, "/api/v1/admin/poll", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	current, err := models.CurrentPoll(server.DB)
	assert.NoError(t, err)
	assert.True(t, current.IsActive)
	assert.Equal(t, "Restock which colorway?", current.Question)
	assert.Len(t, current.Options, 2)

	// The old ballot points at a removed option, so tallies start clean.
	tallies, _ := models.TallyPoll(server.DB, current)
	for _, total := range tallies {
		assert.Equal(t, int64(0), total)
	}
}

func TestAdminUpdatePoll_RejectsSingleOption(t *testing.T) {
	server := newTestServer(t)
	r := pollRouter(server)

	payload, _ := json.Marshal(map[string]interface{}{
		"question": "Only one choice?",
		"options":  []string{"Lonely"},
	})
	req, _ := http.NewRequest(http.MethodPut, "/api/v1/admin/poll", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAdminResetPoll(t *testing.T) {
	server := newTestServer(t)
	r := pollRouter(server)
	poll := createTestPoll(t, server)

	castPollVote(r, poll.Options[0].ID, "203.0.113.7")
	castPollVote(r, poll.Options[1].ID, "198.51.100.22")

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/admin/poll/reset", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	tallies, _ := models.TallyPoll(server.DB, poll)
	for _, total := range tallies {
		assert.Equal(t, int64(0), total)
	}

	// After a reset every identity may vote again.
	assert.Equal(t, http.StatusOK, castPollVote(r, poll.Options[2].ID, "203.0.113.7").Code)
	tallies, _ = models.TallyPoll(server.DB, poll)
	assert.Equal(t, int64(1), tallies[poll.Options[2].ID])
}
