package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"Stitchup/cache"
	"Stitchup/models"
	"Stitchup/responses"
	"Stitchup/utils/httpctx"

	"github.com/gin-gonic/gin"
)

const (
	// pollSummaryKey mirrors the shared poll summary (question, options,
	// live tallies) for degraded reads. Caller-specific ballot state is
	// never mirrored.
	pollSummaryKey = "poll:summary"
	pollMirrorTTL  = 10 * time.Minute
)

// GetPoll returns the current poll with live tallies and the caller's own
// ballot state. Tallies are always derived from the ballot set, never from a
// stored counter, so they cannot drift. The database wins; the Redis summary
// mirror is only consulted when the poll or its tallies cannot be read.
func (server *Server) GetPoll(c *gin.Context) {
	ctx := context.Background()

	poll, err := models.CurrentPoll(server.DB)
	if err != nil {
		if errors.Is(err, models.ErrPollNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status": http.StatusNotFound,
				"error":  gin.H{"No_poll": "No Poll Found"},
			})
			return
		}
		server.servePollFallback(c, err)
		return
	}

	tallies, err := models.TallyPoll(server.DB, poll)
	if err != nil {
		server.servePollFallback(c, err)
		return
	}

	resp := responses.PollResponse{
		ID:       poll.ID,
		Question: poll.Question,
		IsActive: poll.IsActive,
	}
	for _, option := range poll.Options {
		votes := tallies[option.ID]
		resp.TotalVotes += votes
		resp.Options = append(resp.Options, responses.PollOptionResponse{
			ID:    option.ID,
			Label: option.Label,
			Votes: votes,
		})
	}

	// Mirror the shared summary before mixing in the caller's ballot state,
	// so a degraded read never serves one caller's ballot to another.
	if jsonBytes, err := json.Marshal(gin.H{"status": http.StatusOK, "response": resp}); err == nil {
		_ = cache.Set(ctx, pollSummaryKey, jsonBytes, pollMirrorTTL)
	}

	voterID := resolveVoterIdentity(c, server.DB)
	ballot, err := models.FindPollBallot(server.DB, poll.ID, voterID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving ballot"})
		return
	}
	if ballot != nil {
		resp.HasVoted = true
		resp.VotedOptionID = ballot.OptionID
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": resp,
	})
}

// servePollFallback answers a failed poll read from the last mirrored
// summary, marked degraded; without a mirror the poll is unavailable.
func (server *Server) servePollFallback(c *gin.Context, cause error) {
	if stale, cacheErr := cache.Get(context.Background(), pollSummaryKey); cacheErr == nil && stale != "" {
		log.Printf("serving degraded poll summary: %v", cause)
		c.Header("X-Degraded", "true")
		c.Data(http.StatusOK, "application/json", []byte(stale))
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"status": http.StatusServiceUnavailable,
		"error":  gin.H{"Store_unavailable": "Poll is temporarily unavailable"},
	})
}

// CastPollVote records or moves the caller's ballot. Re-voting the same
// option is a no-op; a different option moves the existing ballot.
func (server *Server) CastPollVote(c *gin.Context) {
	errList = map[string]string{}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		errList["Invalid_body"] = "Unable to get request"
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errList,
		})
		return
	}

	var input struct {
		OptionID uint `json:"option_id"`
	}
	if err := json.Unmarshal(body, &input); err != nil || input.OptionID == 0 {
		errList["Unmarshal_error"] = "Cannot unmarshal body"
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errList,
		})
		return
	}

	poll, err := models.CurrentPoll(server.DB)
	if err != nil {
		if errors.Is(err, models.ErrPollNotFound) {
			errList["No_poll"] = "No Poll Found"
			c.JSON(http.StatusNotFound, gin.H{
				"status": http.StatusNotFound,
				"error":  errList,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving poll"})
		return
	}

	voterID := resolveVoterIdentity(c, server.DB)

	ctx, cancel := context.WithTimeout(c.Request.Context(), voteTimeout)
	defer cancel()

	err = models.CastPollVote(server.DB.WithContext(ctx), poll, input.OptionID, voterID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrPollInactive):
			errList["Poll_inactive"] = "The poll is not open for voting"
			c.JSON(http.StatusConflict, gin.H{
				"status": http.StatusConflict,
				"error":  errList,
			})
		case errors.Is(err, models.ErrOptionNotFound):
			errList["No_option"] = "No Poll Option Found"
			c.JSON(http.StatusNotFound, gin.H{
				"status": http.StatusNotFound,
				"error":  errList,
			})
		case errors.Is(err, context.DeadlineExceeded):
			errList["Store_unavailable"] = "Voting is temporarily unavailable, please retry"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": http.StatusServiceUnavailable,
				"error":  errList,
			})
		default:
			errList["Other_error"] = "Please try again later"
			c.JSON(http.StatusInternalServerError, gin.H{
				"status": http.StatusInternalServerError,
				"error":  errList,
			})
		}
		return
	}

	_ = cache.Delete(context.Background(), pollSummaryKey)

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"response": gin.H{
			"accepted":  true,
			"option_id": input.OptionID,
		},
	})
}

// AdminUpdatePoll replaces the poll's question and options. Editing always
// reopens the poll for voting.
func (server *Server) AdminUpdatePoll(c *gin.Context) {
	errList = map[string]string{}

	var input struct {
		Question string   `json:"question"`
		Options  []string `json:"options"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		errList["Unmarshal_error"] = "Cannot unmarshal body"
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errList,
		})
		return
	}

	draft := models.Poll{Question: input.Question}
	for _, label := range input.Options {
		draft.Options = append(draft.Options, models.PollOption{Label: label})
	}
	draft.Prepare()
	if errorMessages := draft.Validate(); len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errorMessages,
		})
		return
	}

	labels := make([]string, len(draft.Options))
	for i, option := range draft.Options {
		labels[i] = option.Label
	}

	poll, err := models.ReplacePoll(server.DB, draft.Question, labels)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating poll"})
		return
	}

	_ = cache.Delete(context.Background(), pollSummaryKey)

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": poll,
	})
}

// AdminTogglePoll flips the voting gate without touching ballots.
func (server *Server) AdminTogglePoll(c *gin.Context) {
	var input struct {
		IsActive bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  gin.H{"Unmarshal_error": "Cannot unmarshal body"},
		})
		return
	}

	poll, err := models.TogglePoll(server.DB, input.IsActive)
	if err != nil {
		if errors.Is(err, models.ErrPollNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status": http.StatusNotFound,
				"error":  gin.H{"No_poll": "No Poll Found"},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error toggling poll"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": gin.H{"id": poll.ID, "is_active": poll.IsActive},
	})
}

// AdminResetPoll wipes the poll's ballots and residual counters. Destructive
// and irreversible.
func (server *Server) AdminResetPoll(c *gin.Context) {
	if adminID, ok := httpctx.CurrentUserID(c); ok {
		log.Printf("poll reset requested by user %d", adminID)
	}

	if err := models.ResetPoll(server.DB); err != nil {
		if errors.Is(err, models.ErrPollNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status": http.StatusNotFound,
				"error":  gin.H{"No_poll": "No Poll Found"},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error resetting poll"})
		return
	}

	_ = cache.Delete(context.Background(), pollSummaryKey)

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": "Poll reset",
	})
}
