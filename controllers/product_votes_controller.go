package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"Stitchup/cache"
	"Stitchup/models"

	"github.com/gin-gonic/gin"
)

// voteTimeout bounds the vote transaction so a hung database call cannot
// leave the storefront's vote button disabled forever.
const voteTimeout = 5 * time.Second

// CastProductVote applies one vote for the current anonymous identity.
// Votes are permanent; a repeat attempt is rejected with 409.
func (server *Server) CastProductVote(c *gin.Context) {
	errList = map[string]string{}

	productID := c.Param("id")
	pid, err := strconv.ParseUint(productID, 10, 32)
	if err != nil {
		errList["Invalid_request"] = "Invalid Request"
		c.JSON(http.StatusBadRequest, gin.H{
			"status": http.StatusBadRequest,
			"error":  errList,
		})
		return
	}

	voterID := resolveVoterIdentity(c, server.DB)

	ctx, cancel := context.WithTimeout(c.Request.Context(), voteTimeout)
	defer cancel()

	votes, err := models.CastProductVote(server.DB.WithContext(ctx), uint(pid), voterID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrProductNotFound):
			errList["No_product"] = "No Product Found"
			c.JSON(http.StatusNotFound, gin.H{
				"status": http.StatusNotFound,
				"error":  errList,
			})
		case errors.Is(err, models.ErrAlreadyVoted):
			errList["Already_voted"] = "You have already voted for this product"
			c.JSON(http.StatusConflict, gin.H{
				"status": http.StatusConflict,
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

	// Mirror the confirmed count and drop stale list pages. Only reached
	// after the transaction committed, so the cache never leads the store.
	bg := context.Background()
	_ = cache.Set(bg, fmt.Sprintf("product:%d:votes", pid), []byte(strconv.Itoa(votes)), productMirrorTTL)
	_ = cache.DeleteByPrefix(bg, "products:")
	_ = cache.Delete(bg, fmt.Sprintf("product:%d", pid))

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"response": gin.H{
			"product_id": uint(pid),
			"votes":      votes,
			"voted":      true,
		},
	})
}

// GetProductVoteStatus reports whether the current identity already holds a
// ballot, so the storefront can render the button state on load.
func (server *Server) GetProductVoteStatus(c *gin.Context) {
	productID := c.Param("id")
	pid, err := strconv.ParseUint(productID, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	voterID := resolveVoterIdentity(c, server.DB)

	voted, err := models.HasVoted(server.DB, uint(pid), voterID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error checking vote status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"response": gin.H{
			"product_id": uint(pid),
			"voted":      voted,
		},
	})
}
