package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"

	"Stitchup/mailer"
	"Stitchup/models"
	"Stitchup/utils/formaterror"

	"github.com/gin-gonic/gin"
)

// SubscribeNewsletter records a newsletter signup and sends the welcome
// email best-effort.
func (server *Server) SubscribeNewsletter(c *gin.Context) {
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

	subscriber := models.NewsletterSubscriber{}
	if err := json.Unmarshal(body, &subscriber); err != nil {
		errList["Unmarshal_error"] = "Cannot unmarshal body"
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errList,
		})
		return
	}

	subscriber.Prepare()
	if errorMessages := subscriber.Validate(); len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errorMessages,
		})
		return
	}

	created, err := subscriber.SaveSubscriber(server.DB)
	if err != nil {
		formattedError := formaterror.FormatError(err.Error())
		c.JSON(http.StatusConflict, gin.H{
			"status": http.StatusConflict,
			"error":  formattedError,
		})
		return
	}

	unsubscribeURL := fmt.Sprintf("%s/api/v1/newsletter/unsubscribe/%s",
		apiBaseURL(), created.UnsubscribeToken)
	go func(email, url string) {
		if err := mailer.SendWelcomeEmail(email, url); err != nil {
			log.Printf("welcome email to %s failed: %v", email, err)
		}
	}(created.Email, unsubscribeURL)

	c.JSON(http.StatusCreated, gin.H{
		"status": http.StatusCreated,
		"response": gin.H{
			"email":      created.Email,
			"created_at": created.CreatedAt,
		},
	})
}

// UnsubscribeNewsletter removes a subscriber by their opaque token, so the
// link in the email works without any login.
func (server *Server) UnsubscribeNewsletter(c *gin.Context) {
	token := c.Param("token")

	if err := models.DeleteSubscriberByToken(server.DB, token); err != nil {
		if errors.Is(err, models.ErrSubscriberNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status": http.StatusNotFound,
				"error":  gin.H{"No_subscriber": "No Subscriber Found"},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error unsubscribing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": "Unsubscribed",
	})
}

// AdminListSubscribers returns the subscriber list for the back-office.
func (server *Server) AdminListSubscribers(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 50
	}

	offset := (page - 1) * limit

	subscriber := models.NewsletterSubscriber{}
	subscribers, total, err := subscriber.FindAllSubscribers(server.DB, offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch subscribers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"response": gin.H{
			"subscribers": subscribers,
			"pagination":  buildPagination(page, limit, total),
		},
	})
}

func apiBaseURL() string {
	if base := os.Getenv("API_BASE_URL"); base != "" {
		return base
	}
	return "http://localhost:8888"
}
