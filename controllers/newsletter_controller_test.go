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

func newsletterRouter(server *Server) *gin.Engine {
	r := gin.New()
	r.POST("/api/v1/newsletter", server.SubscribeNewsletter)
	r.GET("/api/v1/newsletter/unsubscribe/:token", server.UnsubscribeNewsletter)
	r.GET("/api/v1/admin/newsletter", server.AdminListSubscribers)
	return r
}

func subscribe(r *gin.Engine, email string) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(map[string]string{"email": email})
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/newsletter", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubscribeNewsletter(t *testing.T) {
	server := newTestServer(t)
	r := newsletterRouter(server)

	w := subscribe(r, "Drops@Example.com")
	assert.Equal(t, http.StatusCreated, w.Code)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	response := body["response"].(map[string]interface{})
	// Emails are normalized to lowercase before storage.
	assert.Equal(t, "drops@example.com", response["email"])

	var stored models.NewsletterSubscriber
	err := server.DB.Where("email = ?", "drops@example.com").Take(&stored).Error
	assert.NoError(t, err)
	assert.NotEmpty(t, stored.UnsubscribeToken)
}

func TestSubscribeNewsletter_Duplicate(t *testing.T) {
	server := newTestServer(t)
	r := newsletterRouter(server)

	assert.Equal(t, http.StatusCreated, subscribe(r, "drops@example.com").Code)
	assert.Equal(t, http.StatusConflict, subscribe(r, "drops@example.com").Code)

	var count int64
	server.DB.Model(&models.NewsletterSubscriber{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSubscribeNewsletter_InvalidEmail(t *testing.T) {
	server := newTestServer(t)
	r := newsletterRouter(server)

	assert.Equal(t, http.StatusUnprocessableEntity, subscribe(r, "not-an-email").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, subscribe(r, "").Code)
}

func TestUnsubscribeNewsletter(t *testing.T) {
	server := newTestServer(t)
	r := newsletterRouter(server)

	assert.Equal(t, http.StatusCreated, subscribe(r, "drops@example.com").Code)

	var stored models.NewsletterSubscriber
	err := server.DB.Where("email = ?", "drops@example.com").Take(&stored).Error
	assert.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/newsletter/unsubscribe/"+stored.UnsubscribeToken, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	server.DB.Model(&models.NewsletterSubscriber{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestUnsubscribeNewsletter_UnknownToken(t *testing.T) {
	server := newTestServer(t)
	r := newsletterRouter(server)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/newsletter/unsubscribe/no-such-token", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminListSubscribers(t *testing.T) {
	server := newTestServer(t)
	r := newsletterRouter(server)

	subscribe(r, "one@example.com")
	subscribe(r, "two@example.com")

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/admin/newsletter", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	response := body["response"].(map[string]interface{})
	subscribers := response["subscribers"].([]interface{})
	assert.Len(t, subscribers, 2)

	pagination := response["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["total"])
}
