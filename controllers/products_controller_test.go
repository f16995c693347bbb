package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"Stitchup/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func catalogRouter(server *Server) *gin.Engine {
	r := gin.New()
	r.GET("/api/v1/products", server.GetProducts)
	r.GET("/api/v1/products/:id", server.GetProduct)
	return r
}

func TestGetProducts_PublishedOnly(t *testing.T) {
	server := newTestServer(t)
	r := catalogRouter(server)

	createTestProduct(t, server.DB, "Published Tee")
	hidden := models.Product{Name: "Hidden Tee", PriceCents: 4200, IsPublished: false}
	assert.NoError(t, server.DB.Create(&hidden).Error)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/products", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	products := body["response"].([]interface{})
	assert.Len(t, products, 1)

	first := products[0].(map[string]interface{})
	assert.Equal(t, "Published Tee", first["name"])

	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["total"])
}

func TestGetProducts_Pagination(t *testing.T) {
	server := newTestServer(t)
	r := catalogRouter(server)

	for _, name := range []string{"One", "Two", "Three"} {
		createTestProduct(t, server.DB, name)
	}

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/products?page=2&limit=2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	products := body["response"].([]interface{})
	assert.Len(t, products, 1)

	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(3), pagination["total"])
	assert.Equal(t, float64(2), pagination["total_pages"])
}

func TestGetProduct(t *testing.T) {
	server := newTestServer(t)
	r := catalogRouter(server)
	product := createTestProduct(t, server.DB, "Boxy Tee")

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/products/"+strconv.Itoa(int(product.ID)), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	response := body["response"].(map[string]interface{})
	assert.Equal(t, "Boxy Tee", response["name"])
	assert.Equal(t, float64(4200), response["price_cents"])
	assert.NotEmpty(t, response["public_id"])
}

func TestOverlayMirroredVotes(t *testing.T) {
	payload := []byte(`{"status":200,"response":{"id":3,"name":"Boxy Tee","votes":4}}`)

	fresher, err := overlayMirroredVotes(payload, "7")
	assert.NoError(t, err)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(fresher, &body))
	response := body["response"].(map[string]interface{})
	assert.Equal(t, float64(7), response["votes"])
	assert.Equal(t, "Boxy Tee", response["name"])

	// A junk count or payload leaves the caller serving the original.
	_, err = overlayMirroredVotes(payload, "many")
	assert.Error(t, err)
	_, err = overlayMirroredVotes([]byte(`{"status":200,"response":"gone"}`), "7")
	assert.Error(t, err)
}

func TestGetProduct_NotFound(t *testing.T) {
	server := newTestServer(t)
	r := catalogRouter(server)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/products/9999", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
