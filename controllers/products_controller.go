package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"Stitchup/cache"
	"Stitchup/models"
	"Stitchup/responses"

	"github.com/gin-gonic/gin"
)

const (
	// productPageTTL is the short-lived JSON page cache for list endpoints.
	productPageTTL = 30 * time.Second
	// productMirrorTTL keeps a last-known copy around long enough to serve
	// degraded reads when Postgres is unreachable.
	productMirrorTTL = 10 * time.Minute
)

// GetProducts retrieves the published catalog, paginated.
func (server *Server) GetProducts(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "12"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 12
	}

	ctx := context.Background()
	cacheKey := fmt.Sprintf("products:page:%d:limit:%d", page, limit)

	// 1) Try the Redis page cache
	if cached, err := cache.Get(ctx, cacheKey); err == nil && cached != "" {
		c.Data(http.StatusOK, "application/json", []byte(cached))
		return
	}

	// 2) Fall back to Postgres
	offset := (page - 1) * limit

	product := models.Product{}
	products, total, err := product.FindAllProducts(server.DB, offset, limit)
	if err != nil {
		// Degraded mode: serve the last mirrored page if one survives.
		// The mirror is advisory and may be stale; it is never written
		// ahead of a successful database read.
		if stale, cacheErr := cache.Get(ctx, "products:mirror"); cacheErr == nil && stale != "" {
			log.Printf("serving degraded product list: %v", err)
			c.Header("X-Degraded", "true")
			c.Data(http.StatusOK, "application/json", []byte(stale))
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": http.StatusServiceUnavailable,
			"error":  gin.H{"Store_unavailable": "Catalog is temporarily unavailable"},
		})
		return
	}

	productResponses := make([]responses.ProductResponse, len(products))
	for i := range products {
		productResponses[i] = responses.ToProductResponse(&products[i])
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	respBody := gin.H{
		"status":   http.StatusOK,
		"response": productResponses,
		"pagination": gin.H{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": totalPages,
		},
	}

	// 3) Store JSON in Redis: a short-TTL page plus a long-TTL mirror of
	// the first page for degraded reads.
	if jsonBytes, err := json.Marshal(respBody); err == nil {
		_ = cache.Set(ctx, cacheKey, jsonBytes, productPageTTL)
		if page == 1 {
			_ = cache.Set(ctx, "products:mirror", jsonBytes, productMirrorTTL)
		}
	}

	c.JSON(http.StatusOK, respBody)
}

// GetProduct retrieves a single product. Postgres wins; the Redis mirror is
// only consulted when the database read fails.
func (server *Server) GetProduct(c *gin.Context) {
	productID := c.Param("id")
	pid, err := strconv.ParseUint(productID, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	ctx := context.Background()

	product := models.Product{}
	found, err := product.FindProductByID(server.DB, uint(pid))
	if err != nil {
		if err == models.ErrProductNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if stale, cacheErr := cache.Get(ctx, fmt.Sprintf("product:%d", pid)); cacheErr == nil && stale != "" {
			log.Printf("serving degraded product %d: %v", pid, err)
			payload := []byte(stale)
			// The votes mirror is refreshed on every confirmed vote, so it
			// can be newer than the full product mirror.
			if counted, cacheErr := cache.Get(ctx, fmt.Sprintf("product:%d:votes", pid)); cacheErr == nil && counted != "" {
				if fresher, overlayErr := overlayMirroredVotes(payload, counted); overlayErr == nil {
					payload = fresher
				}
			}
			c.Header("X-Degraded", "true")
			c.Data(http.StatusOK, "application/json", payload)
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": http.StatusServiceUnavailable,
			"error":  gin.H{"Store_unavailable": "Catalog is temporarily unavailable"},
		})
		return
	}

	respBody := gin.H{
		"status":   http.StatusOK,
		"response": responses.ToProductResponse(found),
	}

	if jsonBytes, err := json.Marshal(respBody); err == nil {
		_ = cache.Set(ctx, fmt.Sprintf("product:%d", pid), jsonBytes, productMirrorTTL)
	}

	c.JSON(http.StatusOK, respBody)
}

// overlayMirroredVotes replaces the votes field of a mirrored product payload
// with a fresher mirrored count.
func overlayMirroredVotes(payload []byte, counted string) ([]byte, error) {
	votes, err := strconv.Atoi(counted)
	if err != nil {
		return nil, err
	}

	var body map[string]interface{}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}
	response, ok := body["response"].(map[string]interface{})
	if !ok {
		return nil, errors.New("malformed product mirror payload")
	}
	response["votes"] = votes
	return json.Marshal(body)
}
