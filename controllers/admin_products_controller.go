package controllers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"Stitchup/cache"
	"Stitchup/models"
	"Stitchup/responses"
	"Stitchup/utils/fileformat"
	"Stitchup/utils/formaterror"

	aws2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminListProducts returns a paginated catalog for the back-office,
// including unpublished items.
func (server *Server) AdminListProducts(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	offset := (page - 1) * limit
	search := strings.TrimSpace(c.Query("search"))

	query := server.DB.Model(&models.Product{})
	if search != "" {
		like := fmt.Sprintf("%%%s%%", search)
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to count products"})
		return
	}

	var products []models.Product
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch products"})
		return
	}

	productResponses := make([]responses.ProductResponse, len(products))
	for i := range products {
		productResponses[i] = responses.ToProductResponse(&products[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"response": gin.H{
			"products":   productResponses,
			"pagination": buildPagination(page, limit, total),
		},
	})
}

// AdminCreateProduct adds a catalog entry.
func (server *Server) AdminCreateProduct(c *gin.Context) {
	errList = map[string]string{}

	product := models.Product{}
	if err := c.ShouldBindJSON(&product); err != nil {
		errList["Unmarshal_error"] = "Cannot unmarshal body"
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errList,
		})
		return
	}

	product.Prepare()
	if errorMessages := product.Validate(); len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errorMessages,
		})
		return
	}

	created, err := product.SaveProduct(server.DB)
	if err != nil {
		formattedError := formaterror.FormatError(err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": http.StatusInternalServerError,
			"error":  formattedError,
		})
		return
	}

	_ = cache.DeleteByPrefix(context.Background(), "products:")

	c.JSON(http.StatusCreated, gin.H{
		"status":   http.StatusCreated,
		"response": responses.ToProductResponse(created),
	})
}

// AdminUpdateProduct edits catalog fields. The votes counter is not editable
// here; only the voting path moves it.
func (server *Server) AdminUpdateProduct(c *gin.Context) {
	productID := c.Param("id")
	pid, err := strconv.ParseUint(productID, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var existing models.Product
	if _, err := existing.FindProductByID(server.DB, uint(pid)); err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving product"})
		}
		return
	}

	var inputData map[string]interface{}
	if err := c.ShouldBindJSON(&inputData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if name, ok := inputData["name"].(string); ok {
		existing.Name = name
	}
	if description, ok := inputData["description"].(string); ok {
		existing.Description = description
	}
	if price, ok := inputData["price_cents"].(float64); ok {
		existing.PriceCents = int64(price)
	}
	if published, ok := inputData["is_published"].(bool); ok {
		existing.IsPublished = published
	}

	existing.Prepare()
	if errorMessages := existing.Validate(); len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errorMessages})
		return
	}

	updated, err := existing.UpdateProduct(server.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"errors": err.Error()})
		return
	}

	bg := context.Background()
	_ = cache.DeleteByPrefix(bg, "products:")
	_ = cache.Delete(bg, fmt.Sprintf("product:%d", updated.ID))

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": responses.ToProductResponse(updated),
	})
}

// AdminDeleteProduct removes a product and its ballots.
func (server *Server) AdminDeleteProduct(c *gin.Context) {
	productID := c.Param("id")
	pid, err := strconv.ParseUint(productID, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var product models.Product
	if _, err := product.FindProductByID(server.DB, uint(pid)); err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving product"})
		}
		return
	}

	if _, err := product.DeleteProduct(server.DB); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting product"})
		return
	}

	bg := context.Background()
	_ = cache.DeleteByPrefix(bg, "products:")
	_ = cache.Delete(bg, fmt.Sprintf("product:%d", pid))

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// AdminUploadProductImage stores a product photo in S3 and records its key.
func (server *Server) AdminUploadProductImage(c *gin.Context) {
	productID := c.Param("id")
	pid, err := strconv.ParseUint(productID, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var product models.Product
	if _, err := product.FindProductByID(server.DB, uint(pid)); err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving product"})
		}
		return
	}

	// Pull and validate the uploaded file
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot open file"})
		return
	}
	defer f.Close()

	size := file.Size
	if size > 2_000_000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large (<2MB)"})
		return
	}

	buf := make([]byte, size)
	if _, err := f.Read(buf); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read file"})
		return
	}
	fileType := http.DetectContentType(buf)
	if !strings.HasPrefix(fileType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not an image"})
		return
	}

	// Generate S3 key under ProductImages prefix
	filePath := fileformat.UniqueFormat(file.Filename)
	key := "ProductImages/" + filePath

	rawBucket := os.Getenv("S3_BUCKET")
	bucketName := strings.SplitN(rawBucket, "/", 2)[0]
	if bucketName == "" {
		log.Printf("S3_BUCKET env var is empty or invalid: '%s'", rawBucket)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
		return
	}

	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	cfg, err := config.LoadDefaultConfig(
		context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		log.Printf("AWS config load error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AWS configuration error"})
		return
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	_, err = s3Client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:        aws2.String(bucketName),
		Key:           aws2.String(key),
		Body:          bytes.NewReader(buf),
		ContentLength: aws2.Int64(size),
		ContentType:   aws2.String(fileType),
	})
	if err != nil {
		log.Printf("S3 upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	fullURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucketName, region, key)
	product.ImagePath = fullURL
	updated, err := product.UpdateProductImage(server.DB, uint(pid))
	if err != nil {
		log.Printf("DB update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cannot save image, please try again later"})
		return
	}

	bg := context.Background()
	_ = cache.DeleteByPrefix(bg, "products:")
	_ = cache.Delete(bg, fmt.Sprintf("product:%d", pid))

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": responses.ToProductResponse(updated),
	})
}
