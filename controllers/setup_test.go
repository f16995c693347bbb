package controllers

import (
	"testing"

	"Stitchup/models"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestServer builds a Server against an in-memory SQLite database with the
// full schema migrated. Each test registers only the routes it exercises.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.AnonymousVoter{},
		&models.Product{},
		&models.ProductBallot{},
		&models.Poll{},
		&models.PollOption{},
		&models.PollBallot{},
		&models.NewsletterSubscriber{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate tables: %v", err)
	}

	return &Server{DB: db}
}

func createTestProduct(t *testing.T, db *gorm.DB, name string) *models.Product {
	t.Helper()
	product := models.Product{
		Name:        name,
		Description: "A test product",
		PriceCents:  4200,
		IsPublished: true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	return &product
}
