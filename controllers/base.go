package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"Stitchup/cache"
	"Stitchup/middlewares"
	"Stitchup/models"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	DB     *gorm.DB
	Router *gin.Engine
}

var errList = make(map[string]string)

// ===============================
// SECURE ADMIN SEEDING
// ===============================
func seedAdmin(db *gorm.DB) error {
	adminEmail := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	adminPassword := strings.TrimSpace(os.Getenv("ADMIN_PASSWORD"))

	// If environment vars aren't provided, do NOTHING.
	if adminEmail == "" || adminPassword == "" {
		log.Println("[seedAdmin] ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin creation.")
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", adminEmail).First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Println("[seedAdmin] Creating initial admin:", adminEmail)

		admin := models.User{
			Username: strings.Split(adminEmail, "@")[0],
			Email:    adminEmail,
			Password: adminPassword,
			IsAdmin:  true,
		}

		admin.Prepare()

		if msgs := admin.Validate(""); len(msgs) > 0 {
			log.Printf("[seedAdmin] validation failed: %+v\n", msgs)
			return nil
		}

		_, err = admin.SaveUser(db)
		if err != nil {
			log.Printf("[seedAdmin] failed to create admin: %v\n", err)
			return err
		}

		return nil
	}

	// If admin exists, ensure they stay admin
	if err == nil && !existing.IsAdmin {
		log.Println("[seedAdmin] Ensuring admin flag is set for:", adminEmail)
		return db.Model(&existing).Update("is_admin", true).Error
	}

	return err
}

// ===============================
// SERVER INITIALIZATION
// ===============================
func (server *Server) Initialize(DbUser, DbPassword, DbPort, DbHost, DbName string) {
	var dsn string

	if strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		dsn = os.Getenv("DATABASE_URL")
		if dsn != "" && !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
	} else {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			DbHost, DbUser, DbPassword, DbName, DbPort,
		)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Cannot connect to Postgres: %v", err)
	}
	server.DB = db

	// Auto Migrations
	if err := server.DB.AutoMigrate(
		&models.User{},
		&models.AnonymousVoter{},
		&models.Product{},
		&models.ProductBallot{},
		&models.Poll{},
		&models.PollOption{},
		&models.PollBallot{},
		&models.NewsletterSubscriber{},
	); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}
	if err := ensureBallotConstraints(server.DB); err != nil {
		log.Printf("warning: ballot constraints not ensured: %v", err)
	}
	if err := ensureVoteCounterDefaults(server.DB); err != nil {
		log.Printf("warning: vote counters not normalized: %v", err)
	}

	// Redis init (safe failure)
	if err := cache.InitFromEnv(); err != nil {
		log.Printf("warning: could not connect to redis: %v", err)
	}

	// SECURE ADMIN CREATION
	if err := seedAdmin(server.DB); err != nil {
		log.Printf("error seeding admin user: %v\n", err)
	}

	server.Router = gin.Default()
	server.Router.Use(middlewares.CORSMiddleware())
	server.Router.Use(middlewares.RateLimitMiddleware())
	server.initializeRoutes()
}

func (server *Server) Run(addr string) {
	log.Fatal(http.ListenAndServe(addr, server.Router))
}

// ensureBallotConstraints backstops the gorm tags with explicit unique
// indexes. The whole vote-once contract hangs on these: without them a
// concurrent duplicate vote would double-count.
func ensureBallotConstraints(db *gorm.DB) error {
	var count int64
	if err := db.Raw(
		"SELECT COUNT(1) FROM pg_indexes WHERE indexname = ?",
		"idx_product_ballot_voter",
	).Scan(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := db.Exec(
			"CREATE UNIQUE INDEX idx_product_ballot_voter ON product_ballots (product_id, voter_id)",
		).Error; err != nil {
			return err
		}
	}

	if err := db.Raw(
		"SELECT COUNT(1) FROM pg_indexes WHERE indexname = ?",
		"idx_poll_ballot_voter",
	).Scan(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := db.Exec(
			"CREATE UNIQUE INDEX idx_poll_ballot_voter ON poll_ballots (poll_id, voter_id)",
		).Error; err != nil {
			return err
		}
	}

	return nil
}

func ensureVoteCounterDefaults(db *gorm.DB) error {
	if err := db.Exec(
		"UPDATE products SET votes = 0 WHERE votes IS NULL",
	).Error; err != nil {
		return err
	}
	return db.Exec(
		"UPDATE poll_options SET legacy_votes = 0 WHERE legacy_votes IS NULL",
	).Error
}
