package seed

import (
	"log"

	"Stitchup/models"

	"gorm.io/gorm"
)

var products = []models.Product{
	{
		Name:        "Boxy Heavyweight Tee",
		Description: "12oz cotton, garment dyed, dropped shoulder. Runs big.",
		PriceCents:  4200,
		IsPublished: true,
	},
	{
		Name:        "Raw Hem Crewneck",
		Description: "Brushed fleece crewneck with unfinished hems.",
		PriceCents:  6800,
		IsPublished: true,
	},
	{
		Name:        "Sample Run Cap",
		Description: "Unstructured 5-panel, small batch. Not listed yet.",
		PriceCents:  3500,
		IsPublished: false,
	},
}

// Load wipes and repopulates the catalog and the active poll. Dev only.
func Load(db *gorm.DB) {
	err := db.Migrator().DropTable(
		&models.ProductBallot{},
		&models.PollBallot{},
		&models.PollOption{},
		&models.Poll{},
		&models.Product{},
	)
	if err != nil {
		log.Fatalf("cannot drop tables: %v", err)
	}
	err = db.AutoMigrate(
		&models.Product{},
		&models.ProductBallot{},
		&models.Poll{},
		&models.PollOption{},
		&models.PollBallot{},
	)
	if err != nil {
		log.Fatalf("cannot migrate tables: %v", err)
	}

	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			log.Fatalf("cannot seed products table: %v", err)
		}
	}

	_, err = models.ReplacePoll(db, "Which drop should we restock first?", []string{
		"Boxy Heavyweight Tee",
		"Raw Hem Crewneck",
		"Sample Run Cap",
	})
	if err != nil {
		log.Fatalf("cannot seed poll: %v", err)
	}
}
