package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	ErrAlreadyVoted    = errors.New("already voted")
	ErrProductNotFound = errors.New("product not found")
)

// ProductBallot records that an anonymous identity voted for a product.
// Ballots are permanent: the voting path never updates or deletes them.
type ProductBallot struct {
	ID        uint      `gorm:"primary_key;autoIncrement" json:"id"`
	ProductID uint      `gorm:"not null;index;uniqueIndex:idx_product_ballot_voter" json:"product_id"`
	VoterID   string    `gorm:"size:128;not null;uniqueIndex:idx_product_ballot_voter" json:"voter_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// CastProductVote applies the vote-once contract for a (product, voter) pair:
// inside one transaction it checks for an existing ballot, inserts the new
// ballot, and bumps the denormalized counter. The unique index on
// (product_id, voter_id) is the race gate; if two requests with the same
// identity commit concurrently, the loser's insert fails and its increment
// rolls back, so the counter moves by exactly one.
func CastProductVote(db *gorm.DB, productID uint, voterID string) (int, error) {
	votes := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		var product Product
		if err := tx.Where("id = ?", productID).Take(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		var existing ProductBallot
		err := tx.Where("product_id = ? AND voter_id = ?", productID, voterID).
			Take(&existing).Error
		if err == nil {
			return ErrAlreadyVoted
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		ballot := ProductBallot{ProductID: productID, VoterID: voterID, CreatedAt: time.Now()}
		if err := tx.Create(&ballot).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyVoted
			}
			return err
		}

		if err := tx.Model(&Product{}).Where("id = ?", productID).
			UpdateColumn("votes", gorm.Expr("votes + ?", 1)).Error; err != nil {
			return err
		}

		var updated Product
		if err := tx.Where("id = ?", productID).Take(&updated).Error; err != nil {
			return err
		}
		votes = updated.Votes
		return nil
	})
	if err != nil {
		return 0, err
	}
	return votes, nil
}

// HasVoted reports whether this identity already holds a ballot for the product.
func HasVoted(db *gorm.DB, productID uint, voterID string) (bool, error) {
	var count int64
	err := db.Model(&ProductBallot{}).
		Where("product_id = ? AND voter_id = ?", productID, voterID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountProductBallots returns the number of ballots for a product. It should
// always equal the product's votes column.
func CountProductBallots(db *gorm.DB, productID uint) (int64, error) {
	var count int64
	err := db.Model(&ProductBallot{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

// isUniqueViolation matches the duplicate-key wording of postgres and sqlite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
