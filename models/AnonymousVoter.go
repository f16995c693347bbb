package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnonymousVoter tracks every identity the resolver has handed out, whether a
// network address or a session fallback token. Purely diagnostic: the ballot
// tables are what enforce vote-once.
type AnonymousVoter struct {
	ID         uint      `gorm:"primary_key;autoIncrement" json:"id"`
	VoterID    string    `gorm:"size:128;not null;uniqueIndex" json:"voter_id"`
	Source     string    `gorm:"size:32;not null" json:"source"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastSeenAt time.Time `gorm:"autoUpdateTime" json:"last_seen_at"`
}

func TouchAnonymousVoter(db *gorm.DB, voterID, source string) error {
	if voterID == "" {
		return errors.New("voter_id required")
	}
	now := time.Now()
	record := AnonymousVoter{
		VoterID:    voterID,
		Source:     source,
		CreatedAt:  now,
		LastSeenAt: now,
	}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "voter_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_seen_at", "source"}),
	}).Create(&record).Error
}
