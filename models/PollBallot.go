package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrOptionNotFound = errors.New("poll option not found")

// PollBallot is one identity's current choice for the poll. Unlike product
// ballots a poll ballot is mutable: re-voting moves the same row to a new
// option instead of creating a second one.
type PollBallot struct {
	ID        uint      `gorm:"primary_key;autoIncrement" json:"id"`
	PollID    uint      `gorm:"not null;index;uniqueIndex:idx_poll_ballot_voter" json:"poll_id"`
	VoterID   string    `gorm:"size:128;not null;uniqueIndex:idx_poll_ballot_voter" json:"voter_id"`
	OptionID  uint      `gorm:"not null;index" json:"option_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CastPollVote records or moves this identity's ballot. Voting for the option
// already held is an idempotent no-op, not an error. The poll gate is checked
// by the caller against the latest known poll state.
func CastPollVote(db *gorm.DB, poll *Poll, optionID uint, voterID string) error {
	if !poll.IsActive {
		return ErrPollInactive
	}

	optionOK := false
	for _, option := range poll.Options {
		if option.ID == optionID {
			optionOK = true
			break
		}
	}
	if !optionOK {
		return ErrOptionNotFound
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var existing PollBallot
		err := tx.Where("poll_id = ? AND voter_id = ?", poll.ID, voterID).
			Take(&existing).Error
		if err == nil && existing.OptionID == optionID {
			// Same option twice: leave the ballot untouched.
			return nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		ballot := PollBallot{
			PollID:    poll.ID,
			VoterID:   voterID,
			OptionID:  optionID,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "poll_id"}, {Name: "voter_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"option_id", "updated_at"}),
		}).Create(&ballot).Error
	})
}

// TallyPoll counts ballots grouped by option. Options with no ballots are
// reported as zero so the response always covers the full option set.
func TallyPoll(db *gorm.DB, poll *Poll) (map[uint]int64, error) {
	type row struct {
		OptionID uint
		Total    int64
	}
	rows := []row{}
	err := db.Model(&PollBallot{}).
		Select("option_id, COUNT(*) AS total").
		Where("poll_id = ?", poll.ID).
		Group("option_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	tallies := make(map[uint]int64, len(poll.Options))
	for _, option := range poll.Options {
		tallies[option.ID] = 0
	}
	for _, r := range rows {
		if _, ok := tallies[r.OptionID]; ok {
			tallies[r.OptionID] = r.Total
		}
	}
	return tallies, nil
}

// FindPollBallot returns this identity's current ballot, if any.
func FindPollBallot(db *gorm.DB, pollID uint, voterID string) (*PollBallot, error) {
	var ballot PollBallot
	err := db.Where("poll_id = ? AND voter_id = ?", pollID, voterID).Take(&ballot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ballot, nil
}
