package models

import (
	"errors"
	"html"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	ErrPollNotFound = errors.New("poll not found")
	ErrPollInactive = errors.New("poll inactive")
)

// Poll is a site-wide singleton: the storefront shows at most one poll at a
// time. Vote totals are never stored on the options; they are tallied live
// from the ballots, so counts cannot drift from the ballot set.
type Poll struct {
	ID        uint         `gorm:"primary_key;autoIncrement" json:"id"`
	Question  string       `gorm:"size:500;not null" json:"question"`
	IsActive  bool         `gorm:"not null;default:false" json:"is_active"`
	Options   []PollOption `gorm:"foreignKey:PollID" json:"options"`
	CreatedAt time.Time    `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

type PollOption struct {
	ID       uint   `gorm:"primary_key;autoIncrement" json:"id"`
	PollID   uint   `gorm:"not null;index" json:"poll_id"`
	Label    string `gorm:"size:255;not null" json:"label"`
	Position int    `gorm:"not null;default:0" json:"position"`
	// LegacyVotes held denormalized counts before tallies moved to the
	// ballot table. Only ResetPoll touches it now (it zeroes any residue).
	LegacyVotes int `gorm:"not null;default:0" json:"-"`
}

func (p *Poll) Prepare() {
	p.Question = html.EscapeString(strings.TrimSpace(p.Question))
	for i := range p.Options {
		p.Options[i].Label = html.EscapeString(strings.TrimSpace(p.Options[i].Label))
		p.Options[i].Position = i
	}
}

func (p *Poll) Validate() map[string]string {
	var errorMessages = make(map[string]string)

	if p.Question == "" {
		errorMessages["Required_question"] = "Required Question"
	}
	if len(p.Options) < 2 {
		errorMessages["Invalid_options"] = "A poll needs at least two options"
	}
	for _, option := range p.Options {
		if option.Label == "" {
			errorMessages["Invalid_option_label"] = "Option labels cannot be empty"
			break
		}
	}
	return errorMessages
}

// CurrentPoll loads the singleton poll with its options ordered by position.
func CurrentPoll(db *gorm.DB) (*Poll, error) {
	var poll Poll
	err := db.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Order("id ASC").First(&poll).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}
	return &poll, nil
}

// ReplacePoll swaps in a new question and option set. Editing always
// re-activates the poll. Existing ballots are left alone: ballots pointing at
// removed options simply stop appearing in tallies.
func ReplacePoll(db *gorm.DB, question string, labels []string) (*Poll, error) {
	var poll *Poll
	err := db.Transaction(func(tx *gorm.DB) error {
		existing, err := CurrentPoll(tx)
		if err != nil && !errors.Is(err, ErrPollNotFound) {
			return err
		}

		if existing == nil {
			existing = &Poll{}
		}
		existing.Question = question
		existing.IsActive = true
		existing.Options = nil
		existing.UpdatedAt = time.Now()

		if existing.ID == 0 {
			if err := tx.Create(existing).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(&Poll{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
				"question":   existing.Question,
				"is_active":  true,
				"updated_at": existing.UpdatedAt,
			}).Error; err != nil {
				return err
			}
			if err := tx.Where("poll_id = ?", existing.ID).Delete(&PollOption{}).Error; err != nil {
				return err
			}
		}

		for i, label := range labels {
			option := PollOption{PollID: existing.ID, Label: label, Position: i}
			if err := tx.Create(&option).Error; err != nil {
				return err
			}
			existing.Options = append(existing.Options, option)
		}

		poll = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return poll, nil
}

// TogglePoll flips the voting gate without touching ballots or tallies.
func TogglePoll(db *gorm.DB, active bool) (*Poll, error) {
	poll, err := CurrentPoll(db)
	if err != nil {
		return nil, err
	}
	err = db.Model(&Poll{}).Where("id = ?", poll.ID).Updates(map[string]interface{}{
		"is_active":  active,
		"updated_at": time.Now(),
	}).Error
	if err != nil {
		return nil, err
	}
	poll.IsActive = active
	return poll, nil
}

// ResetPoll destroys the poll's voting history: residual option counters are
// zeroed and every ballot for the poll is deleted, atomically. Irreversible.
func ResetPoll(db *gorm.DB) error {
	poll, err := CurrentPoll(db)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&PollOption{}).Where("poll_id = ?", poll.ID).
			UpdateColumn("legacy_votes", 0).Error; err != nil {
			return err
		}
		return tx.Where("poll_id = ?", poll.ID).Delete(&PollBallot{}).Error
	})
}
