package models

import (
	"errors"
	"html"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/twinj/uuid"
	"gorm.io/gorm"
)

var ErrSubscriberNotFound = errors.New("subscriber not found")

type NewsletterSubscriber struct {
	ID               uint      `gorm:"primary_key;autoIncrement" json:"id"`
	Email            string    `gorm:"size:100;not null;unique" json:"email"`
	UnsubscribeToken string    `gorm:"type:uuid;uniqueIndex" json:"-"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (s *NewsletterSubscriber) BeforeCreate(tx *gorm.DB) (err error) {
	if strings.TrimSpace(s.UnsubscribeToken) == "" {
		s.UnsubscribeToken = uuid.NewV4().String()
	}
	return nil
}

func (s *NewsletterSubscriber) Prepare() {
	s.Email = html.EscapeString(strings.ToLower(strings.TrimSpace(s.Email)))
}

func (s *NewsletterSubscriber) Validate() map[string]string {
	var errorMessages = make(map[string]string)

	if s.Email == "" {
		errorMessages["Required_email"] = "Required Email"
	}
	if s.Email != "" {
		if err := checkmail.ValidateFormat(s.Email); err != nil {
			errorMessages["Invalid_email"] = "Invalid Email"
		}
	}
	return errorMessages
}

func (s *NewsletterSubscriber) SaveSubscriber(db *gorm.DB) (*NewsletterSubscriber, error) {
	if err := db.Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (s *NewsletterSubscriber) FindAllSubscribers(db *gorm.DB, offset, limit int) ([]NewsletterSubscriber, int64, error) {
	var total int64
	if err := db.Model(&NewsletterSubscriber{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	subscribers := []NewsletterSubscriber{}
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&subscribers).Error
	if err != nil {
		return nil, 0, err
	}
	return subscribers, total, nil
}

func DeleteSubscriberByToken(db *gorm.DB, token string) error {
	result := db.Where("unsubscribe_token = ?", token).Delete(&NewsletterSubscriber{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriberNotFound
	}
	return nil
}
