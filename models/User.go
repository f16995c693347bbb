package models

import (
	"errors"
	"html"
	"strings"
	"time"

	"Stitchup/security"

	"github.com/badoux/checkmail"
	"github.com/twinj/uuid"
	"gorm.io/gorm"
)

// User is a back-office account. Shoppers never log in; the storefront's
// voting mechanic runs on anonymous identities instead.
type User struct {
	ID        uint      `gorm:"primary_key;autoIncrement" json:"id"`
	PublicID  string    `gorm:"type:uuid;uniqueIndex;column:public_id" json:"public_id"`
	Username  string    `gorm:"size:255;not null;unique" json:"username"`
	Email     string    `gorm:"size:100;not null;unique" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"password"`
	IsAdmin   bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (u *User) HashPassword() error {
	hashedPassword, err := security.Hash(u.Password)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (u *User) BeforeSave(tx *gorm.DB) (err error) {
	return u.HashPassword()
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if strings.TrimSpace(u.PublicID) == "" {
		u.PublicID = uuid.NewV4().String()
	}
	return nil
}

func (u *User) Prepare() {
	u.Username = html.EscapeString(strings.ToLower(strings.TrimSpace(u.Username)))
	u.Email = html.EscapeString(strings.ToLower(strings.TrimSpace(u.Email)))
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
}

func (u *User) Validate(action string) map[string]string {
	var errorMessages = make(map[string]string)

	switch strings.ToLower(action) {
	case "login":
		if u.Password == "" {
			errorMessages["Required_password"] = "Required Password"
		}
		if u.Email == "" {
			errorMessages["Required_email"] = "Required Email"
		}
		if u.Email != "" {
			if err := checkmail.ValidateFormat(u.Email); err != nil {
				errorMessages["Invalid_email"] = "Invalid Email"
			}
		}
	default:
		if u.Username == "" {
			errorMessages["Required_username"] = "Required Username"
		}
		if u.Password == "" {
			errorMessages["Required_password"] = "Required Password"
		}
		if len(u.Password) < 6 {
			errorMessages["Invalid_password"] = "Password should be at least 6 characters"
		}
		if u.Email == "" {
			errorMessages["Required_email"] = "Required Email"
		}
		if u.Email != "" {
			if err := checkmail.ValidateFormat(u.Email); err != nil {
				errorMessages["Invalid_email"] = "Invalid Email"
			}
		}
	}
	return errorMessages
}

func (u *User) SaveUser(db *gorm.DB) (*User, error) {
	err := db.Create(&u).Error
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) FindUserByID(db *gorm.DB, uid uint) (*User, error) {
	var user User
	err := db.Where("id = ?", uid).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("User not found")
		}
		return nil, err
	}
	return &user, nil
}

func (u *User) UpdatePassword(db *gorm.DB) error {
	err := u.HashPassword()
	if err != nil {
		return err
	}

	return db.Model(&User{}).Where("email = ?", u.Email).Updates(map[string]interface{}{
		"password":   u.Password,
		"updated_at": time.Now(),
	}).Error
}
