package models

import (
	"errors"
	"html"
	"strings"
	"time"

	"github.com/twinj/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID          uint      `gorm:"primary_key;autoIncrement" json:"id"`
	PublicID    string    `gorm:"type:uuid;uniqueIndex;column:public_id" json:"public_id"`
	Name        string    `gorm:"size:255;not null;unique" json:"name"`
	Description string    `gorm:"text" json:"description"`
	PriceCents  int64     `gorm:"not null;default:0" json:"price_cents"`
	ImagePath   string    `gorm:"size:255" json:"image_path"`
	Votes       int       `gorm:"not null;default:0" json:"votes"`
	IsPublished bool      `gorm:"not null;default:true" json:"is_published"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if strings.TrimSpace(p.PublicID) == "" {
		p.PublicID = uuid.NewV4().String()
	}
	return nil
}

func (p *Product) Prepare() {
	p.Name = html.EscapeString(strings.TrimSpace(p.Name))
	p.Description = html.EscapeString(strings.TrimSpace(p.Description))
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()
}

func (p *Product) Validate() map[string]string {
	var errorMessages = make(map[string]string)

	if p.Name == "" {
		errorMessages["Required_name"] = "Required Name"
	}
	if p.PriceCents < 0 {
		errorMessages["Invalid_price"] = "Price cannot be negative"
	}
	return errorMessages
}

func (p *Product) SaveProduct(db *gorm.DB) (*Product, error) {
	if err := db.Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Product) FindAllProducts(db *gorm.DB, offset, limit int) ([]Product, int64, error) {
	var total int64
	if err := db.Model(&Product{}).Where("is_published = ?", true).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	products := []Product{}
	err := db.Where("is_published = ?", true).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (p *Product) FindProductByID(db *gorm.DB, pid uint) (*Product, error) {
	err := db.Where("id = ?", pid).Take(p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (p *Product) UpdateProduct(db *gorm.DB) (*Product, error) {
	err := db.Model(&Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":         p.Name,
		"description":  p.Description,
		"price_cents":  p.PriceCents,
		"is_published": p.IsPublished,
		"updated_at":   time.Now(),
	}).Error
	if err != nil {
		return nil, err
	}
	err = db.Where("id = ?", p.ID).Take(p).Error
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Product) UpdateProductImage(db *gorm.DB, pid uint) (*Product, error) {
	err := db.Model(&Product{}).Where("id = ?", pid).Updates(map[string]interface{}{
		"image_path": p.ImagePath,
		"updated_at": time.Now(),
	}).Error
	if err != nil {
		return nil, err
	}
	err = db.Where("id = ?", pid).Take(p).Error
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes the product and its ballots in one transaction so the
// votes counter and the ballot set never disagree.
func (p *Product) DeleteProduct(db *gorm.DB) (int64, error) {
	var affected int64
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", p.ID).Delete(&ProductBallot{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&Product{}, "id = ?", p.ID)
		if result.Error != nil {
			return result.Error
		}
		affected = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
