package responses

import (
	"time"

	"Stitchup/models"
)

type ProductResponse struct {
	ID          uint      `json:"id"`
	PublicID    string    `json:"public_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	ImagePath   string    `json:"image_path"`
	Votes       int       `json:"votes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		PublicID:    p.PublicID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		ImagePath:   p.ImagePath,
		Votes:       p.Votes,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type PollOptionResponse struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
	Votes int64  `json:"votes"`
}

type PollResponse struct {
	ID            uint                 `json:"id"`
	Question      string               `json:"question"`
	IsActive      bool                 `json:"is_active"`
	Options       []PollOptionResponse `json:"options"`
	VotedOptionID uint                 `json:"voted_option_id,omitempty"`
	HasVoted      bool                 `json:"has_voted"`
	TotalVotes    int64                `json:"total_votes"`
}
