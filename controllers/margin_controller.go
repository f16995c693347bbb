package controllers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
)

type MarginRequest struct {
	CostCents  int64   `json:"cost_cents"`
	PriceCents int64   `json:"price_cents"`
	FeeRate    float64 `json:"fee_rate"`
}

type MarginResponse struct {
	CostCents     int64   `json:"cost_cents"`
	PriceCents    int64   `json:"price_cents"`
	FeeCents      int64   `json:"fee_cents"`
	ProfitCents   int64   `json:"profit_cents"`
	MarginPercent float64 `json:"margin_percent"`
	MarkupPercent float64 `json:"markup_percent"`
}

// CalculateMargin is the back-office profit calculator. Pure arithmetic, no
// storage: fee_rate is a fraction of the sale price (e.g. 0.029 for a card
// processor).
func (server *Server) CalculateMargin(c *gin.Context) {
	errList = map[string]string{}

	var input MarginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		errList["Unmarshal_error"] = "Cannot unmarshal body"
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errList,
		})
		return
	}

	if input.PriceCents <= 0 {
		errList["Invalid_price"] = "Price must be positive"
	}
	if input.CostCents < 0 {
		errList["Invalid_cost"] = "Cost cannot be negative"
	}
	if input.FeeRate < 0 || input.FeeRate >= 1 {
		errList["Invalid_fee_rate"] = "Fee rate must be in [0, 1)"
	}
	if len(errList) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errList,
		})
		return
	}

	feeCents := int64(math.Round(float64(input.PriceCents) * input.FeeRate))
	profitCents := input.PriceCents - input.CostCents - feeCents

	marginPercent := roundTo2(float64(profitCents) / float64(input.PriceCents) * 100)
	markupPercent := 0.0
	if input.CostCents > 0 {
		markupPercent = roundTo2(float64(profitCents) / float64(input.CostCents) * 100)
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"response": MarginResponse{
			CostCents:     input.CostCents,
			PriceCents:    input.PriceCents,
			FeeCents:      feeCents,
			ProfitCents:   profitCents,
			MarginPercent: marginPercent,
			MarkupPercent: markupPercent,
		},
	})
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
