package models

import "github.com/shopspring/decimal"

// FeeHead is one named component of a course's total cost.
type FeeHead struct {
	ID       string          `json:"id"`
	CourseID string          `json:"courseId"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Category HeadCategory    `json:"type"`
}

// Course is a billing template made of fee heads.
type Course struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Frequency   Frequency       `json:"frequency"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Heads       []FeeHead       `json:"heads"`
}

// SumHeads returns the sum of head amounts.
func SumHeads(heads []FeeHead) decimal.Decimal {
	total := decimal.Zero
	for _, h := range heads {
		total = total.Add(h.Amount)
	}
	return total
}
