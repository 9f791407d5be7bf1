package entity

import "time"

// Bill represents an expense bill submitted by an employee
type Bill struct {
	ID           string    `json:"id" yaml:"id"`
	Type         string    `json:"type" yaml:"type"`
	Name         string    `json:"name" yaml:"name"`
	Date         string    `json:"date" yaml:"date"` // YYYY-MM-DD
	Amount       float64   `json:"amount" yaml:"amount"`
	VAT          float64   `json:"vat" yaml:"vat"`
	Pct          int       `json:"pct" yaml:"pct"`
	Commentary   string    `json:"commentary,omitempty" yaml:"commentary"`
	FileURL      string    `json:"fileUrl,omitempty" yaml:"fileUrl"`
	FileName     string    `json:"fileName,omitempty" yaml:"fileName"`
	Status       string    `json:"status" yaml:"status"`
	Email        string    `json:"email" yaml:"email"`
	CommentAdmin string    `json:"commentAdmin,omitempty" yaml:"commentAdmin"`
	CreatedAt    time.Time `json:"createdAt,omitempty" yaml:"-"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty" yaml:"-"`
}

// ParsedDate returns the bill date as a time.Time.
// The second result is false when the date is not a YYYY-MM-DD calendar date.
func (b *Bill) ParsedDate() (time.Time, bool) {
	t, err := time.Parse(DateLayout, b.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// HasAttachment returns true if an uploaded receipt is linked to the bill
func (b *Bill) HasAttachment() bool {
	return b.FileURL != "" && b.FileName != ""
}

// IsPending returns true while the bill awaits a decision
func (b *Bill) IsPending() bool {
	return b.Status == StatusPending
}
