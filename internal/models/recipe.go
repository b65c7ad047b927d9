package models

import (
	"time"

	"github.com/google/uuid"
)

// Recipe is a family-owned recipe. Image, durations and tags are
// optional; a missing value means the dependent display is omitted,
// never rendered as zero.
type Recipe struct {
	ID          uuid.UUID `json:"id"`
	FamilyID    uuid.UUID `json:"family_id"`
	Name        string    `json:"name"`
	ImageURL    *string   `json:"image_url,omitempty"`
	PrepMinutes *int      `json:"prep_minutes,omitempty"`
	CookMinutes *int      `json:"cook_minutes,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Servings    int       `json:"servings"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TotalMinutes returns prep+cook, present only when both durations are.
func (r *Recipe) TotalMinutes() *int {
	if r.PrepMinutes == nil || r.CookMinutes == nil {
		return nil
	}
	total := *r.PrepMinutes + *r.CookMinutes
	return &total
}

// FirstTag returns the first tag, if any.
func (r *Recipe) FirstTag() *string {
	if len(r.Tags) == 0 {
		return nil
	}
	return &r.Tags[0]
}
