package models

import "time"

type MaterialRecord struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title" validate:"required,max=200"`
	Description string    `json:"description" db:"description"`
	PDFURL      string    `json:"pdf_url" db:"pdf_url" validate:"required,url"`
	Category    string    `json:"category" db:"category" validate:"required,max=100"`
	Language    string    `json:"language" db:"language" validate:"required"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// MaterialGroup is one category of materials, in display order.
type MaterialGroup struct {
	Category  string           `json:"category"`
	Materials []MaterialRecord `json:"materials"`
}

type MaterialFilter struct {
	Language string
	Category string
}
