package models

import (
	"encoding/json"
	"time"
)

// DefaultCategory is used when a product is created without a category.
const DefaultCategory = "general"

// FieldChange records the value of a single field before and after an update.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// HistoryEntry is one successful, non-empty update of a product.
type HistoryEntry struct {
	EditorID  string                 `json:"editorId"`
	Changes   map[string]FieldChange `json:"changes"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// Product is an item owned by the user who created it.
type Product struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Category    string    `json:"category" db:"category"`
	OwnerID     string    `json:"ownerId" db:"owner_id"`
	Stock       int       `json:"stock" db:"stock"`
	ImageURL    string    `json:"imageUrl,omitempty" db:"image_url"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	// JSON string fields for DB storage
	TagsJSON    string `json:"-" db:"tags_json"`
	HistoryJSON string `json:"-" db:"history_json"`

	// Slice fields for API interaction
	Tags          []string       `json:"tags" db:"-"`
	UpdateHistory []HistoryEntry `json:"updateHistory" db:"-"`

	// Filled by read-side enrichment, never stored.
	CreatedBy *OwnerSummary `json:"createdBy,omitempty" db:"-"`
}

// PrepareForSave marshals all slice fields into their respective JSON strings for DB storage.
func (p *Product) PrepareForSave() {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.UpdateHistory == nil {
		p.UpdateHistory = []HistoryEntry{}
	}

	tagsBytes, _ := json.Marshal(p.Tags)
	p.TagsJSON = string(tagsBytes)

	historyBytes, _ := json.Marshal(p.UpdateHistory)
	p.HistoryJSON = string(historyBytes)
}

// PrepareForAPI unmarshals all JSON string fields into their respective slice fields for API responses.
func (p *Product) PrepareForAPI() {
	if p.TagsJSON != "" {
		json.Unmarshal([]byte(p.TagsJSON), &p.Tags)
	}
	if p.HistoryJSON != "" {
		json.Unmarshal([]byte(p.HistoryJSON), &p.UpdateHistory)
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.UpdateHistory == nil {
		p.UpdateHistory = []HistoryEntry{}
	}
}
