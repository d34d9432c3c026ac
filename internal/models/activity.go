package models

import (
	"encoding/json"
	"time"
)

// Activity action tags.
const (
	ActionSignup        = "SIGNUP"
	ActionLogin         = "LOGIN"
	ActionLoginFailed   = "LOGIN_FAILED"
	ActionLogout        = "LOGOUT"
	ActionGetProfile    = "GET_PROFILE"
	ActionGetActivity   = "GET_ACTIVITY"
	ActionCreateProduct = "CREATE_PRODUCT"
	ActionGetProducts   = "GET_PRODUCTS"
	ActionUpdateProduct = "UPDATE_PRODUCT"
	ActionDeleteProduct = "DELETE_PRODUCT"
)

// Resource types referenced by activity entries.
const (
	ResourceUser    = "User"
	ResourceProduct = "Product"
)

// ActivityLogEntry represents one recorded action. Entries are append-only.
type ActivityLogEntry struct {
	ID           string         `json:"id" db:"id"`
	UserID       *string        `json:"userId,omitempty" db:"user_id"` // Nullable for anonymous events
	Action       string         `json:"action" db:"action"`
	ResourceType *string        `json:"resourceType,omitempty" db:"resource_type"`
	ResourceID   *string        `json:"resourceId,omitempty" db:"resource_id"`
	MetaJSON     string         `json:"-" db:"meta_json"`
	Meta         map[string]any `json:"meta" db:"-"`
	IPAddress    string         `json:"ipAddress,omitempty" db:"ip_address"`
	UserAgent    string         `json:"userAgent,omitempty" db:"user_agent"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
}

// PrepareForSave marshals the metadata map for DB storage.
func (e *ActivityLogEntry) PrepareForSave() error {
	if e.Meta == nil {
		e.MetaJSON = "{}"
		return nil
	}
	metaBytes, err := json.Marshal(e.Meta)
	if err != nil {
		return err
	}
	e.MetaJSON = string(metaBytes)
	return nil
}

// PrepareForAPI unmarshals the stored metadata.
func (e *ActivityLogEntry) PrepareForAPI() {
	if e.MetaJSON != "" {
		json.Unmarshal([]byte(e.MetaJSON), &e.Meta)
	}
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
}

// ActionCount summarizes how often an action was recorded in a window.
type ActionCount struct {
	Action       string    `json:"action"`
	Count        int       `json:"count"`
	LastActivity time.Time `json:"lastActivity"`
}
