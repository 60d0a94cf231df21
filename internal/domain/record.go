package domain

import (
	"encoding/json"
	"time"
)

// Site is the canonical record for one CMS site. One row per SiteName;
// upserts replace the full row.
type Site struct {
	SiteName          string          `db:"site_name" json:"site_name"`
	Title             string          `db:"title" json:"title"`
	Domain            string          `db:"domain" json:"domain"`
	TemplateID        *string         `db:"template_id" json:"template_id,omitempty"`
	Published         bool            `db:"published" json:"published"`
	CreatedDate       *string         `db:"created_date" json:"created_date,omitempty"`
	LastPublishedDate *string         `db:"last_published_date" json:"last_published_date,omitempty"`
	StoreEnabled      bool            `db:"store_enabled" json:"store_enabled"`
	BlogEnabled       bool            `db:"blog_enabled" json:"blog_enabled"`
	Metadata          json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	LastUpdated       time.Time       `db:"last_updated" json:"last_updated"`
}

// FormSubmission is append-only: after insert only the Delivered flag may
// change, and only from false to true.
type FormSubmission struct {
	ID             int64           `db:"id" json:"id"`
	SiteName       string          `db:"site_name" json:"site_name"`
	FormID         string          `db:"form_id" json:"form_id"`
	FormTitle      string          `db:"form_title" json:"form_title"`
	SubmittedAt    time.Time       `db:"submitted_at" json:"submitted_at"`
	Data           json.RawMessage `db:"data" json:"data,omitempty"`
	SubmitterName  *string         `db:"submitter_name" json:"submitter_name,omitempty"`
	SubmitterEmail *string         `db:"submitter_email" json:"submitter_email,omitempty"`
	Delivered      bool            `db:"delivered" json:"delivered"`
	LastUpdated    time.Time       `db:"last_updated" json:"last_updated"`
}

// EcommerceOrder is upserted by OrderKey. The Delivered flag survives
// upserts and never goes back to false once set.
type EcommerceOrder struct {
	ID            int64           `db:"id" json:"id"`
	OrderKey      string          `db:"order_key" json:"order_key"`
	SiteName      string          `db:"site_name" json:"site_name"`
	OrderNumber   string          `db:"order_number" json:"order_number"`
	OrderedAt     time.Time       `db:"ordered_at" json:"ordered_at"`
	CustomerName  *string         `db:"customer_name" json:"customer_name,omitempty"`
	CustomerEmail *string         `db:"customer_email" json:"customer_email,omitempty"`
	Total         float64         `db:"total" json:"total"`
	Currency      string          `db:"currency" json:"currency"`
	Status        string          `db:"status" json:"status"`
	Items         json.RawMessage `db:"items" json:"items,omitempty"`
	Shipping      json.RawMessage `db:"shipping" json:"shipping,omitempty"`
	Billing       json.RawMessage `db:"billing" json:"billing,omitempty"`
	Delivered     bool            `db:"delivered" json:"delivered"`
	LastUpdated   time.Time       `db:"last_updated" json:"last_updated"`
}

// Product is upserted by the (SiteName, ProductKey) composite key. Products
// carry no delivery tracking.
type Product struct {
	ID          int64           `db:"id" json:"id"`
	SiteName    string          `db:"site_name" json:"site_name"`
	ProductKey  string          `db:"product_key" json:"product_key"`
	Name        string          `db:"name" json:"name"`
	Description *string         `db:"description" json:"description,omitempty"`
	Price       float64         `db:"price" json:"price"`
	Currency    string          `db:"currency" json:"currency"`
	SKU         *string         `db:"sku" json:"sku,omitempty"`
	Stock       int             `db:"stock" json:"stock"`
	Category    *string         `db:"category" json:"category,omitempty"`
	Images      json.RawMessage `db:"images" json:"images,omitempty"`
	Active      bool            `db:"active" json:"active"`
	LastUpdated time.Time       `db:"last_updated" json:"last_updated"`
}
