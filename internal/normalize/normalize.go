// Package normalize maps loosely-structured provider payloads into canonical
// records. Field extraction walks an ordered candidate-key list per logical
// field and takes the first present non-null match; only identifying keys are
// required. All functions are pure and deterministic.
package normalize

import (
	"encoding/json"
	"fmt"
	"time"

	"cms_syncer/internal/domain"
)

var (
	emailKeys    = []string{"email", "Email", "e-mail", "E-mail", "EMAIL"}
	nameKeys     = []string{"name", "Name", "full_name", "Full Name", "NAME"}
	firstKeys    = []string{"first_name", "First Name"}
	lastKeys     = []string{"last_name", "Last Name"}
	siteKeys     = []string{"site_name", "siteName", "site"}
	orderIDKeys  = []string{"id", "order_id", "orderId"}
	orderNumKeys = []string{"order_number", "invoice_number"}
	dateKeys     = []string{"date", "created", "created_at", "order_date", "submission_date"}
)

// Site builds a canonical Site from a provider payload. The full raw payload
// is retained as metadata.
func Site(raw map[string]any) (*domain.Site, error) {
	name := firstString(raw, siteKeys...)
	if name == nil {
		return nil, &domain.NormalizationError{Entity: "site", Field: "site_name"}
	}

	site := &domain.Site{
		SiteName:     *name,
		Published:    firstBool(raw, "published", "is_published"),
		StoreEnabled: firstBool(raw, "store_enabled", "storeEnabled"),
		BlogEnabled:  firstBool(raw, "blog_enabled", "blogEnabled"),
		TemplateID:   firstString(raw, "template_id", "templateId"),
	}

	if title := firstString(raw, "site_title", "site_default_domain"); title != nil {
		site.Title = *title
	} else {
		site.Title = *name
	}
	if dom := firstString(raw, "site_domain", "site_default_domain"); dom != nil {
		site.Domain = *dom
	}
	site.CreatedDate = firstString(raw, "creation_date", "created_date")
	site.LastPublishedDate = firstString(raw, "last_published_date")

	meta, err := json.Marshal(raw)
	if err != nil {
		return nil, &domain.NormalizationError{Entity: "site", Field: "metadata"}
	}
	site.Metadata = meta

	return site, nil
}

// Submission builds a canonical FormSubmission. Submitter name and email are
// pulled from the field map via candidate keys; their absence is not an
// error. The submission timestamp falls back to now when the provider omits
// it.
func Submission(siteName string, raw map[string]any, now time.Time) (*domain.FormSubmission, error) {
	if siteName == "" {
		return nil, &domain.NormalizationError{Entity: "form_submission", Field: "site_name"}
	}

	fields := fieldMap(raw)

	sub := &domain.FormSubmission{
		SiteName:       siteName,
		FormID:         stringOr(firstString(raw, "form_id", "formId"), "unknown"),
		FormTitle:      stringOr(firstString(raw, "form_title", "formTitle"), "Contact Form"),
		SubmitterEmail: extractEmail(raw, fields),
		SubmitterName:  extractName(raw, fields),
		SubmittedAt:    firstTime(raw, now, dateKeys...),
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, &domain.NormalizationError{Entity: "form_submission", Field: "data"}
	}
	sub.Data = data

	return sub, nil
}

// Order builds a canonical EcommerceOrder. The order identifier is the only
// required field.
func Order(siteName string, raw map[string]any, now time.Time) (*domain.EcommerceOrder, error) {
	key := firstString(raw, orderIDKeys...)
	if key == nil {
		return nil, &domain.NormalizationError{Entity: "ecommerce_order", Field: "order_id"}
	}

	order := &domain.EcommerceOrder{
		OrderKey:      *key,
		SiteName:      siteName,
		OrderNumber:   stringOr(firstString(raw, orderNumKeys...), *key),
		OrderedAt:     firstTime(raw, now, dateKeys...),
		CustomerEmail: firstString(raw, "email", "customer_email"),
		CustomerName:  customerName(raw),
		Total:         firstFloat(raw, "total", "total_amount"),
		Currency:      stringOr(firstString(raw, "currency"), "USD"),
		Status:        stringOr(firstString(raw, "status"), "unknown"),
		Items:         marshalPart(raw, "items", []byte("[]")),
		Shipping:      marshalPart(raw, "shipping_address", []byte("{}")),
		Billing:       marshalPart(raw, "billing_address", []byte("{}")),
	}

	return order, nil
}

// Product builds a canonical Product keyed by (site, product id).
func Product(siteName string, raw map[string]any) (*domain.Product, error) {
	key := firstString(raw, "id", "product_id", "productId")
	if key == nil {
		return nil, &domain.NormalizationError{Entity: "product", Field: "product_id"}
	}
	name := firstString(raw, "name", "product_name")
	if name == nil {
		return nil, &domain.NormalizationError{Entity: "product", Field: "name"}
	}

	product := &domain.Product{
		SiteName:    siteName,
		ProductKey:  *key,
		Name:        *name,
		Description: firstString(raw, "description"),
		Price:       firstFloat(raw, "price"),
		Currency:    stringOr(firstString(raw, "currency"), "USD"),
		SKU:         firstString(raw, "sku"),
		Stock:       int(firstFloat(raw, "stock_quantity", "quantity")),
		Category:    firstString(raw, "category"),
		Images:      marshalPart(raw, "images", []byte("[]")),
		Active:      boolOr(raw, true, "active", "is_active"),
	}

	return product, nil
}

// fieldMap returns the submission's field container, trying "fields" then
// "data", falling back to an empty map.
func fieldMap(raw map[string]any) map[string]any {
	for _, key := range []string{"fields", "data"} {
		if m, ok := raw[key].(map[string]any); ok && len(m) > 0 {
			return m
		}
	}
	return map[string]any{}
}

func extractEmail(raw, fields map[string]any) *string {
	if v := firstString(fields, emailKeys...); v != nil {
		return v
	}
	return firstString(raw, "email", "submitter_email", "user_email")
}

// extractName tries single-name fields first, then combines first and last
// name, then falls back to top-level keys.
func extractName(raw, fields map[string]any) *string {
	if v := firstString(fields, nameKeys...); v != nil {
		return v
	}

	first := firstString(fields, firstKeys...)
	last := firstString(fields, lastKeys...)
	if first != nil && last != nil {
		combined := fmt.Sprintf("%s %s", *first, *last)
		return &combined
	}
	if first != nil {
		return first
	}

	return firstString(raw, "name", "submitter_name", "user_name")
}

func customerName(raw map[string]any) *string {
	if billing, ok := raw["billing_address"].(map[string]any); ok {
		if v := firstString(billing, "full_name"); v != nil {
			return v
		}
	}
	return firstString(raw, "customer_name")
}

func firstString(m map[string]any, keys ...string) *string {
	for _, key := range keys {
		if v, ok := m[key]; ok && v != nil {
			if s, ok := v.(string); ok && s != "" {
				return &s
			}
		}
	}
	return nil
}

func firstBool(m map[string]any, keys ...string) bool {
	for _, key := range keys {
		switch v := m[key].(type) {
		case bool:
			return v
		case float64:
			return v != 0
		}
	}
	return false
}

func boolOr(m map[string]any, def bool, keys ...string) bool {
	for _, key := range keys {
		switch v := m[key].(type) {
		case bool:
			return v
		case float64:
			return v != 0
		}
	}
	return def
}

func firstFloat(m map[string]any, keys ...string) float64 {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f
			}
		}
	}
	return 0
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func firstTime(m map[string]any, fallback time.Time, keys ...string) time.Time {
	for _, key := range keys {
		s, ok := m[key].(string)
		if !ok || s == "" {
			continue
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return fallback
}

func stringOr(v *string, def string) string {
	if v != nil {
		return *v
	}
	return def
}

func marshalPart(m map[string]any, key string, def json.RawMessage) json.RawMessage {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	data, err := json.Marshal(v)
	if err != nil {
		return def
	}
	return data
}
