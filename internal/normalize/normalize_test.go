package normalize

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cms_syncer/internal/domain"
)

func TestSite(t *testing.T) {
	raw := map[string]any{
		"site_name":           "my-site",
		"site_title":          "My Site",
		"site_domain":         "example.com",
		"published":           true,
		"store_enabled":       true,
		"creation_date":       "2024-01-01",
		"last_published_date": "2024-06-01",
	}

	site, err := Site(raw)
	require.NoError(t, err)

	assert.Equal(t, "my-site", site.SiteName)
	assert.Equal(t, "My Site", site.Title)
	assert.Equal(t, "example.com", site.Domain)
	assert.True(t, site.Published)
	assert.True(t, site.StoreEnabled)
	assert.False(t, site.BlogEnabled)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(site.Metadata, &meta))
	assert.Equal(t, "my-site", meta["site_name"])
}

func TestSite_TitleFallsBackToName(t *testing.T) {
	site, err := Site(map[string]any{"site_name": "bare"})
	require.NoError(t, err)
	assert.Equal(t, "bare", site.Title)
}

func TestSite_MissingName(t *testing.T) {
	_, err := Site(map[string]any{"site_title": "No Name"})

	var normErr *domain.NormalizationError
	require.True(t, errors.As(err, &normErr))
	assert.Equal(t, "site", normErr.Entity)
	assert.Equal(t, "site_name", normErr.Field)
}

func TestSubmission_FieldExtraction(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	raw := map[string]any{
		"form_id":    "contact",
		"form_title": "Contact Us",
		"date":       "2024-05-30T10:00:00Z",
		"fields": map[string]any{
			"E-mail":  "jo@example.com",
			"Name":    "Jo Smith",
			"message": "hello",
		},
	}

	sub, err := Submission("my-site", raw, now)
	require.NoError(t, err)

	assert.Equal(t, "my-site", sub.SiteName)
	assert.Equal(t, "contact", sub.FormID)
	require.NotNil(t, sub.SubmitterEmail)
	assert.Equal(t, "jo@example.com", *sub.SubmitterEmail)
	require.NotNil(t, sub.SubmitterName)
	assert.Equal(t, "Jo Smith", *sub.SubmitterName)
	assert.Equal(t, time.Date(2024, 5, 30, 10, 0, 0, 0, time.UTC), sub.SubmittedAt)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(sub.Data, &fields))
	assert.Equal(t, "hello", fields["message"])
}

func TestSubmission_CombinesFirstAndLastName(t *testing.T) {
	raw := map[string]any{
		"fields": map[string]any{
			"first_name": "Jo",
			"last_name":  "Smith",
		},
	}

	sub, err := Submission("my-site", raw, time.Now())
	require.NoError(t, err)
	require.NotNil(t, sub.SubmitterName)
	assert.Equal(t, "Jo Smith", *sub.SubmitterName)
}

func TestSubmission_Defaults(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	sub, err := Submission("my-site", map[string]any{}, now)
	require.NoError(t, err)

	assert.Equal(t, "unknown", sub.FormID)
	assert.Equal(t, "Contact Form", sub.FormTitle)
	assert.Nil(t, sub.SubmitterEmail)
	assert.Nil(t, sub.SubmitterName)
	assert.Equal(t, now, sub.SubmittedAt)
	assert.JSONEq(t, "{}", string(sub.Data))
}

func TestSubmission_EmptySiteName(t *testing.T) {
	_, err := Submission("", map[string]any{}, time.Now())

	var normErr *domain.NormalizationError
	require.True(t, errors.As(err, &normErr))
	assert.Equal(t, "site_name", normErr.Field)
}

func TestOrder(t *testing.T) {
	now := time.Now()
	raw := map[string]any{
		"id":           "ord-77",
		"order_number": "1042",
		"date":         "2024-05-01",
		"email":        "buyer@example.com",
		"total":        99.5,
		"currency":     "EUR",
		"status":       "paid",
		"items":        []any{map[string]any{"sku": "A1"}},
		"billing_address": map[string]any{
			"full_name": "Pat Buyer",
		},
	}

	order, err := Order("shop", raw, now)
	require.NoError(t, err)

	assert.Equal(t, "ord-77", order.OrderKey)
	assert.Equal(t, "1042", order.OrderNumber)
	assert.Equal(t, "shop", order.SiteName)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), order.OrderedAt)
	require.NotNil(t, order.CustomerEmail)
	assert.Equal(t, "buyer@example.com", *order.CustomerEmail)
	require.NotNil(t, order.CustomerName)
	assert.Equal(t, "Pat Buyer", *order.CustomerName)
	assert.Equal(t, 99.5, order.Total)
	assert.Equal(t, "EUR", order.Currency)
	assert.Equal(t, "paid", order.Status)
	assert.JSONEq(t, `[{"sku":"A1"}]`, string(order.Items))
	assert.JSONEq(t, `{"full_name":"Pat Buyer"}`, string(order.Billing))
	assert.JSONEq(t, `{}`, string(order.Shipping))
}

func TestOrder_Defaults(t *testing.T) {
	now := time.Now()

	order, err := Order("shop", map[string]any{"id": "ord-1"}, now)
	require.NoError(t, err)

	assert.Equal(t, "ord-1", order.OrderNumber)
	assert.Equal(t, "USD", order.Currency)
	assert.Equal(t, "unknown", order.Status)
	assert.Equal(t, now, order.OrderedAt)
	assert.JSONEq(t, "[]", string(order.Items))
}

func TestOrder_MissingID(t *testing.T) {
	_, err := Order("shop", map[string]any{"total": 5.0}, time.Now())

	var normErr *domain.NormalizationError
	require.True(t, errors.As(err, &normErr))
	assert.Equal(t, "ecommerce_order", normErr.Entity)
}

func TestProduct(t *testing.T) {
	raw := map[string]any{
		"id":             "p-1",
		"name":           "Mug",
		"description":    "A mug",
		"price":          7.5,
		"sku":            "MUG-01",
		"stock_quantity": 12.0,
		"category":       "kitchen",
		"active":         false,
		"images":         []any{"a.jpg"},
	}

	product, err := Product("shop", raw)
	require.NoError(t, err)

	assert.Equal(t, "p-1", product.ProductKey)
	assert.Equal(t, "shop", product.SiteName)
	assert.Equal(t, "Mug", product.Name)
	assert.Equal(t, 7.5, product.Price)
	assert.Equal(t, 12, product.Stock)
	assert.False(t, product.Active)
	assert.JSONEq(t, `["a.jpg"]`, string(product.Images))
}

func TestProduct_ActiveDefaultsTrue(t *testing.T) {
	product, err := Product("shop", map[string]any{"id": "p-2", "name": "Plate"})
	require.NoError(t, err)
	assert.True(t, product.Active)
}

func TestProduct_MissingName(t *testing.T) {
	_, err := Product("shop", map[string]any{"id": "p-3"})

	var normErr *domain.NormalizationError
	require.True(t, errors.As(err, &normErr))
	assert.Equal(t, "name", normErr.Field)
}
