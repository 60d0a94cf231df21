package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveInsights_CrawlAndBacklinks(t *testing.T) {
	payloads := map[string]json.RawMessage{
		"crawl": json.RawMessage(`{
			"tasks": [{"result": [{
				"pages": 42,
				"crawl_status": "finished",
				"items": [{}, {}]
			}]}]
		}`),
		"backlinks": json.RawMessage(`{
			"tasks": [{"result": [{
				"backlinks": 1200,
				"referring_domains": 85,
				"referring_ips": 60
			}]}]
		}`),
	}

	insights := deriveInsights(payloads)

	require.Contains(t, insights.Summary, "crawl")
	assert.JSONEq(t,
		`{"total_pages":42,"crawl_status":"finished","items_count":2}`,
		string(insights.Summary["crawl"]),
	)

	require.Contains(t, insights.Summary, "backlinks")
	assert.JSONEq(t,
		`{"total_backlinks":1200,"referring_domains":85,"referring_ips":60}`,
		string(insights.Summary["backlinks"]),
	)
}

func TestDeriveInsights_KeywordsTopTen(t *testing.T) {
	items := make([]map[string]any, 15)
	for i := range items {
		items[i] = map[string]any{
			"keyword": "kw",
			"ranked_serp_element": map[string]any{
				"serp_item": map[string]any{"rank_group": i + 1},
			},
		}
	}
	result, err := json.Marshal(map[string]any{
		"tasks": []any{map[string]any{"result": []any{map[string]any{"items": items}}}},
	})
	require.NoError(t, err)

	insights := deriveInsights(map[string]json.RawMessage{"keywords": result})

	require.Contains(t, insights.Summary, "keywords")

	var summary keywordSummary
	require.NoError(t, json.Unmarshal(insights.Summary["keywords"], &summary))
	assert.Equal(t, 15, summary.TotalKeywords)
	assert.Len(t, summary.TopKeywords, 10)
	assert.Equal(t, 1, summary.TopKeywords[0].Position)
}

func TestDeriveInsights_AnalyticsAndSearchConsole(t *testing.T) {
	payloads := map[string]json.RawMessage{
		"analytics": json.RawMessage(`{
			"pages": [{"screenPageViews": 100}, {"screenPageViews": 50}]
		}`),
		"search_console": json.RawMessage(`{
			"query": {"rows": [
				{"clicks": 10, "impressions": 200},
				{"clicks": 5, "impressions": 100}
			]}
		}`),
	}

	insights := deriveInsights(payloads)

	var analytics analyticsSummary
	require.NoError(t, json.Unmarshal(insights.Summary["analytics"], &analytics))
	assert.Equal(t, 2, analytics.TotalPages)
	assert.Equal(t, 150, analytics.TotalPageviews)

	var sc searchConsoleSummary
	require.NoError(t, json.Unmarshal(insights.Summary["search_console"], &sc))
	assert.Equal(t, 2, sc.TotalQueries)
	assert.Equal(t, 15, sc.TotalClicks)
	assert.Equal(t, 300, sc.TotalImpressions)
	assert.InDelta(t, 5.0, sc.AvgCTR, 0.001)
}

func TestDeriveInsights_MalformedPayloadSkipped(t *testing.T) {
	payloads := map[string]json.RawMessage{
		"crawl":       json.RawMessage(`not json`),
		"crawl_error": json.RawMessage(`"timeout"`),
	}

	insights := deriveInsights(payloads)

	assert.Empty(t, insights.Summary)
	assert.Empty(t, insights.Issues)
}

func TestDeriveInsights_EmptyTaskList(t *testing.T) {
	payloads := map[string]json.RawMessage{
		"competitors": json.RawMessage(`{"tasks": []}`),
	}

	insights := deriveInsights(payloads)

	assert.NotContains(t, insights.Summary, "competitors")
}
