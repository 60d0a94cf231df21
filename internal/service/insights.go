package service

import (
	"encoding/json"

	"cms_syncer/internal/domain"
)

// deriveInsights builds the per-source summary layer from whatever raw
// payloads are present. Absent or errored sources are skipped; a payload
// that fails to parse yields no section. Analysis never fails outright, it
// degrades to an empty summary.
func deriveInsights(payloads map[string]json.RawMessage) *domain.AuditInsights {
	insights := &domain.AuditInsights{
		Summary: map[string]json.RawMessage{},
		Issues:  []domain.AuditIssue{},
	}

	if raw, ok := payloads["crawl"]; ok {
		putSummary(insights, "crawl", summarizeCrawl(raw))
	}
	if raw, ok := payloads["competitors"]; ok {
		putSummary(insights, "competitors", summarizeCompetitors(raw))
	}
	if raw, ok := payloads["backlinks"]; ok {
		putSummary(insights, "backlinks", summarizeBacklinks(raw))
	}
	if raw, ok := payloads["keywords"]; ok {
		putSummary(insights, "keywords", summarizeKeywords(raw))
	}
	if raw, ok := payloads["analytics"]; ok {
		putSummary(insights, "analytics", summarizeAnalytics(raw))
	}
	if raw, ok := payloads["search_console"]; ok {
		putSummary(insights, "search_console", summarizeSearchConsole(raw))
	}

	return insights
}

func putSummary(insights *domain.AuditInsights, key string, summary any) {
	if summary == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	insights.Summary[key] = raw
}

// taskResponse is the SEO provider's common envelope: a task list whose
// first task carries a result list.
type taskResponse struct {
	Tasks []struct {
		Result []json.RawMessage `json:"result"`
	} `json:"tasks"`
}

func firstResult(raw json.RawMessage) json.RawMessage {
	var resp taskResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil
	}
	if len(resp.Tasks) == 0 || len(resp.Tasks[0].Result) == 0 {
		return nil
	}
	return resp.Tasks[0].Result[0]
}

type crawlSummary struct {
	TotalPages  int    `json:"total_pages"`
	CrawlStatus string `json:"crawl_status"`
	ItemsCount  int    `json:"items_count"`
}

func summarizeCrawl(raw json.RawMessage) any {
	result := firstResult(raw)
	if result == nil {
		return nil
	}

	var parsed struct {
		Pages       int               `json:"pages"`
		CrawlStatus string            `json:"crawl_status"`
		Items       []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return nil
	}

	status := parsed.CrawlStatus
	if status == "" {
		status = "unknown"
	}
	return crawlSummary{
		TotalPages:  parsed.Pages,
		CrawlStatus: status,
		ItemsCount:  len(parsed.Items),
	}
}

type competitorSummary struct {
	CompetitorCount int      `json:"competitor_count"`
	TopCompetitors  []string `json:"top_competitors"`
}

func summarizeCompetitors(raw json.RawMessage) any {
	result := firstResult(raw)
	if result == nil {
		return nil
	}

	var parsed struct {
		Items []struct {
			Target string `json:"target"`
		} `json:"items"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return nil
	}

	summary := competitorSummary{CompetitorCount: len(parsed.Items)}
	for i, item := range parsed.Items {
		if i == 10 {
			break
		}
		summary.TopCompetitors = append(summary.TopCompetitors, item.Target)
	}
	return summary
}

type backlinkSummary struct {
	TotalBacklinks   int `json:"total_backlinks"`
	ReferringDomains int `json:"referring_domains"`
	ReferringIPs     int `json:"referring_ips"`
}

func summarizeBacklinks(raw json.RawMessage) any {
	result := firstResult(raw)
	if result == nil {
		return nil
	}

	var parsed struct {
		Backlinks        int `json:"backlinks"`
		ReferringDomains int `json:"referring_domains"`
		ReferringIPs     int `json:"referring_ips"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return nil
	}

	return backlinkSummary{
		TotalBacklinks:   parsed.Backlinks,
		ReferringDomains: parsed.ReferringDomains,
		ReferringIPs:     parsed.ReferringIPs,
	}
}

type keywordEntry struct {
	Keyword  string `json:"keyword"`
	Position int    `json:"position"`
}

type keywordSummary struct {
	TotalKeywords int            `json:"total_keywords"`
	TopKeywords   []keywordEntry `json:"top_keywords"`
}

func summarizeKeywords(raw json.RawMessage) any {
	result := firstResult(raw)
	if result == nil {
		return nil
	}

	var parsed struct {
		Items []struct {
			Keyword           string `json:"keyword"`
			RankedSerpElement struct {
				SerpItem struct {
					RankGroup int `json:"rank_group"`
				} `json:"serp_item"`
			} `json:"ranked_serp_element"`
		} `json:"items"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return nil
	}

	summary := keywordSummary{TotalKeywords: len(parsed.Items)}
	for i, item := range parsed.Items {
		if i == 10 {
			break
		}
		summary.TopKeywords = append(summary.TopKeywords, keywordEntry{
			Keyword:  item.Keyword,
			Position: item.RankedSerpElement.SerpItem.RankGroup,
		})
	}
	return summary
}

type analyticsSummary struct {
	TotalPages     int `json:"total_pages"`
	TotalPageviews int `json:"total_pageviews"`
}

func summarizeAnalytics(raw json.RawMessage) any {
	var reports map[string]json.RawMessage
	if err := json.Unmarshal(raw, &reports); err != nil {
		return nil
	}

	pagesRaw, ok := reports["pages"]
	if !ok {
		return nil
	}

	var pages []struct {
		ScreenPageViews int `json:"screenPageViews"`
	}
	if err := json.Unmarshal(pagesRaw, &pages); err != nil {
		return nil
	}

	summary := analyticsSummary{TotalPages: len(pages)}
	for _, page := range pages {
		summary.TotalPageviews += page.ScreenPageViews
	}
	return summary
}

type searchConsoleSummary struct {
	TotalQueries     int     `json:"total_queries"`
	TotalClicks      int     `json:"total_clicks"`
	TotalImpressions int     `json:"total_impressions"`
	AvgCTR           float64 `json:"avg_ctr"`
}

func summarizeSearchConsole(raw json.RawMessage) any {
	var reports map[string]json.RawMessage
	if err := json.Unmarshal(raw, &reports); err != nil {
		return nil
	}

	queriesRaw, ok := reports["query"]
	if !ok {
		return nil
	}

	var parsed struct {
		Rows []struct {
			Clicks      int `json:"clicks"`
			Impressions int `json:"impressions"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(queriesRaw, &parsed); err != nil {
		return nil
	}

	summary := searchConsoleSummary{TotalQueries: len(parsed.Rows)}
	for _, row := range parsed.Rows {
		summary.TotalClicks += row.Clicks
		summary.TotalImpressions += row.Impressions
	}
	if summary.TotalImpressions > 0 {
		summary.AvgCTR = float64(summary.TotalClicks) / float64(summary.TotalImpressions) * 100
	}
	return summary
}
