package domain

import (
	"encoding/json"
	"time"
)

// AuditStatus is the lifecycle state of an audit. Transitions are
// one-directional: running may move to completed or failed, both terminal.
type AuditStatus string

const (
	AuditRunning   AuditStatus = "running"
	AuditCompleted AuditStatus = "completed"
	AuditFailed    AuditStatus = "failed"
)

// AuditRecord is one multi-source data collection run against a single
// domain. SourcePayloads holds the raw result per source key, or a
// "<key>_error" entry when that source failed.
type AuditRecord struct {
	ID             int64                      `db:"id" json:"id"`
	Domain         string                     `db:"domain" json:"domain"`
	Status         AuditStatus                `db:"status" json:"status"`
	ErrorMessage   *string                    `db:"error_message" json:"error_message,omitempty"`
	StartedAt      time.Time                  `db:"started_at" json:"started_at"`
	CompletedAt    *time.Time                 `db:"completed_at" json:"completed_at,omitempty"`
	SourcePayloads map[string]json.RawMessage `json:"source_payloads,omitempty"`
	Insights       *AuditInsights             `json:"insights,omitempty"`
}

// AuditTarget identifies what an audit run collects data for.
type AuditTarget struct {
	Domain              string
	AnalyticsPropertyID string
	MaxCrawlPages       int
}

// AuditInsights is the derived per-source summary layer. Sections are
// populated only for sources that returned data.
type AuditInsights struct {
	Summary map[string]json.RawMessage `json:"summary"`
	Issues  []AuditIssue               `json:"issues"`
}

// AuditIssue is one prioritized finding derived during analysis.
type AuditIssue struct {
	Source   string `json:"source"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}
