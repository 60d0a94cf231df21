package domain

import "time"

// SyncStats holds statistics about one ingestion cycle.
type SyncStats struct {
	Sites       int
	Submissions int
	Orders      int
	Products    int
	Skipped     int
	Errors      int
	Duration    time.Duration
}

// NotifyStats holds statistics about one notification cycle.
type NotifyStats struct {
	SubmissionsSent int
	OrdersSent      int
	Failures        int
	Duration        time.Duration
}
