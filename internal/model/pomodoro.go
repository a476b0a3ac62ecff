package model

import "time"

// CompletedFocusSession is written once when a focus phase finishes and is
// never updated afterwards. The completion reporter is its only writer.
type CompletedFocusSession struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	TaskLabel       string    `json:"taskName"`
	DurationMinutes int       `json:"duration"`
	CompletedAt     time.Time `json:"completedAt"`
}

type FocusStats struct {
	TotalSessions int     `json:"totalSessions"`
	TotalMinutes  int     `json:"totalMinutes"`
	AvgDuration   float64 `json:"avgDuration"`
}
