package model

import "time"

// CheckRecord is one persisted check cycle outcome for a single signal.
type CheckRecord struct {
	ID                 string    `json:"id"`
	Signal             Signal    `json:"signal"`
	Status             Status    `json:"status"`
	Action             Action    `json:"action,omitempty"`
	UtilizationPercent float64   `json:"utilization_percent,omitempty"`
	Volume             float64   `json:"volume,omitempty"`
	MaxVolume          float64   `json:"max_volume,omitempty"`
	CriticalCount      int       `json:"critical_count,omitempty"`
	WarningCount       int       `json:"warning_count,omitempty"`
	OKCount            int       `json:"ok_count,omitempty"`
	Skipped            bool      `json:"skipped,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

// DeliveryRecord is one persisted notification delivery attempt.
type DeliveryRecord struct {
	ID         string    `json:"id"`
	Backend    string    `json:"backend"`
	Identifier string    `json:"identifier"`
	StatusCode int       `json:"status_code"`
	DryRun     bool      `json:"dry_run"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// HistoryFilter narrows history queries.
type HistoryFilter struct {
	Signal    Signal
	Status    Status
	Backend   string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}
