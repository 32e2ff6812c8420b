package model

import "time"

// WindowStatus describes the check-in window applicable at one instant.
// WindowStart/WindowEnd are nil when no window could be resolved.
type WindowStatus struct {
	IsTradingDay   bool
	InWindow       bool
	WindowStart    *time.Time
	WindowEnd      *time.Time
	NextTradingDay *time.Time
}
