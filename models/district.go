// backend/models/district.go
package models

import "time"

// District is an administrative region tracked by code, name and parent state.
// Created on first sight (API discovery or manual upload), updated only to
// refresh names, never deleted.
type District struct {
	ID           int64     `json:"-"`
	DistrictCode string    `json:"district_code"`
	DistrictName string    `json:"district_name"`
	StateCode    string    `json:"state_code"`
	StateName    string    `json:"state_name"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"last_updated"`
}

// State is a parent region discovered from the government API.
type State struct {
	StateCode string `json:"state_code"`
	StateName string `json:"state_name"`
}
