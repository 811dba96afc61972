package dto

import "encoding/json"

// SleepScheduleRequest captures PUT /preferences/sleep-schedule payload.
type SleepScheduleRequest struct {
	Bedtime  string `json:"bedtime" validate:"required,datetime=15:04"`
	WakeTime string `json:"wakeTime" validate:"required,datetime=15:04"`
}

// PreferenceRequest captures PUT /preferences/:key payload.
type PreferenceRequest struct {
	Value json.RawMessage `json:"value" validate:"required"`
}
