package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// PreferenceKeySleepSchedule stores the user's wake and bed times.
const PreferenceKeySleepSchedule = "sleepSchedule"

// Preference is a keyed JSON document.
type Preference struct {
	Key       string         `db:"key" json:"key"`
	Value     types.JSONText `db:"value" json:"value"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
}
