package dto

import (
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/planner"
)

// GenerateStudyPlanRequest captures the generator options. Omitted flags
// take the planner defaults.
type GenerateStudyPlanRequest struct {
	Range          string `json:"range" validate:"omitempty,oneof=today week two_weeks month"`
	SpreadExamPrep *bool  `json:"spreadExamPrep"`
	StartEarly     *bool  `json:"startEarly"`
	IncludeBreaks  *bool  `json:"includeBreaks"`
	RespectSleep   *bool  `json:"respectSleep"`
	AllowWeekend   *bool  `json:"allowWeekend"`
}

// Options resolves the request against planner defaults.
func (r GenerateStudyPlanRequest) Options() planner.Options {
	opts := planner.DefaultOptions()
	if r.Range != "" {
		opts.Range = planner.Range(r.Range)
	}
	apply := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&opts.SpreadExamPrep, r.SpreadExamPrep)
	apply(&opts.StartEarly, r.StartEarly)
	apply(&opts.IncludeBreaks, r.IncludeBreaks)
	apply(&opts.RespectSleep, r.RespectSleep)
	apply(&opts.AllowWeekend, r.AllowWeekend)
	return opts
}

// StudyPlanSummary reports what a generation run produced.
type StudyPlanSummary struct {
	BlockCount         int     `json:"blockCount"`
	TotalHours         float64 `json:"totalHours"`
	AssignmentsCovered int     `json:"assignmentsCovered"`
	DroppedSessions    int     `json:"droppedSessions"`
}

// StudyPlanResponse is returned by generate and preview.
type StudyPlanResponse struct {
	Blocks    []models.ScheduleBlock `json:"blocks"`
	Summary   StudyPlanSummary       `json:"summary"`
	Tasks     []planner.StudyTask    `json:"tasks"`
	Coverage  []planner.Coverage     `json:"coverage"`
	Persisted bool                   `json:"persisted"`
}
