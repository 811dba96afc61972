package models

import "time"

// AnalyticsSummary aggregates study progress for the insights screen.
type AnalyticsSummary struct {
	Total            int                   `json:"total"`
	Completed        int                   `json:"completed"`
	Pending          int                   `json:"pending"`
	CompletionRate   int                   `json:"completionRate"`
	WeeklyActivity   []WeeklyActivityPoint `json:"weeklyActivity"`
	Courses          []CourseShare         `json:"courseDistribution"`
	Types            []TypeBreakdown       `json:"typeDistribution"`
	UpcomingWorkload []WorkloadPoint       `json:"upcomingWorkload"`
	TotalStudyBlocks int                   `json:"totalStudyBlocks"`
	CompletedBlocks  int                   `json:"completedBlocks"`
	GeneratedAt      time.Time             `json:"generatedAt"`
}

// WeeklyActivityPoint counts assignments due and completed on one day.
type WeeklyActivityPoint struct {
	Day       string `json:"day"`
	Date      string `json:"date"`
	Completed int    `json:"completed"`
	Due       int    `json:"due"`
}

// CourseShare counts assignments per course code.
type CourseShare struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// TypeBreakdown reports completion per assignment type.
type TypeBreakdown struct {
	Type      string `json:"type"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Rate      int    `json:"rate"`
}

// WorkloadPoint estimates outstanding hours due on a day.
type WorkloadPoint struct {
	Day   string  `json:"day"`
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
	Tasks int     `json:"tasks"`
}

// Recommendation is a study tip derived from current workload.
type Recommendation struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ActionLabel string `json:"actionLabel,omitempty"`
	ActionRoute string `json:"actionRoute,omitempty"`
	Dismissible bool   `json:"dismissible"`
}

// AnalyticsSystemMetrics represents system level analytics captured from instrumentation.
type AnalyticsSystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	PlannerRuns              uint64    `json:"planner_runs"`
	PlannerDroppedSessions   uint64    `json:"planner_dropped_sessions"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
