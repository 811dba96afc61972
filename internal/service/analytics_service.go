package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/models"
)

// analyticsCachePattern matches every cached analytics payload.
const analyticsCachePattern = "analytics:*"

var analyticsEffort = map[models.AssignmentType]float64{
	models.AssignmentTypeHomework: 2,
	models.AssignmentTypeQuiz:     1.5,
	models.AssignmentTypeExam:     6,
	models.AssignmentTypeLab:      3,
	models.AssignmentTypeProject:  8,
	models.AssignmentTypeReading:  1,
}

// estimateHours is the workload table shown to users. It rates labs higher than the planner does.
func estimateHours(t models.AssignmentType) float64 {
	if hours, ok := analyticsEffort[t]; ok {
		return hours
	}
	return 2
}

type assignmentLister interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentWithCourse, error)
}

type blockLister interface {
	List(ctx context.Context, filter models.ScheduleBlockFilter) ([]models.ScheduleBlock, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// invalidateAnalytics drops cached summaries after a mutation. Failures only log.
func invalidateAnalytics(ctx context.Context, cache cacheInvalidator, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, analyticsCachePattern); err != nil && logger != nil {
		logger.Warn("invalidate analytics cache", zap.Error(err))
	}
}

// AnalyticsService computes the study insights summary with cache integration.
type AnalyticsService struct {
	assignments assignmentLister
	blocks      blockLister
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	location    *time.Location
	now         func() time.Time
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(assignments assignmentLister, blocks blockLister, cache *CacheService, metrics *MetricsService, location *time.Location, logger *zap.Logger) *AnalyticsService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		assignments: assignments,
		blocks:      blocks,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		location:    location,
		now:         time.Now,
	}
}

// Summary returns the analytics summary. The boolean indicates whether data originated from cache.
func (s *AnalyticsService) Summary(ctx context.Context) (*models.AnalyticsSummary, bool, error) {
	now := s.now().In(s.location)
	key := makeAnalyticsCacheKey("summary", now.Format(dateLayout))
	return Remember(ctx, s.cache, key, func(ctx context.Context) (*models.AnalyticsSummary, error) {
		start := time.Now()
		assignments, err := s.assignments.List(ctx, models.AssignmentFilter{})
		if err != nil {
			return nil, fmt.Errorf("list assignments for analytics: %w", err)
		}
		blocks, err := s.blocks.List(ctx, models.ScheduleBlockFilter{})
		if err != nil {
			return nil, fmt.Errorf("list schedule blocks for analytics: %w", err)
		}
		if s.metrics != nil {
			s.metrics.ObserveDBQuery("analytics_summary", time.Since(start))
		}
		return buildSummary(assignments, blocks, now), nil
	})
}

// SystemMetrics returns system instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics() models.AnalyticsSystemMetrics {
	if s.metrics == nil {
		return models.AnalyticsSystemMetrics{}
	}
	return s.metrics.Snapshot()
}

func buildSummary(assignments []models.AssignmentWithCourse, blocks []models.ScheduleBlock, now time.Time) *models.AnalyticsSummary {
	loc := now.Location()
	summary := &models.AnalyticsSummary{
		Total:            len(assignments),
		WeeklyActivity:   []models.WeeklyActivityPoint{},
		Courses:          []models.CourseShare{},
		Types:            []models.TypeBreakdown{},
		UpcomingWorkload: []models.WorkloadPoint{},
		TotalStudyBlocks: len(blocks),
		GeneratedAt:      now.UTC(),
	}
	for _, a := range assignments {
		if a.Completed {
			summary.Completed++
		}
	}
	summary.Pending = summary.Total - summary.Completed
	summary.CompletionRate = percent(summary.Completed, summary.Total)
	for _, b := range blocks {
		if b.IsCompleted {
			summary.CompletedBlocks++
		}
	}

	today := dayStart(now)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	for day := weekStart; !day.After(today); day = day.AddDate(0, 0, 1) {
		point := models.WeeklyActivityPoint{Day: day.Format("Mon"), Date: day.Format(dateLayout)}
		for _, a := range assignments {
			if !sameDay(a.DueDate.In(loc), day) {
				continue
			}
			point.Due++
			if a.Completed {
				point.Completed++
			}
		}
		summary.WeeklyActivity = append(summary.WeeklyActivity, point)
	}

	courseIndex := map[string]int{}
	typeIndex := map[models.AssignmentType]int{}
	for _, a := range assignments {
		code := a.Course.Code
		if code == "" {
			code = "Unknown"
		}
		if idx, ok := courseIndex[code]; ok {
			summary.Courses[idx].Value++
		} else {
			courseIndex[code] = len(summary.Courses)
			summary.Courses = append(summary.Courses, models.CourseShare{Name: code, Value: 1})
		}

		idx, ok := typeIndex[a.Type]
		if !ok {
			idx = len(summary.Types)
			typeIndex[a.Type] = idx
			summary.Types = append(summary.Types, models.TypeBreakdown{Type: capitalise(string(a.Type))})
		}
		summary.Types[idx].Total++
		if a.Completed {
			summary.Types[idx].Completed++
		}
	}
	for i := range summary.Types {
		summary.Types[i].Rate = percent(summary.Types[i].Completed, summary.Types[i].Total)
	}

	for offset := 0; offset <= 7; offset++ {
		day := today.AddDate(0, 0, offset)
		point := models.WorkloadPoint{Day: day.Format("Jan 2"), Date: day.Format(dateLayout)}
		hours := 0.0
		for _, a := range assignments {
			if a.Completed || !sameDay(a.DueDate.In(loc), day) {
				continue
			}
			hours += estimateHours(a.Type)
			point.Tasks++
		}
		point.Hours = math.Round(hours*10) / 10
		summary.UpcomingWorkload = append(summary.UpcomingWorkload, point)
	}
	return summary
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func capitalise(raw string) string {
	if raw == "" {
		return raw
	}
	return strings.ToUpper(raw[:1]) + raw[1:]
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func makeAnalyticsCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("analytics")
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
