package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/models"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
)

const (
	maxRecommendations   = 3
	examPrepTargetHours  = 4.0
	examPrepBlockHours   = 1.5
	heavyDayHours        = 6.0
	onTrackRatio         = 0.7
	breakNeededThreshold = 10
	scheduleRoute        = "/schedule"
)

var recommendationRank = map[string]int{"high": 3, "medium": 2, "low": 1}

// RecommendationService derives study tips from assignments and scheduled blocks.
type RecommendationService struct {
	assignments assignmentLister
	blocks      blockLister
	logger      *zap.Logger
	location    *time.Location
	now         func() time.Time
}

// NewRecommendationService constructs the service.
func NewRecommendationService(assignments assignmentLister, blocks blockLister, location *time.Location, logger *zap.Logger) *RecommendationService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationService{assignments: assignments, blocks: blocks, logger: logger, location: location, now: time.Now}
}

// List returns up to three recommendations ordered by priority.
func (s *RecommendationService) List(ctx context.Context) ([]models.Recommendation, error) {
	assignments, err := s.assignments.List(ctx, models.AssignmentFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	blocks, err := s.blocks.List(ctx, models.ScheduleBlockFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule blocks")
	}
	return recommend(assignments, blocks, s.now().In(s.location)), nil
}

func recommend(assignments []models.AssignmentWithCourse, blocks []models.ScheduleBlock, now time.Time) []models.Recommendation {
	recs := []models.Recommendation{}
	incomplete := make([]models.AssignmentWithCourse, 0, len(assignments))
	for _, a := range assignments {
		if !a.Completed {
			incomplete = append(incomplete, a)
		}
	}

	for _, a := range incomplete {
		hours := estimateHours(a.Type)
		if hours >= 4 && daysUntil(a.DueDate, now) >= 3 {
			recs = append(recs, models.Recommendation{
				ID:          "start_early_" + a.ID,
				Type:        "start_early",
				Priority:    "high",
				Title:       fmt.Sprintf("Start %s %s early", a.Course.Code, a.Type),
				Description: fmt.Sprintf("This %s typically takes %s+ hours. Start now to avoid last-minute stress.", a.Type, formatHours(hours)),
				ActionLabel: "Schedule now",
				ActionRoute: scheduleRoute,
				Dismissible: true,
			})
			break
		}
	}

	exams := 0
	for _, a := range incomplete {
		if exams == 2 {
			break
		}
		days := daysUntil(a.DueDate, now)
		if a.Type != models.AssignmentTypeExam || days > 7 || days <= 0 {
			continue
		}
		exams++
		scheduled := float64(blocksFor(blocks, a.ID)) * examPrepBlockHours
		if scheduled >= examPrepTargetHours {
			continue
		}
		plural := ""
		if days > 1 {
			plural = "s"
		}
		recs = append(recs, models.Recommendation{
			ID:          "exam_prep_" + a.ID,
			Type:        "exam_prep",
			Priority:    "high",
			Title:       fmt.Sprintf("%s exam in %d day%s", a.Course.Code, days, plural),
			Description: fmt.Sprintf("You've scheduled ~%d hours of study. Consider adding more review sessions.", int(math.Round(scheduled))),
			ActionLabel: "Add study time",
			ActionRoute: scheduleRoute,
			Dismissible: true,
		})
	}

	todayStart := dayStart(now)
	weekEnd := todayStart.AddDate(0, 0, 7)
	loads := map[string]float64{}
	thisWeek := 0
	for _, a := range incomplete {
		due := a.DueDate.In(now.Location())
		if due.Before(todayStart) || due.After(weekEnd) {
			continue
		}
		thisWeek++
		loads[due.Format(dateLayout)] += estimateHours(a.Type)
	}
	for _, hours := range loads {
		if hours >= heavyDayHours {
			recs = append(recs, models.Recommendation{
				ID:          "balance_workload",
				Type:        "balance_workload",
				Priority:    "medium",
				Title:       "Heavy workload ahead",
				Description: fmt.Sprintf("You have %d assignments this week. Consider spreading study time across lighter days.", thisWeek),
				ActionLabel: "View schedule",
				ActionRoute: scheduleRoute,
				Dismissible: true,
			})
			break
		}
	}

	completed := len(assignments) - len(incomplete)
	if len(assignments) > 0 && float64(completed)/float64(len(assignments)) > onTrackRatio {
		recs = append(recs, models.Recommendation{
			ID:          "on_track",
			Type:        "on_track",
			Priority:    "low",
			Title:       "You're on track!",
			Description: fmt.Sprintf("%d%% of assignments complete. Keep up the great work.", percent(completed, len(assignments))),
			Dismissible: true,
		})
	}

	doneBlocks := 0
	for _, b := range blocks {
		if b.IsCompleted {
			doneBlocks++
		}
	}
	if doneBlocks > breakNeededThreshold {
		recs = append(recs, models.Recommendation{
			ID:          "break_needed",
			Type:        "break_needed",
			Priority:    "medium",
			Title:       "You've been working hard",
			Description: "Remember to take breaks to avoid burnout. A 15-minute walk can boost focus.",
			ActionLabel: "Schedule free time",
			ActionRoute: "/activities",
			Dismissible: true,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recommendationRank[recs[i].Priority] > recommendationRank[recs[j].Priority]
	})
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

// daysUntil rounds the remaining time up to whole days.
func daysUntil(due, now time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}

func blocksFor(blocks []models.ScheduleBlock, assignmentID string) int {
	count := 0
	for _, b := range blocks {
		if b.AssignmentID != nil && *b.AssignmentID == assignmentID {
			count++
		}
	}
	return count
}

func formatHours(h float64) string {
	if h == math.Trunc(h) {
		return fmt.Sprintf("%d", int(h))
	}
	return fmt.Sprintf("%.1f", h)
}
