package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/planner"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type activityRepository interface {
	List(ctx context.Context) ([]models.Activity, error)
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id string) error
}

// ActivityService manages fixed commitments.
type ActivityService struct {
	repo      activityRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewActivityService constructs the activity service.
func NewActivityService(repo activityRepository, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, validator: validate, logger: logger}
}

// List returns all activities.
func (s *ActivityService) List(ctx context.Context) ([]models.Activity, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	return items, nil
}

// Get returns an activity by identifier.
func (s *ActivityService) Get(ctx context.Context, id string) (*models.Activity, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return item, nil
}

// Create validates and stores a new activity.
func (s *ActivityService) Create(ctx context.Context, req dto.ActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid activity payload")
	}
	activity := &models.Activity{
		Name:         strings.TrimSpace(req.Name),
		Type:         req.Type,
		Icon:         req.Icon,
		Color:        req.Color,
		Frequency:    req.Frequency,
		DaysOfWeek:   pq.StringArray(req.DaysOfWeek),
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Location:     req.Location,
		Priority:     req.Priority,
		Flexible:     req.Flexible,
		BufferBefore: req.BufferBefore,
		BufferAfter:  req.BufferAfter,
	}
	if activity.Priority == "" {
		activity.Priority = models.ActivityPriorityMedium
	}
	if activity.Color == "" {
		activity.Color = "#6b7280"
	}
	if req.EventDate != nil {
		parsed, err := time.Parse(dateLayout, *req.EventDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "eventDate must be YYYY-MM-DD")
		}
		activity.EventDate = &parsed
	}
	if err := normaliseActivity(activity); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}
	return activity, nil
}

// Update applies a partial update and revalidates the merged activity.
func (s *ActivityService) Update(ctx context.Context, id string, req dto.UpdateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid activity payload")
	}
	activity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		activity.Name = strings.TrimSpace(*req.Name)
	}
	if req.Type != nil {
		activity.Type = *req.Type
	}
	if req.Icon != nil {
		activity.Icon = *req.Icon
	}
	if req.Color != nil {
		activity.Color = *req.Color
	}
	if req.Frequency != nil {
		activity.Frequency = *req.Frequency
	}
	if req.DaysOfWeek != nil {
		activity.DaysOfWeek = pq.StringArray(req.DaysOfWeek)
	}
	if req.StartTime != nil {
		activity.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		activity.EndTime = req.EndTime
	}
	if req.Location != nil {
		activity.Location = req.Location
	}
	if req.Priority != nil {
		activity.Priority = *req.Priority
	}
	if req.Flexible != nil {
		activity.Flexible = *req.Flexible
	}
	if req.BufferBefore != nil {
		activity.BufferBefore = *req.BufferBefore
	}
	if req.BufferAfter != nil {
		activity.BufferAfter = *req.BufferAfter
	}
	if req.EventDate != nil {
		parsed, err := time.Parse(dateLayout, *req.EventDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "eventDate must be YYYY-MM-DD")
		}
		activity.EventDate = &parsed
	}
	if err := normaliseActivity(activity); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, activity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update activity")
	}
	return activity, nil
}

// Delete removes an activity.
func (s *ActivityService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete activity")
	}
	return nil
}

// normaliseActivity enforces commitment invariants so the planner only sees well-formed clocks.
func normaliseActivity(a *models.Activity) error {
	start, err := planner.ParseClock(a.StartTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "startTime must be HH:MM")
	}
	if a.EndTime != nil && *a.EndTime == "" {
		a.EndTime = nil
	}
	if a.EndTime != nil {
		end, err := planner.ParseClock(*a.EndTime)
		if err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "endTime must be HH:MM")
		}
		if end <= start {
			return appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
		}
	}
	if a.BufferBefore < 0 || a.BufferBefore > 30 || a.BufferAfter < 0 || a.BufferAfter > 30 {
		return appErrors.Clone(appErrors.ErrValidation, "buffers must be between 0 and 30 minutes")
	}

	switch a.Frequency {
	case models.FrequencyWeekly:
		days, err := canonicalWeekdays(a.DaysOfWeek)
		if err != nil {
			return err
		}
		if len(days) == 0 {
			return appErrors.Clone(appErrors.ErrValidation, "daysOfWeek is required for weekly activities")
		}
		a.DaysOfWeek = days
		a.EventDate = nil
	case models.FrequencyOnce:
		if a.EventDate == nil {
			return appErrors.Clone(appErrors.ErrValidation, "eventDate is required for one-off activities")
		}
		a.DaysOfWeek = pq.StringArray{}
	case models.FrequencyDaily:
		a.DaysOfWeek = pq.StringArray{}
		a.EventDate = nil
	default:
		return appErrors.Clone(appErrors.ErrValidation, "frequency must be daily, weekly or once")
	}
	return nil
}

func canonicalWeekdays(raw []string) (pq.StringArray, error) {
	seen := make(map[time.Weekday]bool, len(raw))
	for _, day := range raw {
		wd, ok := parseWeekday(day)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown weekday %q", day))
		}
		seen[wd] = true
	}
	days := make(pq.StringArray, 0, len(seen))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if seen[wd] {
			days = append(days, wd.String())
		}
	}
	return days, nil
}

func parseWeekday(raw string) (time.Weekday, bool) {
	name := strings.TrimSpace(raw)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := wd.String()
		if strings.EqualFold(name, full) || strings.EqualFold(name, full[:3]) {
			return wd, true
		}
	}
	return 0, false
}
