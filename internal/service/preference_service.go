package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/planner"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
)

var preferenceKeyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]{0,63}$`)

type preferenceRepository interface {
	Get(ctx context.Context, key string) (*models.Preference, error)
	Upsert(ctx context.Context, pref *models.Preference) error
}

// PreferenceService exposes keyed user preferences.
type PreferenceService struct {
	repo      preferenceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPreferenceService constructs a PreferenceService.
func NewPreferenceService(repo preferenceRepository, validate *validator.Validate, logger *zap.Logger) *PreferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{repo: repo, validator: validate, logger: logger}
}

// Get returns the raw preference stored under key.
func (s *PreferenceService) Get(ctx context.Context, key string) (*models.Preference, error) {
	if !preferenceKeyPattern.MatchString(key) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid preference key")
	}
	pref, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "preference not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preference")
	}
	return pref, nil
}

// Put stores a JSON value under key.
func (s *PreferenceService) Put(ctx context.Context, key string, req dto.PreferenceRequest) (*models.Preference, error) {
	if !preferenceKeyPattern.MatchString(key) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid preference key")
	}
	if key == models.PreferenceKeySleepSchedule {
		var sleep dto.SleepScheduleRequest
		if err := json.Unmarshal(req.Value, &sleep); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "sleepSchedule must be an object with bedtime and wakeTime")
		}
		if _, err := s.PutSleepSchedule(ctx, sleep); err != nil {
			return nil, err
		}
		return s.Get(ctx, key)
	}
	if len(req.Value) == 0 || !json.Valid(req.Value) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "value must be valid JSON")
	}
	pref := &models.Preference{Key: key, Value: types.JSONText(req.Value)}
	if err := s.repo.Upsert(ctx, pref); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save preference")
	}
	return pref, nil
}

// GetSleepSchedule decodes the stored sleep schedule, falling back to the default.
func (s *PreferenceService) GetSleepSchedule(ctx context.Context) (planner.SleepSchedule, error) {
	fallback := planner.DefaultSleepSchedule()
	pref, err := s.repo.Get(ctx, models.PreferenceKeySleepSchedule)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fallback, nil
		}
		return fallback, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sleep schedule")
	}
	var schedule planner.SleepSchedule
	if err := pref.Value.Unmarshal(&schedule); err != nil {
		s.logger.Warn("stored sleep schedule is malformed, using default", zap.Error(err))
		return fallback, nil
	}
	if validateSleep(schedule) != nil {
		s.logger.Warn("stored sleep schedule is invalid, using default",
			zap.String("bedtime", schedule.Bedtime), zap.String("wakeTime", schedule.WakeTime))
		return fallback, nil
	}
	return schedule, nil
}

// PutSleepSchedule validates and stores the sleep schedule.
func (s *PreferenceService) PutSleepSchedule(ctx context.Context, req dto.SleepScheduleRequest) (planner.SleepSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return planner.SleepSchedule{}, appErrors.Invalid(err, "invalid sleep schedule")
	}
	schedule := planner.SleepSchedule{Bedtime: req.Bedtime, WakeTime: req.WakeTime}
	if err := validateSleep(schedule); err != nil {
		return planner.SleepSchedule{}, err
	}
	payload, err := json.Marshal(schedule)
	if err != nil {
		return planner.SleepSchedule{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode sleep schedule")
	}
	pref := &models.Preference{Key: models.PreferenceKeySleepSchedule, Value: types.JSONText(payload)}
	if err := s.repo.Upsert(ctx, pref); err != nil {
		return planner.SleepSchedule{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save sleep schedule")
	}
	return schedule, nil
}

// validateSleep requires a study window of at least one minute between wake+30 and bed-30.
func validateSleep(schedule planner.SleepSchedule) error {
	wake, err := planner.ParseClock(schedule.WakeTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "wakeTime must be HH:MM")
	}
	bed, err := planner.ParseClock(schedule.Bedtime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "bedtime must be HH:MM")
	}
	if bed-30 <= wake+30 {
		return appErrors.Clone(appErrors.ErrValidation, "bedtime must be more than an hour after wakeTime")
	}
	return nil
}
