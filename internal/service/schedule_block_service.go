package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/planner"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
)

const defaultBlockColor = "#6b7280"

type scheduleBlockRepository interface {
	List(ctx context.Context, filter models.ScheduleBlockFilter) ([]models.ScheduleBlock, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleBlock, error)
	Create(ctx context.Context, block *models.ScheduleBlock) error
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, blocks []models.ScheduleBlock) error
	Update(ctx context.Context, block *models.ScheduleBlock) error
	ToggleCompleted(ctx context.Context, id string) (*models.ScheduleBlock, error)
	Delete(ctx context.Context, id string) error
	DeleteGenerated(ctx context.Context, exec sqlx.ExtContext) (int64, error)
}

// ScheduleBlockService manages calendar blocks.
type ScheduleBlockService struct {
	repo      scheduleBlockRepository
	tx        txProvider
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleBlockService constructs the schedule block service.
func NewScheduleBlockService(repo scheduleBlockRepository, tx txProvider, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ScheduleBlockService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleBlockService{repo: repo, tx: tx, cache: cache, validator: validate, logger: logger}
}

// List returns blocks in the optional date window.
func (s *ScheduleBlockService) List(ctx context.Context, filter models.ScheduleBlockFilter) ([]models.ScheduleBlock, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	blocks, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule blocks")
	}
	return blocks, nil
}

// Create stores a single block.
func (s *ScheduleBlockService) Create(ctx context.Context, req dto.CreateScheduleBlockRequest) (*models.ScheduleBlock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid schedule block payload")
	}
	block, err := blockFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, block); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule block")
	}
	invalidateAnalytics(ctx, s.cache, s.logger)
	return block, nil
}

// BulkCreate stores many blocks atomically.
func (s *ScheduleBlockService) BulkCreate(ctx context.Context, req dto.BulkCreateScheduleBlocksRequest) (blocks []models.ScheduleBlock, err error) {
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid schedule block payload")
	}
	blocks = make([]models.ScheduleBlock, 0, len(req.Blocks))
	for _, item := range req.Blocks {
		block, convErr := blockFromRequest(item)
		if convErr != nil {
			return nil, convErr
		}
		blocks = append(blocks, *block)
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.repo.BulkCreate(ctx, tx, blocks); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule blocks")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule blocks")
		return nil, err
	}
	invalidateAnalytics(ctx, s.cache, s.logger)
	return blocks, nil
}

// Update applies a partial update. Moving a locked block requires unlocking it in the same request.
func (s *ScheduleBlockService) Update(ctx context.Context, id string, req dto.UpdateScheduleBlockRequest) (*models.ScheduleBlock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid schedule block payload")
	}
	block, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	moves := req.Date != nil || req.StartTime != nil || req.EndTime != nil
	unlocking := req.IsLocked != nil && !*req.IsLocked
	if block.IsLocked && moves && !unlocking {
		return nil, appErrors.Clone(appErrors.ErrLocked, "unlock the block before moving it")
	}

	if req.Date != nil {
		date, parseErr := time.Parse(dateLayout, *req.Date)
		if parseErr != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
		}
		block.Date = date
	}
	if req.StartTime != nil {
		block.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		block.EndTime = *req.EndTime
	}
	if req.Title != nil {
		block.Title = strings.TrimSpace(*req.Title)
	}
	if req.Color != nil {
		block.Color = *req.Color
	}
	if req.Location != nil {
		block.Location = req.Location
	}
	if req.IsLocked != nil {
		block.IsLocked = *req.IsLocked
	}
	if req.IsCompleted != nil {
		block.IsCompleted = *req.IsCompleted
	}
	if err := validateBlockClock(block.StartTime, block.EndTime); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, block); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule block not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule block")
	}
	invalidateAnalytics(ctx, s.cache, s.logger)
	return block, nil
}

// ToggleCompleted flips the completion flag.
func (s *ScheduleBlockService) ToggleCompleted(ctx context.Context, id string) (*models.ScheduleBlock, error) {
	block, err := s.repo.ToggleCompleted(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule block not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle schedule block")
	}
	invalidateAnalytics(ctx, s.cache, s.logger)
	return block, nil
}

// Delete removes a block. Locked blocks must be unlocked first.
func (s *ScheduleBlockService) Delete(ctx context.Context, id string) error {
	block, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if block.IsLocked {
		return appErrors.Clone(appErrors.ErrLocked, "unlock the block before deleting it")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule block not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule block")
	}
	invalidateAnalytics(ctx, s.cache, s.logger)
	return nil
}

// ClearGenerated removes unlocked generated blocks and reports the count.
func (s *ScheduleBlockService) ClearGenerated(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteGenerated(ctx, nil)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear generated blocks")
	}
	s.logger.Info("generated blocks cleared", zap.Int64("removed", removed))
	invalidateAnalytics(ctx, s.cache, s.logger)
	return removed, nil
}

func (s *ScheduleBlockService) get(ctx context.Context, id string) (*models.ScheduleBlock, error) {
	block, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule block not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule block")
	}
	return block, nil
}

func blockFromRequest(req dto.CreateScheduleBlockRequest) (*models.ScheduleBlock, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if err := validateBlockClock(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	color := req.Color
	if color == "" {
		color = defaultBlockColor
		if req.Type == models.BlockTypeStudy {
			color = planner.DefaultStudyColor
		}
	}
	return &models.ScheduleBlock{
		ActivityID:   emptyToNil(req.ActivityID),
		AssignmentID: emptyToNil(req.AssignmentID),
		Date:         date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Title:        strings.TrimSpace(req.Title),
		Type:         req.Type,
		Icon:         emptyToNil(req.Icon),
		Color:        color,
		Location:     emptyToNil(req.Location),
		IsGenerated:  req.IsGenerated,
		IsLocked:     req.IsLocked,
		IsCompleted:  req.IsCompleted,
	}, nil
}

func validateBlockClock(startTime, endTime string) error {
	start, err := planner.ParseClock(startTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "startTime must be HH:MM")
	}
	end, err := planner.ParseClock(endTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "endTime must be HH:MM")
	}
	if end <= start {
		return appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
	}
	return nil
}

func emptyToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	return v
}
