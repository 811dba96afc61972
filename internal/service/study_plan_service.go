package service

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/planner"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
	applog "github.com/noah-isme/study-planner-api/pkg/logger"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type activityLister interface {
	List(ctx context.Context) ([]models.Activity, error)
}

type sleepScheduleReader interface {
	GetSleepSchedule(ctx context.Context) (planner.SleepSchedule, error)
}

type studyBlockStore interface {
	List(ctx context.Context, filter models.ScheduleBlockFilter) ([]models.ScheduleBlock, error)
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, blocks []models.ScheduleBlock) error
	DeleteGenerated(ctx context.Context, exec sqlx.ExtContext) (int64, error)
	LockGeneration(ctx context.Context, exec sqlx.ExtContext) error
}

// StudyPlanService feeds the planner with stored data and persists its output.
type StudyPlanService struct {
	assignments assignmentLister
	activities  activityLister
	blocks      studyBlockStore
	sleep       sleepScheduleReader
	tx          txProvider
	cache       cacheInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	location    *time.Location
	now         func() time.Time
}

// StudyPlanConfig anchors the day grid.
type StudyPlanConfig struct {
	Location *time.Location
}

// NewStudyPlanService wires the study plan service.
func NewStudyPlanService(
	assignments assignmentLister,
	activities activityLister,
	blocks studyBlockStore,
	sleep sleepScheduleReader,
	tx txProvider,
	cache cacheInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg StudyPlanConfig,
) *StudyPlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &StudyPlanService{
		assignments: assignments,
		activities:  activities,
		blocks:      blocks,
		sleep:       sleep,
		tx:          tx,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		location:    cfg.Location,
		now:         time.Now,
	}
}

// Generate replaces unlocked generated blocks with a freshly computed plan.
func (s *StudyPlanService) Generate(ctx context.Context, req dto.GenerateStudyPlanRequest) (resp *dto.StudyPlanResponse, err error) {
	start := time.Now()
	result, err := s.compute(ctx, req)
	if err != nil {
		return nil, err
	}
	blocks := toScheduleBlocks(result.Blocks)

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

	if err = s.blocks.LockGeneration(ctx, tx); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to serialise study plan generation")
		return nil, err
	}
	removed, err := s.blocks.DeleteGenerated(ctx, tx)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear generated blocks")
		return nil, err
	}
	if len(blocks) > 0 {
		if err = s.blocks.BulkCreate(ctx, tx, blocks); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store generated blocks")
			return nil, err
		}
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit study plan")
		return nil, err
	}

	s.observe(ctx, "generate", result, time.Since(start))
	applog.WithContext(ctx, s.logger).Info("study plan generated",
		zap.Int("blocks", len(blocks)),
		zap.Int64("replaced", removed),
		zap.Int("dropped_sessions", result.DroppedSessions()),
	)
	invalidateAnalytics(ctx, s.cache, s.logger)
	return buildStudyPlanResponse(result, blocks, true), nil
}

// Preview computes a plan without touching stored blocks.
func (s *StudyPlanService) Preview(ctx context.Context, req dto.GenerateStudyPlanRequest) (*dto.StudyPlanResponse, error) {
	start := time.Now()
	result, err := s.compute(ctx, req)
	if err != nil {
		return nil, err
	}
	s.observe(ctx, "preview", result, time.Since(start))
	return buildStudyPlanResponse(result, toScheduleBlocks(result.Blocks), false), nil
}

func (s *StudyPlanService) compute(ctx context.Context, req dto.GenerateStudyPlanRequest) (planner.Result, error) {
	if err := s.validator.Struct(req); err != nil {
		return planner.Result{}, appErrors.Invalid(err, "invalid study plan options")
	}
	opts := req.Options()
	now := s.now().In(s.location)
	today := dayStart(now)
	lastDay := today.AddDate(0, 0, opts.Range.Days()-1)

	pending := false
	dueTo := today.AddDate(0, 0, opts.Range.Days()+7)
	assignments, err := s.assignments.List(ctx, models.AssignmentFilter{Completed: &pending, DueFrom: &today, DueTo: &dueTo})
	if err != nil {
		return planner.Result{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	activities, err := s.activities.List(ctx)
	if err != nil {
		return planner.Result{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activities")
	}
	kept, err := s.blocks.List(ctx, models.ScheduleBlockFilter{From: &today, To: &lastDay})
	if err != nil {
		return planner.Result{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule blocks")
	}
	sleep := planner.DefaultSleepSchedule()
	if opts.RespectSleep {
		if sleep, err = s.sleep.GetSleepSchedule(ctx); err != nil {
			return planner.Result{}, err
		}
	}

	input := planner.Input{
		Assignments: make([]planner.Assignment, 0, len(assignments)),
		Commitments: make([]planner.Commitment, 0, len(activities)+len(kept)),
		Options:     opts,
		Sleep:       sleep,
		Now:         now,
	}
	for _, a := range assignments {
		input.Assignments = append(input.Assignments, planner.Assignment{
			ID:          a.ID,
			Title:       a.Title,
			Type:        string(a.Type),
			DueDate:     a.DueDate,
			Completed:   a.Completed,
			CourseCode:  a.Course.Code,
			CourseColor: a.Course.Color,
		})
	}
	for _, act := range activities {
		input.Commitments = append(input.Commitments, commitmentFromActivity(act, s.location))
	}
	for _, block := range kept {
		if block.IsGenerated && !block.IsLocked {
			continue
		}
		input.Commitments = append(input.Commitments, commitmentFromBlock(block, s.location))
	}
	return planner.Generate(input), nil
}

func (s *StudyPlanService) observe(ctx context.Context, mode string, result planner.Result, took time.Duration) {
	dropped := result.DroppedSessions()
	if s.metrics != nil {
		s.metrics.ObservePlannerRun(mode, len(result.Blocks), dropped, took)
	}
	if dropped == 0 {
		return
	}
	log := applog.WithContext(ctx, s.logger)
	for _, c := range result.Coverage {
		if c.Status == planner.CoverageFull {
			continue
		}
		log.Warn("study sessions could not be placed",
			zap.String("mode", mode),
			zap.String("assignment_id", c.AssignmentID),
			zap.Int("requested", c.RequestedSessions),
			zap.Int("placed", c.PlacedSessions),
		)
	}
}

func commitmentFromActivity(a models.Activity, loc *time.Location) planner.Commitment {
	c := planner.Commitment{
		ID:           a.ID,
		StartTime:    a.StartTime,
		Frequency:    planner.Frequency(a.Frequency),
		DaysOfWeek:   []string(a.DaysOfWeek),
		BufferBefore: a.BufferBefore,
		BufferAfter:  a.BufferAfter,
	}
	if a.EndTime != nil {
		c.EndTime = *a.EndTime
	}
	if a.EventDate != nil {
		date := calendarDate(*a.EventDate, loc)
		c.EventDate = &date
	}
	return c
}

// commitmentFromBlock turns a block that survives regeneration into busy time.
func commitmentFromBlock(b models.ScheduleBlock, loc *time.Location) planner.Commitment {
	date := calendarDate(b.Date, loc)
	return planner.Commitment{
		ID:        b.ID,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Frequency: planner.FrequencyOnce,
		EventDate: &date,
	}
}

// calendarDate re-anchors a stored DATE (scanned as UTC midnight) to loc.
func calendarDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func toScheduleBlocks(blocks []planner.Block) []models.ScheduleBlock {
	out := make([]models.ScheduleBlock, 0, len(blocks))
	for _, b := range blocks {
		assignmentID := b.AssignmentID
		out = append(out, models.ScheduleBlock{
			AssignmentID: &assignmentID,
			Date:         b.Date,
			StartTime:    b.StartTime,
			EndTime:      b.EndTime,
			Title:        b.Title,
			Type:         b.Type,
			Color:        b.Color,
			IsGenerated:  true,
		})
	}
	return out
}

func buildStudyPlanResponse(result planner.Result, blocks []models.ScheduleBlock, persisted bool) *dto.StudyPlanResponse {
	minutes := 0
	covered := map[string]struct{}{}
	for _, b := range result.Blocks {
		minutes += b.Minutes()
		covered[b.AssignmentID] = struct{}{}
	}
	tasks := result.Tasks
	if tasks == nil {
		tasks = []planner.StudyTask{}
	}
	coverage := result.Coverage
	if coverage == nil {
		coverage = []planner.Coverage{}
	}
	return &dto.StudyPlanResponse{
		Blocks: blocks,
		Summary: dto.StudyPlanSummary{
			BlockCount:         len(blocks),
			TotalHours:         math.Round(float64(minutes)/60*10) / 10,
			AssignmentsCovered: len(covered),
			DroppedSessions:    result.DroppedSessions(),
		},
		Tasks:     tasks,
		Coverage:  coverage,
		Persisted: persisted,
	}
}
