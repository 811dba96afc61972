package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
)

type assignmentRepository interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentWithCourse, error)
	FindByID(ctx context.Context, id string) (*models.AssignmentWithCourse, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Toggle(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// AssignmentService handles assignment workflows.
type AssignmentService struct {
	repo      assignmentRepository
	courses   courseReader
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService wires the assignment service.
func NewAssignmentService(repo assignmentRepository, courses courseReader, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, courses: courses, cache: cache, validator: validate, logger: logger}
}

// List returns assignments ordered by due date.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.AssignmentWithCourse, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return items, nil
}

// Get returns a single assignment with its course.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.AssignmentWithCourse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return item, nil
}

// Create stores a new assignment.
func (s *AssignmentService) Create(ctx context.Context, req dto.CreateAssignmentRequest) (*models.AssignmentWithCourse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid assignment payload")
	}
	if err := s.ensureCourse(ctx, req.CourseID); err != nil {
		return nil, err
	}
	platform := strings.TrimSpace(req.Platform)
	if platform == "" {
		platform = models.DefaultPlatform
	}
	assignment := &models.Assignment{
		CourseID:  req.CourseID,
		Title:     strings.TrimSpace(req.Title),
		Type:      req.Type,
		Platform:  platform,
		DueDate:   req.DueDate.UTC(),
		Completed: req.Completed,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	invalidateAnalytics(ctx, s.cache, s.logger)
	return s.Get(ctx, assignment.ID)
}

// Update applies a partial update.
func (s *AssignmentService) Update(ctx context.Context, id string, req dto.UpdateAssignmentRequest) (*models.AssignmentWithCourse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid assignment payload")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	assignment := current.Assignment
	if req.CourseID != nil && *req.CourseID != assignment.CourseID {
		if err := s.ensureCourse(ctx, *req.CourseID); err != nil {
			return nil, err
		}
		assignment.CourseID = *req.CourseID
	}
	if req.Title != nil {
		assignment.Title = strings.TrimSpace(*req.Title)
	}
	if req.Type != nil {
		assignment.Type = *req.Type
	}
	if req.Platform != nil {
		assignment.Platform = strings.TrimSpace(*req.Platform)
	}
	if req.DueDate != nil {
		assignment.DueDate = req.DueDate.UTC()
	}
	if req.Completed != nil {
		assignment.Completed = *req.Completed
	}

	if err := s.repo.Update(ctx, &assignment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	invalidateAnalytics(ctx, s.cache, s.logger)
	return s.Get(ctx, id)
}

// Toggle flips completion and returns the updated assignment.
func (s *AssignmentService) Toggle(ctx context.Context, id string) (*models.AssignmentWithCourse, error) {
	if _, err := s.repo.Toggle(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle assignment")
	}
	invalidateAnalytics(ctx, s.cache, s.logger)
	return s.Get(ctx, id)
}

// Delete removes an assignment.
func (s *AssignmentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	invalidateAnalytics(ctx, s.cache, s.logger)
	return nil
}

func (s *AssignmentService) ensureCourse(ctx context.Context, courseID string) error {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "course does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return nil
}
