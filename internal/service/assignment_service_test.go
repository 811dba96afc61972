package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
)

type assignmentRepoStub struct {
	items      map[string]*models.AssignmentWithCourse
	lastFilter models.AssignmentFilter
	listErr    error
}

func (s *assignmentRepoStub) List(_ context.Context, filter models.AssignmentFilter) ([]models.AssignmentWithCourse, error) {
	s.lastFilter = filter
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.AssignmentWithCourse, 0, len(s.items))
	for _, a := range s.items {
		out = append(out, *a)
	}
	return out, nil
}

func (s *assignmentRepoStub) FindByID(_ context.Context, id string) (*models.AssignmentWithCourse, error) {
	a, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *a
	return &clone, nil
}

func (s *assignmentRepoStub) Create(_ context.Context, assignment *models.Assignment) error {
	assignment.ID = "a-new"
	s.items[assignment.ID] = &models.AssignmentWithCourse{Assignment: *assignment}
	return nil
}

func (s *assignmentRepoStub) Update(_ context.Context, assignment *models.Assignment) error {
	current, ok := s.items[assignment.ID]
	if !ok {
		return sql.ErrNoRows
	}
	current.Assignment = *assignment
	return nil
}

func (s *assignmentRepoStub) Toggle(_ context.Context, id string) (bool, error) {
	a, ok := s.items[id]
	if !ok {
		return false, sql.ErrNoRows
	}
	a.Completed = !a.Completed
	return a.Completed, nil
}

func (s *assignmentRepoStub) Delete(_ context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

func newAssignmentFixture() (*AssignmentService, *assignmentRepoStub, *recordingInvalidator) {
	repo := &assignmentRepoStub{items: map[string]*models.AssignmentWithCourse{
		"a1": {Assignment: models.Assignment{ID: "a1", CourseID: "c1", Title: "Essay", Type: models.AssignmentTypeHomework, Platform: "Canvas"}},
	}}
	courses := newCourseRepoStub(models.Course{ID: "c1", Code: "CS101"}, models.Course{ID: "c2", Code: "MA201"})
	cache := &recordingInvalidator{}
	return NewAssignmentService(repo, courses, cache, nil, zap.NewNop()), repo, cache
}

func TestAssignmentServiceCreateDefaultsPlatform(t *testing.T) {
	svc, repo, cache := newAssignmentFixture()

	due := time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC)
	created, err := svc.Create(context.Background(), dto.CreateAssignmentRequest{
		CourseID: "c1",
		Title:    "  Lab report ",
		Type:     models.AssignmentTypeLab,
		DueDate:  due,
	})
	require.NoError(t, err)
	assert.Equal(t, "a-new", created.ID)
	assert.Equal(t, "Lab report", created.Title)
	assert.Equal(t, models.DefaultPlatform, repo.items["a-new"].Platform)
	assert.Len(t, cache.patterns, 1)
}

func TestAssignmentServiceCreateUnknownCourse(t *testing.T) {
	svc, _, cache := newAssignmentFixture()

	_, err := svc.Create(context.Background(), dto.CreateAssignmentRequest{
		CourseID: "ghost",
		Title:    "Quiz",
		Type:     models.AssignmentTypeQuiz,
		DueDate:  time.Now(),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "course does not exist", appErr.Message)
	assert.Empty(t, cache.patterns)
}

func TestAssignmentServiceCreateRejectsUnknownType(t *testing.T) {
	svc, _, _ := newAssignmentFixture()

	_, err := svc.Create(context.Background(), dto.CreateAssignmentRequest{
		CourseID: "c1",
		Title:    "Essay",
		Type:     "essay",
		DueDate:  time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceUpdateAndToggle(t *testing.T) {
	svc, repo, cache := newAssignmentFixture()
	ctx := context.Background()

	updated, err := svc.Update(ctx, "a1", dto.UpdateAssignmentRequest{CourseID: strPtr("c2"), Title: strPtr("Final essay")})
	require.NoError(t, err)
	assert.Equal(t, "c2", updated.CourseID)
	assert.Equal(t, "Final essay", updated.Title)
	assert.Equal(t, "Canvas", repo.items["a1"].Platform)

	toggled, err := svc.Toggle(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	toggled, err = svc.Toggle(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, toggled.Completed)
	assert.Len(t, cache.patterns, 3)
}

func TestAssignmentServiceNotFound(t *testing.T) {
	svc, _, _ := newAssignmentFixture()
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Update(ctx, "missing", dto.UpdateAssignmentRequest{})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	err = svc.Delete(ctx, "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceListPassesFilter(t *testing.T) {
	svc, repo, _ := newAssignmentFixture()

	filter := models.AssignmentFilter{Completed: boolPtr(false), CourseID: "c1"}
	items, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, filter, repo.lastFilter)

	repo.listErr = assert.AnError
	_, err = svc.List(context.Background(), filter)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}
