package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
)

type courseRepoStub struct {
	items   map[string]*models.Course
	created []*models.Course
	nextID  int
}

func newCourseRepoStub(courses ...models.Course) *courseRepoStub {
	stub := &courseRepoStub{items: map[string]*models.Course{}}
	for i := range courses {
		c := courses[i]
		stub.items[c.ID] = &c
	}
	return stub
}

func (s *courseRepoStub) List(context.Context) ([]models.Course, error) {
	out := make([]models.Course, 0, len(s.items))
	for _, c := range s.items {
		out = append(out, *c)
	}
	return out, nil
}

func (s *courseRepoStub) FindByID(_ context.Context, id string) (*models.Course, error) {
	c, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (s *courseRepoStub) ExistsByCode(_ context.Context, code, excludeID string) (bool, error) {
	for _, c := range s.items {
		if c.Code == code && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *courseRepoStub) Create(_ context.Context, course *models.Course) error {
	s.nextID++
	course.ID = "course-new"
	clone := *course
	s.items[course.ID] = &clone
	s.created = append(s.created, &clone)
	return nil
}

func (s *courseRepoStub) Update(_ context.Context, course *models.Course) error {
	if _, ok := s.items[course.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *course
	s.items[course.ID] = &clone
	return nil
}

func (s *courseRepoStub) Delete(_ context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

func TestCourseServiceCreateNormalisesCode(t *testing.T) {
	repo := newCourseRepoStub()
	svc := NewCourseService(repo, nil, nil, zap.NewNop())

	course, err := svc.Create(context.Background(), dto.CreateCourseRequest{Code: " cs101 ", Name: "Intro", Color: "#3B82F6"})
	require.NoError(t, err)
	assert.Equal(t, "CS101", course.Code)
	assert.Equal(t, "#3b82f6", course.Color)
	require.Len(t, repo.created, 1)
}

func TestCourseServiceCreateDuplicateCode(t *testing.T) {
	repo := newCourseRepoStub(models.Course{ID: "c1", Code: "CS101", Name: "Intro", Color: "#000000"})
	svc := NewCourseService(repo, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), dto.CreateCourseRequest{Code: "cs101", Name: "Again", Color: "#ffffff"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceCreateValidation(t *testing.T) {
	svc := NewCourseService(newCourseRepoStub(), nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), dto.CreateCourseRequest{Code: "CS1", Name: "x", Color: "blue"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceUpdatePartial(t *testing.T) {
	repo := newCourseRepoStub(
		models.Course{ID: "c1", Code: "CS101", Name: "Intro", Color: "#000000"},
		models.Course{ID: "c2", Code: "MA201", Name: "Calc", Color: "#111111"},
	)
	cache := &recordingInvalidator{}
	svc := NewCourseService(repo, cache, nil, zap.NewNop())

	updated, err := svc.Update(context.Background(), "c1", dto.UpdateCourseRequest{Name: strPtr("Intro to CS")})
	require.NoError(t, err)
	assert.Equal(t, "Intro to CS", updated.Name)
	assert.Equal(t, "CS101", updated.Code)
	assert.Equal(t, []string{analyticsCachePattern}, cache.patterns)

	_, err = svc.Update(context.Background(), "c1", dto.UpdateCourseRequest{Code: strPtr("ma201")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceNotFound(t *testing.T) {
	svc := NewCourseService(newCourseRepoStub(), nil, nil, zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
