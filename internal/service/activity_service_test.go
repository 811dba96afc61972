package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
)

type activityRepoStub struct {
	items map[string]*models.Activity
}

func (s *activityRepoStub) List(context.Context) ([]models.Activity, error) {
	out := make([]models.Activity, 0, len(s.items))
	for _, a := range s.items {
		out = append(out, *a)
	}
	return out, nil
}

func (s *activityRepoStub) FindByID(_ context.Context, id string) (*models.Activity, error) {
	a, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *a
	return &clone, nil
}

func (s *activityRepoStub) Create(_ context.Context, activity *models.Activity) error {
	activity.ID = "act-new"
	clone := *activity
	s.items[activity.ID] = &clone
	return nil
}

func (s *activityRepoStub) Update(_ context.Context, activity *models.Activity) error {
	if _, ok := s.items[activity.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *activity
	s.items[activity.ID] = &clone
	return nil
}

func (s *activityRepoStub) Delete(_ context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

func newActivityFixture() (*ActivityService, *activityRepoStub) {
	end := "10:30"
	repo := &activityRepoStub{items: map[string]*models.Activity{
		"act-1": {
			ID:         "act-1",
			Name:       "Lecture",
			Type:       "class",
			Frequency:  models.FrequencyWeekly,
			DaysOfWeek: pq.StringArray{"Monday"},
			StartTime:  "09:00",
			EndTime:    &end,
			Priority:   models.ActivityPriorityHigh,
		},
	}}
	return NewActivityService(repo, nil, zap.NewNop()), repo
}

func TestActivityServiceCreateCanonicalisesWeekdays(t *testing.T) {
	svc, _ := newActivityFixture()

	activity, err := svc.Create(context.Background(), dto.ActivityRequest{
		Name:        "Gym",
		Type:        "exercise",
		Frequency:   models.FrequencyWeekly,
		DaysOfWeek:  []string{"fri", "Monday", "MON"},
		StartTime:   "18:00",
		EndTime:     strPtr("19:00"),
		BufferAfter: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"Monday", "Friday"}, activity.DaysOfWeek)
	assert.Equal(t, models.ActivityPriorityMedium, activity.Priority)
	assert.Equal(t, "#6b7280", activity.Color)
	assert.Nil(t, activity.EventDate)
}

func TestActivityServiceCreateOnceRequiresEventDate(t *testing.T) {
	svc, _ := newActivityFixture()

	_, err := svc.Create(context.Background(), dto.ActivityRequest{
		Name:      "Dentist",
		Type:      "appointment",
		Frequency: models.FrequencyOnce,
		StartTime: "14:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	activity, err := svc.Create(context.Background(), dto.ActivityRequest{
		Name:       "Dentist",
		Type:       "appointment",
		Frequency:  models.FrequencyOnce,
		DaysOfWeek: []string{"Monday"},
		StartTime:  "14:00",
		EventDate:  strPtr("2025-03-12"),
	})
	require.NoError(t, err)
	require.NotNil(t, activity.EventDate)
	assert.Equal(t, "2025-03-12", activity.EventDate.Format(dateLayout))
	assert.Empty(t, activity.DaysOfWeek)
}

func TestActivityServiceCreateRejectsInvalidShapes(t *testing.T) {
	svc, _ := newActivityFixture()
	cases := map[string]dto.ActivityRequest{
		"end before start": {Name: "x", Type: "class", Frequency: models.FrequencyDaily, StartTime: "10:00", EndTime: strPtr("09:00")},
		"weekly no days":   {Name: "x", Type: "class", Frequency: models.FrequencyWeekly, StartTime: "10:00"},
		"unknown weekday":  {Name: "x", Type: "class", Frequency: models.FrequencyWeekly, DaysOfWeek: []string{"Funday"}, StartTime: "10:00"},
		"buffer too large": {Name: "x", Type: "class", Frequency: models.FrequencyDaily, StartTime: "10:00", BufferBefore: 45},
		"bad clock":        {Name: "x", Type: "class", Frequency: models.FrequencyDaily, StartTime: "25:00"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestActivityServiceUpdateMergesAndRevalidates(t *testing.T) {
	svc, repo := newActivityFixture()
	ctx := context.Background()

	daily := models.FrequencyDaily
	updated, err := svc.Update(ctx, "act-1", dto.UpdateActivityRequest{Frequency: &daily})
	require.NoError(t, err)
	assert.Equal(t, models.FrequencyDaily, updated.Frequency)
	assert.Empty(t, repo.items["act-1"].DaysOfWeek)
	assert.Equal(t, "Lecture", updated.Name)

	_, err = svc.Update(ctx, "act-1", dto.UpdateActivityRequest{EndTime: strPtr("08:00")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, "10:30", *repo.items["act-1"].EndTime)
}

func TestActivityServiceNotFound(t *testing.T) {
	svc, _ := newActivityFixture()

	_, err := svc.Get(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
