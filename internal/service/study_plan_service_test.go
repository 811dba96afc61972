package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/planner"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
)

type activityListStub struct {
	items []models.Activity
}

func (s *activityListStub) List(context.Context) ([]models.Activity, error) {
	return s.items, nil
}

type sleepStub struct {
	schedule planner.SleepSchedule
	calls    int
}

func (s *sleepStub) GetSleepSchedule(context.Context) (planner.SleepSchedule, error) {
	s.calls++
	return s.schedule, nil
}

type studyPlanFixture struct {
	svc         *StudyPlanService
	assignments *assignmentListStub
	blocks      *blockRepoStub
	sleep       *sleepStub
	cache       *recordingInvalidator
	metrics     *MetricsService
}

func newStudyPlanFixture(t *testing.T, tx txProvider) *studyPlanFixture {
	t.Helper()
	morningEnd := "09:00"
	assignmentID := "a-reading"
	assignments := &assignmentListStub{items: []models.AssignmentWithCourse{{
		Assignment: models.Assignment{
			ID:      assignmentID,
			Title:   "Reading ch.3",
			Type:    models.AssignmentTypeReading,
			DueDate: time.Date(2025, 3, 11, 23, 59, 0, 0, time.UTC),
		},
		Course: models.Course{Code: "HI110", Color: "#3b82f6"},
	}}}
	activities := &activityListStub{items: []models.Activity{{
		ID:         "act-morning",
		Frequency:  models.FrequencyWeekly,
		DaysOfWeek: pq.StringArray{"Monday"},
		StartTime:  "06:00",
		EndTime:    &morningEnd,
	}}}
	blocks := newBlockRepoStub()
	blocks.clearedCount = 1
	blocks.listResult = []models.ScheduleBlock{
		{ID: "locked", Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), StartTime: "10:00", EndTime: "11:00", IsGenerated: true, IsLocked: true},
		{ID: "stale", Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), StartTime: "11:15", EndTime: "12:15", IsGenerated: true, AssignmentID: &assignmentID},
	}
	sleep := &sleepStub{schedule: planner.SleepSchedule{Bedtime: "22:00", WakeTime: "06:00"}}
	cache := &recordingInvalidator{}
	metrics := NewMetricsService()

	svc := NewStudyPlanService(assignments, activities, blocks, sleep, tx, cache, metrics, nil, zap.NewNop(), StudyPlanConfig{Location: time.UTC})
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC) }

	return &studyPlanFixture{svc: svc, assignments: assignments, blocks: blocks, sleep: sleep, cache: cache, metrics: metrics}
}

func TestStudyPlanServicePreviewAvoidsKeptBlocks(t *testing.T) {
	f := newStudyPlanFixture(t, nil)

	resp, err := f.svc.Preview(context.Background(), dto.GenerateStudyPlanRequest{Range: "today"})
	require.NoError(t, err)

	require.Len(t, resp.Blocks, 1)
	block := resp.Blocks[0]
	assert.Equal(t, "11:15", block.StartTime)
	assert.Equal(t, "12:15", block.EndTime)
	assert.Equal(t, "Study: Reading ch.3", block.Title)
	assert.Equal(t, "#3b82f6", block.Color)
	assert.True(t, block.IsGenerated)
	assert.False(t, resp.Persisted)
	assert.Equal(t, dto.StudyPlanSummary{BlockCount: 1, TotalHours: 1, AssignmentsCovered: 1}, resp.Summary)
	require.Len(t, resp.Coverage, 1)
	assert.Equal(t, planner.CoverageFull, resp.Coverage[0].Status)

	assert.Empty(t, f.blocks.bulk)
	assert.Zero(t, f.blocks.clears)
	assert.Empty(t, f.cache.patterns)
	assert.Equal(t, 1, f.sleep.calls)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().PlannerRuns)

	require.NotNil(t, f.assignments.filter.Completed)
	assert.False(t, *f.assignments.filter.Completed)
	assert.Equal(t, "2025-03-10", f.assignments.filter.DueFrom.Format(dateLayout))
	assert.Equal(t, "2025-03-18", f.assignments.filter.DueTo.Format(dateLayout))
	assert.Equal(t, "2025-03-10", f.blocks.listFilter.To.Format(dateLayout))
}

func TestStudyPlanServicePreviewSkipsSleepLookup(t *testing.T) {
	f := newStudyPlanFixture(t, nil)
	respectSleep := false

	_, err := f.svc.Preview(context.Background(), dto.GenerateStudyPlanRequest{Range: "today", RespectSleep: &respectSleep})
	require.NoError(t, err)
	assert.Zero(t, f.sleep.calls)
}

func TestStudyPlanServicePreviewRejectsUnknownRange(t *testing.T) {
	f := newStudyPlanFixture(t, nil)

	_, err := f.svc.Preview(context.Background(), dto.GenerateStudyPlanRequest{Range: "year"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudyPlanServiceGeneratePersists(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	f := newStudyPlanFixture(t, tx)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := f.svc.Generate(context.Background(), dto.GenerateStudyPlanRequest{Range: "today"})
	require.NoError(t, err)
	assert.True(t, resp.Persisted)
	assert.Equal(t, 1, f.blocks.locks)
	assert.Equal(t, 1, f.blocks.clears)
	require.Len(t, f.blocks.bulk, 1)
	require.Len(t, resp.Blocks, 1)
	assert.Equal(t, "bulk-1", resp.Blocks[0].ID)
	assert.Equal(t, []string{analyticsCachePattern}, f.cache.patterns)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanServiceGenerateRollsBackOnClearFailure(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	f := newStudyPlanFixture(t, tx)
	f.blocks.clearErr = assert.AnError

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := f.svc.Generate(context.Background(), dto.GenerateStudyPlanRequest{Range: "today"})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, f.blocks.bulk)
	assert.Empty(t, f.cache.patterns)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanServiceGenerateWithNothingToPlace(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	f := newStudyPlanFixture(t, tx)
	f.assignments.items = nil

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := f.svc.Generate(context.Background(), dto.GenerateStudyPlanRequest{Range: "week"})
	require.NoError(t, err)
	assert.Empty(t, resp.Blocks)
	assert.NotNil(t, resp.Tasks)
	assert.Equal(t, 1, f.blocks.clears)
	assert.Empty(t, f.blocks.bulk)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarDateKeepsStoredDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	stored := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	anchored := calendarDate(stored, loc)
	assert.Equal(t, 10, anchored.Day())
	assert.Equal(t, loc, anchored.Location())
}
