package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/planner"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
)

type blockRepoStub struct {
	items        map[string]*models.ScheduleBlock
	bulk         [][]models.ScheduleBlock
	bulkErr      error
	bulkExecs    []sqlx.ExtContext
	deleted      []string
	clearedCount int64
	listFilter   models.ScheduleBlockFilter
	listResult   []models.ScheduleBlock
	locks        int
	clears       int
	clearErr     error
}

func newBlockRepoStub(blocks ...models.ScheduleBlock) *blockRepoStub {
	stub := &blockRepoStub{items: map[string]*models.ScheduleBlock{}}
	for i := range blocks {
		b := blocks[i]
		stub.items[b.ID] = &b
	}
	return stub
}

func (s *blockRepoStub) List(_ context.Context, filter models.ScheduleBlockFilter) ([]models.ScheduleBlock, error) {
	s.listFilter = filter
	return s.listResult, nil
}

func (s *blockRepoStub) FindByID(_ context.Context, id string) (*models.ScheduleBlock, error) {
	b, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *b
	return &clone, nil
}

func (s *blockRepoStub) Create(_ context.Context, block *models.ScheduleBlock) error {
	block.ID = "block-new"
	clone := *block
	s.items[block.ID] = &clone
	return nil
}

func (s *blockRepoStub) BulkCreate(_ context.Context, exec sqlx.ExtContext, blocks []models.ScheduleBlock) error {
	s.bulkExecs = append(s.bulkExecs, exec)
	if s.bulkErr != nil {
		return s.bulkErr
	}
	for i := range blocks {
		blocks[i].ID = fmt.Sprintf("bulk-%d", i+1)
	}
	s.bulk = append(s.bulk, blocks)
	return nil
}

func (s *blockRepoStub) Update(_ context.Context, block *models.ScheduleBlock) error {
	if _, ok := s.items[block.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *block
	s.items[block.ID] = &clone
	return nil
}

func (s *blockRepoStub) ToggleCompleted(_ context.Context, id string) (*models.ScheduleBlock, error) {
	b, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	b.IsCompleted = !b.IsCompleted
	clone := *b
	return &clone, nil
}

func (s *blockRepoStub) Delete(_ context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *blockRepoStub) DeleteGenerated(_ context.Context, _ sqlx.ExtContext) (int64, error) {
	s.clears++
	if s.clearErr != nil {
		return 0, s.clearErr
	}
	return s.clearedCount, nil
}

func (s *blockRepoStub) LockGeneration(_ context.Context, _ sqlx.ExtContext) error {
	s.locks++
	return nil
}

func lockedBlock() models.ScheduleBlock {
	return models.ScheduleBlock{
		ID:        "b1",
		Date:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		EndTime:   "10:00",
		Title:     "Study: Essay",
		Type:      models.BlockTypeStudy,
		IsLocked:  true,
	}
}

func TestScheduleBlockServiceCreateDefaultsColor(t *testing.T) {
	repo := newBlockRepoStub()
	cache := &recordingInvalidator{}
	svc := NewScheduleBlockService(repo, nil, cache, nil, zap.NewNop())

	block, err := svc.Create(context.Background(), dto.CreateScheduleBlockRequest{
		Date:      "2025-03-10",
		StartTime: "09:00",
		EndTime:   "10:30",
		Title:     "Review",
		Type:      models.BlockTypeStudy,
		Location:  strPtr("  "),
	})
	require.NoError(t, err)
	assert.Equal(t, planner.DefaultStudyColor, block.Color)
	assert.Nil(t, block.Location)
	assert.Equal(t, "block-new", block.ID)
	assert.Len(t, cache.patterns, 1)

	meal, err := svc.Create(context.Background(), dto.CreateScheduleBlockRequest{
		Date: "2025-03-10", StartTime: "12:00", EndTime: "12:30", Title: "Lunch", Type: "meal",
	})
	require.NoError(t, err)
	assert.Equal(t, defaultBlockColor, meal.Color)
}

func TestScheduleBlockServiceCreateRejectsInvertedClock(t *testing.T) {
	svc := NewScheduleBlockService(newBlockRepoStub(), nil, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), dto.CreateScheduleBlockRequest{
		Date: "2025-03-10", StartTime: "11:00", EndTime: "10:00", Title: "Oops", Type: "study",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleBlockServiceBulkCreateCommits(t *testing.T) {
	repo := newBlockRepoStub()
	tx, mock := newTxProviderMock(t)
	svc := NewScheduleBlockService(repo, tx, nil, nil, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectCommit()

	blocks, err := svc.BulkCreate(context.Background(), dto.BulkCreateScheduleBlocksRequest{Blocks: []dto.CreateScheduleBlockRequest{
		{Date: "2025-03-10", StartTime: "09:00", EndTime: "10:00", Title: "A", Type: "study"},
		{Date: "2025-03-11", StartTime: "09:00", EndTime: "10:00", Title: "B", Type: "study"},
	}})
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "bulk-1", blocks[0].ID)
	assert.Equal(t, "bulk-2", blocks[1].ID)
	require.Len(t, repo.bulkExecs, 1)
	assert.NotNil(t, repo.bulkExecs[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleBlockServiceBulkCreateRollsBack(t *testing.T) {
	repo := newBlockRepoStub()
	repo.bulkErr = assert.AnError
	tx, mock := newTxProviderMock(t)
	svc := NewScheduleBlockService(repo, tx, nil, nil, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.BulkCreate(context.Background(), dto.BulkCreateScheduleBlocksRequest{Blocks: []dto.CreateScheduleBlockRequest{
		{Date: "2025-03-10", StartTime: "09:00", EndTime: "10:00", Title: "A", Type: "study"},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleBlockServiceLockedBlocks(t *testing.T) {
	repo := newBlockRepoStub(lockedBlock())
	svc := NewScheduleBlockService(repo, nil, nil, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Update(ctx, "b1", dto.UpdateScheduleBlockRequest{StartTime: strPtr("11:00"), EndTime: strPtr("12:00")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLocked.Code, appErrors.FromError(err).Code)

	renamed, err := svc.Update(ctx, "b1", dto.UpdateScheduleBlockRequest{Title: strPtr("Deep work")})
	require.NoError(t, err)
	assert.Equal(t, "Deep work", renamed.Title)
	assert.True(t, renamed.IsLocked)

	err = svc.Delete(ctx, "b1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLocked.Code, appErrors.FromError(err).Code)

	moved, err := svc.Update(ctx, "b1", dto.UpdateScheduleBlockRequest{Date: strPtr("2025-03-11"), IsLocked: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, moved.IsLocked)
	assert.Equal(t, "2025-03-11", moved.Date.Format(dateLayout))

	require.NoError(t, svc.Delete(ctx, "b1"))
	assert.Equal(t, []string{"b1"}, repo.deleted)
}

func TestScheduleBlockServiceListRejectsInvertedRange(t *testing.T) {
	svc := NewScheduleBlockService(newBlockRepoStub(), nil, nil, nil, zap.NewNop())
	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)

	_, err := svc.List(context.Background(), models.ScheduleBlockFilter{From: &from, To: &to})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleBlockServiceToggleAndClear(t *testing.T) {
	block := lockedBlock()
	block.IsLocked = false
	repo := newBlockRepoStub(block)
	repo.clearedCount = 4
	cache := &recordingInvalidator{}
	svc := NewScheduleBlockService(repo, nil, cache, nil, zap.NewNop())
	ctx := context.Background()

	toggled, err := svc.ToggleCompleted(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, toggled.IsCompleted)

	_, err = svc.ToggleCompleted(ctx, "missing")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	removed, err := svc.ClearGenerated(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)
	assert.Len(t, cache.patterns, 2)
}
