package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/dto"
	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/internal/repository"
	appErrors "github.com/noah-isme/study-planner-api/pkg/errors"
	"github.com/noah-isme/study-planner-api/pkg/jobs"
)

type exportJobStoreStub struct {
	mu      sync.Mutex
	jobs    map[string]*models.ExportJob
	deleted []string
}

func newExportJobStoreStub() *exportJobStoreStub {
	return &exportJobStoreStub{jobs: map[string]*models.ExportJob{}}
}

func (s *exportJobStoreStub) Create(_ context.Context, job *models.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == "" {
		job.ID = "job-1"
	}
	job.CreatedAt = time.Now().UTC()
	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

func (s *exportJobStoreStub) GetByID(_ context.Context, id string) (*models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *job
	return &clone, nil
}

func (s *exportJobStoreStub) Update(_ context.Context, id string, params repository.UpdateExportJobParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (s *exportJobStoreStub) ListQueued(_ context.Context, _ int) ([]models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ExportJob
	for _, job := range s.jobs {
		if job.Status == models.ExportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *exportJobStoreStub) ListFinishedBefore(_ context.Context, cutoff time.Time, _ int) ([]models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ExportJob
	for _, job := range s.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *exportJobStoreStub) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type dispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type failingGenerator struct {
	err error
}

func (g failingGenerator) Generate(context.Context, *models.ExportJob) (*ExportResult, error) {
	return nil, g.err
}

func TestExportJobServiceCreateJob(t *testing.T) {
	store := newExportJobStoreStub()
	queue := &dispatcherStub{}
	svc := NewExportJobService(store, queue, nil, nil, zap.NewNop(), ExportJobConfig{})

	resp, err := svc.CreateJob(context.Background(), dto.ExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, resp.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, ExportJobType, queue.jobs[0].Type)
	assert.Equal(t, resp.ID, queue.jobs[0].ID)
}

func TestExportJobServiceCreateJobValidation(t *testing.T) {
	svc := NewExportJobService(newExportJobStoreStub(), &dispatcherStub{}, nil, nil, zap.NewNop(), ExportJobConfig{})
	from, to := "2025-03-10", "2025-03-01"

	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{Format: models.ExportFormatCSV, From: &from, To: &to})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.CreateJob(context.Background(), dto.ExportRequest{Format: "docx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportJobServiceCreateJobEnqueueFailure(t *testing.T) {
	store := newExportJobStoreStub()
	svc := NewExportJobService(store, &dispatcherStub{err: errors.New("queue stopped")}, nil, nil, zap.NewNop(), ExportJobConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{Format: models.ExportFormatPDF})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusFailed, store.jobs["job-1"].Status)
	require.NotNil(t, store.jobs["job-1"].FinishedAt)
}

func TestExportJobServiceGetStatusNotFound(t *testing.T) {
	svc := NewExportJobService(newExportJobStoreStub(), &dispatcherStub{}, nil, nil, zap.NewNop(), ExportJobConfig{})

	_, err := svc.GetStatus(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportJobLifecycle(t *testing.T) {
	store := newExportJobStoreStub()
	queue := &dispatcherStub{}
	exporter, _ := newTestExportService(t, &blockListStub{items: exportBlocks()})
	svc := NewExportJobService(store, queue, exporter, nil, zap.NewNop(), ExportJobConfig{ResultTTL: time.Hour})
	worker := NewExportWorker(store, exporter, 3, zap.NewNop())
	ctx := context.Background()

	created, err := svc.CreateJob(ctx, dto.ExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)

	require.NoError(t, worker.Handle(ctx, queue.jobs[0]))

	status, err := svc.GetStatus(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, status.Status)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.ResultURL)
	assert.Nil(t, status.Error)

	token := extractToken(*status.ResultURL)
	download, err := svc.ResolveDownload(ctx, token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv; charset=utf-8", download.ContentType)
	assert.Contains(t, download.Filename, ".csv")

	_, err = svc.ResolveDownload(ctx, "garbage")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportJobResolveDownloadNotReady(t *testing.T) {
	store := newExportJobStoreStub()
	exporter, _ := newTestExportService(t, &blockListStub{})
	svc := NewExportJobService(store, &dispatcherStub{}, exporter, nil, zap.NewNop(), ExportJobConfig{})
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &models.ExportJob{ID: "job-q", Status: models.ExportStatusQueued, Params: models.ExportJobParams{Format: models.ExportFormatCSV}}))
	token, _, err := exporter.signer.Generate("job-q", "schedule.csv")
	require.NoError(t, err)

	_, err = svc.ResolveDownload(ctx, token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrExportNotReady.Code, appErrors.FromError(err).Code)
}

func TestExportWorkerRequeuesThenFails(t *testing.T) {
	store := newExportJobStoreStub()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &models.ExportJob{ID: "job-x", Status: models.ExportStatusQueued}))
	worker := NewExportWorker(store, failingGenerator{err: errors.New("render failed")}, 2, zap.NewNop())

	err := worker.Handle(ctx, jobs.Job{ID: "job-x", Attempt: 0})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusQueued, store.jobs["job-x"].Status)
	assert.Equal(t, "render failed", *store.jobs["job-x"].ErrorMessage)

	err = worker.Handle(ctx, jobs.Job{ID: "job-x", Attempt: 2})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusFailed, store.jobs["job-x"].Status)
	assert.NotNil(t, store.jobs["job-x"].FinishedAt)
}

func TestExportJobServiceRecoverAndCleanup(t *testing.T) {
	store := newExportJobStoreStub()
	queue := &dispatcherStub{}
	exporter, _ := newTestExportService(t, &blockListStub{items: exportBlocks()})
	svc := NewExportJobService(store, queue, exporter, nil, zap.NewNop(), ExportJobConfig{ResultTTL: time.Hour})
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &models.ExportJob{ID: "pending", Status: models.ExportStatusQueued}))
	svc.RecoverPendingJobs(ctx)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "pending", queue.jobs[0].ID)

	done := &models.ExportJob{ID: "old", Status: models.ExportStatusFinished, Params: models.ExportJobParams{Format: models.ExportFormatCSV}}
	result, err := exporter.Generate(ctx, done)
	require.NoError(t, err)
	finished := time.Now().Add(-2 * time.Hour)
	done.ResultURL = &result.URL
	done.FinishedAt = &finished
	require.NoError(t, store.Create(ctx, done))

	svc.cleanupExpired(ctx)

	assert.Equal(t, []string{"old"}, store.deleted)
	_, err = exporter.Open(result.RelativePath)
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	assert.Equal(t, "abc.def", extractToken("/api/v1/exports/download?token=abc.def"))
	assert.Empty(t, extractToken("/api/v1/exports/download"))
	assert.Empty(t, extractToken(""))
}
