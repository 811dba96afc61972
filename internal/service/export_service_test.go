package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/study-planner-api/internal/models"
	"github.com/noah-isme/study-planner-api/pkg/storage"
)

func exportBlocks() []models.ScheduleBlock {
	room := "Library"
	return []models.ScheduleBlock{
		{ID: "b1", Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), StartTime: "09:00", EndTime: "10:00", Title: "Study: Essay", Type: "study", Location: &room, IsGenerated: true},
		{ID: "b2", Date: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), StartTime: "12:00", EndTime: "12:30", Title: "Lunch", Type: "meal", IsLocked: true},
	}
}

func newTestExportService(t *testing.T, blocks blockLister) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(blocks, store, signer, ExportConfig{APIPrefix: "/api/v1/", ResultTTL: time.Hour}, zap.NewNop(), nil, nil)
	return svc, store
}

func TestExportServiceGenerateCSV(t *testing.T) {
	blocks := &blockListStub{items: exportBlocks()}
	svc, _ := newTestExportService(t, blocks)
	from, to := "2025-03-10", "2025-03-16"

	result, err := svc.Generate(context.Background(), &models.ExportJob{
		ID:     "0f8fad5b-d9cb-469f-a165-70867728950e",
		Params: models.ExportJobParams{Format: models.ExportFormatCSV, From: &from, To: &to},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.RelativePath, "schedule_2025-03-10_2025-03-16_"))
	assert.True(t, strings.HasSuffix(result.RelativePath, "_0f8fad5b.csv"))
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/exports/download?token="))
	assert.Equal(t, result.Token, extractToken(result.URL))

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", jobID)
	assert.Equal(t, result.RelativePath, relPath)

	file, err := svc.Open(relPath)
	require.NoError(t, err)
	defer file.Close()
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Day,Start,End,Title,Type,Location,Generated,Locked,Completed", lines[0])
	assert.Equal(t, "2025-03-10,Monday,09:00,10:00,Study: Essay,study,Library,yes,no,no", lines[1])
	assert.Equal(t, "2025-03-11,Tuesday,12:00,12:30,Lunch,meal,,no,yes,no", lines[2])
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc, _ := newTestExportService(t, &blockListStub{items: exportBlocks()})

	result, err := svc.Generate(context.Background(), &models.ExportJob{
		ID:     "job-pdf",
		Params: models.ExportJobParams{Format: models.ExportFormatPDF},
	})
	require.NoError(t, err)
	assert.Contains(t, result.RelativePath, "schedule_all_")
	assert.Equal(t, "application/pdf", svc.ContentType(models.ExportFormatPDF))
	assert.Equal(t, "text/csv; charset=utf-8", svc.ContentType(models.ExportFormatCSV))

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	head := make([]byte, 4)
	_, err = io.ReadFull(file, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))
}

func TestExportServiceGenerateRejectsBadInput(t *testing.T) {
	svc, _ := newTestExportService(t, &blockListStub{})
	bad := "10/03/2025"

	_, err := svc.Generate(context.Background(), &models.ExportJob{ID: "j", Params: models.ExportJobParams{Format: models.ExportFormatCSV, From: &bad}})
	require.Error(t, err)

	_, err = svc.Generate(context.Background(), &models.ExportJob{ID: "j", Params: models.ExportJobParams{Format: "xlsx"}})
	require.Error(t, err)

	_, err = svc.Generate(context.Background(), nil)
	require.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "na", sanitizeFilename(""))
	assert.Equal(t, "a_b-c-d", sanitizeFilename("a b/c:d"))
	assert.Len(t, sanitizeFilename(strings.Repeat("x", 150)), 100)
}
