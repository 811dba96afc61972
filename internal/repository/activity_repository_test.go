package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/study-planner-api/internal/models"
)

func TestActivityRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "type", "icon", "color", "frequency", "days_of_week", "start_time", "end_time",
		"location", "priority", "flexible", "buffer_before", "buffer_after", "event_date", "created_at", "updated_at"}).
		AddRow("act-1", "Lecture", "class", "book", "#3b82f6", "weekly", "{Monday,Wednesday}", "09:00", "10:30",
			"Hall A", "high", false, 10, 5, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM activities ORDER BY name ASC")).WillReturnRows(rows)

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, pq.StringArray{"Monday", "Wednesday"}, items[0].DaysOfWeek)
	require.NotNil(t, items[0].EndTime)
	assert.Equal(t, "10:30", *items[0].EndTime)
	assert.Nil(t, items[0].EventDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectExec("INSERT INTO activities").
		WillReturnResult(sqlmock.NewResult(1, 1))

	activity := &models.Activity{Name: "Gym", Type: "exercise", Frequency: models.FrequencyDaily, StartTime: "18:00"}
	require.NoError(t, repo.Create(context.Background(), activity))
	assert.NotEmpty(t, activity.ID)
	assert.False(t, activity.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM activities WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
