package request

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/georgemunganga/stockroom/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgresCreateWritesLinesInOneTransaction(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO requests").
		WithArgs("Pharmacy", now, StatusPending, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery("INSERT INTO request_lines").
		WithArgs(11, 0, 3, 4).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectQuery("INSERT INTO request_lines").
		WithArgs(11, 1, 1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))
	mock.ExpectCommit()

	req := &Request{
		From: "Pharmacy", DateExpected: now, Status: StatusPending, RequestDate: now,
		Lines: []*Line{{ItemID: 3, Quantity: 4}, {ItemID: 1, Quantity: 2}},
	}
	require.NoError(t, repo.Create(context.Background(), req))
	assert.Equal(t, int64(11), req.ID)
	assert.Equal(t, int64(100), req.Lines[0].ID)
	assert.Equal(t, int64(101), req.Lines[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompareAndSetStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE requests SET status").
		WithArgs(StatusCanceled, 5, StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE requests SET status").
		WithArgs(StatusCanceled, 5, StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.CompareAndSetStatus(context.Background(), 5, StatusPending, StatusCanceled)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.CompareAndSetStatus(context.Background(), 5, StatusPending, StatusCanceled)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, requester, date_expected, status, request_date").
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requester", "date_expected", "status", "request_date"}))

	_, err := repo.GetByID(context.Background(), 9)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
