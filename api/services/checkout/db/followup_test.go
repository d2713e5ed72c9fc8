package checkoutdb

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	repo := NewRepository(conn)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

type anyUUID struct{}

func (anyUUID) Match(v driver.Value) bool {
	s, ok := v.(string)
	return ok && len(s) == 36
}

func TestEnqueue(t *testing.T) {
	repo, mock := newMockRepo(t)
	payload := map[string]int64{"employeeLimitTotal": 13, "employeeLimitRemaining": 8}
	raw, _ := json.Marshal(payload)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO checkout_followup")).
		WithArgs(anyUUID{}, "limit_update", "admin@example.com", raw, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.Enqueue(context.Background(), FollowUpLimitUpdate, "admin@example.com", payload)
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnqueue_InsertError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("INSERT INTO checkout_followup").WillReturnError(errors.New("conn reset"))

	_, err := repo.Enqueue(context.Background(), FollowUpPaymentRecord, "a@b.c", struct{}{})
	assert.ErrorContains(t, err, "conn reset")
}

func TestPending(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := sqlmock.NewRows([]string{"id", "kind", "email", "payload", "attempts", "last_error", "created_at"}).
		AddRow("f1", "limit_update", "a@b.c", []byte(`{"employeeLimitTotal":13}`), 0, "", fixedNow).
		AddRow("f2", "payment_record", "a@b.c", []byte(`{"paymentID":"pi_1"}`), 2, "502", fixedNow.Add(time.Second))

	mock.ExpectQuery("SELECT id, kind, email, payload, attempts, last_error, created_at").
		WithArgs(10, 50).
		WillReturnRows(rows)

	got, err := repo.Pending(context.Background(), 10, 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, FollowUpLimitUpdate, got[0].Kind)
	assert.JSONEq(t, `{"employeeLimitTotal":13}`, string(got[0].Payload))
	assert.Equal(t, FollowUpPaymentRecord, got[1].Kind)
	assert.Equal(t, 2, got[1].Attempts)
	assert.Equal(t, "502", got[1].LastError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkDone(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE checkout_followup SET done_at").
		WithArgs("f1", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.MarkDone(context.Background(), "f1"))

	mock.ExpectExec("UPDATE checkout_followup SET done_at").
		WithArgs("f1", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.Error(t, repo.MarkDone(context.Background(), "f1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkFailed(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE checkout_followup SET attempts = attempts + 1")).
		WithArgs("f2", "backend down").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.MarkFailed(context.Background(), "f2", "backend down"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
