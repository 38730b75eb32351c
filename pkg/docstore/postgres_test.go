package docstore

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_Get(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM documents WHERE path = $1`)).
		WithArgs("treatments/t1").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"name":"Consultation"}`)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM documents WHERE path = $1`)).
		WithArgs("treatments/t2").
		WillReturnError(sql.ErrNoRows)

	snap, err := s.Get(ctx, "treatments/t1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Consultation"}`, string(snap.Data))

	_, err = s.Get(ctx, "treatments/t2")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MergeUsesJSONBConcat(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`data = documents.data || EXCLUDED.data`)).
		WithArgs("appointments/BK-1", "appointments", "appointments", `{"status":"confirmed"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Merge(ctx, "appointments/BK-1", map[string]string{"status": "confirmed"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetIndexesGroup(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`SET data = EXCLUDED.data`)).
		WithArgs("doctors/doc1/services/t1", "doctors/doc1/services", "services", `{"price":2000}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Set(ctx, "doctors/doc1/services/t1", map[string]int{"price": 2000}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListGroup(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT path, data FROM documents WHERE grp = $1 ORDER BY path`)).
		WithArgs("services").
		WillReturnRows(sqlmock.NewRows([]string{"path", "data"}).
			AddRow("doctors/doc1/services/t1", []byte(`{"price":2000}`)).
			AddRow("doctors/doc2/services/t1", []byte(`{"price":1800}`)))

	got, err := s.ListGroup(ctx, "services")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "doctors/doc2/services/t1", got[1].Path)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Where(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE collection = $1 AND data -> $2 = $3::jsonb`)).
		WithArgs("discountCodes", "code", `"SAVE10"`).
		WillReturnRows(sqlmock.NewRows([]string{"path", "data"}).
			AddRow("discountCodes/a", []byte(`{"code":"SAVE10"}`)))

	got, err := s.Where(ctx, "discountCodes", "code", "SAVE10")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Increment(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`RETURNING (data ->> $4)::bigint`)).
		WithArgs("patients/p1", "patients", "patients", "appointmentCount", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(3)))

	n, err := s.Increment(ctx, "patients/p1", "appointmentCount", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_IncrementWithin(t *testing.T) {
	ctx := context.Background()
	updateQ := regexp.QuoteMeta(`UPDATE documents SET`)
	existsQ := regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM documents WHERE path = $1)`)

	t.Run("incremented", func(t *testing.T) {
		s, mock := newTestPostgresStore(t)
		mock.ExpectQuery(updateQ).
			WithArgs("discountCodes/a", "usageCount", "usageLimit").
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(int64(4)))

		n, err := s.IncrementWithin(ctx, "discountCodes/a", "usageCount", "usageLimit")
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("limit reached", func(t *testing.T) {
		s, mock := newTestPostgresStore(t)
		mock.ExpectQuery(updateQ).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(existsQ).WithArgs("discountCodes/a").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		_, err := s.IncrementWithin(ctx, "discountCodes/a", "usageCount", "usageLimit")
		assert.ErrorIs(t, err, ErrLimitReached)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := newTestPostgresStore(t)
		mock.ExpectQuery(updateQ).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(existsQ).WithArgs("discountCodes/a").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := s.IncrementWithin(ctx, "discountCodes/a", "usageCount", "usageLimit")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_Reserve(t *testing.T) {
	ctx := context.Background()
	s, mock := newTestPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO reservations`)).
		WithArgs("reservations/doc1_20250601_1000", "BK-2").
		WillReturnRows(sqlmock.NewRows([]string{"owner"}).AddRow("BK-1"))

	ok, err := s.Reserve(ctx, "reservations/doc1_20250601_1000", "BK-2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newTestPostgresStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS documents`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
