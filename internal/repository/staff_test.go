// internal/repository/staff_test.go
package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"vcard-reminder/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestStaffRepository_FindByAssignee_CacheMiss(t *testing.T) {
	mr, rdb := setupRedis(t)
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT phone FROM staff WHERE username = \$1`).
		WithArgs("alice.staff").
		WillReturnRows(sqlmock.NewRows([]string{"phone"}).AddRow("+15550001111"))

	repo := NewStaffRepository(db, rdb, 30*time.Minute, logger.NewTestLogger(t))
	entry, err := repo.FindByAssignee(context.Background(), "alice.staff")

	assert.NoError(t, err)
	assert.Equal(t, "+15550001111", entry.Phone)
	assert.NoError(t, mock.ExpectationsWereMet())

	// Lookup result lands in the cache.
	cached, err := mr.Get("staff:phone:alice.staff")
	assert.NoError(t, err)
	assert.Equal(t, "+15550001111", cached)
}

func TestStaffRepository_FindByAssignee_CacheHit(t *testing.T) {
	mr, rdb := setupRedis(t)
	db, mock := setupMockDB(t)

	assert.NoError(t, mr.Set("staff:phone:alice.staff", "+15550001111"))

	repo := NewStaffRepository(db, rdb, 30*time.Minute, logger.NewTestLogger(t))
	entry, err := repo.FindByAssignee(context.Background(), "alice.staff")

	assert.NoError(t, err)
	assert.Equal(t, "+15550001111", entry.Phone)

	// No database round trip on a cache hit.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepository_FindByAssignee_NotFound(t *testing.T) {
	_, rdb := setupRedis(t)
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT phone FROM staff WHERE username = \$1`).
		WithArgs("ghost.staff").
		WillReturnError(sql.ErrNoRows)

	repo := NewStaffRepository(db, rdb, 30*time.Minute, logger.NewTestLogger(t))
	entry, err := repo.FindByAssignee(context.Background(), "ghost.staff")

	assert.Nil(t, entry)
	assert.ErrorIs(t, err, ErrStaffNotFound)
}

func TestStaffRepository_FindByAssignee_RedisDown(t *testing.T) {
	mr, rdb := setupRedis(t)
	db, mock := setupMockDB(t)

	// Cache unavailable: lookups fall through to the database.
	mr.Close()

	mock.ExpectQuery(`SELECT phone FROM staff WHERE username = \$1`).
		WithArgs("alice.staff").
		WillReturnRows(sqlmock.NewRows([]string{"phone"}).AddRow("+15550001111"))

	repo := NewStaffRepository(db, rdb, 30*time.Minute, logger.NewTestLogger(t))
	entry, err := repo.FindByAssignee(context.Background(), "alice.staff")

	assert.NoError(t, err)
	assert.Equal(t, "+15550001111", entry.Phone)
}

func TestStaffRepository_FindByAssignee_NilRedis(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT phone FROM staff WHERE username = \$1`).
		WithArgs("alice.staff").
		WillReturnRows(sqlmock.NewRows([]string{"phone"}).AddRow("+15550001111"))

	repo := NewStaffRepository(db, nil, 30*time.Minute, logger.NewTestLogger(t))
	entry, err := repo.FindByAssignee(context.Background(), "alice.staff")

	assert.NoError(t, err)
	assert.Equal(t, "+15550001111", entry.Phone)
}
