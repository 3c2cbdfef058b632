// internal/repository/staff.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vcard-reminder/internal/common/logger"
	"vcard-reminder/internal/models"

	"github.com/redis/go-redis/v9"
)

// ErrStaffNotFound is returned when an assignee has no directory entry.
var ErrStaffNotFound = errors.New("staff member not found")

// StaffRepository looks up staff phone numbers with a Redis read-through
// cache in front of the directory table.
type StaffRepository struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewStaffRepository(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *StaffRepository {
	return &StaffRepository{
		db:       db,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "staff-repository"}),
	}
}

// FindByAssignee resolves a staff username to a directory entry. Cache
// failures degrade to direct database reads.
func (r *StaffRepository) FindByAssignee(ctx context.Context, username string) (*models.StaffDirectoryEntry, error) {
	cacheKey := "staff:phone:" + username
	if r.redis != nil {
		if phone, err := r.redis.Get(ctx, cacheKey).Result(); err == nil && phone != "" {
			return &models.StaffDirectoryEntry{Username: username, Phone: phone}, nil
		}
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT phone
		FROM staff
		WHERE username = $1`, username)

	var phone string
	if err := row.Scan(&phone); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("query staff: %w", err)
	}

	if r.redis != nil {
		if err := r.redis.Set(ctx, cacheKey, phone, r.cacheTTL).Err(); err != nil {
			r.logger.Warn("staff cache write failed", map[string]interface{}{
				"username": username,
				"error":    err,
			})
		}
	}

	return &models.StaffDirectoryEntry{Username: username, Phone: phone}, nil
}
