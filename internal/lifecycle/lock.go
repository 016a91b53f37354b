package lifecycle

import (
	"context"
	"time"

	"github.com/alprail/membership/internal/lifecycle/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// acquireLock claims the advisory lock for a job until now+ttl. It
// returns false when another holder still owns the lock.
func acquireLock(ctx context.Context, db *gorm.DB, jobName, holder string, now time.Time, ttl time.Duration) (bool, error) {
	lock := domain.JobLock{
		JobName:     jobName,
		LockedBy:    holder,
		LockedUntil: now.Add(ttl),
		UpdatedAt:   now,
	}

	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_name"}},
		DoUpdates: clause.Assignments(map[string]any{
			"locked_by":    lock.LockedBy,
			"locked_until": lock.LockedUntil,
			"updated_at":   lock.UpdatedAt,
		}),
		Where: clause.Where{
			Exprs: []clause.Expression{
				clause.Or(
					clause.Lt{Column: "locked_until", Value: now},
					clause.Eq{Column: "locked_by", Value: holder},
				),
			},
		},
	}).Create(&lock)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// releaseLock frees the lock by expiring it. Only the current holder may
// release.
func releaseLock(ctx context.Context, db *gorm.DB, jobName, holder string, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE job_locks SET locked_until = ?, updated_at = ? WHERE job_name = ? AND locked_by = ?`,
		now, now, jobName, holder,
	).Error
}
