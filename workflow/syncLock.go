package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"

	"bitbucket.org/mmdatafocus/tallybridge/config"
	"bitbucket.org/mmdatafocus/tallybridge/utils"
)

// ErrSyncLocked means another run holds the company's sync lock.
var ErrSyncLocked = errors.New("a sync run is already in progress for this company")

// syncLockTTL bounds how long a crashed run can hold its lock.
const syncLockTTL = 5 * time.Minute

// AcquireCompanySyncLock serializes sync runs per company across
// instances. Concurrent runs for one company risk duplicate vouchers,
// so callers should hold this for the whole batch. Returns a nil lock
// when Redis is not configured: single-instance installs run unlocked
// and accept the documented duplicate risk.
func AcquireCompanySyncLock(ctx context.Context, company string) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil, nil
	}
	key := "tallybridge:sync:" + utils.NormalizeLedgerName(company)
	lock, err := locker.Obtain(ctx, key, syncLockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrSyncLocked
	}
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// ReleaseCompanySyncLock is nil-safe so callers can defer it
// unconditionally.
func ReleaseCompanySyncLock(ctx context.Context, lock *redislock.Lock) {
	if lock == nil {
		return
	}
	_ = lock.Release(ctx)
}
