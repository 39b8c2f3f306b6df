package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/tallybridge/config"
	"bitbucket.org/mmdatafocus/tallybridge/utils"
)

// SyncRun is the durable log of one batch orchestration. Rows are
// bookkeeping only; the orchestrator's in-memory result is the source of
// truth for the caller that triggered the run.
type SyncRun struct {
	ID             uint       `gorm:"primary_key" json:"id"`
	CompanyName    string     `gorm:"index;size:255;not null" json:"company_name"`
	BankLedger     string     `gorm:"size:255" json:"bank_ledger"`
	Status         string     `gorm:"size:20;not null" json:"status"`
	TriggeredBy    string     `gorm:"size:20" json:"triggered_by"`
	RecordsSynced  int        `json:"records_synced"`
	RecordsFailed  int        `json:"records_failed"`
	RecordsSkipped int        `json:"records_skipped"`
	LedgersCreated int        `json:"ledgers_created"`
	StatsJSON      []byte     `gorm:"type:json" json:"stats"`
	StartedAt      *time.Time `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at"`
	DurationMs     int64      `json:"duration_ms"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SyncRunError is one failed or skipped item inside a run.
type SyncRunError struct {
	ID            uint      `gorm:"primary_key" json:"id"`
	SyncRunId     uint      `gorm:"index;not null" json:"sync_run_id"`
	TransactionId string    `gorm:"size:128" json:"transaction_id"`
	ErrorCode     string    `gorm:"size:64" json:"error_code"`
	Message       string    `gorm:"type:text" json:"message"`
	Retryable     bool      `gorm:"default:false" json:"retryable"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func MigrateSyncTables() error {
	db := config.GetDB()
	if db == nil {
		return nil
	}
	return db.AutoMigrate(&SyncRun{}, &SyncRunError{})
}

// SyncRunStore persists runs through the shared gorm handle. When no
// database is connected every method is a no-op, so library callers
// without persistence lose nothing.
type SyncRunStore struct{}

func (SyncRunStore) db(ctx context.Context) *gorm.DB {
	db := config.GetDB()
	if db == nil {
		return nil
	}
	return db.WithContext(ctx)
}

func (s SyncRunStore) BeginRun(ctx context.Context, companyName, bankLedger, triggeredBy string) (uint, error) {
	db := s.db(ctx)
	if db == nil {
		return 0, nil
	}
	now := time.Now()
	run := SyncRun{
		CompanyName: companyName,
		BankLedger:  bankLedger,
		Status:      SyncRunStatusRunning,
		TriggeredBy: triggeredBy,
		StartedAt:   &now,
	}
	if err := db.Create(&run).Error; err != nil {
		return 0, err
	}
	return run.ID, nil
}

func (s SyncRunStore) FinishRun(ctx context.Context, runId uint, status string, stats map[string]int) error {
	db := s.db(ctx)
	if db == nil || runId == 0 {
		return nil
	}
	var run SyncRun
	if err := db.Where("id = ?", runId).Take(&run).Error; err != nil {
		return err
	}
	finishedAt := time.Now()
	durationMs := int64(0)
	if run.StartedAt != nil {
		durationMs = finishedAt.Sub(*run.StartedAt).Milliseconds()
	}
	statsJSON, _ := json.Marshal(stats)
	return db.Model(&run).Updates(map[string]interface{}{
		"status":          status,
		"finished_at":     finishedAt,
		"duration_ms":     durationMs,
		"records_synced":  stats["succeeded"],
		"records_failed":  stats["failed"],
		"records_skipped": stats["skipped"],
		"ledgers_created": stats["ledgers_created"],
		"stats_json":      statsJSON,
	}).Error
}

func (s SyncRunStore) RecordItemError(ctx context.Context, runId uint, transactionId, errorCode, message string, retryable bool) error {
	db := s.db(ctx)
	if db == nil || runId == 0 {
		return nil
	}
	return db.Create(&SyncRunError{
		SyncRunId:     runId,
		TransactionId: transactionId,
		ErrorCode:     errorCode,
		Message:       message,
		Retryable:     retryable,
	}).Error
}

// GetSyncRun returns a run with its item errors.
func GetSyncRun(ctx context.Context, id uint) (*SyncRun, []SyncRunError, error) {
	db := config.GetDB()
	if db == nil {
		return nil, nil, nil
	}
	var run SyncRun
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, utils.ErrorRecordNotFound
		}
		return nil, nil, err
	}
	var itemErrors []SyncRunError
	if err := db.WithContext(ctx).Where("sync_run_id = ?", id).Order("id").Find(&itemErrors).Error; err != nil {
		return nil, nil, err
	}
	return &run, itemErrors, nil
}
