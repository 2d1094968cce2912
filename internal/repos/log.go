package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/surveycrm/pollbridge/internal/pkg/logger"
	"github.com/surveycrm/pollbridge/internal/types"
)

type LogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.ProcessingLog) (*types.ProcessingLog, error)
	List(ctx context.Context, tx *gorm.DB, limit int) ([]*types.ProcessingLog, error)
	GetByID(ctx context.Context, tx *gorm.DB, logID int64) (*types.ProcessingLog, error)
	Delete(ctx context.Context, tx *gorm.DB, logID int64) error
}

type logRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLogRepo(db *gorm.DB, baseLog *logger.Logger) LogRepo {
	repoLog := baseLog.With("repo", "LogRepo")
	return &logRepo{db: db, log: repoLog}
}

func (lr *logRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.ProcessingLog) (*types.ProcessingLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (lr *logRepo) List(ctx context.Context, tx *gorm.DB, limit int) ([]*types.ProcessingLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	var results []*types.ProcessingLog
	query := transaction.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (lr *logRepo) GetByID(ctx context.Context, tx *gorm.DB, logID int64) (*types.ProcessingLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	var result types.ProcessingLog
	if err := transaction.WithContext(ctx).
		Where("id = ?", logID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (lr *logRepo) Delete(ctx context.Context, tx *gorm.DB, logID int64) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", logID).
		Delete(&types.ProcessingLog{}).Error
}
