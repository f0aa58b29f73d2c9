package port

import "github.com/calibancode/gifforge/internal/domain"

// HistoryStore archives terminal jobs.
type HistoryStore interface {
	Save(record domain.HistoryRecord) error
	Get(id string) (domain.HistoryRecord, error)
	List(limit int) ([]domain.HistoryRecord, error)
	Close() error
}
