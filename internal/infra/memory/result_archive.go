package memory

import (
	"context"
	"sync"

	"quizroom-service/internal/domain"
)

// ResultArchive keeps finished games in process. The dev-mode stand-in for
// the persistent archive.
type ResultArchive struct {
	mu      sync.Mutex
	records []domain.GameRecord
}

func NewResultArchive() *ResultArchive {
	return &ResultArchive{}
}

func (a *ResultArchive) RecordResult(_ context.Context, record domain.GameRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, record)
	return nil
}

// Records returns a copy of everything archived so far.
func (a *ResultArchive) Records() []domain.GameRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.GameRecord, len(a.records))
	copy(out, a.records)
	return out
}
