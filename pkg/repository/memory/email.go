package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
)

type emailRepository struct {
	mu      sync.RWMutex
	records map[string]*model.EmailRecord
}

func newEmailRepository() *emailRepository {
	return &emailRepository{
		records: make(map[string]*model.EmailRecord),
	}
}

func (r *emailRepository) Create(ctx context.Context, record *model.EmailRecord) error {
	if record.ID == "" {
		return goerr.New("email record ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *record
	r.records[record.ID] = &copied
	return nil
}

func (r *emailRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.EmailRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*model.EmailRecord, 0)
	for _, rec := range r.records {
		if rec.UserID != userID {
			continue
		}
		copied := *rec
		records = append(records, &copied)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
