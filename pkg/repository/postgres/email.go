package postgres

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"gorm.io/gorm"
)

type emailRow struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"index:idx_email_user_created,priority:1;not null"`
	To        string    `gorm:"column:recipient;type:text;not null"`
	Subject   string    `gorm:"type:text;not null"`
	Success   bool      `gorm:"not null"`
	Response  string    `gorm:"type:text"`
	Error     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index:idx_email_user_created,priority:2,sort:desc;autoCreateTime:false"`
}

func (emailRow) TableName() string {
	return "email_records"
}

type emailRepository struct {
	db *gorm.DB
}

func (r *emailRepository) Create(ctx context.Context, record *model.EmailRecord) error {
	if record.ID == "" {
		return goerr.New("email record ID is required")
	}

	row := &emailRow{
		ID:        record.ID,
		UserID:    record.UserID,
		To:        record.To,
		Subject:   record.Subject,
		Success:   record.Success,
		Response:  record.Response,
		Error:     record.Error,
		CreatedAt: record.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return goerr.Wrap(err, "failed to store email record", goerr.V("id", record.ID))
	}
	return nil
}

func (r *emailRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.EmailRecord, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []emailRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list email records", goerr.V("user_id", userID))
	}

	records := make([]*model.EmailRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, &model.EmailRecord{
			ID:        row.ID,
			UserID:    row.UserID,
			To:        row.To,
			Subject:   row.Subject,
			Success:   row.Success,
			Response:  row.Response,
			Error:     row.Error,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return records, nil
}
