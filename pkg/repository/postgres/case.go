package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type caseRow struct {
	ID            string         `gorm:"type:uuid;primaryKey"`
	Name          string         `gorm:"type:text;not null"`
	Timestamp     time.Time      `gorm:"index;not null"`
	AssignedStaff pq.StringArray `gorm:"type:text[]"`
	Type          string         `gorm:"type:varchar(20);index;not null"`
	Status        string         `gorm:"type:varchar(20);index;not null"`
	Visibility    string         `gorm:"type:varchar(10);not null"`
	OwnerID       string         `gorm:"index;not null"`
	Actions       datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"autoCreateTime:false"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime:false"`
}

func (caseRow) TableName() string {
	return "cases"
}

func toCaseRow(c *model.Case) (*caseRow, error) {
	actions := c.Actions
	if actions == nil {
		actions = []model.CaseAction{}
	}
	raw, err := json.Marshal(actions)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode case actions", goerr.V("id", c.ID))
	}

	return &caseRow{
		ID:            c.ID.String(),
		Name:          c.Name,
		Timestamp:     c.Timestamp.UTC(),
		AssignedStaff: pq.StringArray(c.AssignedStaff),
		Type:          c.Type.String(),
		Status:        c.Status.Normalize().String(),
		Visibility:    c.Visibility.Normalize().String(),
		OwnerID:       c.OwnerID,
		Actions:       datatypes.JSON(raw),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}, nil
}

func (r *caseRow) toModel() (*model.Case, error) {
	actions := []model.CaseAction{}
	if len(r.Actions) > 0 {
		if err := json.Unmarshal(r.Actions, &actions); err != nil {
			return nil, goerr.Wrap(err, "failed to decode case actions", goerr.V("id", r.ID))
		}
	}

	staff := []string(r.AssignedStaff)
	if staff == nil {
		staff = []string{}
	}

	return &model.Case{
		ID:            model.CaseID(r.ID),
		Name:          r.Name,
		Timestamp:     r.Timestamp.UTC(),
		AssignedStaff: staff,
		Type:          types.CaseType(r.Type),
		Status:        types.CaseStatus(r.Status).Normalize(),
		Visibility:    types.Visibility(r.Visibility).Normalize(),
		OwnerID:       r.OwnerID,
		Actions:       actions,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}, nil
}

type caseRepository struct {
	db *gorm.DB
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	created := c.Copy()
	if created.ID == "" {
		created.ID = model.NewCaseID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	row, err := toCaseRow(created)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to create case", goerr.V("id", created.ID))
	}

	return row.toModel()
}

func (r *caseRepository) Get(ctx context.Context, id model.CaseID) (*model.Case, error) {
	row, err := r.find(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

func (r *caseRepository) List(ctx context.Context, opts ...interfaces.ListCaseOption) ([]*model.Case, error) {
	cfg := interfaces.BuildListCaseConfig(opts...)

	query := r.db.WithContext(ctx).Model(&caseRow{})
	if s := cfg.Status(); s != nil {
		query = query.Where("status = ?", s.String())
	}
	if t := cfg.Type(); t != nil {
		query = query.Where("type = ?", t.String())
	}
	if v := cfg.ViewerID(); v != nil {
		query = query.Where("owner_id = ? OR visibility = ?", *v, types.VisibilityPublic.String())
	}
	query = query.Order("timestamp DESC").Order("id DESC")
	if limit := cfg.Limit(); limit > 0 {
		query = query.Limit(limit)
	}

	var rows []caseRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list cases")
	}

	cases := make([]*model.Case, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, nil
}

func (r *caseRepository) Update(ctx context.Context, c *model.Case) (*model.Case, error) {
	var updated *caseRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.find(tx.Clauses(lockForUpdate()), c.ID)
		if err != nil {
			return err
		}

		next := c.Copy()
		next.CreatedAt = existing.CreatedAt
		next.UpdatedAt = nextUpdatedAt(existing.UpdatedAt)
		row, err := toCaseRow(next)
		if err != nil {
			return err
		}
		if err := tx.Save(row).Error; err != nil {
			return goerr.Wrap(err, "failed to save case", goerr.V("id", c.ID))
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update case", goerr.V("id", c.ID))
	}

	return updated.toModel()
}

func (r *caseRepository) SaveActions(ctx context.Context, id model.CaseID, actions []model.CaseAction) (*model.Case, error) {
	if actions == nil {
		actions = []model.CaseAction{}
	}
	raw, err := json.Marshal(actions)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode case actions", goerr.V("id", id))
	}

	var updated *caseRow
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.find(tx.Clauses(lockForUpdate()), id)
		if err != nil {
			return err
		}

		existing.Actions = datatypes.JSON(raw)
		existing.UpdatedAt = nextUpdatedAt(existing.UpdatedAt)
		if err := tx.Model(existing).Updates(map[string]any{
			"actions":    existing.Actions,
			"updated_at": existing.UpdatedAt,
		}).Error; err != nil {
			return goerr.Wrap(err, "failed to update case actions", goerr.V("id", id))
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save case actions", goerr.V("id", id))
	}

	return updated.toModel()
}

func (r *caseRepository) find(db *gorm.DB, id model.CaseID) (*caseRow, error) {
	var row caseRow
	if err := db.First(&row, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V("id", id))
	}
	return &row, nil
}

// nextUpdatedAt returns the current time at database precision, bumped
// past prev when the clock has not advanced.
func nextUpdatedAt(prev time.Time) time.Time {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

// lockForUpdate serializes concurrent read-modify-write cycles on a row
func lockForUpdate() clause.Expression {
	return clause.Locking{Strength: "UPDATE"}
}
