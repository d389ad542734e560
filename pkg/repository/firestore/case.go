package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type caseRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCaseRepository() *caseRepository {
	return &caseRepository{}
}

func (r *caseRepository) casesCollection() string {
	return collectionName(r.collectionPrefix, "cases")
}

// caseDoc is the stored form of a case. Actions are embedded so that a
// case and its history are written atomically.
type caseDoc struct {
	ID            string      `firestore:"id"`
	Name          string      `firestore:"name"`
	Timestamp     time.Time   `firestore:"timestamp"`
	AssignedStaff []string    `firestore:"assigned_staff"`
	Type          string      `firestore:"type"`
	Status        string      `firestore:"status"`
	Visibility    string      `firestore:"visibility"`
	OwnerID       string      `firestore:"owner_id"`
	Actions       []actionDoc `firestore:"actions"`
	CreatedAt     time.Time   `firestore:"created_at"`
	UpdatedAt     time.Time   `firestore:"updated_at"`
}

type actionDoc struct {
	ID         string       `firestore:"id"`
	Kind       string       `firestore:"kind"`
	CreatedAt  time.Time    `firestore:"created_at"`
	Transcript string       `firestore:"transcript,omitempty"`
	SOAP       *soapNoteDoc `firestore:"soap,omitempty"`
}

type soapNoteDoc struct {
	Subjective string `firestore:"subjective"`
	Objective  string `firestore:"objective"`
	Assessment string `firestore:"assessment"`
	Plan       string `firestore:"plan"`
}

func toCaseDoc(c *model.Case) *caseDoc {
	doc := &caseDoc{
		ID:            c.ID.String(),
		Name:          c.Name,
		Timestamp:     c.Timestamp,
		AssignedStaff: c.AssignedStaff,
		Type:          c.Type.String(),
		Status:        c.Status.Normalize().String(),
		Visibility:    c.Visibility.Normalize().String(),
		OwnerID:       c.OwnerID,
		Actions:       toActionDocs(c.Actions),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if doc.AssignedStaff == nil {
		doc.AssignedStaff = []string{}
	}
	return doc
}

func toActionDocs(actions []model.CaseAction) []actionDoc {
	docs := make([]actionDoc, 0, len(actions))
	for _, a := range actions {
		d := actionDoc{
			ID:         a.ID.String(),
			Kind:       a.Kind.String(),
			CreatedAt:  a.CreatedAt,
			Transcript: a.Transcript,
		}
		if a.SOAP != nil {
			d.SOAP = &soapNoteDoc{
				Subjective: a.SOAP.Subjective,
				Objective:  a.SOAP.Objective,
				Assessment: a.SOAP.Assessment,
				Plan:       a.SOAP.Plan,
			}
		}
		docs = append(docs, d)
	}
	return docs
}

func (d *caseDoc) toModel() *model.Case {
	c := &model.Case{
		ID:            model.CaseID(d.ID),
		Name:          d.Name,
		Timestamp:     d.Timestamp,
		AssignedStaff: d.AssignedStaff,
		Type:          types.CaseType(d.Type),
		Status:        types.CaseStatus(d.Status).Normalize(),
		Visibility:    types.Visibility(d.Visibility).Normalize(),
		OwnerID:       d.OwnerID,
		Actions:       make([]model.CaseAction, 0, len(d.Actions)),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if c.AssignedStaff == nil {
		c.AssignedStaff = []string{}
	}
	for _, a := range d.Actions {
		action := model.CaseAction{
			ID:         model.ActionID(a.ID),
			Kind:       types.ActionKind(a.Kind),
			CreatedAt:  a.CreatedAt,
			Transcript: a.Transcript,
		}
		if a.SOAP != nil {
			action.SOAP = &model.SOAPNote{
				Subjective: a.SOAP.Subjective,
				Objective:  a.SOAP.Objective,
				Assessment: a.SOAP.Assessment,
				Plan:       a.SOAP.Plan,
			}
		}
		c.Actions = append(c.Actions, action)
	}
	return c
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	created := c.Copy()
	if created.ID == "" {
		created.ID = model.NewCaseID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	doc := toCaseDoc(created)
	_, err := r.client.Collection(r.casesCollection()).Doc(doc.ID).Create(ctx, doc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create case", goerr.V("id", created.ID))
	}

	return doc.toModel(), nil
}

func (r *caseRepository) Get(ctx context.Context, id model.CaseID) (*model.Case, error) {
	docSnap, err := r.client.Collection(r.casesCollection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V("id", id))
	}

	var doc caseDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode case", goerr.V("id", id))
	}

	return doc.toModel(), nil
}

// List filters status and type in the query. The viewer filter and the
// limit are applied while iterating.
func (r *caseRepository) List(ctx context.Context, opts ...interfaces.ListCaseOption) ([]*model.Case, error) {
	cfg := interfaces.BuildListCaseConfig(opts...)

	query := r.client.Collection(r.casesCollection()).Query
	if s := cfg.Status(); s != nil {
		query = query.Where("status", "==", s.String())
	}
	if t := cfg.Type(); t != nil {
		query = query.Where("type", "==", t.String())
	}
	query = query.OrderBy("timestamp", firestore.Desc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	cases := []*model.Case{}
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate cases")
		}

		var doc caseDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode case", goerr.V("doc_id", docSnap.Ref.ID))
		}

		c := doc.toModel()
		if !cfg.Match(c) {
			continue
		}
		cases = append(cases, c)
		if limit := cfg.Limit(); limit > 0 && len(cases) >= limit {
			break
		}
	}

	return cases, nil
}

func (r *caseRepository) Update(ctx context.Context, c *model.Case) (*model.Case, error) {
	docRef := r.client.Collection(r.casesCollection()).Doc(c.ID.String())

	var updated *model.Case
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := r.getInTx(tx, docRef, c.ID)
		if err != nil {
			return err
		}

		updated = c.Copy()
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = nextUpdatedAt(existing.UpdatedAt)
		return tx.Set(docRef, toCaseDoc(updated))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update case", goerr.V("id", c.ID))
	}

	return toCaseDoc(updated).toModel(), nil
}

func (r *caseRepository) SaveActions(ctx context.Context, id model.CaseID, actions []model.CaseAction) (*model.Case, error) {
	docRef := r.client.Collection(r.casesCollection()).Doc(id.String())

	var updated *model.Case
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := r.getInTx(tx, docRef, id)
		if err != nil {
			return err
		}

		updated = existing
		updated.Actions = model.CopyActions(actions)
		updated.UpdatedAt = nextUpdatedAt(existing.UpdatedAt)
		return tx.Update(docRef, []firestore.Update{
			{Path: "actions", Value: toActionDocs(updated.Actions)},
			{Path: "updated_at", Value: updated.UpdatedAt},
		})
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save case actions", goerr.V("id", id))
	}

	return toCaseDoc(updated).toModel(), nil
}

func (r *caseRepository) getInTx(tx *firestore.Transaction, docRef *firestore.DocumentRef, id model.CaseID) (*model.Case, error) {
	docSnap, err := tx.Get(docRef)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V("id", id))
	}

	var doc caseDoc
	if err := docSnap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode case", goerr.V("id", id))
	}
	return doc.toModel(), nil
}

// nextUpdatedAt returns the current time, bumped past prev when the
// clock has not advanced.
func nextUpdatedAt(prev time.Time) time.Time {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}
