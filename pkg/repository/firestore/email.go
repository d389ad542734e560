package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"google.golang.org/api/iterator"
)

type emailRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newEmailRepository() *emailRepository {
	return &emailRepository{}
}

func (r *emailRepository) emailsCollection() string {
	return collectionName(r.collectionPrefix, "emails")
}

func (r *emailRepository) Create(ctx context.Context, record *model.EmailRecord) error {
	if record.ID == "" {
		return goerr.New("email record ID is required")
	}

	_, err := r.client.Collection(r.emailsCollection()).Doc(record.ID).Set(ctx, record)
	if err != nil {
		return goerr.Wrap(err, "failed to store email record", goerr.V("id", record.ID))
	}
	return nil
}

func (r *emailRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.EmailRecord, error) {
	query := r.client.Collection(r.emailsCollection()).
		Where("UserID", "==", userID).
		OrderBy("CreatedAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	records := []*model.EmailRecord{}
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate email records", goerr.V("user_id", userID))
		}

		var rec model.EmailRecord
		if err := docSnap.DataTo(&rec); err != nil {
			return nil, goerr.Wrap(err, "failed to decode email record", goerr.V("doc_id", docSnap.Ref.ID))
		}
		records = append(records, &rec)
	}

	return records, nil
}
