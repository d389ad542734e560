package archive_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
	"github.com/pawnotes/pawnotes/pkg/service/archive"
)

type object struct {
	contentType string
	data        []byte
}

type memBucket struct {
	mu      sync.Mutex
	objects map[string]object
	failOn  string
}

func (b *memBucket) put(ctx context.Context, name, contentType string, data []byte) error {
	if name == b.failOn {
		return errors.New("permission denied")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.objects == nil {
		b.objects = make(map[string]object)
	}
	b.objects[name] = object{contentType: contentType, data: data}
	return nil
}

func newCase() *model.Case {
	rec := model.NewRecordingAction("vomiting since yesterday")
	note := model.NewSOAPNoteAction(model.SOAPNote{
		Subjective: "Vomiting",
		Objective:  "Mild dehydration",
		Assessment: "Gastritis",
		Plan:       "Fluids",
	})
	return &model.Case{
		ID:            model.CaseID("0195a1b2-0000-7000-8000-000000000001"),
		Name:          "Max",
		Timestamp:     time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		AssignedStaff: []string{"Dr. Sato"},
		Type:          types.CaseTypeCheckup,
		Status:        types.CaseStatusReviewed,
		OwnerID:       "vet-1",
		Actions:       []model.CaseAction{note, rec},
	}
}

func TestGCS_Export(t *testing.T) {
	bucket := &memBucket{}
	a := archive.NewWithWriter("clinic-exports", "pawnotes", bucket.put)

	c := newCase()
	location, err := a.Export(context.Background(), c)
	gt.NoError(t, err).Required()
	gt.Value(t, location).Equal("gs://clinic-exports/pawnotes/cases/0195a1b2-0000-7000-8000-000000000001")

	gt.Value(t, len(bucket.objects)).Equal(2)

	caseObj, ok := bucket.objects["pawnotes/cases/0195a1b2-0000-7000-8000-000000000001/case.json"]
	gt.Bool(t, ok).True()
	gt.Value(t, caseObj.contentType).Equal("application/json")
	var decoded model.Case
	gt.NoError(t, json.Unmarshal(caseObj.data, &decoded)).Required()
	gt.Value(t, decoded.ID).Equal(c.ID)
	gt.Array(t, decoded.Actions).Length(2)

	notesObj, ok := bucket.objects["pawnotes/cases/0195a1b2-0000-7000-8000-000000000001/notes.md"]
	gt.Bool(t, ok).True()
	gt.String(t, string(notesObj.data)).Contains("# Max")
}

func TestGCS_ExportFailure(t *testing.T) {
	bucket := &memBucket{failOn: "cases/0195a1b2-0000-7000-8000-000000000001/notes.md"}
	a := archive.NewWithWriter("clinic-exports", "", bucket.put)

	_, err := a.Export(context.Background(), newCase())
	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("failed to export case")
}

func TestRenderMarkdown(t *testing.T) {
	md := archive.RenderMarkdown(newCase())

	gt.String(t, md).Contains("- Type: checkup\n")
	gt.String(t, md).Contains("- Status: reviewed\n")
	gt.String(t, md).Contains("- Date: 2025-03-01 09:30\n")
	gt.String(t, md).Contains("- Staff: Dr. Sato\n")
	gt.String(t, md).Contains("### Assessment\n\nGastritis\n")
	gt.String(t, md).Contains("vomiting since yesterday\n")
}

func TestNew(t *testing.T) {
	_, err := archive.New(context.Background(), "")
	gt.Error(t, err)
}

func TestGCS_Integration(t *testing.T) {
	bucket := os.Getenv("PAWNOTES_TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("PAWNOTES_TEST_GCS_BUCKET not set")
	}

	ctx := context.Background()
	a, err := archive.New(ctx, bucket, archive.WithPrefix("test"))
	gt.NoError(t, err).Required()
	defer a.Close()

	c := newCase()
	c.ID = model.NewCaseID()
	_, err = a.Export(ctx, c)
	gt.NoError(t, err)
}
