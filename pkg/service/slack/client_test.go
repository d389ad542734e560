package slack_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/gt"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
	"github.com/pawnotes/pawnotes/pkg/service/slack"
)

type postedMessage struct {
	Channel string
	Text    string
	Blocks  []map[string]any
}

type fakeSlack struct {
	mu    sync.Mutex
	posts []postedMessage
	fail  bool
}

func (f *fakeSlack) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !strings.HasSuffix(r.URL.Path, "/chat.postMessage") {
		_, _ = w.Write([]byte(`{"ok":false,"error":"unknown_method"}`))
		return
	}
	if f.fail {
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg := postedMessage{
		Channel: r.PostForm.Get("channel"),
		Text:    r.PostForm.Get("text"),
	}
	_ = json.Unmarshal([]byte(r.PostForm.Get("blocks")), &msg.Blocks)

	f.mu.Lock()
	f.posts = append(f.posts, msg)
	f.mu.Unlock()

	_, _ = w.Write([]byte(`{"ok":true,"channel":"` + msg.Channel + `","ts":"1700000000.000100"}`))
}

func newNotifier(t *testing.T, fake *fakeSlack) *slack.Notifier {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	n, err := slack.New("xoxb-test", "C-CLINIC",
		slack.WithAPIURL(srv.URL+"/api/"),
		slack.WithBaseURL("https://pawnotes.example.com/"),
	)
	gt.NoError(t, err).Required()
	return n
}

func newCase() *model.Case {
	return &model.Case{
		ID:            model.CaseID("0195a1b2-0000-7000-8000-000000000001"),
		Name:          "Max",
		Timestamp:     time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		AssignedStaff: []string{"Dr. Sato", "Nurse Ito"},
		Type:          types.CaseTypeEmergency,
		Status:        types.CaseStatusCompleted,
	}
}

func TestNew(t *testing.T) {
	t.Run("returns error when token is empty", func(t *testing.T) {
		_, err := slack.New("", "C1")
		gt.Value(t, err).NotNil()
	})

	t.Run("returns error when channel is empty", func(t *testing.T) {
		_, err := slack.New("xoxb-test", "")
		gt.Value(t, err).NotNil()
	})
}

func TestNotifier_NotifyStatusChanged(t *testing.T) {
	fake := &fakeSlack{}
	n := newNotifier(t, fake)

	gt.NoError(t, n.NotifyStatusChanged(context.Background(), newCase(), types.CaseStatusOngoing)).Required()

	gt.Array(t, fake.posts).Length(1)
	post := fake.posts[0]
	gt.Value(t, post.Channel).Equal("C-CLINIC")
	gt.Value(t, post.Text).Equal("Case Max moved from ongoing to completed")
	gt.Array(t, post.Blocks).Length(2)

	raw, err := json.Marshal(post.Blocks)
	gt.NoError(t, err).Required()
	gt.String(t, string(raw)).Contains("https://pawnotes.example.com/cases/0195a1b2-0000-7000-8000-000000000001|Max")
	gt.String(t, string(raw)).Contains("emergency | Dr. Sato, Nurse Ito | 2025-03-01 09:30")
}

func TestNotifier_NotifyNoteGenerated(t *testing.T) {
	fake := &fakeSlack{}
	n := newNotifier(t, fake)

	note := &model.SOAPNote{
		Subjective: "Vomiting since yesterday",
		Assessment: "Gastritis",
		Plan:       "Fluids",
	}
	gt.NoError(t, n.NotifyNoteGenerated(context.Background(), newCase(), note)).Required()

	gt.Array(t, fake.posts).Length(1)
	// header + four sections + context
	gt.Array(t, fake.posts[0].Blocks).Length(6)

	raw, err := json.Marshal(fake.posts[0].Blocks)
	gt.NoError(t, err).Required()
	gt.String(t, string(raw)).Contains("Vomiting since yesterday")
	gt.String(t, string(raw)).Contains("_none_")
}

func TestNotifier_PostFailure(t *testing.T) {
	n := newNotifier(t, &fakeSlack{fail: true})
	err := n.NotifyStatusChanged(context.Background(), newCase(), types.CaseStatusOngoing)
	gt.Error(t, err)
	gt.String(t, err.Error()).Contains("failed to post Slack message")
}

func TestTruncateToMaxBytes(t *testing.T) {
	gt.Value(t, slack.TruncateToMaxBytes("short", 10)).Equal("short")

	long := strings.Repeat("あ", 20) // 3 bytes each
	got := slack.TruncateToMaxBytes(long, 10)
	gt.Bool(t, utf8.ValidString(got)).True()
	gt.Bool(t, len(got) <= 10).True()
	gt.Bool(t, strings.HasSuffix(got, "…")).True()
}

func TestIntegration(t *testing.T) {
	token := os.Getenv("PAWNOTES_TEST_SLACK_BOT_TOKEN")
	channelID := os.Getenv("PAWNOTES_TEST_SLACK_CHANNEL_ID")
	if token == "" || channelID == "" {
		t.Skip("PAWNOTES_TEST_SLACK_BOT_TOKEN or PAWNOTES_TEST_SLACK_CHANNEL_ID is not set")
	}

	n, err := slack.New(token, channelID)
	gt.NoError(t, err).Required()
	gt.NoError(t, n.NotifyStatusChanged(context.Background(), newCase(), types.CaseStatusOngoing))
}
