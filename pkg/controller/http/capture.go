package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
	"github.com/pawnotes/pawnotes/pkg/usecase"
	"github.com/pawnotes/pawnotes/pkg/utils/logging"
	"github.com/pawnotes/pawnotes/pkg/utils/safe"
)

const (
	defaultCaptureSampleRate = 16000
	defaultCaptureEncoding   = "linear16"

	frameBufferSize = 256
	writeTimeout    = 10 * time.Second
)

// Client commands sent as text frames. Audio arrives as binary frames.
const (
	commandMicrophone = "microphone"
	commandStart      = "start"
	commandStop       = "stop"
	commandGenerate   = "generate"
	commandSave       = "save"
)

// Server frame types
const (
	frameState      = "state"
	frameTranscript = "transcript"
	frameElapsed    = "elapsed"
	frameError      = "error"
	frameAction     = "action"
	frameResult     = "result"
)

var errMicrophoneNotGranted = goerr.New("microphone permission not granted")

type clientMessage struct {
	Type       string `json:"type"`
	Granted    bool   `json:"granted,omitempty"`
	TemplateID string `json:"template_id,omitempty"`
}

type serverFrame struct {
	Type    string                 `json:"type"`
	State   types.CaptureState     `json:"state,omitempty"`
	Reason  types.CaptureReason    `json:"reason,omitempty"`
	Display *string                `json:"display,omitempty"`
	Elapsed *int                   `json:"elapsed,omitempty"`
	Code    types.CaptureErrorCode `json:"code,omitempty"`
	Detail  string                 `json:"detail,omitempty"`
	Command string                 `json:"command,omitempty"`
	Success *bool                  `json:"success,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Action  *model.CaseAction      `json:"action,omitempty"`
	Case    *model.Case            `json:"case,omitempty"`
}

// captureHandler upgrades to a websocket carrying one capture session
// for the case. The browser streams microphone audio as binary frames
// and drives the session with JSON commands; state, transcript and timer
// updates are pushed back as JSON frames.
func captureHandler(uc *usecase.CaptureUseCase, checkOrigin func(*http.Request) bool) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		mic, err := newWSMicrophone(r)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		sink := newFrameSink(ctx)

		session, err := uc.Open(ctx, caseIDParam(r), mic, sink)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error
			logging.From(ctx).Warn("websocket upgrade failed", "error", err)
			return
		}

		ctx = logging.With(ctx, logging.From(ctx).With("case_id", session.CaseID()))
		runCapture(ctx, conn, session, mic, sink)
	}
}

func runCapture(ctx context.Context, conn *websocket.Conn, session *usecase.CaptureSession, mic *wsMicrophone, sink *frameSink) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		sink.writeTo(ctx, conn)
	}()

	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	logging.From(ctx).Info("capture connection opened")
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.From(ctx).Warn("capture connection lost", "error", err)
			}
			break
		}

		switch kind {
		case websocket.BinaryMessage:
			mic.feed(ctx, data)

		case websocket.TextMessage:
			var msg clientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				sink.result("", goerr.Wrap(usecase.ErrValidation, "malformed command"), nil, nil)
				continue
			}
			handleCommand(ctx, msg, session, mic, sink, run)
		}
	}

	if err := session.Close(ctx); err != nil {
		logging.From(ctx).Warn("failed to stop capture on disconnect", "error", err)
	}
	wg.Wait()
	if session.History().Dirty() {
		logging.From(ctx).Warn("capture connection closed with unsaved actions", "actions", session.History().Len())
	}

	cancel()
	<-writerDone
	safe.Close(ctx, conn)
	logging.From(ctx).Info("capture connection closed")
}

func handleCommand(ctx context.Context, msg clientMessage, session *usecase.CaptureSession, mic *wsMicrophone, sink *frameSink, run func(func())) {
	switch msg.Type {
	case commandMicrophone:
		mic.grant(msg.Granted)

	case commandStart:
		// Start blocks until the stream is open; Stop must still be readable meanwhile
		run(func() {
			err := session.Start(ctx)
			sink.result(commandStart, err, nil, nil)
		})

	case commandStop:
		run(func() {
			action, err := session.Stop(ctx)
			sink.result(commandStop, err, action, nil)
		})

	case commandGenerate:
		run(func() {
			action, err := session.GenerateNote(ctx, msg.TemplateID)
			sink.result(commandGenerate, err, action, nil)
		})

	case commandSave:
		run(func() {
			saved, err := session.Save(ctx)
			sink.result(commandSave, err, nil, saved)
		})

	default:
		sink.result(msg.Type, goerr.Wrap(usecase.ErrValidation, "unknown command", goerr.V("type", msg.Type)), nil, nil)
	}
}

// frameSink queues capture notifications for the connection writer. It
// never blocks, so it is safe to call while the controller holds its lock.
type frameSink struct {
	ctx    context.Context
	frames chan serverFrame
}

func newFrameSink(ctx context.Context) *frameSink {
	return &frameSink{
		ctx:    ctx,
		frames: make(chan serverFrame, frameBufferSize),
	}
}

func (s *frameSink) push(f serverFrame) {
	select {
	case s.frames <- f:
	default:
		logging.From(s.ctx).Warn("capture frame dropped", "type", f.Type)
	}
}

func (s *frameSink) StateChanged(state types.CaptureState, reason types.CaptureReason) {
	s.push(serverFrame{Type: frameState, State: state, Reason: reason})
}

func (s *frameSink) TranscriptChanged(display string) {
	s.push(serverFrame{Type: frameTranscript, Display: &display})
}

func (s *frameSink) ElapsedChanged(seconds int) {
	s.push(serverFrame{Type: frameElapsed, Elapsed: &seconds})
}

func (s *frameSink) CaptureError(code types.CaptureErrorCode, detail string) {
	s.push(serverFrame{Type: frameError, Code: code, Detail: detail})
}

func (s *frameSink) ActionCommitted(action model.CaseAction) {
	s.push(serverFrame{Type: frameAction, Action: &action})
}

// result reports the outcome of a client command
func (s *frameSink) result(command string, err error, action *model.CaseAction, c *model.Case) {
	success := err == nil
	f := serverFrame{
		Type:    frameResult,
		Command: command,
		Success: &success,
		Action:  action,
		Case:    c,
	}
	if err != nil {
		f.Error = usecase.ErrorMessage(err)
		logging.From(s.ctx).Warn("capture command failed", "command", command, "error", err)
	}
	s.push(f)
}

// writeTo sends queued frames until ctx is cancelled, then flushes what
// is left.
func (s *frameSink) writeTo(ctx context.Context, conn *websocket.Conn) {
	write := func(f serverFrame) bool {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return false
		}
		if err := conn.WriteJSON(f); err != nil {
			logging.From(ctx).Warn("failed to write capture frame", "type", f.Type, "error", err)
			return false
		}
		return true
	}

	for {
		select {
		case f := <-s.frames:
			if !write(f) {
				return
			}
		case <-ctx.Done():
			for {
				select {
				case f := <-s.frames:
					if !write(f) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// wsMicrophone is a Microphone fed by binary websocket frames. Setup
// succeeds once the browser reports that microphone access was granted.
type wsMicrophone struct {
	cfg interfaces.StreamingConfig

	mu      sync.Mutex
	granted bool
	writer  *io.PipeWriter
}

func newWSMicrophone(r *http.Request) (*wsMicrophone, error) {
	q := r.URL.Query()
	cfg := interfaces.StreamingConfig{
		SampleRate:     defaultCaptureSampleRate,
		Channels:       1,
		Encoding:       defaultCaptureEncoding,
		InterimResults: true,
	}
	if v := q.Get("sample_rate"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			return nil, goerr.Wrap(usecase.ErrValidation, "sample_rate must be a positive integer", goerr.V("sample_rate", v))
		}
		cfg.SampleRate = rate
	}
	if v := q.Get("encoding"); v != "" {
		cfg.Encoding = v
	}
	return &wsMicrophone{cfg: cfg}, nil
}

func (m *wsMicrophone) grant(granted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.granted = granted
}

func (m *wsMicrophone) Setup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.granted {
		return errMicrophoneNotGranted
	}
	return nil
}

func (m *wsMicrophone) Config() interfaces.StreamingConfig {
	return m.cfg
}

func (m *wsMicrophone) Start(ctx context.Context) (interfaces.AudioSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.granted {
		return nil, errMicrophoneNotGranted
	}

	pr, pw := io.Pipe()
	if m.writer != nil {
		if err := m.writer.Close(); err != nil {
			logging.From(ctx).Debug("failed to close previous audio pipe", "error", err)
		}
	}
	m.writer = pw
	return &wsAudioSession{mic: m, reader: pr, writer: pw}, nil
}

// feed forwards an audio frame to the running capture and reports whether
// it was delivered. Frames arriving while nothing records are dropped.
func (m *wsMicrophone) feed(ctx context.Context, chunk []byte) bool {
	m.mu.Lock()
	w := m.writer
	m.mu.Unlock()
	if w == nil {
		logging.From(ctx).Debug("audio frame dropped, not recording", "bytes", len(chunk))
		return false
	}
	if _, err := w.Write(chunk); err != nil {
		// the capture stopped between the lookup and the write
		logging.From(ctx).Debug("audio frame dropped", "bytes", len(chunk), "error", err)
		return false
	}
	return true
}

func (m *wsMicrophone) release(w *io.PipeWriter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writer == w {
		m.writer = nil
	}
}

type wsAudioSession struct {
	mic    *wsMicrophone
	reader *io.PipeReader
	writer *io.PipeWriter
}

func (s *wsAudioSession) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

func (s *wsAudioSession) Stop() error {
	s.mic.release(s.writer)
	return s.writer.Close()
}
