package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
	"github.com/pawnotes/pawnotes/pkg/utils/logging"
	"github.com/pawnotes/pawnotes/pkg/utils/safe"
)

const (
	defaultCaptureTick  = time.Second
	defaultChunkSize    = 4096
	defaultFlushTimeout = 2 * time.Second
)

// CaptureController runs the transcript capture state machine for one
// case: Idle -> Connecting -> Recording -> Idle. Any failure returns it
// to Idle without committing an action. Sink notifications are delivered
// while the controller lock is held, so a sink must not call back into
// the controller.
type CaptureController struct {
	mic      interfaces.Microphone
	provider interfaces.TranscriptionProvider
	history  *ActionHistory
	sink     interfaces.CaptureSink

	tick         time.Duration
	chunkSize    int
	flushTimeout time.Duration

	mu       sync.Mutex
	state    types.CaptureState
	micReady bool
	elapsed  int
	display  string
	current  *recording
}

// recording holds the resources of one Start..Stop cycle.
type recording struct {
	acc    *TranscriptAccumulator
	audio  interfaces.AudioSession
	stream interfaces.StreamingSession

	// stopping is set once Stop begins draining. Failures reported after
	// that point are ignored so the transcript is still committed.
	stopping bool

	done      chan struct{}
	doneOnce  sync.Once
	pumpDone  chan struct{}
	eventDone chan struct{}
}

func (r *recording) finish() {
	r.doneOnce.Do(func() { close(r.done) })
}

// CaptureOption configures a CaptureController
type CaptureOption func(*CaptureController)

// WithCaptureSink sets the receiver of capture notifications
func WithCaptureSink(sink interfaces.CaptureSink) CaptureOption {
	return func(c *CaptureController) {
		c.sink = sink
	}
}

// WithCaptureTick overrides the elapsed timer interval
func WithCaptureTick(d time.Duration) CaptureOption {
	return func(c *CaptureController) {
		c.tick = d
	}
}

// WithChunkSize sets the audio read buffer size
func WithChunkSize(n int) CaptureOption {
	return func(c *CaptureController) {
		c.chunkSize = n
	}
}

// WithFlushTimeout bounds how long Stop waits for the recognizer to
// deliver its last final fragments. Zero closes the session immediately.
func WithFlushTimeout(d time.Duration) CaptureOption {
	return func(c *CaptureController) {
		c.flushTimeout = d
	}
}

func NewCaptureController(mic interfaces.Microphone, provider interfaces.TranscriptionProvider, history *ActionHistory, opts ...CaptureOption) *CaptureController {
	c := &CaptureController{
		mic:          mic,
		provider:     provider,
		history:      history,
		sink:         nopSink{},
		tick:         defaultCaptureTick,
		chunkSize:    defaultChunkSize,
		flushTimeout: defaultFlushTimeout,
		state:        types.CaptureStateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.history == nil {
		c.history = NewActionHistory(nil)
	}
	return c
}

// Start begins a recording. It returns once the streaming session is open
// and audio is flowing, or with the error that sent the controller back to
// Idle. ctx bounds only the connection phase; the recording itself lasts
// until Stop or a failure.
func (c *CaptureController) Start(ctx context.Context) error {
	rec := &recording{
		acc:       NewTranscriptAccumulator(),
		done:      make(chan struct{}),
		pumpDone:  make(chan struct{}),
		eventDone: make(chan struct{}),
	}

	c.mu.Lock()
	if c.state != types.CaptureStateIdle {
		state := c.state
		c.mu.Unlock()
		return goerr.Wrap(ErrCaptureInProgress, "capture already in progress", goerr.V("state", state))
	}
	c.current = rec
	c.state = types.CaptureStateConnecting
	c.display = ""
	needSetup := !c.micReady
	c.sink.StateChanged(types.CaptureStateConnecting, types.CaptureReasonStartRequested)
	c.sink.TranscriptChanged("")
	c.mu.Unlock()

	if needSetup {
		if err := c.mic.Setup(ctx); err != nil {
			c.fail(ctx, rec, types.CaptureErrorMicrophone, err)
			return goerr.Wrap(ErrMicrophone, "microphone setup failed", goerr.V("error", err.Error()))
		}
		c.mu.Lock()
		c.micReady = true
		c.mu.Unlock()
	}

	stream, err := c.provider.StartStreaming(ctx, c.mic.Config())
	if err != nil {
		c.fail(ctx, rec, types.CaptureErrorStreamOpen, err)
		return goerr.Wrap(ErrUpstream, "failed to open streaming session", goerr.V("error", err.Error()))
	}

	sessionCtx := logging.With(context.WithoutCancel(ctx), logging.From(ctx))
	audio, err := c.mic.Start(sessionCtx)
	if err != nil {
		safe.Close(ctx, stream)
		c.fail(ctx, rec, types.CaptureErrorMicrophone, err)
		return goerr.Wrap(ErrMicrophone, "failed to start audio capture", goerr.V("error", err.Error()))
	}

	c.mu.Lock()
	if c.current != rec {
		// Stop arrived while connecting
		c.mu.Unlock()
		safe.Stop(ctx, audio)
		safe.Close(ctx, stream)
		return goerr.Wrap(ErrCaptureAborted, "capture stopped while connecting")
	}
	rec.audio = audio
	rec.stream = stream
	c.state = types.CaptureStateRecording
	c.elapsed = 0
	c.sink.StateChanged(types.CaptureStateRecording, types.CaptureReasonStreamOpened)
	c.sink.ElapsedChanged(0)
	c.mu.Unlock()

	go c.pump(sessionCtx, rec)
	go c.consume(sessionCtx, rec)
	go c.runTimer(rec)

	logging.From(ctx).Info("capture started")
	return nil
}

// Stop ends the active recording and commits its transcript as a
// recording action at the front of the history. It returns the committed
// action, or nil when the transcript was empty or the controller was
// still connecting.
func (c *CaptureController) Stop(ctx context.Context) (*model.CaseAction, error) {
	c.mu.Lock()
	rec := c.current
	if rec == nil || rec.stopping {
		c.mu.Unlock()
		return nil, goerr.Wrap(ErrNoActiveCapture, "no active capture to stop")
	}

	if c.state == types.CaptureStateConnecting {
		c.current = nil
		rec.finish()
		c.state = types.CaptureStateIdle
		c.elapsed = 0
		c.display = ""
		c.sink.StateChanged(types.CaptureStateIdle, types.CaptureReasonStopRequested)
		c.sink.ElapsedChanged(0)
		c.sink.TranscriptChanged("")
		c.mu.Unlock()
		return nil, nil
	}

	rec.stopping = true
	rec.finish()
	c.mu.Unlock()

	// Stop capture first so no audio is sent after the close request
	safe.Stop(ctx, rec.audio)
	<-rec.pumpDone
	c.closeStream(ctx, rec)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = nil
	c.state = types.CaptureStateIdle
	c.elapsed = 0
	c.display = ""

	var committed *model.CaseAction
	if transcript := rec.acc.Transcript(); transcript != "" {
		action := model.NewRecordingAction(transcript)
		c.history.Prepend(action)
		committed = &action
	}

	reason := types.CaptureReasonStopRequested
	if committed != nil {
		reason = types.CaptureReasonCommitted
	}
	c.sink.StateChanged(types.CaptureStateIdle, reason)
	c.sink.ElapsedChanged(0)
	c.sink.TranscriptChanged("")
	if committed != nil {
		c.sink.ActionCommitted(*committed)
	}

	logging.From(ctx).Info("capture stopped", "committed", committed != nil)
	return committed, nil
}

// closeStream asks the recognizer to flush and waits up to flushTimeout
// for the event stream to end before closing the session.
func (c *CaptureController) closeStream(ctx context.Context, rec *recording) {
	if c.flushTimeout > 0 {
		if err := rec.stream.CloseSend(); err != nil {
			logging.From(ctx).Warn("failed to close audio stream", "error", err)
		}
		timer := time.NewTimer(c.flushTimeout)
		defer timer.Stop()
		select {
		case <-rec.eventDone:
		case <-timer.C:
			logging.From(ctx).Warn("recognizer did not flush in time", "timeout", c.flushTimeout)
		}
	}

	if err := rec.stream.Close(); err != nil {
		logging.From(ctx).Warn("streaming session closed with error", "error", err)
	}
	<-rec.eventDone
}

// fail moves rec's controller back to Idle and releases its resources.
// It is a no-op when rec is no longer current or is being stopped.
func (c *CaptureController) fail(ctx context.Context, rec *recording, code types.CaptureErrorCode, cause error) {
	c.mu.Lock()
	if c.current != rec || rec.stopping {
		c.mu.Unlock()
		return
	}
	c.current = nil
	rec.finish()
	c.state = types.CaptureStateIdle
	c.elapsed = 0
	c.sink.CaptureError(code, cause.Error())
	c.sink.StateChanged(types.CaptureStateIdle, types.CaptureReasonFailed)
	c.sink.ElapsedChanged(0)
	audio, stream := rec.audio, rec.stream
	c.mu.Unlock()

	logging.From(ctx).Warn("capture failed", "code", code, "error", cause)

	safe.Stop(ctx, audio)
	if stream != nil {
		safe.Close(ctx, stream)
	}
}

func (c *CaptureController) pump(ctx context.Context, rec *recording) {
	defer close(rec.pumpDone)

	buf := make([]byte, c.chunkSize)
	for {
		n, err := rec.audio.Read(buf)
		if n > 0 {
			if sendErr := rec.stream.SendAudio(buf[:n]); sendErr != nil {
				c.fail(ctx, rec, types.CaptureErrorTransport, sendErr)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.fail(ctx, rec, types.CaptureErrorAudioStream, err)
			}
			return
		}
	}
}

func (c *CaptureController) consume(ctx context.Context, rec *recording) {
	defer close(rec.eventDone)

	for ev := range rec.stream.Events() {
		c.apply(rec, ev)
	}

	err := rec.stream.Wait()
	if err == nil {
		err = goerr.New("streaming session closed by recognizer")
	}
	c.fail(ctx, rec, types.CaptureErrorTransport, err)
}

func (c *CaptureController) apply(rec *recording, ev model.TranscriptEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != rec {
		return
	}
	display, changed := rec.acc.Apply(ev)
	if !changed {
		return
	}
	c.display = display
	c.sink.TranscriptChanged(display)
}

func (c *CaptureController) runTimer(rec *recording) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-rec.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.current == rec && !rec.stopping && c.state == types.CaptureStateRecording {
				c.elapsed++
				c.sink.ElapsedChanged(c.elapsed)
			}
			c.mu.Unlock()
		}
	}
}

// State returns the current capture state
func (c *CaptureController) State() types.CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Elapsed returns whole seconds spent in Recording
func (c *CaptureController) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Display returns the transcript currently shown to the user
func (c *CaptureController) Display() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display
}

// History returns the action history this controller commits to
func (c *CaptureController) History() *ActionHistory {
	return c.history
}

type nopSink struct{}

func (nopSink) StateChanged(types.CaptureState, types.CaptureReason) {}
func (nopSink) TranscriptChanged(string)                             {}
func (nopSink) ElapsedChanged(int)                                   {}
func (nopSink) CaptureError(types.CaptureErrorCode, string)          {}
func (nopSink) ActionCommitted(model.CaseAction)                     {}
