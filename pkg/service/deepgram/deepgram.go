package deepgram

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/utils/logging"
)

const (
	DefaultBaseURL = "https://api.deepgram.com/v1"
	DefaultModel   = "nova-2-medical"

	defaultKeepAlive = 5 * time.Second
	eventBufferSize  = 64
	audioBufferSize  = 32
)

var (
	// ErrStreamClosed is returned by SendAudio after CloseSend or Close
	ErrStreamClosed = goerr.New("audio stream is already closed")
	// ErrRecognizer wraps error events reported by Deepgram
	ErrRecognizer = goerr.New("deepgram reported an error")
)

// Provider opens Deepgram live transcription sessions over a websocket
type Provider struct {
	apiKey      string
	baseURL     string
	model       string
	language    string
	smartFormat bool
	keepAlive   time.Duration
	dialer      *websocket.Dialer
}

var _ interfaces.TranscriptionProvider = &Provider{}

type Option func(*Provider)

func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

func WithLanguage(language string) Option {
	return func(p *Provider) {
		p.language = language
	}
}

func WithSmartFormat(enabled bool) Option {
	return func(p *Provider) {
		p.smartFormat = enabled
	}
}

// WithKeepAlive sets how often a KeepAlive message is sent while no audio
// is flowing. Zero disables it.
func WithKeepAlive(interval time.Duration) Option {
	return func(p *Provider) {
		p.keepAlive = interval
	}
}

// New creates a Provider authenticating with apiKey
func New(apiKey string, opts ...Option) (*Provider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, goerr.New("Deepgram API key is required")
	}

	p := &Provider{
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		model:       DefaultModel,
		smartFormat: true,
		keepAlive:   defaultKeepAlive,
		dialer:      websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// StartStreaming dials the listen endpoint and returns once the websocket
// is open. Cancelling ctx closes the session.
func (p *Provider) StartStreaming(ctx context.Context, cfg interfaces.StreamingConfig) (interfaces.StreamingSession, error) {
	listenURL, err := p.listenURL(cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.apiKey)

	conn, resp, err := p.dialer.DialContext(ctx, listenURL, headers)
	if err != nil {
		var status int
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, goerr.Wrap(err, "failed to connect to Deepgram",
			goerr.V("model", p.model),
			goerr.V("status", status))
	}

	s := &session{
		conn:      conn,
		events:    make(chan model.TranscriptEvent, eventBufferSize),
		audio:     make(chan []byte, audioBufferSize),
		closing:   make(chan struct{}),
		readDone:  make(chan struct{}),
		done:      make(chan struct{}),
		keepAlive: p.keepAlive,
		logger:    logging.From(ctx),
	}

	s.wg.Add(2)
	go s.readLoop()
	go s.writeLoop()
	go func() {
		s.wg.Wait()
		close(s.events)
		close(s.done)
		_ = conn.Close()
	}()

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()

	s.logger.Debug("deepgram stream opened", slog.String("model", p.model))
	return s, nil
}

func (p *Provider) listenURL(cfg interfaces.StreamingConfig) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(p.baseURL), "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	u, err := url.Parse(base + "/listen")
	if err != nil {
		return "", goerr.Wrap(err, "invalid Deepgram base URL", goerr.V("base_url", p.baseURL))
	}

	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "linear16"
	}
	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	channels := cfg.Channels
	if channels <= 0 {
		channels = 1
	}

	q := u.Query()
	q.Set("model", p.model)
	q.Set("encoding", encoding)
	q.Set("sample_rate", strconv.Itoa(sampleRate))
	q.Set("channels", strconv.Itoa(channels))
	q.Set("interim_results", strconv.FormatBool(cfg.InterimResults))
	q.Set("smart_format", strconv.FormatBool(p.smartFormat))
	q.Set("punctuate", "true")
	if p.language != "" {
		q.Set("language", p.language)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type session struct {
	conn   *websocket.Conn
	logger *slog.Logger

	events   chan model.TranscriptEvent
	audio    chan []byte
	closing  chan struct{}
	readDone chan struct{}
	done     chan struct{}

	keepAlive time.Duration
	wg        sync.WaitGroup

	errMu sync.Mutex
	err   error

	sendMu     sync.RWMutex
	sendClosed bool

	closeSendOnce sync.Once
	closeOnce     sync.Once
}

func (s *session) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.sendClosed {
		return ErrStreamClosed
	}

	copied := append([]byte(nil), chunk...)
	select {
	case s.audio <- copied:
		return nil
	case <-s.closing:
		return ErrStreamClosed
	case <-s.done:
		if err := s.waitErr(); err != nil {
			return err
		}
		return ErrStreamClosed
	}
}

// CloseSend sends CloseStream after the queued audio so Deepgram flushes
// its remaining finals and then closes the socket.
func (s *session) CloseSend() error {
	s.closeSendOnce.Do(func() {
		s.sendMu.Lock()
		s.sendClosed = true
		close(s.audio)
		s.sendMu.Unlock()
	})
	return nil
}

func (s *session) Events() <-chan model.TranscriptEvent {
	return s.events
}

func (s *session) Wait() error {
	<-s.done
	return s.waitErr()
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		close(s.closing)
		_ = s.conn.Close()
		_ = s.CloseSend()
	})
	<-s.done
	return s.waitErr()
}

func (s *session) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *session) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *session) isClosing() bool {
	select {
	case <-s.closing:
		return true
	default:
		return false
	}
}

func (s *session) writeLoop() {
	defer s.wg.Done()

	var tick <-chan time.Time
	if s.keepAlive > 0 {
		ticker := time.NewTicker(s.keepAlive)
		defer ticker.Stop()
		tick = ticker.C
	}
	lastWrite := time.Now()

	for {
		select {
		case chunk, ok := <-s.audio:
			if !ok {
				if s.isClosing() {
					return
				}
				if err := s.writeControl("CloseStream"); err != nil {
					s.setErr(goerr.Wrap(err, "failed to send CloseStream"))
				}
				return
			}
			if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				if !s.isClosing() {
					s.setErr(goerr.Wrap(err, "failed to send audio", goerr.V("bytes", len(chunk))))
				}
				return
			}
			lastWrite = time.Now()

		case <-tick:
			if time.Since(lastWrite) < s.keepAlive {
				continue
			}
			if err := s.writeControl("KeepAlive"); err != nil {
				if !s.isClosing() {
					s.setErr(goerr.Wrap(err, "failed to send KeepAlive"))
				}
				return
			}
			lastWrite = time.Now()

		case <-s.closing:
			return

		case <-s.readDone:
			return
		}
	}
}

func (s *session) writeControl(msgType string) error {
	payload, err := json.Marshal(map[string]string{"type": msgType})
	if err != nil {
		return goerr.Wrap(err, "failed to encode control message")
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *session) readLoop() {
	defer s.wg.Done()
	defer close(s.readDone)

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if s.isClosing() || websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				return
			}
			s.setErr(goerr.Wrap(err, "failed to read Deepgram message"))
			return
		}

		var msg listenResponse
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Warn("ignoring malformed Deepgram message", slog.Any("error", err))
			continue
		}

		switch {
		case strings.EqualFold(msg.Type, "Error"):
			detail := strings.TrimSpace(msg.Description)
			if detail == "" {
				detail = strings.TrimSpace(msg.Message)
			}
			if detail == "" {
				detail = "unknown error"
			}
			s.setErr(goerr.Wrap(ErrRecognizer, detail, goerr.V("code", msg.ErrCode)))
			return

		case msg.Type == "" || msg.Type == "Results":
			text := msg.transcript()
			if text == "" {
				continue
			}
			if !s.emit(model.TranscriptEvent{Text: text, IsFinal: msg.IsFinal || msg.SpeechFinal}) {
				return
			}
		}
	}
}

// emit blocks until the event is queued so that no final fragment is
// dropped. It returns false once the session is closing.
func (s *session) emit(ev model.TranscriptEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.closing:
		return false
	}
}

type alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type listenResponse struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`
	Channel     struct {
		Alternatives []alternative `json:"alternatives"`
	} `json:"channel"`

	// error event fields
	Description string `json:"description"`
	Message     string `json:"message"`
	ErrCode     string `json:"err_code"`
}

func (r listenResponse) transcript() string {
	if len(r.Channel.Alternatives) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Channel.Alternatives[0].Transcript)
}
