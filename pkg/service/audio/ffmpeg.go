package audio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
)

const (
	DefaultCommand    = "ffmpeg"
	DefaultSampleRate = 16000

	startupGrace = 250 * time.Millisecond
	stopTimeout  = 1200 * time.Millisecond
)

// ErrCaptureExited is returned when ffmpeg dies before producing audio
var ErrCaptureExited = goerr.New("ffmpeg exited before capture started")

// FFmpeg captures 16-bit little-endian PCM from the local microphone by
// running ffmpeg as a subprocess.
type FFmpeg struct {
	command     string
	inputFormat string
	inputDevice string
	sampleRate  int
	channels    int
}

var _ interfaces.Microphone = &FFmpeg{}

type Option func(*FFmpeg)

func WithCommand(command string) Option {
	return func(f *FFmpeg) {
		f.command = command
	}
}

// WithInput selects the ffmpeg input format and device, e.g. ("pulse",
// "default") on Linux or ("avfoundation", ":0") on macOS.
func WithInput(format, device string) Option {
	return func(f *FFmpeg) {
		f.inputFormat = format
		f.inputDevice = device
	}
}

func WithSampleRate(rate int) Option {
	return func(f *FFmpeg) {
		f.sampleRate = rate
	}
}

func New(opts ...Option) *FFmpeg {
	format, device := defaultInput()
	f := &FFmpeg{
		command:     DefaultCommand,
		inputFormat: format,
		inputDevice: device,
		sampleRate:  DefaultSampleRate,
		channels:    1,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func defaultInput() (string, string) {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation", ":0"
	case "windows":
		return "dshow", "audio=default"
	default:
		return "pulse", "default"
	}
}

// Setup verifies that ffmpeg can be executed
func (f *FFmpeg) Setup(ctx context.Context) error {
	if _, err := exec.LookPath(f.command); err != nil {
		return goerr.Wrap(err, "ffmpeg is not available", goerr.V("command", f.command))
	}
	return nil
}

func (f *FFmpeg) Config() interfaces.StreamingConfig {
	return interfaces.StreamingConfig{
		SampleRate:     f.sampleRate,
		Channels:       f.channels,
		Encoding:       "linear16",
		InterimResults: true,
	}
}

func (f *FFmpeg) args() []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", f.inputFormat,
		"-i", f.inputDevice,
		"-ac", strconv.Itoa(f.channels),
		"-ar", strconv.Itoa(f.sampleRate),
		"-f", "s16le",
		"-",
	}
}

// Start launches ffmpeg. The process outlives ctx only until Stop is
// called or ctx is cancelled.
func (f *FFmpeg) Start(ctx context.Context) (interfaces.AudioSession, error) {
	cmd := exec.CommandContext(ctx, f.command, f.args()...)
	stderr := &lockedBuffer{}
	cmd.Stderr = stderr
	cmd.WaitDelay = stopTimeout

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create ffmpeg stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		return nil, goerr.Wrap(err, "failed to start ffmpeg", goerr.V("command", f.command))
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		var opts []goerr.Option
		if err != nil {
			opts = append(opts, goerr.V("error", err.Error()))
		}
		opts = append(opts, goerr.V("stderr", stderr.String()))
		return nil, goerr.Wrap(ErrCaptureExited, "microphone capture failed", opts...)
	case <-time.After(startupGrace):
	}

	return &session{
		stdout:  stdout,
		stderr:  stderr,
		process: cmd.Process,
		waitErr: waitErr,
		stopped: make(chan struct{}),
	}, nil
}

type session struct {
	stdout  io.ReadCloser
	stderr  *lockedBuffer
	process *os.Process
	waitErr <-chan error

	stopOnce sync.Once
	stopped  chan struct{}
	stopErr  error
}

// Read returns PCM bytes, and io.EOF once the session is stopped
func (s *session) Read(p []byte) (int, error) {
	n, err := s.stdout.Read(p)
	if err != nil {
		select {
		case <-s.stopped:
			return n, io.EOF
		default:
		}
		if errors.Is(err, os.ErrClosed) {
			return n, io.EOF
		}
	}
	return n, err
}

func (s *session) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopped)
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeExit(err)
			}
		case <-time.After(stopTimeout):
			if s.process != nil {
				_ = s.process.Kill()
			}
			if err, ok := <-s.waitErr; ok {
				s.stopErr = normalizeExit(err)
			}
		}

		if err := s.stdout.Close(); err != nil && !errors.Is(err, os.ErrClosed) && s.stopErr == nil {
			s.stopErr = err
		}

		if s.stopErr != nil {
			s.stopErr = goerr.Wrap(s.stopErr, "failed to stop ffmpeg", goerr.V("stderr", s.stderr.String()))
		}
	})
	return s.stopErr
}

// normalizeExit ignores the non-zero status ffmpeg reports when it is
// interrupted or killed
func normalizeExit(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) || errors.Is(err, exec.ErrWaitDelay) {
		return nil
	}
	return err
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(b.buf.String())
}
