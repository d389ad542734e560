package interfaces

import (
	"context"
	"io"

	"github.com/pawnotes/pawnotes/pkg/domain/model"
)

// StreamingConfig describes provider-agnostic streaming settings.
type StreamingConfig struct {
	SampleRate     int
	Channels       int
	Encoding       string
	InterimResults bool
}

// StreamingSession is an open connection to a streaming recognizer.
// Events is closed when the session ends; Wait then reports the transport
// error, if any.
type StreamingSession interface {
	SendAudio(chunk []byte) error
	CloseSend() error
	Events() <-chan model.TranscriptEvent
	Wait() error
	Close() error
}

// TranscriptionProvider opens streaming sessions. StartStreaming returns
// once the session is open.
type TranscriptionProvider interface {
	StartStreaming(ctx context.Context, cfg StreamingConfig) (StreamingSession, error)
}

// AudioSession is a live microphone capture. Read yields raw audio chunks
// and returns io.EOF after Stop.
type AudioSession interface {
	io.Reader
	Stop() error
}

// Microphone negotiates capture capability once with Setup and then
// starts capture sessions.
type Microphone interface {
	Setup(ctx context.Context) error
	Start(ctx context.Context) (AudioSession, error)
	// Config returns the audio format produced by Start
	Config() StreamingConfig
}
