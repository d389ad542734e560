package types

// CaptureState is the state of a transcript capture session.
type CaptureState string

const (
	CaptureStateIdle       CaptureState = "idle"
	CaptureStateConnecting CaptureState = "connecting"
	CaptureStateRecording  CaptureState = "recording"
)

func (s CaptureState) String() string {
	return string(s)
}

// CaptureReason explains a capture state change to the UI.
type CaptureReason string

const (
	CaptureReasonStartRequested CaptureReason = "start_requested"
	CaptureReasonStreamOpened   CaptureReason = "stream_opened"
	CaptureReasonStopRequested  CaptureReason = "stop_requested"
	CaptureReasonCommitted      CaptureReason = "committed"
	CaptureReasonFailed         CaptureReason = "failed"
)

// CaptureErrorCode classifies a capture failure surfaced to the user.
type CaptureErrorCode string

const (
	CaptureErrorMicrophone  CaptureErrorCode = "microphone"
	CaptureErrorStreamOpen  CaptureErrorCode = "stream_open"
	CaptureErrorTransport   CaptureErrorCode = "transport"
	CaptureErrorAudioStream CaptureErrorCode = "audio_stream"
)
