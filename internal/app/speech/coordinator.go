// Package speech coordinates the mutually-exclusive states of a duplex audio
// device: microphone capture and speaker playback. Device event handlers are
// pure transition triggers feeding an explicit state machine; the device
// itself (browser or OS speech primitives) stays behind the Device interface.
package speech

import (
	"strings"
	"sync"
)

// State is the coordinator's current mode. Listening and Speaking are
// mutually exclusive; entering one force-cancels the other.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateSpeaking  State = "speaking"
)

// ErrorClass categorizes capture errors reported by the device.
type ErrorClass string

const (
	// ErrorNoSpeech is a benign silence timeout, fully suppressed.
	ErrorNoSpeech ErrorClass = "no-speech"
	// ErrorNetwork is recoverable and surfaces a warning.
	ErrorNetwork ErrorClass = "network"
	// ErrorOther covers everything else; surfaces a generic warning.
	ErrorOther ErrorClass = "other"
)

// Voice describes one entry in the device's voice catalog.
type Voice struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Locale  string `json:"locale"`
	Premium bool   `json:"premium"`
}

// Device is the opaque duplex audio device. Implementations forward commands
// to the real capture/playback primitives and feed results back through the
// coordinator's Handle* methods.
type Device interface {
	Supported() bool
	StartCapture() error
	StopCapture() error
	Speak(text string, voice *Voice) error
	CancelSpeech() error
}

// Callbacks lets the owner observe the coordinator. All callbacks are
// optional and invoked without the coordinator lock held.
type Callbacks struct {
	// OnPartial receives the best-effort concatenation of finalized and
	// in-progress transcript segments after each partial result.
	OnPartial func(transcript string)
	// OnWarning receives recoverable, user-visible warnings.
	OnWarning func(message string)
	// OnState receives every state transition.
	OnState func(state State)
}

// Coordinator owns the speech device singleton and its state machine.
type Coordinator struct {
	mu sync.Mutex

	device    Device
	state     State
	callbacks Callbacks

	finalized strings.Builder
	interim   string

	locale        string
	voice         *Voice
	voiceExplicit bool
}

// NewCoordinator builds a coordinator in the Idle state. locale guides
// default voice selection (for example "en-US").
func NewCoordinator(device Device, locale string, callbacks Callbacks) *Coordinator {
	return &Coordinator{
		device:    device,
		state:     StateIdle,
		locale:    locale,
		callbacks: callbacks,
	}
}

// Supported reports whether the device offers speech capability at all.
// Callers must be able to query this before invoking any operation.
func (c *Coordinator) Supported() bool {
	return c.device != nil && c.device.Supported()
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns the current finalized + in-progress concatenation.
func (c *Coordinator) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcriptLocked()
}

func (c *Coordinator) transcriptLocked() string {
	if c.interim == "" {
		return c.finalized.String()
	}
	return c.finalized.String() + c.interim
}

// StartListening begins streaming partial transcripts. A no-op when the
// device is unsupported. Entering Listening force-cancels any in-progress
// speech.
func (c *Coordinator) StartListening() error {
	if !c.Supported() {
		return nil
	}

	c.mu.Lock()
	if c.state == StateListening {
		c.mu.Unlock()
		return nil
	}
	if c.state == StateSpeaking {
		_ = c.device.CancelSpeech()
	}
	c.finalized.Reset()
	c.interim = ""
	c.state = StateListening
	notify := c.callbacks.OnState
	c.mu.Unlock()

	if notify != nil {
		notify(StateListening)
	}

	if err := c.device.StartCapture(); err != nil {
		c.toIdle()
		return err
	}
	return nil
}

// StopListening ends capture and returns the finalized transcript.
func (c *Coordinator) StopListening() string {
	c.mu.Lock()
	if c.state != StateListening {
		c.mu.Unlock()
		return ""
	}
	_ = c.device.StopCapture()
	transcript := c.transcriptLocked()
	c.finalized.Reset()
	c.interim = ""
	c.state = StateIdle
	notify := c.callbacks.OnState
	c.mu.Unlock()

	if notify != nil {
		notify(StateIdle)
	}
	return strings.TrimSpace(transcript)
}

// Speak plays text through the device, implicitly cancelling any in-progress
// listening along with its partial transcript state.
func (c *Coordinator) Speak(text string) error {
	if !c.Supported() {
		return nil
	}

	c.mu.Lock()
	if c.state == StateListening {
		_ = c.device.StopCapture()
	}
	if c.state == StateSpeaking {
		_ = c.device.CancelSpeech()
	}
	c.finalized.Reset()
	c.interim = ""
	c.state = StateSpeaking
	voice := c.voice
	notify := c.callbacks.OnState
	c.mu.Unlock()

	if notify != nil {
		notify(StateSpeaking)
	}

	if err := c.device.Speak(text, voice); err != nil {
		c.toIdle()
		return err
	}
	return nil
}

// StopSpeaking cancels playback.
func (c *Coordinator) StopSpeaking() {
	c.mu.Lock()
	if c.state != StateSpeaking {
		c.mu.Unlock()
		return
	}
	_ = c.device.CancelSpeech()
	c.mu.Unlock()
	c.toIdle()
}

// HandleResult is the device's transcript event. Finalized segments
// accumulate; an interim segment replaces the previous interim.
func (c *Coordinator) HandleResult(segment string, final bool) {
	c.mu.Lock()
	if c.state != StateListening {
		c.mu.Unlock()
		return
	}
	if final {
		c.finalized.WriteString(segment)
		if !strings.HasSuffix(segment, " ") {
			c.finalized.WriteString(" ")
		}
		c.interim = ""
	} else {
		c.interim = segment
	}
	transcript := c.transcriptLocked()
	notify := c.callbacks.OnPartial
	c.mu.Unlock()

	if notify != nil {
		notify(transcript)
	}
}

// HandleCaptureError is the device's capture failure event. A no-speech
// timeout is benign and silent; a network failure surfaces a recoverable
// warning; anything else surfaces a generic warning. All classes return the
// coordinator to Idle.
func (c *Coordinator) HandleCaptureError(class ErrorClass) {
	c.mu.Lock()
	if c.state != StateListening {
		c.mu.Unlock()
		return
	}
	c.finalized.Reset()
	c.interim = ""
	c.state = StateIdle
	warn := c.callbacks.OnWarning
	notifyState := c.callbacks.OnState
	c.mu.Unlock()

	if notifyState != nil {
		notifyState(StateIdle)
	}
	if warn == nil {
		return
	}
	switch class {
	case ErrorNoSpeech:
		// Benign silence timeout.
	case ErrorNetwork:
		warn("Speech recognition lost its connection. Please try again.")
	default:
		warn("Something went wrong with speech recognition.")
	}
}

// HandleCaptureEnd is the device's natural end-of-capture event.
func (c *Coordinator) HandleCaptureEnd() {
	c.mu.Lock()
	if c.state != StateListening {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	notify := c.callbacks.OnState
	c.mu.Unlock()

	if notify != nil {
		notify(StateIdle)
	}
}

// HandleSpeechEnd is the device's playback-complete event.
func (c *Coordinator) HandleSpeechEnd() {
	c.mu.Lock()
	if c.state != StateSpeaking {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	notify := c.callbacks.OnState
	c.mu.Unlock()

	if notify != nil {
		notify(StateIdle)
	}
}

// HandleVoices is the device's voice catalog event. The catalog may arrive
// well after initialization and may be empty at first. The first non-empty
// report auto-selects a default voice: a locale-matching premium voice when
// present, else a locale match, else the first entry. An explicit SetVoice
// always wins.
func (c *Coordinator) HandleVoices(voices []Voice) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.voiceExplicit || len(voices) == 0 {
		return
	}

	var localeMatch *Voice
	for i := range voices {
		v := voices[i]
		if !strings.EqualFold(v.Locale, c.locale) {
			continue
		}
		if v.Premium {
			c.voice = &v
			return
		}
		if localeMatch == nil {
			localeMatch = &v
		}
	}
	if localeMatch != nil {
		c.voice = localeMatch
		return
	}
	c.voice = &voices[0]
}

// SetVoice overrides the auto-selected voice.
func (c *Coordinator) SetVoice(voice Voice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voice = &voice
	c.voiceExplicit = true
}

// SelectedVoice returns the voice currently chosen for playback, if any.
func (c *Coordinator) SelectedVoice() *Voice {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.voice == nil {
		return nil
	}
	cp := *c.voice
	return &cp
}

func (c *Coordinator) toIdle() {
	c.mu.Lock()
	c.state = StateIdle
	notify := c.callbacks.OnState
	c.mu.Unlock()

	if notify != nil {
		notify(StateIdle)
	}
}
