// Package speechws bridges the browser's speech primitives to the speech
// coordinator over a WebSocket. The browser side owns the actual microphone
// and speaker; frames carry device events up and device commands down, so the
// coordinator's state machine stays on the server.
package speechws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/aurelia-care/aurelia/internal/app/speech"
	"github.com/aurelia-care/aurelia/internal/observability"
)

// frame is the single message shape in both directions. Type decides which
// fields are meaningful.
type frame struct {
	Type string `json:"type"`

	// Events from the client device.
	Supported bool           `json:"supported,omitempty"`
	Text      string         `json:"text,omitempty"`
	Final     bool           `json:"final,omitempty"`
	Class     string         `json:"class,omitempty"`
	Voices    []speech.Voice `json:"voices,omitempty"`

	// Commands and notifications to the client.
	Voice      *speech.Voice `json:"voice,omitempty"`
	State      string        `json:"state,omitempty"`
	Transcript string        `json:"transcript,omitempty"`
	Message    string        `json:"message,omitempty"`
}

// Client frame types. Events mirror the browser SpeechRecognition /
// speechSynthesis callbacks; intents are the user's actions.
const (
	evSupported   = "supported"
	evResult      = "result"
	evError       = "capture_error"
	evCaptureEnd  = "capture_end"
	evSpeechEnd   = "speech_end"
	evVoices      = "voices"
	inStartListen = "start_listening"
	inStopListen  = "stop_listening"
	inSpeak       = "speak"
	inStopSpeak   = "stop_speaking"
	inSetVoice    = "set_voice"
)

// Server frame types.
const (
	cmdStartCapture = "start_capture"
	cmdStopCapture  = "stop_capture"
	cmdSpeak        = "speak"
	cmdCancelSpeech = "cancel_speech"
	outPartial      = "partial"
	outWarning      = "warning"
	outState        = "state"
	outTranscript   = "transcript"
)

// wsDevice implements speech.Device by forwarding commands to the client.
type wsDevice struct {
	conn *websocket.Conn
	ctx  context.Context

	mu        sync.Mutex
	supported bool
}

func (d *wsDevice) setSupported(v bool) {
	d.mu.Lock()
	d.supported = v
	d.mu.Unlock()
}

func (d *wsDevice) Supported() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.supported
}

func (d *wsDevice) send(f frame) error {
	return wsjson.Write(d.ctx, d.conn, f)
}

func (d *wsDevice) StartCapture() error {
	return d.send(frame{Type: cmdStartCapture})
}

func (d *wsDevice) StopCapture() error {
	return d.send(frame{Type: cmdStopCapture})
}

func (d *wsDevice) Speak(text string, voice *speech.Voice) error {
	return d.send(frame{Type: cmdSpeak, Text: text, Voice: voice})
}

func (d *wsDevice) CancelSpeech() error {
	return d.send(frame{Type: cmdCancelSpeech})
}

// Handler upgrades speech bridge connections.
type Handler struct {
	defaultLocale string
}

func NewHandler(defaultLocale string) *Handler {
	if defaultLocale == "" {
		defaultLocale = "en-US"
	}
	return &Handler{defaultLocale: defaultLocale}
}

// ServeHTTP runs one bridge session. Device errors never close the socket;
// only a read failure (client gone) ends the session.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := observability.LoggerFromContext(r.Context())

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Error("speech bridge accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "session ended")

	ctx := r.Context()

	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = h.defaultLocale
	}

	device := &wsDevice{conn: conn, ctx: ctx}
	coordinator := speech.NewCoordinator(device, locale, speech.Callbacks{
		OnPartial: func(transcript string) {
			_ = device.send(frame{Type: outPartial, Transcript: transcript})
		},
		OnWarning: func(message string) {
			_ = device.send(frame{Type: outWarning, Message: message})
		},
		OnState: func(state speech.State) {
			_ = device.send(frame{Type: outState, State: string(state)})
		},
	})

	log.Info("speech bridge connected", "locale", locale)

	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			var closeErr websocket.CloseError
			if !errors.As(err, &closeErr) && ctx.Err() == nil {
				log.Debug("speech bridge read ended", "error", err)
			}
			return
		}
		h.dispatch(coordinator, device, f, log)
	}
}

func (h *Handler) dispatch(c *speech.Coordinator, device *wsDevice, f frame, log *slog.Logger) {
	switch f.Type {
	case evSupported:
		device.setSupported(f.Supported)
	case evResult:
		c.HandleResult(f.Text, f.Final)
	case evError:
		c.HandleCaptureError(parseErrorClass(f.Class))
	case evCaptureEnd:
		c.HandleCaptureEnd()
	case evSpeechEnd:
		c.HandleSpeechEnd()
	case evVoices:
		c.HandleVoices(f.Voices)
	case inStartListen:
		if err := c.StartListening(); err != nil {
			log.Warn("start listening failed", "error", err)
		}
	case inStopListen:
		transcript := c.StopListening()
		_ = device.send(frame{Type: outTranscript, Transcript: transcript})
	case inSpeak:
		if err := c.Speak(f.Text); err != nil {
			log.Warn("speak failed", "error", err)
		}
	case inStopSpeak:
		c.StopSpeaking()
	case inSetVoice:
		if f.Voice != nil {
			c.SetVoice(*f.Voice)
		}
	default:
		log.Warn("unknown speech frame", "type", f.Type)
	}
}

func parseErrorClass(class string) speech.ErrorClass {
	switch speech.ErrorClass(class) {
	case speech.ErrorNoSpeech, speech.ErrorNetwork:
		return speech.ErrorClass(class)
	default:
		return speech.ErrorOther
	}
}
