package speech_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelia-care/aurelia/internal/app/speech"
)

type fakeDevice struct {
	supported bool

	startCaptureErr error
	speakErr        error

	captures       int
	stops          int
	speaks         int
	cancels        int
	lastSpokenText string
	lastVoice      *speech.Voice
}

func (d *fakeDevice) Supported() bool { return d.supported }

func (d *fakeDevice) StartCapture() error {
	d.captures++
	return d.startCaptureErr
}

func (d *fakeDevice) StopCapture() error {
	d.stops++
	return nil
}

func (d *fakeDevice) Speak(text string, voice *speech.Voice) error {
	d.speaks++
	d.lastSpokenText = text
	d.lastVoice = voice
	return d.speakErr
}

func (d *fakeDevice) CancelSpeech() error {
	d.cancels++
	return nil
}

type recorder struct {
	partials []string
	warnings []string
	states   []speech.State
}

func (r *recorder) callbacks() speech.Callbacks {
	return speech.Callbacks{
		OnPartial: func(s string) { r.partials = append(r.partials, s) },
		OnWarning: func(s string) { r.warnings = append(r.warnings, s) },
		OnState:   func(s speech.State) { r.states = append(r.states, s) },
	}
}

func newCoordinator(t *testing.T) (*speech.Coordinator, *fakeDevice, *recorder) {
	t.Helper()
	device := &fakeDevice{supported: true}
	rec := &recorder{}
	return speech.NewCoordinator(device, "en-US", rec.callbacks()), device, rec
}

func TestUnsupportedDeviceIsANoOp(t *testing.T) {
	device := &fakeDevice{supported: false}
	c := speech.NewCoordinator(device, "en-US", speech.Callbacks{})

	require.NoError(t, c.StartListening())
	require.NoError(t, c.Speak("hello"))

	assert.Equal(t, speech.StateIdle, c.State())
	assert.Zero(t, device.captures)
	assert.Zero(t, device.speaks)
}

func TestStartListeningTransitionsAndCaptures(t *testing.T) {
	c, device, rec := newCoordinator(t)

	require.NoError(t, c.StartListening())

	assert.Equal(t, speech.StateListening, c.State())
	assert.Equal(t, 1, device.captures)
	assert.Equal(t, []speech.State{speech.StateListening}, rec.states)
}

func TestStartListeningWhileSpeakingCancelsPlayback(t *testing.T) {
	c, device, _ := newCoordinator(t)

	require.NoError(t, c.Speak("hello"))
	require.NoError(t, c.StartListening())

	assert.Equal(t, speech.StateListening, c.State())
	assert.Equal(t, 1, device.cancels)
}

func TestSpeakWhileListeningDiscardsTranscript(t *testing.T) {
	c, device, _ := newCoordinator(t)

	require.NoError(t, c.StartListening())
	c.HandleResult("tell me about", false)
	require.NoError(t, c.Speak("my reply"))

	assert.Equal(t, speech.StateSpeaking, c.State())
	assert.Equal(t, 1, device.stops)
	assert.Equal(t, "my reply", device.lastSpokenText)
	assert.Empty(t, c.Transcript())
}

func TestTranscriptAccumulatesFinalsAndReplacesInterim(t *testing.T) {
	c, _, rec := newCoordinator(t)
	require.NoError(t, c.StartListening())

	c.HandleResult("I had a", false)
	c.HandleResult("I had a rough day", true)
	c.HandleResult("at wo", false)
	c.HandleResult("at work", true)

	assert.Equal(t, "I had a rough day at work ", c.Transcript())
	require.Len(t, rec.partials, 4)
	assert.Equal(t, "I had a", rec.partials[0])
	assert.Equal(t, "I had a rough day at wo", rec.partials[2])
}

func TestStopListeningReturnsTrimmedTranscript(t *testing.T) {
	c, device, _ := newCoordinator(t)
	require.NoError(t, c.StartListening())

	c.HandleResult("I had a rough day", true)
	got := c.StopListening()

	assert.Equal(t, "I had a rough day", got)
	assert.Equal(t, 1, device.stops)
	assert.Equal(t, speech.StateIdle, c.State())
	// Transcript state is consumed by StopListening.
	assert.Empty(t, c.Transcript())
}

func TestStartListeningResetsPreviousTranscript(t *testing.T) {
	c, _, _ := newCoordinator(t)

	require.NoError(t, c.StartListening())
	c.HandleResult("first session", true)
	c.StopListening()

	require.NoError(t, c.StartListening())
	assert.Empty(t, c.Transcript())
}

func TestNoSpeechErrorIsSilent(t *testing.T) {
	c, _, rec := newCoordinator(t)
	require.NoError(t, c.StartListening())

	c.HandleCaptureError(speech.ErrorNoSpeech)

	assert.Equal(t, speech.StateIdle, c.State())
	assert.Empty(t, rec.warnings)
}

func TestNetworkErrorWarns(t *testing.T) {
	c, _, rec := newCoordinator(t)
	require.NoError(t, c.StartListening())

	c.HandleCaptureError(speech.ErrorNetwork)

	assert.Equal(t, speech.StateIdle, c.State())
	require.Len(t, rec.warnings, 1)
	assert.Contains(t, rec.warnings[0], "connection")
}

func TestOtherErrorWarnsGenerically(t *testing.T) {
	c, _, rec := newCoordinator(t)
	require.NoError(t, c.StartListening())

	c.HandleCaptureError(speech.ErrorOther)

	require.Len(t, rec.warnings, 1)
	assert.Contains(t, rec.warnings[0], "went wrong")
}

func TestCaptureErrorWhileIdleIsIgnored(t *testing.T) {
	c, _, rec := newCoordinator(t)

	c.HandleCaptureError(speech.ErrorNetwork)

	assert.Empty(t, rec.warnings)
	assert.Empty(t, rec.states)
}

func TestCaptureEndAndSpeechEndReturnToIdle(t *testing.T) {
	c, _, _ := newCoordinator(t)

	require.NoError(t, c.StartListening())
	c.HandleCaptureEnd()
	assert.Equal(t, speech.StateIdle, c.State())

	require.NoError(t, c.Speak("hello"))
	c.HandleSpeechEnd()
	assert.Equal(t, speech.StateIdle, c.State())
}

func TestStartCaptureFailureReturnsToIdle(t *testing.T) {
	device := &fakeDevice{supported: true, startCaptureErr: errors.New("mic busy")}
	c := speech.NewCoordinator(device, "en-US", speech.Callbacks{})

	err := c.StartListening()

	assert.Error(t, err)
	assert.Equal(t, speech.StateIdle, c.State())
}

func TestVoiceAutoSelectionPrefersPremiumLocaleMatch(t *testing.T) {
	c, _, _ := newCoordinator(t)

	c.HandleVoices([]speech.Voice{
		{ID: "de", Locale: "de-DE", Premium: true},
		{ID: "en-basic", Locale: "en-US"},
		{ID: "en-premium", Locale: "en-US", Premium: true},
	})

	require.NotNil(t, c.SelectedVoice())
	assert.Equal(t, "en-premium", c.SelectedVoice().ID)
}

func TestVoiceAutoSelectionFallsBackToLocaleThenFirst(t *testing.T) {
	c, _, _ := newCoordinator(t)
	c.HandleVoices([]speech.Voice{
		{ID: "de", Locale: "de-DE"},
		{ID: "en-basic", Locale: "en-US"},
	})
	assert.Equal(t, "en-basic", c.SelectedVoice().ID)

	c2 := speech.NewCoordinator(&fakeDevice{supported: true}, "en-US", speech.Callbacks{})
	c2.HandleVoices([]speech.Voice{
		{ID: "fr", Locale: "fr-FR"},
		{ID: "de", Locale: "de-DE"},
	})
	assert.Equal(t, "fr", c2.SelectedVoice().ID)
}

func TestVoiceCatalogMayArriveLateAndEmpty(t *testing.T) {
	c, _, _ := newCoordinator(t)

	c.HandleVoices(nil)
	assert.Nil(t, c.SelectedVoice())

	c.HandleVoices([]speech.Voice{{ID: "en", Locale: "en-US"}})
	assert.Equal(t, "en", c.SelectedVoice().ID)
}

func TestExplicitVoiceSelectionWins(t *testing.T) {
	c, device, _ := newCoordinator(t)

	c.SetVoice(speech.Voice{ID: "chosen", Locale: "en-GB"})
	c.HandleVoices([]speech.Voice{
		{ID: "en-premium", Locale: "en-US", Premium: true},
	})

	assert.Equal(t, "chosen", c.SelectedVoice().ID)

	require.NoError(t, c.Speak("hello"))
	require.NotNil(t, device.lastVoice)
	assert.Equal(t, "chosen", device.lastVoice.ID)
}
