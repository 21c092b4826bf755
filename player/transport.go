package player

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"dinoplay/logging"
	"dinoplay/models"
	"dinoplay/utils"
)

const skipGlyphDuration = 600 * time.Millisecond

// Track is the horizontal extent of the scrub bar in view coordinates
type Track struct {
	Left  float64
	Width float64
}

// Fraction maps a pointer x coordinate to a position in [0, 1]
func (t Track) Fraction(x float64) float64 {
	if t.Width <= 0 || math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, (x-t.Left)/t.Width))
}

// ClampPosition limits position to [0, duration]
func ClampPosition(position, duration float64) float64 {
	if math.IsNaN(position) || position < 0 {
		return 0
	}
	if duration < 0 || math.IsNaN(duration) {
		duration = 0
	}
	return math.Min(position, duration)
}

// Transport is the set of playback controls shown in the full player. It
// follows the bound surface's position except while the scrub handle is held
type Transport struct {
	store       *Store
	binding     *Binding
	display     Display
	sched       Scheduler
	skipSeconds float64

	position float64
	duration float64
	dragging bool
	track    Track

	glyph     string
	glyphGen  uint64
	stopGlyph func()

	fullscreen bool
	offDisplay func()
	unregister func()
	log        zerolog.Logger
}

// NewTransport creates the controls and subscribes them to every surface bound
// through binding and to display's fullscreen changes
func NewTransport(store *Store, binding *Binding, display Display, sched Scheduler, skipSeconds float64) *Transport {
	if skipSeconds <= 0 {
		skipSeconds = 10
	}
	t := &Transport{
		store:       store,
		binding:     binding,
		display:     display,
		sched:       sched,
		skipSeconds: skipSeconds,
		fullscreen:  display.IsFullscreen(),
		log:         logging.WithComponent("transport"),
	}
	t.unregister = binding.Register(t.attach)
	t.offDisplay = display.OnFullscreenChange(func() {
		t.fullscreen = display.IsFullscreen()
	})
	return t
}

func (t *Transport) attach(s Surface) func() {
	t.position = s.CurrentTime()
	t.duration = s.Duration()
	t.dragging = false
	offTime := s.On(MediaTimeUpdate, func() {
		if !t.dragging {
			t.position = s.CurrentTime()
		}
	})
	offMeta := s.On(MediaLoadedMetadata, func() {
		t.duration = s.Duration()
	})
	return func() {
		offTime()
		offMeta()
		t.dragging = false
		t.position = 0
		t.duration = 0
	}
}

// Skip moves the playhead by delta seconds within [0, duration] and shows a
// transient "+N" or "-N" glyph
func (t *Transport) Skip(delta float64) {
	s := t.surface()
	if s == nil {
		return
	}
	pos := ClampPosition(s.CurrentTime()+delta, s.Duration())
	s.SetCurrentTime(pos)
	t.position = pos
	t.showGlyph(delta)
}

// SeekStart grabs the scrub handle at x on track and seeks immediately
func (t *Transport) SeekStart(x float64, track Track) {
	if t.surface() == nil {
		return
	}
	t.dragging = true
	t.track = track
	t.seek(x)
}

// SeekMove follows the pointer while the handle is held
func (t *Transport) SeekMove(x float64) {
	if !t.dragging || t.surface() == nil {
		return
	}
	t.seek(x)
}

// SeekEnd releases the handle; the position follows playback again
func (t *Transport) SeekEnd() {
	t.dragging = false
}

// ToggleFullscreen asks the display to enter or leave fullscreen. The
// fullscreen flag only changes when the display reports the change
func (t *Transport) ToggleFullscreen(ctx context.Context) error {
	if t.surface() == nil {
		return nil
	}
	var err error
	if t.display.IsFullscreen() {
		err = t.display.ExitFullscreen(ctx)
	} else {
		err = t.display.RequestFullscreen(ctx)
	}
	if err != nil {
		t.log.Error().Err(err).Msg("Fullscreen error")
	}
	return err
}

// Position is the displayed playhead in seconds
func (t *Transport) Position() float64 { return t.position }

// Duration is the displayed total length in seconds
func (t *Transport) Duration() float64 { return t.duration }

// Dragging reports whether the scrub handle is held
func (t *Transport) Dragging() bool { return t.dragging }

// Fullscreen mirrors the last reported fullscreen state
func (t *Transport) Fullscreen() bool { return t.fullscreen }

// Glyph is the skip feedback currently shown, or ""
func (t *Transport) Glyph() string { return t.glyph }

// Progress is the playhead as a percentage of the duration
func (t *Transport) Progress() float64 {
	if t.duration <= 0 {
		return 0
	}
	return t.position / t.duration * 100
}

// View renders the controls
func (t *Transport) View() models.TransportView {
	return models.TransportView{
		CurrentTime:  t.position,
		Duration:     t.duration,
		Progress:     t.Progress(),
		TimeLabel:    utils.FormatDuration(t.position) + " / " + utils.FormatDuration(t.duration),
		Dragging:     t.dragging,
		SkipFeedback: t.glyph,
		SkipStep:     t.skipSeconds,
		Fullscreen:   t.fullscreen,
	}
}

// Close detaches the controls from the binding and the display
func (t *Transport) Close() {
	t.hideGlyph()
	if t.unregister != nil {
		t.unregister()
		t.unregister = nil
	}
	if t.offDisplay != nil {
		t.offDisplay()
		t.offDisplay = nil
	}
}

// surface returns the bound surface when the controls are visible
func (t *Transport) surface() Surface {
	if t.store.Closed() || t.store.Mode() != ModeFull {
		return nil
	}
	return t.binding.Surface()
}

func (t *Transport) seek(x float64) {
	s := t.binding.Surface()
	pos := t.track.Fraction(x) * s.Duration()
	t.position = pos
	s.SetCurrentTime(pos)
}

func (t *Transport) showGlyph(delta float64) {
	t.hideGlyph()
	sign := "+"
	if delta < 0 {
		sign = "-"
	}
	t.glyph = sign + strconv.FormatFloat(math.Abs(delta), 'f', -1, 64)
	gen := t.glyphGen
	t.stopGlyph = t.sched.AfterFunc(skipGlyphDuration, func() {
		if gen == t.glyphGen {
			t.glyph = ""
			t.stopGlyph = nil
		}
	})
}

func (t *Transport) hideGlyph() {
	t.glyphGen++
	t.glyph = ""
	if t.stopGlyph != nil {
		t.stopGlyph()
		t.stopGlyph = nil
	}
}
