package player

import (
	"github.com/rs/zerolog"

	"dinoplay/logging"
	"dinoplay/models"
	"dinoplay/utils"
)

// Shell composes the full and mini layouts around the one bound surface. It
// owns the drag-to-minimize gesture and the autoplay countdown
type Shell struct {
	store     *Store
	binding   *Binding
	transport *Transport
	countdown *Countdown
	threshold float64

	dragging   bool
	dragOffset float64
	gestureEnd observers[struct{}]

	unsubscribe func()
	unregister  func()
	log         zerolog.Logger
}

// NewShell wires the shell to store and binding. advance is invoked when the
// countdown runs out
func NewShell(store *Store, binding *Binding, transport *Transport, sched Scheduler, threshold float64, countdownSeconds int, advance func(models.Video)) *Shell {
	if threshold < 0 {
		threshold = 0
	}
	s := &Shell{
		store:     store,
		binding:   binding,
		transport: transport,
		threshold: threshold,
		log:       logging.WithComponent("shell"),
	}
	s.countdown = NewCountdown(sched, countdownSeconds, advance)
	s.unregister = binding.Register(func(surface Surface) func() {
		return surface.On(MediaEnded, s.onEnded)
	})
	s.unsubscribe = store.Subscribe(func(ev StoreEvent) {
		switch ev {
		case EventVideoChanged:
			s.countdown.Reset()
		case EventClosed:
			s.countdown.Reset()
			s.dragging = false
			s.dragOffset = 0
		}
	})
	return s
}

func (s *Shell) onEnded() {
	next := s.store.NextCandidate()
	if next == nil {
		s.log.Debug().Msg("playback ended, nothing up next")
		return
	}
	s.countdown.Start(*next)
}

// Countdown returns the autoplay countdown
func (s *Shell) Countdown() *Countdown { return s.countdown }

// OnGestureEnd registers fn to run when a drag gesture finishes, whatever its
// outcome
func (s *Shell) OnGestureEnd(fn func()) (off func()) {
	return s.gestureEnd.add(func(struct{}) { fn() })
}

// Dragging reports whether a drag gesture is in progress
func (s *Shell) Dragging() bool { return s.dragging }

// DragStart begins a vertical drag of the full player
func (s *Shell) DragStart() {
	if s.store.Closed() || s.store.Mode() != ModeFull {
		return
	}
	s.dragging = true
	s.dragOffset = 0
}

// DragMove records the current vertical offset of the gesture
func (s *Shell) DragMove(dy float64) {
	if !s.dragging {
		return
	}
	s.dragOffset = dy
}

// DragEnd releases the gesture. A downward offset beyond the threshold
// minimizes; anything else snaps back
func (s *Shell) DragEnd(dy float64) {
	if !s.dragging {
		return
	}
	s.dragging = false
	s.dragOffset = 0
	if dy > s.threshold {
		s.log.Debug().Float64("dy", dy).Msg("drag past threshold, minimizing")
		s.store.Minimize()
	}
	s.gestureEnd.emit(struct{}{})
}

// Click handles a tap on the mini player card
func (s *Shell) Click() {
	if s.store.Closed() || s.store.Mode() != ModeMini {
		return
	}
	s.store.Maximize()
}

// Collapse handles the chevron button of the full player
func (s *Shell) Collapse() {
	s.store.Minimize()
}

// CancelCountdown dismisses the autoplay overlay
func (s *Shell) CancelCountdown() {
	s.countdown.Cancel()
}

// Render returns the current layout at location
func (s *Shell) Render(location string) models.PlayerSnapshot {
	snap := models.PlayerSnapshot{
		Mode:      "closed",
		IsPlaying: s.store.IsPlaying(),
		Location:  location,
	}
	video := s.store.Current()
	if video == nil {
		return snap
	}
	snap.Mode = s.store.Mode().String()
	if s.store.Mode() == ModeMini {
		snap.Mini = &models.MiniPlayerView{
			VideoID: video.ID,
			Title:   video.Title,
			Channel: video.Channel,
		}
		return snap
	}
	related := s.store.Related()
	if related == nil {
		related = []models.Video{}
	}
	snap.Full = &models.FullPlayerView{
		Video:         *video,
		DurationLabel: utils.FormatDuration(video.Duration),
		Related:       related,
		Transport:     s.transport.View(),
		Countdown:     s.countdown.View(),
		DragOffset:    s.dragOffset,
	}
	return snap
}

// Close detaches the shell and hides the countdown
func (s *Shell) Close() {
	s.countdown.Reset()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.unregister != nil {
		s.unregister()
		s.unregister = nil
	}
}
