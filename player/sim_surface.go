package player

import (
	"errors"
	"math"
	"time"

	"dinoplay/models"
)

const (
	timeUpdateInterval = 250 * time.Millisecond
	metadataDelay      = 50 * time.Millisecond
)

var errSurfaceClosed = errors.New("surface closed")

// SimSurface is a headless playback engine. It advances its position in
// wall-clock time and emits the same events a browser media element does
type SimSurface struct {
	sched    Scheduler
	src      string
	total    float64
	metadata bool

	paused   bool
	position float64
	since    time.Time
	closed   bool

	stopTick func()
	tickGen  uint64
	stopMeta func()
	hub      eventHub
}

// NewSimSurfaceFactory returns a factory of SimSurfaces driven by sched
func NewSimSurfaceFactory(sched Scheduler) SurfaceFactory {
	return func(video models.Video) Surface {
		return NewSimSurface(sched, video.VideoURL, video.Duration)
	}
}

// NewSimSurface creates a paused surface for src. Metadata becomes available
// shortly after creation
func NewSimSurface(sched Scheduler, src string, duration float64) *SimSurface {
	if duration < 0 || math.IsNaN(duration) {
		duration = 0
	}
	s := &SimSurface{
		sched:  sched,
		src:    src,
		total:  duration,
		paused: true,
	}
	s.stopMeta = sched.AfterFunc(metadataDelay, s.loadMetadata)
	return s
}

func (s *SimSurface) loadMetadata() {
	if s.closed || s.metadata {
		return
	}
	s.metadata = true
	s.hub.emit(MediaLoadedMetadata)
}

func (s *SimSurface) Source() string { return s.src }

func (s *SimSurface) Play() error {
	if s.closed {
		return errSurfaceClosed
	}
	if !s.paused {
		return nil
	}
	if s.metadata && s.position >= s.total {
		s.position = 0
	}
	s.paused = false
	s.since = s.sched.Now()
	s.scheduleTick()
	return nil
}

func (s *SimSurface) Pause() {
	if s.closed || s.paused {
		return
	}
	s.position = s.CurrentTime()
	s.paused = true
	s.cancelTick()
}

func (s *SimSurface) Paused() bool { return s.paused }

func (s *SimSurface) CurrentTime() float64 {
	if s.paused {
		return s.position
	}
	elapsed := s.sched.Now().Sub(s.since).Seconds()
	return math.Min(s.position+elapsed, s.total)
}

func (s *SimSurface) SetCurrentTime(seconds float64) {
	if s.closed {
		return
	}
	s.position = math.Max(0, math.Min(seconds, s.total))
	s.since = s.sched.Now()
}

func (s *SimSurface) Duration() float64 {
	if !s.metadata {
		return 0
	}
	return s.total
}

func (s *SimSurface) On(ev MediaEvent, fn func()) func() {
	return s.hub.on(ev, fn)
}

// Close stops playback and drops all subscriptions
func (s *SimSurface) Close() {
	if s.closed {
		return
	}
	s.Pause()
	s.closed = true
	s.cancelTick()
	if s.stopMeta != nil {
		s.stopMeta()
		s.stopMeta = nil
	}
	s.hub.clear()
}

func (s *SimSurface) scheduleTick() {
	s.cancelTick()
	gen := s.tickGen
	s.stopTick = s.sched.AfterFunc(timeUpdateInterval, func() { s.tick(gen) })
}

func (s *SimSurface) cancelTick() {
	s.tickGen++
	if s.stopTick != nil {
		s.stopTick()
		s.stopTick = nil
	}
}

func (s *SimSurface) tick(gen uint64) {
	if gen != s.tickGen {
		return
	}
	s.stopTick = nil
	if s.closed || s.paused {
		return
	}
	s.position = s.CurrentTime()
	s.since = s.sched.Now()
	s.hub.emit(MediaTimeUpdate)
	if s.closed || s.paused {
		return
	}
	if s.metadata && s.position >= s.total {
		s.position = s.total
		s.paused = true
		s.hub.emit(MediaEnded)
		return
	}
	s.scheduleTick()
}
