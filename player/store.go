package player

import (
	"math/rand"

	"github.com/rs/zerolog"

	"dinoplay/logging"
	"dinoplay/metrics"
	"dinoplay/models"
)

// Mode is the presentation of an open session
type Mode int

const (
	ModeFull Mode = iota
	ModeMini
)

func (m Mode) String() string {
	if m == ModeMini {
		return "mini"
	}
	return "full"
}

// StoreEvent describes what a store mutation changed
type StoreEvent int

const (
	EventVideoChanged StoreEvent = iota
	EventModeChanged
	EventPlayStateChanged
	EventCatalogChanged
	EventClosed
)

func (e StoreEvent) String() string {
	switch e {
	case EventVideoChanged:
		return "video_changed"
	case EventModeChanged:
		return "mode_changed"
	case EventPlayStateChanged:
		return "play_state_changed"
	case EventCatalogChanged:
		return "catalog_changed"
	case EventClosed:
		return "session_closed"
	default:
		return "unknown"
	}
}

// Store is the playback session: the bound video, whether it plays, and how
// it is presented. It is the only writer of the surface's play state
type Store struct {
	binding      *Binding
	current      *models.Video
	playing      bool
	mode         Mode
	catalog      []models.Video
	related      []models.Video
	relatedLimit int
	rng          *rand.Rand
	subs         observers[StoreEvent]
	log          zerolog.Logger
}

// NewStore creates an empty session bound through binding. rng drives the
// related-video shuffle
func NewStore(binding *Binding, rng *rand.Rand, relatedLimit int) *Store {
	if relatedLimit <= 0 {
		relatedLimit = 5
	}
	s := &Store{
		binding:      binding,
		relatedLimit: relatedLimit,
		rng:          rng,
		log:          logging.WithComponent("store"),
	}
	binding.Register(func(surface Surface) func() {
		return surface.On(MediaEnded, func() {
			if s.playing {
				s.playing = false
				s.emit(EventPlayStateChanged)
			}
		})
	})
	return s
}

// Subscribe registers fn for every store event
func (s *Store) Subscribe(fn func(StoreEvent)) (unsubscribe func()) {
	return s.subs.add(fn)
}

// PlayVideo makes video the current one, playing, in full mode. It always
// overwrites; a different identity remounts the surface
func (s *Store) PlayVideo(video models.Video) {
	modeChanged := s.current != nil && s.mode != ModeFull
	v := video
	s.current = &v
	s.playing = true
	s.mode = ModeFull

	if !s.binding.Bind(video) {
		s.binding.Resume()
	}
	s.recomputeRelated()
	s.log.Info().Str("video_id", video.ID).Str("title", video.Title).Msg("PlayVideo")

	s.emit(EventVideoChanged)
	if modeChanged {
		metrics.ModeTransitionsTotal.WithLabelValues(ModeFull.String()).Inc()
		s.emit(EventModeChanged)
	}
}

// TogglePlay plays or pauses according to the surface's own paused flag.
// No-op without a bound surface
func (s *Store) TogglePlay() {
	surface := s.binding.Surface()
	if surface == nil {
		return
	}
	if surface.Paused() {
		if err := surface.Play(); err != nil {
			s.log.Warn().Err(err).Msg("TogglePlay: play failed")
			return
		}
		s.playing = true
	} else {
		surface.Pause()
		s.playing = false
	}
	s.emit(EventPlayStateChanged)
}

// Minimize switches an open session to the mini player
func (s *Store) Minimize() {
	if s.current == nil || s.mode == ModeMini {
		return
	}
	s.mode = ModeMini
	metrics.ModeTransitionsTotal.WithLabelValues(ModeMini.String()).Inc()
	s.emit(EventModeChanged)
}

// Maximize switches an open session to the full player
func (s *Store) Maximize() {
	if s.current == nil || s.mode == ModeFull {
		return
	}
	s.mode = ModeFull
	metrics.ModeTransitionsTotal.WithLabelValues(ModeFull.String()).Inc()
	s.emit(EventModeChanged)
}

// CloseMiniPlayer stops playback and empties the session
func (s *Store) CloseMiniPlayer() {
	if surface := s.binding.Surface(); surface != nil {
		surface.Pause()
	}
	s.binding.Unbind()
	s.current = nil
	s.playing = false
	s.mode = ModeFull
	s.related = nil
	s.log.Info().Msg("session closed")
	s.emit(EventClosed)
}

// SetCatalog replaces the listing the related videos are drawn from
func (s *Store) SetCatalog(videos []models.Video) {
	s.catalog = append([]models.Video(nil), videos...)
	s.recomputeRelated()
	s.emit(EventCatalogChanged)
}

// Catalog returns a copy of the listing
func (s *Store) Catalog() []models.Video {
	return append([]models.Video(nil), s.catalog...)
}

// Find returns the catalog entry with id
func (s *Store) Find(id string) (models.Video, bool) {
	for _, v := range s.catalog {
		if v.ID == id {
			return v, true
		}
	}
	return models.Video{}, false
}

// Current returns a copy of the current video, or nil when closed
func (s *Store) Current() *models.Video {
	if s.current == nil {
		return nil
	}
	v := *s.current
	return &v
}

// Closed reports whether there is no current video
func (s *Store) Closed() bool { return s.current == nil }

// IsPlaying mirrors the surface's play state
func (s *Store) IsPlaying() bool { return s.playing }

// Mode returns the presentation mode. Meaningless when closed
func (s *Store) Mode() Mode { return s.mode }

// Related returns the current related candidates. The order changes every
// time they are recomputed
func (s *Store) Related() []models.Video {
	return append([]models.Video(nil), s.related...)
}

// NextCandidate returns the first related video, or nil
func (s *Store) NextCandidate() *models.Video {
	if len(s.related) == 0 {
		return nil
	}
	v := s.related[0]
	return &v
}

func (s *Store) recomputeRelated() {
	if s.current == nil || len(s.catalog) == 0 {
		s.related = nil
		return
	}
	others := make([]models.Video, 0, len(s.catalog))
	for _, v := range s.catalog {
		if v.ID != s.current.ID {
			others = append(others, v)
		}
	}
	for i := len(others) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		others[i], others[j] = others[j], others[i]
	}
	if len(others) > s.relatedLimit {
		others = others[:s.relatedLimit]
	}
	s.related = others
}

func (s *Store) emit(ev StoreEvent) {
	s.subs.emit(ev)
}
