package player

import (
	"dinoplay/models"
)

// MediaEvent is a native playback event emitted by a Surface
type MediaEvent int

const (
	MediaEnded MediaEvent = iota
	MediaTimeUpdate
	MediaLoadedMetadata
)

func (e MediaEvent) String() string {
	switch e {
	case MediaEnded:
		return "ended"
	case MediaTimeUpdate:
		return "timeupdate"
	case MediaLoadedMetadata:
		return "loadedmetadata"
	default:
		return "unknown"
	}
}

// Surface is one mounted media element. A surface plays exactly one source
// for its whole life; switching videos means closing it and creating a new one
type Surface interface {
	Source() string
	Play() error
	Pause()
	Paused() bool
	CurrentTime() float64
	SetCurrentTime(seconds float64)
	// Duration is 0 until metadata has loaded
	Duration() float64
	// On subscribes fn to ev. The returned func removes the subscription
	On(ev MediaEvent, fn func()) (off func())
	Close()
}

// SurfaceFactory creates a fresh surface for video
type SurfaceFactory func(video models.Video) Surface

// handlerSet is an ordered set of callbacks with removable entries
type handlerSet struct {
	next  int
	order []int
	fns   map[int]func()
}

func (h *handlerSet) add(fn func()) func() {
	if h.fns == nil {
		h.fns = make(map[int]func())
	}
	id := h.next
	h.next++
	h.fns[id] = fn
	h.order = append(h.order, id)
	return func() {
		if _, ok := h.fns[id]; !ok {
			return
		}
		delete(h.fns, id)
		for i, v := range h.order {
			if v == id {
				h.order = append(h.order[:i], h.order[i+1:]...)
				break
			}
		}
	}
}

func (h *handlerSet) emit() {
	ids := append([]int(nil), h.order...)
	for _, id := range ids {
		if fn, ok := h.fns[id]; ok {
			fn()
		}
	}
}

func (h *handlerSet) len() int {
	return len(h.fns)
}

func (h *handlerSet) clear() {
	h.fns = nil
	h.order = nil
}

// eventHub keeps one handlerSet per media event
type eventHub struct {
	sets map[MediaEvent]*handlerSet
}

func (e *eventHub) on(ev MediaEvent, fn func()) func() {
	if e.sets == nil {
		e.sets = make(map[MediaEvent]*handlerSet)
	}
	set, ok := e.sets[ev]
	if !ok {
		set = &handlerSet{}
		e.sets[ev] = set
	}
	return set.add(fn)
}

func (e *eventHub) emit(ev MediaEvent) {
	if set, ok := e.sets[ev]; ok {
		set.emit()
	}
}

func (e *eventHub) count(ev MediaEvent) int {
	if set, ok := e.sets[ev]; ok {
		return set.len()
	}
	return 0
}

func (e *eventHub) clear() {
	e.sets = nil
}
