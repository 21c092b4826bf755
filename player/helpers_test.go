package player

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"dinoplay/models"
)

// fakeScheduler is a manual clock. Timers fire only inside Advance, on the
// caller's goroutine
type fakeScheduler struct {
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	at  time.Time
	seq int
	fn  func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeScheduler) Now() time.Time { return f.now }

func (f *fakeScheduler) AfterFunc(d time.Duration, fn func()) func() {
	t := &fakeTimer{at: f.now.Add(d), seq: f.seq, fn: fn}
	f.seq++
	f.timers = append(f.timers, t)
	return func() { f.remove(t) }
}

func (f *fakeScheduler) remove(t *fakeTimer) {
	for i, v := range f.timers {
		if v == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return
		}
	}
}

// Advance moves the clock forward by d, firing due timers in order
func (f *fakeScheduler) Advance(d time.Duration) {
	end := f.now.Add(d)
	for {
		sort.SliceStable(f.timers, func(i, j int) bool {
			if f.timers[i].at.Equal(f.timers[j].at) {
				return f.timers[i].seq < f.timers[j].seq
			}
			return f.timers[i].at.Before(f.timers[j].at)
		})
		if len(f.timers) == 0 || f.timers[0].at.After(end) {
			break
		}
		t := f.timers[0]
		f.timers = f.timers[1:]
		f.now = t.at
		t.fn()
	}
	f.now = end
}

func (f *fakeScheduler) Pending() int { return len(f.timers) }

// fakeSurface records commands and lets tests fire media events
type fakeSurface struct {
	src      string
	paused   bool
	position float64
	duration float64
	closed   bool
	plays    int
	hub      eventHub
}

func (s *fakeSurface) Source() string { return s.src }

func (s *fakeSurface) Play() error {
	if s.closed {
		return errSurfaceClosed
	}
	s.plays++
	s.paused = false
	return nil
}

func (s *fakeSurface) Pause()                             { s.paused = true }
func (s *fakeSurface) Paused() bool                       { return s.paused }
func (s *fakeSurface) CurrentTime() float64               { return s.position }
func (s *fakeSurface) SetCurrentTime(sec float64)         { s.position = sec }
func (s *fakeSurface) Duration() float64                  { return s.duration }
func (s *fakeSurface) On(ev MediaEvent, fn func()) func() { return s.hub.on(ev, fn) }

func (s *fakeSurface) Close() {
	s.closed = true
	s.paused = true
}

func (s *fakeSurface) fire(ev MediaEvent) { s.hub.emit(ev) }

func (s *fakeSurface) handlers(ev MediaEvent) int { return s.hub.count(ev) }

type fakeFactory struct {
	surfaces []*fakeSurface
}

func (f *fakeFactory) New(video models.Video) Surface {
	s := &fakeSurface{src: video.VideoURL, paused: true, duration: video.Duration}
	f.surfaces = append(f.surfaces, s)
	return s
}

func (f *fakeFactory) last() *fakeSurface {
	if len(f.surfaces) == 0 {
		return nil
	}
	return f.surfaces[len(f.surfaces)-1]
}

var errLookupMissing = errors.New("lookup: not found")

// fakeLookup serves videos by id. A gated id blocks until released
type fakeLookup struct {
	mu     sync.Mutex
	videos map[string]models.Video
	gates  map[string]chan struct{}
	calls  int
}

func newFakeLookup(videos ...models.Video) *fakeLookup {
	l := &fakeLookup{
		videos: make(map[string]models.Video),
		gates:  make(map[string]chan struct{}),
	}
	for _, v := range videos {
		l.videos[v.ID] = v
	}
	return l
}

func (l *fakeLookup) gate(id string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch := make(chan struct{})
	l.gates[id] = ch
	return ch
}

func (l *fakeLookup) GetByID(ctx context.Context, id string) (*models.Video, error) {
	l.mu.Lock()
	l.calls++
	gate := l.gates[id]
	v, ok := l.videos[id]
	l.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, errLookupMissing
	}
	return &v, nil
}

func sampleVideos(n int) []models.Video {
	videos := make([]models.Video, n)
	for i := range videos {
		id := fmt.Sprint(i + 1)
		videos[i] = models.Video{
			ID:       id,
			Title:    "Video " + id,
			Channel:  "Channel " + id,
			VideoURL: "https://cdn.example.com/" + id + ".mp4",
			Duration: 120,
		}
	}
	return videos
}

// rig wires the player components without a Loop. Tasks posted by the
// router queue up until the test runs them
type rig struct {
	sched     *fakeScheduler
	factory   *fakeFactory
	lookup    *fakeLookup
	display   *HeadlessDisplay
	binding   *Binding
	store     *Store
	transport *Transport
	shell     *Shell
	router    *Router
	advanced  []models.Video
	tasks     chan func()
}

func newRig(t *testing.T, catalog []models.Video, lookup ...models.Video) *rig {
	t.Helper()
	r := &rig{
		sched:   newFakeScheduler(),
		factory: &fakeFactory{},
		lookup:  newFakeLookup(lookup...),
		tasks:   make(chan func(), 64),
	}
	r.display = NewHeadlessDisplay(true, r.sched)
	r.binding = NewBinding(r.factory.New)
	r.store = NewStore(r.binding, rand.New(rand.NewSource(1)), 5)
	r.transport = NewTransport(r.store, r.binding, r.display, r.sched, 10)
	r.shell = NewShell(r.store, r.binding, r.transport, r.sched, 100, 3, func(v models.Video) {
		r.advanced = append(r.advanced, v)
		r.store.PlayVideo(v)
	})
	r.router = NewRouter(r.store, r.shell, r.lookup, r.post)
	if len(catalog) > 0 {
		r.store.SetCatalog(catalog)
	}
	t.Cleanup(func() {
		r.router.Close()
		r.shell.Close()
		r.transport.Close()
		r.binding.Unbind()
		r.router.Wait()
	})
	return r
}

func (r *rig) post(fn func()) bool {
	r.tasks <- fn
	return true
}

// drain runs every queued task
func (r *rig) drain() {
	for {
		select {
		case fn := <-r.tasks:
			fn()
		default:
			return
		}
	}
}

// runNext waits for one queued task and runs it
func (r *rig) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-r.tasks:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("no task posted")
	}
}
