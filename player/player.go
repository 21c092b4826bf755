package player

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dinoplay/logging"
	"dinoplay/metrics"
	"dinoplay/models"
)

// ErrUnknownVideo is returned by Play when no video has the requested id
var ErrUnknownVideo = errors.New("unknown video")

// Options configures a Player. Zero values select the headless defaults
type Options struct {
	Lookup           VideoLookup
	Factory          SurfaceFactory
	Display          Display
	Scheduler        Scheduler
	Rand             *rand.Rand
	RelatedLimit     int
	DragThreshold    float64
	CountdownSeconds int
	SkipSeconds      float64
	AllowFullscreen  bool
	QueueSize        int
}

// Player is the concurrency-safe handle to the playback session. Every
// method runs its work on the player's loop
type Player struct {
	loop      *Loop
	store     *Store
	binding   *Binding
	transport *Transport
	shell     *Shell
	router    *Router
	lookup    VideoLookup
	log       zerolog.Logger

	last models.PlayerSnapshot

	subMu  sync.Mutex
	subs   map[int]func(models.PlayerSnapshot)
	nextID int

	closeOnce sync.Once
}

// New creates a player and starts its loop
func New(opts Options) *Player {
	loop := NewLoop(opts.QueueSize)
	sched := opts.Scheduler
	if sched == nil {
		sched = NewLoopScheduler(loop)
	}
	factory := opts.Factory
	if factory == nil {
		factory = NewSimSurfaceFactory(sched)
	}
	display := opts.Display
	if display == nil {
		display = NewHeadlessDisplay(opts.AllowFullscreen, sched)
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	p := &Player{
		loop:   loop,
		lookup: opts.Lookup,
		subs:   make(map[int]func(models.PlayerSnapshot)),
		log:    logging.WithComponent("player"),
	}
	p.binding = NewBinding(factory)
	p.store = NewStore(p.binding, rng, opts.RelatedLimit)
	p.transport = NewTransport(p.store, p.binding, display, sched, opts.SkipSeconds)
	p.shell = NewShell(p.store, p.binding, p.transport, sched, opts.DragThreshold, opts.CountdownSeconds, func(next models.Video) {
		metrics.VideosPlayedTotal.WithLabelValues("autoplay").Inc()
		p.store.PlayVideo(next)
	})
	p.router = NewRouter(p.store, p.shell, opts.Lookup, loop.Post)
	p.last = p.render()

	loop.afterTask = p.publish
	loop.Start()
	return p
}

// Snapshot returns the current layout
func (p *Player) Snapshot(ctx context.Context) (models.PlayerSnapshot, error) {
	var snap models.PlayerSnapshot
	err := p.loop.Do(ctx, func() { snap = p.render() })
	return snap, err
}

// Subscribe registers fn to receive every new snapshot. fn runs on the loop
// and must not block or call back into the player
func (p *Player) Subscribe(fn func(models.PlayerSnapshot)) (unsubscribe func()) {
	p.subMu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.subMu.Unlock()
	return func() {
		p.subMu.Lock()
		delete(p.subs, id)
		p.subMu.Unlock()
	}
}

// Play selects the video with id, the way picking it from the listing does.
// Videos outside the listing are resolved through the lookup
func (p *Player) Play(ctx context.Context, id string) error {
	var found bool
	if err := p.loop.Do(ctx, func() {
		if _, found = p.store.Find(id); found {
			p.router.Navigate(WatchPath(id))
		}
	}); err != nil {
		return err
	}
	if found {
		return nil
	}

	if p.lookup == nil {
		return fmt.Errorf("%w: %s", ErrUnknownVideo, id)
	}
	video, err := p.lookup.GetByID(ctx, id)
	if err != nil || video == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s", ErrUnknownVideo, id)
	}
	v := *video
	return p.loop.Do(ctx, func() {
		metrics.VideosPlayedTotal.WithLabelValues("select").Inc()
		p.router.Select(v)
	})
}

// TogglePlay plays or pauses the bound video
func (p *Player) TogglePlay(ctx context.Context) error {
	return p.loop.Do(ctx, p.store.TogglePlay)
}

// Minimize collapses the full player into the mini player
func (p *Player) Minimize(ctx context.Context) error {
	return p.loop.Do(ctx, p.shell.Collapse)
}

// Maximize expands the mini player
func (p *Player) Maximize(ctx context.Context) error {
	return p.loop.Do(ctx, p.store.Maximize)
}

// CloseSession stops playback and closes the player
func (p *Player) CloseSession(ctx context.Context) error {
	return p.loop.Do(ctx, p.store.CloseMiniPlayer)
}

// Click is a tap on the mini player card
func (p *Player) Click(ctx context.Context) error {
	return p.loop.Do(ctx, p.shell.Click)
}

// DragStart begins the drag-to-minimize gesture
func (p *Player) DragStart(ctx context.Context) error {
	return p.loop.Do(ctx, p.shell.DragStart)
}

// DragMove updates the gesture offset
func (p *Player) DragMove(ctx context.Context, dy float64) error {
	return p.loop.Do(ctx, func() { p.shell.DragMove(dy) })
}

// DragEnd releases the gesture at offset dy
func (p *Player) DragEnd(ctx context.Context, dy float64) error {
	return p.loop.Do(ctx, func() { p.shell.DragEnd(dy) })
}

// Skip moves the playhead by delta seconds
func (p *Player) Skip(ctx context.Context, delta float64) error {
	return p.loop.Do(ctx, func() { p.transport.Skip(delta) })
}

// SeekStart grabs the scrub handle
func (p *Player) SeekStart(ctx context.Context, x float64, track Track) error {
	return p.loop.Do(ctx, func() { p.transport.SeekStart(x, track) })
}

// SeekMove drags the scrub handle
func (p *Player) SeekMove(ctx context.Context, x float64) error {
	return p.loop.Do(ctx, func() { p.transport.SeekMove(x) })
}

// SeekEnd releases the scrub handle
func (p *Player) SeekEnd(ctx context.Context) error {
	return p.loop.Do(ctx, p.transport.SeekEnd)
}

// ToggleFullscreen enters or leaves fullscreen. A denied request is returned
// and leaves the state unchanged
func (p *Player) ToggleFullscreen(ctx context.Context) error {
	var result error
	if err := p.loop.Do(ctx, func() { result = p.transport.ToggleFullscreen(ctx) }); err != nil {
		return err
	}
	return result
}

// CancelCountdown dismisses the autoplay overlay
func (p *Player) CancelCountdown(ctx context.Context) error {
	return p.loop.Do(ctx, p.shell.CancelCountdown)
}

// Location returns the current path
func (p *Player) Location(ctx context.Context) (string, error) {
	var loc string
	err := p.loop.Do(ctx, func() { loc = p.router.Location() })
	return loc, err
}

// Navigate moves to path
func (p *Player) Navigate(ctx context.Context, path string) error {
	return p.loop.Do(ctx, func() { p.router.Navigate(path) })
}

// Back returns to the previous location and reports whether there was one
func (p *Player) Back(ctx context.Context) (bool, error) {
	var moved bool
	err := p.loop.Do(ctx, func() { moved = p.router.Back() })
	return moved, err
}

// SetCatalog replaces the listing related videos are drawn from. It does not
// wait for the loop
func (p *Player) SetCatalog(videos []models.Video) {
	list := append([]models.Video(nil), videos...)
	if !p.loop.Post(func() { p.store.SetCatalog(list) }) {
		p.log.Debug().Msg("SetCatalog after close ignored")
	}
}

// Close tears the session down and stops the loop
func (p *Player) Close() {
	p.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.loop.Do(ctx, func() {
			p.router.Close()
			p.shell.Close()
			p.transport.Close()
			p.binding.Unbind()
		}); err != nil {
			p.log.Warn().Err(err).Msg("player teardown incomplete")
		}
		p.loop.Close()
		p.router.Wait()
	})
}

func (p *Player) render() models.PlayerSnapshot {
	return p.shell.Render(p.router.Location())
}

// publish pushes the snapshot to subscribers when the last task changed it
func (p *Player) publish() {
	snap := p.render()
	if reflect.DeepEqual(snap, p.last) {
		return
	}
	p.last = snap
	p.subMu.Lock()
	fns := make([]func(models.PlayerSnapshot), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}
