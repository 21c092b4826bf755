package player

import (
	"github.com/rs/zerolog"

	"dinoplay/logging"
	"dinoplay/models"
)

// Effect subscribes to a freshly bound surface and returns the func that
// undoes every subscription it made
type Effect func(s Surface) (release func())

// Binding owns the single mounted surface and keys it by video identity.
// Registered effects are attached after a surface exists and released before
// it is replaced, so handlers never outlive the surface they were bound to
type Binding struct {
	factory  SurfaceFactory
	surface  Surface
	key      string
	nextID   int
	order    []int
	effects  map[int]Effect
	releases map[int]func()
	log      zerolog.Logger
}

// NewBinding creates an empty binding
func NewBinding(factory SurfaceFactory) *Binding {
	return &Binding{
		factory:  factory,
		effects:  make(map[int]Effect),
		releases: make(map[int]func()),
		log:      logging.WithComponent("binding"),
	}
}

// Surface returns the bound surface, or nil
func (b *Binding) Surface() Surface {
	return b.surface
}

// Key returns the identity of the bound video, or ""
func (b *Binding) Key() string {
	return b.key
}

// Register adds an effect. It runs against the current surface, if any, and
// against every surface bound later
func (b *Binding) Register(effect Effect) (unregister func()) {
	id := b.nextID
	b.nextID++
	b.effects[id] = effect
	b.order = append(b.order, id)
	if b.surface != nil {
		b.attach(id)
	}
	return func() {
		b.release(id)
		delete(b.effects, id)
		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Bind makes video the bound source. A different identity tears the old
// surface down and mounts a new one, which starts playing; the same identity
// keeps the current surface. Reports whether a new surface was mounted
func (b *Binding) Bind(video models.Video) bool {
	if b.surface != nil && b.key == video.ID {
		return false
	}
	b.teardown()

	b.surface = b.factory(video)
	b.key = video.ID
	for _, id := range b.order {
		b.attach(id)
	}
	if err := b.surface.Play(); err != nil {
		b.log.Warn().Err(err).Str("video_id", video.ID).Msg("autoplay failed")
	}
	b.log.Debug().Str("video_id", video.ID).Str("src", b.surface.Source()).Msg("surface mounted")
	return true
}

// Resume starts the bound surface if it is paused
func (b *Binding) Resume() {
	if b.surface == nil || !b.surface.Paused() {
		return
	}
	if err := b.surface.Play(); err != nil {
		b.log.Warn().Err(err).Str("video_id", b.key).Msg("resume failed")
	}
}

// Unbind releases every effect and closes the surface
func (b *Binding) Unbind() {
	b.teardown()
}

func (b *Binding) attach(id int) {
	if release := b.effects[id](b.surface); release != nil {
		b.releases[id] = release
	}
}

func (b *Binding) release(id int) {
	if release, ok := b.releases[id]; ok {
		delete(b.releases, id)
		release()
	}
}

func (b *Binding) teardown() {
	for i := len(b.order) - 1; i >= 0; i-- {
		b.release(b.order[i])
	}
	if b.surface == nil {
		return
	}
	b.surface.Close()
	b.log.Debug().Str("video_id", b.key).Msg("surface unmounted")
	b.surface = nil
	b.key = ""
}
