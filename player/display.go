package player

import (
	"context"
	"errors"
)

// ErrFullscreenDenied is returned when the platform refuses fullscreen
var ErrFullscreenDenied = errors.New("fullscreen request denied")

// Display is the document that owns OS-level fullscreen. Fullscreen state is
// only observed through change notifications
type Display interface {
	IsFullscreen() bool
	RequestFullscreen(ctx context.Context) error
	ExitFullscreen(ctx context.Context) error
	OnFullscreenChange(fn func()) (off func())
}

// HeadlessDisplay is a Display without a window. Change notifications are
// delivered later as a timer callback on sched, like a browser fires
// fullscreenchange after the request promise settles. They never enter the
// loop from the goroutine that changed the state
type HeadlessDisplay struct {
	allow      bool
	fullscreen bool
	sched      Scheduler
	handlers   handlerSet
}

// NewHeadlessDisplay creates a display. When allow is false every request is denied
func NewHeadlessDisplay(allow bool, sched Scheduler) *HeadlessDisplay {
	return &HeadlessDisplay{allow: allow, sched: sched}
}

func (d *HeadlessDisplay) IsFullscreen() bool { return d.fullscreen }

func (d *HeadlessDisplay) RequestFullscreen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.allow {
		return ErrFullscreenDenied
	}
	d.set(true)
	return nil
}

func (d *HeadlessDisplay) ExitFullscreen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.set(false)
	return nil
}

// Escape leaves fullscreen the way a user pressing the Escape key does,
// without going through the player
func (d *HeadlessDisplay) Escape() {
	d.set(false)
}

func (d *HeadlessDisplay) OnFullscreenChange(fn func()) func() {
	return d.handlers.add(fn)
}

func (d *HeadlessDisplay) set(fullscreen bool) {
	if d.fullscreen == fullscreen {
		return
	}
	d.fullscreen = fullscreen
	d.sched.AfterFunc(0, d.handlers.emit)
}
