// Package player implements the persistent playback session: one media
// surface that keeps playing while its presentation moves between the full
// watch page and the mini player.
//
// All state in this package is owned by a single Loop goroutine. Types other
// than Loop and Player are not safe for concurrent use and must only be
// touched from tasks running on the loop
package player

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"dinoplay/logging"
)

// ErrClosed is returned when a task is submitted after the loop stopped
var ErrClosed = errors.New("player loop closed")

// Loop runs posted tasks one at a time on a dedicated goroutine
type Loop struct {
	tasks     chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	afterTask func()
	log       zerolog.Logger
}

// NewLoop creates a loop with the given task queue capacity
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
		log:   logging.WithComponent("loop"),
	}
}

// Start runs the loop on a new goroutine
func (l *Loop) Start() {
	go l.run()
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case <-l.quit:
			return
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Interface("panic", r).Msg("task panicked")
		}
	}()
	fn()
	if l.afterTask != nil {
		l.afterTask()
	}
}

// Post enqueues fn and reports whether it was accepted
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish. It must not be called
// from a task already running on the loop
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	}
}

// Close stops the loop and waits for the running task to return. Queued
// tasks that have not started are dropped
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.quit)
	})
	<-l.done
}
