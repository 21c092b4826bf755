package player

import (
	"time"

	"github.com/rs/zerolog"

	"dinoplay/logging"
	"dinoplay/metrics"
	"dinoplay/models"
)

const countdownTick = time.Second

// Countdown is the autoplay-next overlay. It counts down once per second from
// its start value and advances to the captured video when it reaches zero
type Countdown struct {
	sched   Scheduler
	seconds int
	advance func(models.Video)

	active    bool
	remaining int
	next      models.Video
	gen       uint64
	stop      func()
	log       zerolog.Logger
}

// NewCountdown creates a hidden countdown that starts at seconds
func NewCountdown(sched Scheduler, seconds int, advance func(models.Video)) *Countdown {
	if seconds <= 0 {
		seconds = 3
	}
	return &Countdown{
		sched:   sched,
		seconds: seconds,
		advance: advance,
		log:     logging.WithComponent("countdown"),
	}
}

// Start shows the overlay counting toward next. A running countdown restarts
func (c *Countdown) Start(next models.Video) {
	c.halt()
	c.active = true
	c.remaining = c.seconds
	c.next = next
	c.schedule()
	c.log.Debug().Str("next_id", next.ID).Int("seconds", c.remaining).Msg("countdown started")
}

// Cancel hides a running countdown without advancing
func (c *Countdown) Cancel() {
	if !c.active {
		return
	}
	c.halt()
	metrics.AutoplayTotal.WithLabelValues("cancelled").Inc()
	c.log.Debug().Msg("countdown cancelled")
}

// Reset returns the countdown to hidden, whatever its state
func (c *Countdown) Reset() {
	if c.active {
		metrics.AutoplayTotal.WithLabelValues("reset").Inc()
	}
	c.halt()
}

// Active reports whether the overlay is counting
func (c *Countdown) Active() bool { return c.active }

// Remaining returns the seconds left, or 0 when hidden
func (c *Countdown) Remaining() int {
	if !c.active {
		return 0
	}
	return c.remaining
}

// View returns the overlay, or nil when hidden
func (c *Countdown) View() *models.CountdownView {
	if !c.active {
		return nil
	}
	return &models.CountdownView{
		Seconds:   c.remaining,
		NextID:    c.next.ID,
		NextTitle: c.next.Title,
	}
}

func (c *Countdown) halt() {
	c.gen++
	c.active = false
	c.remaining = 0
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}

func (c *Countdown) schedule() {
	gen := c.gen
	c.stop = c.sched.AfterFunc(countdownTick, func() { c.tick(gen) })
}

func (c *Countdown) tick(gen uint64) {
	if gen != c.gen || !c.active {
		return
	}
	c.stop = nil
	c.remaining--
	if c.remaining > 0 {
		c.schedule()
		return
	}
	next := c.next
	c.halt()
	metrics.AutoplayTotal.WithLabelValues("advanced").Inc()
	c.log.Info().Str("next_id", next.ID).Msg("countdown finished, advancing")
	c.advance(next)
}
