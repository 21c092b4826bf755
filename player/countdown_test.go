package player

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinoplay/metrics"
	"dinoplay/models"
)

func TestCountdownAdvancesOnce(t *testing.T) {
	sched := newFakeScheduler()
	var advanced []models.Video
	c := NewCountdown(sched, 3, func(v models.Video) { advanced = append(advanced, v) })
	before := testutil.ToFloat64(metrics.AutoplayTotal.WithLabelValues("advanced"))

	next := sampleVideos(2)[1]
	c.Start(next)
	require.True(t, c.Active())
	assert.Equal(t, 3, c.Remaining())
	assert.Equal(t, &models.CountdownView{Seconds: 3, NextID: "2", NextTitle: "Video 2"}, c.View())

	sched.Advance(time.Second)
	assert.Equal(t, 2, c.Remaining())
	sched.Advance(time.Second)
	assert.Equal(t, 1, c.Remaining())
	assert.Empty(t, advanced)

	sched.Advance(time.Second)
	require.Len(t, advanced, 1)
	assert.Equal(t, "2", advanced[0].ID)
	assert.False(t, c.Active())
	assert.Nil(t, c.View())

	sched.Advance(10 * time.Second)
	assert.Len(t, advanced, 1)
	assert.Zero(t, sched.Pending())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AutoplayTotal.WithLabelValues("advanced")))
}

func TestCountdownCancel(t *testing.T) {
	sched := newFakeScheduler()
	var advanced int
	c := NewCountdown(sched, 3, func(models.Video) { advanced++ })

	c.Start(sampleVideos(1)[0])
	sched.Advance(1500 * time.Millisecond)
	c.Cancel()

	assert.False(t, c.Active())
	assert.Zero(t, c.Remaining())
	sched.Advance(5 * time.Second)
	assert.Zero(t, advanced)

	c.Start(sampleVideos(1)[0])
	assert.Equal(t, 3, c.Remaining())
}

func TestCountdownDropsStaleTick(t *testing.T) {
	sched := newFakeScheduler()
	var advanced int
	c := NewCountdown(sched, 1, func(models.Video) { advanced++ })

	c.Start(sampleVideos(1)[0])
	stale := c.gen
	c.Reset()
	c.Start(sampleVideos(1)[0])

	// a timer that fired before Reset could stop it
	c.tick(stale)
	assert.Zero(t, advanced)
	assert.Equal(t, 1, c.Remaining())

	sched.Advance(time.Second)
	assert.Equal(t, 1, advanced)
}

func TestCountdownResetWhenHidden(t *testing.T) {
	c := NewCountdown(newFakeScheduler(), 0, func(models.Video) {})
	c.Reset()
	c.Cancel()
	assert.False(t, c.Active())

	c.Start(sampleVideos(1)[0])
	assert.Equal(t, 3, c.Remaining(), "non-positive seconds fall back to 3")
}
