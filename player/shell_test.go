package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDragPastThresholdMinimizes(t *testing.T) {
	r := newRig(t, sampleVideos(4))
	r.store.PlayVideo(sampleVideos(4)[0])
	require.Equal(t, "/watch/1", r.router.Location())

	r.shell.DragStart()
	r.shell.DragMove(80)
	r.shell.DragMove(150)
	assert.Equal(t, "/watch/1", r.router.Location(), "no navigation mid-gesture")
	r.shell.DragEnd(150)

	assert.Equal(t, ModeMini, r.store.Mode())
	assert.Equal(t, "/", r.router.Location())
	assert.True(t, r.store.IsPlaying())
	assert.Len(t, r.factory.surfaces, 1, "minimizing must not remount")
}

func TestDragBelowThresholdSnapsBack(t *testing.T) {
	r := newRig(t, sampleVideos(4))
	r.store.PlayVideo(sampleVideos(4)[0])
	history := r.router.History()

	r.shell.DragStart()
	r.shell.DragMove(50)
	snap := r.shell.Render(r.router.Location())
	require.NotNil(t, snap.Full)
	assert.Equal(t, 50.0, snap.Full.DragOffset)
	r.shell.DragEnd(50)

	assert.Equal(t, ModeFull, r.store.Mode())
	assert.Equal(t, "/watch/1", r.router.Location())
	assert.Equal(t, history, r.router.History())
	assert.False(t, r.shell.Dragging())
	assert.Zero(t, r.shell.Render(r.router.Location()).Full.DragOffset)
}

func TestDragIgnoredInMiniMode(t *testing.T) {
	r := newRig(t, sampleVideos(2))
	r.store.PlayVideo(sampleVideos(2)[0])
	r.store.Minimize()

	r.shell.DragStart()
	assert.False(t, r.shell.Dragging())
	r.shell.DragEnd(500)
	assert.Equal(t, ModeMini, r.store.Mode())
}

func TestReconcileWaitsForGestureEnd(t *testing.T) {
	r := newRig(t, sampleVideos(3))
	r.store.PlayVideo(sampleVideos(3)[0])

	r.shell.DragStart()
	r.shell.Collapse()
	assert.Equal(t, ModeMini, r.store.Mode())
	assert.Equal(t, "/watch/1", r.router.Location())

	r.shell.DragEnd(0)
	assert.Equal(t, "/", r.router.Location())
}

func TestClickMaximizesMiniPlayer(t *testing.T) {
	r := newRig(t, sampleVideos(3))
	r.store.PlayVideo(sampleVideos(3)[2])
	r.store.Minimize()
	require.Equal(t, "/", r.router.Location())

	r.shell.Click()
	assert.Equal(t, ModeFull, r.store.Mode())
	assert.Equal(t, "/watch/3", r.router.Location())

	r.shell.Click()
	assert.Equal(t, ModeFull, r.store.Mode(), "click on the full player is not a card tap")
}

func TestEndedStartsCountdownAndAdvancesOnce(t *testing.T) {
	r := newRig(t, sampleVideos(4))
	r.store.PlayVideo(sampleVideos(4)[0])
	next := r.store.NextCandidate()
	require.NotNil(t, next)

	r.factory.last().fire(MediaEnded)
	c := r.shell.Countdown()
	require.True(t, c.Active())
	assert.Equal(t, 3, c.Remaining())

	r.sched.Advance(time.Second)
	assert.Equal(t, 2, c.Remaining())
	r.sched.Advance(time.Second)
	assert.Equal(t, 1, c.Remaining())
	r.sched.Advance(time.Second)

	require.Len(t, r.advanced, 1)
	assert.Equal(t, next.ID, r.advanced[0].ID)
	assert.Equal(t, next.ID, r.store.Current().ID)
	assert.False(t, c.Active())
	assert.Equal(t, "/watch/"+next.ID, r.router.Location())

	r.sched.Advance(10 * time.Second)
	assert.Len(t, r.advanced, 1)
}

func TestVideoChangeResetsCountdown(t *testing.T) {
	r := newRig(t, sampleVideos(4))
	r.store.PlayVideo(sampleVideos(4)[0])
	r.factory.last().fire(MediaEnded)
	r.sched.Advance(time.Second)
	require.Equal(t, 2, r.shell.Countdown().Remaining())

	r.store.PlayVideo(sampleVideos(4)[3])
	assert.False(t, r.shell.Countdown().Active())

	r.sched.Advance(5 * time.Second)
	assert.Empty(t, r.advanced)
	assert.Equal(t, "4", r.store.Current().ID)

	r.factory.last().fire(MediaEnded)
	assert.True(t, r.shell.Countdown().Active(), "a new end of media counts again")
}

func TestCloseResetsCountdown(t *testing.T) {
	r := newRig(t, sampleVideos(4))
	r.store.PlayVideo(sampleVideos(4)[0])
	r.factory.last().fire(MediaEnded)

	r.store.CloseMiniPlayer()
	assert.False(t, r.shell.Countdown().Active())
	r.sched.Advance(5 * time.Second)
	assert.Empty(t, r.advanced)
	assert.True(t, r.store.Closed())
}

func TestCancelledCountdownWaitsForNextEnd(t *testing.T) {
	r := newRig(t, sampleVideos(4))
	r.store.PlayVideo(sampleVideos(4)[0])
	s := r.factory.last()

	s.fire(MediaEnded)
	r.shell.CancelCountdown()
	r.sched.Advance(5 * time.Second)
	assert.Empty(t, r.advanced)
	assert.Nil(t, r.shell.Render("/watch/1").Full.Countdown)

	s.fire(MediaEnded)
	assert.Equal(t, 3, r.shell.Countdown().Remaining())
}

func TestNoCountdownWithoutCandidate(t *testing.T) {
	r := newRig(t, sampleVideos(1))
	r.store.PlayVideo(sampleVideos(1)[0])

	r.factory.last().fire(MediaEnded)
	assert.False(t, r.shell.Countdown().Active())
}

func TestRender(t *testing.T) {
	r := newRig(t, sampleVideos(3))

	snap := r.shell.Render("/")
	assert.Equal(t, "closed", snap.Mode)
	assert.Nil(t, snap.Full)
	assert.Nil(t, snap.Mini)

	r.store.PlayVideo(sampleVideos(3)[1])
	r.factory.last().fire(MediaEnded)
	snap = r.shell.Render(r.router.Location())
	assert.Equal(t, "full", snap.Mode)
	assert.Equal(t, "/watch/2", snap.Location)
	require.NotNil(t, snap.Full)
	assert.Equal(t, "2", snap.Full.Video.ID)
	assert.Equal(t, "2:00", snap.Full.DurationLabel)
	assert.Len(t, snap.Full.Related, 2)
	require.NotNil(t, snap.Full.Countdown)
	assert.Equal(t, 3, snap.Full.Countdown.Seconds)

	r.store.Minimize()
	snap = r.shell.Render(r.router.Location())
	assert.Equal(t, "mini", snap.Mode)
	assert.Nil(t, snap.Full)
	require.NotNil(t, snap.Mini)
	assert.Equal(t, "Video 2", snap.Mini.Title)
	assert.Equal(t, "Channel 2", snap.Mini.Channel)
}
