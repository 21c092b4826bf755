package player

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"dinoplay/metrics"
	"dinoplay/models"
)

type playerRig struct {
	p       *Player
	sched   *fakeScheduler
	factory *fakeFactory
	lookup  *fakeLookup
}

func newPlayerRig(t *testing.T, allowFullscreen bool, lookup ...models.Video) *playerRig {
	t.Helper()
	ignore := goleak.IgnoreCurrent()
	r := &playerRig{
		sched:   newFakeScheduler(),
		factory: &fakeFactory{},
		lookup:  newFakeLookup(lookup...),
	}
	r.p = New(Options{
		Lookup:           r.lookup,
		Factory:          r.factory.New,
		Scheduler:        r.sched,
		Rand:             rand.New(rand.NewSource(7)),
		RelatedLimit:     5,
		DragThreshold:    100,
		CountdownSeconds: 3,
		SkipSeconds:      10,
		AllowFullscreen:  allowFullscreen,
	})
	t.Cleanup(func() {
		r.p.Close()
		goleak.VerifyNone(t, ignore)
	})
	return r
}

// onLoop runs fn on the player's loop; fakes are only touched from there
func (r *playerRig) onLoop(t *testing.T, fn func()) {
	t.Helper()
	require.NoError(t, r.p.loop.Do(context.Background(), fn))
}

func (r *playerRig) snapshot(t *testing.T) models.PlayerSnapshot {
	t.Helper()
	snap, err := r.p.Snapshot(context.Background())
	require.NoError(t, err)
	return snap
}

func TestPlayerSession(t *testing.T) {
	r := newPlayerRig(t, true)
	ctx := context.Background()

	r.p.SetCatalog(sampleVideos(4))
	require.NoError(t, r.p.Play(ctx, "1"))

	snap := r.snapshot(t)
	assert.Equal(t, "full", snap.Mode)
	assert.True(t, snap.IsPlaying)
	assert.Equal(t, "/watch/1", snap.Location)
	require.NotNil(t, snap.Full)
	assert.Len(t, snap.Full.Related, 3)

	require.NoError(t, r.p.DragStart(ctx))
	require.NoError(t, r.p.DragMove(ctx, 150))
	require.NoError(t, r.p.DragEnd(ctx, 150))
	snap = r.snapshot(t)
	assert.Equal(t, "mini", snap.Mode)
	assert.Equal(t, "/", snap.Location)

	require.NoError(t, r.p.Click(ctx))
	loc, err := r.p.Location(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/watch/1", loc)

	require.NoError(t, r.p.TogglePlay(ctx))
	assert.False(t, r.snapshot(t).IsPlaying)

	require.NoError(t, r.p.Minimize(ctx))
	require.NoError(t, r.p.CloseSession(ctx))
	snap = r.snapshot(t)
	assert.Equal(t, "closed", snap.Mode)
	assert.False(t, snap.IsPlaying)
}

func TestPlayerAutoplay(t *testing.T) {
	r := newPlayerRig(t, true)
	ctx := context.Background()

	r.p.SetCatalog(sampleVideos(4))
	require.NoError(t, r.p.Play(ctx, "2"))

	r.onLoop(t, func() { r.factory.last().fire(MediaEnded) })
	snap := r.snapshot(t)
	require.NotNil(t, snap.Full.Countdown)
	next := snap.Full.Countdown.NextID

	r.onLoop(t, func() { r.sched.Advance(3 * time.Second) })
	snap = r.snapshot(t)
	assert.Equal(t, next, snap.Full.Video.ID)
	assert.Nil(t, snap.Full.Countdown)
	assert.Equal(t, "/watch/"+next, snap.Location)
}

func TestPlayerPlayResolvesUnlistedVideo(t *testing.T) {
	extra := models.Video{ID: "77", Title: "Unlisted", Duration: 45}
	r := newPlayerRig(t, true, extra)
	ctx := context.Background()

	require.NoError(t, r.p.Play(ctx, "77"))
	snap := r.snapshot(t)
	assert.Equal(t, "77", snap.Full.Video.ID)
	assert.Equal(t, "/watch/77", snap.Location)

	err := r.p.Play(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownVideo)
	assert.Equal(t, "77", r.snapshot(t).Full.Video.ID)
}

func TestPlayerNavigate(t *testing.T) {
	r := newPlayerRig(t, true)
	ctx := context.Background()
	r.p.SetCatalog(sampleVideos(3))

	require.NoError(t, r.p.Navigate(ctx, "/watch/3"))
	assert.Equal(t, "3", r.snapshot(t).Full.Video.ID)

	require.NoError(t, r.p.Navigate(ctx, "/"))
	assert.Equal(t, "mini", r.snapshot(t).Mode)

	moved, err := r.p.Back(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, "full", r.snapshot(t).Mode)

	require.NoError(t, r.p.Navigate(ctx, "/watch/unknown"))
	assert.Eventually(t, func() bool {
		loc, err := r.p.Location(ctx)
		return err == nil && loc == NotFoundPath
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPlayerTransport(t *testing.T) {
	r := newPlayerRig(t, false)
	ctx := context.Background()
	r.p.SetCatalog(sampleVideos(2))
	require.NoError(t, r.p.Play(ctx, "1"))

	require.NoError(t, r.p.Skip(ctx, 10))
	snap := r.snapshot(t)
	assert.Equal(t, 10.0, snap.Full.Transport.CurrentTime)
	assert.Equal(t, "+10", snap.Full.Transport.SkipFeedback)

	require.NoError(t, r.p.SeekStart(ctx, 50, Track{Left: 0, Width: 100}))
	require.NoError(t, r.p.SeekMove(ctx, 75))
	require.NoError(t, r.p.SeekEnd(ctx))
	snap = r.snapshot(t)
	assert.Equal(t, 90.0, snap.Full.Transport.CurrentTime)
	assert.False(t, snap.Full.Transport.Dragging)

	err := r.p.ToggleFullscreen(ctx)
	assert.ErrorIs(t, err, ErrFullscreenDenied)
	assert.False(t, r.snapshot(t).Full.Transport.Fullscreen)

	require.NoError(t, r.p.CancelCountdown(ctx))
}

func TestPlayerFullscreen(t *testing.T) {
	r := newPlayerRig(t, true)
	ctx := context.Background()
	r.p.SetCatalog(sampleVideos(2))
	require.NoError(t, r.p.Play(ctx, "1"))

	require.NoError(t, r.p.ToggleFullscreen(ctx))
	assert.False(t, r.snapshot(t).Full.Transport.Fullscreen, "state follows the change event")

	r.onLoop(t, func() { r.sched.Advance(0) })
	assert.True(t, r.snapshot(t).Full.Transport.Fullscreen)
}

func TestPlayerSubscribe(t *testing.T) {
	r := newPlayerRig(t, true)
	ctx := context.Background()

	snaps := make(chan models.PlayerSnapshot, 16)
	unsubscribe := r.p.Subscribe(func(s models.PlayerSnapshot) {
		select {
		case snaps <- s:
		default:
		}
	})

	r.p.SetCatalog(sampleVideos(2))
	require.NoError(t, r.p.Play(ctx, "2"))

	var got models.PlayerSnapshot
	require.Eventually(t, func() bool {
		select {
		case got = <-snaps:
			return got.Mode == "full"
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "2", got.Full.Video.ID)

	for len(snaps) > 0 {
		<-snaps
	}
	// unchanged state publishes nothing
	_, err := r.p.Location(ctx)
	require.NoError(t, err)
	assert.Empty(t, snaps)

	unsubscribe()
	require.NoError(t, r.p.Minimize(ctx))
	assert.Empty(t, snaps)
}

func TestPlayerClosed(t *testing.T) {
	r := newPlayerRig(t, true)
	r.p.SetCatalog(sampleVideos(2))
	require.NoError(t, r.p.Play(context.Background(), "1"))

	r.p.Close()
	r.p.Close()

	_, err := r.p.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.p.TogglePlay(context.Background()), ErrClosed)
	r.p.SetCatalog(sampleVideos(3))
	assert.True(t, r.factory.last().closed)
}

func TestPlayerPlaySupersedesPendingDeepLink(t *testing.T) {
	late := models.Video{ID: "9", Title: "Late", Duration: 10}
	chosen := models.Video{ID: "8", Title: "Chosen", Duration: 10}
	r := newPlayerRig(t, true, late, chosen)
	ctx := context.Background()
	r.p.SetCatalog(sampleVideos(2))
	release := r.lookup.gate("9")
	stale := metrics.StaleResultsTotal.WithLabelValues("router")
	before := testutil.ToFloat64(stale)

	require.NoError(t, r.p.Navigate(ctx, "/watch/9"))
	require.NoError(t, r.p.Play(ctx, "8"))
	close(release)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(stale) == before+1
	}, 2*time.Second, 5*time.Millisecond)
	snap := r.snapshot(t)
	require.NotNil(t, snap.Full)
	assert.Equal(t, "8", snap.Full.Video.ID)
	assert.Equal(t, "/watch/8", snap.Location)
}

func TestPlayerWithoutLookupRedirectsUnlistedVideo(t *testing.T) {
	ignore := goleak.IgnoreCurrent()
	sched := newFakeScheduler()
	factory := &fakeFactory{}
	p := New(Options{Factory: factory.New, Scheduler: sched})
	t.Cleanup(func() {
		p.Close()
		goleak.VerifyNone(t, ignore)
	})
	ctx := context.Background()

	require.NoError(t, p.Navigate(ctx, "/watch/unknown"))
	loc, err := p.Location(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/404", loc)

	assert.ErrorIs(t, p.Play(ctx, "unknown"), ErrUnknownVideo)
}
