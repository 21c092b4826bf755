package player

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"dinoplay/logging"
	"dinoplay/metrics"
	"dinoplay/models"
)

const (
	ListingPath  = "/"
	NotFoundPath = "/404"
	watchPrefix  = "/watch/"
)

// RouteKind identifies one of the application's pages
type RouteKind int

const (
	RouteListing RouteKind = iota
	RouteWatch
	RouteNotFound
)

// Route is a parsed location
type Route struct {
	Kind    RouteKind
	VideoID string
}

// ParseRoute maps a path to a route. Anything unknown is RouteNotFound
func ParseRoute(path string) Route {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	switch {
	case path == "" || path == ListingPath:
		return Route{Kind: RouteListing}
	case strings.HasPrefix(path, watchPrefix):
		id := strings.TrimPrefix(path, watchPrefix)
		if id == "" || strings.Contains(id, "/") {
			return Route{Kind: RouteNotFound}
		}
		return Route{Kind: RouteWatch, VideoID: id}
	default:
		return Route{Kind: RouteNotFound}
	}
}

// WatchPath is the watch route of id
func WatchPath(id string) string {
	return watchPrefix + id
}

// VideoLookup resolves a video that is not part of the loaded listing
type VideoLookup interface {
	GetByID(ctx context.Context, id string) (*models.Video, error)
}

// Router keeps the location in step with the session. Store changes are
// reflected into the location; direct navigation is turned into store
// commands
type Router struct {
	store  *Store
	shell  *Shell
	lookup VideoLookup
	post   func(func()) bool

	location  string
	history   []string
	pending   bool
	resolving bool
	navGen    uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	offs   []func()
	log    zerolog.Logger
}

// NewRouter creates a router at the listing page. post must schedule its
// argument on the loop that owns store
func NewRouter(store *Store, shell *Shell, lookup VideoLookup, post func(func()) bool) *Router {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Router{
		store:    store,
		shell:    shell,
		lookup:   lookup,
		post:     post,
		location: ListingPath,
		history:  []string{ListingPath},
		ctx:      ctx,
		cancel:   cancel,
		log:      logging.WithComponent("router"),
	}
	r.offs = append(r.offs,
		store.Subscribe(r.onStoreEvent),
		shell.OnGestureEnd(r.flush),
	)
	return r
}

// Location returns the current path
func (r *Router) Location() string { return r.location }

// History returns the visited paths, oldest first
func (r *Router) History() []string {
	return append([]string(nil), r.history...)
}

// Resolving reports whether a watch route is waiting for a lookup
func (r *Router) Resolving() bool { return r.resolving }

// Navigate moves to path as if the user typed it or followed a link
func (r *Router) Navigate(path string) {
	if path == "" {
		path = ListingPath
	}
	r.push(path)
	r.apply()
}

// Select plays v as an explicit user choice. Lookups still in flight for an
// earlier navigation are superseded
func (r *Router) Select(v models.Video) {
	r.navGen++
	r.resolving = false
	r.store.PlayVideo(v)
}

// Back returns to the previous location. Reports false at the start of history
func (r *Router) Back() bool {
	if len(r.history) < 2 {
		return false
	}
	r.history = r.history[:len(r.history)-1]
	r.location = r.history[len(r.history)-1]
	r.log.Debug().Str("location", r.location).Msg("back")
	r.apply()
	return true
}

// Close cancels in-flight lookups and detaches from the store
func (r *Router) Close() {
	r.cancel()
	r.navGen++
	for _, off := range r.offs {
		off()
	}
	r.offs = nil
}

// Wait blocks until every lookup goroutine has returned. Call it after the
// loop stopped
func (r *Router) Wait() {
	r.wg.Wait()
}

func (r *Router) push(path string) {
	if path == r.location {
		return
	}
	r.location = path
	r.history = append(r.history, path)
	r.log.Debug().Str("location", path).Msg("navigate")
}

// apply turns the current location into store commands
func (r *Router) apply() {
	r.navGen++
	r.resolving = false

	route := ParseRoute(r.location)
	if route.Kind != RouteWatch {
		if !r.store.Closed() && r.store.Mode() == ModeFull {
			r.store.Minimize()
		}
		return
	}

	if current := r.store.Current(); current != nil && current.ID == route.VideoID {
		r.store.Maximize()
		return
	}
	if v, ok := r.store.Find(route.VideoID); ok {
		metrics.VideosPlayedTotal.WithLabelValues("navigate").Inc()
		r.store.PlayVideo(v)
		return
	}
	if r.lookup == nil {
		r.log.Warn().Str("video_id", route.VideoID).Msg("video not in listing and no lookup, redirecting")
		r.Navigate(NotFoundPath)
		return
	}
	r.resolve(route.VideoID)
}

// resolve looks id up off the loop and applies the result only if no other
// navigation happened meanwhile
func (r *Router) resolve(id string) {
	gen := r.navGen
	r.resolving = true
	ctx := r.ctx
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		video, err := r.lookup.GetByID(ctx, id)
		r.post(func() {
			if gen != r.navGen {
				metrics.StaleResultsTotal.WithLabelValues("router").Inc()
				r.log.Debug().Str("video_id", id).Msg("discarding superseded lookup")
				return
			}
			r.resolving = false
			if err != nil || video == nil {
				r.log.Warn().Err(err).Str("video_id", id).Msg("video not found, redirecting")
				r.Navigate(NotFoundPath)
				return
			}
			metrics.VideosPlayedTotal.WithLabelValues("deeplink").Inc()
			r.store.PlayVideo(*video)
		})
	}()
}

func (r *Router) onStoreEvent(ev StoreEvent) {
	if r.shell.Dragging() {
		r.pending = true
		return
	}
	r.reconcile(ev)
}

func (r *Router) flush() {
	if !r.pending {
		return
	}
	r.pending = false
	r.reconcile(EventModeChanged)
}

// reconcile moves the location to where the session says it should be
func (r *Router) reconcile(ev StoreEvent) {
	if r.resolving {
		return
	}
	route := ParseRoute(r.location)
	if r.store.Closed() {
		if ev == EventClosed && route.Kind == RouteWatch {
			r.push(ListingPath)
		}
		return
	}
	if r.store.Mode() == ModeFull {
		r.push(WatchPath(r.store.Current().ID))
		return
	}
	if route.Kind == RouteWatch {
		r.push(ListingPath)
	}
}
