package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"dinoplay/logging"
	"dinoplay/metrics"
	"dinoplay/models"
)

// DefaultQuery is the search used for pagination before the user searches
const DefaultQuery = "nature"

// Catalog is the subset of the catalog the listing page needs
type Catalog interface {
	Search(ctx context.Context, query string, page int) ([]models.Video, error)
	ListByCategory(ctx context.Context, category string, page int) ([]models.Video, error)
}

// LibraryService holds the listing page state: the fetched videos, the
// active search or category and the pagination cursor
type LibraryService struct {
	catalog Catalog
	log     zerolog.Logger

	mutex      sync.RWMutex
	state      models.LibraryState
	generation uint64
	listeners  []func([]models.Video)
}

// NewLibraryService creates a new library service
func NewLibraryService(catalog Catalog) *LibraryService {
	return &LibraryService{
		catalog: catalog,
		log:     logging.WithComponent("library"),
		state: models.LibraryState{
			Videos:      []models.Video{},
			HasMore:     true,
			ActiveQuery: DefaultQuery,
		},
	}
}

// OnChange registers fn to receive the video list after every change
func (s *LibraryService) OnChange(fn func([]models.Video)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.listeners = append(s.listeners, fn)
}

// GetState returns a copy of the current listing state
func (s *LibraryService) GetState() models.LibraryState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	state := s.state
	state.Videos = append([]models.Video(nil), s.state.Videos...)
	return state
}

// Videos returns a copy of the fetched videos
func (s *LibraryService) Videos() []models.Video {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]models.Video(nil), s.state.Videos...)
}

// Categories returns the filter chips shown above the listing
func (s *LibraryService) Categories() []string {
	return append([]string{AllCategories}, Categories...)
}

// LoadInitial fetches the first page of the mixed feed
func (s *LibraryService) LoadInitial(ctx context.Context) error {
	return s.FilterByCategory(ctx, AllCategories)
}

// Search replaces the listing with the first page of query results
func (s *LibraryService) Search(ctx context.Context, query string) error {
	gen := s.begin(func(st *models.LibraryState) {
		st.ActiveQuery = query
		st.ActiveCategory = ""
	})
	data, err := s.catalog.Search(ctx, query, 1)
	return s.replace(gen, data, err)
}

// FilterByCategory replaces the listing with the first page of category
func (s *LibraryService) FilterByCategory(ctx context.Context, category string) error {
	gen := s.begin(func(st *models.LibraryState) {
		st.ActiveCategory = category
	})
	data, err := s.catalog.ListByCategory(ctx, category, 1)
	return s.replace(gen, data, err)
}

// LoadMore appends the next page. It is a no-op while a fetch is in flight or
// after an empty page ended the pagination; the returned bool reports whether
// a fetch was made
func (s *LibraryService) LoadMore(ctx context.Context) (bool, error) {
	s.mutex.Lock()
	if s.state.IsLoading || !s.state.HasMore {
		s.mutex.Unlock()
		return false, nil
	}
	s.state.IsLoading = true
	gen := s.generation
	nextPage := s.state.Page + 1
	category := s.state.ActiveCategory
	query := s.state.ActiveQuery
	s.mutex.Unlock()

	var (
		data []models.Video
		err  error
	)
	if category != "" {
		data, err = s.catalog.ListByCategory(ctx, category, nextPage)
	} else {
		data, err = s.catalog.Search(ctx, query, nextPage)
	}

	s.mutex.Lock()
	if gen != s.generation {
		s.mutex.Unlock()
		metrics.StaleResultsTotal.WithLabelValues("library").Inc()
		s.log.Debug().Int("page", nextPage).Msg("LoadMore: discarding superseded page")
		return true, nil
	}
	s.state.IsLoading = false
	if err != nil {
		s.mutex.Unlock()
		s.log.Error().Err(err).Int("page", nextPage).Msg("Failed to load more videos")
		return true, err
	}
	if len(data) == 0 {
		s.state.HasMore = false
		s.mutex.Unlock()
		s.log.Info().Int("page", nextPage).Msg("LoadMore: end of pages reached")
		return true, nil
	}
	s.state.Videos = append(s.state.Videos, data...)
	s.state.Page = nextPage
	videos, listeners := s.snapshotLocked()
	s.mutex.Unlock()

	s.notify(listeners, videos)
	return true, nil
}

// begin starts a fetch that resets the listing to page 1 and supersedes any
// fetch already in flight
func (s *LibraryService) begin(update func(*models.LibraryState)) uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.generation++
	s.state.IsLoading = true
	s.state.Page = 1
	update(&s.state)
	return s.generation
}

func (s *LibraryService) replace(gen uint64, data []models.Video, err error) error {
	s.mutex.Lock()
	if gen != s.generation {
		s.mutex.Unlock()
		metrics.StaleResultsTotal.WithLabelValues("library").Inc()
		s.log.Debug().Msg("discarding superseded listing response")
		return nil
	}
	s.state.IsLoading = false
	if err != nil {
		s.mutex.Unlock()
		s.log.Error().Err(err).Msg("Failed to fetch videos")
		return err
	}
	if data == nil {
		data = []models.Video{}
	}
	s.state.Videos = data
	s.state.HasMore = len(data) > 0
	videos, listeners := s.snapshotLocked()
	s.mutex.Unlock()

	s.log.Info().Int("count", len(videos)).Str("category", s.GetState().ActiveCategory).Msg("listing replaced")
	s.notify(listeners, videos)
	return nil
}

func (s *LibraryService) snapshotLocked() ([]models.Video, []func([]models.Video)) {
	videos := append([]models.Video(nil), s.state.Videos...)
	listeners := make([]func([]models.Video), len(s.listeners))
	copy(listeners, s.listeners)
	return videos, listeners
}

func (s *LibraryService) notify(listeners []func([]models.Video), videos []models.Video) {
	for _, fn := range listeners {
		fn(videos)
	}
}
