package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"dinoplay/config"
	"dinoplay/logging"
	"dinoplay/metrics"
	"dinoplay/models"
	"dinoplay/utils"
)

// AllCategories selects the mixed feed across every category
const AllCategories = "All"

// Categories that can be queried directly
var Categories = []string{
	"Nature",
	"Technology",
	"People",
	"Ocean",
	"Urban",
	"Abstract",
}

const (
	mixedCategoryCount = 3
	mixedPerCategory   = 4
)

var (
	// ErrMissingAPIKey is returned when no Pexels API key is configured
	ErrMissingAPIKey = errors.New("pexels api key is not configured")
	// ErrNotFound is returned when a video does not exist
	ErrNotFound = errors.New("video not found")
)

// CatalogService fetches videos from the Pexels API and degrades to the
// fallback dataset when the API is unavailable
type CatalogService struct {
	config   config.PexelsConfig
	client   *http.Client
	limiter  *rate.Limiter
	lookups  singleflight.Group
	fallback []models.Video
	now      func() time.Time
	log      zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// CatalogOption customises a CatalogService
type CatalogOption func(*CatalogService)

// WithHTTPClient replaces the HTTP client used for API calls
func WithHTTPClient(client *http.Client) CatalogOption {
	return func(s *CatalogService) { s.client = client }
}

// WithRand replaces the random source used for shuffling and view counts
func WithRand(rng *rand.Rand) CatalogOption {
	return func(s *CatalogService) { s.rng = rng }
}

// WithClock replaces the clock used for upload dates
func WithClock(now func() time.Time) CatalogOption {
	return func(s *CatalogService) { s.now = now }
}

// NewCatalogService creates a new catalog service
func NewCatalogService(cfg config.PexelsConfig, opts ...CatalogOption) (*CatalogService, error) {
	fallback, err := LoadFallbackVideos()
	if err != nil {
		return nil, err
	}
	perHour := cfg.RequestsPerHour
	if perHour <= 0 {
		perHour = 200
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = 15
	}
	s := &CatalogService{
		config:   cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Every(time.Hour/time.Duration(perHour)), 10),
		fallback: fallback,
		now:      time.Now,
		log:      logging.WithComponent("catalog"),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Fallback returns a copy of the fallback dataset
func (s *CatalogService) Fallback() []models.Video {
	return append([]models.Video(nil), s.fallback...)
}

// Search returns one page of videos matching query. An empty result marks the
// end of the pages. Transport failures are logged and answered with the
// fallback dataset; the only error returned is the context's
func (s *CatalogService) Search(ctx context.Context, query string, page int) ([]models.Video, error) {
	if page < 1 {
		page = 1
	}
	videos, err := s.fetchSearch(ctx, query, page)
	if err == nil {
		metrics.CatalogRequestsTotal.WithLabelValues("search", "api").Inc()
		return videos, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(err, ErrMissingAPIKey) {
		s.log.Warn().Msg("Pexels API key is missing, using fallback data")
	} else {
		s.log.Error().Err(err).Str("query", query).Int("page", page).Msg("Error fetching videos from Pexels")
	}
	metrics.CatalogRequestsTotal.WithLabelValues("search", "fallback").Inc()
	return s.degraded(page), nil
}

// ListByCategory returns one page of a category; AllCategories mixes several
// categories into one shuffled page
func (s *CatalogService) ListByCategory(ctx context.Context, category string, page int) ([]models.Video, error) {
	if category == AllCategories || category == "" {
		return s.mixed(ctx, page)
	}
	return s.Search(ctx, category, page)
}

// GetByID looks up a single video, consulting the fallback dataset when the
// API is unavailable. Returns ErrNotFound when no video matches
func (s *CatalogService) GetByID(ctx context.Context, id string) (*models.Video, error) {
	if s.config.APIKey == "" {
		metrics.CatalogRequestsTotal.WithLabelValues("get", "fallback").Inc()
		return s.fallbackByID(id)
	}

	result, err, _ := s.lookups.Do(id, func() (interface{}, error) {
		return s.fetchByID(ctx, id)
	})
	if err == nil {
		metrics.CatalogRequestsTotal.WithLabelValues("get", "api").Inc()
		v := result.(models.Video)
		return &v, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	s.log.Error().Err(err).Str("video_id", id).Msg("Error fetching video by ID")
	metrics.CatalogRequestsTotal.WithLabelValues("get", "fallback").Inc()
	return s.fallbackByID(id)
}

func (s *CatalogService) mixed(ctx context.Context, page int) ([]models.Video, error) {
	if s.config.APIKey == "" {
		metrics.CatalogRequestsTotal.WithLabelValues("mixed", "fallback").Inc()
		return s.degraded(page), nil
	}

	selected := s.shuffledCategories()[:mixedCategoryCount]
	results := make([][]models.Video, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range selected {
		i, category := i, category
		g.Go(func() error {
			videos, err := s.Search(gctx, category, page)
			if err != nil {
				return err
			}
			if len(videos) > mixedPerCategory {
				videos = videos[:mixedPerCategory]
			}
			results[i] = videos
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.log.Error().Err(err).Msg("Error fetching mixed videos")
		return s.degraded(page), nil
	}

	seen := make(map[string]bool)
	var combined []models.Video
	for _, videos := range results {
		for _, v := range videos {
			if seen[v.ID] {
				continue
			}
			seen[v.ID] = true
			combined = append(combined, v)
		}
	}
	s.shuffle(combined)
	return combined, nil
}

func (s *CatalogService) fetchSearch(ctx context.Context, query string, page int) ([]models.Video, error) {
	if s.config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(s.config.PerPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("orientation", "landscape")

	var response models.PexelsResponse
	if err := s.get(ctx, s.config.BaseURL+"/search?"+params.Encode(), &response); err != nil {
		return nil, fmt.Errorf("search %q page %d: %w", query, page, err)
	}

	category := categoryFromQuery(query)
	videos := make([]models.Video, 0, len(response.Videos))
	for _, pv := range response.Videos {
		v, ok := s.toVideo(pv, category)
		if !ok {
			continue
		}
		videos = append(videos, v)
	}
	return videos, nil
}

func (s *CatalogService) fetchByID(ctx context.Context, id string) (models.Video, error) {
	var pv models.PexelsVideo
	if err := s.get(ctx, s.config.BaseURL+"/videos/"+url.PathEscape(id), &pv); err != nil {
		return models.Video{}, fmt.Errorf("get video %s: %w", id, err)
	}
	v, ok := s.toVideo(pv, "General")
	if !ok {
		return models.Video{}, fmt.Errorf("video %s has no playable files", id)
	}
	return v, nil
}

func (s *CatalogService) get(ctx context.Context, rawURL string, v interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return utils.ReadJSON(resp.Body, v)
}

// toVideo maps a Pexels video, preferring the HD rendition
func (s *CatalogService) toVideo(pv models.PexelsVideo, category string) (models.Video, bool) {
	if len(pv.VideoFiles) == 0 {
		return models.Video{}, false
	}
	file := pv.VideoFiles[0]
	for _, f := range pv.VideoFiles {
		if f.Quality == "hd" {
			file = f
			break
		}
	}
	name := pv.User.Name
	views := s.randomViews()
	return models.Video{
		ID:              strconv.FormatInt(pv.ID, 10),
		Title:           "Video by " + name,
		Description:     "Experience this amazing video captured by " + name + " on Pexels.",
		Thumbnail:       pv.Image,
		VideoURL:        file.Link,
		Duration:        float64(pv.Duration),
		Category:        category,
		Views:           views,
		ViewsLabel:      utils.FormatViews(views),
		UploadedAt:      s.now().Format("2006-01-02"),
		Channel:         name,
		Avatar:          "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=random",
		SubscriberCount: "Unknown",
	}, true
}

// degraded is the answer when the API cannot be used: the fallback dataset on
// the first page and nothing afterwards, so pagination terminates
func (s *CatalogService) degraded(page int) []models.Video {
	if page > 1 {
		return []models.Video{}
	}
	return s.Fallback()
}

func (s *CatalogService) fallbackByID(id string) (*models.Video, error) {
	for _, v := range s.fallback {
		if v.ID == id {
			found := v
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *CatalogService) shuffledCategories() []string {
	categories := append([]string(nil), Categories...)
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng.Shuffle(len(categories), func(i, j int) {
		categories[i], categories[j] = categories[j], categories[i]
	})
	return categories
}

func (s *CatalogService) shuffle(videos []models.Video) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng.Shuffle(len(videos), func(i, j int) {
		videos[i], videos[j] = videos[j], videos[i]
	})
}

func (s *CatalogService) randomViews() int64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Int63n(1000000)
}

// categoryFromQuery capitalises the query and keeps it when it names a known category
func categoryFromQuery(query string) string {
	if query == "" {
		return "General"
	}
	candidate := strings.ToUpper(query[:1]) + strings.ToLower(query[1:])
	for _, c := range Categories {
		if c == candidate {
			return c
		}
	}
	return "General"
}
