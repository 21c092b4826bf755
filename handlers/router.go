package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles everything the HTTP surface serves
type Handlers struct {
	Player  *PlayerHandler
	Catalog *CatalogHandler
	Events  *EventsHandler
	Version string
	APIKey  string
}

// NewRouter registers every route on a gorilla/mux router
func NewRouter(h Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware())
	r.Use(APIKeyMiddleware(h.APIKey))

	r.HandleFunc("/api/health", Health(h.Version)).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Listing routes
	r.HandleFunc("/api/videos", h.Catalog.GetVideos).Methods("GET")
	r.HandleFunc("/api/videos/search", h.Catalog.Search).Methods("POST")
	r.HandleFunc("/api/videos/category", h.Catalog.FilterByCategory).Methods("POST")
	r.HandleFunc("/api/videos/more", h.Catalog.LoadMore).Methods("POST")
	r.HandleFunc("/api/categories", h.Catalog.GetCategories).Methods("GET")

	// Player routes
	p := r.PathPrefix("/api/player").Subrouter()
	p.HandleFunc("", h.Player.GetPlayer).Methods("GET")
	p.HandleFunc("/play", h.Player.Play).Methods("POST")
	p.HandleFunc("/toggle", h.Player.TogglePlay).Methods("POST")
	p.HandleFunc("/minimize", h.Player.Minimize).Methods("POST")
	p.HandleFunc("/maximize", h.Player.Maximize).Methods("POST")
	p.HandleFunc("/close", h.Player.Close).Methods("POST")
	p.HandleFunc("/click", h.Player.Click).Methods("POST")
	p.HandleFunc("/drag/start", h.Player.DragStart).Methods("POST")
	p.HandleFunc("/drag/move", h.Player.DragMove).Methods("POST")
	p.HandleFunc("/drag/end", h.Player.DragEnd).Methods("POST")
	p.HandleFunc("/skip", h.Player.Skip).Methods("POST")
	p.HandleFunc("/seek/start", h.Player.SeekStart).Methods("POST")
	p.HandleFunc("/seek/move", h.Player.SeekMove).Methods("POST")
	p.HandleFunc("/seek/end", h.Player.SeekEnd).Methods("POST")
	p.HandleFunc("/fullscreen", h.Player.ToggleFullscreen).Methods("POST")
	p.HandleFunc("/countdown/cancel", h.Player.CancelCountdown).Methods("POST")

	// Location routes
	r.HandleFunc("/api/location", h.Player.GetLocation).Methods("GET")
	r.HandleFunc("/api/location", h.Player.Navigate).Methods("POST")
	r.HandleFunc("/api/location/back", h.Player.Back).Methods("POST")

	// Snapshot feed
	r.HandleFunc("/api/events", h.Events.Stream).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	return r
}
