package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"dinoplay/logging"
	"dinoplay/models"
	"dinoplay/player"
	"dinoplay/utils"
)

// PlayerHandler exposes the playback session. Every command answers with the
// snapshot taken after it was applied
type PlayerHandler struct {
	player *player.Player
	log    zerolog.Logger
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(p *player.Player) *PlayerHandler {
	return &PlayerHandler{
		player: p,
		log:    logging.WithComponent("player_handler"),
	}
}

// GetPlayer handles GET /api/player
func (h *PlayerHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "GetPlayer", nil)
}

// Play handles POST /api/player/play
func (h *PlayerHandler) Play(w http.ResponseWriter, r *http.Request) {
	var request models.PlayRequest
	if !h.decode(w, r, "Play", &request) {
		return
	}
	if request.VideoID == "" {
		writeError(w, http.StatusBadRequest, "Video ID is required")
		return
	}
	h.log.Info().Str("video_id", request.VideoID).Msg("Play: request received")
	h.respond(w, r, "Play", h.player.Play(r.Context(), request.VideoID))
}

// TogglePlay handles POST /api/player/toggle
func (h *PlayerHandler) TogglePlay(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "TogglePlay", h.player.TogglePlay(r.Context()))
}

// Minimize handles POST /api/player/minimize
func (h *PlayerHandler) Minimize(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "Minimize", h.player.Minimize(r.Context()))
}

// Maximize handles POST /api/player/maximize
func (h *PlayerHandler) Maximize(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "Maximize", h.player.Maximize(r.Context()))
}

// Close handles POST /api/player/close
func (h *PlayerHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "Close", h.player.CloseSession(r.Context()))
}

// Click handles POST /api/player/click
func (h *PlayerHandler) Click(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "Click", h.player.Click(r.Context()))
}

// DragStart handles POST /api/player/drag/start
func (h *PlayerHandler) DragStart(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "DragStart", h.player.DragStart(r.Context()))
}

// DragMove handles POST /api/player/drag/move
func (h *PlayerHandler) DragMove(w http.ResponseWriter, r *http.Request) {
	var request models.DragRequest
	if !h.decode(w, r, "DragMove", &request) {
		return
	}
	h.respond(w, r, "DragMove", h.player.DragMove(r.Context(), request.OffsetY))
}

// DragEnd handles POST /api/player/drag/end
func (h *PlayerHandler) DragEnd(w http.ResponseWriter, r *http.Request) {
	var request models.DragRequest
	if !h.decode(w, r, "DragEnd", &request) {
		return
	}
	h.respond(w, r, "DragEnd", h.player.DragEnd(r.Context(), request.OffsetY))
}

// Skip handles POST /api/player/skip
func (h *PlayerHandler) Skip(w http.ResponseWriter, r *http.Request) {
	var request models.SkipRequest
	if !h.decode(w, r, "Skip", &request) {
		return
	}
	if request.Delta == 0 {
		writeError(w, http.StatusBadRequest, "Skip delta is required")
		return
	}
	h.respond(w, r, "Skip", h.player.Skip(r.Context(), request.Delta))
}

// SeekStart handles POST /api/player/seek/start
func (h *PlayerHandler) SeekStart(w http.ResponseWriter, r *http.Request) {
	var request models.SeekRequest
	if !h.decode(w, r, "SeekStart", &request) {
		return
	}
	if request.TrackWidth <= 0 {
		writeError(w, http.StatusBadRequest, "Track width must be positive")
		return
	}
	track := player.Track{Left: request.TrackLeft, Width: request.TrackWidth}
	h.respond(w, r, "SeekStart", h.player.SeekStart(r.Context(), request.X, track))
}

// SeekMove handles POST /api/player/seek/move
func (h *PlayerHandler) SeekMove(w http.ResponseWriter, r *http.Request) {
	var request models.SeekRequest
	if !h.decode(w, r, "SeekMove", &request) {
		return
	}
	h.respond(w, r, "SeekMove", h.player.SeekMove(r.Context(), request.X))
}

// SeekEnd handles POST /api/player/seek/end
func (h *PlayerHandler) SeekEnd(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "SeekEnd", h.player.SeekEnd(r.Context()))
}

// ToggleFullscreen handles POST /api/player/fullscreen. A denied request is
// logged and answered with the unchanged snapshot
func (h *PlayerHandler) ToggleFullscreen(w http.ResponseWriter, r *http.Request) {
	err := h.player.ToggleFullscreen(r.Context())
	if errors.Is(err, player.ErrFullscreenDenied) {
		log := logging.WithContext(r.Context(), h.log)
		log.Warn().Err(err).Msg("ToggleFullscreen: request denied")
		err = nil
	}
	h.respond(w, r, "ToggleFullscreen", err)
}

// CancelCountdown handles POST /api/player/countdown/cancel
func (h *PlayerHandler) CancelCountdown(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "CancelCountdown", h.player.CancelCountdown(r.Context()))
}

// GetLocation handles GET /api/location
func (h *PlayerHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := h.player.Location(r.Context())
	if err != nil {
		h.fail(w, r, "GetLocation", err)
		return
	}
	writeJSON(w, http.StatusOK, models.LocationRequest{Path: loc})
}

// Navigate handles POST /api/location
func (h *PlayerHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var request models.LocationRequest
	if !h.decode(w, r, "Navigate", &request) {
		return
	}
	if request.Path == "" {
		writeError(w, http.StatusBadRequest, "Path is required")
		return
	}
	h.respond(w, r, "Navigate", h.player.Navigate(r.Context(), request.Path))
}

// Back handles POST /api/location/back
func (h *PlayerHandler) Back(w http.ResponseWriter, r *http.Request) {
	_, err := h.player.Back(r.Context())
	h.respond(w, r, "Back", err)
}

func (h *PlayerHandler) decode(w http.ResponseWriter, r *http.Request, op string, v interface{}) bool {
	if err := utils.ReadJSON(r.Body, v); err != nil {
		log := logging.WithContext(r.Context(), h.log)
		log.Warn().Err(err).Msgf("%s: Error decoding JSON", op)
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

func (h *PlayerHandler) respond(w http.ResponseWriter, r *http.Request, op string, err error) {
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	snap, err := h.player.Snapshot(r.Context())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *PlayerHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	log := logging.WithContext(r.Context(), h.log)
	if status >= http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msgf("%s: failed", op)
	} else {
		log.Debug().Err(err).Msgf("%s: rejected", op)
	}
	writeError(w, status, err.Error())
}
