package handlers

import (
	"context"
	"errors"
	"net/http"

	"dinoplay/player"
	"dinoplay/utils"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	utils.WriteJSON(w, status, v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	utils.WriteError(w, status, message)
}

// statusFor maps errors returned by the player and services to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, player.ErrUnknownVideo):
		return http.StatusNotFound
	case errors.Is(err, player.ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
