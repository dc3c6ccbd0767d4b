package gear_api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/BearBump/GearCheck/internal/services/gear"
	"github.com/BearBump/GearCheck/internal/services/preferences"
	"github.com/BearBump/GearCheck/internal/storage/inventory"
	"github.com/pkg/errors"
)

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encode response", "error", err.Error())
		}
	}
}

func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// writeError переводит ошибки сервиса в HTTP-коды.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gear.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, gear.ErrInvalidInput), errors.Is(err, preferences.ErrInvalidTheme):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, inventory.ErrDuplicateID):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("request failed", "error", err.Error())
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
