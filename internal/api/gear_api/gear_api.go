package gear_api

import (
	"log/slog"
	"net/http"

	"github.com/BearBump/GearCheck/internal/models"
	"github.com/BearBump/GearCheck/internal/services/gear"
	"github.com/BearBump/GearCheck/internal/services/preferences"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

type GearAPI struct {
	svc   *gear.Service
	prefs *preferences.Service
}

func New(svc *gear.Service, prefs *preferences.Service) *GearAPI {
	return &GearAPI{svc: svc, prefs: prefs}
}

type gearRequest struct {
	Name         string `json:"name"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Category     string `json:"category"`
	PurchaseDate string `json:"purchaseDate"`
	Region       string `json:"region"`
	Notes        string `json:"notes"`
	SerialNumber string `json:"serialNumber"`
}

func (g gearRequest) input() models.GearCreateInput {
	return models.GearCreateInput{
		Name:         g.Name,
		Brand:        g.Brand,
		Model:        g.Model,
		Category:     g.Category,
		PurchaseDate: g.PurchaseDate,
		Region:       g.Region,
		Notes:        g.Notes,
		SerialNumber: g.SerialNumber,
	}
}

type verdictResponse struct {
	GearID  string             `json:"gearId"`
	Verdict string             `json:"verdict"`
	Trip    models.TripContext `json:"trip"`
}

type themeBody struct {
	Theme string `json:"theme"`
}

// Routes вешает все /api ручки на роутер.
func (a *GearAPI) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/gear", func(r chi.Router) {
			r.Get("/", a.listGear)
			r.Post("/", a.addGear)
			r.Post("/check-all", a.checkAll)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.getGear)
				r.Put("/", a.updateGear)
				r.Delete("/", a.removeGear)
				r.Post("/check", a.checkOne)
				r.Post("/loadout", a.toggleLoadout)
				r.Post("/verdict", a.quickVerdict)
				r.Post("/tasks/{taskId}/toggle", a.toggleTask)
			})
		})

		r.Get("/trip", a.getTrip)
		r.Put("/trip", a.setTrip)

		r.Post("/loadout/analyze", a.analyzeLoadout)
		r.Get("/loadout/analysis", a.lastAnalysis)

		r.Get("/views/stats", a.stats)
		r.Get("/views/high-danger", a.highDanger)
		r.Get("/views/reminders", a.reminders)

		r.Get("/sidebar/recent-recalls", a.recentRecalls)
		r.Get("/sidebar/recall-stats", a.recallStats)

		r.Get("/preferences/theme", a.getTheme)
		r.Put("/preferences/theme", a.setTheme)
	})
}

func (a *GearAPI) listGear(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, a.svc.List(r.Context()))
}

func (a *GearAPI) getGear(w http.ResponseWriter, r *http.Request) {
	it, err := a.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, it)
}

func (a *GearAPI) addGear(w http.ResponseWriter, r *http.Request) {
	var req gearRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	it, err := a.svc.AddGear(r.Context(), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, it)
}

func (a *GearAPI) updateGear(w http.ResponseWriter, r *http.Request) {
	var req gearRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	it, err := a.svc.UpdateGear(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, it)
}

func (a *GearAPI) removeGear(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.RemoveGear(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *GearAPI) checkOne(w http.ResponseWriter, r *http.Request) {
	it, err := a.svc.CheckOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, it)
}

func (a *GearAPI) checkAll(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, a.svc.CheckAll(r.Context()))
}

func (a *GearAPI) toggleTask(w http.ResponseWriter, r *http.Request) {
	it, err := a.svc.ToggleTask(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "taskId"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, it)
}

func (a *GearAPI) toggleLoadout(w http.ResponseWriter, r *http.Request) {
	it, err := a.svc.ToggleLoadout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, it)
}

func (a *GearAPI) quickVerdict(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v, err := a.svc.QuickVerdict(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, verdictResponse{GearID: id, Verdict: v, Trip: a.svc.Trip()})
}

func (a *GearAPI) getTrip(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, a.svc.Trip())
}

func (a *GearAPI) setTrip(w http.ResponseWriter, r *http.Request) {
	var req models.TripContext
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	trip, err := a.svc.SetTrip(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, trip)
}

func (a *GearAPI) analyzeLoadout(w http.ResponseWriter, r *http.Request) {
	res, err := a.svc.AnalyzeLoadout(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if res == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

func (a *GearAPI) lastAnalysis(w http.ResponseWriter, r *http.Request) {
	res := a.svc.LastAnalysis()
	if res == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

func (a *GearAPI) stats(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, a.svc.Stats(r.Context()))
}

func (a *GearAPI) highDanger(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, a.svc.HighDanger(r.Context()))
}

func (a *GearAPI) reminders(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, a.svc.Reminders(r.Context()))
}

func (a *GearAPI) recentRecalls(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, a.svc.RecentRecalls(r.Context()))
}

func (a *GearAPI) recallStats(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, a.svc.RecallStats(r.Context()))
}

func (a *GearAPI) getTheme(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, themeBody{Theme: a.prefs.Theme()})
}

func (a *GearAPI) setTheme(w http.ResponseWriter, r *http.Request) {
	var req themeBody
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.prefs.SetTheme(r.Context(), req.Theme); err != nil {
		if errors.Is(err, preferences.ErrInvalidTheme) {
			writeError(w, err)
			return
		}
		// тема уже применена, не сохранилась только копия в KV
		slog.Warn("persist theme", "error", err.Error())
	}
	jsonResponse(w, http.StatusOK, themeBody{Theme: a.prefs.Theme()})
}
