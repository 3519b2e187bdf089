package calculations_api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/BearBump/DateBox/internal/models"
	"github.com/BearBump/DateBox/internal/services/calculations"
	"github.com/BearBump/DateBox/internal/services/copytext"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

const dateLayout = "2006-01-02"

type API struct {
	calc *calculations.Service
	copy *copytext.Service
}

func New(calc *calculations.Service, copy *copytext.Service) *API {
	return &API{calc: calc, copy: copy}
}

// Router mounts every v1 endpoint. Health probes live on the server that
// mounts this router.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/v1/calculations", a.createCalculation)
	r.Get("/v1/calculations", a.listCalculations)

	r.Get("/v1/rules", a.getRules)
	r.Put("/v1/rules", a.replaceRules)
	r.Post("/v1/holidays", a.upsertHolidays)
	r.Put("/v1/peak-season", a.setPeakSeason)

	r.Post("/v1/render", a.render)
	r.Get("/v1/templates", a.listTemplates)
	r.Put("/v1/templates/{formatKey}", a.saveTemplate)
	r.Delete("/v1/templates/{formatKey}", a.deleteTemplate)

	r.Get("/v1/usage", a.listUsage)

	return r
}

type calculationRequest struct {
	UserID     string  `json:"userId"`
	Weight     float64 `json:"weight"`
	Distance   float64 `json:"distance"`
	PackDate   string  `json:"packDate"`
	PickupDate string  `json:"pickupDate"`
}

func (a *API) createCalculation(w http.ResponseWriter, r *http.Request) {
	var req calculationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode request"))
		return
	}

	in := models.CalculationInput{
		UserID:   req.UserID,
		Weight:   req.Weight,
		Distance: req.Distance,
	}
	var err error
	if in.PickupDate, err = parseDate(req.PickupDate, true); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "pickupDate"))
		return
	}
	if in.PackDate, err = parseDate(req.PackDate, false); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "packDate"))
		return
	}

	res, err := a.calc.Calculate(r.Context(), in)
	if err != nil {
		if errors.Is(err, calculations.ErrRateLimited) {
			writeError(w, http.StatusTooManyRequests, err)
			return
		}
		// Валидация веса/дистанции/даты — это ошибка клиента.
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// LookupFailure едет в теле результата, а не HTTP-статусом: клиент
	// рисует сообщение из поля error.
	writeJSON(w, http.StatusOK, res)
}

func (a *API) listCalculations(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	out, err := a.calc.ListCalculations(r.Context(), r.URL.Query().Get("userId"), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if out == nil {
		out = []*models.Calculation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"calculations": out})
}

func (a *API) getRules(w http.ResponseWriter, r *http.Request) {
	rs, err := a.calc.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (a *API) replaceRules(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rules []models.TransitRule `json:"rules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode request"))
		return
	}
	if err := a.calc.ReplaceTransitRules(r.Context(), req.Rules); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"replaced": len(req.Rules)})
}

func (a *API) upsertHolidays(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Holidays []struct {
			Day  string `json:"day"`
			Name string `json:"name"`
		} `json:"holidays"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode request"))
		return
	}

	hs := make([]models.Holiday, 0, len(req.Holidays))
	for _, h := range req.Holidays {
		day, err := parseDate(h.Day, true)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.Wrap(err, "holiday day"))
			return
		}
		hs = append(hs, models.Holiday{Day: day, Name: h.Name})
	}
	if err := a.calc.UpsertHolidays(r.Context(), hs); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"upserted": len(hs)})
}

func (a *API) setPeakSeason(w http.ResponseWriter, r *http.Request) {
	var req models.PeakSeasonWindow
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode request"))
		return
	}
	if err := a.calc.SetPeakSeason(r.Context(), req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type renderRequest struct {
	UserID           string `json:"userId"`
	FormatKey        string `json:"formatKey"`
	PackDate         string `json:"packDate"`
	LoadDate         string `json:"loadDate"`
	RDDDate          string `json:"rddDate"`
	EarliestLoadDate string `json:"earliestLoadDate"`
	LatestLoadDate   string `json:"latestLoadDate"`
}

func (a *API) render(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode request"))
		return
	}

	var v copytext.Values
	var err error
	if v.PackDate, err = parseDate(req.PackDate, false); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "packDate"))
		return
	}
	if v.LoadDate, err = parseDate(req.LoadDate, false); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "loadDate"))
		return
	}
	if v.RDD, err = parseDate(req.RDDDate, false); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "rddDate"))
		return
	}
	if v.EarliestLoad, err = parseDate(req.EarliestLoadDate, false); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "earliestLoadDate"))
		return
	}
	if v.LatestLoad, err = parseDate(req.LatestLoadDate, false); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "latestLoadDate"))
		return
	}

	text, err := a.copy.RenderFormat(r.Context(), req.UserID, req.FormatKey, v)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (a *API) listTemplates(w http.ResponseWriter, r *http.Request) {
	out, err := a.copy.ResolveTemplates(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": out})
}

func (a *API) saveTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		Template string `json:"template"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "decode request"))
		return
	}
	formatKey := chi.URLParam(r, "formatKey")
	if err := a.copy.SaveTemplate(r.Context(), req.UserID, formatKey, req.Template); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"formatKey": formatKey})
}

func (a *API) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	formatKey := chi.URLParam(r, "formatKey")
	userID := r.URL.Query().Get("userId")
	if err := a.copy.DeleteTemplate(r.Context(), userID, formatKey); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"formatKey": formatKey})
}

func (a *API) listUsage(w http.ResponseWriter, r *http.Request) {
	limit, _ := pageParams(r)
	out, err := a.calc.ListUsageRollups(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if out == nil {
		out = []*models.UsageRollup{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rollups": out})
}

func parseDate(s string, required bool) (time.Time, error) {
	if s == "" {
		if required {
			return time.Time{}, errors.New("is required")
		}
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, errors.New("must be YYYY-MM-DD")
	}
	return t, nil
}

func pageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
