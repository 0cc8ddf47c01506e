// Package httpapi serves the progression operations as JSON over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/xtding233/progression-core/internal/catalog"
	perr "github.com/xtding233/progression-core/internal/errors"
	"github.com/xtding233/progression-core/internal/gacha"
	"github.com/xtding233/progression-core/internal/service"
)

// Caps for simulations run on a request goroutine. A fixed budget may span
// at most oddsPityWindows hard-pity windows.
const (
	maxOddsTrials   = 100000
	oddsPityWindows = 10
)

type errResp struct {
	Code     perr.Code         `json:"code"`
	Err      string            `json:"err"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type drawResp struct {
	Hit bool   `json:"hit"`
	Err string `json:"err,omitempty"`
}

type Handler struct {
	ops service.Operations
	cat *catalog.Catalog
	mux *http.ServeMux
}

// New routes every operation onto a fresh mux.
func New(ops service.Operations, cat *catalog.Catalog) *Handler {
	h := &Handler{ops: ops, cat: cat, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /players/{id}", h.handleProfile)
	h.mux.HandleFunc("POST /players/{id}/pull", h.handlePull)
	h.mux.HandleFunc("POST /players/{id}/battle", h.handleBattle)
	h.mux.HandleFunc("GET /players/{id}/battle", h.handleEncounter)
	h.mux.HandleFunc("POST /players/{id}/attack", h.handleAttack)
	h.mux.HandleFunc("POST /players/{id}/flee", h.handleFlee)
	h.mux.HandleFunc("POST /players/{id}/dungeon/{set}", h.handleDungeon)
	h.mux.HandleFunc("GET /odds", h.handleOdds)
	h.mux.HandleFunc("GET /draw", handleDraw)
	h.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "catalog": h.cat.String()})
	})
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func parseInt(r *http.Request, key string) (int, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

func parseFloat(r *http.Request, key string) (float64, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.ops.GetProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// count defaults to a single pull.
func (h *Handler) handlePull(w http.ResponseWriter, r *http.Request) {
	count, ok, msg := parseInt(r, "count")
	if msg != "" {
		writeError(w, r, perr.New(perr.CodeInvalidArgument, "%s", msg))
		return
	}
	if !ok {
		count = 1
	}
	out, err := h.ops.Pull(r.Context(), r.PathValue("id"), count)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleBattle(w http.ResponseWriter, r *http.Request) {
	enc, err := h.ops.StartBattle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, enc)
}

func (h *Handler) handleEncounter(w http.ResponseWriter, r *http.Request) {
	enc, err := h.ops.Encounter(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, enc)
}

func (h *Handler) handleAttack(w http.ResponseWriter, r *http.Request) {
	out, err := h.ops.Attack(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleFlee(w http.ResponseWriter, r *http.Request) {
	out, err := h.ops.Flee(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleDungeon(w http.ResponseWriter, r *http.Request) {
	out, err := h.ops.RunDungeon(r.Context(), r.PathValue("id"), r.PathValue("set"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleOdds runs the odds simulator for the live banner.
func (h *Handler) handleOdds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	goal := gacha.GoalFirstFiveStar
	if name := q.Get("goal"); name != "" {
		g, err := gacha.ParseGoal(name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		goal = g
	}
	var params gacha.SimParams
	trials := 10000
	draws := 0
	for key, dst := range map[string]*int{"trials": &trials, "draws": &draws, "pity4": &params.Pity4, "pity5": &params.Pity5} {
		v, ok, msg := parseInt(r, key)
		if msg != "" || (ok && v < 0) {
			writeError(w, r, perr.New(perr.CodeInvalidArgument, "invalid %s", key))
			return
		}
		if ok {
			*dst = v
		}
	}
	if trials > maxOddsTrials {
		writeError(w, r, perr.New(perr.CodeInvalidArgument, "trials must be at most %d", maxOddsTrials))
		return
	}
	if maxDraws := oddsPityWindows * h.cat.Rules().Pity5; draws > maxDraws {
		writeError(w, r, perr.New(perr.CodeInvalidArgument, "draws must be at most %d", maxDraws))
		return
	}
	params.Guaranteed = q.Get("guaranteed") == "true"

	var budget *gacha.SimBudget
	if goal == gacha.GoalFixedBudget {
		if draws <= 0 {
			writeError(w, r, perr.New(perr.CodeInvalidArgument, "draws is required for %s", goal))
			return
		}
		budget = &gacha.SimBudget{NumDraws: draws}
	}
	stats, err := gacha.RunMonteCarlo(h.cat, nil, params, goal, trials, budget)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// no pity, single draw with probability p
func handleDraw(w http.ResponseWriter, r *http.Request) {
	p, ok, msg := parseFloat(r, "p")
	if !ok {
		if msg == "" {
			msg = "missing param p"
		}
		writeError(w, r, perr.New(perr.CodeInvalidArgument, "%s", msg))
		return
	}
	hit, derr := gacha.Draw(p, nil)
	if derr != nil {
		writeJSON(w, http.StatusBadRequest, drawResp{Err: derr.Error()})
		return
	}
	writeJSON(w, http.StatusOK, drawResp{Hit: hit})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to their status. Anything that is not a
// recoverable domain rejection is logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *perr.Error
	if !errors.As(err, &e) {
		log.Printf("http %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errResp{Code: perr.CodeInternal, Err: "an unexpected error occurred"})
		return
	}
	if !e.Code.Recoverable() {
		log.Printf("http %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, e.Code.HTTPStatus(), errResp{Code: e.Code, Err: e.Error(), Metadata: e.Metadata})
}
