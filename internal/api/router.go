package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/proqol/proscore/internal/middleware"
	"github.com/proqol/proscore/internal/scoring"
	"github.com/proqol/proscore/internal/services"
)

type Router struct {
	store   Store
	scoring *services.ScoringService
	export  *services.ExportService
	auth    *services.AuthService
}

func NewRouter(store Store) *Router {
	catalog := scoring.BuiltinCatalog()
	return &Router{
		store:   store,
		scoring: services.NewScoringService(catalog, store),
		export:  services.NewExportService(catalog, store),
		auth:    services.NewAuthService(store, middleware.SignToken),
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", rt.handleRegister) // POST
	mux.HandleFunc("/api/auth/login", rt.handleLogin)       // POST
	mux.HandleFunc("/api/questionnaires", rt.handleQuestionnaires)
	mux.HandleFunc("/api/score", rt.handleScore) // POST
	// Batch and export routes require a tenant-scoped token.
	mux.Handle("/api/batches", middleware.RequireTenant(http.HandlerFunc(rt.handleBatches)))      // POST
	mux.Handle("/api/batches/", middleware.RequireTenant(http.HandlerFunc(rt.handleBatchScoped))) // POST {id}/score, DELETE {id}
	mux.Handle("/api/export", middleware.RequireTenant(http.HandlerFunc(rt.handleExport)))        // GET
}

func writeServiceError(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		}
		http.Error(w, se.Message, status)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// POST /api/auth/register {email, password, tenant_name}
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		TenantName string `json:"tenant_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password, req.TenantName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"token": res.Token, "tenant_id": res.TenantID, "user_id": res.UserID})
}

// POST /api/auth/login {email, password}
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"token": res.Token, "tenant_id": res.TenantID, "user_id": res.UserID})
}

// GET /api/questionnaires
func (rt *Router) handleQuestionnaires(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"questionnaires": rt.scoring.Questionnaires()})
}

// POST /api/score
// { questionnaire, update_items?, keep_nvalid?, records: [{id, items}] }
// Scores inline without persisting anything; no auth required.
func (rt *Router) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Questionnaire string           `json:"questionnaire"`
		UpdateItems   bool             `json:"update_items"`
		KeepNValid    bool             `json:"keep_nvalid"`
		Records       []scoring.Record `json:"records"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Questionnaire == "" {
		http.Error(w, "questionnaire required", http.StatusBadRequest)
		return
	}
	opts := scoring.Options{UpdateItems: req.UpdateItems, KeepNValid: req.KeepNValid}
	results, err := rt.scoring.Score(req.Questionnaire, req.Records, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"questionnaire": req.Questionnaire, "results": results})
}

// POST /api/batches?questionnaire=KEY — body is a wide CSV
func (rt *Router) handleBatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tid, ok := middleware.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	key := r.URL.Query().Get("questionnaire")
	if key == "" {
		http.Error(w, "questionnaire required", http.StatusBadRequest)
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b, err := rt.scoring.ImportBatchCSV(tid, middleware.ActorFromContext(r.Context()), key, data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"batch_id": b.ID, "questionnaire": b.Questionnaire, "records": len(b.Records)})
}

// POST /api/batches/{id}/score {update_items?, keep_nvalid?}
// DELETE /api/batches/{id}
func (rt *Router) handleBatchScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/batches/")
	parts := strings.Split(rest, "/")
	tid, ok := middleware.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	actor := middleware.ActorFromContext(r.Context())
	switch {
	case r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "score":
		var opts scoring.Options
		if r.Body != nil {
			// An empty body means default options.
			if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && err != io.EOF {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		run, err := rt.scoring.ScoreBatch(tid, actor, parts[0], opts)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, map[string]any{"run_id": run.ID, "batch_id": run.BatchID, "results": run.Results})
	case r.Method == http.MethodDelete && len(parts) == 1 && parts[0] != "":
		if err := rt.scoring.PurgeBatch(tid, actor, parts[0]); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "batch_id": parts[0]})
	default:
		http.NotFound(w, r)
	}
}

// GET /api/export?run=...&format=wide|long
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	tid, ok := middleware.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	res, err := rt.export.Export(services.ExportParams{
		TenantID: tid,
		RunID:    r.URL.Query().Get("run"),
		Format:   r.URL.Query().Get("format"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+res.Filename)
	_, _ = w.Write(res.Data)
}
