/*
handlers.go - HTTP handler implementations

PURPOSE:
  Implements the admin endpoints. Each handler follows the same shape:
  1. Parse URL params and request body
  2. Resolve the acting operator
  3. Invoke the propagation engine
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Missing rule set / rule / plan / customer
  - 502: A chunk commit failed; earlier chunks stand, re-run is safe
  - 500: Everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - propagate: The pipelines these handlers invoke
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/craftdesk/plan-engine/plan"
	"github.com/craftdesk/plan-engine/propagate"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *propagate.Engine
}

// NewHandler creates a new handler around a propagation engine.
func NewHandler(engine *propagate.Engine) *Handler {
	return &Handler{Engine: engine}
}

// actor resolves the operator identity for audit stamps. Session
// management is external; the dashboard forwards the operator's email.
func actor(r *http.Request) string {
	if email := r.Header.Get("X-Actor-Email"); email != "" {
		return email
	}
	return "admin"
}

func packageKey(w http.ResponseWriter, r *http.Request) (plan.PackageKey, bool) {
	pkg := plan.PackageKey(chi.URLParam(r, "package"))
	if !pkg.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown package key", nil)
		return "", false
	}
	return pkg, true
}

// =============================================================================
// PACKAGE ENDPOINTS
// =============================================================================

// ListPackages returns every package key with its display label.
// GET /api/packages
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	keys := plan.Packages()
	dtos := make([]PackageDTO, len(keys))
	for i, k := range keys {
		dtos[i] = PackageDTO{Key: k, Label: k.Label()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RULE SET ENDPOINTS
// =============================================================================

// GetRuleSet returns a package's rule set.
// GET /api/rulesets/{package}
func (h *Handler) GetRuleSet(w http.ResponseWriter, r *http.Request) {
	pkg, ok := packageKey(w, r)
	if !ok {
		return
	}

	rs, err := h.Engine.GetRuleSet(r.Context(), pkg)
	if err != nil {
		writeEngineError(w, "Failed to load rule set", err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// SaveSections replaces a rule set's section ordering.
// PUT /api/rulesets/{package}/sections
func (h *Handler) SaveSections(w http.ResponseWriter, r *http.Request) {
	pkg, ok := packageKey(w, r)
	if !ok {
		return
	}

	var req SaveSectionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rs, err := h.Engine.SaveSections(r.Context(), pkg, req.Sections, actor(r))
	if err != nil {
		writeEngineError(w, "Failed to save sections", err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

// InitPackage clones the default rule set into the target package.
// POST /api/rulesets/{package}/init
func (h *Handler) InitPackage(w http.ResponseWriter, r *http.Request) {
	pkg, ok := packageKey(w, r)
	if !ok {
		return
	}

	rs, err := h.Engine.InitPackage(r.Context(), pkg, actor(r))
	if err != nil {
		writeEngineError(w, "Failed to initialize package", err)
		return
	}
	writeJSON(w, http.StatusCreated, rs)
}

// CreateRule adds a rule to a package's rule set.
// POST /api/rulesets/{package}/rules
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	h.saveRule(w, r, "")
}

// UpdateRule replaces an existing rule by id.
// PUT /api/rulesets/{package}/rules/{id}
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	h.saveRule(w, r, plan.RuleID(chi.URLParam(r, "id")))
}

func (h *Handler) saveRule(w http.ResponseWriter, r *http.Request, id plan.RuleID) {
	pkg, ok := packageKey(w, r)
	if !ok {
		return
	}

	var req SaveRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if id != "" {
		req.Rule.ID = id
	}

	rule, err := h.Engine.SaveRule(r.Context(), pkg, req.Rule, actor(r))
	if err != nil {
		writeEngineError(w, "Failed to save rule", err)
		return
	}

	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, rule)
}

// DeleteRule removes a rule from a package's rule set. Customer task
// instances already created from it are untouched.
// DELETE /api/rulesets/{package}/rules/{id}
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	pkg, ok := packageKey(w, r)
	if !ok {
		return
	}

	if err := h.Engine.DeleteRule(r.Context(), pkg, plan.RuleID(chi.URLParam(r, "id")), actor(r)); err != nil {
		writeEngineError(w, "Failed to delete rule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PROPAGATION ENDPOINTS
// =============================================================================

// ApplyRule pushes one rule to every matching customer's plan.
// POST /api/rulesets/{package}/rules/{id}/apply
func (h *Handler) ApplyRule(w http.ResponseWriter, r *http.Request) {
	pkg, ok := packageKey(w, r)
	if !ok {
		return
	}

	result, err := h.Engine.ApplyRule(r.Context(), pkg, plan.RuleID(chi.URLParam(r, "id")), actor(r))
	if err != nil {
		writeEngineError(w, "Failed to apply rule", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ResyncAll applies the whole current rule set to every matching
// customer's entire plan.
// POST /api/rulesets/{package}/resync
func (h *Handler) ResyncAll(w http.ResponseWriter, r *http.Request) {
	pkg, ok := packageKey(w, r)
	if !ok {
		return
	}

	result, err := h.Engine.ResyncAll(r.Context(), pkg, actor(r))
	if err != nil {
		writeEngineError(w, "Failed to resync plans", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// CUSTOMER ENDPOINTS
// =============================================================================

// ListCustomers returns the selection view: paid customers, optionally
// narrowed to a package, optionally active only.
// GET /api/customers?package=acceleratorPro&active=true
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	pkg := plan.PackageKey(r.URL.Query().Get("package"))
	if pkg != "" && !pkg.Valid() {
		writeError(w, http.StatusBadRequest, "Unknown package key", nil)
		return
	}

	customers, err := h.Engine.Store.ListCustomers(r.Context(), plan.CustomerFilter{
		Type:        plan.CustomerPaid,
		PackageType: pkg,
		ActiveOnly:  r.URL.Query().Get("active") == "true",
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list customers", err)
		return
	}

	dtos := make([]CustomerDTO, len(customers))
	for i, c := range customers {
		dtos[i] = CustomerDTO{
			ID:          c.ID,
			Email:       c.Email,
			Type:        c.Type,
			PackageType: c.PackageType,
			IsActive:    c.IsActive,
		}
		if c.DateJoined != nil {
			dtos[i].DateJoined = plan.FormatDate(*c.DateJoined)
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPlan returns a customer's plan, materializing it on first access.
// GET /api/customers/{id}/plan
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := plan.CustomerID(chi.URLParam(r, "id"))

	p, err := h.Engine.ViewPlan(r.Context(), id, actor(r))
	if err != nil {
		writeEngineError(w, "Failed to load plan", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateTask applies a customer edit to one task.
// PUT /api/customers/{id}/plan/tasks/{taskID}
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := plan.CustomerID(chi.URLParam(r, "id"))
	taskID := plan.RuleID(chi.URLParam(r, "taskID"))

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	upd := propagate.TaskUpdate{
		Progress:            req.Progress,
		CompletedDate:       req.CompletedDate,
		Current:             req.Current,
		Notes:               req.Notes,
		AssignedTeamMembers: req.AssignedTeamMembers,
		Files:               req.Files,
	}
	for _, st := range req.SubTasks {
		upd.SubTasks = append(upd.SubTasks, propagate.SubTaskUpdate{
			ID:            st.ID,
			IsCompleted:   st.IsCompleted,
			CompletedDate: st.CompletedDate,
		})
	}

	task, err := h.Engine.UpdateTask(r.Context(), id, taskID, upd, actor(r))
	if err != nil {
		writeEngineError(w, "Failed to update task", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// AddAdHocTask appends a customer-created task to a plan section.
// POST /api/customers/{id}/plan/tasks
func (h *Handler) AddAdHocTask(w http.ResponseWriter, r *http.Request) {
	id := plan.CustomerID(chi.URLParam(r, "id"))

	var req AddTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	task, err := h.Engine.AddAdHocTask(r.Context(), id, req.Section, req.Name, actor(r))
	if err != nil {
		writeEngineError(w, "Failed to add task", err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine errors onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case plan.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case plan.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, plan.ErrWriteFailed):
		// Chunks committed before the failure stand; the operation is
		// safe to re-run because merges are idempotent.
		writeError(w, http.StatusBadGateway, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
