package incidents

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/FedericoTs/dora-comply-sub000/internal/classification"
	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
	"github.com/FedericoTs/dora-comply-sub000/internal/lifecycle"
	"github.com/FedericoTs/dora-comply-sub000/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Pagination constants.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrIncidentNotFound, Status: http.StatusNotFound},
	{Error: ErrIncidentClosed, Status: http.StatusConflict},
	{Error: ErrStatusConflict, Status: http.StatusConflict},
	{Error: ErrVersionConflict, Status: http.StatusConflict},
	{Error: lifecycle.ErrInvalidTransition, Status: http.StatusConflict},
	{Error: ErrReportingNotRequired, Status: http.StatusUnprocessableEntity},
}

// Handler handles HTTP requests for incidents and classification.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new incidents handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers all HTTP routes of the incidents module.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/thresholds", h.ListThresholds)
	r.Post("/classifications/assess", h.Assess)

	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.ListIncidents)
		r.Post("/", h.CreateIncident)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetIncident)
			r.Put("/impact", h.UpdateImpact)
			r.Put("/override", h.SetOverride)
			r.Delete("/override", h.ClearOverride)
			r.Post("/transitions", h.TransitionIncident)
			r.Get("/next-statuses", h.NextStatuses)
			r.Get("/deadlines", h.GetDeadlines)
			r.Get("/history", h.GetHistory)
		})
	})
}

// ImpactRequest is the JSON form of an impact measurement.
type ImpactRequest struct {
	ClientsAffectedPercentage *float64 `json:"clients_affected_percentage"`
	TransactionsValueAffected *float64 `json:"transactions_value_affected"`
	CriticalFunctionsAffected []string `json:"critical_functions_affected" validate:"omitempty,max=50,dive,required,max=255"`
	DataBreach                *bool    `json:"data_breach"`
	DataRecordsAffected       *int64   `json:"data_records_affected" validate:"omitempty,min=0"`
	EconomicImpact            *float64 `json:"economic_impact"`
	ReputationalImpact        *string  `json:"reputational_impact" validate:"omitempty,oneof=low medium high"`
}

// ToDomain converts the request to a domain model.
func (r *ImpactRequest) ToDomain() domain.ImpactMeasurement {
	m := domain.ImpactMeasurement{
		ClientsAffectedPercentage: r.ClientsAffectedPercentage,
		TransactionsValueAffected: r.TransactionsValueAffected,
		CriticalFunctionsAffected: r.CriticalFunctionsAffected,
		DataBreach:                r.DataBreach,
		DataRecordsAffected:       r.DataRecordsAffected,
		EconomicImpact:            r.EconomicImpact,
	}
	if r.ReputationalImpact != nil {
		level := domain.ReputationalImpact(*r.ReputationalImpact)
		m.ReputationalImpact = &level
	}
	return m
}

// OverrideRequest is the JSON form of a classification override.
// Tier and justification rules are enforced by the classification package.
type OverrideRequest struct {
	Enabled       bool   `json:"enabled"`
	Tier          string `json:"tier"`
	Justification string `json:"justification" validate:"max=4000"`
}

// ToDomain converts the request to a domain model.
func (r *OverrideRequest) ToDomain() classification.OverrideRequest {
	if r == nil {
		return classification.OverrideRequest{}
	}
	return classification.OverrideRequest{
		Enabled:       r.Enabled,
		Tier:          domain.Tier(r.Tier),
		Justification: r.Justification,
	}
}

// AssessRequest represents the request body for a stateless classification.
type AssessRequest struct {
	Impact     ImpactRequest    `json:"impact"`
	Override   *OverrideRequest `json:"override"`
	DetectedAt *time.Time       `json:"detected_at"`
}

// CreateIncidentRequest represents the request body for creating an incident.
type CreateIncidentRequest struct {
	Title       string           `json:"title" validate:"required,min=1,max=255"`
	Description string           `json:"description" validate:"max=10000"`
	Impact      ImpactRequest    `json:"impact"`
	Override    *OverrideRequest `json:"override"`
	OccurredAt  *time.Time       `json:"occurred_at"`
	DetectedAt  *time.Time       `json:"detected_at"`
}

// SetOverrideRequest represents the request body for overriding a classification.
type SetOverrideRequest struct {
	Tier          string `json:"tier"`
	Justification string `json:"justification" validate:"max=4000"`
}

// TransitionRequest represents the request body for changing an incident's status.
type TransitionRequest struct {
	Status string `json:"status" validate:"required,oneof=draft detected initial_submitted intermediate_submitted final_submitted closed"`
}

// ListThresholds handles GET /thresholds request.
func (h *Handler) ListThresholds(w http.ResponseWriter, _ *http.Request) {
	httputil.Success(w, http.StatusOK, h.service.Thresholds())
}

// Assess handles POST /classifications/assess request.
func (h *Handler) Assess(w http.ResponseWriter, r *http.Request) {
	var req AssessRequest
	if !h.decode(w, r, &req) {
		return
	}

	assessment, err := h.service.Assess(r.Context(), AssessInput{
		Impact:     req.Impact.ToDomain(),
		Override:   req.Override.ToDomain(),
		DetectedAt: req.DetectedAt,
	})
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, assessment)
}

// CreateIncident handles POST /incidents request.
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if !h.decode(w, r, &req) {
		return
	}

	inc, err := h.service.Create(r.Context(), CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Impact:      req.Impact.ToDomain(),
		Override:    req.Override.ToDomain(),
		OccurredAt:  req.OccurredAt,
		DetectedAt:  req.DetectedAt,
	}, httputil.GetActor(r.Context()))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, inc)
}

// ListIncidents handles GET /incidents request.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{Limit: DefaultListLimit}

	if v := q.Get("status"); v != "" {
		status := domain.IncidentStatus(v)
		if !status.IsValid() {
			httputil.Error(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = &status
	}
	if v := q.Get("classification"); v != "" {
		tier := domain.Tier(v)
		if !tier.IsValid() {
			httputil.Error(w, http.StatusBadRequest, "invalid classification filter")
			return
		}
		filter.Classification = &tier
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			httputil.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = min(limit, MaxListLimit)
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			httputil.Error(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = offset
	}

	list, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"data":   list,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetIncident handles GET /incidents/{id} request.
func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := incidentID(w, r)
	if !ok {
		return
	}

	inc, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, inc)
}

// UpdateImpact handles PUT /incidents/{id}/impact request.
func (h *Handler) UpdateImpact(w http.ResponseWriter, r *http.Request) {
	id, ok := incidentID(w, r)
	if !ok {
		return
	}

	var req ImpactRequest
	if !h.decode(w, r, &req) {
		return
	}

	inc, err := h.service.UpdateImpact(r.Context(), id, req.ToDomain(), httputil.GetActor(r.Context()))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, inc)
}

// SetOverride handles PUT /incidents/{id}/override request.
func (h *Handler) SetOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := incidentID(w, r)
	if !ok {
		return
	}

	var req SetOverrideRequest
	if !h.decode(w, r, &req) {
		return
	}

	inc, err := h.service.SetOverride(r.Context(), id, domain.Tier(req.Tier), req.Justification, httputil.GetActor(r.Context()))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, inc)
}

// ClearOverride handles DELETE /incidents/{id}/override request.
func (h *Handler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := incidentID(w, r)
	if !ok {
		return
	}

	inc, err := h.service.ClearOverride(r.Context(), id, httputil.GetActor(r.Context()))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, inc)
}

// TransitionIncident handles POST /incidents/{id}/transitions request.
func (h *Handler) TransitionIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := incidentID(w, r)
	if !ok {
		return
	}

	var req TransitionRequest
	if !h.decode(w, r, &req) {
		return
	}

	inc, err := h.service.Transition(r.Context(), id, domain.IncidentStatus(req.Status), httputil.GetActor(r.Context()))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, inc)
}

// NextStatuses handles GET /incidents/{id}/next-statuses request.
func (h *Handler) NextStatuses(w http.ResponseWriter, r *http.Request) {
	id, ok := incidentID(w, r)
	if !ok {
		return
	}

	statuses, err := h.service.NextStatuses(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, statuses)
}

// GetDeadlines handles GET /incidents/{id}/deadlines request.
func (h *Handler) GetDeadlines(w http.ResponseWriter, r *http.Request) {
	id, ok := incidentID(w, r)
	if !ok {
		return
	}

	report, err := h.service.Deadlines(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, report)
}

// GetHistory handles GET /incidents/{id}/history request.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := incidentID(w, r)
	if !ok {
		return
	}

	history, err := h.service.History(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, history)
}

// decode reads and validates a JSON body, writing the 400 response itself on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := h.validator.Struct(v); err != nil {
		httputil.ValidationError(w, err)
		return false
	}
	return true
}

func incidentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid incident id")
		return "", false
	}
	return id, true
}
