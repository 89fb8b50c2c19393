package reservations

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/voyage-res/voyage-res/internal/platform/httpx"
	"github.com/voyage-res/voyage-res/internal/rbac"
	"github.com/voyage-res/voyage-res/internal/shared"
)

// Handler manages reservation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validate: validator.New()}
}

// MountRoutes registers reservation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermReservationsView))
		r.Get("/", h.listReservations)
		r.Get("/{reservationID}", h.getReservation)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermReservationsEdit))
		r.Post("/", h.createReservation)
		r.Post("/{reservationID}/cancel", h.cancelReservation)
	})
}

type reservationResponse struct {
	ID            int64     `json:"id"`
	Code          string    `json:"code"`
	PassengerName string    `json:"passenger_name"`
	FlightNumber  string    `json:"flight_number"`
	TravelDate    time.Time `json:"travel_date"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h *Handler) listReservations(w http.ResponseWriter, r *http.Request) {
	req := ListRequest{
		FlightNumber: r.URL.Query().Get("flight"),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := Status(raw)
		req.Status = &status
	}
	req.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	req.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	result, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, "list reservations", err)
		return
	}
	out := make([]reservationResponse, 0, len(result.Reservations))
	for _, res := range result.Reservations {
		out = append(out, toReservationResponse(res))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"reservations": out,
		"paging": map[string]int{
			"page":        result.Paging.Page,
			"per_page":    result.Paging.PerPage,
			"total":       result.Paging.Total,
			"total_pages": result.Paging.TotalPages,
		},
	})
}

func (h *Handler) getReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	res, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get reservation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toReservationResponse(res))
}

type createReservationRequest struct {
	PassengerName string    `json:"passenger_name" validate:"required,min=2,max=100"`
	FlightNumber  string    `json:"flight_number" validate:"required,min=3,max=10"`
	TravelDate    time.Time `json:"travel_date" validate:"required"`
}

func (h *Handler) createReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var createdBy int64
	if actor := shared.ActorFromContext(r.Context()); actor != nil {
		createdBy = actor.UserID
	}
	res, err := h.service.Create(r.Context(), CreateInput{
		PassengerName: req.PassengerName,
		FlightNumber:  req.FlightNumber,
		TravelDate:    req.TravelDate,
		CreatedBy:     createdBy,
	})
	if err != nil {
		h.respondError(w, "create reservation", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toReservationResponse(res))
}

func (h *Handler) cancelReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Cancel(r.Context(), id); err != nil {
		h.respondError(w, "cancel reservation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "reservationID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Path", "reservationID must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func toReservationResponse(res Reservation) reservationResponse {
	return reservationResponse{
		ID:            res.ID,
		Code:          res.Code,
		PassengerName: res.PassengerName,
		FlightNumber:  res.FlightNumber,
		TravelDate:    res.TravelDate,
		Status:        res.Status,
		CreatedAt:     res.CreatedAt,
	}
}
