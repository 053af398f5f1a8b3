package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rl1809/food-shelter/internal/adapter/metrics"
	"github.com/rl1809/food-shelter/internal/core/service"
)

// OwnerHeader carries the authenticated owner id, set by the identity proxy in front of us.
const OwnerHeader = "X-Owner-ID"

const maxBodyBytes = 1 << 20

const (
	msgUnauthorized    = "Unauthorized."
	msgInvalidRequest  = "Invalid request."
	msgInvalidBody     = "Invalid request body."
	msgDuplicate       = "Duplicate request."
	msgStockNotFound   = "Food stock not found."
	msgItemNotFound    = "Food stock item not found."
	msgStockAdded      = "Food stock item added successfully."
	msgStockAddFailed  = "Error adding food stock item. Please try again."
	msgStockUpdated    = "Food stock updated successfully."
	msgStockUpdateFail = "Error updating food stock."
	msgStockDeleted    = "Food stock item deleted successfully."
	msgStockDeleteFail = "Error deleting food stock item."
	msgLoadFailed      = "Error loading data."
	msgSaveFailed      = "Error saving data."
	msgRecordNotFound  = "Record not found."
	msgRecordDeleted   = "Record deleted successfully."
)

type ctxKey struct{}

type HTTPHandler struct {
	inventory *service.InventoryService
	shelters  *service.ShelterService
	records   *service.RecordService
	dashboard *service.DashboardService
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

// NewHTTPHandler builds the JSON API. m may be nil, in which case /metrics is not served.
func NewHTTPHandler(
	inventory *service.InventoryService,
	shelters *service.ShelterService,
	records *service.RecordService,
	dashboard *service.DashboardService,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		inventory: inventory,
		shelters:  shelters,
		records:   records,
		dashboard: dashboard,
		metrics:   m,
		logger:    logger.With().Str("component", "http").Logger(),
		now:       time.Now,
	}
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.accessLog)
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Use(requireOwner)

		r.Route("/stock", func(r chi.Router) {
			r.Post("/", h.CreateStockItem)
			r.Get("/", h.ListStockItems)
			r.Get("/low", h.LowStock)
			r.Get("/expiring", h.ExpiringSoon)
			r.Get("/{id}", h.GetStockItem)
			r.Get("/{id}/deletable", h.CanDeleteStockItem)
			r.Patch("/{id}", h.PatchStockItem)
			r.Put("/{id}", h.ReplaceStockItem)
			r.Delete("/{id}", h.DeleteStockItem)
		})

		r.Route("/shelters", func(r chi.Router) {
			r.Post("/", h.CreateShelterLocation)
			r.Get("/", h.ListShelterLocations)
			r.Delete("/{id}", h.deleteRecord(h.shelters.Delete))
		})
		r.Route("/notes", func(r chi.Router) {
			r.Post("/", h.CreateNote)
			r.Get("/", h.ListNotes)
			r.Delete("/{id}", h.deleteRecord(h.records.DeleteNote))
		})
		r.Route("/volunteers", func(r chi.Router) {
			r.Post("/", h.CreateVolunteer)
			r.Get("/", h.ListVolunteers)
			r.Delete("/{id}", h.deleteRecord(h.records.DeleteVolunteer))
		})
		r.Route("/budget", func(r chi.Router) {
			r.Post("/", h.CreateBudgetEntry)
			r.Get("/", h.ListBudgetEntries)
			r.Delete("/{id}", h.deleteRecord(h.records.DeleteBudgetEntry))
		})
		r.Route("/donations", func(r chi.Router) {
			r.Post("/", h.CreateDonation)
			r.Get("/", h.ListDonations)
			r.Delete("/{id}", h.deleteRecord(h.records.DeleteDonation))
		})

		r.Get("/dashboard", h.Dashboard)
	})
	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) CreateStockItem(w http.ResponseWriter, r *http.Request) {
	var req StockItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.fail(w, r, err, msgStockAddFailed)
		return
	}

	item, err := h.inventory.Create(r.Context(), ownerFrom(r), req.RequestID, in)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateRequest) {
			h.metrics.ObserveDuplicateCreate()
		}
		h.fail(w, r, err, msgStockAddFailed)
		return
	}
	writeJSON(w, http.StatusCreated, Response{Success: true, Message: msgStockAdded, Item: toStockItemJSON(item)})
}

func (h *HTTPHandler) ListStockItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.List(r.Context(), ownerFrom(r))
	if err != nil {
		h.fail(w, r, err, msgLoadFailed)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Items: toStockItemsJSON(items)})
}

func (h *HTTPHandler) GetStockItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.inventory.Get(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, msgLoadFailed)
		return
	}
	if item == nil {
		writeJSON(w, http.StatusNotFound, Response{Success: false, Message: msgStockNotFound})
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Item: toStockItemJSON(*item)})
}

func (h *HTTPHandler) PatchStockItem(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: msgInvalidBody})
		return
	}

	item, err := h.inventory.ApplyPatch(r.Context(), ownerFrom(r), chi.URLParam(r, "id"), patchFields(raw))
	if err != nil {
		h.fail(w, r, err, msgStockUpdateFail)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: msgStockUpdated, Item: toStockItemJSON(item)})
}

func (h *HTTPHandler) ReplaceStockItem(w http.ResponseWriter, r *http.Request) {
	var req StockItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if req.ID != "" && req.ID != id {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: msgInvalidRequest})
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.fail(w, r, err, msgStockUpdateFail)
		return
	}

	item, err := h.inventory.Replace(r.Context(), ownerFrom(r), id, in)
	if err != nil {
		h.fail(w, r, err, msgStockUpdateFail)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: msgStockUpdated, Item: toStockItemJSON(item)})
}

func (h *HTTPHandler) DeleteStockItem(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.inventory.Delete(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, msgStockDeleteFail)
		return
	}
	if outcome == service.DeleteOutcomeNotFound {
		writeJSON(w, http.StatusNotFound, Response{Success: false, Message: msgItemNotFound})
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: msgStockDeleted})
}

type deleteCheckResponse struct {
	Success           bool     `json:"success"`
	Allowed           bool     `json:"allowed"`
	BlockingMealPlans []string `json:"blockingMealPlans"`
}

func (h *HTTPHandler) CanDeleteStockItem(w http.ResponseWriter, r *http.Request) {
	check, err := h.inventory.CanDelete(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, msgLoadFailed)
		return
	}
	plans := check.BlockingMealPlans
	if plans == nil {
		plans = []string{}
	}
	writeJSON(w, http.StatusOK, deleteCheckResponse{Success: true, Allowed: check.Allowed, BlockingMealPlans: plans})
}

func (h *HTTPHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.LowStock(r.Context(), ownerFrom(r))
	if err != nil {
		h.fail(w, r, err, msgLoadFailed)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Items: toStockItemsJSON(items)})
}

func (h *HTTPHandler) ExpiringSoon(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.ExpiringSoon(r.Context(), ownerFrom(r), h.now().UTC())
	if err != nil {
		h.fail(w, r, err, msgLoadFailed)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Items: toStockItemsJSON(items)})
}

type shelterRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

func (h *HTTPHandler) CreateShelterLocation(w http.ResponseWriter, r *http.Request) {
	var req shelterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.shelters.Create(r.Context(), ownerFrom(r), service.ShelterInput{Name: req.Name, Address: req.Address})
	if err != nil {
		h.fail(w, r, err, msgSaveFailed)
		return
	}
	writeJSON(w, http.StatusCreated, Response{
		Success:  true,
		Message:  "Shelter location added successfully",
		Warnings: res.Warnings,
		Item:     toShelterJSON(res.Location),
	})
}

func (h *HTTPHandler) ListShelterLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := h.shelters.List(r.Context(), ownerFrom(r))
	if err != nil {
		h.fail(w, r, err, msgLoadFailed)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Items: mapSlice(locs, toShelterJSON)})
}

func (h *HTTPHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	note, err := h.records.CreateNote(r.Context(), ownerFrom(r), service.NoteInput{Content: req.Content})
	if err != nil {
		h.fail(w, r, err, msgSaveFailed)
		return
	}
	writeJSON(w, http.StatusCreated, Response{Success: true, Message: "Note added successfully", Item: toNoteJSON(note)})
}

func (h *HTTPHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.records.ListNotes(r.Context(), ownerFrom(r))
	if err != nil {
		h.fail(w, r, err, msgLoadFailed)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Items: mapSlice(notes, toNoteJSON)})
}

func (h *HTTPHandler) CreateVolunteer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		Email        string `json:"email"`
		Phone        string `json:"phone"`
		Availability string `json:"availability"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	v, err := h.records.CreateVolunteer(r.Context(), ownerFrom(r), service.VolunteerInput{
		Name: req.Name, Email: req.Email, Phone: req.Phone, Availability: req.Availability,
	})
	if err != nil {
		h.fail(w, r, err, msgSaveFailed)
		return
	}
	writeJSON(w, http.StatusCreated, Response{Success: true, Message: "Volunteer added successfully", Item: toVolunteerJSON(v)})
}

func (h *HTTPHandler) ListVolunteers(w http.ResponseWriter, r *http.Request) {
	vs, err := h.records.ListVolunteers(r.Context(), ownerFrom(r))
	if err != nil {
		h.fail(w, r, err, msgLoadFailed)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Items: mapSlice(vs, toVolunteerJSON)})
}

type amountRequest struct {
	Description string          `json:"description"`
	Category    string          `json:"category"`
	DonorName   string          `json:"donorName"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
}

func (h *HTTPHandler) CreateBudgetEntry(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	date, err := parseDay("date", req.Date)
	if err != nil {
		h.fail(w, r, err, msgSaveFailed)
		return
	}
	b, err := h.records.CreateBudgetEntry(r.Context(), ownerFrom(r), service.BudgetEntryInput{
		Description: req.Description, Category: req.Category, Amount: req.Amount, Date: date,
	})
	if err != nil {
		h.fail(w, r, err, msgSaveFailed)
		return
	}
	writeJSON(w, http.StatusCreated, Response{Success: true, Message: "Budget entry added successfully", Item: toBudgetEntryJSON(b)})
}

func (h *HTTPHandler) ListBudgetEntries(w http.ResponseWriter, r *http.Request) {
	bs, err := h.records.ListBudgetEntries(r.Context(), ownerFrom(r))
	if err != nil {
		h.fail(w, r, err, msgLoadFailed)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Items: mapSlice(bs, toBudgetEntryJSON)})
}

func (h *HTTPHandler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	date, err := parseDay("date", req.Date)
	if err != nil {
		h.fail(w, r, err, msgSaveFailed)
		return
	}
	d, err := h.records.CreateDonation(r.Context(), ownerFrom(r), service.DonationInput{
		DonorName: req.DonorName, Description: req.Description, Amount: req.Amount, Date: date,
	})
	if err != nil {
		h.fail(w, r, err, msgSaveFailed)
		return
	}
	writeJSON(w, http.StatusCreated, Response{Success: true, Message: "Donation added successfully", Item: toDonationJSON(d)})
}

func (h *HTTPHandler) ListDonations(w http.ResponseWriter, r *http.Request) {
	ds, err := h.records.ListDonations(r.Context(), ownerFrom(r))
	if err != nil {
		h.fail(w, r, err, msgLoadFailed)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Items: mapSlice(ds, toDonationJSON)})
}

// deleteRecord serves the owner-scoped deletes that report only whether a row matched.
func (h *HTTPHandler) deleteRecord(del func(ctx context.Context, ownerID, id string) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := del(r.Context(), ownerFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			h.fail(w, r, err, msgSaveFailed)
			return
		}
		if !ok {
			writeJSON(w, http.StatusNotFound, Response{Success: false, Message: msgRecordNotFound})
			return
		}
		writeJSON(w, http.StatusOK, Response{Success: true, Message: msgRecordDeleted})
	}
}

func (h *HTTPHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboard.Load(r.Context(), ownerFrom(r))
	if err != nil {
		h.fail(w, r, err, msgLoadFailed)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success   bool          `json:"success"`
		Dashboard DashboardJSON `json:"dashboard"`
	}{true, toDashboardJSON(d)})
}

// fail maps service errors onto status codes. Anything unrecognised is logged and
// answered with fallback so storage details never reach the client.
func (h *HTTPHandler) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		verr     *service.ValidationError
		conflict *service.DependencyConflictError
		missing  *service.MissingFieldError
		invalid  *service.InvalidFieldError
	)
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, Response{Success: false, Message: msgUnauthorized})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Response{Success: false, Message: msgStockNotFound})
	case errors.Is(err, service.ErrDuplicateRequest):
		writeJSON(w, http.StatusConflict, Response{Success: false, Message: msgDuplicate})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: msgInvalidRequest, Errors: verr.Problems})
	case errors.As(err, &missing):
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: missing.Error(), Errors: []string{missing.Error()}})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: invalid.Error(), Errors: []string{invalid.Error()}})
	case errors.As(err, &conflict):
		h.metrics.ObserveBlockedDelete()
		writeJSON(w, http.StatusConflict, Response{Success: false, Message: conflict.Error(), BlockingMealPlans: conflict.MealPlans})
	default:
		h.logger.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, Response{Success: false, Message: fallback})
	}
}

func (h *HTTPHandler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := r.Header.Get(OwnerHeader)
		if owner == "" {
			writeJSON(w, http.StatusUnauthorized, Response{Success: false, Message: msgUnauthorized})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, owner)))
	})
}

func ownerFrom(r *http.Request) string {
	owner, _ := r.Context().Value(ctxKey{}).(string)
	return owner
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: msgInvalidBody})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
