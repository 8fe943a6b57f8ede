package admin

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const maxBodyBytes = 64 << 10

// Handler — HTTP API панели администратора.
type Handler struct {
	svc    *Service
	token  string
	logger *log.Entry
}

// NewHandler создаёт API; пустой token отключает проверку Authorization.
func NewHandler(svc *Service, token string, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "admin-api")
	}
	return &Handler{svc: svc, token: token, logger: logger}
}

// Mount регистрирует маршруты /api/... в r.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoCache)
		if h.token != "" {
			r.Use(h.requireToken)
		}

		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Get("/orders/{id}/timeline", h.orderTimeline)
		r.Get("/stats", h.stats)
		r.Post("/order/{id}/status", h.updateStatus)

		r.Get("/products", h.listProducts)
		r.Post("/products", h.createProduct)
		r.Put("/products/{id}", h.updateProduct)
		r.Delete("/products/{id}", h.deleteProduct)
		r.Post("/products/{id}/toggle", h.toggleProduct)
	})
}

func (h *Handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, _ := strings.Cut(r.Header.Get("Authorization"), " ")
		if !strings.EqualFold(scheme, "Bearer") ||
			subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(h.token)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	orders, err := h.svc.ListOrders(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, newOrderView(order, h.svc.Location()))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	order, err := h.svc.Order(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(order, h.svc.Location()))
}

func (h *Handler) orderTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	events, err := h.svc.Timeline(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTimelineViews(events, h.svc.Location()))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatsView(stats))
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if _, err := h.svc.UpdateStatus(r.Context(), id, body.Status); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	availableOnly := r.URL.Query().Get("available") == "true"
	products, err := h.svc.Products(r.Context(), availableOnly)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p, h.svc.Location()))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var body productRequest
	if !decodeBody(w, r, &body) {
		return
	}
	product, err := h.svc.CreateProduct(r.Context(), body.product())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newProductView(product, h.svc.Location()))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var body productRequest
	if !decodeBody(w, r, &body) {
		return
	}
	product, err := h.svc.UpdateProduct(r.Context(), chi.URLParam(r, "id"), body.patch())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(product, h.svc.Location()))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) toggleProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.svc.ToggleProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(product, h.svc.Location()))
}

// fail переводит доменную ошибку в HTTP-статус.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrProductExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrProductsDisabled):
		writeError(w, http.StatusNotImplemented, err.Error())
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("admin request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
