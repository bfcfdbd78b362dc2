package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/burgerhouse/ordering-backend/internal/domain"
	"github.com/burgerhouse/ordering-backend/internal/ticket"
)

// Repository is the persistence surface the handler needs. It is satisfied
// by *OrderRepository; tests provide fakes.
type Repository interface {
	PlaceOrder(ctx context.Context, tableID int64, customerName string, items []PlaceOrderItem) (int64, error)
	List(ctx context.Context) ([]domain.OrderView, error)
	GetView(ctx context.Context, id int64) (domain.OrderView, error)
	ListItems(ctx context.Context, id int64) ([]domain.LineItem, error)
	MarkReady(ctx context.Context, id int64) error
}

type TicketRenderer interface {
	Render(view domain.OrderView) ([]byte, error)
}

type TicketStore interface {
	Store(orderID int64, data []byte) error
	Retrieve(orderID int64) ([]byte, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Handler struct {
	repo     Repository
	renderer TicketRenderer
	tickets  TicketStore
	producer EventPublisher
	logger   *slog.Logger
}

// NewHandler wires the order endpoints. producer may be nil when no broker
// is configured.
func NewHandler(repo Repository, renderer TicketRenderer, tickets TicketStore, producer EventPublisher, logger *slog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		renderer: renderer,
		tickets:  tickets,
		producer: producer,
		logger:   logger,
	}
}

// Wire field names follow the original consumer clients.
type placeOrderRequest struct {
	TableID      int64            `json:"mesa_id"`
	CustomerName string           `json:"user_name"`
	Items        []placeOrderItem `json:"productos"`
}

type placeOrderItem struct {
	ProductID      int64          `json:"producto_id"`
	Quantity       int            `json:"cantidad"`
	Customizations map[string]any `json:"ingredientes"`
}

// HandlePlace serves POST /pedido.
func (h *Handler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]PlaceOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, PlaceOrderItem{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			Customizations: item.Customizations,
		})
	}

	orderID, err := h.repo.PlaceOrder(r.Context(), req.TableID, req.CustomerName, items)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyOrder), errors.Is(err, ErrInvalidQuantity):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrTableNotFound):
			h.writeError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("failed to place order", "error", err)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	if h.producer != nil {
		event := domain.OrderPlacedEvent{
			OrderID:      orderID,
			TableID:      req.TableID,
			CustomerName: req.CustomerName,
			Timestamp:    time.Now().UTC(),
		}
		if err := h.producer.Publish(r.Context(), strconv.FormatInt(orderID, 10), event); err != nil {
			h.logger.Error("failed to publish order placed event", "error", err, "order_id", orderID)
		}
	}

	h.logger.Info("order placed", "order_id", orderID, "table_id", req.TableID, "items", len(items))
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"order_id": orderID,
		"status":   domain.OrderStatusAccepted,
	})
}

// HandleList serves GET /admin/pedidos.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, views)
}

// HandleDetails serves GET /admin/pedidos/{id}/detalles.
func (h *Handler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	items, err := h.repo.ListItems(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			h.writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("failed to list order items", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, items)
}

// HandleMarkReady serves PUT /admin/pedidos/{id}.
func (h *Handler) HandleMarkReady(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	if err := h.repo.MarkReady(r.Context(), id); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			h.writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("failed to mark order ready", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("order marked ready", "order_id", id)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"order_id": id,
		"status":   domain.OrderStatusReady,
	})
}

// HandleTicket serves GET /admin/pedidos/{id}/ticket: it aggregates the
// order, renders the PDF, stores the artifact and returns the bytes. The
// view is resolved before anything touches the ticket store, so an unknown
// order never leaves a file behind. Re-rendering overwrites the previous
// artifact.
func (h *Handler) HandleTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	view, err := h.repo.GetView(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			h.writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("failed to aggregate order", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	data, err := h.renderer.Render(view)
	if err != nil {
		h.logger.Error("failed to render ticket", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "failed to render ticket")
		return
	}

	if err := h.tickets.Store(id, data); err != nil {
		h.logger.Error("failed to store ticket", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "failed to store ticket")
		return
	}

	h.logger.Info("ticket rendered", "order_id", id, "bytes", len(data))
	h.writePDF(w, data)
}

// HandleTicketArtifact serves GET /tickets/{id}: it returns a previously
// stored ticket without re-rendering.
func (h *Handler) HandleTicketArtifact(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	data, err := h.tickets.Retrieve(id)
	if err != nil {
		if errors.Is(err, ticket.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "ticket not found")
			return
		}
		h.logger.Error("failed to read ticket", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writePDF(w, data)
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return id, true
}

func (h *Handler) writePDF(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write ticket response", "error", err)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
