package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/burgerhouse/ordering-backend/internal/domain"
	"github.com/burgerhouse/ordering-backend/internal/orders"
)

type OrderViews interface {
	GetView(ctx context.Context, id int64) (domain.OrderView, error)
}

type Renderer interface {
	Render(view domain.OrderView) ([]byte, error)
}

type Store interface {
	Store(orderID int64, data []byte) error
}

// TicketHandler pre-renders the PDF ticket when an order.placed event comes
// in, so the artifact is already on disk by the time the kitchen asks for
// it. The admin endpoint re-renders on demand either way; both paths write
// the same file, so they can race safely.
type TicketHandler struct {
	views    OrderViews
	renderer Renderer
	store    Store
	logger   *slog.Logger
}

func NewTicketHandler(views OrderViews, renderer Renderer, store Store, logger *slog.Logger) *TicketHandler {
	return &TicketHandler{
		views:    views,
		renderer: renderer,
		store:    store,
		logger:   logger,
	}
}

func (h *TicketHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}

	h.logger.Info("pre-rendering ticket", "order_id", event.OrderID)

	view, err := h.views.GetView(ctx, event.OrderID)
	if err != nil {
		// Events are published after commit, so a missing order means the
		// event outlived its data; retrying will not help.
		if errors.Is(err, orders.ErrOrderNotFound) {
			h.logger.Warn("order for event no longer exists, skipping", "order_id", event.OrderID)
			return nil
		}
		return fmt.Errorf("aggregate order %d: %w", event.OrderID, err)
	}

	data, err := h.renderer.Render(view)
	if err != nil {
		return fmt.Errorf("render ticket for order %d: %w", event.OrderID, err)
	}

	if err := h.store.Store(event.OrderID, data); err != nil {
		return fmt.Errorf("store ticket for order %d: %w", event.OrderID, err)
	}

	h.logger.Info("ticket pre-rendered", "order_id", event.OrderID, "bytes", len(data))
	return nil
}
