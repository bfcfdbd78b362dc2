package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/burgerhouse/ordering-backend/internal/domain"
	"github.com/burgerhouse/ordering-backend/internal/ticket"
)

type fakeRepo struct {
	placeErr     error
	placedID     int64
	placedItems  []PlaceOrderItem
	views        map[int64]domain.OrderView
	markReadyIDs []int64
	markReadyErr error
}

func (f *fakeRepo) PlaceOrder(_ context.Context, tableID int64, customerName string, items []PlaceOrderItem) (int64, error) {
	if f.placeErr != nil {
		return 0, f.placeErr
	}
	f.placedItems = items
	return f.placedID, nil
}

func (f *fakeRepo) List(context.Context) ([]domain.OrderView, error) {
	views := []domain.OrderView{}
	for _, v := range f.views {
		views = append(views, v)
	}
	return views, nil
}

func (f *fakeRepo) GetView(_ context.Context, id int64) (domain.OrderView, error) {
	view, ok := f.views[id]
	if !ok {
		return domain.OrderView{}, fmt.Errorf("order %d: %w", id, ErrOrderNotFound)
	}
	return view, nil
}

func (f *fakeRepo) ListItems(_ context.Context, id int64) ([]domain.LineItem, error) {
	if _, ok := f.views[id]; !ok {
		return nil, fmt.Errorf("order %d: %w", id, ErrOrderNotFound)
	}
	return []domain.LineItem{}, nil
}

func (f *fakeRepo) MarkReady(_ context.Context, id int64) error {
	if f.markReadyErr != nil {
		return f.markReadyErr
	}
	f.markReadyIDs = append(f.markReadyIDs, id)
	return nil
}

type fakeRenderer struct {
	data []byte
	err  error
}

func (f *fakeRenderer) Render(domain.OrderView) ([]byte, error) {
	return f.data, f.err
}

type fakeTicketStore struct {
	stored map[int64][]byte
}

func newFakeTicketStore() *fakeTicketStore {
	return &fakeTicketStore{stored: map[int64][]byte{}}
}

func (f *fakeTicketStore) Store(orderID int64, data []byte) error {
	f.stored[orderID] = data
	return nil
}

func (f *fakeTicketStore) Retrieve(orderID int64) ([]byte, error) {
	data, ok := f.stored[orderID]
	if !ok {
		return nil, fmt.Errorf("ticket for order %d: %w", orderID, ticket.ErrNotFound)
	}
	return data, nil
}

type fakePublisher struct {
	events []any
}

func (f *fakePublisher) Publish(_ context.Context, _ string, event any) error {
	f.events = append(f.events, event)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_HandlePlace(t *testing.T) {
	t.Run("creates order and publishes event", func(t *testing.T) {
		repo := &fakeRepo{placedID: 42}
		publisher := &fakePublisher{}
		handler := NewHandler(repo, &fakeRenderer{}, newFakeTicketStore(), publisher, discardLogger())

		body := `{"mesa_id": 2, "user_name": "Ana", "productos": [{"producto_id": 7, "cantidad": 2, "ingredientes": {"sin_cebolla": true}}]}`
		req := httptest.NewRequest(http.MethodPost, "/pedido", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandlePlace(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["order_id"].(float64) != 42 {
			t.Errorf("expected order_id 42, got %v", resp["order_id"])
		}
		if resp["status"] != string(domain.OrderStatusAccepted) {
			t.Errorf("expected status accepted, got %v", resp["status"])
		}

		if len(repo.placedItems) != 1 || repo.placedItems[0].ProductID != 7 || repo.placedItems[0].Quantity != 2 {
			t.Errorf("unexpected items passed to repository: %+v", repo.placedItems)
		}
		if repo.placedItems[0].Customizations["sin_cebolla"] != true {
			t.Errorf("customizations not forwarded: %+v", repo.placedItems[0].Customizations)
		}

		if len(publisher.events) != 1 {
			t.Fatalf("expected 1 published event, got %d", len(publisher.events))
		}
		event := publisher.events[0].(domain.OrderPlacedEvent)
		if event.OrderID != 42 || event.TableID != 2 {
			t.Errorf("unexpected event: %+v", event)
		}
	})

	t.Run("rejects invalid body", func(t *testing.T) {
		handler := NewHandler(&fakeRepo{}, &fakeRenderer{}, newFakeTicketStore(), nil, discardLogger())

		req := httptest.NewRequest(http.MethodPost, "/pedido", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()

		handler.HandlePlace(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("maps validation errors to 400", func(t *testing.T) {
		for _, err := range []error{ErrEmptyOrder, fmt.Errorf("product 7: %w", ErrInvalidQuantity)} {
			repo := &fakeRepo{placeErr: err}
			handler := NewHandler(repo, &fakeRenderer{}, newFakeTicketStore(), nil, discardLogger())

			req := httptest.NewRequest(http.MethodPost, "/pedido", strings.NewReader(`{"mesa_id": 1, "productos": []}`))
			rec := httptest.NewRecorder()

			handler.HandlePlace(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400 for %v, got %d", err, rec.Code)
			}
		}
	})

	t.Run("maps unknown product and table to 404", func(t *testing.T) {
		for _, err := range []error{
			fmt.Errorf("product 999: %w", ErrProductNotFound),
			fmt.Errorf("table 99: %w", ErrTableNotFound),
		} {
			repo := &fakeRepo{placeErr: err}
			handler := NewHandler(repo, &fakeRenderer{}, newFakeTicketStore(), nil, discardLogger())

			body := `{"mesa_id": 99, "user_name": "Ana", "productos": [{"producto_id": 999, "cantidad": 1}]}`
			req := httptest.NewRequest(http.MethodPost, "/pedido", strings.NewReader(body))
			rec := httptest.NewRecorder()

			handler.HandlePlace(rec, req)

			if rec.Code != http.StatusNotFound {
				t.Errorf("expected status 404 for %v, got %d", err, rec.Code)
			}
		}
	})

	t.Run("works without a publisher", func(t *testing.T) {
		repo := &fakeRepo{placedID: 7}
		handler := NewHandler(repo, &fakeRenderer{}, newFakeTicketStore(), nil, discardLogger())

		body := `{"mesa_id": 1, "user_name": "Luis", "productos": [{"producto_id": 1, "cantidad": 1}]}`
		req := httptest.NewRequest(http.MethodPost, "/pedido", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandlePlace(rec, req)

		if rec.Code != http.StatusCreated {
			t.Errorf("expected status 201, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleMarkReady(t *testing.T) {
	mux := func(h *Handler) *http.ServeMux {
		m := http.NewServeMux()
		m.HandleFunc("PUT /admin/pedidos/{id}", h.HandleMarkReady)
		return m
	}

	t.Run("marks order ready", func(t *testing.T) {
		repo := &fakeRepo{}
		handler := NewHandler(repo, &fakeRenderer{}, newFakeTicketStore(), nil, discardLogger())

		req := httptest.NewRequest(http.MethodPut, "/admin/pedidos/5", nil)
		rec := httptest.NewRecorder()
		mux(handler).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if len(repo.markReadyIDs) != 1 || repo.markReadyIDs[0] != 5 {
			t.Errorf("expected MarkReady(5), got %v", repo.markReadyIDs)
		}
	})

	t.Run("repeating the transition still succeeds", func(t *testing.T) {
		repo := &fakeRepo{}
		handler := NewHandler(repo, &fakeRenderer{}, newFakeTicketStore(), nil, discardLogger())

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodPut, "/admin/pedidos/5", nil)
			rec := httptest.NewRecorder()
			mux(handler).ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("attempt %d: expected status 200, got %d", i+1, rec.Code)
			}
		}
	})

	t.Run("unknown order returns 404", func(t *testing.T) {
		repo := &fakeRepo{markReadyErr: fmt.Errorf("order 99: %w", ErrOrderNotFound)}
		handler := NewHandler(repo, &fakeRenderer{}, newFakeTicketStore(), nil, discardLogger())

		req := httptest.NewRequest(http.MethodPut, "/admin/pedidos/99", nil)
		rec := httptest.NewRecorder()
		mux(handler).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("non-numeric id returns 400", func(t *testing.T) {
		handler := NewHandler(&fakeRepo{}, &fakeRenderer{}, newFakeTicketStore(), nil, discardLogger())

		req := httptest.NewRequest(http.MethodPut, "/admin/pedidos/abc", nil)
		rec := httptest.NewRecorder()
		mux(handler).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleTicket(t *testing.T) {
	mux := func(h *Handler) *http.ServeMux {
		m := http.NewServeMux()
		m.HandleFunc("GET /admin/pedidos/{id}/ticket", h.HandleTicket)
		return m
	}

	view := domain.OrderView{
		ID:           3,
		CreatedAt:    time.Date(2026, 3, 5, 13, 45, 7, 0, time.UTC),
		Status:       domain.OrderStatusAccepted,
		TableNumber:  2,
		CustomerName: "Ana",
		Total:        1850,
		Items: []domain.LineItemView{
			{ProductID: 7, Name: "Refresco de Cola", Quantity: 2, UnitPrice: 500},
			{ProductID: 3, Name: "Hamburguesa Vegana", Quantity: 1, UnitPrice: 850},
		},
	}

	t.Run("renders, stores and returns the ticket", func(t *testing.T) {
		repo := &fakeRepo{views: map[int64]domain.OrderView{3: view}}
		store := newFakeTicketStore()
		handler := NewHandler(repo, &fakeRenderer{data: []byte("%PDF-fake")}, store, nil, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/admin/pedidos/3/ticket", nil)
		rec := httptest.NewRecorder()
		mux(handler).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("expected application/pdf, got %s", ct)
		}
		if string(store.stored[3]) != "%PDF-fake" {
			t.Errorf("ticket was not stored")
		}
		if rec.Body.String() != "%PDF-fake" {
			t.Errorf("unexpected body: %q", rec.Body.String())
		}
	})

	t.Run("unknown order fails before any file write", func(t *testing.T) {
		repo := &fakeRepo{views: map[int64]domain.OrderView{}}
		store := newFakeTicketStore()
		handler := NewHandler(repo, &fakeRenderer{data: []byte("%PDF-fake")}, store, nil, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/admin/pedidos/99/ticket", nil)
		rec := httptest.NewRecorder()
		mux(handler).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
		if len(store.stored) != 0 {
			t.Errorf("expected no stored tickets, got %d", len(store.stored))
		}
	})

	t.Run("render failure does not store", func(t *testing.T) {
		repo := &fakeRepo{views: map[int64]domain.OrderView{3: view}}
		store := newFakeTicketStore()
		handler := NewHandler(repo, &fakeRenderer{err: fmt.Errorf("font missing")}, store, nil, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/admin/pedidos/3/ticket", nil)
		rec := httptest.NewRecorder()
		mux(handler).ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rec.Code)
		}
		if len(store.stored) != 0 {
			t.Errorf("expected no stored tickets, got %d", len(store.stored))
		}
	})
}

func TestHandler_HandleTicketArtifact(t *testing.T) {
	mux := func(h *Handler) *http.ServeMux {
		m := http.NewServeMux()
		m.HandleFunc("GET /tickets/{id}", h.HandleTicketArtifact)
		return m
	}

	t.Run("returns a stored ticket", func(t *testing.T) {
		store := newFakeTicketStore()
		store.stored[4] = []byte("%PDF-stored")
		handler := NewHandler(&fakeRepo{}, &fakeRenderer{}, store, nil, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/tickets/4", nil)
		rec := httptest.NewRecorder()
		mux(handler).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if rec.Body.String() != "%PDF-stored" {
			t.Errorf("unexpected body: %q", rec.Body.String())
		}
	})

	t.Run("missing ticket returns 404", func(t *testing.T) {
		handler := NewHandler(&fakeRepo{}, &fakeRenderer{}, newFakeTicketStore(), nil, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/tickets/4", nil)
		rec := httptest.NewRecorder()
		mux(handler).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleDetails(t *testing.T) {
	mux := func(h *Handler) *http.ServeMux {
		m := http.NewServeMux()
		m.HandleFunc("GET /admin/pedidos/{id}/detalles", h.HandleDetails)
		return m
	}

	t.Run("unknown order returns 404", func(t *testing.T) {
		handler := NewHandler(&fakeRepo{views: map[int64]domain.OrderView{}}, &fakeRenderer{}, newFakeTicketStore(), nil, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/admin/pedidos/8/detalles", nil)
		rec := httptest.NewRecorder()
		mux(handler).ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("existing order returns items", func(t *testing.T) {
		handler := NewHandler(&fakeRepo{views: map[int64]domain.OrderView{8: {ID: 8}}}, &fakeRenderer{}, newFakeTicketStore(), nil, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/admin/pedidos/8/detalles", nil)
		rec := httptest.NewRecorder()
		mux(handler).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
	})
}
