package orders

import (
	"testing"

	"github.com/burgerhouse/ordering-backend/internal/domain"
)

func TestSumTotal(t *testing.T) {
	t.Run("multiplies quantity by frozen unit price", func(t *testing.T) {
		items := []domain.LineItemView{
			{ProductID: 7, Quantity: 2, UnitPrice: 500},
			{ProductID: 3, Quantity: 1, UnitPrice: 850},
		}
		if got := sumTotal(items); got != 1850 {
			t.Errorf("expected total 1850, got %d", got)
		}
	})

	t.Run("is independent of item order", func(t *testing.T) {
		forward := []domain.LineItemView{
			{Quantity: 2, UnitPrice: 500},
			{Quantity: 1, UnitPrice: 850},
			{Quantity: 3, UnitPrice: 120},
		}
		backward := []domain.LineItemView{forward[2], forward[1], forward[0]}

		if sumTotal(forward) != sumTotal(backward) {
			t.Errorf("totals differ by item order: %d vs %d", sumTotal(forward), sumTotal(backward))
		}
	})

	t.Run("empty order totals zero", func(t *testing.T) {
		if got := sumTotal(nil); got != 0 {
			t.Errorf("expected total 0, got %d", got)
		}
	})
}

func TestCustomizationsCodec(t *testing.T) {
	t.Run("nil encodes as empty object", func(t *testing.T) {
		raw, err := encodeCustomizations(nil)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		if string(raw) != "{}" {
			t.Errorf("expected {}, got %s", raw)
		}
	})

	t.Run("values survive a round trip", func(t *testing.T) {
		raw, err := encodeCustomizations(map[string]any{"sin_cebolla": true, "punto": "hecho"})
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}

		decoded, err := decodeCustomizations(raw)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if decoded["sin_cebolla"] != true || decoded["punto"] != "hecho" {
			t.Errorf("unexpected decoded map: %v", decoded)
		}
	})

	t.Run("empty column decodes to nil", func(t *testing.T) {
		decoded, err := decodeCustomizations(nil)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if decoded != nil {
			t.Errorf("expected nil, got %v", decoded)
		}
	})
}
