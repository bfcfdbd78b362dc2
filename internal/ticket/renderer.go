package ticket

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/burgerhouse/ordering-backend/internal/domain"
)

// Renderer turns an aggregated order view into a printable PDF ticket. It
// works purely from the view, so callers must resolve the order first; a
// missing order never reaches the renderer.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render produces the ticket document. The PDF creation and modification
// dates are pinned to the order timestamp, which makes rendering the same
// view twice byte-identical.
func (r *Renderer) Render(view domain.OrderView) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Ticket de Pedido %d", view.ID), true)
	pdf.SetCreationDate(view.CreatedAt)
	pdf.SetModificationDate(view.CreatedAt)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, tr("Ticket de Pedido"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Número de Pedido: %d", view.ID)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr("Fecha: "+formatFecha(view.CreatedAt)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Mesa: %d", view.TableNumber)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, tr("Cliente: "+view.CustomerName), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr("Detalles del Pedido:"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	for _, item := range view.Items {
		line := fmt.Sprintf("%d x %s - %s", item.Quantity, item.Name, FormatEuros(item.UnitPrice))
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, tr("Total: "+FormatEuros(view.Total)), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render ticket for order %d: %w", view.ID, err)
	}
	return buf.Bytes(), nil
}

// FormatEuros renders integer cents as a two-decimal euro amount, e.g. 1850
// becomes "18.50€".
func FormatEuros(cents int64) string {
	return fmt.Sprintf("%d.%02d€", cents/100, cents%100)
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// formatFecha renders a timestamp the way the printed tickets always did:
// "5 de marzo de 2026 13:45:07". The stdlib has no locale-aware date
// formatting, so the month names are spelled out here.
func formatFecha(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d %02d:%02d:%02d",
		t.Day(), spanishMonths[t.Month()-1], t.Year(),
		t.Hour(), t.Minute(), t.Second())
}
