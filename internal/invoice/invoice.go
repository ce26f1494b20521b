package invoice

import (
	"bytes"
	"context"
	"fmt"
	"membership-api/internal/config"
	"membership-api/internal/model"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

const dateLayout = "02/01/2006"

// PDFRenderer lays out a single-item A4 invoice.
type PDFRenderer struct {
	issuer config.Invoice
	now    func() time.Time
}

func NewPDFRenderer(issuer config.Invoice) *PDFRenderer {
	return &PDFRenderer{
		issuer: issuer,
		now:    time.Now,
	}
}

// Total converts the stored minor-unit amount into a two-decimal major-unit string.
func Total(amountPaid int64) string {
	return decimal.New(amountPaid, -2).StringFixed(2)
}

func (r *PDFRenderer) Render(ctx context.Context, bc *model.BillingContext) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if bc.OrderID == "" {
		return nil, fmt.Errorf("render invoice: missing order id")
	}

	currency := r.issuer.Currency
	if currency == "" {
		currency = "INR"
	}
	total := Total(bc.AmountPaid)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Invoice "+bc.OrderID, true)
	pdf.SetCreator(r.issuer.IssuerName, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, "INVOICE", "", 1, "C", false, 0, "")

	// issuer block, left
	top := pdf.GetY() + 4
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(18, top)
	for _, line := range []string{r.issuer.IssuerName, r.issuer.IssuerTitle, r.issuer.IssuerEmail} {
		if line == "" {
			continue
		}
		pdf.CellFormat(90, 5, tr(line), "", 2, "L", false, 0, "")
	}

	// invoice details, right
	details := [][2]string{
		{"Invoice #:", bc.OrderID},
		{"Invoice Date:", r.now().Format(dateLayout)},
		{"Start Date:", bc.StartDate.Format(dateLayout)},
		{"Expiry Date:", bc.ExpiryDate.Format(dateLayout)},
	}
	for i, d := range details {
		y := top + float64(i)*5
		pdf.SetXY(120, y)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(26, 5, d[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 5, tr(d[1]), "", 0, "L", false, 0, "")
	}

	y := top + 28
	pdf.Line(18, y, 192, y)

	pdf.SetXY(18, y+4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 6, "Bill To:", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range billedTo(bc) {
		pdf.CellFormat(0, 5, tr(line), "", 2, "L", false, 0, "")
	}

	// line item table
	y = pdf.GetY() + 8
	pdf.SetXY(18, y)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(80, 6, "Item", "", 0, "L", false, 0, "")
	pdf.CellFormat(50, 6, "Duration", "", 0, "R", false, 0, "")
	pdf.CellFormat(44, 6, "Amount ("+currency+")", "", 1, "R", false, 0, "")
	pdf.Line(18, pdf.GetY()+1, 192, pdf.GetY()+1)

	pdf.SetXY(18, pdf.GetY()+4)
	rowY := pdf.GetY()
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(80, 5, tr(bc.ItemName), "", "L", false)
	pdf.SetXY(98, rowY)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(50, 5, tr(bc.DurationLabel), "", 2, "R", false, 0, "")
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(50, 4, "Start: "+bc.StartDate.Format(dateLayout), "", 2, "R", false, 0, "")
	pdf.CellFormat(50, 4, "End: "+bc.ExpiryDate.Format(dateLayout), "", 2, "R", false, 0, "")
	pdf.SetXY(148, rowY)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(44, 5, total, "", 0, "R", false, 0, "")

	y = rowY + 18
	pdf.Line(18, y, 192, y)
	pdf.SetXY(120, y+5)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(30, 6, "Total Paid:", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, currency+" "+total, "", 1, "R", false, 0, "")

	if bc.PaymentID != "" {
		png, err := qrcode.Encode(bc.PaymentID, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("encode payment qr: %w", err)
		}
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("payment-qr", opts, bytes.NewReader(png))
		pdf.ImageOptions("payment-qr", 90, 225, 30, 30, false, opts, 0, "")
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetXY(18, 262)
	pdf.CellFormat(0, 4, tr("Payment ID: "+bc.PaymentID), "", 2, "C", false, 0, "")
	pdf.CellFormat(0, 4, "This is a computer-generated invoice and does not require a signature.", "", 2, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", bc.OrderID, err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write invoice %s: %w", bc.OrderID, err)
	}

	return buf.Bytes(), nil
}

func billedTo(bc *model.BillingContext) []string {
	lines := []string{bc.RecipientName}
	if bc.Billing.IsBusiness && bc.Billing.GSTNumber != "" {
		lines = append(lines, "GSTIN: "+bc.Billing.GSTNumber)
	}
	lines = append(lines, bc.RecipientEmail)

	if bc.Billing.Address != "" {
		lines = append(lines, bc.Billing.Address)
	}
	region := strings.TrimSpace(strings.Join(nonEmpty(bc.Billing.State, bc.Billing.PinCode), " - "))
	if region != "" {
		lines = append(lines, region)
	}

	return nonEmpty(lines...)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
