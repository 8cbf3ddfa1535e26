package infra

// pdf.go — A4 invoice/quote rendering using go-pdf/fpdf.
// Layout: company header, document number and date, client block, item table
// (product, quantity, unit price, subtotal), HT / TVA / TTC totals.
// The output file is saved to storagePath/{number}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"gestock/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateInvoicePDF renders an invoice to PDF and returns the file path.
func GenerateInvoicePDF(inv *model.Invoice, storagePath string) (string, error) {
	title := "FACTURE"
	if inv.IsProforma {
		title = "FACTURE PRO FORMA"
	}
	lines := make([]pdfLine, 0, len(inv.Items))
	for _, item := range inv.ActiveItems() {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		lines = append(lines, pdfLine{name, item.Quantity, item.UnitPrice, item.Subtotal})
	}
	return renderDocument(documentPDF{
		title:      title,
		number:     inv.InvoiceNumber,
		date:       inv.Date.Format("02/01/2006"),
		company:    inv.Company,
		clientName: inv.DisplayName(),
		lines:      lines,
		totalHT:    inv.TotalHT,
		totalTTC:   inv.TotalTTC,
	}, storagePath)
}

// GenerateQuotePDF renders a quote to PDF and returns the file path.
func GenerateQuotePDF(q *model.Quote, storagePath string) (string, error) {
	clientName := "Client inconnu"
	if q.Client != nil {
		clientName = q.Client.Name
	} else if q.ClientName != nil {
		clientName = *q.ClientName
	}
	lines := make([]pdfLine, 0, len(q.Items))
	for _, item := range q.ActiveItems() {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		lines = append(lines, pdfLine{name, item.Quantity, item.UnitPrice, item.Subtotal})
	}
	return renderDocument(documentPDF{
		title:      "DEVIS",
		number:     q.QuoteNumber,
		date:       q.Date.Format("02/01/2006"),
		company:    q.Company,
		clientName: clientName,
		lines:      lines,
		totalHT:    q.TotalHT,
		totalTTC:   q.TotalTTC,
	}, storagePath)
}

type pdfLine struct {
	name      string
	quantity  int
	unitPrice decimal.Decimal
	subtotal  decimal.Decimal
}

type documentPDF struct {
	title      string
	number     string
	date       string
	company    string
	clientName string
	lines      []pdfLine
	totalHT    decimal.Decimal
	totalTTC   decimal.Decimal
}

func renderDocument(doc documentPDF, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, doc.number+".pdf")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, doc.company, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 8, doc.title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, fmt.Sprintf("N° %s", doc.number), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 6, "Date : "+doc.date, "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, "Client : "+doc.clientName, "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// ── Item table ───────────────────────────────────────────────────────────
	col1 := contentW * 0.46
	col2 := contentW * 0.14
	col3 := contentW * 0.20
	col4 := contentW * 0.20

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 7, "Article", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 7, "Qté", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 7, "P.U.", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 7, "Sous-total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, l := range doc.lines {
		name := l.name
		if len(name) > 40 {
			name = name[:39] + "…"
		}
		pdf.CellFormat(col1, 6, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, fmt.Sprintf("x%d", l.quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 6, l.unitPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, l.subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// ── Totals ───────────────────────────────────────────────────────────────
	tva := doc.totalTTC.Sub(doc.totalHT)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(col1+col2+col3, 6, "Total HT", "", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, doc.totalHT.StringFixed(2)+" FCFA", "", 1, "R", false, 0, "")
	pdf.CellFormat(col1+col2+col3, 6, "TVA", "", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, tva.StringFixed(2)+" FCFA", "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(col1+col2+col3, 8, "Total TTC", "T", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 8, doc.totalTTC.StringFixed(2)+" FCFA", "T", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", filePath, err)
	}
	return filePath, nil
}
