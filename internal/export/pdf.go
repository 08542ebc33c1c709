package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"finly/internal/util"

	"github.com/go-pdf/fpdf"
)

var ErrFontMissing = errors.New("pdf font file not found")

// Layout is the page geometry in millimetres. Lines are placed top-down; a line
// that would end below PageHeight-BottomMargin goes to a new page at TopMargin.
type Layout struct {
	PageHeight   float64
	LeftMargin   float64
	TopMargin    float64
	BottomMargin float64
	LineHeight   float64
	FontSize     float64
	TitleSize    float64
}

// A4 is the default layout.
var A4 = Layout{
	PageHeight:   297,
	LeftMargin:   15,
	TopMargin:    20,
	BottomMargin: 18,
	LineHeight:   6,
	FontSize:     10,
	TitleSize:    16,
}

// LinesPerPage is how many body lines fit between the margins.
func (l Layout) LinesPerPage() int {
	return int((l.PageHeight - l.TopMargin - l.BottomMargin) / l.LineHeight)
}

// PDFOptions selects the variant and font. FontPath, when set, must point at a
// TTF file; its absence is reported as ErrFontMissing.
type PDFOptions struct {
	Summary  bool
	FontPath string
	Layout   Layout
}

type pdfWriter struct {
	pdf       *fpdf.Fpdf
	layout    Layout
	y         float64
	translate func(string) string
}

func (w *pdfWriter) newPage() {
	w.pdf.AddPage()
	w.y = w.layout.TopMargin
}

func (w *pdfWriter) line(text string) {
	if w.y+w.layout.LineHeight > w.layout.PageHeight-w.layout.BottomMargin {
		w.newPage()
	}
	w.y += w.layout.LineHeight
	w.pdf.Text(w.layout.LeftMargin, w.y, w.translate(text))
}

func (w *pdfWriter) blank() { w.line("") }

func renderPDF(r Report, opts PDFOptions) (*fpdf.Fpdf, error) {
	layout := opts.Layout
	if layout.LineHeight <= 0 {
		layout = A4
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Finly", true)
	pdf.SetCreator("finly", true)

	family := "Helvetica"
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	if opts.FontPath != "" {
		if _, err := os.Stat(opts.FontPath); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrFontMissing, opts.FontPath)
		}
		pdf.AddUTF8Font("finly", "", opts.FontPath)
		family = "finly"
		translate = func(s string) string { return s }
	}

	w := &pdfWriter{pdf: pdf, layout: layout, translate: translate}
	w.newPage()

	pdf.SetFont(family, "", layout.TitleSize)
	title := "Transaction history: " + r.Owner
	if opts.Summary {
		title = "Finly summary: " + r.Owner
	}
	w.line(title)
	pdf.SetFont(family, "", layout.FontSize)
	w.blank()

	if opts.Summary {
		w.line("Total income: " + util.FormatMoney(r.Totals.Income))
		w.line("Total expense: " + util.FormatMoney(r.Totals.Expense))
		w.line("Balance: " + util.FormatMoney(r.Totals.Balance))
		w.blank()
		w.line("Expenses by category:")
		for _, c := range r.CategoryExpenses {
			w.line("  " + c.Name + ": " + util.FormatMoney(c.Amount))
		}
		w.blank()
		w.line("Transactions:")
	}

	for i := range r.Transactions {
		w.line(historyLine(detailRow(&r.Transactions[i])))
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return pdf, nil
}

// historyLine joins the detail columns, skipping empty category and description.
func historyLine(cols []string) string {
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " | ")
}

// WritePDF renders r and writes the document to w.
func WritePDF(w io.Writer, r Report, opts PDFOptions) error {
	pdf, err := renderPDF(r, opts)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
