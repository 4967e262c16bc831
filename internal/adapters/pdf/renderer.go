// Package pdf draws a reading as a PDF document.
package pdf

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/quentinrf/bazi-reading/internal/domain"
	"github.com/quentinrf/bazi-reading/internal/ports"
)

const (
	pageWidth    = 210.0
	margin       = 20.0
	contentWidth = pageWidth - 2*margin
	bodyLine     = 6.0
)

// Embedded faces cover Latin, Greek, Cyrillic and Vietnamese text.
var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	dejaVuRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	dejaVuBold []byte
	//go:embed fonts/DejaVuSansCondensed-Oblique.ttf
	dejaVuItalic []byte
)

const (
	defaultFamily = "DejaVu"
	customFamily  = "Custom"
)

type rgb struct{ r, g, b int }

var (
	accent    = rgb{122, 62, 157}
	ink       = rgb{43, 33, 53}
	muted     = rgb{120, 110, 130}
	rowShade  = rgb{244, 238, 248}
	coverText = rgb{255, 255, 255}
)

// Renderer implements ports.DocumentRenderer with fpdf
type Renderer struct {
	author string
	family string
	faces  map[string][]byte
}

// Option configures a Renderer
type Option func(*Renderer)

// WithFont replaces the embedded faces with a single TrueType font used for
// every style. Readings in scripts the embedded faces lack, such as Chinese,
// Japanese or Korean, need one.
func WithFont(ttf []byte) Option {
	return func(r *Renderer) {
		if len(ttf) == 0 {
			return
		}
		r.family = customFamily
		r.faces = map[string][]byte{"": ttf, "B": ttf, "I": ttf}
	}
}

// LoadFont reads a TrueType font file for WithFont. Fonts with PostScript
// outlines (.otf) and collections (.ttc) are rejected.
func LoadFont(path string) (Option, error) {
	if _, err := fpdf.TtfParse(path); err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	ttf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	return WithFont(ttf), nil
}

// NewRenderer creates a renderer that signs documents as author
func NewRenderer(author string, opts ...Option) *Renderer {
	if author == "" {
		author = "Four Pillars Reading"
	}
	r := &Renderer{
		author: author,
		family: defaultFamily,
		faces:  map[string][]byte{"": dejaVuRegular, "B": dejaVuBold, "I": dejaVuItalic},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ContentType is the MIME type of the output
func (r *Renderer) ContentType() string { return "application/pdf" }

// Extension is the file extension of the output
func (r *Renderer) Extension() string { return ".pdf" }

// Render draws the cover, the chart table and the reading text, then writes
// the document to w
func (r *Renderer) Render(doc ports.Document, w io.Writer) error {
	if doc.Chart == nil {
		return errors.New("document has no chart")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	for style, ttf := range r.faces {
		pdf.AddUTF8FontFromBytes(r.family, style, ttf)
	}
	d := drawer{pdf: pdf, family: r.family}

	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(r.author, true)
	pdf.SetCreator(r.author, true)
	if !doc.GeneratedAt.IsZero() {
		pdf.SetCreationDate(doc.GeneratedAt)
	}
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AliasNbPages("")

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() == 1 {
			return
		}
		d.font("I", 8)
		setText(pdf, muted)
		pdf.CellFormat(contentWidth, 6, doc.Title, "B", 1, "R", false, 0, "")
		pdf.Ln(4)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		d.font("I", 8)
		setText(pdf, muted)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	d.cover(doc)
	d.chart(doc)
	d.reading(doc.Reading)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("draw pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type drawer struct {
	pdf    *fpdf.Fpdf
	family string
}

func (d drawer) font(style string, size float64) {
	d.pdf.SetFont(d.family, style, size)
}

func (d drawer) cover(doc ports.Document) {
	pdf := d.pdf
	pdf.SetFillColor(accent.r, accent.g, accent.b)
	pdf.Rect(0, 0, pageWidth, 62, "F")

	setText(pdf, coverText)
	pdf.SetXY(margin, 18)
	d.font("B", 22)
	pdf.CellFormat(contentWidth, 12, doc.Title, "", 1, "C", false, 0, "")

	d.font("", 12)
	subtitle := doc.Birth.Date().Format("January 2, 2006")
	if doc.Birth.Hour != nil {
		subtitle += fmt.Sprintf(" at %02d:00", *doc.Birth.Hour)
	}
	if doc.Name != "" {
		subtitle = doc.Name + " - " + subtitle
	}
	pdf.CellFormat(contentWidth, 8, subtitle, "", 1, "C", false, 0, "")

	d.font("I", 11)
	motto := fmt.Sprintf("%s %s %s", doc.Chart.Polarity, doc.Chart.Element, doc.Chart.Animal)
	pdf.CellFormat(contentWidth, 8, motto, "", 1, "C", false, 0, "")

	pdf.SetY(74)
}

func (d drawer) chart(doc ports.Document) {
	pdf := d.pdf
	c := doc.Chart

	d.heading("Your Birth Chart")

	rows := [][2]string{
		{"Year pillar", c.YearPillar.String()},
		{"Element", fmt.Sprintf("%s (%s)", c.Element, c.Polarity)},
		{"Zodiac animal", string(c.Animal)},
		{"Month element", string(c.MonthElement)},
		{"Day pillar", fmt.Sprintf("%s (day master %s)", c.DayPillar, c.DayElement)},
	}
	if c.HourAnimal != "" {
		rows = append(rows, [2]string{"Hour animal", string(c.HourAnimal)})
	}
	rows = append(rows,
		[2]string{"Dominant element", string(c.Dominant)},
		[2]string{"Element balance", balanceLine(c)},
		[2]string{"Life path number", fmt.Sprint(c.LifePath)},
		[2]string{"Lucky numbers", joinInts(c.LuckyNumbers)},
		[2]string{"Lucky colors", strings.Join(c.LuckyColors, ", ")},
		[2]string{"Lucky direction", c.LuckyDirection},
	)

	labelWidth := 55.0
	pdf.SetFillColor(rowShade.r, rowShade.g, rowShade.b)
	pdf.SetDrawColor(accent.r, accent.g, accent.b)
	for i, row := range rows {
		fill := i%2 == 0
		d.font("B", 10)
		setText(pdf, accent)
		pdf.CellFormat(labelWidth, 8, row[0], "LTB", 0, "L", fill, 0, "")
		d.font("", 10)
		setText(pdf, ink)
		pdf.CellFormat(contentWidth-labelWidth, 8, row[1], "RTB", 1, "L", fill, 0, "")
	}
	pdf.Ln(8)
}

func (d drawer) reading(text string) {
	pdf := d.pdf
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var paragraph []string
	flush := func() {
		if len(paragraph) == 0 {
			return
		}
		d.font("", 11)
		setText(pdf, ink)
		pdf.MultiCell(contentWidth, bodyLine, stripMarkup(strings.Join(paragraph, " ")), "", "J", false)
		pdf.Ln(3)
		paragraph = paragraph[:0]
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, "#"):
			flush()
			d.heading(strings.TrimSpace(strings.TrimLeft(trimmed, "#")))
		case trimmed == "---":
			flush()
		default:
			paragraph = append(paragraph, trimmed)
		}
	}
	flush()
}

func (d drawer) heading(text string) {
	pdf := d.pdf
	// keep a heading together with at least two lines of its body
	_, pageHeight := pdf.GetPageSize()
	if pdf.GetY() > pageHeight-margin-30 {
		pdf.AddPage()
	}

	d.font("B", 15)
	setText(pdf, accent)
	pdf.CellFormat(contentWidth, 10, stripMarkup(text), "", 1, "L", false, 0, "")

	pdf.SetDrawColor(accent.r, accent.g, accent.b)
	pdf.SetLineWidth(0.4)
	y := pdf.GetY()
	pdf.Line(margin, y, margin+40, y)
	pdf.Ln(4)
}

func setText(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetTextColor(c.r, c.g, c.b)
}

// stripMarkup removes inline emphasis the model sometimes adds anyway.
func stripMarkup(s string) string {
	return strings.NewReplacer("**", "", "__", "", "`", "").Replace(s)
}

func balanceLine(c *domain.Chart) string {
	parts := make([]string, 0, len(domain.Elements))
	for _, e := range domain.Elements {
		parts = append(parts, fmt.Sprintf("%s %d", e, c.Balance[e]))
	}
	return strings.Join(parts, ", ")
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
