package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var ErrEmptyHTML = errors.New("html body is empty")

// Config holds page setup shared by every document the renderer produces.
type Config struct {
	PageSize     string  // A4, Letter, Legal
	Orientation  string  // portrait, landscape
	FontFamily   string
	FontSize     float64
	LineHeight   float64
	MarginLeft   float64
	MarginTop    float64
	MarginRight  float64
	MarginBottom float64
}

func DefaultConfig() Config {
	return Config{
		PageSize:     "A4",
		Orientation:  "portrait",
		FontFamily:   "Helvetica",
		FontSize:     10,
		LineHeight:   5,
		MarginLeft:   15,
		MarginTop:    20,
		MarginRight:  15,
		MarginBottom: 20,
	}
}

// Renderer converts the small HTML subset produced by document templates into PDF.
type Renderer struct {
	config Config
}

func NewRenderer(config Config) *Renderer {
	def := DefaultConfig()
	if config.PageSize == "" {
		config.PageSize = def.PageSize
	}
	if config.FontFamily == "" {
		config.FontFamily = def.FontFamily
	}
	if config.FontSize == 0 {
		config.FontSize = def.FontSize
	}
	if config.LineHeight == 0 {
		config.LineHeight = def.LineHeight
	}
	if config.MarginLeft == 0 && config.MarginTop == 0 && config.MarginRight == 0 && config.MarginBottom == 0 {
		config.MarginLeft = def.MarginLeft
		config.MarginTop = def.MarginTop
		config.MarginRight = def.MarginRight
		config.MarginBottom = def.MarginBottom
	}
	return &Renderer{config: config}
}

// Render lays out body on as many pages as needed and returns the encoded document.
func (r *Renderer) Render(body string, opts Options) (*Document, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyHTML
	}

	orientation := "P"
	if r.config.Orientation == "landscape" {
		orientation = "L"
	}

	doc := gofpdf.New(orientation, "mm", r.config.PageSize, "")
	doc.SetMargins(r.config.MarginLeft, r.config.MarginTop, r.config.MarginRight)
	doc.SetAutoPageBreak(true, r.config.MarginBottom)
	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("layout pdf: %w", err)
	}

	if opts.Header.HTML != "" {
		r.setHeader(doc, opts.Header)
	}
	if opts.PageNumbers == PageNumbersNumeric {
		r.setFooter(doc)
	}

	doc.AddPage()
	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("layout pdf: %w", err)
	}
	newHTMLWriter(doc, r.config).write(body)

	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("layout pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("encode pdf: %w", err)
	}

	return NewDocument(buf.Bytes(), doc.PageCount()), nil
}

// setHeader leaves the cursor below the header so the body starts after it.
func (r *Renderer) setHeader(doc *gofpdf.Fpdf, header HeaderOptions) {
	doc.SetHeaderFuncMode(func() {
		if header.Repeat == HeaderFirstPageOnly && doc.PageNo() != 1 {
			return
		}
		newHTMLWriter(doc, r.config).write(header.HTML)
		doc.Ln(r.config.LineHeight * 2)
	}, false)
}

func (r *Renderer) setFooter(doc *gofpdf.Fpdf) {
	doc.SetFooterFunc(func() {
		doc.SetY(-15)
		doc.SetFont(r.config.FontFamily, "", 8)
		doc.SetTextColor(128, 128, 128)
		doc.CellFormat(0, 10, strconv.Itoa(doc.PageNo()), "", 0, "C", false, 0, "")
		doc.SetTextColor(0, 0, 0)
	})
}

// htmlWriter walks gofpdf's basic HTML tokens and maps block and inline
// tags onto font and line changes.
type htmlWriter struct {
	doc       *gofpdf.Fpdf
	config    Config
	translate func(string) string
	bold      int
	italic    int
	underline int
	size      float64
	skip      int
}

var headingSizes = map[string]float64{"h1": 16, "h2": 13, "h3": 11}

var blockTags = map[string]bool{
	"p": true, "div": true, "h1": true, "h2": true, "h3": true,
	"table": true, "tr": true, "ul": true, "ol": true, "li": true,
	"section": true, "header": true, "footer": true,
}

var skippedTags = map[string]bool{"head": true, "style": true, "script": true, "title": true}

func newHTMLWriter(doc *gofpdf.Fpdf, config Config) *htmlWriter {
	return &htmlWriter{
		doc:       doc,
		config:    config,
		translate: doc.UnicodeTranslatorFromDescriptor(""),
		size:      config.FontSize,
	}
}

func (w *htmlWriter) write(markup string) {
	w.applyFont()
	for _, seg := range gofpdf.HTMLBasicTokenize(markup) {
		switch seg.Cat {
		case 'T':
			if w.skip > 0 {
				continue
			}
			text := collapseSpace(html.UnescapeString(seg.Str))
			if text == "" || (text == " " && w.atLineStart()) {
				continue
			}
			w.doc.Write(w.config.LineHeight, w.translate(text))
		case 'O':
			w.open(tagName(seg.Str))
		case 'C':
			w.close(tagName(seg.Str))
		}
	}
}

func (w *htmlWriter) open(tag string) {
	if skippedTags[tag] {
		w.skip++
		return
	}
	switch tag {
	case "b", "strong", "th":
		w.bold++
	case "i", "em":
		w.italic++
	case "u":
		w.underline++
	case "br":
		w.doc.Ln(w.config.LineHeight)
	case "hr":
		w.newline()
		left, _, right, _ := w.doc.GetMargins()
		pageWidth, _ := w.doc.GetPageSize()
		y := w.doc.GetY() + w.config.LineHeight/2
		w.doc.Line(left, y, pageWidth-right, y)
		w.doc.Ln(w.config.LineHeight)
	case "li":
		w.newline()
		w.doc.Write(w.config.LineHeight, "- ")
	}
	if size, ok := headingSizes[tag]; ok {
		w.newline()
		w.size = size
		w.bold++
	} else if blockTags[tag] {
		w.newline()
	}
	w.applyFont()
}

func (w *htmlWriter) close(tag string) {
	if skippedTags[tag] {
		if w.skip > 0 {
			w.skip--
		}
		return
	}
	switch tag {
	case "b", "strong", "th":
		w.bold = decrement(w.bold)
	case "i", "em":
		w.italic = decrement(w.italic)
	case "u":
		w.underline = decrement(w.underline)
	case "td":
		w.doc.Write(w.config.LineHeight, "   ")
	}
	if _, ok := headingSizes[tag]; ok {
		w.size = w.config.FontSize
		w.bold = decrement(w.bold)
		w.doc.Ln(w.config.LineHeight * 1.5)
	} else if tag == "p" || tag == "table" || tag == "ul" || tag == "ol" {
		w.newline()
		w.doc.Ln(w.config.LineHeight / 2)
	} else if blockTags[tag] {
		w.newline()
	}
	w.applyFont()
}

func (w *htmlWriter) applyFont() {
	style := ""
	if w.bold > 0 {
		style += "B"
	}
	if w.italic > 0 {
		style += "I"
	}
	if w.underline > 0 {
		style += "U"
	}
	w.doc.SetFont(w.config.FontFamily, style, w.size)
}

func (w *htmlWriter) atLineStart() bool {
	left, _, _, _ := w.doc.GetMargins()
	return w.doc.GetX() <= left+0.01
}

func (w *htmlWriter) newline() {
	if !w.atLineStart() {
		w.doc.Ln(w.config.LineHeight)
	}
}

func tagName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.TrimSuffix(name, "/")
	if i := strings.IndexAny(name, " \t"); i >= 0 {
		name = name[:i]
	}
	return name
}

func collapseSpace(s string) string {
	if s == "" {
		return ""
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return " "
	}
	out := strings.Join(fields, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func decrement(n int) int {
	if n > 0 {
		return n - 1
	}
	return 0
}
