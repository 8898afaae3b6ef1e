package pdf

// PageNumberStyle controls how page numbers are printed in the footer.
type PageNumberStyle int

const (
	PageNumbersNone PageNumberStyle = iota
	PageNumbersNumeric
)

// HeaderRepeat controls which pages carry the header.
type HeaderRepeat int

const (
	HeaderFirstPageOnly HeaderRepeat = iota
	HeaderEveryPage
)

type HeaderOptions struct {
	Repeat HeaderRepeat
	HTML   string
}

// Options are the per-document rendering choices.
type Options struct {
	PageNumbers PageNumberStyle
	Header      HeaderOptions
}

// Document is a rendered PDF.
type Document struct {
	data  []byte
	pages int
}

// Bytes returns the encoded PDF.
func (d *Document) Bytes() []byte {
	if d == nil {
		return nil
	}
	return d.data
}

// Pages returns the number of pages in the document.
func (d *Document) Pages() int {
	if d == nil {
		return 0
	}
	return d.pages
}

// NewDocument wraps already encoded PDF bytes.
func NewDocument(data []byte, pages int) *Document {
	return &Document{data: data, pages: pages}
}
