package pdf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `<!DOCTYPE html>
<html>
<head><title>ignored</title><style>body { color: red; }</style></head>
<body>
  <h1>Application APP-0001</h1>
  <p>Dear <b>Thandi Nkosi</b>,</p>
  <p>Your application is &quot;Activated&quot;.</p>
  <table><tr><th>Fund</th><th>Amount</th></tr><tr><td>Equity</td><td>100.00</td></tr></table>
  <ul><li>first</li><li>second</li></ul>
  <hr/>
  <p><i>support@example.com</i><br/>Regards</p>
</body>
</html>`

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer(Config{})

	doc, err := r.Render(sampleBody, Options{
		PageNumbers: PageNumbersNumeric,
		Header:      HeaderOptions{Repeat: HeaderFirstPageOnly, HTML: "<b>Header</b>"},
	})

	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.True(t, bytes.HasPrefix(doc.Bytes(), []byte("%PDF-")))
	assert.Equal(t, 1, doc.Pages())
}

func TestRenderer_Render_MultiplePages(t *testing.T) {
	r := NewRenderer(DefaultConfig())
	body := strings.Repeat("<p>line of text that fills the page</p>", 200)

	for _, repeat := range []HeaderRepeat{HeaderFirstPageOnly, HeaderEveryPage} {
		doc, err := r.Render(body, Options{
			PageNumbers: PageNumbersNumeric,
			Header:      HeaderOptions{Repeat: repeat, HTML: "<h2>Company</h2>"},
		})
		require.NoError(t, err)
		assert.Greater(t, doc.Pages(), 1)
		assert.True(t, bytes.HasPrefix(doc.Bytes(), []byte("%PDF-")))
	}
}

func TestRenderer_Render_EmptyBody(t *testing.T) {
	r := NewRenderer(DefaultConfig())

	doc, err := r.Render("   \n", Options{})

	assert.ErrorIs(t, err, ErrEmptyHTML)
	assert.Nil(t, doc)
}

func TestRenderer_Render_UnknownPageSize(t *testing.T) {
	r := NewRenderer(Config{PageSize: "Napkin"})

	doc, err := r.Render("<p>hi</p>", Options{})

	assert.Error(t, err)
	assert.Nil(t, doc)
}

func TestRenderer_Render_UnknownPageSizeWithHeader(t *testing.T) {
	r := NewRenderer(Config{PageSize: "Napkin"})

	doc, err := r.Render(sampleBody, Options{
		PageNumbers: PageNumbersNumeric,
		Header:      HeaderOptions{Repeat: HeaderEveryPage, HTML: "<b>Header</b>"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "layout pdf")
	assert.Nil(t, doc)
}

func TestRenderer_HeaderPushesBodyDown(t *testing.T) {
	config := DefaultConfig()
	r := NewRenderer(config)

	tests := []struct {
		name       string
		repeat     HeaderRepeat
		belowOnTwo bool
	}{
		{"first page only", HeaderFirstPageOnly, false},
		{"every page", HeaderEveryPage, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := gofpdf.New("P", "mm", "A4", "")
			doc.SetMargins(config.MarginLeft, config.MarginTop, config.MarginRight)
			r.setHeader(doc, HeaderOptions{Repeat: tt.repeat, HTML: "<h2>Application Summary</h2><i>Private and confidential</i>"})

			doc.AddPage()
			assert.Greater(t, doc.GetY(), config.MarginTop, "body starts below the header on page 1")

			doc.AddPage()
			if tt.belowOnTwo {
				assert.Greater(t, doc.GetY(), config.MarginTop)
			} else {
				assert.InDelta(t, config.MarginTop, doc.GetY(), 0.001, "no header on page 2")
			}
			require.NoError(t, doc.Error())
		})
	}
}

func TestDocument_NilSafe(t *testing.T) {
	var d *Document
	assert.Nil(t, d.Bytes())
	assert.Equal(t, 0, d.Pages())
}

func TestCollapseSpace(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"", ""},
		{"   ", " "},
		{"a  b", "a b"},
		{"\n  Dear  ", " Dear "},
		{"x\t\ty", "x y"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, collapseSpace(tt.in), "input %q", tt.in)
	}
}

func TestTagName(t *testing.T) {
	assert.Equal(t, "br", tagName("br/"))
	assert.Equal(t, "td", tagName("TD"))
	assert.Equal(t, "p", tagName("p class"))
}
