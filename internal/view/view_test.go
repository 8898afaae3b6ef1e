package view

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"application-documents/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubFetcher struct {
	body  []byte
	err   error
	calls int32
}

func (f *stubFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.body, f.err
}

type sampleModel struct {
	FullName  string
	AppliedOn time.Time
	Total     float64
}

func writeTemplate(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

// ==========================
// Resolver Tests
// ==========================

func TestStaticResolver_Resolve(t *testing.T) {
	r := NewStaticResolver(map[string]string{
		"pendingapplication":   "pending.html",
		"ActivatedApplication": "activated.html",
		"InReviewApplication":  "",
	})
	ctx := context.Background()

	p, err := r.Resolve(ctx, "PendingApplication")
	require.NoError(t, err)
	assert.Equal(t, "pending.html", p)

	p, err = r.Resolve(ctx, "activatedapplication")
	require.NoError(t, err)
	assert.Equal(t, "activated.html", p)

	_, err = r.Resolve(ctx, "InReviewApplication")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = r.Resolve(ctx, "ClosedApplication")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	assert.Contains(t, err.Error(), "ClosedApplication")
}

func TestRedisResolver_Resolve(t *testing.T) {
	mr, client := newMiniRedis(t)
	static := NewStaticResolver(map[string]string{"ActivatedApplication": "activated.html"})
	r := NewRedisResolver(client, "document:templates", static, logger.NewTestLogger(t))
	ctx := context.Background()

	t.Run("falls back when no override", func(t *testing.T) {
		p, err := r.Resolve(ctx, "ActivatedApplication")
		require.NoError(t, err)
		assert.Equal(t, "activated.html", p)
	})

	t.Run("uses override", func(t *testing.T) {
		mr.HSet("document:templates", "ActivatedApplication", "activated-v2.html")

		p, err := r.Resolve(ctx, "ActivatedApplication")
		require.NoError(t, err)
		assert.Equal(t, "activated-v2.html", p)
	})

	t.Run("set and clear override", func(t *testing.T) {
		require.NoError(t, r.SetOverride(ctx, "ActivatedApplication", "activated-v3.html"))
		assert.Equal(t, "activated-v3.html", mr.HGet("document:templates", "ActivatedApplication"))

		require.NoError(t, r.ClearOverride(ctx, "ActivatedApplication"))
		p, err := r.Resolve(ctx, "ActivatedApplication")
		require.NoError(t, err)
		assert.Equal(t, "activated.html", p)
	})

	t.Run("unknown template still fails", func(t *testing.T) {
		_, err := r.Resolve(ctx, "Unknown")
		assert.ErrorIs(t, err, ErrTemplateNotFound)
	})

	t.Run("redis unavailable falls back", func(t *testing.T) {
		mr.SetError("ERR server unavailable")
		defer mr.SetError("")

		p, err := r.Resolve(ctx, "ActivatedApplication")
		require.NoError(t, err)
		assert.Equal(t, "activated.html", p)
	})
}

// ==========================
// Renderer Tests
// ==========================

func TestTemplateRenderer_Render_File(t *testing.T) {
	p := writeTemplate(t, "pending.html",
		`<p>{{.FullName}} applied on {{date .AppliedOn}} for {{money .Total}}</p>`)
	r := NewTemplateRenderer(nil, time.Minute)
	model := sampleModel{
		FullName:  "Thandi <Nkosi>",
		AppliedOn: time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC),
		Total:     1234.5,
	}

	for _, uri := range []string{p, "file://" + p} {
		out, err := r.Render(context.Background(), uri, model)

		require.NoError(t, err)
		assert.Equal(t, "<p>Thandi &lt;Nkosi&gt; applied on 2024-03-09 for 1234.50</p>", out)
	}
}

func TestTemplateRenderer_Render_Remote(t *testing.T) {
	fetcher := &stubFetcher{body: []byte(`<b>{{.FullName}}</b>`)}
	r := NewTemplateRenderer(fetcher, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		out, err := r.Render(ctx, "https://templates.example.com/activated.html", sampleModel{FullName: "A B"})
		require.NoError(t, err)
		assert.Equal(t, "<b>A B</b>", out)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.calls), "parsed template should be cached")

	r.Invalidate()
	_, err := r.Render(ctx, "https://templates.example.com/activated.html", sampleModel{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fetcher.calls))
}

func TestTemplateRenderer_NoCache(t *testing.T) {
	fetcher := &stubFetcher{body: []byte(`ok`)}
	r := NewTemplateRenderer(fetcher, 0)

	for i := 0; i < 2; i++ {
		_, err := r.Render(context.Background(), "http://t/x.html", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&fetcher.calls))
}

func TestTemplateRenderer_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		_, err := NewTemplateRenderer(nil, 0).Render(ctx, filepath.Join(t.TempDir(), "none.html"), nil)
		assert.ErrorContains(t, err, "read template")
	})

	t.Run("fetch error", func(t *testing.T) {
		fetcher := &stubFetcher{err: errors.New("connection refused")}
		_, err := NewTemplateRenderer(fetcher, 0).Render(ctx, "http://t/x.html", nil)
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("no fetcher", func(t *testing.T) {
		_, err := NewTemplateRenderer(nil, 0).Render(ctx, "https://t/x.html", nil)
		assert.ErrorContains(t, err, "no http fetcher")
	})

	t.Run("parse error", func(t *testing.T) {
		p := writeTemplate(t, "bad.html", `{{if .FullName}}`)
		_, err := NewTemplateRenderer(nil, 0).Render(ctx, p, sampleModel{})
		assert.ErrorContains(t, err, "parse template")
	})

	t.Run("execute error", func(t *testing.T) {
		p := writeTemplate(t, "field.html", `{{.Missing}}`)
		_, err := NewTemplateRenderer(nil, 0).Render(ctx, p, sampleModel{})
		assert.ErrorContains(t, err, "execute template")
	})
}
