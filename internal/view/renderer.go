package view

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path"
	"strings"
	"sync"
	"time"
)

// Fetcher retrieves remote template sources.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

type templateCacheEntry struct {
	tmpl     *template.Template
	loadedAt time.Time
}

// TemplateRenderer renders html/template files addressed by URI. Supported
// forms are http(s)://, file:// and plain filesystem paths.
type TemplateRenderer struct {
	fetcher  Fetcher
	cacheTTL time.Duration
	cache    map[string]*templateCacheEntry
	mu       sync.RWMutex
}

// NewTemplateRenderer returns a renderer caching parsed templates for
// cacheTTL. A zero TTL re-reads the template on every render.
func NewTemplateRenderer(fetcher Fetcher, cacheTTL time.Duration) *TemplateRenderer {
	return &TemplateRenderer{
		fetcher:  fetcher,
		cacheTTL: cacheTTL,
		cache:    make(map[string]*templateCacheEntry),
	}
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("2006-01-02")
	},
	"money": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
}

func (r *TemplateRenderer) Render(ctx context.Context, uri string, model any) (string, error) {
	tmpl, err := r.load(ctx, uri)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, model); err != nil {
		return "", fmt.Errorf("execute template %s: %w", uri, err)
	}
	return buf.String(), nil
}

func (r *TemplateRenderer) load(ctx context.Context, uri string) (*template.Template, error) {
	if r.cacheTTL > 0 {
		r.mu.RLock()
		if entry, ok := r.cache[uri]; ok && time.Since(entry.loadedAt) < r.cacheTTL {
			r.mu.RUnlock()
			return entry.tmpl, nil
		}
		r.mu.RUnlock()
	}

	src, err := r.readSource(ctx, uri)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(path.Base(uri)).
		Funcs(funcs).
		Option("missingkey=error").
		Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", uri, err)
	}

	if r.cacheTTL > 0 {
		r.mu.Lock()
		r.cache[uri] = &templateCacheEntry{tmpl: tmpl, loadedAt: time.Now()}
		r.mu.Unlock()
	}
	return tmpl, nil
}

func (r *TemplateRenderer) readSource(ctx context.Context, uri string) ([]byte, error) {
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		if r.fetcher == nil {
			return nil, fmt.Errorf("read template %s: no http fetcher configured", uri)
		}
		return r.fetcher.Get(ctx, uri)
	case strings.HasPrefix(uri, "file://"):
		uri = strings.TrimPrefix(uri, "file://")
	}

	src, err := os.ReadFile(uri)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return src, nil
}

// Invalidate drops every cached template.
func (r *TemplateRenderer) Invalidate() {
	r.mu.Lock()
	r.cache = make(map[string]*templateCacheEntry)
	r.mu.Unlock()
}
