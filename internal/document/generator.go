// Package document renders the state-dependent PDF for an application.
package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"application-documents/internal/common/logger"
	"application-documents/internal/common/metrics"
	"application-documents/internal/models"
	"application-documents/internal/pdf"

	"github.com/google/uuid"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrUnsupportedState    = errors.New("unsupported application state")
	ErrMissingReview       = errors.New("in-review application has no current review")
	ErrLookupFailed        = errors.New("application lookup failed")
	ErrRenderFailed        = errors.New("document render failed")

	ErrNilRepository   = errors.New("application repository is required")
	ErrNilCollaborator = errors.New("document generator dependency is required")
)

// Outcome labels used for the cause log field and metrics.
const (
	OutcomeGenerated          = "generated"
	OutcomeNotFound           = "not_found"
	OutcomeUnsupportedState   = "unsupported_state"
	OutcomePreconditionFailed = "precondition_failed"
	OutcomeLookupFailed       = "lookup_failed"
	OutcomeRenderFailed       = "render_failed"
)

// HeaderHTML is printed at the top of the first page of every document.
const HeaderHTML = `<h2>Application Summary</h2><i>Private and confidential</i>`

// ApplicationRepository returns (nil, nil) when the id is unknown.
type ApplicationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
}

// TemplateResolver maps a logical template name to a path fragment.
type TemplateResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// ViewRenderer renders the template at uri with model into HTML.
type ViewRenderer interface {
	Render(ctx context.Context, uri string, model any) (string, error)
}

type PDFRenderer interface {
	Render(html string, opts pdf.Options) (*pdf.Document, error)
}

// Settings are read on every generation so changes apply to the next document.
type Settings interface {
	SupportEmail() string
	Signature() string
	TaxRate() float64
}

type Generator struct {
	repo     ApplicationRepository
	resolver TemplateResolver
	views    ViewRenderer
	pdf      PDFRenderer
	settings Settings
	logger   logger.Logger
}

func NewGenerator(
	repo ApplicationRepository,
	resolver TemplateResolver,
	views ViewRenderer,
	pdfRenderer PDFRenderer,
	settings Settings,
	log logger.Logger,
) (*Generator, error) {
	if repo == nil {
		return nil, ErrNilRepository
	}
	switch {
	case resolver == nil:
		return nil, fmt.Errorf("%w: template resolver", ErrNilCollaborator)
	case views == nil:
		return nil, fmt.Errorf("%w: view renderer", ErrNilCollaborator)
	case pdfRenderer == nil:
		return nil, fmt.Errorf("%w: pdf renderer", ErrNilCollaborator)
	case settings == nil:
		return nil, fmt.Errorf("%w: settings", ErrNilCollaborator)
	case log == nil:
		return nil, fmt.Errorf("%w: logger", ErrNilCollaborator)
	}

	return &Generator{
		repo:     repo,
		resolver: resolver,
		views:    views,
		pdf:      pdfRenderer,
		settings: settings,
		logger:   log.WithFields(map[string]interface{}{"component": "document-generator"}),
	}, nil
}

// Generate returns the PDF for the application, or nil when no document can
// be produced. Every failure is logged once at warn level.
func (g *Generator) Generate(ctx context.Context, applicationID uuid.UUID, baseURI string) []byte {
	start := time.Now()
	res, err := g.render(ctx, applicationID, baseURI)
	outcome := Outcome(err)

	state := string(res.state)
	if state == "" {
		state = "unknown"
	}
	metrics.DocumentsGenerated.WithLabelValues(state, outcome).Inc()
	metrics.DocumentGenerationDuration.WithLabelValues(state).Observe(time.Since(start).Seconds())

	if err != nil {
		g.logger.Warn(warnMessage(outcome), map[string]interface{}{
			"applicationId": applicationID.String(),
			"state":         state,
			"cause":         outcome,
			"error":         err.Error(),
		})
		return nil
	}

	metrics.DocumentSizeBytes.Observe(float64(len(res.doc)))
	g.logger.Info("application document generated", map[string]interface{}{
		"applicationId": applicationID.String(),
		"state":         state,
		"sizeBytes":     len(res.doc),
	})
	return res.doc
}

// Render is Generate without logging: it returns the PDF or an error that
// matches one of the package's sentinel errors.
func (g *Generator) Render(ctx context.Context, applicationID uuid.UUID, baseURI string) ([]byte, error) {
	res, err := g.render(ctx, applicationID, baseURI)
	if err != nil {
		return nil, err
	}
	return res.doc, nil
}

// Outcome classifies an error returned by Render.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeGenerated
	case errors.Is(err, ErrApplicationNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrUnsupportedState):
		return OutcomeUnsupportedState
	case errors.Is(err, ErrMissingReview):
		return OutcomePreconditionFailed
	case errors.Is(err, ErrLookupFailed):
		return OutcomeLookupFailed
	default:
		return OutcomeRenderFailed
	}
}

func warnMessage(outcome string) string {
	switch outcome {
	case OutcomeNotFound:
		return "no application found"
	case OutcomeUnsupportedState:
		return "no document can be generated for the application state"
	default:
		return "application document generation failed"
	}
}

type renderResult struct {
	state models.ApplicationState
	doc   []byte
}

func (g *Generator) render(ctx context.Context, applicationID uuid.UUID, baseURI string) (res renderResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res.doc = nil
			err = fmt.Errorf("%w: panic: %v", ErrRenderFailed, r)
		}
	}()

	app, err := g.repo.FindByID(ctx, applicationID)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	if app == nil {
		return res, fmt.Errorf("%w: %s", ErrApplicationNotFound, applicationID)
	}
	res.state = app.State

	baseURI = trimTrailingSlash(baseURI)

	view, ok := stateViews[app.State]
	if !ok {
		return res, fmt.Errorf("%w: %q (%s)", ErrUnsupportedState, app.State, app.State.Description())
	}

	body, err := g.renderView(ctx, view, app, baseURI)
	if err != nil {
		return res, err
	}

	doc, err := g.pdf.Render(body, documentOptions())
	if err != nil {
		return res, fmt.Errorf("%w: pdf: %w", ErrRenderFailed, err)
	}
	if len(doc.Bytes()) == 0 {
		return res, fmt.Errorf("%w: pdf renderer returned an empty document", ErrRenderFailed)
	}

	res.doc = doc.Bytes()
	return res, nil
}

func (g *Generator) renderView(ctx context.Context, view stateView, app *models.Application, baseURI string) (string, error) {
	templatePath, err := g.resolver.Resolve(ctx, view.template)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %w", ErrRenderFailed, view.template, err)
	}

	model, err := view.build(g.settings, app)
	if err != nil {
		return "", err
	}

	body, err := g.views.Render(ctx, baseURI+templatePath, model)
	if err != nil {
		return "", fmt.Errorf("%w: view %s: %w", ErrRenderFailed, view.template, err)
	}
	return body, nil
}

func documentOptions() pdf.Options {
	return pdf.Options{
		PageNumbers: pdf.PageNumbersNumeric,
		Header: pdf.HeaderOptions{
			Repeat: pdf.HeaderFirstPageOnly,
			HTML:   HeaderHTML,
		},
	}
}

// trimTrailingSlash removes exactly one trailing "/".
func trimTrailingSlash(uri string) string {
	if len(uri) > 0 && uri[len(uri)-1] == '/' {
		return uri[:len(uri)-1]
	}
	return uri
}
