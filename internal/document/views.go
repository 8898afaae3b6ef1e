package document

import (
	"strings"
	"time"

	"application-documents/internal/models"
)

// Template names looked up through the TemplateResolver.
const (
	TemplatePending   = "PendingApplication"
	TemplateActivated = "ActivatedApplication"
	TemplateInReview  = "InReviewApplication"
)

// ApplicationViewModel carries the fields every document shows.
type ApplicationViewModel struct {
	ReferenceNumber string
	State           string
	FullName        string
	AppliedOn       time.Time
	SupportEmail    string
	Signature       string
}

type ActivatedApplicationViewModel struct {
	ApplicationViewModel
	// LegalEntity is nil unless the applicant applied as a legal entity.
	LegalEntity *models.LegalEntity
	// PortfolioFunds lists every fund of every product in order. A fund held
	// under two products appears twice.
	PortfolioFunds       []models.Fund
	PortfolioTotalAmount float64
}

type InReviewApplicationViewModel struct {
	ActivatedApplicationViewModel
	InReviewMessage     string
	InReviewInformation *models.Review
}

type stateView struct {
	template string
	build    func(s Settings, app *models.Application) (any, error)
}

var stateViews = map[models.ApplicationState]stateView{
	models.StatePending: {
		template: TemplatePending,
		build: func(s Settings, app *models.Application) (any, error) {
			return newApplicationViewModel(s, app), nil
		},
	},
	models.StateActivated: {
		template: TemplateActivated,
		build: func(s Settings, app *models.Application) (any, error) {
			return newActivatedViewModel(s, app), nil
		},
	},
	models.StateInReview: {
		template: TemplateInReview,
		build: func(s Settings, app *models.Application) (any, error) {
			return newInReviewViewModel(s, app)
		},
	},
}

// SupportedStates returns the states a document can be generated for.
func SupportedStates() []models.ApplicationState {
	return []models.ApplicationState{models.StatePending, models.StateActivated, models.StateInReview}
}

func newApplicationViewModel(s Settings, app *models.Application) ApplicationViewModel {
	return ApplicationViewModel{
		ReferenceNumber: app.ReferenceNumber,
		State:           app.State.Description(),
		FullName:        app.FullName(),
		AppliedOn:       app.Date,
		SupportEmail:    s.SupportEmail(),
		Signature:       s.Signature(),
	}
}

func newActivatedViewModel(s Settings, app *models.Application) ActivatedApplicationViewModel {
	vm := ActivatedApplicationViewModel{
		ApplicationViewModel: newApplicationViewModel(s, app),
		PortfolioFunds:       portfolioFunds(app.Products),
	}
	if app.IsLegalEntity {
		vm.LegalEntity = app.LegalEntity
	}
	vm.PortfolioTotalAmount = portfolioTotal(vm.PortfolioFunds, s.TaxRate())
	return vm
}

func newInReviewViewModel(s Settings, app *models.Application) (InReviewApplicationViewModel, error) {
	if app.CurrentReview == nil {
		return InReviewApplicationViewModel{}, ErrMissingReview
	}
	return InReviewApplicationViewModel{
		ActivatedApplicationViewModel: newActivatedViewModel(s, app),
		InReviewMessage:               reviewMessage(app.CurrentReview.Reason),
		InReviewInformation:           app.CurrentReview,
	}, nil
}

func portfolioFunds(products []models.Product) []models.Fund {
	funds := []models.Fund{}
	for _, p := range products {
		funds = append(funds, p.Funds...)
	}
	return funds
}

func portfolioTotal(funds []models.Fund, taxRate float64) float64 {
	var total float64
	for _, f := range funds {
		total += (f.Amount - f.Fees) * taxRate
	}
	return total
}

const reviewMessagePrefix = "Your application has been placed in review"

type reviewRule struct {
	matches func(reason string) bool
	suffix  string
}

// First matching rule wins.
var reviewRules = []reviewRule{
	{matches: containsFold("address"), suffix: " pending outstanding address verification for FICA purposes."},
	{matches: containsFold("bank"), suffix: " pending outstanding bank account verification."},
}

const defaultReviewSuffix = " because of suspicious account behaviour. Please contact support ASAP."

func reviewMessage(reason string) string {
	for _, rule := range reviewRules {
		if rule.matches(reason) {
			return reviewMessagePrefix + rule.suffix
		}
	}
	return reviewMessagePrefix + defaultReviewSuffix
}

func containsFold(keyword string) func(string) bool {
	keyword = strings.ToLower(keyword)
	return func(s string) bool {
		return strings.Contains(strings.ToLower(s), keyword)
	}
}
