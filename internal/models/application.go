// internal/models/application.go
package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ApplicationState is the lifecycle state of an application.
type ApplicationState string

const (
	StatePending   ApplicationState = "pending"
	StateActivated ApplicationState = "activated"
	StateInReview  ApplicationState = "in_review"
	StateClosed    ApplicationState = "closed"
	StateDeclined  ApplicationState = "declined"
)

var stateDescriptions = map[ApplicationState]string{
	StatePending:   "Pending",
	StateActivated: "Activated",
	StateInReview:  "In Review",
	StateClosed:    "Closed",
	StateDeclined:  "Declined",
}

// Description returns the human-readable label shown on documents.
func (s ApplicationState) Description() string {
	if d, ok := stateDescriptions[s]; ok {
		return d
	}
	words := strings.Fields(strings.ReplaceAll(string(s), "_", " "))
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

type Application struct {
	ID              uuid.UUID        `json:"id"`
	State           ApplicationState `json:"state"`
	ReferenceNumber string           `json:"referenceNumber"`
	Person          Person           `json:"person"`
	Date            time.Time        `json:"date"`
	IsLegalEntity   bool             `json:"isLegalEntity"`
	LegalEntity     *LegalEntity     `json:"legalEntity,omitempty"`
	Products        []Product        `json:"products"`
	CurrentReview   *Review          `json:"currentReview,omitempty"`
}

// FullName joins first name and surname with a single space.
func (a *Application) FullName() string {
	return a.Person.FirstName + " " + a.Person.Surname
}

type Person struct {
	FirstName string `json:"firstName"`
	Surname   string `json:"surname"`
}

type LegalEntity struct {
	Name               string `json:"name"`
	RegistrationNumber string `json:"registrationNumber"`
	TaxNumber          string `json:"taxNumber,omitempty"`
}

type Product struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Funds []Fund    `json:"funds"`
}

type Fund struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Amount float64   `json:"amount"`
	Fees   float64   `json:"fees"`
}

// Review is the open compliance review attached to an in-review application.
type Review struct {
	ID        uuid.UUID `json:"id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}
