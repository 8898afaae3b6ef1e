// internal/models/notification.go
package models

// DocumentGeneratedEvent is published to SNS once an application document is stored.
type DocumentGeneratedEvent struct {
	Type          string `json:"type"` // "application_document_generated"
	ApplicationID string `json:"applicationId"`
	DocumentKey   string `json:"documentKey"`
	Bucket        string `json:"bucket"`
	ETag          string `json:"etag,omitempty"`
	SizeBytes     int    `json:"sizeBytes"`
	GeneratedAt   string `json:"generatedAt"`
}

const EventDocumentGenerated = "application_document_generated"
