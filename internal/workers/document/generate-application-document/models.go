// internal/workers/document/generate-application-document/models.go
package generateapplicationdocument

const (
	StatusGenerated    = "generated"
	StatusNotGenerated = "not_generated"
)

type Input struct {
	ApplicationID string `json:"applicationId"`
	BaseURI       string `json:"baseUri,omitempty"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
	DocumentKey   string `json:"documentKey,omitempty"`
	SizeBytes     int    `json:"sizeBytes,omitempty"`
	GeneratedAt   string `json:"generatedAt,omitempty"` // ISO 8601
}
