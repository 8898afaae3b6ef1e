// internal/workers/document/generate-application-document/config.go
package generateapplicationdocument

import (
	"time"

	"application-documents/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// BaseURI is used when the job does not carry a baseUri variable.
	BaseURI string
}

func LoadConfig(cfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Timeout: config.GetDuration(wcfg.Timeout),
		BaseURI: cfg.Document.BaseURI,
	}
}
