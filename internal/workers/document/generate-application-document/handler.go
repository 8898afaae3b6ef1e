// internal/workers/document/generate-application-document/handler.go
package generateapplicationdocument

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "application-documents/internal/common/errors"
	"application-documents/internal/common/logger"
	"application-documents/internal/common/metrics"
	"application-documents/internal/common/observability"
	"application-documents/internal/common/validation"
	"application-documents/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "generate-application-document"
)

var inputSchema = validation.MustSchema(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"applicationId"},
	"properties": map[string]interface{}{
		"applicationId": map[string]interface{}{
			"type":    "string",
			"pattern": "^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$",
		},
		"baseUri": map[string]interface{}{
			"type": "string",
		},
	},
})

// DocumentGenerator returns nil when no document can be produced.
type DocumentGenerator interface {
	Generate(ctx context.Context, applicationID uuid.UUID, baseURI string) []byte
}

type DocumentStore interface {
	Bucket() string
	DocumentKey(applicationID string, at time.Time) string
	Upload(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) (string, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, event interface{}) (string, error)
}

type Handler struct {
	config    *Config
	db        *sql.DB
	generator DocumentGenerator
	store     DocumentStore
	events    EventPublisher
	obs       *observability.Observability
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
	now       func() time.Time
}

// NewHandler builds the worker. store and events may be nil when archiving or
// notifications are disabled.
func NewHandler(
	config *Config,
	db *sql.DB,
	generator DocumentGenerator,
	store DocumentStore,
	events EventPublisher,
	obs *observability.Observability,
	log logger.Logger,
) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		db:        db,
		generator: generator,
		store:     store,
		events:    events,
		obs:       obs,
		errors:    apperrors.NewErrorHandler(log),
		logger:    log,
		now:       time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)), start)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err, start)
		return
	}

	h.completeJob(client, job, output, start)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	applicationID, err := uuid.Parse(input.ApplicationID)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("applicationId: %v", err))
	}

	baseURI := input.BaseURI
	if baseURI == "" {
		baseURI = h.config.BaseURI
	}

	doc := h.generator.Generate(ctx, applicationID, baseURI)
	if doc == nil {
		h.logger.Info("no document generated", map[string]interface{}{
			"applicationId": input.ApplicationID,
		})
		return &Output{ApplicationID: applicationID.String(), Status: StatusNotGenerated}, nil
	}

	generated := h.now().UTC()
	output := &Output{
		ApplicationID: applicationID.String(),
		Status:        StatusGenerated,
		SizeBytes:     len(doc),
		GeneratedAt:   generated.Format(time.RFC3339),
	}

	if h.store == nil {
		h.logger.Warn("document storage disabled, document not archived", map[string]interface{}{
			"applicationId": output.ApplicationID,
		})
		return output, nil
	}

	key := h.store.DocumentKey(output.ApplicationID, generated)
	etag, err := h.store.Upload(ctx, key, doc, "application/pdf", map[string]string{
		"application-id": output.ApplicationID,
		"generated-at":   output.GeneratedAt,
	})
	if err != nil {
		return nil, apperrors.NewDocumentStoreFailedError(err).
			WithMetadata("applicationId", output.ApplicationID).
			WithMetadata("documentKey", key)
	}
	output.DocumentKey = key

	event := models.DocumentGeneratedEvent{
		Type:          models.EventDocumentGenerated,
		ApplicationID: output.ApplicationID,
		DocumentKey:   key,
		Bucket:        h.store.Bucket(),
		ETag:          etag,
		SizeBytes:     output.SizeBytes,
		GeneratedAt:   output.GeneratedAt,
	}
	h.writeAuditLog(ctx, event)
	h.publishEvent(ctx, event)

	h.logger.Info("application document stored", map[string]interface{}{
		"applicationId": output.ApplicationID,
		"documentKey":   key,
		"sizeBytes":     output.SizeBytes,
	})

	return output, nil
}

func validateInput(input *Input) error {
	result, err := inputSchema.Validate(input)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("input validation failed: %s", strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}

// writeAuditLog records the stored document. Failures are logged only.
func (h *Handler) writeAuditLog(ctx context.Context, event models.DocumentGeneratedEvent) {
	if h.db == nil {
		return
	}

	details, err := json.Marshal(map[string]interface{}{
		"documentKey": event.DocumentKey,
		"bucket":      event.Bucket,
		"etag":        event.ETag,
		"sizeBytes":   event.SizeBytes,
	})
	if err != nil {
		details = []byte("{}")
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"document_generated",
		"application",
		event.ApplicationID,
		details,
		event.GeneratedAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":         err.Error(),
			"applicationId": event.ApplicationID,
		})
	}
}

func (h *Handler) publishEvent(ctx context.Context, event models.DocumentGeneratedEvent) {
	if h.events == nil {
		return
	}

	messageID, err := h.events.PublishEvent(ctx, event.Type, event)
	if err != nil {
		h.logger.Warn("document event publish failed", map[string]interface{}{
			"error":         apperrors.NewNotificationSendFailedError("sns", err).Error(),
			"applicationId": event.ApplicationID,
		})
		return
	}

	h.logger.Debug("document event published", map[string]interface{}{
		"messageId":     messageID,
		"applicationId": event.ApplicationID,
	})
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output, start time.Time) {
	ctx := context.Background()
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
		"status": output.Status,
	})
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error, start time.Time) {
	ctx := context.Background()
	stdErr := apperrors.AsStandardError(err)
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()

	h.errors.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
