// internal/common/camunda/camunda_test.go
package camunda

import (
	"context"
	"errors"
	"testing"

	"application-documents/internal/common/config"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"refused", errors.New("dial tcp 127.0.0.1:26500: connect: connection refused"), true},
		{"deadline", context.DeadlineExceeded, true},
		{"grpc unavailable", errors.New("rpc error: code = Unavailable desc = transport is closing"), true},
		{"not found", errors.New("rpc error: code = NotFound desc = no such job"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestStartWorker_Disabled(t *testing.T) {
	handler := func(worker.JobClient, entities.Job) {}

	jobWorker := StartWorker(nil, "generate-application-document", config.WorkerConfig{Enabled: false}, handler, zap.NewNop())

	assert.Nil(t, jobWorker)
}

func TestPing_UnreachableGateway(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a closed port")
	}

	_, err := NewClient(context.Background(), config.CamundaConfig{
		BrokerAddress:  "127.0.0.1:1",
		RequestTimeout: 200,
	})

	assert.Error(t, err)
}
