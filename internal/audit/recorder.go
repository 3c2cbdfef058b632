// internal/audit/recorder.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"vcard-reminder/internal/common/logger"
	"vcard-reminder/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Recorder persists dispatch attempts to an audit trail. Recording is
// best-effort; failures are logged and never interrupt dispatch.
type Recorder interface {
	Record(ctx context.Context, attempt models.DispatchAttempt)
}

// ESRecorder indexes one document per dispatch attempt.
type ESRecorder struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewESRecorder(client *elasticsearch.Client, index string, log logger.Logger) *ESRecorder {
	return &ESRecorder{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "audit-recorder"}),
	}
}

func (r *ESRecorder) Record(ctx context.Context, attempt models.DispatchAttempt) {
	body, err := json.Marshal(attempt)
	if err != nil {
		r.logger.Error("failed to marshal dispatch attempt", map[string]interface{}{
			"cardId": attempt.CardID,
			"error":  err,
		})
		return
	}

	req := esapi.IndexRequest{
		Index:      r.index,
		DocumentID: attempt.ID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		r.logger.Warn("failed to index dispatch attempt", map[string]interface{}{
			"cardId": attempt.CardID,
			"error":  err,
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		r.logger.Warn("audit index rejected dispatch attempt", map[string]interface{}{
			"cardId": attempt.CardID,
			"status": fmt.Sprintf("%d", res.StatusCode),
		})
	}
}

// NopRecorder discards attempts; used when no audit cluster is configured.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, models.DispatchAttempt) {}
