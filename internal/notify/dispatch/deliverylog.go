// internal/notify/dispatch/deliverylog.go
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/getreference/notification-engine/internal/common/logger"
	"github.com/getreference/notification-engine/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// DeliveryRecorder receives the per-channel outcomes of every dispatch.
// Recording is best effort and must never influence the dispatch result.
type DeliveryRecorder interface {
	Record(ctx context.Context, event models.Event, results []models.ChannelResult)
}

// DeliveryRecord is one indexed document per channel attempt.
type DeliveryRecord struct {
	RecipientID string `json:"recipientId"`
	Kind        string `json:"kind"`
	Channel     string `json:"channel"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Error       string `json:"error,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// ElasticsearchRecorder indexes delivery outcomes for monitoring. A user who
// never received a notification leaves a trail here rather than nowhere.
type ElasticsearchRecorder struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticsearchRecorder(client *elasticsearch.Client, index string, log logger.Logger) *ElasticsearchRecorder {
	return &ElasticsearchRecorder{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "delivery-log"}),
	}
}

func (r *ElasticsearchRecorder) Record(ctx context.Context, event models.Event, results []models.ChannelResult) {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, res := range results {
		doc := DeliveryRecord{
			RecipientID: event.RecipientID,
			Kind:        string(event.Kind),
			Channel:     string(res.Channel),
			Status:      string(res.Status),
			Reason:      res.Reason,
			Error:       res.Error,
			Timestamp:   now,
		}

		body, err := json.Marshal(doc)
		if err != nil {
			r.logger.Warn("delivery record marshal failed", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}

		resp, err := r.client.Index(
			r.index,
			bytes.NewReader(body),
			r.client.Index.WithContext(ctx),
		)
		if err != nil {
			r.logger.Warn("delivery record index failed", map[string]interface{}{
				"channel": string(res.Channel),
				"error":   err.Error(),
			})
			continue
		}
		if resp.IsError() {
			r.logger.Warn("delivery record index error", map[string]interface{}{
				"channel": string(res.Channel),
				"status":  resp.Status(),
			})
		}
		resp.Body.Close()
	}
}
