package workflow

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/tallybridge/config"
	"bitbucket.org/mmdatafocus/tallybridge/models"
	"bitbucket.org/mmdatafocus/tallybridge/utils"
)

// SyncPubSubPayload is the message body for an async sync trigger.
type SyncPubSubPayload struct {
	CompanyName  string                       `json:"company_name"`
	BankLedger   string                       `json:"bank_ledger"`
	TriggeredBy  string                       `json:"triggered_by"`
	Transactions []models.ImportedTransaction `json:"transactions"`
}

// PubSubPushEnvelope is the push-subscription wrapper Google delivers.
// Data is base64 in the JSON and decodes transparently.
type PubSubPushEnvelope struct {
	Message struct {
		Data      []byte `json:"data"`
		MessageId string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

func syncTopicName() string {
	name := strings.TrimSpace(os.Getenv("TALLY_SYNC_TOPIC"))
	if name == "" {
		name = "tally-sync"
	}
	return name
}

// PublishSyncBatch hands a batch off for asynchronous processing via
// Pub/Sub, for callers that do not want to hold an HTTP request open
// for the whole push.
func PublishSyncBatch(ctx context.Context, payload SyncPubSubPayload) error {
	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}

	topicName := syncTopicName()
	topic := client.Topic(topicName)
	if envBoolFromEnv("TALLY_SYNC_CREATE_TOPIC", false) {
		topic, err = config.CreateTopicIfNotExists(client, topicName)
		if err != nil {
			return err
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	res := topic.Publish(ctx, &pubsub.Message{Data: data})
	_, err = res.Get(ctx)
	return err
}

// PubSubPushHandler processes push-delivered sync batches. It always
// answers 204: a malformed message must be acked, not redelivered
// forever, and a failed run is retried by a human, not the broker.
func PubSubPushHandler(gateway TallyGateway, recorder RunRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !envBoolFromEnv("ENABLE_TALLY_PUBSUB_PUSH_ENDPOINT", true) {
			c.Status(204)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(204)
			return
		}

		var envelope PubSubPushEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.Status(204)
			return
		}

		var payload SyncPubSubPayload
		if err := json.Unmarshal(envelope.Message.Data, &payload); err != nil {
			c.Status(204)
			return
		}
		if payload.CompanyName == "" || payload.BankLedger == "" || len(payload.Transactions) == 0 {
			c.Status(204)
			return
		}

		ctx := utils.SetCompanyNameInContext(c.Request.Context(), payload.CompanyName)

		// Push delivery is at-least-once; a replayed message must not
		// push the batch twice. Dedupe on messageId when Redis is up.
		if rdb := config.GetRedisDB(); rdb != nil && envelope.Message.MessageId != "" {
			fresh, err := rdb.SetNX(ctx, "tallybridge:pubsub:"+envelope.Message.MessageId, 1, 24*time.Hour).Result()
			if err == nil && !fresh {
				c.Status(204)
				return
			}
		}

		lock, err := AcquireCompanySyncLock(ctx, payload.CompanyName)
		if err != nil {
			c.Status(204)
			return
		}
		defer ReleaseCompanySyncLock(ctx, lock)

		triggeredBy := payload.TriggeredBy
		if triggeredBy == "" {
			triggeredBy = models.SyncTriggeredSystem
		}
		opts := SyncOptions{
			Company:     payload.CompanyName,
			BankLedger:  payload.BankLedger,
			TriggeredBy: triggeredBy,
			Recorder:    recorder,
		}
		_, _ = SyncBatch(ctx, gateway, opts, payload.Transactions)
		c.Status(204)
	}
}

func envBoolFromEnv(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}
