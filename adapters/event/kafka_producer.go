package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/vocmoney/pipeline/internal/config"
)

const TopicPostEvents = "pipeline.post.events"

const EventTypePostPublished = "post.published"

type PostEventPayload struct {
	EventType   string    `json:"event_type"`
	ArticleID   uuid.UUID `json:"article_id"`
	FeedKey     string    `json:"feed_key"`
	SourceName  string    `json:"source_name"`
	WPPostID    int       `json:"wp_post_id"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
}

type KafkaProducerClient struct {
	PostEventsWriter *kafka.Writer
}

func NewKafkaProducerClient(cfg config.Config) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	postWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    TopicPostEvents,
		Balancer: &kafka.LeastBytes{},
	}

	return &KafkaProducerClient{PostEventsWriter: postWriter}, nil
}

func (c *KafkaProducerClient) PublishPostEvent(ctx context.Context, payload PostEventPayload) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode post event: %w", err)
	}

	return c.PostEventsWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(payload.ArticleID.String()),
		Value: value,
	})
}

func (c *KafkaProducerClient) Close() {
	if c.PostEventsWriter != nil {
		c.PostEventsWriter.Close()
	}
}
