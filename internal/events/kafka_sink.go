package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"banker/internal/common"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter kafka.Writer 的最小接口，测试时可替换
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink 把事件以 JSON 发布到 Kafka 主题，以节点为 key 保证同一节点有序
type KafkaSink struct {
	writer MessageWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaSink 根据配置创建 Kafka 输出端
func NewKafkaSink(config common.KafkaConfig, logger *zap.Logger) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: config.BatchTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return NewKafkaSinkWithWriter(writer, config.Topic, logger)
}

// NewKafkaSinkWithWriter 使用给定 writer 创建 Kafka 输出端
func NewKafkaSinkWithWriter(writer MessageWriter, topic string, logger *zap.Logger) *KafkaSink {
	return &KafkaSink{
		writer: writer,
		topic:  topic,
		logger: logger.With(zap.String("component", "kafka_sink"), zap.String("topic", topic)),
	}
}

// Process 发布单个事件
func (k *KafkaSink) Process(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}

	key := event.NodeName
	if key == "" {
		key = strconv.Itoa(event.Node)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}

	k.logger.Debug("Event published",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)))
	return nil
}

// Close 关闭底层 writer
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
