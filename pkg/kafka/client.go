// Package kafka 提供了与 Kafka 消息队列交互的功能。
// 当前仅作为文档生命周期事件的生产者，发送是尽力而为的：
// 失败只记录日志，绝不影响摄取与删除的结果。
package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"rag-chat-go/internal/config"
	"rag-chat-go/pkg/events"
	"rag-chat-go/pkg/log"
)

var producer *kafka.Writer

// InitProducer 初始化 Kafka 生产者。Brokers 为空时事件发送保持禁用。
func InitProducer(cfg config.KafkaConfig) {
	if cfg.Brokers == "" {
		log.Info("Kafka 未配置, 文档事件发送已禁用")
		return
	}
	producer = &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(cfg.Brokers, ",")...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// Enabled 报告事件发送是否可用。
func Enabled() bool {
	return producer != nil
}

// PublishDocumentEvent 发送一条文档生命周期事件，尽力而为。
func PublishDocumentEvent(event events.DocumentEvent) {
	if !Enabled() {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		log.Errorf("序列化文档事件失败: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = producer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(event.DocumentID),
			Value: eventBytes,
		},
	)
	if err != nil {
		log.Errorf("发送文档事件失败: type=%s, documentID=%s, err=%v", event.Type, event.DocumentID, err)
	}
}

// Close 关闭生产者连接。
func Close() {
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}
}
