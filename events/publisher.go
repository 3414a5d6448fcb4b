package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leapzhao/json-docstore/config"
	"github.com/leapzhao/json-docstore/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Publisher 文档写入事件发布
type Publisher interface {
	Publish(ctx context.Context, event model.DocumentStoredEvent) error
	Close() error
}

// NopPublisher 未启用事件时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.DocumentStoredEvent) error { return nil }

func (NopPublisher) Close() error { return nil }

// RedisPublisher 通过 Redis PUBLISH 发送事件
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher 使用已有客户端创建发布者
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event model.DocumentStoredEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.channel, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// New 根据配置创建发布者
func New(ctx context.Context, cfg config.Config) (Publisher, error) {
	if !cfg.Events.Enabled {
		return NopPublisher{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Events.RedisAddr,
		Password: cfg.Events.Password,
		DB:       cfg.Events.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info().
		Str("addr", cfg.Events.RedisAddr).
		Str("channel", cfg.Events.Channel).
		Msg("Event publisher connected")

	return NewRedisPublisher(client, cfg.Events.Channel), nil
}
