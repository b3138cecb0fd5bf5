package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *AppConfig {
	return &AppConfig{
		Server:    ServerConfig{GatewayID: "gw-1"},
		Auth:      AuthConfig{JWTSecret: "s"},
		WebSocket: WebSocketConfig{SendQueueSize: 256, MaxPayloadSize: 65536},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"missing gateway id", func(c *AppConfig) { c.Server.GatewayID = "" }},
		{"missing jwt secret", func(c *AppConfig) { c.Auth.JWTSecret = "" }},
		{"zero queue", func(c *AppConfig) { c.WebSocket.SendQueueSize = 0 }},
		{"zero payload limit", func(c *AppConfig) { c.WebSocket.MaxPayloadSize = 0 }},
		{"nats enabled without servers", func(c *AppConfig) { c.Nats.Enabled = true }},
		{"kafka enabled without brokers", func(c *AppConfig) { c.Kafka.Enabled = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
