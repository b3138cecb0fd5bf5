package config

import "github.com/pkg/errors"

func (c *AppConfig) Validate() error {
	if c.Server.GatewayID == "" {
		return errors.New("server.gatewayid must not be empty")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwtsecret must be set (SYNCCHAT_AUTH_JWTSECRET)")
	}
	if c.WebSocket.SendQueueSize <= 0 {
		return errors.New("websocket.sendqueuesize must be positive")
	}
	if c.WebSocket.MaxPayloadSize <= 0 {
		return errors.New("websocket.maxpayloadsize must be positive")
	}
	if c.Nats.Enabled && len(c.Nats.Servers) == 0 {
		return errors.New("nats.servers missing with nats.enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers missing with kafka.enabled")
	}
	return nil
}
