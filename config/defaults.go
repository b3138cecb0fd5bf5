package config

import "github.com/spf13/viper"

func setDefaults() {
	viper.SetDefault("server.gatewayid", "gw-1")
	viper.SetDefault("server.httpaddr", ":8080")
	viper.SetDefault("server.healthaddr", ":50052")
	viper.SetDefault("server.nodeid", 1)

	viper.SetDefault("mongo.uri", "mongodb://127.0.0.1:27017")
	viper.SetDefault("mongo.database", "syncchat")

	viper.SetDefault("redis.addr", "127.0.0.1:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("nats.enabled", false)
	viper.SetDefault("nats.servers", []string{"nats://127.0.0.1:4222"})
	viper.SetDefault("nats.name", "syncchat-gateway")

	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.brokers", []string{"127.0.0.1:9092"})
	viper.SetDefault("kafka.topic", "im.message.persisted")

	viper.SetDefault("websocket.sendqueuesize", 256)
	viper.SetDefault("websocket.maxpayloadsize", 64*1024)
	viper.SetDefault("websocket.authtimeout", 30)
	viper.SetDefault("websocket.pinginterval", 25)
	viper.SetDefault("websocket.pongtimeout", 75)
	viper.SetDefault("websocket.writetimeout", 10)

	viper.SetDefault("auth.jwtsecret", "")
	viper.SetDefault("auth.tokenttl", 72)

	viper.SetDefault("upload.dir", "./uploads")
	viper.SetDefault("upload.baseurl", "/files")
	viper.SetDefault("upload.maxsize", int64(16*1024*1024))

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.addr", ":9100")
	viper.SetDefault("metrics.path", "/metrics")
}
