package mqtt

import (
	"crypto/tls"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zafarb-21/rpm-web-dashboard/internal/config"
)

// MessageHandler 消息处理函数类型
type MessageHandler func(topic string, payload []byte) error

// Client wraps the paho MQTT client for the telemetry subscriber.
// Lifecycle: Start connects asynchronously and subscribes every configured
// topic at QoS 0 whenever the connection is (re)established; Stop
// unsubscribes and disconnects, after which no handler is invoked again.
// The broker tolerates occasional sample loss, hence QoS 0 and no
// redelivery handling.
type Client struct {
	client  mqtt.Client
	config  *config.MQTTConfig
	handler MessageHandler
	logger  *zap.Logger
}

// NewClient prepares the client without connecting.
func NewClient(cfg *config.MQTTConfig, handler MessageHandler, logger *zap.Logger) *Client {
	c := &Client{
		config:  cfg,
		handler: handler,
		logger:  logger,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL())
	opts.SetClientID("rpm-backend-" + uuid.NewString()[:8])
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetCleanSession(true)

	if cfg.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	// A lost broker connection must never take the service down: keep
	// retrying the initial connect and reconnect with capped backoff.
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Minute)

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(opts)
	return c
}

// Start begins connecting and returns without waiting for the broker.
// Connect failures are logged and retried in the background.
func (c *Client) Start() {
	token := c.client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			c.logger.Error("MQTT connect failed, retrying in background", zap.Error(err))
		}
	}()
}

// Stop unsubscribes and disconnects. The quiesce window lets in-flight
// message callbacks finish; after return no further messages reach the
// handler.
func (c *Client) Stop() {
	if c.client.IsConnected() {
		if token := c.client.Unsubscribe(c.config.Topics...); token.Wait() && token.Error() != nil {
			c.logger.Warn("Failed to unsubscribe", zap.Error(token.Error()))
		}
	}
	c.client.Disconnect(250)
	c.logger.Info("MQTT client disconnected")
}

// onConnect runs on every successful (re)connect; subscriptions are
// re-issued each time because the session is clean.
func (c *Client) onConnect(client mqtt.Client) {
	c.logger.Info("MQTT connected, subscribing",
		zap.String("broker", c.config.BrokerURL()),
		zap.Strings("topics", c.config.Topics),
	)

	for _, topic := range c.config.Topics {
		topic := topic
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			if err := c.handler(msg.Topic(), msg.Payload()); err != nil {
				c.logger.Warn("Message handler error",
					zap.String("topic", msg.Topic()),
					zap.Error(err),
				)
			}
		})
		if token.Wait() && token.Error() != nil {
			c.logger.Error("Failed to subscribe",
				zap.String("topic", topic),
				zap.Error(token.Error()),
			)
		}
	}
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	c.logger.Warn("MQTT connection lost, reconnecting", zap.Error(err))
}
