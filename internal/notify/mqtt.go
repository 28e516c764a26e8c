package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// ErrPublishTimeout is returned when the broker does not acknowledge in time.
var ErrPublishTimeout = errors.New("notify: publish timed out")

// #region config
// MQTTConfig configures the broker connection and topic layout.
type MQTTConfig struct {
	Broker         string
	ClientID       string
	TopicPrefix    string // events go to <prefix>/<userId>
	QoS            byte
	PublishTimeout time.Duration
}

// DefaultMQTTConfig returns a local broker at QoS 1.
func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{
		Broker:         "tcp://localhost:1883",
		ClientID:       fmt.Sprintf("wellness-%d", time.Now().Unix()),
		TopicPrefix:    "wellness/interventions",
		QoS:            1,
		PublishTimeout: 2 * time.Second,
	}
}

// #endregion config

// #region notifier
// Publisher is the part of mqtt.Client the notifier uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTNotifier publishes intervention events as JSON.
type MQTTNotifier struct {
	pub    Publisher
	client mqtt.Client // set only when DialMQTT owns the connection
	cfg    MQTTConfig
	logger *zap.Logger
}

// NewMQTTNotifier wraps an existing publisher. logger may be nil.
func NewMQTTNotifier(pub Publisher, cfg MQTTConfig, logger *zap.Logger) *MQTTNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MQTTNotifier{pub: pub, cfg: cfg, logger: logger.Named("notify")}
}

// DialMQTT connects to cfg.Broker with auto-reconnect.
func DialMQTT(cfg MQTTConfig, logger *zap.Logger) (*MQTTNotifier, error) {
	n := NewMQTTNotifier(nil, cfg, logger)
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.OnConnect = func(mqtt.Client) {
		n.logger.Info("connected to broker", zap.String("broker", cfg.Broker))
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		n.logger.Warn("broker connection lost", zap.Error(err))
	}

	client := mqtt.NewClient(opts)
	if tok := client.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, tok.Error())
	}
	n.pub, n.client = client, client
	return n, nil
}

// Topic is where events for userID are published.
func (n *MQTTNotifier) Topic(userID string) string {
	return n.cfg.TopicPrefix + "/" + userID
}

// Notify publishes ev and waits for the broker, ctx, or the publish timeout.
func (n *MQTTNotifier) Notify(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify %s: %w", ev.UserID, err)
	}
	tok := n.pub.Publish(n.Topic(ev.UserID), n.cfg.QoS, false, payload)

	timer := time.NewTimer(n.cfg.PublishTimeout)
	defer timer.Stop()
	select {
	case <-tok.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("notify %s: %w", ev.UserID, ErrPublishTimeout)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("notify %s: %w", ev.UserID, err)
	}
	n.logger.Debug("intervention published",
		zap.String("topic", n.Topic(ev.UserID)),
		zap.String("intervention", ev.InterventionID),
	)
	return nil
}

// Close disconnects a connection opened by DialMQTT.
func (n *MQTTNotifier) Close() {
	if n.client != nil {
		n.client.Disconnect(250)
	}
}

// #endregion notifier
