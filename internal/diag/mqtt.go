package diag

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"smartfarmer_console/internal/logger"
)

const (
	connectTimeout  = 5 * time.Second
	disconnectQuiet = 250 // ms
)

// Publisher is the subset of mqtt.Client the reporter needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTReporter mirrors failure events to an MQTT topic as JSON.
// Report returns before the publish is handed to the client.
type MQTTReporter struct {
	pub   Publisher
	topic string
	qos   byte
	log   *logger.Logger
}

// NewMQTTReporter publishes to topic at the given QoS. log may be nil.
func NewMQTTReporter(pub Publisher, topic string, qos byte, log *logger.Logger) *MQTTReporter {
	return &MQTTReporter{pub: pub, topic: topic, qos: qos, log: log}
}

// Report marshals ev and publishes it in the background.
func (r *MQTTReporter) Report(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		if r.log != nil {
			r.log.Errorw("diag_marshal_failed", "err", err)
		}
		return
	}
	// Publish can block while the client's outbound queue is full.
	go func() {
		tok := r.pub.Publish(r.topic, r.qos, false, payload)
		<-tok.Done()
		if err := tok.Error(); err != nil && r.log != nil {
			r.log.Debugw("diag_publish_failed", "err", err, "topic", r.topic)
		}
	}()
}

// MQTTOptions configures Connect.
type MQTTOptions struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// Connect dials the broker with auto-reconnect enabled.
func Connect(o MQTTOptions, log *logger.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(o.ClientID)
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Infow("mqtt_connected", "broker", o.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warnw("mqtt_connection_lost", "err", err)
	})

	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(connectTimeout) {
		// ConnectRetry keeps trying in the background.
		log.Warnw("mqtt_connect_pending", "broker", o.Broker)
		return client, nil
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("connect mqtt %s: %w", o.Broker, err)
	}
	return client, nil
}

// Disconnect closes the client, giving in-flight publishes a moment to drain.
func Disconnect(c mqtt.Client) {
	if c != nil {
		c.Disconnect(disconnectQuiet)
	}
}
