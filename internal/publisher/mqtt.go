package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jgoulah/kpxscraper/internal/config"
)

const publishTimeout = 10 * time.Second

// client is the subset of mqtt.Client the publisher needs
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher sends stored records to an MQTT broker
type Publisher struct {
	client      client
	topicPrefix string
}

// New connects to the configured MQTT broker
func New(mqttCfg config.MQTTConfig) (*Publisher, error) {
	if !mqttCfg.Enabled {
		return nil, fmt.Errorf("MQTT publishing is not enabled in config")
	}
	if mqttCfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", mqttCfg.Broker))
	opts.SetClientID("kpxscraper")
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	if mqttCfg.Username != "" {
		opts.SetUsername(mqttCfg.Username)
	}
	if mqttCfg.Password != "" {
		opts.SetPassword(mqttCfg.Password)
	}

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return &Publisher{client: c, topicPrefix: mqttCfg.GetTopicPrefix()}, nil
}

// Topic returns the topic records of kind for zoneKey are published to
func (p *Publisher) Topic(zoneKey, kind string) string {
	return Topic(p.topicPrefix, zoneKey, kind)
}

// Topic builds "<prefix>/<zone>/<kind>"
func Topic(prefix, zoneKey, kind string) string {
	return fmt.Sprintf("%s/%s/%s", prefix, zoneKey, kind)
}

// Payload encodes a record as the JSON message body
func Payload(record any) ([]byte, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return body, nil
}

// Publish sends one record with QoS 1
func (p *Publisher) Publish(zoneKey, kind string, record any) error {
	body, err := Payload(record)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.Topic(zoneKey, kind), 1, false, body)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing to %s: timed out", p.Topic(zoneKey, kind))
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.Topic(zoneKey, kind), err)
	}
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
