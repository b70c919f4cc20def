// Package hub is the MQTT device client for the cloud IoT hub. Each
// simulated device gets its own client identified by its connection
// string credential.
package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/anicoll/zerotrust-iot/internal/pkg/model"
	"github.com/anicoll/zerotrust-iot/pkg/sas"
)

const (
	mqttsPort      = 8883
	apiVersion     = "2021-04-12"
	tokenValidity  = time.Hour
	disconnectWait = 250 // milliseconds, paho units
)

var (
	ErrConnectTimeout = errors.New("unable to connect in time")
	ErrSendTimeout    = errors.New("telemetry send timed out")
)

type Client struct {
	cs      ConnectionString
	client  paho_mqtt.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient parses the raw credential and prepares an MQTT client for the
// hub. No network traffic happens until Connect.
func NewClient(rawConnectionString string, timeout time.Duration) (*Client, error) {
	cs, err := ParseConnectionString(rawConnectionString)
	if err != nil {
		return nil, err
	}

	resourceURI := fmt.Sprintf("%s/devices/%s", cs.HostName, cs.DeviceID)
	password, err := sas.Token(resourceURI, cs.SharedAccessKey, time.Now().Add(tokenValidity))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedConnectionString, err)
	}

	opts := paho_mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tls://%s:%d", cs.HostName, mqttsPort))
	opts.SetClientID(cs.DeviceID)
	opts.SetUsername(fmt.Sprintf("%s/%s/?api-version=%s", cs.HostName, cs.DeviceID, apiVersion))
	opts.SetPassword(password)
	opts.SetConnectTimeout(timeout)
	opts.SetAutoReconnect(false)
	opts.SetCleanSession(true)

	return &Client{
		cs:      cs,
		client:  paho_mqtt.NewClient(opts),
		timeout: timeout,
		logger:  zap.L(),
	}, nil
}

func (c *Client) DeviceID() string {
	return c.cs.DeviceID
}

func (c *Client) Connect() error {
	token := c.client.Connect()
	if !token.WaitTimeout(c.timeout) {
		return ErrConnectTimeout
	}
	if err := token.Error(); err != nil {
		return err
	}
	c.logger.Debug("device connected", zap.String("device", c.cs.DeviceID))
	return nil
}

func (c *Client) Disconnect() {
	c.client.Disconnect(disconnectWait)
	c.logger.Debug("device disconnected", zap.String("device", c.cs.DeviceID))
}

// SendTelemetry serializes the reading and publishes it on the device's
// event topic, waiting at most the configured timeout so a hung broker
// cannot stall a dispatch tick indefinitely.
func (c *Client) SendTelemetry(reading model.Reading, properties map[string]string) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return err
	}
	return c.Publish(payload, properties)
}

// Publish sends a raw payload. The probe scenarios use it to push payloads
// that SendTelemetry would never produce.
func (c *Client) Publish(payload []byte, properties map[string]string) error {
	token := c.client.Publish(c.eventTopic(properties), 1, false, payload)
	if !token.WaitTimeout(c.timeout) {
		return ErrSendTimeout
	}
	return token.Error()
}

// eventTopic is "devices/<id>/messages/events/" with the property bag
// appended as url-encoded pairs, the hub's convention for message
// properties over MQTT.
func (c *Client) eventTopic(properties map[string]string) string {
	topic := fmt.Sprintf("devices/%s/messages/events/", c.cs.DeviceID)
	if len(properties) == 0 {
		return topic
	}
	values := url.Values{}
	for key, value := range properties {
		values.Set(key, value)
	}
	return topic + values.Encode()
}
