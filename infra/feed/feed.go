// Package feed subscribes to the live worker location stream over MQTT and
// forwards decoded rows to the entity store. The feed supplements polling; it
// is optional and the engine runs without it.
package feed

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/fieldline/dispatch/core/store"
	"github.com/fieldline/dispatch/infra/logger"
)

// Config defines the connection parameters for the location feed.
type Config struct {
	Enabled    bool   `json:"enabled"`
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	// Topic is the subscription filter. One worker publishes per topic, so a
	// single-level wildcard covers the team, e.g. "fieldline/team/+/location".
	Topic  string `json:"topic"`
	QoS    byte   `json:"qos"`
	UseTLS bool   `json:"use_tls"`
	CACert string `json:"ca_cert"`
}

// SetDefaults fills in unset fields.
func (c *Config) SetDefaults() {
	if c.Topic == "" {
		c.Topic = "fieldline/team/+/location"
	}
	if c.ClientID == "" {
		c.ClientID = "dispatch-map"
	}
}

// Validate checks required fields when the feed is enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("feed: broker required")
	}
	return nil
}

// Applier receives decoded location rows. Implemented by store.Store.
type Applier interface {
	ApplyLocation(row store.TeamLocationRow)
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Feed consumes live location messages and applies them to the store.
type Feed struct {
	cli   pahoClient
	topic string
	qos   byte
	log   logger.Logger
}

// New connects to the broker and subscribes to the location topic.
func New(cfg Config, applier Applier) (*Feed, error) {
	if applier == nil {
		return nil, fmt.Errorf("feed: applier cannot be nil")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New("location-feed")
	f := &Feed{topic: cfg.Topic, qos: cfg.QoS, log: log}

	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := loadTLSConfig(cfg.CACert)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("location feed connected")
		if token := c.Subscribe(f.topic, f.qos, f.onMessage(applier)); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to location feed broker")
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	f.cli = c
	return f, nil
}

// onMessage decodes a location row and forwards it. Malformed payloads are
// logged and dropped; one bad message must not disturb the feed.
func (f *Feed) onMessage(applier Applier) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		var row store.TeamLocationRow
		if err := json.Unmarshal(msg.Payload(), &row); err != nil {
			f.log.Warnf("drop malformed location message on %s: %v", msg.Topic(), err)
			return
		}
		if row.UserID == "" {
			f.log.Warnf("drop location message without userId on %s", msg.Topic())
			return
		}
		applier.ApplyLocation(row)
	}
}

// Close disconnects from the broker.
func (f *Feed) Close() {
	if f.cli != nil && f.cli.IsConnected() {
		f.cli.Disconnect(250)
	}
}

func loadTLSConfig(caCert string) (*tls.Config, error) {
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caCert != "" {
		pem, err := os.ReadFile(caCert)
		if err != nil {
			return nil, fmt.Errorf("feed: read ca cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("feed: invalid ca cert %s", caCert)
		}
		tlsCfg.RootCAs = pool
	}
	return tlsCfg, nil
}
