package connector

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/robotalks/dro.go/pkg/l1"
	"github.com/robotalks/dro.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/dro.go/pkg/l1/comm/websocket"
)

// Config provides common options to setup Connectors.
type Config struct {
	Ref l1.ControllerRef

	// RegistryURL specifies the URL of controller registry.
	// e.g. mqtt://host:port/topic-prefix or ws://host:port/l1
	RegistryURL string
}

var defaultConfig = Config{
	Ref:         l1.ControllerRef{Type: "dro"},
	RegistryURL: "mqtt://localhost:1883/dro/",
}

func init() {
	if val := os.Getenv("DRO_TYPE"); val != "" {
		defaultConfig.Ref.Type = val
	}
	if val := os.Getenv("DRO_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("DRO_REGISTRY_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Type, "dro-type", defaultConfig.Ref.Type, "Controller type to connect.")
	flag.StringVar(&defaultConfig.Ref.ID, "dro-id", defaultConfig.Ref.ID, "Controller ID to connect.")
	flag.Var(&defaultConfig.Ref, "dro", "Controller to connect as TYPE/ID, or ID.")
	flag.StringVar(&defaultConfig.RegistryURL, "dro-reg", defaultConfig.RegistryURL, "Controller registry URL.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (l1.Connector, error) {
	parsedURL, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %v", err)
	}
	switch parsedURL.Scheme {
	case "mqtt", "ssl", "tcp":
		return mqtt.NewConnector(c.RegistryURL)
	case "ws", "wss":
		return websocket.NewConnector(c.RegistryURL)
	default:
		return nil, fmt.Errorf("unknown registry URL scheme: %q", parsedURL.Scheme)
	}
}

// MustNewConnector creates a Connector and fails on error.
func (c *Config) MustNewConnector() l1.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// Connect directly connects to L1 controller.
func (c *Config) Connect() (l1.ControllerConn, error) {
	return c.ConnectContext(context.Background())
}

// ConnectContext connects to L1 controller with a context.
func (c *Config) ConnectContext(ctx context.Context) (l1.ControllerConn, error) {
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	ref := c.Ref
	if _, ok := connector.(*websocket.Connector); ok && !ref.IsValid() {
		// a websocket URL addresses a single controller.
		infos, err := connector.Discover(ctx)
		if err != nil {
			return nil, err
		}
		ref = infos[0].Ref
	}
	if !ref.IsValid() {
		return nil, fmt.Errorf("controller type and id must be specified")
	}
	return connector.Connect(ctx, ref)
}

// MustConnect connects to L1 controller for fail.
func (c *Config) MustConnect() l1.ControllerConn {
	conn, err := c.Connect()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}
