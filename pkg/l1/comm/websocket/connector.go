package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/websocket"

	fx "github.com/robotalks/dro.go/pkg/framework"
	"github.com/robotalks/dro.go/pkg/l1"
	"github.com/robotalks/dro.go/pkg/l1/comm"
)

// DefaultOrigin is sent when dialing.
const DefaultOrigin = "http://localhost/"

// Connector implements l1.Connector for a single controller served
// by Server, e.g. ws://host:8081/l1.
type Connector struct {
	URL    string
	Origin string
}

// NewConnector creates a Connector.
func NewConnector(serverURL string) (*Connector, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid websocket scheme: %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultPath
	}
	return &Connector{URL: u.String(), Origin: DefaultOrigin}, nil
}

// Discover implements Connector.
func (c *Connector) Discover(ctx context.Context) ([]l1.ControllerInfo, error) {
	metaURL := "http" + strings.TrimPrefix(strings.TrimRight(c.URL, "/"), "ws") + "/meta"
	req, err := http.NewRequest(http.MethodGet, metaURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discover %s: %s", metaURL, resp.Status)
	}
	var info l1.ControllerInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return []l1.ControllerInfo{info}, nil
}

// Connect implements Connector. The URL already addresses one
// controller, ref is only informational.
func (c *Connector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	conf, err := websocket.NewConfig(c.URL, c.Origin)
	if err != nil {
		return nil, err
	}
	var ws *websocket.Conn
	err = fx.RunWithContext(ctx, func() (err error) {
		ws, err = websocket.DialConfig(conf)
		return
	})
	if err != nil {
		if ws != nil {
			ws.Close()
		}
		return nil, err
	}
	conn := &ControllerConn{Ref: ref, rw: New(ws)}
	conn.Init(conn.rw)
	return conn, nil
}

// ControllerConn implements ControllerConn over websocket.
type ControllerConn struct {
	comm.ControllerConn
	Ref l1.ControllerRef

	rw *ReadWriter
}

// Close closes the connection.
func (c *ControllerConn) Close() error {
	return c.rw.Close()
}
