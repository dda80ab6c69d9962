package mqtt

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// Handler is the callback when a message is received.
type Handler func(topic string, payload []byte)

// ConnectHandler is to handle connect/disconnect events.
type ConnectHandler func(*Queue)

// BrokerConfig is parsed from a broker URL:
//
//	mqtt://[user:pass@]host:port/topic/prefix/?client-id=ID&qos=1&keepalive=30s
//
// Schemes other than mqtt (tcp, ssl, ws) are passed to paho as is.
type BrokerConfig struct {
	Options     *paho.ClientOptions
	TopicPrefix string
	// QoS applies to subscriptions and publishing without explicit QoS.
	QoS byte
}

// ParseBrokerURL parses a broker URL.
func ParseBrokerURL(brokerURL string) (*BrokerConfig, error) {
	u, err := url.Parse(brokerURL)
	if err != nil {
		return nil, err
	}
	scheme := u.Scheme
	if scheme == "" || scheme == "mqtt" {
		scheme = "tcp"
	}
	conf := &BrokerConfig{
		Options:     paho.NewClientOptions(),
		TopicPrefix: strings.TrimPrefix(u.Path, "/"),
	}
	conf.Options.AddBroker(scheme + "://" + u.Host).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		conf.Options.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			conf.Options.SetPassword(pwd)
		}
	}
	query := u.Query()
	if clientID := query.Get("client-id"); clientID != "" {
		conf.Options.SetClientID(clientID)
	}
	if val := query.Get("qos"); val != "" {
		qos, err := strconv.ParseUint(val, 10, 8)
		if err != nil || qos > 2 {
			return nil, fmt.Errorf("invalid qos %q", val)
		}
		conf.QoS = byte(qos)
	}
	if val := query.Get("keepalive"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid keepalive %q: %w", val, err)
		}
		conf.Options.SetKeepAlive(d)
	}
	return conf, nil
}

// ClientOptionsFromURL creates ClientOptions and the topic prefix from URL.
func ClientOptionsFromURL(brokerURL string) (*paho.ClientOptions, string, error) {
	conf, err := ParseBrokerURL(brokerURL)
	if err != nil {
		return nil, "", err
	}
	return conf.Options, conf.TopicPrefix, nil
}

// NewQueue creates a Queue from the config.
func (c *BrokerConfig) NewQueue() *Queue {
	q := NewQueue(c.Options, c.TopicPrefix)
	q.QoS = c.QoS
	return q
}

// Queue wraps MQTT client. Topics are relative to TopicPrefix.
type Queue struct {
	Client       paho.Client
	TopicPrefix  string
	QoS          byte
	OnConnect    ConnectHandler
	OnDisconnect ConnectHandler

	lock sync.RWMutex
	// exact topics and wildcard patterns to subscriptions.
	subs map[string][]*Subscription
}

// Subscription is a subscribed topic.
type Subscription struct {
	Token paho.Token

	queue   *Queue
	topic   string
	handler Handler
}

// IsWildcard indicates the topic is a pattern.
func IsWildcard(topic string) bool {
	return strings.Contains(topic, "+") || strings.HasSuffix(topic, "#")
}

// MatchTopic matches topic with pattern.
func MatchTopic(topic, pattern string) bool {
	tokensT, tokensP := strings.Split(topic, "/"), strings.Split(pattern, "/")
	if len(tokensP) > len(tokensT) {
		return false
	}
	for i, token := range tokensP {
		switch {
		case token == "+":
		case token == "#" && i+1 == len(tokensP):
			return true
		case token != tokensT[i]:
			return false
		}
	}
	return len(tokensP) == len(tokensT)
}

// NewQueue creates Queue.
func NewQueue(options *paho.ClientOptions, topicPrefix string) *Queue {
	q := &Queue{TopicPrefix: topicPrefix, subs: make(map[string][]*Subscription)}
	options.SetOnConnectHandler(q.OnConnectHandler)
	options.SetConnectionLostHandler(q.ConnectionLostHandler)
	q.Client = paho.NewClient(options)
	return q
}

// NewQueueFromURL creates Queue from URL.
func NewQueueFromURL(brokerURL string) (*Queue, error) {
	conf, err := ParseBrokerURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return conf.NewQueue(), nil
}

// Connect connects the client.
func (q *Queue) Connect() paho.Token {
	return q.Client.Connect()
}

// ConnectWait connects and waits for the result, up to timeout if
// positive.
func (q *Queue) ConnectWait(timeout time.Duration) error {
	token := q.Client.Connect()
	if timeout > 0 {
		if !token.WaitTimeout(timeout) {
			return fmt.Errorf("connect timeout after %v", timeout)
		}
	} else {
		token.Wait()
	}
	return token.Error()
}

// Close implements io.Closer.
func (q *Queue) Close() error {
	q.Client.Disconnect(0)
	return nil
}

// Sub subscribes a topic or a wildcard pattern. The broker subscription
// is made once per topic, handlers sharing a topic are all called.
func (q *Queue) Sub(topic string, handler Handler) *Subscription {
	sub := &Subscription{queue: q, topic: topic, handler: handler}
	q.lock.Lock()
	subs := q.subs[topic]
	q.subs[topic] = append(subs, sub)
	q.lock.Unlock()

	if len(subs) == 0 {
		glog.V(2).Infof("SUB %q", q.TopicPrefix+topic)
		sub.Token = q.Client.Subscribe(q.TopicPrefix+topic, q.QoS, q.dispatch)
	}
	return sub
}

// Pub publishes to a topic with the queue's QoS.
func (q *Queue) Pub(topic string, payload []byte) paho.Token {
	return q.PubWith(topic, payload, q.QoS, false)
}

// PubWith publishes with QoS and retain settings.
func (q *Queue) PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token {
	return q.Client.Publish(q.TopicPrefix+topic, qos, retain, payload)
}

// Resubscribe subscribes all existing topics again, after a reconnect
// with a clean session.
func (q *Queue) Resubscribe() paho.Token {
	filters := make(map[string]byte)
	q.lock.RLock()
	for topic := range q.subs {
		filters[q.TopicPrefix+topic] = q.QoS
	}
	q.lock.RUnlock()
	if len(filters) == 0 {
		return &paho.DummyToken{}
	}
	glog.V(2).Infof("SUB %d topics", len(filters))
	return q.Client.SubscribeMultiple(filters, q.dispatch)
}

// OnConnectHandler is the default implementation of paho.OnConnectHandler.
func (q *Queue) OnConnectHandler(paho.Client) {
	glog.Info("mqtt connected")
	q.Resubscribe()
	if h := q.OnConnect; h != nil {
		h(q)
	}
}

// ConnectionLostHandler is the default implementation of paho.ConnectLostHandler.
func (q *Queue) ConnectionLostHandler(c paho.Client, err error) {
	glog.Warningf("mqtt connection lost: %v", err)
	if h := q.OnDisconnect; h != nil {
		h(q)
	}
}

func (q *Queue) handlers(topic string) (handlers []Handler) {
	q.lock.RLock()
	defer q.lock.RUnlock()
	for pattern, subs := range q.subs {
		if pattern != topic && !(IsWildcard(pattern) && MatchTopic(topic, pattern)) {
			continue
		}
		for _, sub := range subs {
			handlers = append(handlers, sub.handler)
		}
	}
	return
}

func (q *Queue) dispatch(c paho.Client, msg paho.Message) {
	topic := msg.Topic()
	if !strings.HasPrefix(topic, q.TopicPrefix) {
		return
	}
	topic = topic[len(q.TopicPrefix):]
	glog.V(2).Infof("RCV %q", topic)
	payload := msg.Payload()
	for _, h := range q.handlers(topic) {
		h(topic, payload)
	}
}

// Close unsubscribes a handler. The broker subscription is dropped with
// the last handler of the topic.
func (s *Subscription) Close() error {
	q := s.queue
	q.lock.Lock()
	subs := q.subs[s.topic]
	for n, sub := range subs {
		if sub == s {
			subs = append(subs[:n:n], subs[n+1:]...)
			break
		}
	}
	unsub := len(subs) == 0
	if unsub {
		delete(q.subs, s.topic)
	} else {
		q.subs[s.topic] = subs
	}
	q.lock.Unlock()
	if !unsub {
		return nil
	}
	glog.V(2).Infof("UNSUB %q", s.topic)
	token := q.Client.Unsubscribe(q.TopicPrefix + s.topic)
	token.Wait()
	return token.Error()
}
