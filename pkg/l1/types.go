package l1

import (
	"context"
	"fmt"
	"sort"
	"strings"

	fx "github.com/robotalks/dro.go/pkg/framework"
)

// Registrar registers an L1 controller (e.g. a DRO bridge) to a
// registry and carries its events.
type Registrar interface {
	// SendEvent sends an event to connected clients.
	SendEvent(context.Context, fx.Message) error
}

// Command represents a received command to be processed.
type Command interface {
	Msg() fx.Message
	Done(fx.Message) error
}

// CommandMsg wraps a Command as a Message.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// ControllerRef is a reference to an L1 controller.
type ControllerRef struct {
	// Type is controller type, e.g. "dro".
	Type string
	// ID is unique ID of the device.
	ID string
}

// Name retrieves the name from ref.
func (r ControllerRef) Name() string {
	return r.Type + "/" + r.ID
}

// String implements flag.Value.
func (r *ControllerRef) String() string {
	if r == nil || r.Type == "" && r.ID == "" {
		return ""
	}
	return r.Name()
}

// Set implements flag.Value. It accepts TYPE/ID, or ID keeping the
// current type.
func (r *ControllerRef) Set(s string) error {
	ref, err := ParseControllerRef(s, r.Type)
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// IsValid indicates ControllerRef is valid.
func (r ControllerRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// ParseControllerRef parses TYPE/ID, or ID with defaultType.
func ParseControllerRef(s, defaultType string) (ref ControllerRef, err error) {
	items := strings.Split(s, "/")
	switch len(items) {
	case 1:
		ref = ControllerRef{Type: defaultType, ID: items[0]}
	case 2:
		ref = ControllerRef{Type: items[0], ID: items[1]}
	default:
		return ref, fmt.Errorf("invalid controller %q, expect TYPE/ID", s)
	}
	if !ref.IsValid() {
		return ref, fmt.Errorf("invalid controller %q, expect TYPE/ID", s)
	}
	return ref, nil
}

// ControllerMeta provides metadata for L1 controller.
type ControllerMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// LabelString formats labels as sorted key=value pairs.
func (m ControllerMeta) LabelString() string {
	items := make([]string, 0, len(m.Labels))
	for k, v := range m.Labels {
		items = append(items, k+"="+v)
	}
	sort.Strings(items)
	return strings.Join(items, ",")
}

// ControllerInfo provides information of an L1 controller.
type ControllerInfo struct {
	Ref  ControllerRef
	Meta ControllerMeta
}

// Connector is used by clients (shell, monitor) to connect to an L1
// controller.
type Connector interface {
	// Discover enumerates registered controllers.
	Discover(context.Context) ([]ControllerInfo, error)
	// Connect connects to the specified controller.
	Connect(context.Context, ControllerRef) (ControllerConn, error)
}

// ControllerConn is the connection to a controller.
type ControllerConn interface {
	// DoCommand executes a command.
	DoCommand(fx.Message) CommandFuture
}

// Result represents result of a command.
type Result struct {
	Msg fx.Message
	Err error
}

// CommandFuture is the future of sent command.
type CommandFuture interface {
	ResultChan() <-chan Result
}
