package comm

import (
	"context"
	"sync"

	fx "github.com/robotalks/dro.go/pkg/framework"
	"github.com/robotalks/dro.go/pkg/l1"
	"github.com/robotalks/dro.go/pkg/l1/msgs"
)

// Registrar implements Registrar with Pipe and integrated with Loop.
type Registrar struct {
	pipe Pipe
}

// Init initializes the Registrar with defaults.
func (r *Registrar) Init(rw PacketReadWriter) {
	r.pipe.ReadWriter = rw
	r.pipe.Handler = msgs.HandleTypedMsgFunc(func(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
		loopCtl := fx.LoopCtlFrom(ctx)
		switch typed.Kind() {
		case msgs.TypeIDKindCommand:
			loopCtl.PostMessage(&l1.CommandMsg{Command: &command{seq: typed.Sequence, msg: msg, pipe: &r.pipe}})
			loopCtl.TriggerNext()
		case msgs.TypeIDKindEvent:
			loopCtl.PostMessage(msg)
			loopCtl.TriggerNext()
		}
		return nil
	})
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.pipe.SendEventMsg(msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.pipe)
}

// Serve receives commands until the connection fails. It's used for
// registrars attached after the loop started; ctx must come from a
// Runnable of that loop.
func (r *Registrar) Serve(ctx context.Context) error {
	return r.pipe.Run(ctx)
}

// Close closes the underlying connection.
func (r *Registrar) Close() error {
	return r.pipe.Close()
}

type command struct {
	seq  uint32
	msg  fx.Message
	pipe *Pipe
}

func (c *command) Msg() fx.Message {
	return c.msg
}

func (c *command) Done(msg fx.Message) error {
	return c.pipe.SendCommandMsg(msg, c.seq)
}

// RegistrarMux sends events through multiple Registrars. Registrars
// may come and go while the loop runs.
type RegistrarMux struct {
	Registrars []l1.Registrar

	lock sync.RWMutex
}

// SendEvent implements Registrar.
func (r *RegistrarMux) SendEvent(ctx context.Context, msg fx.Message) error {
	var errs fx.AggregatedError
	for _, reg := range r.registrars() {
		errs.Add(reg.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (r *RegistrarMux) AddToLoop(l *fx.Loop) {
	for _, reg := range r.registrars() {
		if adder, ok := reg.(fx.LoopAdder); ok {
			l.Add(adder)
		}
	}
}

// Add adds more registrars.
func (r *RegistrarMux) Add(regs ...l1.Registrar) {
	r.lock.Lock()
	r.Registrars = append(r.Registrars, regs...)
	r.lock.Unlock()
}

// Remove removes a registrar.
func (r *RegistrarMux) Remove(reg l1.Registrar) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for i, item := range r.Registrars {
		if item == reg {
			r.Registrars = append(r.Registrars[:i:i], r.Registrars[i+1:]...)
			return
		}
	}
}

// Len returns the number of registrars.
func (r *RegistrarMux) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.Registrars)
}

func (r *RegistrarMux) registrars() []l1.Registrar {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]l1.Registrar(nil), r.Registrars...)
}

// UnsupportedCommands replies left-over commands as unsupported.
type UnsupportedCommands struct {
}

// Control implements Controller.
func (c *UnsupportedCommands) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		if cmdMsg, ok := mctx.CurrentMessage().(*l1.CommandMsg); ok {
			mctx.MessageTaken()
			cmdMsg.Command.Done(msgs.NewCommandErr(msgs.ErrUnsupportedCommand))
		}
	}))
	return nil
}

// AddToLoop implements LoopAdder.
func (c *UnsupportedCommands) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvIdle, c)
}
