package comm

import (
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/dro.go/pkg/framework"
)

// StateNotifier is called when a host attaches or detaches.
type StateNotifier interface {
	StateChanged(attached bool)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(bool)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(attached bool) {
	f(attached)
}

type chunk struct {
	data []byte
	err  error
}

type attachment struct {
	rw     io.ReadWriter
	chunks chan chunk
	done   chan struct{}
	once   sync.Once
}

// Task is the device side of the protocol. A reader goroutine buffers
// requests from the attached host; Poll, called once per loop
// iteration, executes every buffered request and writes the responses.
type Task struct {
	Processor *Processor
	Notifier  StateNotifier
	// ChunkSize is the maximum bytes taken per read.
	ChunkSize int

	lock    sync.Mutex
	current *attachment
}

// NewTask creates a Task.
func NewTask(proc *Processor) *Task {
	return &Task{Processor: proc, ChunkSize: MaxRequestSize}
}

// Attach makes rw the host connection, replacing the previous one.
func (t *Task) Attach(rw io.ReadWriter) {
	size := t.ChunkSize
	if size <= 0 {
		size = MaxRequestSize
	}
	a := &attachment{rw: rw, chunks: make(chan chunk, 16), done: make(chan struct{})}
	t.lock.Lock()
	prev := t.current
	t.current = a
	t.lock.Unlock()
	if prev != nil {
		prev.close()
	}
	go a.readLoop(size)
	if t.Notifier != nil {
		t.Notifier.StateChanged(true)
	}
}

// Detach drops the host connection.
func (t *Task) Detach() {
	t.lock.Lock()
	prev := t.current
	t.current = nil
	t.lock.Unlock()
	if prev != nil {
		t.detached(prev)
	}
}

// Attached indicates a host is attached.
func (t *Task) Attached() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.current != nil
}

// Poll serves all requests buffered so far. It never blocks on reads.
func (t *Task) Poll() error {
	t.lock.Lock()
	a := t.current
	t.lock.Unlock()
	if a == nil {
		return ErrNotReady
	}
	var errs fx.AggregatedError
	for {
		select {
		case c := <-a.chunks:
			if c.err != nil {
				t.lock.Lock()
				if t.current == a {
					t.current = nil
				}
				t.lock.Unlock()
				t.detached(a)
				if c.err != io.EOF {
					errs.Add(c.err)
				}
				return errs.Aggregate()
			}
			frames, err := t.Processor.Process(c.data)
			errs.Add(err)
			for n := range frames {
				if _, err := frames[n].WriteTo(a.rw); err != nil {
					errs.Add(err)
					break
				}
			}
		default:
			return errs.Aggregate()
		}
	}
}

// Control implements Controller.
func (t *Task) Control(cc fx.ControlContext) error {
	if err := t.Poll(); err != ErrNotReady {
		return err
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (t *Task) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvControl, t)
}

func (t *Task) detached(a *attachment) {
	a.close()
	glog.V(1).Info("host detached")
	if t.Notifier != nil {
		t.Notifier.StateChanged(false)
	}
}

func (a *attachment) readLoop(size int) {
	for {
		buf := make([]byte, size)
		n, err := a.rw.Read(buf)
		if n > 0 && !a.send(chunk{data: buf[:n]}) {
			return
		}
		if err != nil {
			a.send(chunk{err: err})
			return
		}
	}
}

func (a *attachment) send(c chunk) bool {
	select {
	case a.chunks <- c:
		return true
	case <-a.done:
		return false
	}
}

func (a *attachment) close() {
	a.once.Do(func() {
		close(a.done)
		if closer, ok := a.rw.(io.Closer); ok {
			closer.Close()
		}
	})
}
