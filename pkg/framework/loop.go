package framework

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the loop period when Interval is not set.
const DefaultInterval = 100 * time.Millisecond

// Loop drives controllers by priority level. Each iteration runs every
// level from PrLvTop to PrLvIdle with the messages posted since the
// previous iteration. Runnables added to the loop run in their own
// goroutines and talk to controllers through PostMessage.
type Loop struct {
	// Interval is the period between iterations when nothing triggers
	// the loop earlier.
	Interval time.Duration
	// Clock stamps iterations, SystemTime if nil.
	Clock TimeSource

	levels  [PriorityLevels]controllerList
	runners []Runnable

	lock     sync.Mutex
	messages messageList
	wakeUpCh chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopCtl struct {
	*Loop
}

type loopIteration struct {
	loopCtl
	ctx           context.Context
	time          time.Time
	priorityLevel int
	messages      messageList
}

type controllerList struct {
	lock        sync.Mutex
	preHooks    []Controller
	controllers []Controller
	postHooks   []Controller
}

type loopCtxKeyType struct{}

var loopCtxKey loopCtxKeyType

// LoopCtlFrom gets LoopCtl from context.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// CtlCtxFrom gets ControlContext from context.
func CtlCtxFrom(ctx context.Context) ControlContext {
	return ctx.Value(loopCtxKey).(ControlContext)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{
		Interval: DefaultInterval,
		wakeUpCh: make(chan struct{}, 1),
	}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a priority level. A controller
// which is also a Runnable is started with the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	lst := &l.levels[priorityLevel]
	lst.controllers = append(lst.controllers, ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable. It returns when ctx is done, after all
// runnables stopped.
func (l *Loop) Run(ctx context.Context) error {
	l.lock.Lock()
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	wakeUpCh := l.wakeUpCh
	l.lock.Unlock()

	runner := NewRunnerWith(context.WithValue(ctx, loopCtxKey, &loopCtl{l}))
	runner.Go(l.runners...)

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := runner.Wait(); err != nil {
				return err
			}
			return ctx.Err()
		case <-ticker.C:
			l.Step(ctx)
		case <-wakeUpCh:
			l.Step(ctx)
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop
// until interrupted.
func (l *Loop) RunOrFail() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := NewRunnerWith(ctx).HandleSignals()
	err := runner.Go(l).Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalln(err)
	}
}

// Step runs a single iteration on the calling goroutine.
func (l *Loop) Step(ctx context.Context) {
	clock := l.Clock
	if clock == nil {
		clock = SystemTime
	}
	iter := &loopIteration{loopCtl: loopCtl{l}, time: clock.Time()}
	l.lock.Lock()
	iter.messages.take(&l.messages)
	l.lock.Unlock()
	iter.ctx = context.WithValue(ctx, loopCtxKey, iter)
	for lv := range l.levels {
		iter.priorityLevel = lv
		l.levels[lv].run(iter)
	}
}

// PreRunAt implements LoopCtl.
func (l *Loop) PreRunAt(priorityLevel int, hooks ...Controller) {
	l.levels[priorityLevel].addHooks(&l.levels[priorityLevel].preHooks, hooks)
}

// PostRunAt implements LoopCtl.
func (l *Loop) PostRunAt(priorityLevel int, hooks ...Controller) {
	l.levels[priorityLevel].addHooks(&l.levels[priorityLevel].postHooks, hooks)
}

// PostMessage implements LoopCtl. It is safe to call from any goroutine.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.messages.push(msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopCtl.
func (l *Loop) TriggerNext() {
	l.lock.Lock()
	ch := l.wakeUpCh
	l.lock.Unlock()
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) PriorityLevel() int {
	return t.priorityLevel
}

func (t *loopIteration) Messages() MessageStore {
	return t
}

func (t *loopIteration) PostRun(hooks ...Controller) {
	t.PostRunAt(t.priorityLevel, hooks...)
}

func (t *loopIteration) ProcessMessages(proc MessageProcessor) {
	var pending messageList
	pending.take(&t.messages)
	var remains messageList
	for n, msg := range pending {
		mctx := &messageContext{iter: t, msg: msg}
		proc.ProcessMessage(mctx)
		if !mctx.taken {
			remains.push(msg)
		}
		if mctx.stop {
			remains = append(remains, pending[n+1:]...)
			break
		}
	}
	// messages added while processing go after the remaining ones.
	t.messages = append(remains, t.messages...)
}

func (t *loopIteration) AddMessages(msgs ...Message) {
	t.messages = append(t.messages, msgs...)
}

type messageList []Message

func (l *messageList) push(msg Message) {
	*l = append(*l, msg)
}

func (l *messageList) take(src *messageList) {
	*l, *src = *src, nil
}

type messageContext struct {
	iter  *loopIteration
	msg   Message
	taken bool
	stop  bool
}

func (c *messageContext) CurrentMessage() Message     { return c.msg }
func (c *messageContext) MessageTaken()               { c.taken = true }
func (c *messageContext) StopProcessing()             { c.stop = true }
func (c *messageContext) AddMessages(msgs ...Message) { c.iter.AddMessages(msgs...) }

func (c *controllerList) addHooks(hooks *[]Controller, ctls []Controller) {
	c.lock.Lock()
	*hooks = append(*hooks, ctls...)
	c.lock.Unlock()
}

func (c *controllerList) run(iter *loopIteration) {
	c.lock.Lock()
	pre := c.preHooks
	c.preHooks = nil
	c.lock.Unlock()
	runControllers(iter, pre)
	runControllers(iter, c.controllers)
	c.lock.Lock()
	post := c.postHooks
	c.postHooks = nil
	c.lock.Unlock()
	runControllers(iter, post)
}

func runControllers(iter *loopIteration, ctls []Controller) {
	for _, ctl := range ctls {
		if err := ctl.Control(iter); err != nil {
			glog.Errorf("controller error at level %d: %v", iter.priorityLevel, err)
		}
	}
}
