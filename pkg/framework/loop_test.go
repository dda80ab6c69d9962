package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMsg struct {
	n int
}

func (m *testMsg) NewMessage() Message { return &testMsg{} }

type recorder struct {
	seen []int
	take func(int) bool
}

func (r *recorder) Control(cc ControlContext) error {
	cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
		msg := mctx.CurrentMessage().(*testMsg)
		r.seen = append(r.seen, msg.n)
		if r.take == nil || r.take(msg.n) {
			mctx.MessageTaken()
		}
	}))
	return nil
}

func TestStepPriorityOrder(t *testing.T) {
	var order []int
	l := NewLoop()
	for _, lv := range []int{PrLvPostProc, PrLvSense, PrLvControl} {
		lv := lv
		l.AddController(lv, ControlFunc(func(cc ControlContext) error {
			order = append(order, cc.PriorityLevel())
			return nil
		}))
	}
	l.Step(context.Background())
	require.Equal(t, []int{PrLvSense, PrLvControl, PrLvPostProc}, order)
}

func TestStepMessages(t *testing.T) {
	l := NewLoop()
	odd := &recorder{take: func(n int) bool { return n%2 == 1 }}
	all := &recorder{}
	l.AddController(PrLvSense, odd)
	l.AddController(PrLvControl, all)
	for n := 1; n <= 4; n++ {
		l.PostMessage(&testMsg{n: n})
	}
	l.Step(context.Background())
	assert.Equal(t, []int{1, 2, 3, 4}, odd.seen)
	assert.Equal(t, []int{2, 4}, all.seen)

	// taken messages don't carry over to the next iteration.
	l.Step(context.Background())
	assert.Equal(t, []int{2, 4}, all.seen)
}

func TestStepAddMessages(t *testing.T) {
	l := NewLoop()
	l.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			msg := mctx.CurrentMessage().(*testMsg)
			mctx.MessageTaken()
			mctx.AddMessages(&testMsg{n: msg.n * 10})
			mctx.StopProcessing()
		}))
		cc.Messages().AddMessages(&testMsg{n: 99})
		return nil
	}))
	all := &recorder{}
	l.AddController(PrLvControl, all)
	l.PostMessage(&testMsg{n: 1})
	l.PostMessage(&testMsg{n: 2})
	l.Step(context.Background())
	assert.Equal(t, []int{2, 10, 99}, all.seen)
}

func TestStepClockAndHooks(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	l := NewLoop()
	l.Clock = TimeFunc(func() time.Time { return now })
	var stamps []time.Time
	var hooks int
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		stamps = append(stamps, cc.Time())
		cc.PostRun(ControlFunc(func(ControlContext) error {
			hooks++
			return nil
		}))
		return errors.New("logged, not fatal")
	}))
	l.Step(context.Background())
	l.Step(context.Background())
	require.Equal(t, []time.Time{now, now}, stamps)
	require.Equal(t, 2, hooks)
}

func TestRunTriggerNext(t *testing.T) {
	l := NewLoop()
	l.Interval = time.Hour
	got := make(chan int, 1)
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			mctx.MessageTaken()
			got <- mctx.CurrentMessage().(*testMsg).n
		}))
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	l.PostMessage(&testMsg{n: 7})
	l.TriggerNext()
	select {
	case n := <-got:
		require.Equal(t, 7, n)
	case <-time.After(time.Second):
		t.Fatal("loop not triggered")
	}
	cancel()
	require.True(t, errors.Is(<-done, context.Canceled))
}

type failing struct{}

func (failing) Name() string { return "failing" }

func (failing) Run(context.Context) error { return errors.New("boom") }

func TestRunnerWait(t *testing.T) {
	err := NewRunner().Go(failing{}, RunnableFunc(func(context.Context) error {
		return context.Canceled
	})).Wait()
	require.Error(t, err)
	require.Contains(t, err.Error(), "failing: boom")
}

func TestRunWithContextCloser(t *testing.T) {
	c := &countCloser{}
	require.NoError(t, RunWithContextCloser(context.Background(), c, func() error { return nil }))
	require.Equal(t, 1, c.n)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c = &countCloser{}
	unblock := make(chan struct{})
	c.onClose = func() { close(unblock) }
	err := RunWithContextCloser(ctx, c, func() error {
		<-unblock
		return errors.New("closed")
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 1, c.n)
}

type countCloser struct {
	n       int
	onClose func()
}

func (c *countCloser) Close() error {
	c.n++
	if c.onClose != nil {
		c.onClose()
	}
	return nil
}
