package sequence

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

func TestRunner_RunsTasksInPostOrder(t *testing.T) {
	r := New(nil)
	defer r.Close()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 50; i++ {
		i := i
		r.PostTask(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	r.Flush()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestRunner_TaskCanPostTask(t *testing.T) {
	r := New(nil)
	defer r.Close()

	done := make(chan string, 2)
	r.PostTask(func() {
		r.PostTask(func() { done <- "inner" })
		done <- "outer"
	})

	assert.Equal(t, "outer", <-done)
	assert.Equal(t, "inner", <-done)
}

func TestRunner_DelayedTaskWaitsForClock(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	r := New(clk)
	defer r.Close()

	fired := make(chan struct{})
	r.PostDelayedTask(func() { close(fired) }, 3*time.Second)

	require.Eventually(t, clk.HasWaiters, time.Second, time.Millisecond)
	clk.Step(2 * time.Second)
	r.Flush()
	select {
	case <-fired:
		t.Fatal("delayed task ran before its delay elapsed")
	default:
	}

	clk.Step(time.Second)
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("delayed task did not run")
	}
}

func TestRunner_ZeroDelayIsPosted(t *testing.T) {
	r := New(testingclock.NewFakeClock(time.Now()))
	defer r.Close()

	fired := make(chan struct{})
	r.PostDelayedTask(func() { close(fired) }, 0)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("zero-delay task did not run")
	}
}

func TestRunner_CloseDropsPendingWork(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	r := New(clk)

	ran := false
	r.PostDelayedTask(func() { ran = true }, time.Second)
	r.Close()

	clk.Step(2 * time.Second)
	r.PostTask(func() { ran = true })
	r.Flush()

	assert.False(t, ran)
}
