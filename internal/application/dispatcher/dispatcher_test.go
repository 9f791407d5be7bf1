package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/billed/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func (m *mockLogger) HasInfo(msg string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, info := range m.infos {
		if info == msg {
			return true
		}
	}
	return false
}

func noop(ctx context.Context, evt *event.Event) error { return nil }

func click(target string) *event.Event {
	return event.NewEvent(event.TypeClick, target, nil)
}

func TestSubscribe(t *testing.T) {
	t.Run("runs handlers in registration order", func(t *testing.T) {
		d := NewDispatcher()
		var order []int

		d.Subscribe(event.TypeClick, func(ctx context.Context, evt *event.Event) error {
			order = append(order, 1)
			return nil
		})
		d.Subscribe(event.TypeClick, func(ctx context.Context, evt *event.Event) error {
			order = append(order, 2)
			return nil
		})

		if err := d.Dispatch(context.Background(), click("btn-new-bill")); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}

		if len(order) != 2 || order[0] != 1 || order[1] != 2 {
			t.Errorf("expected handlers to run in order [1, 2], got %v", order)
		}
	})

	t.Run("auto-generated names are unique per type", func(t *testing.T) {
		d := NewDispatcher()
		d.Subscribe(event.TypeClick, noop)
		d.Subscribe(event.TypeClick, noop)

		handlers := d.ListHandlers(event.TypeClick)
		if len(handlers) != 2 || handlers[0].Name == handlers[1].Name {
			t.Errorf("expected two distinct names, got %+v", handlers)
		}
	})

	t.Run("logs registration", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		d.SubscribeNamed(event.TypeSubmit, "submit-form", noop)

		if !logger.HasInfo("Handler registered") {
			t.Error("expected registration to be logged")
		}
	})
}

func TestSubscribeTarget(t *testing.T) {
	d := NewDispatcher()
	var newBill, eye, any atomic.Int32

	d.SubscribeTarget(event.TypeClick, "btn-new-bill", "new-bill", func(ctx context.Context, evt *event.Event) error {
		newBill.Add(1)
		return nil
	})
	d.SubscribeTarget(event.TypeClick, "icon-eye", "preview", func(ctx context.Context, evt *event.Event) error {
		eye.Add(1)
		return nil
	})
	d.Subscribe(event.TypeClick, func(ctx context.Context, evt *event.Event) error {
		any.Add(1)
		return nil
	})

	if err := d.Dispatch(context.Background(), click("btn-new-bill")); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if newBill.Load() != 1 {
		t.Errorf("expected new-bill handler once, got %d", newBill.Load())
	}
	if eye.Load() != 0 {
		t.Errorf("expected preview handler not to run, got %d", eye.Load())
	}
	if any.Load() != 1 {
		t.Errorf("expected untargeted handler once, got %d", any.Load())
	}

	handlers := d.ListHandlers(event.TypeClick)
	if handlers[1].Target != "icon-eye" {
		t.Errorf("expected target to be listed, got %q", handlers[1].Target)
	}
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	called1, called2 := false, false

	d.SubscribeNamed(event.TypeChange, "handler-1", func(ctx context.Context, evt *event.Event) error {
		called1 = true
		return nil
	})
	d.SubscribeNamed(event.TypeChange, "handler-2", func(ctx context.Context, evt *event.Event) error {
		called2 = true
		return nil
	})

	d.Unsubscribe(event.TypeChange, "handler-1")

	if err := d.Dispatch(context.Background(), event.NewEvent(event.TypeChange, "file", nil)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	if called1 {
		t.Error("expected handler-1 not to be called")
	}
	if !called2 {
		t.Error("expected handler-2 to be called")
	}
}

func TestDispatch(t *testing.T) {
	t.Run("returns first error encountered", func(t *testing.T) {
		d := NewDispatcher()
		expectedErr := errors.New("handler error")
		called := false

		d.Subscribe(event.TypeSubmit, func(ctx context.Context, evt *event.Event) error {
			return expectedErr
		})
		d.Subscribe(event.TypeSubmit, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		err := d.Dispatch(context.Background(), event.NewEvent(event.TypeSubmit, "form-new-bill", nil))
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error to wrap %v, got %v", expectedErr, err)
		}
		if called {
			t.Error("expected second handler not to be called after first error")
		}
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))

		d.Subscribe(event.TypeClick, func(ctx context.Context, evt *event.Event) error {
			panic("test panic")
		})

		if err := d.Dispatch(context.Background(), click("icon-eye")); err == nil {
			t.Fatal("expected error from panic recovery")
		}
		if logger.ErrorCount() == 0 {
			t.Error("expected panic to be logged as error")
		}
	})

	t.Run("returns error when dispatcher is closed", func(t *testing.T) {
		d := NewDispatcher()
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		if err := d.Dispatch(context.Background(), click("btn-new-bill")); err == nil {
			t.Fatal("expected error when dispatching to closed dispatcher")
		}
	})

	t.Run("event without handlers is not an error", func(t *testing.T) {
		d := NewDispatcher()
		if err := d.Dispatch(context.Background(), event.NewEvent(event.TypeBillCreated, "b1", nil)); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestDispatchAsync(t *testing.T) {
	t.Run("Wait blocks until handlers finish", func(t *testing.T) {
		d := NewDispatcher()
		var done atomic.Int32

		for i := 0; i < 3; i++ {
			d.Subscribe(event.TypeAttachmentUploaded, func(ctx context.Context, evt *event.Event) error {
				time.Sleep(10 * time.Millisecond)
				done.Add(1)
				return nil
			})
		}

		d.DispatchAsync(context.Background(), event.NewEvent(event.TypeAttachmentUploaded, "test.jpg", nil))
		d.Wait()

		if done.Load() != 3 {
			t.Errorf("expected 3 completed handlers, got %d", done.Load())
		}

		// still usable after Wait
		d.DispatchAsync(context.Background(), event.NewEvent(event.TypeAttachmentUploaded, "test.jpg", nil))
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if done.Load() != 6 {
			t.Errorf("expected 6 completed handlers, got %d", done.Load())
		}
	})

	t.Run("errors and panics are logged", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))

		d.Subscribe(event.TypeChange, func(ctx context.Context, evt *event.Event) error {
			return errors.New("upload failed")
		})
		d.Subscribe(event.TypeChange, func(ctx context.Context, evt *event.Event) error {
			panic("async panic")
		})

		d.DispatchAsync(context.Background(), event.NewEvent(event.TypeChange, "file", nil))
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		if logger.ErrorCount() < 2 {
			t.Errorf("expected both failures to be logged, got %d", logger.ErrorCount())
		}
	})

	t.Run("does not dispatch when dispatcher is closed", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		var called atomic.Int32

		d.Subscribe(event.TypeClick, func(ctx context.Context, evt *event.Event) error {
			called.Add(1)
			return nil
		})

		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		d.DispatchAsync(context.Background(), click("btn-new-bill"))
		d.Wait()

		if called.Load() > 0 {
			t.Error("expected handler not to be called after close")
		}
		if logger.ErrorCount() == 0 {
			t.Error("expected error log for dispatching to closed dispatcher")
		}
	})
}

func TestClose_Twice(t *testing.T) {
	d := NewDispatcher()
	if err := d.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := d.Close(); err == nil {
		t.Fatal("expected error on second close")
	}
}

func TestConcurrency(t *testing.T) {
	d := NewDispatcher()
	var called atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.SubscribeNamed(event.TypeClick, fmt.Sprintf("h-%d", id), func(ctx context.Context, evt *event.Event) error {
				called.Add(1)
				return nil
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Dispatch(context.Background(), click("btn-new-bill"))
		}()
	}
	wg.Wait()

	if called.Load() != 100 {
		t.Errorf("expected 100 handler calls, got %d", called.Load())
	}
}
