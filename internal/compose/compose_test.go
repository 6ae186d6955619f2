package compose

import (
	"context"
	"testing"
	"time"

	"github.com/TheTorProject/libight/internal/errs"
	"github.com/TheTorProject/libight/internal/reactor"
)

func double(ctx context.Context, n int) (int, *errs.Error) { return n * 2, nil }
func toString(ctx context.Context, n int) (string, *errs.Error) {
	if n < 0 {
		return "", errs.Value("negative")
	}
	return "n=" + itoa(n), nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func TestCompose2Success(t *testing.T) {
	pipeline := Compose2(FuncAdapter[int, int](double), FuncAdapter[int, string](toString))
	out, err := pipeline.Call(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "n=10" {
		t.Fatalf("got %q, want %q", out, "n=10")
	}
}

func TestCompose2ShortCircuitsOnError(t *testing.T) {
	failing := FuncAdapter[int, int](func(ctx context.Context, n int) (int, *errs.Error) {
		return 0, errs.Value("boom")
	})
	pipeline := Compose2(failing, FuncAdapter[int, string](toString))
	_, err := pipeline.Call(context.Background(), 5)
	if err == nil || err.Code != errs.ValueError {
		t.Fatalf("expected ValueError, got %v", err)
	}
}

func TestSequentialOperationCollapsesFailures(t *testing.T) {
	always := func(code *errs.Error) Func[int, int] {
		return FuncAdapter[int, int](func(ctx context.Context, n int) (int, *errs.Error) { return 0, code })
	}
	_, idx, err := SequentialOperation(context.Background(), 0,
		always(errs.Timeout()), always(errs.Network("refused")))
	if idx != -1 {
		t.Fatalf("expected no successful stage, got index %d", idx)
	}
	if err == nil || err.Code != errs.SequentialOperationError {
		t.Fatalf("expected SequentialOperationError, got %v", err)
	}
	if len(err.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(err.Children))
	}
}

func TestSequentialOperationReturnsFirstSuccess(t *testing.T) {
	fail := FuncAdapter[int, int](func(ctx context.Context, n int) (int, *errs.Error) { return 0, errs.Timeout() })
	succeed := FuncAdapter[int, int](func(ctx context.Context, n int) (int, *errs.Error) { return 42, nil })
	out, idx, err := SequentialOperation(context.Background(), 0, fail, succeed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != 1 || out != 42 {
		t.Fatalf("got out=%d idx=%d, want 42/1", out, idx)
	}
}

func TestTaskDeliverDropsAfterClose(t *testing.T) {
	r := reactor.New()
	go r.Run()
	defer r.Stop()

	task := NewTask(r)
	fired := make(chan struct{}, 1)
	task.Close()
	task.Deliver(func() { fired <- struct{}{} })

	select {
	case <-fired:
		t.Fatal("callback fired after Close")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTaskDeliverRunsBeforeClose(t *testing.T) {
	r := reactor.New()
	go r.Run()
	defer r.Stop()

	task := NewTask(r)
	fired := make(chan struct{}, 1)
	task.Deliver(func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}
