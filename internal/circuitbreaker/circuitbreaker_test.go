package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecute_TripsOpenAfterConsecutiveFailures(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 3, ResetTimeout: 50 * time.Millisecond})
	boom := errors.New("boom")
	failing := func(ctx context.Context) (any, error) { return nil, boom }

	for i := 0; i < 3; i++ {
		if _, err := cb.Execute(context.Background(), failing); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: expected boom, got %v", i, err)
		}
	}
	if cb.State() != Open {
		t.Fatalf("expected Open after 3 consecutive failures, got %v", cb.State())
	}

	_, err := cb.Execute(context.Background(), func(ctx context.Context) (any, error) {
		t.Fatal("fn should not be invoked while circuit is open")
		return nil, nil
	})
	if !IsOpen(err) {
		t.Fatalf("expected IsOpen(err) to be true, got %v", err)
	}
}

func TestExecute_HalfOpenRecoversOnSuccess(t *testing.T) {
	cb := New(Config{Name: "test2", FailureThreshold: 1, ResetTimeout: 20 * time.Millisecond})
	boom := errors.New("boom")
	if _, err := cb.Execute(context.Background(), func(ctx context.Context) (any, error) { return nil, boom }); err == nil {
		t.Fatal("expected failure")
	}
	if cb.State() != Open {
		t.Fatalf("expected Open, got %v", cb.State())
	}

	time.Sleep(30 * time.Millisecond)

	if _, err := cb.Execute(context.Background(), func(ctx context.Context) (any, error) { return "ok", nil }); err != nil {
		t.Fatalf("expected probe to succeed, got %v", err)
	}
	if cb.State() != Closed {
		t.Fatalf("expected Closed after successful probe, got %v", cb.State())
	}
}

func TestIsOpen_FalseForOrdinaryErrors(t *testing.T) {
	if IsOpen(errors.New("plain")) {
		t.Fatal("expected IsOpen to be false for a non-CircuitOpenError")
	}
}
