package cronrunner

import (
	"context"
	"errors"
	"testing"
)

func TestRunner_RejectsBadSpec(t *testing.T) {
	r := New(nil, context.Background())
	if _, err := r.Add("bad", "not a spec", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := r.Add("ok", "@every 1h", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("err=%v", err)
	}
}

func TestRunner_RunSkipsCancelledBase(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(nil, ctx)
	calls := 0
	job := func(context.Context) error { calls++; return errors.New("boom") }
	r.run("job", job)
	cancel()
	r.run("job", job)
	if calls != 1 {
		t.Fatalf("calls=%d want=1", calls)
	}
}
