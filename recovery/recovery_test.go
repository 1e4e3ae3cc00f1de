package recovery_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wudi/nitfkit/recovery"
)

var errShort = errors.New("not enough bytes")

func TestStrictStrategy(t *testing.T) {
	s := recovery.NewStrictStrategy()
	if got := s.OnError(context.Background(), errShort, recovery.Location{Component: "TRE BLOCKA"}); got != recovery.ActionFail {
		t.Fatalf("expected fail, got %s", got)
	}
}

func TestLenientStrategyAggregates(t *testing.T) {
	s := recovery.NewLenientStrategy()
	if s.Err() != nil {
		t.Fatalf("expected nil error before any report")
	}
	ctx := context.Background()
	if got := s.OnError(ctx, errShort, recovery.Location{ByteOffset: 12, Component: "TRE USE00A", Field: "ANGLE_TO_NORTH"}); got != recovery.ActionWarn {
		t.Fatalf("expected warn, got %s", got)
	}
	s.OnError(ctx, errors.New("bad cond"), recovery.Location{Component: "DES XML_DATA_CONTENT"})

	err := s.Err()
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if !errors.Is(err, errShort) {
		t.Fatalf("aggregated error should wrap the first problem: %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "TRE USE00A/ANGLE_TO_NORTH") || !strings.Contains(msg, "bad cond") {
		t.Fatalf("unexpected message: %s", msg)
	}

	s.Reset()
	if s.Err() != nil || len(s.Errors) != 0 {
		t.Fatalf("reset should clear errors")
	}
}

func TestOrLenient(t *testing.T) {
	if _, ok := recovery.OrLenient(nil).(*recovery.LenientStrategy); !ok {
		t.Fatalf("nil strategy should default to lenient")
	}
	strict := recovery.NewStrictStrategy()
	if recovery.OrLenient(strict) != recovery.Strategy(strict) {
		t.Fatalf("explicit strategy should be kept")
	}
}
