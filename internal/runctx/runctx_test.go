package runctx

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestWithRun(t *testing.T) {
	ctx := WithRun(context.Background(), "bakery Istanbul")
	rc := Get(ctx)
	if len(rc.RunID) != 36 || rc.Query != "bakery Istanbul" {
		t.Errorf("unexpected run context %+v", rc)
	}
	if Get(WithRun(context.Background(), "x")).RunID == rc.RunID {
		t.Errorf("run IDs must be unique")
	}
}

func TestGetWithoutRun(t *testing.T) {
	if Get(context.Background()).RunID != "unknown" {
		t.Errorf("expected placeholder run")
	}
}

func TestNewRunError(t *testing.T) {
	ctx := WithRun(context.Background(), "q")
	sentinel := errors.New("feed not found")
	err := NewRunError(ctx, sentinel)
	if !errors.Is(err, sentinel) {
		t.Errorf("run error must unwrap")
	}
	if !strings.Contains(err.Error(), Get(ctx).RunID) {
		t.Errorf("message should carry the run ID: %s", err)
	}
	if NewRunError(ctx, nil) != nil {
		t.Errorf("nil stays nil")
	}
}
