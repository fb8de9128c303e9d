package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hook-screener/shared/config"
)

type summary string

func (s summary) GetSummary() string { return string(s) }

type fakeAgent struct {
	run func(ctx context.Context, events *AgentEvents) error
}

func (f *fakeAgent) Name() string { return "fake-agent" }
func (f *fakeAgent) Initialize(ctx context.Context) error { return nil }
func (f *fakeAgent) RunOnce(ctx context.Context, events *AgentEvents) error {
	return f.run(ctx, events)
}

func TestRunOnce(t *testing.T) {
	tests := []struct {
		name        string
		run         func(ctx context.Context, events *AgentEvents) error
		wantErr     bool
		wantHealthy bool
		wantStatus  string
	}{
		{
			name: "success",
			run: func(ctx context.Context, events *AgentEvents) error {
				events.OnSuccess(summary("3 screened"), time.Second)
				return nil
			},
			wantHealthy: true,
			wantStatus:  "3 screened",
		},
		{
			name: "partial failure keeps health",
			run: func(ctx context.Context, events *AgentEvents) error {
				events.OnPartialFailure(errors.New("one video failed"), time.Second)
				events.OnSuccess(summary("2 screened"), time.Second)
				return nil
			},
			wantHealthy: true,
			wantStatus:  "1 partial",
		},
		{
			name: "critical event",
			run: func(ctx context.Context, events *AgentEvents) error {
				events.OnCriticalFailure(errors.New("nothing screened"), time.Second)
				return nil
			},
			wantStatus: "fake-agent critical failure: nothing screened",
		},
		{
			name: "returned error",
			run: func(ctx context.Context, events *AgentEvents) error {
				return errors.New("store closed")
			},
			wantErr:    true,
			wantStatus: "fake-agent failed: store closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&config.Config{}, &fakeAgent{run: tt.run})

			err := s.RunOnce(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("RunOnce() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := s.Monitor().IsHealthy(); got != tt.wantHealthy {
				t.Errorf("IsHealthy() = %v, want %v", got, tt.wantHealthy)
			}
			if got := s.Monitor().GetStatusSummary(); !strings.Contains(got, tt.wantStatus) {
				t.Errorf("Expected status to contain %q, got %q", tt.wantStatus, got)
			}
		})
	}
}
