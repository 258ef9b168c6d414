package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
)

func validOptions() ConnectOptions {
	return ConnectOptions{
		Addr:           "127.0.0.1:1",
		DialTimeout:    50 * time.Millisecond,
		ReadTimeout:    50 * time.Millisecond,
		WriteTimeout:   50 * time.Millisecond,
		PoolSize:       1,
		ConnectTimeout: 200 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestValidateOptions(t *testing.T) {
	cl := &connectionLogger{logger: logger.Nop()}

	tests := []struct {
		name    string
		mutate  func(*ConnectOptions)
		wantErr string
	}{
		{name: "valid", mutate: func(*ConnectOptions) {}},
		{name: "zero connect timeout", mutate: func(o *ConnectOptions) { o.ConnectTimeout = 0 }, wantErr: "ConnectTimeout"},
		{name: "zero retry interval", mutate: func(o *ConnectOptions) { o.RetryInterval = 0 }, wantErr: "RetryInterval"},
		{name: "zero max wait", mutate: func(o *ConnectOptions) { o.MaxWait = 0 }, wantErr: "MaxWait"},
		{name: "zero ping timeout", mutate: func(o *ConnectOptions) { o.PingTimeout = 0 }, wantErr: "PingTimeout"},
		{name: "negative warn threshold", mutate: func(o *ConnectOptions) { o.WarnThreshold = -1 }, wantErr: "WarnThreshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions()
			tt.mutate(&opts)
			err := cl.validateOptions(opts)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validateOptions() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validateOptions() = %v, want error mentioning %s", err, tt.wantErr)
			}
		})
	}
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	start := time.Now()
	_, err := New(context.Background(), validOptions(), logger.Nop())
	if err == nil {
		t.Fatal("New() against a closed port should fail")
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("New() did not honor ConnectTimeout, took %v", time.Since(start))
	}
}

func TestNewAbortsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := validOptions()
	opts.ConnectTimeout = 10 * time.Second

	_, err := New(ctx, opts, logger.Nop())
	if err == nil || !strings.Contains(err.Error(), "aborted") {
		t.Errorf("New() with cancelled context = %v, want aborted error", err)
	}
}

func TestTimeLeftWithoutDeadline(t *testing.T) {
	if got := timeLeft(context.Background()); got != 0 {
		t.Errorf("timeLeft() = %v, want 0", got)
	}
}
