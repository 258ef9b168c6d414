package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarkd/internal/remote"
)

// replyError mimics a Redis error reply.
type replyError string

func (e replyError) Error() string { return string(e) }
func (replyError) RedisError()     {}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want remote.Kind
	}{
		{"acl denied", replyError("NOPERM this user has no permissions to run the 'hset' command"), remote.PermissionDenied},
		{"auth required", replyError("NOAUTH Authentication required."), remote.PermissionDenied},
		{"wrong password", fmt.Errorf("dial: %w", replyError("WRONGPASS invalid username-password pair")), remote.PermissionDenied},
		{"other reply", replyError("WRONGTYPE Operation against a key holding the wrong kind of value"), remote.ConnectionUnavailable},
		{"eof", io.EOF, remote.ConnectionUnavailable},
		{"timeout", context.DeadlineExceeded, remote.ConnectionUnavailable},
		{"cancelled", context.Canceled, remote.Cancelled},
		{"closed client", redis.ErrClosed, remote.Cancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("op", tt.err)
			kind, ok := remote.KindOf(err)
			if !ok {
				t.Fatalf("classify() = %v, want *remote.Error", err)
			}
			if kind != tt.want {
				t.Errorf("classify() kind = %v, want %v", kind, tt.want)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("classify() does not wrap the original error")
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	if err := classify("op", nil); err != nil {
		t.Errorf("classify(nil) = %v, want nil", err)
	}
}
