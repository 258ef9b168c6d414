package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarkd/internal/remote"
)

// permissionPrefixes are the Redis error replies caused by ACLs or credentials.
var permissionPrefixes = []string{"NOPERM", "NOAUTH", "WRONGPASS"}

// classify maps a go-redis error onto the remote error taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf("%s: %v", op, err)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, redis.ErrClosed):
		return remote.NewError(remote.Cancelled, msg, err)
	case isPermissionError(err):
		return remote.NewError(remote.PermissionDenied, msg, err)
	default:
		return remote.NewError(remote.ConnectionUnavailable, msg, err)
	}
}

func isPermissionError(err error) bool {
	var rerr redis.Error
	if !errors.As(err, &rerr) {
		return false
	}
	reply := rerr.Error()
	for _, prefix := range permissionPrefixes {
		if strings.HasPrefix(reply, prefix) {
			return true
		}
	}
	return false
}
