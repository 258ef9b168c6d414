package firestore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/MrSnakeDoc/bookmarkd/internal/remote"
)

// classify maps gRPC status codes onto the remote error taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf("%s: %v", op, err)
	if errors.Is(err, context.Canceled) {
		return remote.NewError(remote.Cancelled, msg, err)
	}

	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return remote.NewError(remote.PermissionDenied, msg, err)
	case codes.Canceled:
		return remote.NewError(remote.Cancelled, msg, err)
	default:
		return remote.NewError(remote.ConnectionUnavailable, msg, err)
	}
}
