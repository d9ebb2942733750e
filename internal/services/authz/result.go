package authz

import (
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Result is the JSON failure envelope returned to plain HTTP callers.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func Denied(message string) Result {
	if message == "" {
		message = MsgUnauthorized
	}
	return Result{Success: false, Message: message}
}

// DeniedStatus converts a failed decision into the RPC-framed equivalent.
func DeniedStatus(message string) error {
	if message == "" {
		message = MsgUnauthorized
	}
	return status.Error(codes.PermissionDenied, message)
}

// IsGRPCContent reports whether the request is RPC-framed, detected by
// content-type sniffing ("application/grpc" and its +proto/+json variants).
func IsGRPCContent(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/grpc")
}
