package util

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"
)

// RetryPolicy controls how often and how patiently a transient failure is
// retried
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first
	InitialWait time.Duration // doubled after every failed attempt
	MaxWait     time.Duration // cap on the wait between attempts
}

// LocalRetryPolicy does not retry. Local disks fail for good reasons.
func LocalRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

// NetworkRetryPolicy retries transient failures on network shares
func NetworkRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		InitialWait: 200 * time.Millisecond,
		MaxWait:     5 * time.Second,
	}
}

// transientErrnos are the syscall errors a network share recovers from
var transientErrnos = []syscall.Errno{
	syscall.EAGAIN,
	syscall.ETIMEDOUT,
	syscall.ECONNRESET,
	syscall.ECONNABORTED,
	syscall.ECONNREFUSED,
	syscall.ENETDOWN,
	syscall.ENETUNREACH,
	syscall.EHOSTDOWN,
	syscall.EHOSTUNREACH,
	syscall.EIO,
}

var transientMessages = []string{
	"timeout",
	"timed out",
	"connection reset",
	"connection refused",
	"broken pipe",
	"network is unreachable",
	"host is down",
	"resource temporarily unavailable",
	"stale file handle",
}

// IsTransient reports whether err is worth retrying
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		for _, e := range transientErrnos {
			if errno == e {
				return true
			}
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientMessages {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// Retry runs op until it succeeds, fails permanently, the attempts run out
// or ctx is done. The wait between attempts doubles up to MaxWait.
func Retry[T any](ctx context.Context, policy RetryPolicy, name string, op func() (T, error)) (T, error) {
	attempts := max(policy.MaxAttempts, 1)
	wait := policy.InitialWait

	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = op()
		if err == nil {
			if attempt > 1 {
				DebugLog("Retry: %s succeeded on attempt %d/%d", name, attempt, attempts)
			}
			return result, nil
		}
		if !IsTransient(err) || attempt == attempts {
			break
		}

		DebugLog("Retry: %s failed (attempt %d/%d), retrying in %v: %v", name, attempt, attempts, wait, err)
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(wait):
		}
		wait = min(wait*2, policy.MaxWait)
	}

	if attempts > 1 && IsTransient(err) {
		WarnLog("Retry: %s failed after %d attempts: %v", name, attempts, err)
		return result, fmt.Errorf("%s: giving up after %d attempts: %w", name, attempts, err)
	}
	return result, err
}

// OpenWithRetry opens path for reading under policy
func OpenWithRetry(ctx context.Context, policy RetryPolicy, path string) (*os.File, error) {
	return Retry(ctx, policy, "open "+path, func() (*os.File, error) {
		return os.Open(path)
	})
}
