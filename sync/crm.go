package sync

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var (
	// ErrTransient marks a failure that is expected to succeed on retry,
	// such as rate limiting or a gateway timeout.
	ErrTransient = errors.New("transient error")
	// ErrUnauthorized marks an authentication or permission failure. It aborts a run.
	ErrUnauthorized = errors.New("unauthorized")
)

// CRMClient looks up, creates and updates contacts in the destination CRM.
type CRMClient interface {
	// FindContacts returns every existing contact matching the identifiers of record.
	FindContacts(ctx context.Context, record ContactRecord) ([]Contact, error)
	CreateContact(ctx context.Context, record ContactRecord) (Contact, error)
	// UpdateContact writes contact including its AddedTags.
	UpdateContact(ctx context.Context, contact Contact) (Contact, error)
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	if errors.Is(err, ErrTransient) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// withRetry calls fn and, when it fails with a transient error, waits backoff
// and calls it exactly once more.
func withRetry[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(d), 1), ctx)
	return backoff.RetryWithData(func() (T, error) {
		result, err := fn(ctx)
		if err != nil && !IsTransient(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}, policy)
}
