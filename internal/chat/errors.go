package chat

import (
	"errors"
	"fmt"

	"dmgo/backend/internal/attachment"
	"dmgo/backend/internal/config"
	"dmgo/backend/internal/storage"
	"dmgo/backend/internal/upstream"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrValidation        = errors.New("validation failed")
	ErrTransientUpstream = errors.New("upstream temporarily unavailable")
	ErrInternal          = errors.New("internal error")
)

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// mapError translates store and collaborator errors into the service taxonomy.
func mapError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden), errors.Is(err, ErrValidation),
		errors.Is(err, ErrTransientUpstream), errors.Is(err, ErrInternal):
		return err
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, upstream.ErrUserNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, storage.ErrForbidden):
		return fmt.Errorf("%w: %s", ErrForbidden, what)
	case errors.Is(err, attachment.ErrExhausted), errors.Is(err, upstream.ErrNotReady):
		return fmt.Errorf("%w: %v", ErrTransientUpstream, err)
	default:
		var (
			statusErr    *upstream.StatusError
			transportErr *upstream.TransportError
		)
		if errors.As(err, &statusErr) || errors.As(err, &transportErr) {
			return fmt.Errorf("%w: %v", ErrTransientUpstream, err)
		}
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
}

// normalizePage applies the default page size and rejects sizes outside the allowed bounds.
func normalizePage(pageSize, pageNumber int) (int, int, error) {
	if pageSize == 0 {
		pageSize = config.DefaultPageSize
	}
	if pageSize < config.MinPageSize || pageSize > config.MaxPageSize {
		return 0, 0, validationf("pageSize must be between %d and %d", config.MinPageSize, config.MaxPageSize)
	}
	if pageNumber < 1 {
		pageNumber = 1
	}
	return pageSize, pageNumber, nil
}
