package service

import (
	"errors"
	"fmt"

	"github.com/okian/siteforms/internal/adapters/repository"
)

// Error constants.
var (
	ErrNotStarted     = fmt.Errorf("%w: service not started", repository.ErrStorageUnavailable)
	ErrUnknownBackend = errors.New("unknown storage backend")
)
