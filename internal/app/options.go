package service

import (
	"github.com/okian/siteforms/internal/adapters/repository"
	"github.com/okian/siteforms/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDB supplies an open database instead of dialing postgres.dsn.
// The service does not close a supplied DB.
func WithDB(db repository.DB) Option {
	return func(s *Service) {
		if db != nil {
			s.db = db
		}
	}
}

// WithHTTPClient sets the client used for spreadsheet webhook posts.
func WithHTTPClient(hc repository.HTTPDoer) Option {
	return func(s *Service) {
		if hc != nil {
			s.httpClient = hc
		}
	}
}
