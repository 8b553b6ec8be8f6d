package smoke

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/siteforms/internal/adapters/repository"
	"github.com/okian/siteforms/internal/domain/types"
	"github.com/okian/siteforms/pkg/logger"
)

// Fixed row written by the sheet check.
var sheetTestRow = []string{"Test Name", "test@example.com", "Test Project", "Test Budget", "Test Message"}

// Run executes the checks for cfg.Mode and returns the report. A non-nil
// report with failed checks comes back together with ErrChecks.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	report := &Report{Mode: cfg.Mode, StartTime: time.Now()}
	log := logger.Get().Named("smoke")

	log.Info(ctx, "starting smoke run",
		logger.String("mode", cfg.Mode),
		logger.String("baseURL", cfg.BaseURL),
		logger.Duration("timeout", cfg.Timeout),
	)

	switch cfg.Mode {
	case ModeAPI:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("%w: -url", ErrMissingURL)
		}
		report.Checks = runAPI(ctx, cfg, log)
	case ModeSheet:
		if cfg.SheetURL == "" {
			return nil, fmt.Errorf("%w: -sheet-url", ErrMissingURL)
		}
		report.Checks = []Check{runSheet(ctx, cfg, time.Now())}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}

	report.Duration = time.Since(report.StartTime)
	if failed := report.Failed(); len(failed) > 0 {
		return report, fmt.Errorf("%w: %d of %d", ErrChecks, len(failed), len(report.Checks))
	}
	return report, nil
}

// runAPI posts one of each form, then the same subscription twice. The
// second sign-up answers 200 on postgres and 201 on sheets; both pass.
func runAPI(ctx context.Context, cfg *Config, log logger.Logger) []Check {
	c := newClient(cfg.Timeout)
	base := strings.TrimRight(cfg.BaseURL, "/")
	marker := uuid.NewString()[:8]
	email := "smoke+" + marker + "@example.com"

	steps := []struct {
		name string
		path string
		body any
		want []int
	}{
		{"contact", "/api/contact", types.ContactRequest{
			Name: "Smoke Test", Email: email, Business: "Smoke", Message: "smoke " + marker,
		}, []int{http.StatusCreated}},
		{"work-with-us", "/api/work-with-us", types.WorkRequest{
			Name: "Smoke Test", Email: email, ProjectType: "Smoke", Budget: "0", Message: "smoke " + marker,
		}, []int{http.StatusCreated}},
		{"subscribe", "/api/subscribe", types.SubscribeRequest{Email: email}, []int{http.StatusCreated}},
		{"subscribe again", "/api/subscribe", types.SubscribeRequest{Email: email}, []int{http.StatusOK, http.StatusCreated}},
		{"subscribe empty", "/api/subscribe", types.SubscribeRequest{}, []int{http.StatusBadRequest}},
	}

	checks := make([]Check, 0, len(steps))
	for _, s := range steps {
		status, ack, requestID, err := c.postForm(ctx, base+s.path, s.body)
		check := Check{
			Name:    s.name,
			Target:  s.path,
			Want:    s.want,
			Got:     status,
			Message: ack.Message,
			ID:      ack.ID,
			Err:     err,
		}
		checks = append(checks, check)

		fields := []logger.Field{
			logger.String("check", s.name),
			logger.Int("status", status),
			logger.String("request_id", requestID),
		}
		if cfg.Verbose {
			fields = append(fields, logger.String("message", ack.Message))
		}
		if !check.OK() {
			log.Warn(ctx, "check failed", append(fields, logger.Error(err))...)
			continue
		}
		log.Debug(ctx, "check passed", fields...)
	}
	return checks
}

// runSheet writes the fixed test row straight to the webhook.
func runSheet(ctx context.Context, cfg *Config, now time.Time) Check {
	client := repository.NewSheetClient(cfg.SheetURL, repository.WithTimeout(cfg.Timeout))
	row := append([]string{repository.FormatSheetTime(now)}, sheetTestRow...)

	status, err := client.Post(ctx, row)
	return Check{
		Name:   "sheet append",
		Target: cfg.SheetURL,
		Want:   []int{http.StatusOK, http.StatusCreated, http.StatusFound},
		Got:    status,
		Err:    err,
	}
}
