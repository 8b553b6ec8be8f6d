package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/siteforms/internal/adapters/mq/queue"
	"github.com/okian/siteforms/internal/domain/model"
	"github.com/okian/siteforms/pkg/logger"
	"github.com/okian/siteforms/pkg/metrics"
)

const (
	defaultSheetTimeout = 10 * time.Second
	maxDrainBytes       = 64 << 10

	// sheetTimeLayout matches JavaScript's Date.toISOString for UTC times.
	sheetTimeLayout = "2006-01-02T15:04:05.000Z07:00"

	jobSubmission   = "submission"
	jobSubscription = "subscription"
)

// HTTPDoer sends one HTTP request; *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// appendRequest is the webhook body: a batch holding one row.
type appendRequest struct {
	Values [][]string `json:"values"`
}

// SheetClient posts rows to a spreadsheet append webhook.
// The response is drained and otherwise ignored.
type SheetClient struct {
	url     string
	doer    HTTPDoer
	timeout time.Duration
	logger  logger.Logger
}

// NewSheetClient creates a client for the webhook at url.
func NewSheetClient(url string, opts ...SheetClientOption) *SheetClient {
	c := &SheetClient{
		url:     url,
		doer:    http.DefaultClient,
		timeout: defaultSheetTimeout,
		logger:  logger.Get().Named("sheet-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Append posts one row. Only transport failures are errors; any HTTP
// status, including 4xx and 5xx, counts as delivered.
func (c *SheetClient) Append(ctx context.Context, values []string) error {
	_, err := c.Post(ctx, values)
	return err
}

// Post sends one row and returns the webhook's HTTP status.
func (c *SheetClient) Post(ctx context.Context, values []string) (int, error) {
	body, err := json.Marshal(appendRequest{Values: [][]string{values}})
	if err != nil {
		return 0, fmt.Errorf("encode row: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build sheet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.doer.Do(req)
	metrics.RecordSheetDeliveryLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordSheetDelivery("failed")
		return 0, fmt.Errorf("post sheet row: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	metrics.RecordSheetDelivery("sent")
	c.logger.Debug(ctx, "sheet row posted", logger.Int("status", resp.StatusCode))
	return resp.StatusCode, nil
}

// RowAppender appends one positional row to the sheet.
type RowAppender interface {
	Append(ctx context.Context, values []string) error
}

// Enqueuer accepts rows for background delivery.
type Enqueuer interface {
	Enqueue(ctx context.Context, j queue.Job) error
}

// SheetStore writes one flattened row per record to a spreadsheet webhook.
//
// The sheet is write-only: subscriptions are never found, so every sign-up
// appends a row. IDs are the creation time in Unix milliseconds and are not
// guaranteed unique.
type SheetStore struct {
	appender RowAppender
	queue    Enqueuer // nil means synchronous delivery
	now      func() time.Time
	logger   logger.Logger
}

var _ Store = (*SheetStore)(nil)

// NewSheetStore creates a SheetStore that delivers through appender, or
// through a queue when WithQueue is given.
func NewSheetStore(appender RowAppender, opts ...SheetOption) *SheetStore {
	s := &SheetStore{
		appender: appender,
		now:      time.Now,
		logger:   logger.Get().Named("sheet-store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSubmission appends [createdAt, name, email, projectType, budget, message].
func (s *SheetStore) CreateSubmission(ctx context.Context, in model.SubmissionInput) (model.Submission, error) {
	created := s.stamp(in.CreatedAt)
	row := []string{
		FormatSheetTime(created),
		in.Name,
		in.Email,
		in.ProjectType(),
		in.Budget(),
		in.Message,
	}
	if err := s.deliver(ctx, jobSubmission, row); err != nil {
		return model.Submission{}, unavailable("create submission", err)
	}
	return in.Record(created.UnixMilli(), created), nil
}

// FindSubscriptionByEmail always reports absent; the sheet cannot be queried.
func (s *SheetStore) FindSubscriptionByEmail(ctx context.Context, email string) (model.Subscription, bool, error) {
	return model.Subscription{}, false, nil
}

// CreateSubscription appends [createdAt, email, "false"].
func (s *SheetStore) CreateSubscription(ctx context.Context, in model.SubscriptionInput) (model.Subscription, error) {
	created := s.stamp(in.CreatedAt)
	row := []string{FormatSheetTime(created), in.Email, "false"}
	if err := s.deliver(ctx, jobSubscription, row); err != nil {
		return model.Subscription{}, unavailable("create subscription", err)
	}
	return in.Record(created.UnixMilli(), created), nil
}

// Async reports whether rows go through the delivery queue.
func (s *SheetStore) Async() bool { return s.queue != nil }

func (s *SheetStore) deliver(ctx context.Context, kind string, row []string) error {
	if s.queue != nil {
		job := queue.NewJob(kind, row)
		if err := s.queue.Enqueue(ctx, job); err != nil {
			return err
		}
		s.logger.Debug(ctx, "sheet row queued", logger.String("job_id", job.ID.String()), logger.String("kind", kind))
		return nil
	}
	return s.appender.Append(ctx, row)
}

func (s *SheetStore) stamp(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	return t.UTC()
}

// FormatSheetTime renders t the way the sheet's first column expects.
func FormatSheetTime(t time.Time) string {
	return t.UTC().Format(sheetTimeLayout)
}
