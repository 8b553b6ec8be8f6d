package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/okian/siteforms/internal/adapters/http/api"
	"github.com/okian/siteforms/internal/adapters/repository"
	"github.com/okian/siteforms/internal/domain/model"
	"github.com/okian/siteforms/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// spyStore records every call so tests can assert the store was never reached.
type spyStore struct {
	mock.Mock
}

func (s *spyStore) CreateSubmission(ctx context.Context, in model.SubmissionInput) (model.Submission, error) {
	args := s.Called(ctx, in)
	return args.Get(0).(model.Submission), args.Error(1)
}

func (s *spyStore) FindSubscriptionByEmail(ctx context.Context, email string) (model.Subscription, bool, error) {
	args := s.Called(ctx, email)
	return args.Get(0).(model.Subscription), args.Bool(1), args.Error(2)
}

func (s *spyStore) CreateSubscription(ctx context.Context, in model.SubscriptionInput) (model.Subscription, error) {
	args := s.Called(ctx, in)
	return args.Get(0).(model.Subscription), args.Error(1)
}

func (s *spyStore) Health(ctx context.Context) api.HealthReport {
	args := s.Called(ctx)
	return args.Get(0).(api.HealthReport)
}

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newRouter(deps api.Dependencies) http.Handler {
	_ = logger.Init()
	return api.NewServer(deps, api.WithClock(func() time.Time { return fixedNow })).Router(context.Background())
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return out
}

func TestContactEndpoint(t *testing.T) {
	Convey("Given the contact endpoint", t, func() {
		store := &spyStore{}
		h := newRouter(store)

		Convey("When all required fields are present", func() {
			store.On("CreateSubmission", mock.Anything, mock.MatchedBy(func(in model.SubmissionInput) bool {
				return in.Kind() == model.KindContact && in.Business() == "" && in.CreatedAt.Equal(fixedNow)
			})).Return(model.Submission{ID: 17}, nil).Once()

			rec := post(h, api.RouteContact, `{"name":"Ann","email":"ann@example.com","message":"Hello"}`)

			Convey("Then it answers 201 with the new id", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)
				So(rec.Header().Get("Content-Type"), ShouldStartWith, "application/json")
				body := decode(rec)
				So(body["success"], ShouldEqual, true)
				So(body["message"], ShouldEqual, "Contact form submitted successfully")
				So(body["id"], ShouldEqual, 17.0)
				store.AssertExpectations(t)
			})
		})

		Convey("When the message is missing", func() {
			rec := post(h, api.RouteContact, `{"name":"Ann","email":"ann@example.com","business":"Acme"}`)

			Convey("Then it answers 400 without touching storage", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(strings.TrimSpace(rec.Body.String()), ShouldEqual,
					`{"success":false,"message":"Name, email, and message are required"}`)
				store.AssertNotCalled(t, "CreateSubmission", mock.Anything, mock.Anything)
			})
		})

		Convey("When a field is only whitespace", func() {
			rec := post(h, api.RouteContact, `{"name":"   ","email":"ann@example.com","message":"Hello"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			store.AssertNotCalled(t, "CreateSubmission", mock.Anything, mock.Anything)
		})

		Convey("When the body is not JSON", func() {
			rec := post(h, api.RouteContact, `name=Ann`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["message"], ShouldEqual, "Name, email, and message are required")
		})

		Convey("When the body is empty", func() {
			rec := post(h, api.RouteContact, ``)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the body is too large", func() {
			big := `{"name":"Ann","email":"ann@example.com","message":"` + strings.Repeat("x", 70<<10) + `"}`
			rec := post(h, api.RouteContact, big)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			store.AssertNotCalled(t, "CreateSubmission", mock.Anything, mock.Anything)
		})

		Convey("When storage fails", func() {
			store.On("CreateSubmission", mock.Anything, mock.Anything).
				Return(model.Submission{}, errors.New("storage unavailable: dial tcp 10.0.0.5:5432")).Once()

			rec := post(h, api.RouteContact, `{"name":"Ann","email":"ann@example.com","message":"Hello"}`)

			Convey("Then it answers 500 with a generic message", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				So(decode(rec)["message"], ShouldEqual, "Failed to submit contact form")
				So(rec.Body.String(), ShouldNotContainSubstring, "10.0.0.5")
			})
		})
	})
}

func TestWorkWithUsEndpoint(t *testing.T) {
	Convey("Given the work-with-us endpoint", t, func() {
		store := &spyStore{}
		h := newRouter(store)

		Convey("When every field is present", func() {
			store.On("CreateSubmission", mock.Anything, mock.MatchedBy(func(in model.SubmissionInput) bool {
				return in.Kind() == model.KindWorkRequest && in.ProjectType() == "Website" && in.Budget() == "$10k"
			})).Return(model.Submission{ID: 5}, nil).Once()

			rec := post(h, api.RouteWorkWithUs,
				`{"name":"Bo","email":"bo@example.com","projectType":"Website","budget":"$10k","message":"Need a site"}`)

			So(rec.Code, ShouldEqual, http.StatusCreated)
			So(decode(rec)["message"], ShouldEqual, "Work request submitted successfully")
			So(decode(rec)["id"], ShouldEqual, 5.0)
			store.AssertExpectations(t)
		})

		Convey("When any one field is missing or blank", func() {
			full := map[string]string{
				"name":        "Bo",
				"email":       "bo@example.com",
				"projectType": "Website",
				"budget":      "$10k",
				"message":     "Need a site",
			}
			for _, field := range []string{"name", "email", "projectType", "budget", "message"} {
				for _, blank := range []bool{false, true} {
					body := map[string]string{}
					for k, v := range full {
						body[k] = v
					}
					if blank {
						body[field] = "  "
					} else {
						delete(body, field)
					}
					raw, _ := json.Marshal(body)

					rec := post(h, api.RouteWorkWithUs, string(raw))

					So(rec.Code, ShouldEqual, http.StatusBadRequest)
					So(decode(rec)["message"], ShouldEqual, "All fields are required")
					So(decode(rec)["success"], ShouldEqual, false)
				}
			}
			store.AssertNotCalled(t, "CreateSubmission", mock.Anything, mock.Anything)
		})

		Convey("When storage fails", func() {
			store.On("CreateSubmission", mock.Anything, mock.Anything).
				Return(model.Submission{}, repository.ErrStorageUnavailable).Once()

			rec := post(h, api.RouteWorkWithUs,
				`{"name":"Bo","email":"bo@example.com","projectType":"Website","budget":"$10k","message":"Need a site"}`)

			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(decode(rec)["message"], ShouldEqual, "Failed to submit work request")
		})
	})
}

func TestSubscribeEndpoint(t *testing.T) {
	Convey("Given the subscribe endpoint", t, func() {
		store := &spyStore{}
		h := newRouter(store)

		Convey("When the email is missing", func() {
			rec := post(h, api.RouteSubscribe, `{}`)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["message"], ShouldEqual, "Email is required")
			store.AssertNotCalled(t, "FindSubscriptionByEmail", mock.Anything, mock.Anything)
			store.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
		})

		Convey("When the email is new", func() {
			store.On("FindSubscriptionByEmail", mock.Anything, "a@b.com").
				Return(model.Subscription{}, false, nil).Once()
			store.On("CreateSubscription", mock.Anything, model.SubscriptionInput{Email: "a@b.com", CreatedAt: fixedNow}).
				Return(model.Subscription{ID: 9, Email: "a@b.com"}, nil).Once()

			rec := post(h, api.RouteSubscribe, `{"email":" a@b.com "}`)

			So(rec.Code, ShouldEqual, http.StatusCreated)
			So(decode(rec)["message"], ShouldEqual, "Subscribed successfully")
			So(decode(rec)["id"], ShouldEqual, 9.0)
			store.AssertExpectations(t)
		})

		Convey("When the email is already known", func() {
			store.On("FindSubscriptionByEmail", mock.Anything, "a@b.com").
				Return(model.Subscription{ID: 9, Email: "a@b.com"}, true, nil).Once()

			rec := post(h, api.RouteSubscribe, `{"email":"a@b.com"}`)

			Convey("Then it answers 200 without an id and writes nothing", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(rec.Body.String()), ShouldEqual, `{"success":true,"message":"Email already subscribed"}`)
				store.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
			})
		})

		Convey("When a concurrent sign-up wins the unique index", func() {
			store.On("FindSubscriptionByEmail", mock.Anything, "a@b.com").
				Return(model.Subscription{}, false, nil).Once()
			store.On("CreateSubscription", mock.Anything, mock.Anything).
				Return(model.Subscription{}, repository.ErrDuplicateEmail).Once()

			rec := post(h, api.RouteSubscribe, `{"email":"a@b.com"}`)

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode(rec)["message"], ShouldEqual, "Email already subscribed")
		})

		Convey("When the lookup fails", func() {
			store.On("FindSubscriptionByEmail", mock.Anything, "a@b.com").
				Return(model.Subscription{}, false, repository.ErrStorageUnavailable).Once()

			rec := post(h, api.RouteSubscribe, `{"email":"a@b.com"}`)

			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(decode(rec)["message"], ShouldEqual, "Failed to subscribe")
			store.AssertNotCalled(t, "CreateSubscription", mock.Anything, mock.Anything)
		})

		Convey("When the insert fails", func() {
			store.On("FindSubscriptionByEmail", mock.Anything, "a@b.com").
				Return(model.Subscription{}, false, nil).Once()
			store.On("CreateSubscription", mock.Anything, mock.Anything).
				Return(model.Subscription{}, errors.New("timeout")).Once()

			rec := post(h, api.RouteSubscribe, `{"email":"a@b.com"}`)
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

// memStore is a minimal unique-by-email store for end-to-end handler scenarios.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	subs   map[string]model.Subscription
}

func (m *memStore) CreateSubmission(ctx context.Context, in model.SubmissionInput) (model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	return in.Record(m.nextID, in.CreatedAt), nil
}

func (m *memStore) FindSubscriptionByEmail(ctx context.Context, email string) (model.Subscription, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[email]
	return s, ok, nil
}

func (m *memStore) CreateSubscription(ctx context.Context, in model.SubscriptionInput) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[in.Email]; ok {
		return model.Subscription{}, repository.ErrDuplicateEmail
	}
	m.nextID++
	s := in.Record(m.nextID, in.CreatedAt)
	m.subs[in.Email] = s
	return s, nil
}

func (m *memStore) Health(ctx context.Context) api.HealthReport {
	return api.HealthReport{Backend: "memory", Dependencies: map[string]string{"memory": api.StatusHealthy}}
}

func TestSubscribeTwice(t *testing.T) {
	Convey("Given a store that enforces unique emails", t, func() {
		store := &memStore{subs: map[string]model.Subscription{}}
		h := newRouter(store)

		Convey("When a@b.com subscribes twice", func() {
			first := post(h, api.RouteSubscribe, `{"email":"a@b.com"}`)
			second := post(h, api.RouteSubscribe, `{"email":"a@b.com"}`)

			Convey("Then the first is created and the second is acknowledged", func() {
				So(first.Code, ShouldEqual, http.StatusCreated)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(decode(second)["message"], ShouldEqual, "Email already subscribed")
				So(len(store.subs), ShouldEqual, 1)
			})
		})

		Convey("When many requests race for one email", func() {
			var wg sync.WaitGroup
			codes := make(chan int, 20)
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					codes <- post(h, api.RouteSubscribe, `{"email":"race@example.com"}`).Code
				}()
			}
			wg.Wait()
			close(codes)

			created := 0
			for c := range codes {
				So(c, ShouldBeIn, http.StatusCreated, http.StatusOK)
				if c == http.StatusCreated {
					created++
				}
			}
			So(created, ShouldEqual, 1)
			So(len(store.subs), ShouldEqual, 1)
		})
	})
}

func TestStorageOutlivesClientDisconnect(t *testing.T) {
	Convey("Given a contact form backed by a slow sheet webhook", t, func() {
		_ = logger.Init()
		var mu sync.Mutex
		delivered := 0
		hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			if r.Context().Err() != nil {
				return
			}
			mu.Lock()
			delivered++
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		}))
		defer hook.Close()

		store := repository.NewSheetStore(
			repository.NewSheetClient(hook.URL, repository.WithTimeout(2*time.Second)),
			repository.WithClock(func() time.Time { return fixedNow }),
		)
		h := newRouter(storeWithHealth{store})

		Convey("When the client goes away while the row is in flight", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			req := httptest.NewRequest(http.MethodPost, api.RouteContact,
				strings.NewReader(`{"name":"Ann","email":"ann@example.com","message":"Hello"}`)).WithContext(ctx)
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Convey("Then the row still reaches the sheet and the handler reports success", func() {
				So(ctx.Err(), ShouldNotBeNil)
				So(rec.Code, ShouldEqual, http.StatusCreated)
				mu.Lock()
				defer mu.Unlock()
				So(delivered, ShouldEqual, 1)
			})
		})
	})
}

// storeWithHealth gives a bare Store a static health report.
type storeWithHealth struct {
	repository.Store
}

func (storeWithHealth) Health(ctx context.Context) api.HealthReport {
	return api.HealthReport{Backend: repository.BackendSheets, Dependencies: map[string]string{repository.BackendSheets: api.StatusHealthy}}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	Convey("Given the operational routes", t, func() {
		store := &spyStore{}
		h := newRouter(store)

		Convey("When every dependency is healthy", func() {
			store.On("Health", mock.Anything).Return(api.HealthReport{
				Backend:      "postgres",
				Dependencies: map[string]string{"postgres": api.StatusHealthy},
			})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, api.RouteHealth, nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			body := decode(rec)
			So(body["status"], ShouldEqual, "healthy")
			So(body["backend"], ShouldEqual, "postgres")
			So(body["uptime"], ShouldNotBeEmpty)
		})

		Convey("When a dependency is down", func() {
			store.On("Health", mock.Anything).Return(api.HealthReport{
				Backend:      "postgres",
				Dependencies: map[string]string{"postgres": api.StatusUnhealthy, "sheets": api.StatusNotConfigured},
			})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, api.RouteHealth, nil))

			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
			body := decode(rec)
			So(body["status"], ShouldEqual, "degraded")
			So(body["dependencies"], ShouldResemble, map[string]any{"postgres": "unhealthy", "sheets": "not configured"})
		})

		Convey("When metrics are scraped", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, api.RouteMetrics, nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
		})

		Convey("When the site sends a CORS preflight", func() {
			req := httptest.NewRequest(http.MethodOptions, api.RouteContact, nil)
			req.Header.Set("Origin", "https://site.example")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
			store.AssertNotCalled(t, "CreateSubmission", mock.Anything, mock.Anything)
		})

		Convey("When a form route is called with GET", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, api.RouteContact, nil))
			So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
