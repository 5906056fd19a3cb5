package restapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bluele/gcache"
	"github.com/stretchr/testify/require"

	"ctaboard.trainboard.dev/internal/app"
	"ctaboard.trainboard.dev/internal/appconf"
	"ctaboard.trainboard.dev/internal/arrivals"
	"ctaboard.trainboard.dev/internal/cache"
	"ctaboard.trainboard.dev/internal/cta"
	"ctaboard.trainboard.dev/internal/logging"
)

const predictionTime = "2024-12-20T14:00:00"

// upstreamStub is a fake Train Tracker. Each requested stop id yields one
// prediction arriving in (id mod 100) minutes.
type upstreamStub struct {
	mu          sync.Mutex
	calls       []string
	status      int
	delay       time.Duration
	followBody  string
	followCalls int
}

func (u *upstreamStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	status, delay, followBody := u.status, u.delay, u.followBody
	if strings.HasSuffix(r.URL.Path, "ttfollow.aspx") {
		u.followCalls++
	} else {
		u.calls = append(u.calls, r.URL.RawQuery)
	}
	u.mu.Unlock()

	if delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(delay):
		}
	}
	if status != 0 {
		w.WriteHeader(status)
		return
	}

	if strings.HasSuffix(r.URL.Path, "ttfollow.aspx") {
		_, _ = w.Write([]byte(followBody))
		return
	}

	base, _ := time.ParseInLocation(cta.TimestampLayout, predictionTime, cta.Location)
	var etas []string
	for _, id := range r.URL.Query()["stpid"] {
		n, _ := strconv.Atoi(id)
		arrival := base.Add(time.Duration(n%100) * time.Minute).Format(cta.TimestampLayout)
		etas = append(etas, fmt.Sprintf(`{"staId":"40380","stpId":%q,"staNm":"Clark/Lake","stpDe":"Platform %s","rn":"4%02d","rt":"Brn","destNm":"Kimball","prdt":%q,"arrT":%q,"isApp":"0","isSch":"0","isDly":"0","isFlt":"0","flags":null}`,
			id, id, n%100, predictionTime, arrival))
	}
	_, _ = fmt.Fprintf(w, `{"ctatt":{"tmst":%q,"errCd":"0","errNm":null,"eta":[%s]}}`, predictionTime, strings.Join(etas, ","))
}

func (u *upstreamStub) configure(fn func(u *upstreamStub)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fn(u)
}

func (u *upstreamStub) callCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.calls)
}

type testEnv struct {
	api      *RestAPI
	upstream *upstreamStub
	clock    gcache.FakeClock
	logs     *bytes.Buffer
}

// createTestApi wires a RestAPI against a fake upstream.
func createTestApi(t *testing.T, mutate func(*appconf.Config)) *testEnv {
	t.Helper()

	upstream := &upstreamStub{}
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	cfg := appconf.Default()
	cfg.Env = appconf.EnvFlagToEnvironment("test")
	cfg.APIKey = "TEST"
	cfg.CTABaseURL = server.URL
	cfg.HolidayRun = 0
	cfg.RateLimit = 0
	cfg.UpstreamTimeout = 200 * time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}

	var logs bytes.Buffer
	logger := logging.NewStructuredLogger(&logs, slog.LevelDebug)
	clock := gcache.NewFakeClock()

	client := cta.NewClient(cta.Config{
		BaseURL: cfg.CTABaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.UpstreamTimeout,
		Logger:  logger,
	})
	service := arrivals.NewService(client, cache.NewStore(cfg.CacheTTL, clock), arrivals.Config{
		BatchSize:  cfg.BatchSize,
		HolidayRun: cfg.HolidayRun,
	}, logger)

	api := NewRestAPI(&app.Application{Config: cfg, Logger: logger, Arrivals: service})
	t.Cleanup(api.Shutdown)

	return &testEnv{api: api, upstream: upstream, clock: clock, logs: &logs}
}

// serveApiAndRetrieveEndpoint serves the API and GETs endpoint, returning the
// response and its raw body.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	server := httptest.NewServer(api.Routes())
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL+endpoint, nil)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "test")),
		"http_response_body")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func decodeJSON[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}
