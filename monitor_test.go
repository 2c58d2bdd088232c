package goAuthMonitor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"github.com/MrEthical07/goAuthMonitor/endpoint"
	"github.com/MrEthical07/goAuthMonitor/jwt"
	"github.com/MrEthical07/goAuthMonitor/storage"
)

var epoch = time.Unix(1_700_000_000, 0)

type fakeService struct {
	mu          sync.Mutex
	checkTokens []string
	renewTokens []string

	checkResp *endpoint.CheckResponse
	checkErr  error
	renewResp *endpoint.RenewResponse
	renewErr  error

	// renewHook runs inside Renew before it returns.
	renewHook func()
}

func (f *fakeService) Check(_ context.Context, token string) (*endpoint.CheckResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkTokens = append(f.checkTokens, token)
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return f.checkResp, nil
}

func (f *fakeService) Renew(_ context.Context, token string) (*endpoint.RenewResponse, error) {
	f.mu.Lock()
	f.renewTokens = append(f.renewTokens, token)
	hook := f.renewHook
	resp, err := f.renewResp, f.renewErr
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *fakeService) checks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checkTokens)
}

func (f *fakeService) renewals() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.renewTokens)
}

func newTestMonitor(t *testing.T, svc TokenService, store storage.Store) (*Monitor, *testingclock.FakeClock) {
	t.Helper()
	clk := testingclock.NewFakeClock(epoch)
	m, err := New().
		WithTokenService(svc).
		WithStore(store).
		WithClock(clk).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(m.Close)
	return m, clk
}

func seed(t *testing.T, store storage.Store, token string, expiry int64) {
	t.Helper()
	entries := []storage.Entry{{Key: "access_token", Value: token}}
	if expiry != 0 {
		entries = append(entries, storage.Entry{Key: "jwt_expiry_time", Value: strconv.FormatInt(expiry, 10)})
	}
	if err := store.Set(context.Background(), entries...); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func get(t *testing.T, store storage.Store, key string) (string, bool) {
	t.Helper()
	v, ok, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%q): %v", key, err)
	}
	return v, ok
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// settle gives a stray tick goroutine a chance to run before asserting that it did not.
func settle() {
	time.Sleep(20 * time.Millisecond)
}

func TestFreshTokenSendsNoRequests(t *testing.T) {
	store := storage.NewMemory()
	svc := &fakeService{}
	seed(t, store, "tok", epoch.Unix()+600)
	m, clk := newTestMonitor(t, svc, store)

	res := m.Initialize(context.Background())
	if res.Action != ActionNone || !res.OK() {
		t.Fatalf("expected no action, got %v (%v)", res.Action, res.Err)
	}
	if res.Remaining != 600*time.Second {
		t.Fatalf("expected 600s remaining, got %v", res.Remaining)
	}

	clk.Step(60 * time.Second)
	waitFor(t, "scheduled check", func() bool { return m.metrics.Value(MetricCheck) == 2 })
	settle()

	if svc.checks() != 0 || svc.renewals() != 0 {
		t.Fatalf("expected no requests, got %d checks %d renewals", svc.checks(), svc.renewals())
	}
	if m.State() != StateMonitoring {
		t.Fatalf("expected monitoring, got %v", m.State())
	}
}

func TestNearExpiryRenewsOncePerTick(t *testing.T) {
	store := storage.NewMemory()
	svc := &fakeService{
		renewResp: &endpoint.RenewResponse{AccessToken: "fresh", Exp: epoch.Unix() + 3600},
	}
	seed(t, store, "tok", epoch.Unix()+100)
	m, clk := newTestMonitor(t, svc, store)

	res := m.Initialize(context.Background())
	if res.Action != ActionRenewed {
		t.Fatalf("expected renewal, got %v (%v)", res.Action, res.Err)
	}
	if svc.renewals() != 1 {
		t.Fatalf("expected 1 renewal request, got %d", svc.renewals())
	}
	if svc.renewTokens[0] != "tok" {
		t.Fatalf("renewal sent %q", svc.renewTokens[0])
	}

	clk.Step(60 * time.Second)
	waitFor(t, "scheduled check", func() bool { return m.metrics.Value(MetricCheck) == 2 })
	settle()

	if svc.renewals() != 1 {
		t.Fatalf("renewed token should not renew again, got %d requests", svc.renewals())
	}
	if tok, _ := get(t, store, "access_token"); tok != "fresh" {
		t.Fatalf("expected fresh token, got %q", tok)
	}
}

func TestManualCheckRenewsWithoutStarting(t *testing.T) {
	store := storage.NewMemory()
	svc := &fakeService{
		renewResp: &endpoint.RenewResponse{AccessToken: "fresh", Exp: epoch.Unix() + 3600},
	}
	seed(t, store, "tok", epoch.Unix()+100)
	m, _ := newTestMonitor(t, svc, store)

	res := m.CheckAndMaybeRenew(context.Background())
	if res.Action != ActionRenewed || res.Remaining != 100*time.Second {
		t.Fatalf("unexpected result %+v", res)
	}
	if svc.renewals() != 1 {
		t.Fatalf("expected exactly 1 renewal, got %d", svc.renewals())
	}
	if m.State() != StateUninitialized {
		t.Fatalf("manual check must not start monitoring, got %v", m.State())
	}
}

func TestExpiredTokenIsClearedAndMonitoringStops(t *testing.T) {
	store := storage.NewMemory()
	svc := &fakeService{}
	seed(t, store, "tok", epoch.Unix()-5)
	m, clk := newTestMonitor(t, svc, store)

	res := m.Initialize(context.Background())
	if res.Action != ActionExpired || !res.OK() {
		t.Fatalf("expected expiry, got %v (%v)", res.Action, res.Err)
	}
	if _, ok := get(t, store, "access_token"); ok {
		t.Fatal("token should be deleted")
	}
	if _, ok := get(t, store, "jwt_expiry_time"); ok {
		t.Fatal("expiry should be deleted")
	}
	if m.State() != StateStopped {
		t.Fatalf("expected stopped, got %v", m.State())
	}

	clk.Step(60 * time.Second)
	clk.Step(60 * time.Second)
	settle()

	if got := m.metrics.Value(MetricCheck); got != 1 {
		t.Fatalf("expected no checks after expiry, got %d total", got)
	}
	if svc.checks()+svc.renewals() != 0 {
		t.Fatal("expired token must not reach the endpoints")
	}
	if got := m.metrics.Value(MetricTokenExpired); got != 1 {
		t.Fatalf("expected 1 expiry, got %d", got)
	}
}

func TestRenewalWithoutExpiryFetchesItFromCheckEndpoint(t *testing.T) {
	freshExp := epoch.Unix() + 3600
	var checkAuth atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token-renew", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "new123"})
	})
	mux.HandleFunc("/auth/token-check", func(w http.ResponseWriter, r *http.Request) {
		checkAuth.Store(r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]int64{"exp": freshExp})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.Endpoints.CheckURL = srv.URL + "/auth/token-check"
	cfg.Endpoints.RenewURL = srv.URL + "/auth/token-renew"

	store := storage.NewMemory()
	seed(t, store, "old", epoch.Unix()+100)
	m, err := New().WithConfig(cfg).WithStore(store).WithClock(testingclock.NewFakeClock(epoch)).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer m.Close()

	res := m.Renew(context.Background())
	if res.Action != ActionRenewed || !res.OK() {
		t.Fatalf("expected renewal, got %v (%v)", res.Action, res.Err)
	}
	if tok, _ := get(t, store, "access_token"); tok != "new123" {
		t.Fatalf("expected new123, got %q", tok)
	}
	if exp, _ := get(t, store, "jwt_expiry_time"); exp != strconv.FormatInt(freshExp, 10) {
		t.Fatalf("expected fresh expiry, got %q", exp)
	}
	if got, _ := checkAuth.Load().(string); got != "Bearer new123" {
		t.Fatalf("check endpoint saw %q", got)
	}
}

func TestRenewalFailureKeepsTokenAndTicker(t *testing.T) {
	var renewHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token-renew", func(w http.ResponseWriter, r *http.Request) {
		renewHits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.Endpoints.CheckURL = srv.URL + "/auth/token-check"
	cfg.Endpoints.RenewURL = srv.URL + "/auth/token-renew"
	cfg.Metrics.Enabled = true

	store := storage.NewMemory()
	seed(t, store, "old", epoch.Unix()+100)
	clk := testingclock.NewFakeClock(epoch)
	m, err := New().WithConfig(cfg).WithStore(store).WithClock(clk).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer m.Close()

	res := m.Initialize(context.Background())
	if res.Action != ActionRenewFailed {
		t.Fatalf("expected renew failure, got %v", res.Action)
	}
	if res.Kind() != KindEndpoint {
		t.Fatalf("expected endpoint failure, got %q", res.Kind())
	}
	var statusErr *endpoint.StatusError
	if !errors.As(res.Err, &statusErr) || statusErr.Code != http.StatusInternalServerError {
		t.Fatalf("expected StatusError 500, got %v", res.Err)
	}
	if tok, _ := get(t, store, "access_token"); tok != "old" {
		t.Fatalf("token changed to %q", tok)
	}
	if m.State() != StateMonitoring {
		t.Fatalf("expected monitoring, got %v", m.State())
	}

	clk.Step(60 * time.Second)
	waitFor(t, "second renewal attempt", func() bool { return renewHits.Load() == 2 })

	if got := m.metrics.Value(MetricRenewFailure); got < 1 {
		t.Fatalf("expected renew failures to be counted, got %d", got)
	}
}

func TestInitializeTwiceKeepsOneTicker(t *testing.T) {
	store := storage.NewMemory()
	seed(t, store, "tok", epoch.Unix()+600)
	m, clk := newTestMonitor(t, &fakeService{}, store)

	m.Initialize(context.Background())
	m.Initialize(context.Background())

	clk.Step(60 * time.Second)
	waitFor(t, "scheduled check", func() bool { return m.metrics.Value(MetricCheck) >= 3 })
	settle()

	if got := m.metrics.Value(MetricCheck); got != 3 {
		t.Fatalf("expected 2 immediate checks and 1 tick, got %d", got)
	}
}

func TestInitializeDecodesExpiryFromLocalToken(t *testing.T) {
	issuer, err := jwt.NewIssuer(jwt.IssuerConfig{
		TTL:           time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("test-secret"),
	})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	exp := epoch.Add(10 * time.Minute)
	token, err := issuer.IssueUntil("user-1", exp)
	if err != nil {
		t.Fatalf("IssueUntil: %v", err)
	}

	store := storage.NewMemory()
	seed(t, store, token, 0)
	svc := &fakeService{}
	m, _ := newTestMonitor(t, svc, store)

	res := m.Initialize(context.Background())
	if res.Action != ActionNone || res.Expiry != exp.Unix() {
		t.Fatalf("unexpected result %+v", res)
	}
	if svc.checks() != 0 {
		t.Fatalf("decodable token should not hit the check endpoint, got %d", svc.checks())
	}
	if got, _ := get(t, store, "jwt_expiry_time"); got != strconv.FormatInt(exp.Unix(), 10) {
		t.Fatalf("expected cached expiry, got %q", got)
	}
}

func TestInitializeAsksCheckEndpointForOpaqueToken(t *testing.T) {
	store := storage.NewMemory()
	seed(t, store, "opaque", 0)
	svc := &fakeService{
		checkResp: &endpoint.CheckResponse{Exp: epoch.Unix() + 900, RedirectTo: "/login"},
	}
	m, _ := newTestMonitor(t, svc, store)

	res := m.Initialize(context.Background())
	if res.Action != ActionNone || res.Expiry != epoch.Unix()+900 {
		t.Fatalf("unexpected result %+v", res)
	}
	if svc.checks() != 1 || svc.checkTokens[0] != "opaque" {
		t.Fatalf("expected one check with the cached token, got %v", svc.checkTokens)
	}
	if got := m.metrics.Value(MetricMalformedToken); got != 1 {
		t.Fatalf("expected malformed token to be counted, got %d", got)
	}
	if got := m.metrics.Value(MetricStatusRefreshSuccess); got != 1 {
		t.Fatalf("expected status refresh, got %d", got)
	}
}

func TestCheckEndpointFailureIsReported(t *testing.T) {
	store := storage.NewMemory()
	seed(t, store, "opaque", 0)
	svc := &fakeService{checkErr: &endpoint.StatusError{URL: "/auth/token-check", Code: http.StatusUnauthorized}}
	m, _ := newTestMonitor(t, svc, store)

	res := m.Initialize(context.Background())
	if res.Action != ActionStatusFailed || res.Kind() != KindEndpoint {
		t.Fatalf("unexpected result %v %q", res.Action, res.Kind())
	}
	if m.State() != StateMonitoring {
		t.Fatalf("a failed status check must keep monitoring, got %v", m.State())
	}
	if _, ok := get(t, store, "jwt_expiry_time"); ok {
		t.Fatal("no expiry should be cached")
	}
	if svc.checks() != 1 {
		t.Fatalf("expected one check request per Initialize, got %d", svc.checks())
	}
	if got := m.metrics.Value(MetricCheck); got != 1 {
		t.Fatalf("expected one check, got %d", got)
	}
}

func TestRenewWithoutTokenReportsMissingToken(t *testing.T) {
	svc := &fakeService{}
	m, _ := newTestMonitor(t, svc, storage.NewMemory())

	res := m.Renew(context.Background())
	if res.Action != ActionRenewFailed {
		t.Fatalf("expected renew failure, got %v", res.Action)
	}
	if !errors.Is(res.Err, ErrMissingToken) || res.Kind() != KindMissingToken {
		t.Fatalf("expected missing token, got %v", res.Err)
	}
	if svc.renewals() != 0 {
		t.Fatal("no request should be sent without a token")
	}
	if got := m.metrics.Value(MetricMissingToken); got != 1 {
		t.Fatalf("expected missing token count 1, got %d", got)
	}
	if got := m.metrics.Value(MetricRenewFailure); got != 0 {
		t.Fatalf("missing token is not a renewal failure, got %d", got)
	}
}

func TestRenewRejectsResponseWithoutToken(t *testing.T) {
	store := storage.NewMemory()
	seed(t, store, "tok", epoch.Unix()+100)
	svc := &fakeService{renewResp: &endpoint.RenewResponse{}}
	m, _ := newTestMonitor(t, svc, store)

	res := m.Renew(context.Background())
	if !errors.Is(res.Err, ErrMalformedResponse) {
		t.Fatalf("expected malformed response, got %v", res.Err)
	}
	if tok, _ := get(t, store, "access_token"); tok != "tok" {
		t.Fatalf("token changed to %q", tok)
	}
}

func TestLateRenewalAfterStopDoesNotRestart(t *testing.T) {
	store := storage.NewMemory()
	seed(t, store, "tok", epoch.Unix()+600)

	entered := make(chan struct{})
	release := make(chan struct{})
	svc := &fakeService{
		renewResp: &endpoint.RenewResponse{AccessToken: "late", Exp: epoch.Unix() + 3600},
		renewHook: func() {
			close(entered)
			<-release
		},
	}
	m, clk := newTestMonitor(t, svc, store)
	m.Initialize(context.Background())

	done := make(chan Result, 1)
	go func() { done <- m.Renew(context.Background()) }()

	<-entered
	m.Stop()
	close(release)
	res := <-done

	if res.Action != ActionRenewed {
		t.Fatalf("late renewal should still be stored, got %v (%v)", res.Action, res.Err)
	}
	if tok, _ := get(t, store, "access_token"); tok != "late" {
		t.Fatalf("expected late token, got %q", tok)
	}
	if m.State() != StateStopped {
		t.Fatalf("expected stopped, got %v", m.State())
	}

	checks := m.metrics.Value(MetricCheck)
	clk.Step(60 * time.Second)
	settle()
	if got := m.metrics.Value(MetricCheck); got != checks {
		t.Fatalf("stopped monitor ran %d more checks", got-checks)
	}
}

func TestContextCancelStopsMonitoring(t *testing.T) {
	store := storage.NewMemory()
	seed(t, store, "tok", epoch.Unix()+600)
	m, _ := newTestMonitor(t, &fakeService{}, store)

	ctx, cancel := context.WithCancel(context.Background())
	m.Initialize(ctx)
	cancel()

	waitFor(t, "stopped state", func() bool { return m.State() == StateStopped })
}

func TestStatusReportsTimeToExpire(t *testing.T) {
	store := storage.NewMemory()
	seed(t, store, "tok", epoch.Unix()+3723)
	m, _ := newTestMonitor(t, &fakeService{}, store)

	st, err := m.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State != StateUninitialized || !st.HasExpiry {
		t.Fatalf("unexpected status %+v", st)
	}
	if got := st.HumanTimeToExpire(); got != "1h 2m 3s" {
		t.Fatalf("expected 1h 2m 3s, got %q", got)
	}
}

func TestUnparsableExpiryIsRefetched(t *testing.T) {
	store := storage.NewMemory()
	seed(t, store, "opaque", 0)
	if err := store.Set(context.Background(), storage.Entry{Key: "jwt_expiry_time", Value: "soon"}); err != nil {
		t.Fatal(err)
	}
	svc := &fakeService{checkResp: &endpoint.CheckResponse{Exp: epoch.Unix() + 900}}
	m, _ := newTestMonitor(t, svc, store)

	res := m.CheckAndMaybeRenew(context.Background())
	if res.Action != ActionStatusRefreshed {
		t.Fatalf("expected status refresh, got %v", res.Action)
	}
	if svc.checks() != 1 {
		t.Fatalf("expected one check request, got %d", svc.checks())
	}
}

func TestFarFutureExpiryNeedsNoAction(t *testing.T) {
	const year3000 = 32503680000
	store := storage.NewMemory()
	svc := &fakeService{}
	seed(t, store, "tok", year3000)
	m, _ := newTestMonitor(t, svc, store)

	res := m.CheckAndMaybeRenew(context.Background())
	if res.Action != ActionNone || res.Expiry != year3000 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Remaining != math.MaxInt64 {
		t.Fatalf("expected remaining to saturate, got %v", res.Remaining)
	}
	if tok, ok := get(t, store, "access_token"); !ok || tok != "tok" {
		t.Fatalf("token must be kept, got %q ok=%v", tok, ok)
	}
	if svc.checks()+svc.renewals() != 0 {
		t.Fatal("expected no requests")
	}

	st, err := m.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.TimeToExpire <= 0 {
		t.Fatalf("expected positive time to expiry, got %v", st.TimeToExpire)
	}
}

func TestZeroExpiryIsTreatedAsExpired(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"exp":0}`))
	token := "Bearer h." + payload + ".s"

	t.Run("decoded from claims", func(t *testing.T) {
		store := storage.NewMemory()
		seed(t, store, token, 0)
		svc := &fakeService{}
		m, _ := newTestMonitor(t, svc, store)

		res := m.Initialize(context.Background())
		if res.Action != ActionExpired || res.Expiry != 0 {
			t.Fatalf("expected expiry, got %+v", res)
		}
		if _, ok := get(t, store, "access_token"); ok {
			t.Fatal("token should be deleted")
		}
		if m.State() != StateStopped {
			t.Fatalf("expected stopped, got %v", m.State())
		}
		if svc.checks() != 0 {
			t.Fatalf("decodable token should not hit the check endpoint, got %d", svc.checks())
		}
	})

	t.Run("cached", func(t *testing.T) {
		store := storage.NewMemory()
		err := store.Set(context.Background(),
			storage.Entry{Key: "access_token", Value: "opaque"},
			storage.Entry{Key: "jwt_expiry_time", Value: "-5"},
		)
		if err != nil {
			t.Fatal(err)
		}
		svc := &fakeService{}
		m, _ := newTestMonitor(t, svc, store)

		if res := m.CheckAndMaybeRenew(context.Background()); res.Action != ActionExpired {
			t.Fatalf("expected expiry, got %v", res.Action)
		}
		if svc.checks() != 0 {
			t.Fatalf("expected no check request, got %d", svc.checks())
		}
	})
}

type recordingStore struct {
	*storage.Memory
	mu     sync.Mutex
	writes []string
}

func (r *recordingStore) record(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, op)
}

func (r *recordingStore) Set(ctx context.Context, entries ...storage.Entry) error {
	r.record("set")
	return r.Memory.Set(ctx, entries...)
}

func (r *recordingStore) Delete(ctx context.Context, keys ...string) error {
	r.record("delete")
	return r.Memory.Delete(ctx, keys...)
}

func (r *recordingStore) Update(ctx context.Context, set []storage.Entry, del []string) error {
	r.record("update")
	return r.Memory.Update(ctx, set, del)
}

func TestRenewalWithUnknownExpiryWritesOnce(t *testing.T) {
	inner := storage.NewMemory()
	seed(t, inner, "old", epoch.Unix()+100)
	store := &recordingStore{Memory: inner}
	svc := &fakeService{
		renewResp: &endpoint.RenewResponse{AccessToken: "fresh"},
		checkErr:  endpoint.ErrNetwork,
	}
	m, _ := newTestMonitor(t, svc, store)

	res := m.Renew(context.Background())
	if res.Action != ActionRenewed || res.Expiry != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if tok, _ := get(t, store, "access_token"); tok != "fresh" {
		t.Fatalf("expected fresh token, got %q", tok)
	}
	if _, ok := get(t, store, "jwt_expiry_time"); ok {
		t.Fatal("stale expiry must not survive the renewal")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.writes) != 1 || store.writes[0] != "update" {
		t.Fatalf("expected a single update, got %v", store.writes)
	}
}

func TestRememberPage(t *testing.T) {
	m, _ := newTestMonitor(t, &fakeService{}, storage.NewMemory())
	ctx := context.Background()

	if _, ok, _ := m.LastPage(ctx); ok {
		t.Fatal("no page should be stored yet")
	}
	if err := m.RememberPage(ctx, "/courses/42"); err != nil {
		t.Fatalf("RememberPage: %v", err)
	}
	page, ok, err := m.LastPage(ctx)
	if err != nil || !ok || page != "/courses/42" {
		t.Fatalf("unexpected last page %q %v %v", page, ok, err)
	}
}

func TestBuilder(t *testing.T) {
	if _, err := New().Build(); !errors.Is(err, ErrNoTokenService) {
		t.Fatalf("expected ErrNoTokenService, got %v", err)
	}

	b := New().WithTokenService(&fakeService{})
	if _, err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := b.Build(); !errors.Is(err, ErrBuilderUsed) {
		t.Fatalf("expected ErrBuilderUsed, got %v", err)
	}

	cfg := DefaultConfig()
	cfg.CheckInterval = 0
	if _, err := New().WithConfig(cfg).WithTokenService(&fakeService{}).Build(); err == nil {
		t.Fatal("expected invalid config to be rejected")
	}
}
