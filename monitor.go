package goAuthMonitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/MrEthical07/goAuthMonitor/endpoint"
	"github.com/MrEthical07/goAuthMonitor/jwt"
	"github.com/MrEthical07/goAuthMonitor/storage"
)

// TokenService is the remote side of the monitor. [endpoint.Client] is the HTTP
// implementation.
type TokenService interface {
	Check(ctx context.Context, token string) (*endpoint.CheckResponse, error)
	Renew(ctx context.Context, token string) (*endpoint.RenewResponse, error)
}

// Monitor keeps a cached access token alive. It polls the cached expiry every
// CheckInterval, renews once less than RenewThreshold remains and discards the token
// once it has expired.
//
// Construct one with [New]. All methods are safe for concurrent use.
type Monitor struct {
	cfg     Config
	store   storage.Store
	service TokenService
	clock   clock.WithTicker
	log     logr.Logger
	events  *eventDispatcher
	metrics *Metrics

	// mu serialises read-modify-write of the cached token and expiry. It is never held
	// across a token endpoint call.
	mu sync.Mutex

	loopMu sync.Mutex
	loop   *loop
	state  State
}

// loop is one generation of the recurring check.
type loop struct {
	ctx      context.Context
	ticker   clock.Ticker
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func (l *loop) halt() {
	l.stopOnce.Do(func() {
		l.ticker.Stop()
		close(l.stop)
	})
}

// Initialize derives the expiry when none is cached, (re)starts the check loop and
// runs one check immediately. A loop started by an earlier call is stopped first, so
// at most one loop is ever active. ctx bounds the lifetime of the loop.
func (m *Monitor) Initialize(ctx context.Context) Result {
	var refreshed *Result
	if _, ok, err := m.cachedExpiry(ctx); err != nil {
		m.log.Error(err, "reading cached expiry failed", "kind", Classify(err))
	} else if !ok {
		res := m.refreshStatus(ctx)
		refreshed = &res
	}

	l := m.start(ctx)
	m.emit(ctx, MonitorEvent{Type: EventInitialized}, nil)
	m.log.V(1).Info("token monitor started", "interval", m.cfg.CheckInterval, "threshold", m.cfg.RenewThreshold)

	// A refresh that just failed stands in for the immediate check; the first tick
	// retries it.
	if refreshed != nil && refreshed.Err != nil {
		m.metrics.Inc(MetricCheck)
		return *refreshed
	}
	return m.check(ctx, l)
}

// CheckAndMaybeRenew runs one check outside the schedule.
func (m *Monitor) CheckAndMaybeRenew(ctx context.Context) Result {
	return m.check(ctx, nil)
}

// Renew exchanges the cached token for a new one. On failure the cached token is left
// untouched and the schedule is not reset. A success that arrives after monitoring
// stopped is still stored but does not restart the loop.
func (m *Monitor) Renew(ctx context.Context) Result {
	token, ok, err := m.cachedToken(ctx)
	if err != nil {
		return m.renewFailed(ctx, err)
	}
	if !ok {
		m.metrics.Inc(MetricMissingToken)
		return m.renewFailed(ctx, ErrMissingToken)
	}

	m.metrics.Inc(MetricRenewAttempt)
	start := m.clock.Now()
	resp, err := m.service.Renew(ctx, token)
	m.metrics.Observe(MetricRenewLatency, m.clock.Since(start))
	if err == nil && (resp == nil || resp.AccessToken == "") {
		err = fmt.Errorf("%w: access_token missing", ErrMalformedResponse)
	}
	if err != nil {
		return m.renewFailed(ctx, err)
	}

	next := resp.AccessToken
	exp, known := resp.Exp, resp.Exp != 0
	if !known {
		if exp, err = m.expiryFor(ctx, next); err != nil {
			m.log.Error(err, "no expiry for renewed token; next check will fetch it", "kind", Classify(err))
			exp = 0
		} else {
			known = true
		}
	}

	if err := m.storeRenewed(ctx, next, exp, known); err != nil {
		return m.renewFailed(ctx, err)
	}

	m.metrics.Inc(MetricRenewSuccess)
	m.log.Info("access token renewed", "expiry", exp)
	m.emit(ctx, MonitorEvent{Type: EventRenewed, Expiry: exp}, nil)
	m.restart()

	return Result{Action: ActionRenewed, Expiry: exp}
}

// Stop cancels the check loop. In-flight requests are not cancelled.
func (m *Monitor) Stop() {
	if m.halt(nil) {
		m.log.V(1).Info("token monitor stopped")
		m.emit(context.Background(), MonitorEvent{Type: EventStopped}, nil)
	}
}

// Close stops the loop, waits for its goroutine and flushes pending events.
func (m *Monitor) Close() {
	m.loopMu.Lock()
	l := m.loop
	m.loopMu.Unlock()

	m.Stop()
	if l != nil {
		<-l.done
	}
	m.events.Close()
}

// State returns the lifecycle state.
func (m *Monitor) State() State {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()
	return m.state
}

// Status reports the state together with the cached expiry.
func (m *Monitor) Status(ctx context.Context) (Status, error) {
	st := Status{State: m.State()}
	exp, ok, err := m.cachedExpiry(ctx)
	if err != nil {
		return st, err
	}
	if ok {
		st.HasExpiry = true
		st.Expiry = exp
		st.TimeToExpire = remainingUntil(exp, m.clock.Now().Unix())
	}
	return st, nil
}

// Token returns the cached access token.
func (m *Monitor) Token(ctx context.Context) (string, bool, error) {
	return m.cachedToken(ctx)
}

// RememberPage records the page the user was on so a login flow can send them back.
func (m *Monitor) RememberPage(ctx context.Context, pageURL string) error {
	return m.store.Set(ctx, storage.Entry{Key: m.cfg.Keys.LastPage, Value: pageURL})
}

// LastPage returns the page stored by [Monitor.RememberPage].
func (m *Monitor) LastPage(ctx context.Context) (string, bool, error) {
	return m.store.Get(ctx, m.cfg.Keys.LastPage)
}

// MetricsSnapshot returns the current counters.
func (m *Monitor) MetricsSnapshot() MetricsSnapshot {
	return m.metrics.Snapshot()
}

// EventsDropped returns how many events were dropped due to a full buffer.
func (m *Monitor) EventsDropped() uint64 {
	return m.events.Dropped()
}

func (m *Monitor) check(ctx context.Context, l *loop) Result {
	m.metrics.Inc(MetricCheck)

	expiry, ok, err := m.cachedExpiry(ctx)
	if err != nil {
		m.log.Error(err, "reading cached expiry failed", "kind", Classify(err))
		return Result{Action: ActionStatusFailed, Err: err}
	}
	if !ok {
		return m.refreshStatus(ctx)
	}

	remaining := remainingUntil(expiry, m.clock.Now().Unix())
	switch {
	case remaining >= m.cfg.RenewThreshold:
		m.log.V(2).Info("token valid", "remaining", remaining)
		return Result{Action: ActionNone, Expiry: expiry, Remaining: remaining}
	case remaining > 0:
		m.log.V(1).Info("token close to expiry, renewing", "remaining", remaining)
		res := m.Renew(ctx)
		res.Remaining = remaining
		if res.Expiry == 0 && res.Err != nil {
			res.Expiry = expiry
		}
		return res
	default:
		return m.expire(ctx, l, expiry, remaining)
	}
}

// refreshStatus derives and caches an expiry for the cached token.
func (m *Monitor) refreshStatus(ctx context.Context) Result {
	token, _, err := m.cachedToken(ctx)
	if err != nil {
		return m.statusFailed(ctx, err)
	}

	exp, err := m.expiryFor(ctx, token)
	if err != nil {
		return m.statusFailed(ctx, err)
	}

	stored, err := m.storeExpiryFor(ctx, token, exp)
	if err != nil {
		return m.statusFailed(ctx, err)
	}
	if !stored {
		m.log.V(1).Info("token replaced while its status was fetched; discarding stale expiry")
		return Result{Action: ActionNone}
	}

	m.metrics.Inc(MetricStatusRefreshSuccess)
	m.emit(ctx, MonitorEvent{Type: EventStatusRefreshed, Expiry: exp}, nil)
	return Result{Action: ActionStatusRefreshed, Expiry: exp}
}

// expiryFor reads token's expiry from its claims, falling back to the check endpoint.
func (m *Monitor) expiryFor(ctx context.Context, token string) (int64, error) {
	if token != "" {
		exp, err := jwt.DecodeExpiry(jwt.WithScheme(token))
		if err == nil {
			return exp, nil
		}
		m.metrics.Inc(MetricMalformedToken)
		m.log.Info("token claims not decodable, asking check endpoint", "err", err.Error())
	}

	resp, err := m.service.Check(ctx, token)
	if err != nil {
		return 0, err
	}
	if resp == nil {
		return 0, ErrNoExpiry
	}
	if resp.RedirectTo != "" {
		m.log.V(1).Info("check endpoint returned redirect", "redirectTo", resp.RedirectTo)
	}
	return resp.Exp, nil
}

func (m *Monitor) expire(ctx context.Context, l *loop, expiry int64, remaining time.Duration) Result {
	m.mu.Lock()
	current, ok, err := m.readExpiryLocked(ctx)
	if err == nil && (!ok || current != expiry) {
		m.mu.Unlock()
		m.log.V(1).Info("expiry changed during check; leaving decision to the next tick")
		return Result{Action: ActionNone, Expiry: current}
	}
	if err == nil {
		err = m.store.Delete(ctx, m.cfg.Keys.AccessToken, m.cfg.Keys.Expiry)
	}
	m.mu.Unlock()

	if err != nil {
		m.log.Error(err, "discarding expired token failed", "kind", Classify(err))
	}

	m.halt(l)
	m.metrics.Inc(MetricTokenExpired)
	m.log.Info("access token expired; monitoring stopped", "expiry", expiry)

	m.emit(ctx, MonitorEvent{Type: EventExpired, Expiry: expiry}, err)

	return Result{Action: ActionExpired, Expiry: expiry, Remaining: remaining, Err: err}
}

func (m *Monitor) renewFailed(ctx context.Context, err error) Result {
	if !errors.Is(err, ErrMissingToken) {
		m.metrics.Inc(MetricRenewFailure)
	}
	m.log.Error(err, "token renewal failed", "kind", Classify(err))
	m.emit(ctx, MonitorEvent{Type: EventRenewFailed}, err)
	return Result{Action: ActionRenewFailed, Err: err}
}

func (m *Monitor) statusFailed(ctx context.Context, err error) Result {
	m.metrics.Inc(MetricStatusRefreshFailure)
	m.log.Error(err, "token status check failed", "kind", Classify(err))
	m.emit(ctx, MonitorEvent{Type: EventCheckFailed}, err)
	return Result{Action: ActionStatusFailed, Err: err}
}

/*
====================================
LOOP
====================================
*/

func (m *Monitor) start(ctx context.Context) *loop {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()
	return m.startLocked(ctx)
}

func (m *Monitor) startLocked(ctx context.Context) *loop {
	if m.loop != nil {
		m.loop.halt()
	}
	l := &loop{
		ctx:    ctx,
		ticker: m.clock.NewTicker(m.cfg.CheckInterval),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	m.loop = l
	m.state = StateMonitoring
	go m.run(l)
	return l
}

func (m *Monitor) run(l *loop) {
	defer close(l.done)
	for {
		select {
		case <-l.stop:
			return
		case <-l.ctx.Done():
			m.halt(l)
			return
		case <-l.ticker.C():
			select {
			case <-l.stop:
				return
			default:
			}
			m.check(l.ctx, l)
		}
	}
}

// restart resets the schedule after a renewal. A stopped monitor stays stopped.
func (m *Monitor) restart() {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()
	if m.state != StateMonitoring || m.loop == nil {
		return
	}
	m.startLocked(m.loop.ctx)
}

// halt stops l if it is still the active loop; a nil l stops whichever loop is
// active. It reports whether a loop was stopped.
func (m *Monitor) halt(l *loop) bool {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()
	if l != nil && m.loop != l {
		return false
	}
	stopped := m.loop != nil
	if stopped {
		m.loop.halt()
		m.loop = nil
	}
	if m.state != StateUninitialized || stopped {
		m.state = StateStopped
	}
	return stopped
}

/*
====================================
CACHED STATE
====================================
*/

func (m *Monitor) cachedExpiry(ctx context.Context) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readExpiryLocked(ctx)
}

func (m *Monitor) readExpiryLocked(ctx context.Context) (int64, bool, error) {
	raw, ok, err := m.store.Get(ctx, m.cfg.Keys.Expiry)
	if err != nil || !ok {
		return 0, false, err
	}
	exp, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		m.log.Info("ignoring unparsable cached expiry", "value", raw)
		return 0, false, nil
	}
	return exp, true, nil
}

func (m *Monitor) cachedToken(ctx context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readTokenLocked(ctx)
}

func (m *Monitor) readTokenLocked(ctx context.Context) (string, bool, error) {
	token, ok, err := m.store.Get(ctx, m.cfg.Keys.AccessToken)
	if err != nil {
		return "", false, err
	}
	if !ok || strings.TrimSpace(jwt.StripScheme(token)) == "" {
		return "", false, nil
	}
	return token, true, nil
}

// storeExpiryFor caches exp only if token is still the cached token.
func (m *Monitor) storeExpiryFor(ctx context.Context, token string, exp int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, _, err := m.readTokenLocked(ctx)
	if err != nil {
		return false, err
	}
	if current != token {
		return false, nil
	}
	return true, m.store.Set(ctx, storage.Entry{Key: m.cfg.Keys.Expiry, Value: strconv.FormatInt(exp, 10)})
}

// storeRenewed replaces token and expiry in one store update. Without a known expiry
// the expiry key is cleared in the same update so the next check fetches it.
func (m *Monitor) storeRenewed(ctx context.Context, token string, exp int64, known bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := []storage.Entry{{Key: m.cfg.Keys.AccessToken, Value: token}}
	if known {
		set = append(set, storage.Entry{Key: m.cfg.Keys.Expiry, Value: strconv.FormatInt(exp, 10)})
		return m.store.Update(ctx, set, nil)
	}
	return m.store.Update(ctx, set, []string{m.cfg.Keys.Expiry})
}

func (m *Monitor) emit(ctx context.Context, ev MonitorEvent, cause error) {
	m.events.Emit(ctx, ev, cause)
}

// remainingUntil is the time from now to expiry, both in epoch seconds, saturated to
// the range of time.Duration.
func remainingUntil(expiry, now int64) time.Duration {
	const limit = math.MaxInt64 / int64(time.Second)
	diff := expiry - now
	switch {
	case expiry > now && (diff < 0 || diff > limit):
		return math.MaxInt64
	case expiry < now && (diff > 0 || diff < -limit):
		return math.MinInt64
	}
	return time.Duration(diff) * time.Second
}
