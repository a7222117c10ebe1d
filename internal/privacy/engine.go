package privacy

import (
	"net/url"
	"sync"
	"time"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/events"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/infrastructure/monitoring"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/logging"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/privacy/hostmatch"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/paths"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/types"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/store"
	"go.uber.org/zap"
)

// statsDebounce is the delay that coalesces bursts of counter
// increments into a single stats broadcast.
const statsDebounce = 250 * time.Millisecond

// trackableResources are the resource types subject to tracker
// blocking. Main-document navigations are deliberately absent: a
// top-level visit to a tracker domain is never cancelled.
var trackableResources = map[types.ResourceType]bool{
	types.ResourceSubFrame:   true,
	types.ResourceScript:     true,
	types.ResourceImage:      true,
	types.ResourceStylesheet: true,
	types.ResourceXHR:        true,
	types.ResourceFetch:      true,
	types.ResourcePing:       true,
	types.ResourceMedia:      true,
	types.ResourceFont:       true,
	types.ResourceObject:     true,
	types.ResourceWebSocket:  true,
}

// ClearHook lets the hosting shell clear stores the core does not own
// (webview cookies, cache, site storage). Best effort.
type ClearHook func(scope types.ClearDataScope) error

// Engine owns the privacy configuration and statistics and answers
// per-request policy questions for the transport layer.
type Engine struct {
	storage *store.Store
	layout  paths.Layout
	bus     *events.Bus
	log     *logging.Logger
	metrics *monitoring.Metrics

	clearHook ClearHook

	mu    sync.RWMutex
	cfg   types.PrivacyConfig
	stats types.PrivacyStats

	statsMu    sync.Mutex
	statsTimer *time.Timer
}

// NewEngine loads the persisted privacy configuration (merged with
// defaults) and starts a fresh statistics session.
func NewEngine(storage *store.Store, layout paths.Layout, bus *events.Bus, log *logging.Logger, metrics *monitoring.Metrics) *Engine {
	e := &Engine{
		storage: storage,
		layout:  layout,
		bus:     bus,
		log:     log,
		metrics: metrics,
		cfg:     types.DefaultPrivacyConfig(),
		stats:   types.PrivacyStats{StartedAt: time.Now()},
	}

	var patch types.PrivacyConfigPatch
	if storage.Load(paths.PrivacyConfigFile, &patch) {
		e.cfg = patch.ApplyTo(e.cfg)
	}
	return e
}

// SetClearHook installs the shell's collaborator for clearing
// webview-owned stores.
func (e *Engine) SetClearHook(hook ClearHook) {
	e.mu.Lock()
	e.clearHook = hook
	e.mu.Unlock()
}

// Config returns the current configuration snapshot.
func (e *Engine) Config() types.PrivacyConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// Stats returns the current statistics snapshot.
func (e *Engine) Stats() types.PrivacyStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// PatchConfig applies a partial update, persists the full snapshot,
// broadcasts it, and returns it.
func (e *Engine) PatchConfig(patch types.PrivacyConfigPatch) types.PrivacyConfig {
	e.mu.Lock()
	e.cfg = patch.ApplyTo(e.cfg)
	cfg := e.cfg
	e.mu.Unlock()

	e.storage.Save(paths.PrivacyConfigFile, cfg)
	e.bus.Publish(events.TopicPrivacyConfig, cfg)
	return cfg
}

// Decide evaluates one outbound request before it is sent. Blocking
// takes precedence over upgrading; any uncertainty yields pass.
func (e *Engine) Decide(req types.InterceptRequest) types.Decision {
	cfg := e.Config()

	u, err := url.Parse(req.URL)
	if err != nil || u.Hostname() == "" {
		return types.Decision{Verdict: types.VerdictPass}
	}
	host := u.Hostname()

	if cfg.BlockTrackers && trackableResources[req.ResourceType] && hostmatch.MatchesTrackerHost(host) {
		// An unknown initiator is treated as third-party: embedded
		// tracker loads routinely arrive without one.
		thirdParty := req.Initiator == "" || hostmatch.IsThirdParty(req.URL, req.Initiator)
		if thirdParty {
			e.bump(func(s *types.PrivacyStats) { s.BlockedRequests++ })
			e.metrics.RecordDecision(string(types.VerdictCancel))
			e.log.Debug("blocked tracker request", zap.String("host", host))
			return types.Decision{Verdict: types.VerdictCancel}
		}
	}

	if cfg.UpgradeHTTPS && u.Scheme == "http" && !hostmatch.IsUpgradeExempt(host) {
		upgraded := *u
		upgraded.Scheme = "https"
		if target := upgraded.String(); target != req.URL {
			e.bump(func(s *types.PrivacyStats) { s.UpgradedToHTTPS++ })
			e.metrics.RecordDecision(string(types.VerdictRedirect))
			return types.Decision{Verdict: types.VerdictRedirect, RedirectURL: target}
		}
	}

	e.metrics.RecordDecision(string(types.VerdictPass))
	return types.Decision{Verdict: types.VerdictPass}
}

// MutateHeaders applies the configured header policy to one request
// and returns the resulting header set. Header names are matched
// case-insensitively.
func (e *Engine) MutateHeaders(req types.InterceptRequest) map[string][]string {
	cfg := e.Config()
	headers := cloneHeaders(req.Headers)

	if cfg.SendDoNotTrack {
		setHeader(headers, "DNT", "1")
	} else {
		removeHeader(headers, "DNT")
	}

	if cfg.SendGlobalPrivacyControl {
		setHeader(headers, "Sec-GPC", "1")
	} else {
		removeHeader(headers, "Sec-GPC")
	}

	thirdParty := hostmatch.IsThirdParty(req.URL, req.Initiator)

	if cfg.BlockThirdPartyCookies && thirdParty && hasHeader(headers, "Cookie") {
		removeHeader(headers, "Cookie")
		e.bump(func(s *types.PrivacyStats) { s.StrippedCookieHeaders++ })
		e.metrics.RecordStrippedHeader("cookie")
	}

	if cfg.StripThirdPartyReferer && thirdParty && hasHeader(headers, "Referer") {
		removeHeader(headers, "Referer")
		e.bump(func(s *types.PrivacyStats) { s.StrippedRefererHeader++ })
		e.metrics.RecordStrippedHeader("referer")
	}

	return headers
}

// ClearData clears browsing state for the given scope. The core
// removes the documents it owns and hands webview-owned stores to the
// shell's hook. Best effort throughout.
func (e *Engine) ClearData(scope types.ClearDataScope) error {
	if !types.ValidClearScope(scope) {
		return errUnknownScope(scope)
	}

	if scope == types.ClearHistory || scope == types.ClearAll {
		e.storage.Remove(paths.HistoryFile)
	}
	if scope == types.ClearDownloads || scope == types.ClearAll {
		e.storage.Remove(paths.DownloadsFile)
	}

	e.mu.RLock()
	hook := e.clearHook
	e.mu.RUnlock()
	if hook != nil {
		if err := hook(scope); err != nil {
			e.log.Warn("shell clear hook failed",
				zap.String("scope", string(scope)), zap.Error(err))
		}
	}

	if scope == types.ClearAll {
		e.resetStats()
	}
	return nil
}

// resetStats starts a fresh statistics session and broadcasts it.
func (e *Engine) resetStats() {
	e.mu.Lock()
	e.stats = types.PrivacyStats{StartedAt: time.Now()}
	stats := e.stats
	e.mu.Unlock()
	e.bus.Publish(events.TopicPrivacyStats, stats)
}

// bump applies one counter increment and schedules the debounced
// stats broadcast.
func (e *Engine) bump(apply func(*types.PrivacyStats)) {
	e.mu.Lock()
	apply(&e.stats)
	e.mu.Unlock()
	e.scheduleStatsBroadcast()
}

// scheduleStatsBroadcast collapses bursts of increments into a single
// push after a short fixed delay.
func (e *Engine) scheduleStatsBroadcast() {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	if e.statsTimer != nil {
		return
	}
	e.statsTimer = time.AfterFunc(statsDebounce, func() {
		e.statsMu.Lock()
		e.statsTimer = nil
		e.statsMu.Unlock()
		e.bus.Publish(events.TopicPrivacyStats, e.Stats())
	})
}

func cloneHeaders(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in)+2)
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}
