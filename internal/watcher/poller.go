// Package watcher implements the headless watch-mode poller: it refreshes
// the node and registration-code lists on an interval, logs node state
// transitions, and feeds the watch Prometheus counters.
package watcher

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/AeroNyxNetwork/nodeboard/pkg/clients/aeronyx"
	"github.com/AeroNyxNetwork/nodeboard/pkg/config"
	"github.com/AeroNyxNetwork/nodeboard/pkg/datafetcher"
	"github.com/AeroNyxNetwork/nodeboard/pkg/logging"
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
	"github.com/AeroNyxNetwork/nodeboard/pkg/monitoring"
)

type Poller struct {
	fetcher  *datafetcher.Fetcher
	logger   logging.Logger
	interval time.Duration
	metrics  *monitoring.WatchMetrics

	// logEachPoll emits a summary line on every cycle, not just on
	// transitions. Useful as a liveness heartbeat in log pipelines.
	logEachPoll bool

	// lastSeen is only touched from the poll loop goroutine.
	lastSeen map[string]models.NodeState
}

func NewPoller(fetcher *datafetcher.Fetcher, logger logging.Logger, interval time.Duration, metrics *monitoring.WatchMetrics) *Poller {
	return &Poller{
		fetcher:     fetcher,
		logger:      logger,
		interval:    interval,
		metrics:     metrics,
		logEachPoll: config.GetEnvBool("NODEBOARD_WATCH_LOG_POLLS", false),
	}
}

func (p *Poller) Start(ctx context.Context) {
	p.logger.WithField("interval", p.interval.String()).Info("Starting watch poller")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Stopping watch poller")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	p.pollNodes(ctx)
	p.pollCodes(ctx)
}

func (p *Poller) pollNodes(ctx context.Context) {
	start := time.Now()
	resp, err := p.fetcher.RefreshNodes(ctx, "")
	p.metrics.PollDuration.WithLabelValues("nodes").Observe(time.Since(start).Seconds())
	if err != nil {
		p.recordError("nodes", err)
		return
	}
	p.metrics.PollCycles.WithLabelValues("nodes", "ok").Inc()

	current := make(map[string]models.NodeState, len(resp.Nodes))
	for _, n := range resp.Nodes {
		current[n.ID] = n.Status
	}
	counts := p.gaugeStates(current)
	if p.logEachPoll {
		p.logger.WithFields(logging.Fields{
			"total":   len(current),
			"online":  counts[models.NodeOnline],
			"offline": counts[models.NodeOffline],
		}).Info("Polled nodes")
	}

	// First poll establishes the baseline; transitions start counting
	// from the second cycle.
	if p.lastSeen != nil {
		for _, tr := range Transitions(p.lastSeen, current) {
			p.metrics.NodeTransitions.WithLabelValues(string(tr.From), string(tr.To)).Inc()
			p.logger.WithFields(logging.Fields{
				"node": tr.NodeID,
				"from": tr.From,
				"to":   tr.To,
			}).Info("Node state changed")
		}
	}
	p.lastSeen = current
}

// gaugeStates publishes per-state node counts and returns them. Known
// states are always set, zeros included, so a state emptying out reads
// as 0 rather than holding its last value.
func (p *Poller) gaugeStates(current map[string]models.NodeState) map[models.NodeState]int {
	counts := map[models.NodeState]int{
		models.NodeOnline:    0,
		models.NodeOffline:   0,
		models.NodeSuspended: 0,
	}
	for _, state := range current {
		counts[state]++
	}
	for state, n := range counts {
		p.metrics.NodesByState.WithLabelValues(string(state)).Set(float64(n))
	}
	return counts
}

func (p *Poller) pollCodes(ctx context.Context) {
	start := time.Now()
	resp, err := p.fetcher.RefreshCodes(ctx, true)
	p.metrics.PollDuration.WithLabelValues("codes").Observe(time.Since(start).Seconds())
	if err != nil {
		p.recordError("codes", err)
		return
	}
	p.metrics.PollCycles.WithLabelValues("codes", "ok").Inc()
	p.logger.WithField("count", resp.Total).Debug("Refreshed registration codes")
}

func (p *Poller) recordError(resource string, err error) {
	p.metrics.PollCycles.WithLabelValues(resource, "error").Inc()
	p.metrics.APIErrors.WithLabelValues(ErrorKind(err)).Inc()
	p.logger.WithError(err).WithField("resource", resource).Error("Poll failed")
}

// Transition is one observed node state change between two polls.
// Nodes appearing for the first time transition from StateNew; nodes
// that dropped out of the list transition to StateGone, so deletions
// still show up in the counters.
type Transition struct {
	NodeID string
	From   models.NodeState
	To     models.NodeState
}

const (
	StateNew  models.NodeState = "new"
	StateGone models.NodeState = "gone"
)

// Transitions diffs two poll snapshots, ordered by node ID for stable
// logging.
func Transitions(prev, curr map[string]models.NodeState) []Transition {
	var out []Transition
	for id, now := range curr {
		before, ok := prev[id]
		if !ok {
			out = append(out, Transition{NodeID: id, From: StateNew, To: now})
			continue
		}
		if before != now {
			out = append(out, Transition{NodeID: id, From: before, To: now})
		}
	}
	for id, before := range prev {
		if _, ok := curr[id]; !ok {
			out = append(out, Transition{NodeID: id, From: before, To: StateGone})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

// ErrorKind buckets a poll failure for the api_errors_total counter.
func ErrorKind(err error) string {
	if errors.Is(err, aeronyx.ErrSessionExpired) {
		return "session_expired"
	}
	var netErr *aeronyx.NetworkError
	if errors.As(err, &netErr) {
		return "network"
	}
	var apiErr *aeronyx.APIError
	if errors.As(err, &apiErr) {
		return "api"
	}
	return "other"
}
