// Package datafetcher is the cached read layer between the terminal
// front-ends and the AeroNyx API. Each resource family gets its own
// cache with its own TTL; reads go through the cache, Refresh variants
// force a reload, and mutations invalidate exactly the key families
// they can affect.
package datafetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	api "github.com/AeroNyxNetwork/nodeboard/pkg/api/aeronyx"
	"github.com/AeroNyxNetwork/nodeboard/pkg/cache"
	"github.com/AeroNyxNetwork/nodeboard/pkg/config"
	"github.com/AeroNyxNetwork/nodeboard/pkg/logging"
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

// Resource identifies one cached family of API reads.
type Resource string

const (
	// ResourceNodeList caches the node list per status filter.
	ResourceNodeList Resource = "node_list"
	// ResourceNodeDetail caches single-node detail lookups.
	ResourceNodeDetail Resource = "node_detail"
	// ResourceNodeStats caches per-node aggregate stats.
	ResourceNodeStats Resource = "node_stats"
	// ResourceNodeSessions caches per-node session listings.
	ResourceNodeSessions Resource = "node_sessions"
	// ResourceCodes caches the registration-code list.
	ResourceCodes Resource = "codes"
)

// API is the subset of the aeronyx client the fetcher drives.
type API interface {
	GetNodes(ctx context.Context, q api.NodesQuery) (*api.NodesResponse, error)
	GetNodeDetail(ctx context.Context, nodeID string) (*models.NodeDetail, error)
	GetNodeStats(ctx context.Context, nodeID string, days int) (*models.NodeStats, error)
	GetNodeSessions(ctx context.Context, nodeID string, q api.SessionsQuery) (*api.SessionsResponse, error)
	GetRegistrationCodes(ctx context.Context, includeExpired bool) (*api.CodesResponse, error)
	UpdateNode(ctx context.Context, nodeID string, req api.UpdateNodeRequest) (*models.Node, error)
	DeleteNode(ctx context.Context, nodeID string) error
	GenerateRegistrationCode(ctx context.Context) (*models.RegistrationCode, error)
	RevokeRegistrationCode(ctx context.Context, code string) error
}

// Config controls Fetcher construction.
type Config struct {
	API    API
	Logger logging.Logger
	// Caches maps each resource family to its cache. Families with no
	// cache fall through to direct API calls.
	Caches map[Resource]*cache.Cache
}

// Fetcher coordinates cached reads and invalidating mutations.
type Fetcher struct {
	api    API
	logger logging.Logger
	caches map[Resource]*cache.Cache
}

// New creates a Fetcher with the provided configuration.
func New(cfg Config) *Fetcher {
	caches := make(map[Resource]*cache.Cache)
	for res, c := range cfg.Caches {
		if c != nil {
			caches[res] = c
		}
	}
	return &Fetcher{api: cfg.API, logger: cfg.Logger, caches: caches}
}

// DefaultCaches builds the per-family caches with env-tunable TTLs.
// Entry counts stay tiny for a single-operator client, so the caps are
// generous.
func DefaultCaches(hooks cache.MetricsHooks) map[Resource]*cache.Cache {
	build := func(envPrefix string, ttl, swr, neg int) *cache.Cache {
		opts := cache.Options{
			TTL:                  time.Duration(config.GetEnvInt(envPrefix+"_TTL_SECONDS", ttl)) * time.Second,
			StaleWhileRevalidate: time.Duration(config.GetEnvInt(envPrefix+"_SWR_SECONDS", swr)) * time.Second,
			NegativeTTL:          time.Duration(config.GetEnvInt(envPrefix+"_NEG_TTL_SECONDS", neg)) * time.Second,
			MaxEntries:           config.GetEnvInt(envPrefix+"_CACHE_MAX", 1000),
		}
		return cache.New(opts, hooks)
	}
	return map[Resource]*cache.Cache{
		ResourceNodeList:     build("NODEBOARD_NODES", 30, 30, 5),
		ResourceNodeDetail:   build("NODEBOARD_NODE_DETAIL", 60, 30, 5),
		ResourceNodeStats:    build("NODEBOARD_NODE_STATS", 120, 60, 5),
		ResourceNodeSessions: build("NODEBOARD_SESSIONS", 30, 15, 5),
		ResourceCodes:        build("NODEBOARD_CODES", 30, 15, 5),
	}
}

// Nodes lists the operator's nodes, optionally filtered by state.
func (f *Fetcher) Nodes(ctx context.Context, status models.NodeState) (*api.NodesResponse, error) {
	key := buildKey("nodes", "list", string(status))
	v, err := f.cached(ctx, ResourceNodeList, key, func(ctx context.Context) (interface{}, error) {
		return f.api.GetNodes(ctx, api.NodesQuery{Status: status})
	})
	if err != nil {
		return nil, err
	}
	return v.(*api.NodesResponse), nil
}

// RefreshNodes drops the cached list first so the read pulls fresh data.
func (f *Fetcher) RefreshNodes(ctx context.Context, status models.NodeState) (*api.NodesResponse, error) {
	f.drop(ResourceNodeList, buildKey("nodes", "list", string(status)))
	return f.Nodes(ctx, status)
}

// Node fetches one node with its detail-only fields.
func (f *Fetcher) Node(ctx context.Context, nodeID string) (*models.NodeDetail, error) {
	key := buildKey("nodes", "detail", nodeID)
	v, err := f.cached(ctx, ResourceNodeDetail, key, func(ctx context.Context) (interface{}, error) {
		return f.api.GetNodeDetail(ctx, nodeID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.NodeDetail), nil
}

// RefreshNode forces a fresh detail fetch.
func (f *Fetcher) RefreshNode(ctx context.Context, nodeID string) (*models.NodeDetail, error) {
	f.drop(ResourceNodeDetail, buildKey("nodes", "detail", nodeID))
	return f.Node(ctx, nodeID)
}

// NodeStats fetches aggregate stats for a node over a trailing window.
func (f *Fetcher) NodeStats(ctx context.Context, nodeID string, days int) (*models.NodeStats, error) {
	key := buildKey("nodes", "stats", nodeID, fmt.Sprintf("%d", days))
	v, err := f.cached(ctx, ResourceNodeStats, key, func(ctx context.Context) (interface{}, error) {
		return f.api.GetNodeStats(ctx, nodeID, days)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.NodeStats), nil
}

// NodeSessions lists client sessions served by a node.
func (f *Fetcher) NodeSessions(ctx context.Context, nodeID string, q api.SessionsQuery) (*api.SessionsResponse, error) {
	key := buildKey("nodes", "sessions", nodeID, string(q.Status), fmt.Sprintf("%d", q.Limit))
	v, err := f.cached(ctx, ResourceNodeSessions, key, func(ctx context.Context) (interface{}, error) {
		return f.api.GetNodeSessions(ctx, nodeID, q)
	})
	if err != nil {
		return nil, err
	}
	return v.(*api.SessionsResponse), nil
}

// RefreshNodeSessions forces a fresh session listing.
func (f *Fetcher) RefreshNodeSessions(ctx context.Context, nodeID string, q api.SessionsQuery) (*api.SessionsResponse, error) {
	f.drop(ResourceNodeSessions, buildKey("nodes", "sessions", nodeID, string(q.Status), fmt.Sprintf("%d", q.Limit)))
	return f.NodeSessions(ctx, nodeID, q)
}

// Codes lists the operator's registration codes.
func (f *Fetcher) Codes(ctx context.Context, includeExpired bool) (*api.CodesResponse, error) {
	key := buildKey("codes", "list", fmt.Sprintf("%t", includeExpired))
	v, err := f.cached(ctx, ResourceCodes, key, func(ctx context.Context) (interface{}, error) {
		return f.api.GetRegistrationCodes(ctx, includeExpired)
	})
	if err != nil {
		return nil, err
	}
	return v.(*api.CodesResponse), nil
}

// RefreshCodes forces a fresh code listing.
func (f *Fetcher) RefreshCodes(ctx context.Context, includeExpired bool) (*api.CodesResponse, error) {
	f.drop(ResourceCodes, buildKey("codes", "list", fmt.Sprintf("%t", includeExpired)))
	return f.Codes(ctx, includeExpired)
}

// UpdateNode changes a node's mutable fields and invalidates the list
// and that node's detail entry.
func (f *Fetcher) UpdateNode(ctx context.Context, nodeID string, req api.UpdateNodeRequest) (*models.Node, error) {
	node, err := f.api.UpdateNode(ctx, nodeID, req)
	if err != nil {
		return nil, err
	}
	f.invalidateNode(nodeID, false)
	return node, nil
}

// DeleteNode removes a node registration and invalidates every cached
// view of it.
func (f *Fetcher) DeleteNode(ctx context.Context, nodeID string) error {
	if err := f.api.DeleteNode(ctx, nodeID); err != nil {
		return err
	}
	f.invalidateNode(nodeID, true)
	return nil
}

// GenerateCode mints a new registration code and invalidates the code
// list.
func (f *Fetcher) GenerateCode(ctx context.Context) (*models.RegistrationCode, error) {
	code, err := f.api.GenerateRegistrationCode(ctx)
	if err != nil {
		return nil, err
	}
	f.dropPrefix(ResourceCodes, "codes|list|")
	return code, nil
}

// RevokeCode invalidates an unused code and the code list.
func (f *Fetcher) RevokeCode(ctx context.Context, code string) error {
	if err := f.api.RevokeRegistrationCode(ctx, code); err != nil {
		return err
	}
	f.dropPrefix(ResourceCodes, "codes|list|")
	return nil
}

// FlushAll drops every cached entry. Wired to the session-expiry signal
// so cached authorized data does not outlive the session.
func (f *Fetcher) FlushAll() {
	for _, c := range f.caches {
		c.Flush()
	}
	if f.logger != nil {
		f.logger.Debug("dropped all cached resources")
	}
}

func (f *Fetcher) invalidateNode(nodeID string, deleted bool) {
	f.dropPrefix(ResourceNodeList, "nodes|list|")
	f.drop(ResourceNodeDetail, buildKey("nodes", "detail", nodeID))
	if deleted {
		f.dropPrefix(ResourceNodeSessions, buildKey("nodes", "sessions", nodeID)+"|")
		f.dropPrefix(ResourceNodeStats, buildKey("nodes", "stats", nodeID)+"|")
	}
}

// cached runs the loader through the family's cache when one exists.
func (f *Fetcher) cached(ctx context.Context, res Resource, key string, loader func(context.Context) (interface{}, error)) (interface{}, error) {
	if c := f.caches[res]; c != nil {
		val, ok, err := c.Get(ctx, key, func(ctx context.Context, _ string) (interface{}, bool, error) {
			resp, err := loader(ctx)
			if err != nil {
				return nil, false, err
			}
			return resp, true, nil
		})
		if err != nil {
			return nil, err
		}
		if ok {
			return val, nil
		}
	}
	return loader(ctx)
}

func (f *Fetcher) drop(res Resource, key string) {
	if c := f.caches[res]; c != nil {
		c.Delete(key)
	}
}

func (f *Fetcher) dropPrefix(res Resource, prefix string) {
	if c := f.caches[res]; c != nil {
		if n := c.DeleteByPrefix(prefix); n > 0 && f.logger != nil {
			f.logger.WithFields(logging.Fields{"prefix": prefix, "dropped": n}).Debug("invalidated cached entries")
		}
	}
}

func buildKey(parts ...string) string {
	return strings.Join(parts, "|")
}
