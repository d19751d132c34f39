package datafetcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	api "github.com/AeroNyxNetwork/nodeboard/pkg/api/aeronyx"
	"github.com/AeroNyxNetwork/nodeboard/pkg/cache"
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

type fakeAPI struct {
	mu            sync.Mutex
	nodesCalls    int
	detailCalls   int
	statsCalls    int
	sessionsCalls int
	codesCalls    int

	updateErr error
	revokeErr error
}

func (f *fakeAPI) GetNodes(_ context.Context, q api.NodesQuery) (*api.NodesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodesCalls++
	return &api.NodesResponse{Nodes: []models.Node{{ID: "n1", Status: q.Status}}, Total: f.nodesCalls}, nil
}

func (f *fakeAPI) GetNodeDetail(_ context.Context, nodeID string) (*models.NodeDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	return &models.NodeDetail{Node: models.Node{ID: nodeID}}, nil
}

func (f *fakeAPI) GetNodeStats(_ context.Context, nodeID string, days int) (*models.NodeStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsCalls++
	return &models.NodeStats{NodeID: nodeID, PeriodDays: days}, nil
}

func (f *fakeAPI) GetNodeSessions(_ context.Context, _ string, _ api.SessionsQuery) (*api.SessionsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessionsCalls++
	return &api.SessionsResponse{Sessions: []models.Session{{ID: "s1", Status: models.SessionActive}}, Total: 1}, nil
}

func (f *fakeAPI) GetRegistrationCodes(_ context.Context, _ bool) (*api.CodesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codesCalls++
	return &api.CodesResponse{Codes: []models.RegistrationCode{{Code: "AERO-1"}}, Total: 1}, nil
}

func (f *fakeAPI) UpdateNode(_ context.Context, nodeID string, req api.UpdateNodeRequest) (*models.Node, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	n := &models.Node{ID: nodeID}
	if req.Name != nil {
		n.Name = *req.Name
	}
	return n, nil
}

func (f *fakeAPI) DeleteNode(context.Context, string) error { return nil }

func (f *fakeAPI) GenerateRegistrationCode(context.Context) (*models.RegistrationCode, error) {
	return &models.RegistrationCode{Code: "AERO-NEW"}, nil
}

func (f *fakeAPI) RevokeRegistrationCode(context.Context, string) error { return f.revokeErr }

func (f *fakeAPI) counts() (nodes, detail, stats, sessions, codes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nodesCalls, f.detailCalls, f.statsCalls, f.sessionsCalls, f.codesCalls
}

func testCaches() map[Resource]*cache.Cache {
	build := func() *cache.Cache {
		return cache.New(cache.Options{TTL: time.Minute, MaxEntries: 100}, cache.MetricsHooks{})
	}
	return map[Resource]*cache.Cache{
		ResourceNodeList:     build(),
		ResourceNodeDetail:   build(),
		ResourceNodeStats:    build(),
		ResourceNodeSessions: build(),
		ResourceCodes:        build(),
	}
}

func newTestFetcher() (*Fetcher, *fakeAPI) {
	fa := &fakeAPI{}
	return New(Config{API: fa, Caches: testCaches()}), fa
}

func TestNodesCachedReadThrough(t *testing.T) {
	f, fa := newTestFetcher()
	ctx := context.Background()

	first, err := f.Nodes(ctx, "")
	if err != nil {
		t.Fatalf("nodes: %v", err)
	}
	second, err := f.Nodes(ctx, "")
	if err != nil {
		t.Fatalf("nodes again: %v", err)
	}
	if nodes, _, _, _, _ := fa.counts(); nodes != 1 {
		t.Fatalf("expected 1 upstream call, got %d", nodes)
	}
	if first.Total != second.Total {
		t.Fatalf("cached read must serve the same payload")
	}
}

func TestStatusFiltersCacheSeparately(t *testing.T) {
	f, fa := newTestFetcher()
	ctx := context.Background()

	if _, err := f.Nodes(ctx, ""); err != nil {
		t.Fatalf("all: %v", err)
	}
	if _, err := f.Nodes(ctx, models.NodeOnline); err != nil {
		t.Fatalf("online: %v", err)
	}
	if _, err := f.Nodes(ctx, models.NodeOnline); err != nil {
		t.Fatalf("online cached: %v", err)
	}
	if nodes, _, _, _, _ := fa.counts(); nodes != 2 {
		t.Fatalf("expected 2 upstream calls (one per filter), got %d", nodes)
	}
}

func TestRefreshBypassesCache(t *testing.T) {
	f, fa := newTestFetcher()
	ctx := context.Background()

	if _, err := f.Nodes(ctx, ""); err != nil {
		t.Fatalf("warm: %v", err)
	}
	fresh, err := f.RefreshNodes(ctx, "")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if nodes, _, _, _, _ := fa.counts(); nodes != 2 {
		t.Fatalf("expected refresh to hit upstream, got %d calls", nodes)
	}
	if fresh.Total != 2 {
		t.Fatalf("refresh must return the fresh payload, got total %d", fresh.Total)
	}
	// And the refreshed payload is what later reads serve.
	again, err := f.Nodes(ctx, "")
	if err != nil {
		t.Fatalf("post-refresh read: %v", err)
	}
	if again.Total != 2 {
		t.Fatalf("post-refresh read served stale payload %d", again.Total)
	}
}

func TestUpdateNodeInvalidatesListAndDetail(t *testing.T) {
	f, fa := newTestFetcher()
	ctx := context.Background()

	if _, err := f.Nodes(ctx, ""); err != nil {
		t.Fatalf("warm list: %v", err)
	}
	if _, err := f.Node(ctx, "n1"); err != nil {
		t.Fatalf("warm detail: %v", err)
	}
	if _, err := f.NodeStats(ctx, "n1", 7); err != nil {
		t.Fatalf("warm stats: %v", err)
	}

	name := "renamed"
	if _, err := f.UpdateNode(ctx, "n1", api.UpdateNodeRequest{Name: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := f.Nodes(ctx, ""); err != nil {
		t.Fatalf("re-read list: %v", err)
	}
	if _, err := f.Node(ctx, "n1"); err != nil {
		t.Fatalf("re-read detail: %v", err)
	}
	if _, err := f.NodeStats(ctx, "n1", 7); err != nil {
		t.Fatalf("re-read stats: %v", err)
	}

	nodes, detail, stats, _, _ := fa.counts()
	if nodes != 2 || detail != 2 {
		t.Fatalf("list/detail must reload after update: nodes=%d detail=%d", nodes, detail)
	}
	if stats != 1 {
		t.Fatalf("stats must stay cached after update, got %d calls", stats)
	}
}

func TestDeleteNodeInvalidatesAllViews(t *testing.T) {
	f, fa := newTestFetcher()
	ctx := context.Background()

	if _, err := f.Nodes(ctx, ""); err != nil {
		t.Fatalf("warm list: %v", err)
	}
	if _, err := f.NodeSessions(ctx, "n1", api.SessionsQuery{Limit: 20}); err != nil {
		t.Fatalf("warm sessions: %v", err)
	}
	if _, err := f.NodeStats(ctx, "n1", 7); err != nil {
		t.Fatalf("warm stats: %v", err)
	}

	if err := f.DeleteNode(ctx, "n1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := f.NodeSessions(ctx, "n1", api.SessionsQuery{Limit: 20}); err != nil {
		t.Fatalf("re-read sessions: %v", err)
	}
	if _, err := f.NodeStats(ctx, "n1", 7); err != nil {
		t.Fatalf("re-read stats: %v", err)
	}
	_, _, stats, sessions, _ := fa.counts()
	if sessions != 2 || stats != 2 {
		t.Fatalf("sessions/stats must reload after delete: sessions=%d stats=%d", sessions, stats)
	}
}

func TestCodeMutationsInvalidateCodeList(t *testing.T) {
	f, fa := newTestFetcher()
	ctx := context.Background()

	if _, err := f.Codes(ctx, false); err != nil {
		t.Fatalf("warm: %v", err)
	}
	if _, err := f.GenerateCode(ctx); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := f.Codes(ctx, false); err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if err := f.RevokeCode(ctx, "AERO-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := f.Codes(ctx, false); err != nil {
		t.Fatalf("re-read after revoke: %v", err)
	}
	if _, _, _, _, codes := fa.counts(); codes != 3 {
		t.Fatalf("each mutation must force a reload, got %d calls", codes)
	}
}

func TestFailedMutationLeavesCacheIntact(t *testing.T) {
	f, fa := newTestFetcher()
	ctx := context.Background()

	if _, err := f.Nodes(ctx, ""); err != nil {
		t.Fatalf("warm: %v", err)
	}
	fa.updateErr = errors.New("conflict")
	name := "x"
	if _, err := f.UpdateNode(ctx, "n1", api.UpdateNodeRequest{Name: &name}); err == nil {
		t.Fatalf("expected update failure")
	}
	if _, err := f.Nodes(ctx, ""); err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if nodes, _, _, _, _ := fa.counts(); nodes != 1 {
		t.Fatalf("failed mutation must not invalidate, got %d calls", nodes)
	}
}

func TestFlushAllDropsEverything(t *testing.T) {
	f, fa := newTestFetcher()
	ctx := context.Background()

	if _, err := f.Nodes(ctx, ""); err != nil {
		t.Fatalf("warm nodes: %v", err)
	}
	if _, err := f.Codes(ctx, true); err != nil {
		t.Fatalf("warm codes: %v", err)
	}

	f.FlushAll()

	if _, err := f.Nodes(ctx, ""); err != nil {
		t.Fatalf("re-read nodes: %v", err)
	}
	if _, err := f.Codes(ctx, true); err != nil {
		t.Fatalf("re-read codes: %v", err)
	}
	nodes, _, _, _, codes := fa.counts()
	if nodes != 2 || codes != 2 {
		t.Fatalf("flush must drop all families: nodes=%d codes=%d", nodes, codes)
	}
}

func TestNoCacheFallsThrough(t *testing.T) {
	fa := &fakeAPI{}
	f := New(Config{API: fa})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.Nodes(ctx, ""); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
	}
	if nodes, _, _, _, _ := fa.counts(); nodes != 3 {
		t.Fatalf("uncached fetcher must call upstream every time, got %d", nodes)
	}
}
