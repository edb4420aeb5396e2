package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/rickgao/albion-omni/internal/api"
	"github.com/rickgao/albion-omni/internal/cache"
	"github.com/rickgao/albion-omni/internal/config"
	"github.com/rickgao/albion-omni/internal/model"
	"github.com/rickgao/albion-omni/internal/snapshot"
)

const testSecret = "s3cret"

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu          sync.Mutex
	pingErr     error
	prices      []model.MarketPrice
	gold        []model.GoldPrice
	kills       []model.KillEvent
	leaderboard []model.GuildLeaderboardEntry
	runs        []model.SyncRun
	err         error

	priceItem string
	goldSince time.Time
	lbDate    time.Time
	calls     int
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) LatestPrices(_ context.Context, _ model.Region, itemID string) ([]model.MarketPrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceItem = itemID
	return f.prices, f.err
}

func (f *fakeStore) GoldHistory(_ context.Context, _ model.Region, since time.Time, _ int) ([]model.GoldPrice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.goldSince = since
	return f.gold, f.err
}

func (f *fakeStore) RecentKills(context.Context, model.Region, int) ([]model.KillEvent, error) {
	return f.kills, f.err
}

func (f *fakeStore) GuildLeaderboard(_ context.Context, _ model.Region, _ string, date time.Time, _ int) ([]model.GuildLeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lbDate = date
	return f.leaderboard, f.err
}

func (f *fakeStore) RecentSyncRuns(context.Context, int) ([]model.SyncRun, error) {
	return f.runs, f.err
}

type stubJob struct {
	name string
	err  error
}

func (j stubJob) Name() string { return j.name }

func (j stubJob) Run(context.Context) (snapshot.Result, error) {
	return snapshot.Result{Fetched: 3, Written: 2, Skipped: 1}, j.err
}

// upstream counts the requests served per path.
type upstream struct {
	mux  *http.ServeMux
	hits sync.Map
}

func newUpstream() *upstream {
	return &upstream{mux: http.NewServeMux()}
}

func (u *upstream) handle(pattern, body string) {
	u.handleStatus(pattern, http.StatusOK, body)
}

func (u *upstream) handleStatus(pattern string, status int, body string) {
	u.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		n, _ := u.hits.LoadOrStore(r.URL.Path, new(atomic.Int64))
		n.(*atomic.Int64).Add(1)
		w.WriteHeader(status)
		io.WriteString(w, body)
	})
}

func (u *upstream) count(path string) int64 {
	n, ok := u.hits.Load(path)
	if !ok {
		return 0
	}
	return n.(*atomic.Int64).Load()
}

type testEnv struct {
	server *Server
	cache  *cache.Cache
	store  *fakeStore
	runner *snapshot.Runner
}

type envOption func(*Deps)

func withStore(st *fakeStore) envOption {
	return func(d *Deps) { d.Store = st }
}

func withRunner(r *snapshot.Runner) envOption {
	return func(d *Deps) { d.Runner = r }
}

func newTestEnv(t *testing.T, up *upstream, opts ...envOption) *testEnv {
	t.Helper()

	srv := httptest.NewServer(up.mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.Admin.Secret = testSecret
	cfg.Upstream.RetryBackoff = time.Millisecond
	cfg.Upstream.Regions = map[string]config.RegionEndpoints{
		"americas": {
			MarketURL:   srv.URL,
			GameinfoURL: srv.URL + "/gameinfo",
			StatusURL:   srv.URL + "/status",
		},
	}
	cfg.ApplyDefaults()

	regional, err := api.NewRegional(cfg.Upstream, nil)
	if err != nil {
		t.Fatalf("NewRegional() error = %v", err)
	}

	mem := cache.NewMemory(1000, 0)
	t.Cleanup(func() { mem.Close() })
	c := cache.New(cache.NewFallback(nil, mem, nil), "test", nil)

	deps := Deps{Upstream: regional, Cache: c}
	for _, opt := range opts {
		opt(&deps)
	}

	env := &testEnv{server: New(cfg, deps, nil), cache: c, runner: deps.Runner}
	if st, ok := deps.Store.(*fakeStore); ok {
		env.store = st
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	return e.do(t, http.MethodGet, target, nil)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func adminHeader() http.Header {
	return http.Header{"X-Admin-Secret": []string{testSecret}}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name         string
		store        *fakeStore
		wantCode     int
		wantStatus   string
		wantDatabase string
	}{
		{"no database", nil, http.StatusOK, "ok", "disabled"},
		{"database ok", &fakeStore{}, http.StatusOK, "ok", "ok"},
		{"database down", &fakeStore{pingErr: errors.New("refused")}, http.StatusServiceUnavailable, "degraded", "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []envOption
			if tt.store != nil {
				opts = append(opts, withStore(tt.store))
			}
			env := newTestEnv(t, newUpstream(), opts...)

			rec := env.get(t, "/api/health")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body)
			}
			got := decode[healthResponse](t, rec)
			if got.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", got.Status, tt.wantStatus)
			}
			if got.Database != tt.wantDatabase {
				t.Errorf("database = %q, want %q", got.Database, tt.wantDatabase)
			}
			if got.Cache.Backend != "memory" || got.Cache.Status != "ok" || !got.Cache.MemoryOnly {
				t.Errorf("cache = %+v, want memory-only/ok", got.Cache)
			}
			if len(got.Breakers) != 9 {
				t.Errorf("breakers = %v, want 9 entries", got.Breakers)
			}
		})
	}
}

func TestPricesCached(t *testing.T) {
	up := newUpstream()
	up.handle("/api/v2/stats/prices/", `[
		{"item_id":"T4_BAG","city":"Martlock","quality":1,"sell_price_min":1200,"sell_price_min_date":"2026-10-14T10:00:00"},
		{"item_id":"T4_BAG","city":"Lymhurst","quality":1,"sell_price_min":0,"sell_price_min_date":"0001-01-01T00:00:00"}
	]`)
	env := newTestEnv(t, up)

	for i := 0; i < 2; i++ {
		// Same parameters in a different order share the cache entry.
		target := "/api/americas/prices?items=T4_BAG&locations=Martlock,Lymhurst"
		if i == 1 {
			target = "/api/west/prices?locations=Lymhurst,Martlock&items=T4_BAG"
		}
		rec := env.get(t, target)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d: %s", i, rec.Code, rec.Body)
		}
		prices := decode[[]model.MarketPrice](t, rec)
		if len(prices) != 2 {
			t.Fatalf("request %d: got %d prices, want 2", i, len(prices))
		}
		if prices[0].Region != model.RegionAmericas {
			t.Errorf("region = %q, want americas", prices[0].Region)
		}
	}

	if n := up.count("/api/v2/stats/prices/T4_BAG.json"); n != 1 {
		t.Errorf("upstream hits = %d, want 1", n)
	}
}

func TestQueryValidation(t *testing.T) {
	env := newTestEnv(t, newUpstream())

	tests := []struct {
		name      string
		target    string
		wantField string
		wantTag   string
	}{
		{"missing items", "/api/americas/prices", "items", "required"},
		{"bad quality", "/api/americas/prices?items=T4_BAG&qualities=9", "qualities[0]", "max"},
		{"non-numeric quality", "/api/americas/prices?items=T4_BAG&qualities=x", "qualities", "number"},
		{"bad time scale", "/api/americas/history?items=T4_BAG&time_scale=2", "time_scale", "oneof"},
		{"bad date", "/api/americas/history?items=T4_BAG&from=yesterday", "from", "datetime"},
		{"kills limit", "/api/americas/kills?limit=52", "limit", "max"},
		{"kills offset", "/api/americas/kills?offset=1001", "offset", "max"},
		{"short search", "/api/americas/search?q=a", "q", "min"},
		{"bad range", "/api/americas/guilds/top?range=year", "range", "oneof"},
		{"bad guild id", "/api/americas/guilds/bad%20id!", "id", "albion_id"},
		{"bad kill id", "/api/americas/kills/abc", "id", "number"},
		{"negative kill id", "/api/americas/kills/-4", "id", "number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.get(t, tt.target)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body)
			}
			body := decode[struct {
				Error   string       `json:"error"`
				Details []FieldError `json:"details"`
			}](t, rec)
			if body.Error != "invalid request" {
				t.Errorf("error = %q", body.Error)
			}
			if len(body.Details) == 0 {
				t.Fatal("no field errors returned")
			}
			if body.Details[0].Field != tt.wantField || body.Details[0].Tag != tt.wantTag {
				t.Errorf("field error = %+v, want %s/%s", body.Details[0], tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestUnknownRegion(t *testing.T) {
	env := newTestEnv(t, newUpstream())

	for _, target := range []string{
		"/api/mars/prices?items=T4_BAG",
		"/api/europe-west/status",
	} {
		rec := env.get(t, target)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", target, rec.Code)
		}
	}
}

func TestUnconfiguredRegion(t *testing.T) {
	up := newUpstream()
	env := newTestEnv(t, up)

	// Defaults fill every region, so drop one from the upstream set.
	cfg := *env.server.cfg
	cfg.Upstream.Regions = map[string]config.RegionEndpoints{
		"americas": cfg.Upstream.Regions["americas"],
	}
	regional, err := api.NewRegional(cfg.Upstream, nil)
	if err != nil {
		t.Fatal(err)
	}
	s := New(&cfg, Deps{Upstream: regional, Cache: env.cache}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/europe/status", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not configured") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestUpstreamErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode int
	}{
		{"not found", http.StatusNotFound, http.StatusNotFound},
		{"bad request", http.StatusBadRequest, http.StatusBadGateway},
		{"server error", http.StatusInternalServerError, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newUpstream()
			up.handleStatus("/gameinfo/guilds/", tt.status, `{"error":"nope"}`)
			env := newTestEnv(t, up)

			rec := env.get(t, "/api/americas/guilds/abc123")
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body)
			}
		})
	}
}

func TestGameinfoRoutes(t *testing.T) {
	up := newUpstream()
	up.handle("/gameinfo/guilds/G1", `{"Id":"G1","Name":"Lions","killFame":500,"MemberCount":40}`)
	up.handle("/gameinfo/guilds/G1/members", `[{"Id":"P1","Name":"Ana"},{"Id":"P2","Name":"Bo"}]`)
	up.handle("/gameinfo/players/P1", `{"Id":"P1","Name":"Ana","KillFame":10}`)
	up.handle("/gameinfo/search", `{"guilds":[],"players":null}`)
	up.handle("/gameinfo/guilds/topguildsbyattacks", `[{"Id":"G1","Name":"Lions"},{"Id":"G2","Name":"Tigers"}]`)
	up.handle("/status/", `{"status":"online","message":"ok"}`)
	env := newTestEnv(t, up)

	t.Run("guild", func(t *testing.T) {
		rec := env.get(t, "/api/americas/guilds/G1")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body)
		}
		g := decode[model.Guild](t, rec)
		if g.ID != "G1" || g.Name != "Lions" || g.Region != model.RegionAmericas {
			t.Errorf("guild = %+v", g)
		}
	})

	t.Run("members", func(t *testing.T) {
		rec := env.get(t, "/api/americas/guilds/G1/members")
		members := decode[[]model.Player](t, rec)
		if len(members) != 2 {
			t.Errorf("got %d members, want 2", len(members))
		}
	})

	t.Run("player", func(t *testing.T) {
		rec := env.get(t, "/api/americas/players/P1")
		p := decode[model.Player](t, rec)
		if p.Name != "Ana" || p.KillFame != 10 {
			t.Errorf("player = %+v", p)
		}
	})

	t.Run("search renders empty lists", func(t *testing.T) {
		rec := env.get(t, "/api/americas/search?q=Lio")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"guilds":[],"players":[]}` {
			t.Errorf("body = %s", got)
		}
	})

	t.Run("top guilds ranked by offset", func(t *testing.T) {
		rec := env.get(t, "/api/americas/guilds/top?range=day&offset=10&limit=2")
		entries := decode[[]model.GuildLeaderboardEntry](t, rec)
		var ranks []int
		for _, e := range entries {
			ranks = append(ranks, e.Rank)
		}
		if diff := cmp.Diff([]int{11, 12}, ranks); diff != "" {
			t.Errorf("ranks mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("status", func(t *testing.T) {
		rec := env.get(t, "/api/americas/status")
		st := decode[model.ServerStatus](t, rec)
		if st.Status != "online" {
			t.Errorf("status = %+v", st)
		}
	})
}

func TestSearchSharedAcrossConcurrentRequests(t *testing.T) {
	up := newUpstream()
	release := make(chan struct{})
	var hits atomic.Int32
	up.mux.HandleFunc("/gameinfo/search", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		io.WriteString(w, `{"guilds":[{"Id":"G1","Name":"Lions"}],"players":null}`)
	})
	env := newTestEnv(t, up)

	const n = 8
	var wg sync.WaitGroup
	codes := make([]int, n)
	bodies := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := env.get(t, "/api/americas/search?q=lions")
			codes[i] = rec.Code
			bodies[i] = strings.TrimSpace(rec.Body.String())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range codes {
		if codes[i] != http.StatusOK {
			t.Errorf("request %d status = %d: %s", i, codes[i], bodies[i])
			continue
		}
		var got model.SearchResult
		if err := json.Unmarshal([]byte(bodies[i]), &got); err != nil {
			t.Fatalf("decode %q: %v", bodies[i], err)
		}
		if len(got.Guilds) != 1 || got.Players == nil || len(got.Players) != 0 {
			t.Errorf("request %d body = %s", i, bodies[i])
		}
	}
	if got := hits.Load(); got > 2 {
		t.Errorf("upstream hits = %d, want the load shared", got)
	}
}

func TestArbitrage(t *testing.T) {
	up := newUpstream()
	up.handle("/api/v2/stats/prices/", `[
		{"item_id":"T4_BAG","city":"Martlock","quality":1,"sell_price_min":1000},
		{"item_id":"T4_BAG","city":"Caerleon","quality":1,"sell_price_min":5000},
		{"item_id":"T4_BAG","city":"Lymhurst","quality":1,"sell_price_min":0}
	]`)
	env := newTestEnv(t, up)

	rec := env.get(t, "/api/americas/arbitrage?items=T4_BAG&quantity=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	got := decode[arbitrageResponse](t, rec)
	if got.Quality != 1 || got.Quantity != 2 {
		t.Errorf("echoed params = %d/%d, want 1/2", got.Quality, got.Quantity)
	}
	if len(got.Opportunities) == 0 {
		t.Fatal("no opportunities found")
	}
	best := got.Opportunities[0]
	if best.BuyCity != "Martlock" || best.SellCity != "Caerleon" {
		t.Errorf("best route = %s -> %s, want Martlock -> Caerleon", best.BuyCity, best.SellCity)
	}
	if best.Quantity != 2 || best.Profit <= 0 {
		t.Errorf("best = %+v", best)
	}
	for _, o := range got.Opportunities {
		if o.BuyCity == "Lymhurst" || o.SellCity == "Lymhurst" {
			t.Errorf("route uses a city without listings: %+v", o)
		}
	}
}

func TestDatabaseRoutes(t *testing.T) {
	st := &fakeStore{
		prices: []model.MarketPrice{
			{Region: model.RegionAmericas, ItemID: "T4_BAG", City: "Martlock", Quality: 1, SellPriceMin: 1100},
		},
		gold: []model.GoldPrice{{Region: model.RegionAmericas, Price: 4100}},
		leaderboard: []model.GuildLeaderboardEntry{
			{GuildID: "G1", Rank: 1, Range: "week"},
		},
	}
	env := newTestEnv(t, newUpstream(), withStore(st))
	env.server.now = func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) }

	t.Run("gold history defaults to a week", func(t *testing.T) {
		rec := env.get(t, "/api/americas/gold/history")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body)
		}
		want := time.Date(2026, 10, 8, 12, 0, 0, 0, time.UTC)
		if !st.goldSince.Equal(want) {
			t.Errorf("since = %v, want %v", st.goldSince, want)
		}
	})

	t.Run("stored prices", func(t *testing.T) {
		rec := env.get(t, "/api/americas/prices/stored?item=t4_bag")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body)
		}
		if st.priceItem != "T4_BAG" {
			t.Errorf("item = %q, want T4_BAG", st.priceItem)
		}
		got := decode[[]model.MarketPrice](t, rec)
		if len(got) != 1 || got[0].City != "Martlock" {
			t.Errorf("prices = %+v", got)
		}
	})

	t.Run("stored prices needs an item", func(t *testing.T) {
		rec := env.get(t, "/api/americas/prices/stored")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("leaderboard by date", func(t *testing.T) {
		rec := env.get(t, "/api/americas/guilds/leaderboard?date=2026-10-01")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body)
		}
		if want := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC); !st.lbDate.Equal(want) {
			t.Errorf("date = %v, want %v", st.lbDate, want)
		}
	})

	t.Run("recent kills empty", func(t *testing.T) {
		rec := env.get(t, "/api/americas/kills/recent")
		if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
			t.Errorf("body = %s, want []", got)
		}
	})
}

func TestSyncRunRefreshesDatabaseReads(t *testing.T) {
	st := &fakeStore{gold: []model.GoldPrice{{Region: model.RegionAmericas, Price: 4100}}}
	env := newTestEnv(t, newUpstream(), withStore(st))

	runner := snapshot.NewRunner(model.RegionAmericas, nil, nil, 0, nil, snapshot.WithCacheInvalidator(env.cache))
	runner.Register(stubJob{name: "gold_prices"})

	for i := 0; i < 2; i++ {
		if rec := env.get(t, "/api/americas/gold/history"); rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body)
		}
	}
	if st.calls != 1 {
		t.Fatalf("store calls = %d, want 1 before sync", st.calls)
	}

	if _, err := runner.Run(context.Background(), "gold_prices"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	env.get(t, "/api/americas/gold/history")
	if st.calls != 2 {
		t.Errorf("store calls = %d, want 2 after sync", st.calls)
	}
}

func TestDatabaseRoutesWithoutStore(t *testing.T) {
	env := newTestEnv(t, newUpstream())

	for _, target := range []string{
		"/api/americas/gold/history",
		"/api/americas/prices/stored?item=T4_BAG",
		"/api/americas/kills/recent",
		"/api/americas/guilds/leaderboard",
	} {
		rec := env.get(t, target)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d, want 503", target, rec.Code)
		}
	}
}

func TestAdminRequiresSecret(t *testing.T) {
	env := newTestEnv(t, newUpstream())

	tests := []struct {
		name   string
		header http.Header
		want   int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"wrong", http.Header{"X-Admin-Secret": []string{"guess"}}, http.StatusUnauthorized},
		{"bearer", http.Header{"Authorization": []string{"Bearer " + testSecret}}, http.StatusServiceUnavailable},
		{"header", adminHeader(), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No runner is configured, so an authorized request gets 503.
			rec := env.do(t, http.MethodGet, "/api/admin/sync", tt.header)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAdminSync(t *testing.T) {
	runner := snapshot.NewRunner(model.RegionAmericas, nil, nil, time.Minute, nil)
	if err := runner.Register(
		stubJob{name: "ok"},
		stubJob{name: "broken", err: errors.New("upstream down")},
	); err != nil {
		t.Fatal(err)
	}
	env := newTestEnv(t, newUpstream(), withRunner(runner), withStore(&fakeStore{}))

	tests := []struct {
		name string
		job  string
		want int
	}{
		{"success", "ok", http.StatusOK},
		{"failure", "broken", http.StatusBadGateway},
		{"unknown", "nope", http.StatusNotFound},
		{"all with a failure", "all", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/admin/sync/"+tt.job, adminHeader())
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}

	rec := env.do(t, http.MethodGet, "/api/admin/sync", adminHeader())
	if rec.Code != http.StatusOK {
		t.Fatalf("sync status = %d: %s", rec.Code, rec.Body)
	}
	got := decode[syncStatusResponse](t, rec)
	if len(got.Jobs) != 2 {
		t.Fatalf("jobs = %+v, want 2", got.Jobs)
	}
	last := got.Jobs[0].LastRun
	if last == nil || last.Status != snapshot.StatusSuccess || last.Written != 2 {
		t.Errorf("ok last run = %+v", last)
	}
	if got.Schedules == nil || got.RecentRuns == nil {
		t.Error("empty lists should render as []")
	}
}

func TestCacheInvalidate(t *testing.T) {
	env := newTestEnv(t, newUpstream())
	ctx := context.Background()

	for _, key := range []string{"americas:prices:a", "americas:gold:24", "europe:gold:24"} {
		if err := env.cache.Store().Set(ctx, "test:"+key, []byte("1"), time.Minute); err != nil {
			t.Fatal(err)
		}
	}

	rec := env.do(t, http.MethodPost, "/api/admin/cache/invalidate?prefix=americas:", adminHeader())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	got := decode[map[string]any](t, rec)
	want := map[string]any{"prefix": "americas:", "removed": float64(2)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestNotFoundAndMethod(t *testing.T) {
	env := newTestEnv(t, newUpstream())

	rec := env.get(t, "/nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	rec = env.do(t, http.MethodDelete, "/api/health", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestStartStop(t *testing.T) {
	env := newTestEnv(t, newUpstream())
	env.server.cfg.Server.Addr = "127.0.0.1:0"

	if err := env.server.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	resp, err := http.Get("http://" + env.server.Addr() + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := env.server.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
