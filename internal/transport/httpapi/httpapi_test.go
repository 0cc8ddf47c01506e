package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xtding233/progression-core/internal/catalog"
	perr "github.com/xtding233/progression-core/internal/errors"
	"github.com/xtding233/progression-core/internal/gacha"
	"github.com/xtding233/progression-core/internal/ledger"
	"github.com/xtding233/progression-core/internal/rng"
	"github.com/xtding233/progression-core/internal/service"
	"github.com/xtding233/progression-core/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	cat := catalog.Default()
	mem := store.NewMemory(store.DefaultsFrom(cat.Rules(), func() time.Time {
		return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	}))
	svc := service.New(cat, mem, service.Options{RNG: rng.NewSeeded(4)})
	srv := httptest.NewServer(New(svc, cat))
	t.Cleanup(srv.Close)
	return srv, mem
}

func do(t *testing.T, method, url string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

func TestProfileCreatesDefault(t *testing.T) {
	srv, _ := newTestServer(t)
	var p ledger.Profile
	if code := do(t, http.MethodGet, srv.URL+"/players/alice", &p); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if p.Energy != 120 || p.Stats.HP != 100 {
		t.Fatalf("profile: %+v", p)
	}
}

func TestPullErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := []struct {
		name   string
		url    string
		status int
		code   perr.Code
	}{
		{"broke", "/players/bob/pull?count=1", http.StatusConflict, perr.CodeInsufficientCurrency},
		{"bad count", "/players/bob/pull?count=7", http.StatusBadRequest, perr.CodeInvalidArgument},
		{"not a number", "/players/bob/pull?count=ten", http.StatusBadRequest, perr.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e errResp
			if code := do(t, http.MethodPost, srv.URL+tt.url, &e); code != tt.status {
				t.Fatalf("status %d want %d", code, tt.status)
			}
			if e.Code != tt.code || e.Err == "" {
				t.Fatalf("error body: %+v", e)
			}
		})
	}
}

func TestTenPull(t *testing.T) {
	srv, mem := newTestServer(t)
	ctx := context.Background()
	p, _ := mem.Load(ctx, "carol")
	p.Currency = 950
	_ = mem.Save(ctx, "carol", p)

	var out gacha.PullOutcome
	if code := do(t, http.MethodPost, srv.URL+"/players/carol/pull?count=10", &out); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(out.Results) != 10 || out.Currency != 50 {
		t.Fatalf("outcome: %+v", out)
	}
}

func TestBattleRoutes(t *testing.T) {
	srv, _ := newTestServer(t)
	var e errResp
	if code := do(t, http.MethodPost, srv.URL+"/players/dan/attack", &e); code != http.StatusConflict || e.Code != perr.CodeNoActiveSession {
		t.Fatalf("attack without battle: %d %+v", code, e)
	}

	var enc service.Encounter
	if code := do(t, http.MethodPost, srv.URL+"/players/dan/battle", &enc); code != http.StatusOK || enc.SessionID == "" {
		t.Fatalf("battle: %d %+v", code, enc)
	}
	var cur service.Encounter
	if code := do(t, http.MethodGet, srv.URL+"/players/dan/battle", &cur); code != http.StatusOK || cur.SessionID != enc.SessionID {
		t.Fatalf("current battle: %d %+v", code, cur)
	}
	var out service.FleeOutcome
	if code := do(t, http.MethodPost, srv.URL+"/players/dan/flee", &out); code != http.StatusOK || out.SessionID != enc.SessionID {
		t.Fatalf("flee: %d %+v", code, out)
	}
	e = errResp{}
	if code := do(t, http.MethodGet, srv.URL+"/players/dan/battle", &e); code != http.StatusConflict || e.Code != perr.CodeNoActiveSession {
		t.Fatalf("battle after flee: %d %+v", code, e)
	}
}

func TestDungeonRoutes(t *testing.T) {
	srv, _ := newTestServer(t)
	var out struct {
		Artifact ledger.ArtifactInstance `json:"artifact"`
		Energy   int                     `json:"energy"`
	}
	if code := do(t, http.MethodPost, srv.URL+"/players/eve/dungeon/sands", &out); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if out.Energy != 100 || out.Artifact.Set != "sands" {
		t.Fatalf("run: %+v", out)
	}
	var e errResp
	if code := do(t, http.MethodPost, srv.URL+"/players/eve/dungeon/void", &e); code != http.StatusNotFound || e.Code != perr.CodeUnknownSet {
		t.Fatalf("unknown set: %d %+v", code, e)
	}
}

func TestOdds(t *testing.T) {
	srv, _ := newTestServer(t)
	var stats gacha.Stats
	if code := do(t, http.MethodGet, srv.URL+"/odds?goal=first_five_star&trials=500", &stats); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if stats.Trials != 500 || stats.Mean <= 0 || stats.P99 > 50 {
		t.Fatalf("stats: %+v", stats)
	}
	var e errResp
	if code := do(t, http.MethodGet, srv.URL+"/odds?goal=fixed_budget", &e); code != http.StatusBadRequest {
		t.Fatalf("fixed budget without draws: %d", code)
	}
}

func TestOddsDrawsCap(t *testing.T) {
	srv, _ := newTestServer(t)
	var stats gacha.Stats
	if code := do(t, http.MethodGet, srv.URL+"/odds?goal=fixed_budget&trials=20&draws=500", &stats); code != http.StatusOK {
		t.Fatalf("draws at cap: status %d", code)
	}
	var e errResp
	code := do(t, http.MethodGet, srv.URL+"/odds?goal=fixed_budget&trials=100000&draws=1000000000", &e)
	if code != http.StatusBadRequest || e.Code != perr.CodeInvalidArgument {
		t.Fatalf("oversized draws: %d %+v", code, e)
	}
}

func TestDraw(t *testing.T) {
	srv, _ := newTestServer(t)
	var r drawResp
	if code := do(t, http.MethodGet, srv.URL+"/draw?p=1", &r); code != http.StatusOK || !r.Hit {
		t.Fatalf("p=1 should hit: %d %+v", code, r)
	}
	if code := do(t, http.MethodGet, srv.URL+"/draw?p=2", &r); code != http.StatusBadRequest || r.Err == "" {
		t.Fatalf("p=2 should fail: %d %+v", code, r)
	}
}

type brokenOps struct{ service.Operations }

func (brokenOps) GetProfile(context.Context, string) (ledger.Profile, error) {
	return ledger.Profile{}, errors.New("connection reset")
}

func TestInternalErrorsAreMasked(t *testing.T) {
	srv := httptest.NewServer(New(brokenOps{}, catalog.Default()))
	defer srv.Close()
	var e errResp
	if code := do(t, http.MethodGet, srv.URL+"/players/zed", &e); code != http.StatusInternalServerError {
		t.Fatalf("status %d", code)
	}
	if e.Code != perr.CodeInternal || e.Err != "an unexpected error occurred" {
		t.Fatalf("body: %+v", e)
	}
}
