package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xtding233/progression-core/internal/catalog"
	perr "github.com/xtding233/progression-core/internal/errors"
)

func TestNewProfileDefaults(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 123456789, time.UTC)
	p := New(catalog.Default().Rules(), now)
	if p.Currency != 0 || p.Energy != 120 {
		t.Fatalf("currency/energy: %d/%d", p.Currency, p.Energy)
	}
	if p.Stats != (CombatStats{Attack: 10, HP: 100, CritRate: 5, CritDmg: 50}) {
		t.Fatalf("stats: %+v", p.Stats)
	}
	if p.Characters == nil || p.Artifacts == nil || p.Equipped == nil || p.DungeonProgress == nil {
		t.Fatalf("collections must be non-nil")
	}
	if p.EnergyLastUpdate.Nanosecond() != 123000000 {
		t.Fatalf("timestamp should be truncated to ms: %v", p.EnergyLastUpdate)
	}
	if p.Pity4 != 0 || p.Pity5 != 0 || p.Guaranteed {
		t.Fatalf("pity state should start clean")
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := New(catalog.Default().Rules(), time.Now())
	p.Grant("Kasa Ebardov")
	p.Artifacts = append(p.Artifacts, ArtifactInstance{Set: "sands"})
	p.DungeonProgress["sands"] = 2

	c := p.Clone()
	c.Grant("Kasa Ebardov")
	c.Artifacts[0].Set = "mirage"
	c.DungeonProgress["sands"] = 9
	c.Equipped[catalog.SlotBoots] = 0

	if p.Characters["Kasa Ebardov"] != 1 {
		t.Fatalf("characters shared with clone")
	}
	if p.Artifacts[0].Set != "sands" {
		t.Fatalf("artifacts shared with clone")
	}
	if p.DungeonProgress["sands"] != 2 {
		t.Fatalf("dungeon progress shared with clone")
	}
	if len(p.Equipped) != 0 {
		t.Fatalf("equipped shared with clone")
	}
}

func TestSpendAndDrainGuards(t *testing.T) {
	p := Profile{Currency: 50, Energy: 19}
	if err := p.Spend(100); !errors.Is(err, perr.ErrInsufficientCurrency) {
		t.Fatalf("want insufficient currency, got %v", err)
	}
	if p.Currency != 50 {
		t.Fatalf("failed spend must not mutate: %d", p.Currency)
	}
	if err := p.Drain(20); !errors.Is(err, perr.ErrInsufficientEnergy) {
		t.Fatalf("want insufficient energy, got %v", err)
	}
	if p.Energy != 19 {
		t.Fatalf("failed drain must not mutate: %d", p.Energy)
	}
	if err := p.Spend(50); err != nil || p.Currency != 0 {
		t.Fatalf("exact spend: err=%v currency=%d", err, p.Currency)
	}
	p.Earn(-5)
	if p.Currency != 0 {
		t.Fatalf("negative earn must be ignored")
	}
}

func TestTakeHitFloorsAtZero(t *testing.T) {
	p := Profile{Stats: CombatStats{HP: 7}}
	if hp := p.TakeHit(5); hp != 2 {
		t.Fatalf("hp after 5: %d", hp)
	}
	if hp := p.TakeHit(25); hp != 0 {
		t.Fatalf("hp must floor at 0: %d", hp)
	}
}

func TestTotalDungeonLevel(t *testing.T) {
	p := Profile{DungeonProgress: map[string]int{"sands": 1, "mirage": 3, "fangs": 0}}
	if got := p.TotalDungeonLevel(); got != 4 {
		t.Fatalf("total: %d", got)
	}
}

func TestLockerRejectsContention(t *testing.T) {
	l := NewLocker(LockReject)
	ctx := context.Background()
	release, err := l.Acquire(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Acquire(ctx, "p1"); !errors.Is(err, perr.ErrBusy) {
		t.Fatalf("want busy, got %v", err)
	}
	other, err := l.Acquire(ctx, "p2")
	if err != nil {
		t.Fatalf("distinct players must not contend: %v", err)
	}
	other()
	release()
	release() // idempotent

	again, err := l.Acquire(ctx, "p1")
	if err != nil {
		t.Fatalf("lock should be free after release: %v", err)
	}
	again()
	if l.Held() != 0 {
		t.Fatalf("idle entries should be cleaned up, held=%d", l.Held())
	}
}

func TestLockerWaitSerializes(t *testing.T) {
	l := NewLocker(LockWait)
	ctx := context.Background()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "p1")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
			release()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("lost updates: counter=%d", counter)
	}
}

func TestLockerWaitHonorsContext(t *testing.T) {
	l := NewLocker(LockWait)
	release, err := l.Acquire(context.Background(), "p1")
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "p1"); !errors.Is(err, perr.ErrBusy) {
		t.Fatalf("want busy after timeout, got %v", err)
	}
}
