package artifact

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/xtding233/progression-core/internal/catalog"
	perr "github.com/xtding233/progression-core/internal/errors"
	"github.com/xtding233/progression-core/internal/ledger"
	"github.com/xtding233/progression-core/internal/rng"
)

func newProfile() ledger.Profile {
	return ledger.New(catalog.Default().Rules(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func TestGenerateRespectsPools(t *testing.T) {
	cat := catalog.Default()
	src := rng.NewSeeded(8)
	slots := map[catalog.Slot]int{}
	for _, id := range cat.SetIDs() {
		set, _ := cat.Set(id)
		for i := 0; i < 300; i++ {
			a := Generate(set, src)
			slots[a.Slot]++
			if a.Set != id || a.Level != 0 {
				t.Fatalf("bad instance %+v", a)
			}
			if !contains(set.MainStats[a.Slot], a.MainStat) {
				t.Fatalf("main stat %q not in %s pool", a.MainStat, a.Slot)
			}
			if a.SubStats[0] == a.SubStats[1] {
				t.Fatalf("sub stats must be distinct: %v", a.SubStats)
			}
			for _, s := range a.SubStats {
				if !contains(set.SubStats, s) {
					t.Fatalf("sub stat %q not in pool", s)
				}
			}
		}
	}
	for _, s := range catalog.Slots {
		if slots[s] == 0 {
			t.Fatalf("slot %s never rolled", s)
		}
	}
}

func TestGenerateScripted(t *testing.T) {
	cat := catalog.Default()
	set, _ := cat.Set("sands")
	// slot crown, main CRIT DMG%, subs: swap 0<->3 then 1<->2
	src := &rng.Script{Ints: []int{1, 1, 3, 1}}
	a := Generate(set, src)
	want := ledger.ArtifactInstance{
		Set:      "sands",
		Slot:     catalog.SlotCrown,
		MainStat: "CRIT DMG%",
		SubStats: [2]string{"CRIT DMG%", "CRIT Rate%"},
	}
	if a != want {
		t.Fatalf("got %+v want %+v", a, want)
	}
}

func TestRunDungeon(t *testing.T) {
	g := NewGenerator(catalog.Default(), rng.NewSeeded(1))
	p := newProfile()
	p.DungeonProgress["sands"] = 1

	out, next, err := g.RunDungeon(p, "sands")
	if err != nil {
		t.Fatal(err)
	}
	if next.Energy != p.Energy-20 || out.Energy != next.Energy {
		t.Fatalf("energy: %d -> %d", p.Energy, next.Energy)
	}
	if next.DungeonProgress["sands"] != 2 || out.Level != 2 {
		t.Fatalf("dungeon level: %d", next.DungeonProgress["sands"])
	}
	if len(next.Artifacts) != 1 || next.Artifacts[0] != out.Artifact {
		t.Fatalf("artifact not appended: %+v", next.Artifacts)
	}
	if len(p.Artifacts) != 0 || p.DungeonProgress["sands"] != 1 {
		t.Fatalf("input profile must not change")
	}
	if out.SetName != "Hourglass of Sands" || out.EnergyMax != 120 {
		t.Fatalf("outcome metadata: %+v", out)
	}
}

func TestRunDungeonUntilEmpty(t *testing.T) {
	g := NewGenerator(catalog.Default(), rng.NewSeeded(2))
	p := newProfile()
	for i := 0; i < 6; i++ {
		var err error
		_, p, err = g.RunDungeon(p, "mirage")
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if p.Energy != 0 || len(p.Artifacts) != 6 || p.DungeonProgress["mirage"] != 6 {
		t.Fatalf("after six runs: energy=%d artifacts=%d level=%d", p.Energy, len(p.Artifacts), p.DungeonProgress["mirage"])
	}

	before := p.Clone()
	_, got, err := g.RunDungeon(p, "mirage")
	if !errors.Is(err, perr.ErrInsufficientEnergy) {
		t.Fatalf("want insufficient energy, got %v", err)
	}
	if !reflect.DeepEqual(got, before) {
		t.Fatalf("failed run must not change the profile")
	}
}

func TestRunDungeonUnknownSet(t *testing.T) {
	g := NewGenerator(catalog.Default(), nil)
	p := newProfile()
	if _, _, err := g.RunDungeon(p, "atlantis"); !errors.Is(err, perr.ErrUnknownSet) {
		t.Fatalf("want unknown set, got %v", err)
	}
}
