// types.go
package catalog

// Raw config loaded from YAML. Pointer fields distinguish "unset" from zero so
// an override file only replaces what it names.
type RawConfig struct {
	Version      string           `yaml:"version"`
	Banner       BannerConfig     `yaml:"banner"`
	Dungeon      DungeonConfig    `yaml:"dungeon"`
	Combat       CombatConfig     `yaml:"combat"`
	Defaults     DefaultsConfig   `yaml:"defaults"`
	Characters   []CharacterDef   `yaml:"characters,omitempty"`
	Filler       *RewardDef       `yaml:"filler,omitempty"`
	Monsters     []MonsterDef     `yaml:"monsters,omitempty"`
	ArtifactSets []ArtifactSetDef `yaml:"artifact_sets,omitempty"`
	Notes        string           `yaml:"notes,omitempty"`
}

type BannerConfig struct {
	Tokens        *TokenConfig `yaml:"tokens,omitempty"`
	Pity4         *int         `yaml:"pity_4star"`
	Pity5         *int         `yaml:"pity_5star"`
	FiveStarBelow *float64     `yaml:"five_star_below"`
	FourStarBelow *float64     `yaml:"four_star_below"`
	RateUpProb    *float64     `yaml:"rate_up_prob"`
}

type TokenConfig struct {
	PerDraw    *int `yaml:"per_draw"`
	PerTenDraw *int `yaml:"per_ten_draw"`
}

type DungeonConfig struct {
	EnergyCost *int `yaml:"energy_cost"`
	EnergyMax  *int `yaml:"energy_max"`
}

type CombatConfig struct {
	HPScalePerLevel *float64 `yaml:"hp_scale_per_level"`
	RewardMin       *int     `yaml:"reward_min"`
	RewardMax       *int     `yaml:"reward_max"`
}

type DefaultsConfig struct {
	Currency *int         `yaml:"currency"`
	Energy   *int         `yaml:"energy"`
	Stats    *StatsConfig `yaml:"stats,omitempty"`
}

type StatsConfig struct {
	Attack   *int `yaml:"attack"`
	HP       *int `yaml:"hp"`
	CritRate *int `yaml:"crit_rate"`
	CritDmg  *int `yaml:"crit_dmg"`
}

// CharacterDef is a pullable character.
type CharacterDef struct {
	Name       string   `yaml:"name"`
	Rarity     int      `yaml:"rarity"`
	RateUp     bool     `yaml:"rate_up,omitempty"` // the featured 5-star
	Element    string   `yaml:"element"`
	Emoji      string   `yaml:"emoji"`
	Abilities  []string `yaml:"abilities,omitempty"`
	Ascension  []string `yaml:"ascension,omitempty"`
	BaseAttack int      `yaml:"base_attack"`
	BaseHP     int      `yaml:"base_hp"`
}

// RewardDef is the non-character filler handed out on a 3-star pull.
type RewardDef struct {
	Name   string `yaml:"name"`
	Rarity int    `yaml:"rarity"`
	Emoji  string `yaml:"emoji"`
}

type MonsterDef struct {
	Name   string `yaml:"name"`
	HP     int    `yaml:"hp"`
	Attack int    `yaml:"attack"`
	Emoji  string `yaml:"emoji"`
}

// Slot is an artifact piece type.
type Slot string

const (
	SlotChain Slot = "chain"
	SlotCrown Slot = "crown"
	SlotBoots Slot = "boots"
)

// Slots lists every slot in draw order.
var Slots = []Slot{SlotChain, SlotCrown, SlotBoots}

type ArtifactSetDef struct {
	ID        string            `yaml:"id"`
	Name      string            `yaml:"name"`
	Emoji     string            `yaml:"emoji"`
	TwoPiece  string            `yaml:"two_piece,omitempty"`
	FourPiece string            `yaml:"four_piece,omitempty"`
	MainStats map[Slot][]string `yaml:"main_stats"`
	SubStats  []string          `yaml:"sub_stats"`
}

// Rules are the normalized numeric parameters the resolvers run on.
type Rules struct {
	PullCost      int
	TenPullCost   int
	Pity4         int
	Pity5         int
	FiveStarBelow float64
	FourStarBelow float64
	RateUpProb    float64
	EnergyCost    int
	EnergyMax     int
	HPScale       float64
	RewardMin     int
	RewardMax     int
	StartCurrency int
	StartEnergy   int
	StartAttack   int
	StartHP       int
	StartCritRate int
	StartCritDmg  int
	Version       string // effective config version for tracing
}
