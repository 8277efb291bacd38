package config

import (
	"fmt"
	"os"
	"sort"

	"scoreboard/models"

	"gopkg.in/yaml.v3"
)

// Tables holds the static game data the scorer consumes
type Tables struct {
	PlayableRaces []string
	PlayableRoles []string
	PlayableGods  []string

	RaceToGreatRace map[string]string
	RoleToGreatRole map[string]string

	// Bots are never scored on any server
	Bots map[string]struct{}
	// Griefers maps player name to the servers they are excluded on
	Griefers map[string]map[string]struct{}

	// ManualAchievements maps player name to achievements awarded by hand
	ManualAchievements map[string]map[string]models.Achievement

	gods map[string]struct{}
}

// tablesFile is the YAML layout of SCOREBOARD_TABLES_FILE. Absent sections keep their defaults.
type tablesFile struct {
	PlayableRaces   []string          `yaml:"playable_races"`
	PlayableRoles   []string          `yaml:"playable_roles"`
	PlayableGods    []string          `yaml:"playable_gods"`
	RaceToGreatRace map[string]string `yaml:"race_to_great_race"`
	RoleToGreatRole map[string]string `yaml:"role_to_great_role"`
	Blacklists      struct {
		Bots     []string            `yaml:"bots"`
		Griefers map[string][]string `yaml:"griefers"`
	} `yaml:"blacklists"`
	ManualAchievements map[string]map[string]any `yaml:"manual_achievements"`
}

// DefaultTables returns the built-in game data
func DefaultTables() *Tables {
	t := &Tables{
		PlayableRaces: []string{"Ce", "DD", "DE", "Dg", "Ds", "Dr", "Fe", "Fo", "Gh", "Gr",
			"HE", "HO", "Ha", "Hu", "Ko", "Mf", "Mi", "Mu", "Na", "Op", "Og", "Sp", "Te",
			"Tr", "VS", "Vp"},
		PlayableRoles: []string{"AE", "AK", "AM", "Ar", "As", "Be", "CK", "Cj", "EE", "En",
			"FE", "Fi", "Gl", "Hu", "IE", "Mo", "Ne", "Sk", "Su", "Tm", "VM", "Wn", "Wr",
			"Wz"},
		PlayableGods: []string{"Ashenzari", "Beogh", "Cheibriados", "Dithmenos", "Elyvilon",
			"Fedhas", "Gozag", "Jiyva", "Kikubaaqudgha", "Lugonu", "Makhleb", "Nemelex Xobeh",
			"Okawaru", "Pakellas", "Qazlal", "Ru", "Sif Muna", "the Shining One", "Trog",
			"Vehumet", "Xom", "Yredelemnul", "Zin"},
		RaceToGreatRace: map[string]string{
			"Ce": "greatcentaur", "DD": "greatdeepdwarf", "DE": "greatdeepelf",
			"Dg": "greatdemigod", "Ds": "greatdemonspawn", "Dr": "greatdraconian",
			"Fe": "greatfelid", "Fo": "greatformicid", "Gh": "greatghoul",
			"Gr": "greatgargoyle", "HE": "greathighelf", "HO": "greathillorc",
			"Ha": "greathalfling", "Hu": "greathuman", "Ko": "greatkobold",
			"Mf": "greatmerfolk", "Mi": "greatminotaur", "Mu": "greatmummy",
			"Na": "greatnaga", "Op": "greatoctopode", "Og": "greatogre",
			"Sp": "greatspriggan", "Te": "greattengu", "Tr": "greattroll",
			"VS": "greatvinestalker", "Vp": "greatvampire",
		},
		RoleToGreatRole: map[string]string{
			"AE": "greatairelementalist", "AK": "greatabyssalknight",
			"AM": "greatarcanemarksman", "Ar": "greatartificer", "As": "greatassassin",
			"Be": "greatberserker", "CK": "greatchaosknight", "Cj": "greatconjurer",
			"DK": "greatdeathknight", "EE": "greatearthelementalist",
			"En": "greatenchanter", "FE": "greatfireelementalist",
			"Fi": "greatfighter", "Gl": "greatgladiator", "He": "greathealer",
			"Hu": "greathunter", "IE": "greaticeelementalist", "Mo": "greatmonk",
			"Ne": "greatnecromancer", "Sk": "greatskald", "Su": "greatsummoner",
			"Tm": "greattransmuter", "VM": "greatvenommage", "Wn": "greatwanderer",
			"Wr": "greatwarper", "Wz": "greatwizard",
		},
		Bots:               map[string]struct{}{},
		Griefers:           map[string]map[string]struct{}{},
		ManualAchievements: map[string]map[string]models.Achievement{},
	}
	t.index()
	return t
}

// NewTables builds tables over the given domains with no achievement mappings or blacklists
func NewTables(races, roles, gods []string) *Tables {
	t := &Tables{
		PlayableRaces:      races,
		PlayableRoles:      roles,
		PlayableGods:       gods,
		RaceToGreatRace:    map[string]string{},
		RoleToGreatRole:    map[string]string{},
		Bots:               map[string]struct{}{},
		Griefers:           map[string]map[string]struct{}{},
		ManualAchievements: map[string]map[string]models.Achievement{},
	}
	t.index()
	return t
}

// LoadTables returns the default tables, overridden by the YAML file at path if non-empty
func LoadTables(path string) (*Tables, error) {
	t := DefaultTables()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file %s: %w", path, err)
	}
	if err := t.apply(data); err != nil {
		return nil, fmt.Errorf("failed to parse tables file %s: %w", path, err)
	}
	return t, nil
}

func (t *Tables) apply(data []byte) error {
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}

	if len(f.PlayableRaces) > 0 {
		t.PlayableRaces = f.PlayableRaces
	}
	if len(f.PlayableRoles) > 0 {
		t.PlayableRoles = f.PlayableRoles
	}
	if len(f.PlayableGods) > 0 {
		t.PlayableGods = f.PlayableGods
	}
	if len(f.RaceToGreatRace) > 0 {
		t.RaceToGreatRace = f.RaceToGreatRace
	}
	if len(f.RoleToGreatRole) > 0 {
		t.RoleToGreatRole = f.RoleToGreatRole
	}
	for _, bot := range f.Blacklists.Bots {
		t.Bots[bot] = struct{}{}
	}
	for name, srcs := range f.Blacklists.Griefers {
		if t.Griefers[name] == nil {
			t.Griefers[name] = make(map[string]struct{}, len(srcs))
		}
		for _, src := range srcs {
			t.Griefers[name][src] = struct{}{}
		}
	}
	for player, awards := range f.ManualAchievements {
		values := make(map[string]models.Achievement, len(awards))
		for id, raw := range awards {
			switch v := raw.(type) {
			case bool:
				if !v {
					return fmt.Errorf("manual achievement %s for %s cannot be false", id, player)
				}
				values[id] = models.Unlocked()
			case int:
				values[id] = models.Counter(int64(v))
			default:
				return fmt.Errorf("manual achievement %s for %s has unsupported value %v", id, player, raw)
			}
		}
		t.ManualAchievements[player] = values
	}

	t.index()
	return nil
}

func (t *Tables) index() {
	t.gods = toSet(t.PlayableGods)
}

// IsPlayableGod reports whether god is in the playable god domain
func (t *Tables) IsPlayableGod(god string) bool {
	_, ok := t.gods[god]
	return ok
}

// ManualAchievementPlayers returns the players with manual awards in a stable order
func (t *Tables) ManualAchievementPlayers() []string {
	players := make([]string, 0, len(t.ManualAchievements))
	for p := range t.ManualAchievements {
		players = append(players, p)
	}
	sort.Strings(players)
	return players
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
