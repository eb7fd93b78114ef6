package data

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/arenashooter/arena/internal/core/clock"
	"github.com/arenashooter/arena/internal/geom"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// ErrUnknownConfig is returned when a symbolic object name is not in the catalog.
var ErrUnknownConfig = errors.New("unknown object config")

// NoRef marks an unset config reference.
const NoRef = -1

// ObjectConfig is the static description of one kind of game object.
// Its index in the Catalog is the object's config_ref.
type ObjectConfig struct {
	Name        string
	Type        ObjType
	Side        Side
	CollideSpan float64
	Speed       float64
	HP          float64 // 0 = indestructible

	Weapon *WeaponConfig
	AI     *AIConfig
	Search *SearchConfig

	Explosion    string // config spawned where the object dies
	ExplosionRef int
	Damage       float64 // dealt on impact (missiles) or on spawn (effects)
	DamageSpan   float64
	Lifetime     time.Duration // effects expire after this long; 0 = never
	Phaseout     time.Duration // dying bots fade this long before removal
}

func (c *ObjectConfig) Mortal() bool { return c.HP > 0 }

type WeaponConfig struct {
	Missile      string
	MissileRef   int
	FireInterval time.Duration
	FirePoints   []FirePoint
}

// FirePoint is a muzzle relative to the shooter, expressed in the shooter's
// frame where +X is the facing direction.
type FirePoint struct {
	Pos       geom.Vec2
	Direction geom.Vec2
}

type AIConfig struct {
	Kind             AIKind
	ChaseProbability float64
	ChaseDuration    time.Duration
	ShootDuration    time.Duration
	ChaseRedirect    time.Duration
	ShootRedirect    time.Duration
	Script           string // Lua function name for scripted decisions
}

// SearchConfig enables periodic enemy search around the object.
type SearchConfig struct {
	Radius   float64
	Interval time.Duration
	Targets  []ObjType // empty = every non-bot type
}

// Accepts reports whether a candidate of type t may be chosen as a target.
func (s *SearchConfig) Accepts(t ObjType) bool {
	if len(s.Targets) == 0 {
		return t != TypeBot
	}
	for _, want := range s.Targets {
		if want == t {
			return true
		}
	}
	return false
}

// --- YAML layout ---

type objectsFile struct {
	Objects []rawObject `yaml:"objects"`
}

type rawObject struct {
	Name        string     `yaml:"name"`
	Type        string     `yaml:"type"`
	Side        string     `yaml:"side"`
	CollideSpan float64    `yaml:"collide_span"`
	Speed       float64    `yaml:"speed"`
	HP          float64    `yaml:"hp"`
	Weapon      *rawWeapon `yaml:"weapon"`
	AI          *rawAI     `yaml:"ai"`
	Search      *rawSearch `yaml:"search"`
	Explosion   string     `yaml:"explosion"`
	Damage      float64    `yaml:"damage"`
	DamageSpan  float64    `yaml:"damage_span"`
	Lifetime    float64    `yaml:"lifetime"`
	Phaseout    float64    `yaml:"phaseout"`
}

type rawWeapon struct {
	Missile      string         `yaml:"missile"`
	FireInterval float64        `yaml:"fire_interval"`
	FirePoints   []rawFirePoint `yaml:"fire_points"`
}

type rawFirePoint struct {
	Pos       [2]float64 `yaml:"pos"`
	Direction [2]float64 `yaml:"direction"`
}

type rawAI struct {
	Kind             string  `yaml:"kind"`
	ChaseProbability float64 `yaml:"chase_probability"`
	ChaseDuration    float64 `yaml:"chase_duration"`
	ShootDuration    float64 `yaml:"shoot_duration"`
	ChaseRedirect    float64 `yaml:"chase_redirect_interval"`
	ShootRedirect    float64 `yaml:"shoot_redirect_interval"`
	Script           string  `yaml:"script"`
}

type rawSearch struct {
	Radius   float64  `yaml:"radius"`
	Interval float64  `yaml:"interval"`
	Targets  []string `yaml:"targets"`
}

// Catalog holds every object config, indexed by config_ref and by name.
type Catalog struct {
	configs        []*ObjectConfig
	byName         map[string]int
	maxCollideSpan float64
}

// LoadCatalog loads object configs from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read objects %s: %w", path, err)
	}
	c, err := ParseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("objects %s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes YAML, resolves cross references and validates.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var f objectsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse objects: %w", err)
	}
	c := &Catalog{
		configs: make([]*ObjectConfig, 0, len(f.Objects)),
		byName:  make(map[string]int, len(f.Objects)),
	}
	var errs error
	for i := range f.Objects {
		cfg, err := convertObject(&f.Objects[i])
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if _, dup := c.byName[cfg.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("object %q defined twice", cfg.Name))
			continue
		}
		c.byName[cfg.Name] = len(c.configs)
		c.configs = append(c.configs, cfg)
	}
	if errs != nil {
		return nil, errs
	}
	if err := c.resolve(); err != nil {
		return nil, err
	}
	return c, nil
}

func convertObject(r *rawObject) (*ObjectConfig, error) {
	if r.Name == "" {
		return nil, errors.New("object without name")
	}
	var errs error
	typ, err := ParseObjType(r.Type)
	errs = multierr.Append(errs, err)
	side, err := ParseSide(r.Side)
	errs = multierr.Append(errs, err)

	cfg := &ObjectConfig{
		Name:         r.Name,
		Type:         typ,
		Side:         side,
		CollideSpan:  r.CollideSpan,
		Speed:        r.Speed,
		HP:           r.HP,
		Explosion:    r.Explosion,
		ExplosionRef: NoRef,
		Damage:       r.Damage,
		DamageSpan:   r.DamageSpan,
		Lifetime:     clock.Seconds(r.Lifetime),
		Phaseout:     clock.Seconds(r.Phaseout),
	}
	if r.Weapon != nil {
		w := &WeaponConfig{
			Missile:      r.Weapon.Missile,
			MissileRef:   NoRef,
			FireInterval: clock.Seconds(r.Weapon.FireInterval),
		}
		for _, fp := range r.Weapon.FirePoints {
			dir := geom.FromArr(fp.Direction).Normalize()
			if dir.IsZero() {
				dir = geom.V(1, 0)
			}
			w.FirePoints = append(w.FirePoints, FirePoint{Pos: geom.FromArr(fp.Pos), Direction: dir})
		}
		if len(w.FirePoints) == 0 {
			w.FirePoints = []FirePoint{{Direction: geom.V(1, 0)}}
		}
		cfg.Weapon = w
	}
	if r.AI != nil {
		kind, err := ParseAIKind(r.AI.Kind)
		errs = multierr.Append(errs, err)
		cfg.AI = &AIConfig{
			Kind:             kind,
			ChaseProbability: r.AI.ChaseProbability,
			ChaseDuration:    clock.Seconds(r.AI.ChaseDuration),
			ShootDuration:    clock.Seconds(r.AI.ShootDuration),
			ChaseRedirect:    clock.Seconds(r.AI.ChaseRedirect),
			ShootRedirect:    clock.Seconds(r.AI.ShootRedirect),
			Script:           r.AI.Script,
		}
	}
	if r.Search != nil {
		s := &SearchConfig{Radius: r.Search.Radius, Interval: clock.Seconds(r.Search.Interval)}
		for _, name := range r.Search.Targets {
			t, err := ParseObjType(name)
			errs = multierr.Append(errs, err)
			s.Targets = append(s.Targets, t)
		}
		cfg.Search = s
	}
	if errs != nil {
		return nil, fmt.Errorf("object %q: %w", r.Name, errs)
	}
	return cfg, nil
}

// resolve fills name references and runs Validate.
func (c *Catalog) resolve() error {
	for _, cfg := range c.configs {
		if cfg.Explosion != "" {
			if ref, ok := c.byName[cfg.Explosion]; ok {
				cfg.ExplosionRef = ref
			}
		}
		if cfg.Weapon != nil {
			if ref, ok := c.byName[cfg.Weapon.Missile]; ok {
				cfg.Weapon.MissileRef = ref
			}
		}
		if cfg.CollideSpan > c.maxCollideSpan {
			c.maxCollideSpan = cfg.CollideSpan
		}
	}
	return c.Validate()
}

// Validate checks every config and reports all problems together.
func (c *Catalog) Validate() error {
	var errs error
	for _, cfg := range c.configs {
		if cfg.CollideSpan < 0 {
			errs = multierr.Append(errs, fmt.Errorf("object %q: negative collide_span %g", cfg.Name, cfg.CollideSpan))
		}
		if cfg.Speed < 0 {
			errs = multierr.Append(errs, fmt.Errorf("object %q: negative speed %g", cfg.Name, cfg.Speed))
		}
		if cfg.Explosion != "" && cfg.ExplosionRef == NoRef {
			errs = multierr.Append(errs, fmt.Errorf("object %q: explosion %q: %w", cfg.Name, cfg.Explosion, ErrUnknownConfig))
		}
		if w := cfg.Weapon; w != nil {
			if w.MissileRef == NoRef {
				errs = multierr.Append(errs, fmt.Errorf("object %q: missile %q: %w", cfg.Name, w.Missile, ErrUnknownConfig))
			} else if c.configs[w.MissileRef].Type != TypeMissile {
				errs = multierr.Append(errs, fmt.Errorf("object %q: weapon missile %q is a %s", cfg.Name, w.Missile, c.configs[w.MissileRef].Type))
			}
			if w.FireInterval <= 0 {
				errs = multierr.Append(errs, fmt.Errorf("object %q: fire_interval must be positive", cfg.Name))
			}
		}
		if a := cfg.AI; a != nil {
			if cfg.Type != TypeBot {
				errs = multierr.Append(errs, fmt.Errorf("object %q: ai on a %s", cfg.Name, cfg.Type))
			}
			if a.ChaseProbability < 0 || a.ChaseProbability > 1 {
				errs = multierr.Append(errs, fmt.Errorf("object %q: chase_probability %g outside [0,1]", cfg.Name, a.ChaseProbability))
			}
			if a.ChaseDuration <= 0 || a.ShootDuration <= 0 {
				errs = multierr.Append(errs, fmt.Errorf("object %q: chase and shoot durations must be positive", cfg.Name))
			}
			if a.Kind == AIScripted && a.Script == "" {
				errs = multierr.Append(errs, fmt.Errorf("object %q: scripted ai needs a script function", cfg.Name))
			}
		}
		if s := cfg.Search; s != nil && s.Radius <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("object %q: search radius must be positive", cfg.Name))
		}
	}
	return errs
}

// Get returns the config for ref, or nil if ref is out of range.
func (c *Catalog) Get(ref int) *ObjectConfig {
	if ref < 0 || ref >= len(c.configs) {
		return nil
	}
	return c.configs[ref]
}

// Ref resolves a symbolic name to its config_ref.
func (c *Catalog) Ref(name string) (int, error) {
	ref, ok := c.byName[name]
	if !ok {
		return NoRef, fmt.Errorf("%q: %w", name, ErrUnknownConfig)
	}
	return ref, nil
}

// Count returns the number of loaded configs.
func (c *Catalog) Count() int {
	return len(c.configs)
}

// MaxCollideSpan is the largest collide_span of any config.
func (c *Catalog) MaxCollideSpan() float64 {
	return c.maxCollideSpan
}
