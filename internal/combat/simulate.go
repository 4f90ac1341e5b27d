package combat

import (
	"encoding/json"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"arena_ai/internal/config"
	"arena_ai/internal/util"
)

// SimResult summarises one run.
type SimResult struct {
	Scenario        string             `json:"scenario"`
	Seed            int64              `json:"seed"`
	Duration        float64            `json:"duration"`
	Ticks           uint64             `json:"ticks"`
	DamageByUnit    map[string]float64 `json:"damage_by_unit"`
	DamageByAbility map[string]float64 `json:"damage_by_ability"`
	HealingByUnit   map[string]float64 `json:"healing_by_unit"`
	Casts           map[string]int     `json:"casts"`
	Kills           map[string]int     `json:"kills"`
	Survivors       map[string]int     `json:"survivors"`
	SiteOwners      map[string]string  `json:"site_owners,omitempty"`
	Events          []Event            `json:"events,omitempty"`
}

// TickObserver is told how long each Step took.
type TickObserver interface {
	ObserveTick(elapsed time.Duration, living int)
}

// PlayerInput is the per-frame input of the player unit. Press lists slot
// indices pressed this frame.
type PlayerInput struct {
	Move   Vec2
	Block  bool
	Aim    Vec2
	HasAim bool
	Press  []int
}

// World wires every component around one store and clock.
type World struct {
	Env    *Env
	Reg    *Registry
	Tun    config.Tuning
	Store  *Store
	Bus    *Bus
	FX     *FXQueue
	Damage *Pipeline
	Status *StatusEngine
	Caster *Caster
	Squads *Squads
	Brain  *Brain
	Mover  *Mover
	Sites  *Capturer
	Log    zerolog.Logger

	scenario string
	seed     int64
	parallel bool
	observer TickObserver
	playerID string
	input    PlayerInput
	intents  []Intent
	mourned  map[string]bool
	stats    *SimResult
}

type Option func(*World)

func WithLogger(l zerolog.Logger) Option { return func(w *World) { w.Log = l } }

func WithSinks(sinks ...AuditSink) Option {
	return func(w *World) {
		for _, s := range sinks {
			w.Bus.Attach(s)
		}
	}
}

// WithParallelAI decides units concurrently before the serial commit phase.
func WithParallelAI(on bool) Option { return func(w *World) { w.parallel = on } }

// WithRecord keeps every audit event in the run result.
func WithRecord(on bool) Option { return func(w *World) { w.Bus.Keep(on) } }

func WithObserver(o TickObserver) Option { return func(w *World) { w.observer = o } }

func NewWorld(reg *Registry, tun config.Tuning, seed int64, opts ...Option) *World {
	env := &Env{Rng: util.New(seed)}
	bus := NewBus(env)
	store := NewStore()
	fx := NewFXQueue(tun.Combat.FXLifetime)
	dmg := NewPipeline(reg, tun.Combat, env, bus)
	status := NewStatusEngine(reg, store, dmg, bus)
	caster := NewCaster(reg, store, dmg, status, fx, bus, env, tun.Combat)
	squads := NewSquads(store, tun.Guard, env, bus)
	w := &World{
		Env: env, Reg: reg, Tun: tun, Store: store, Bus: bus, FX: fx,
		Damage: dmg, Status: status, Caster: caster, Squads: squads,
		Brain:   NewBrain(store, reg, caster, squads, env, tun),
		Mover:   NewMover(store, reg, env, tun.Move),
		Sites:   NewCapturer(store, tun.Combat, bus),
		Log:     zerolog.Nop(),
		seed:    seed,
		mourned: map[string]bool{},
		stats:   newStats(),
	}
	bus.Attach(SinkFunc(w.account))
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewWorldFromBundle builds the registry and populates the scenario.
func NewWorldFromBundle(b *config.Bundle, seed int64, opts ...Option) (*World, error) {
	reg, err := NewRegistry(&b.Abilities, &b.Effects)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	w := NewWorld(reg, b.Tuning, seed, opts...)
	if err := w.Populate(b.Scenario); err != nil {
		return nil, err
	}
	return w, nil
}

func newStats() *SimResult {
	return &SimResult{
		DamageByUnit:    map[string]float64{},
		DamageByAbility: map[string]float64{},
		HealingByUnit:   map[string]float64{},
		Casts:           map[string]int{},
		Kills:           map[string]int{},
		Survivors:       map[string]int{},
	}
}

func (w *World) account(ev Event) {
	str := func(k string) string {
		s, _ := ev.Payload[k].(string)
		return s
	}
	num := func(k string) float64 {
		f, _ := ev.Payload[k].(float64)
		return f
	}
	switch ev.Type {
	case EvHit:
		if src := str("source"); src != "" {
			w.stats.DamageByUnit[src] += num("dmg")
		}
		ab := str("ability")
		if ab == "" {
			ab = "effects"
		}
		w.stats.DamageByAbility[ab] += num("dmg")
	case EvHeal:
		if src := str("source"); src != "" {
			w.stats.HealingByUnit[src] += num("amount")
		}
	case EvCast:
		w.stats.Casts[str("ability")]++
	case EvKill:
		if k := str("killer"); k != "" {
			w.stats.Kills[k]++
		}
	}
}

// Populate spawns the scenario's sites, terrain and units.
func (w *World) Populate(sc config.ScenarioConfig) error {
	w.scenario = sc.ID
	for _, sd := range sc.Sites {
		s := &Site{ID: sd.ID, Team: sd.Team, Pos: Vec2{sd.Pos.X, sd.Pos.Y}, Radius: sd.Radius}
		if sd.Wall != nil {
			s.Wall = NewWall(sd.Wall.SideHP, sd.Wall.BodyRadius)
		}
		if err := w.Store.AddSite(s); err != nil {
			return fmt.Errorf("site %s: %w", sd.ID, err)
		}
	}
	for _, od := range sc.Obstacles {
		w.Store.AddObstacle(Obstacle{Kind: od.Kind, Pos: Vec2{od.Pos.X, od.Pos.Y}, Radius: od.Radius})
	}
	for _, def := range sc.Units {
		n := def.Count
		if n <= 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			if _, err := w.Spawn(def, i, n); err != nil {
				return err
			}
		}
	}
	return nil
}

// Spawn creates the i-th of n copies of def. Copies spread on a small ring.
func (w *World) Spawn(def config.UnitDef, i, n int) (*Unit, error) {
	slots, err := w.Reg.Loadout(def.Abilities)
	if err != nil {
		return nil, fmt.Errorf("unit %s: %w", def.ID, err)
	}
	kind := ParseKind(def.Kind)
	id := def.ID
	switch {
	case id == "":
		id = w.Store.NewID(kind.String())
	case n > 1:
		id = fmt.Sprintf("%s_%d", def.ID, i+1)
	}
	radius := def.Radius
	if radius <= 0 {
		radius = 12
	}
	pos := Vec2{def.Spawn.X, def.Spawn.Y}
	if n > 1 {
		pos = pos.Add(FromAngle(2 * math.Pi * float64(i) / float64(n)).Scale(radius * 2.5))
	}
	maxHP := def.MaxHP
	if maxHP <= 0 {
		maxHP = 100
	}
	resist := map[string]float64{}
	for k, v := range def.Resist {
		resist[k] = v
	}
	u := &Unit{
		ID: id, Name: def.Name, Kind: kind, Team: def.Team, Role: ParseRole(def.Role),
		Pos: pos, Home: pos, Facing: Vec2{1, 0}, Radius: radius,
		HP: maxHP, MaxHP: maxHP,
		Mana: def.MaxMana, MaxMana: def.MaxMana,
		Stamina: def.MaxStamina, MaxStamina: def.MaxStamina,
		ShieldCap: def.ShieldCap, ManaRegen: def.ManaRegen, StaminaRegen: def.StaminaRegen,
		Stats: Stats{
			Attack: def.Attack, Defense: def.Defense, Speed: def.Speed,
			CritChance: def.CritChance, CritMultiplier: def.CritMultiplier,
			CooldownReduction: def.CooldownReduction, Lifesteal: def.Lifesteal,
			BlockFraction: def.BlockFraction,
		},
		Resist: resist, Slots: slots,
		RespawnDelay: def.RespawnDelay, XPValue: def.XPValue,
	}
	if kind == KindCreature {
		u.Team = ""
	}
	if err := w.Store.AddUnit(u); err != nil {
		return nil, fmt.Errorf("unit %s: %w", id, err)
	}
	if kind == KindPlayer && w.playerID == "" {
		w.playerID = id
	}
	if def.Guard != nil {
		key := SquadKey{Kind: ParseSquadKind(def.Guard.Kind), Site: def.Guard.Site}
		anchor := Vec2{def.Spawn.X, def.Spawn.Y}
		if s, ok := w.Store.Site(def.Guard.Site); ok {
			anchor = s.Pos
		}
		w.Squads.Enlist(u, key, anchor)
	}
	return u, nil
}

// Player returns the player unit, if any.
func (w *World) Player() (*Unit, bool) {
	if w.playerID == "" {
		return nil, false
	}
	return w.Store.Unit(w.playerID)
}

// SetInput stages the player input for the next Step.
func (w *World) SetInput(in PlayerInput) { w.input = in }

// Step advances the world once: status ticks, squad coordination and AI
// decisions, movement, ability resolution, then cleanup.
func (w *World) Step(dt float64) {
	if dt <= 0 || !util.Finite(dt) {
		return
	}
	start := time.Now()
	w.Env.Delta = dt

	units := w.Store.Units()
	for _, u := range units {
		if !u.Alive() {
			continue
		}
		w.Status.Tick(u, dt)
		w.regen(u, dt)
	}

	w.Squads.Update()
	w.decideAll(units)

	w.movePlayer(dt)
	for i, u := range units {
		if in := w.intents[i]; u.Alive() && in.HasDest {
			w.Mover.MoveWithAvoidance(u, in.Dest, dt)
		}
	}

	w.castPlayer()
	for i, u := range units {
		if u.Alive() {
			w.commit(u, w.intents[i])
		}
	}
	w.Caster.AdvanceProjectiles(dt)
	w.Sites.Update(dt)

	w.cleanup()
	w.FX.Advance(dt)
	w.Env.Time += dt
	w.Env.Tick++
	if w.observer != nil {
		w.observer.ObserveTick(time.Since(start), w.living())
	}
}

func (w *World) decideAll(units []*Unit) {
	if cap(w.intents) < len(units) {
		w.intents = make([]Intent, len(units))
	}
	w.intents = w.intents[:len(units)]
	if !w.parallel {
		for i, u := range units {
			w.intents[i] = w.Brain.Decide(u)
			u.AI.Intent = w.intents[i]
		}
		return
	}
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, u := range units {
		i, u := i, u
		g.Go(func() error {
			w.intents[i] = w.Brain.Decide(u)
			u.AI.Intent = w.intents[i]
			return nil
		})
	}
	_ = g.Wait()
}

func (w *World) regen(u *Unit, dt float64) {
	u.Mana = util.Clamp(u.Mana+u.ManaRegen*dt, 0, u.MaxMana)
	if !u.Blocking {
		u.Stamina = util.Clamp(u.Stamina+u.StaminaRegen*dt, 0, u.MaxStamina)
	}
}

func (w *World) movePlayer(dt float64) {
	p, ok := w.Player()
	if !ok || !p.Alive() {
		return
	}
	p.Blocking = w.input.Block && p.Stamina > 0
	if mv := w.input.Move; !mv.IsZero() && util.Finite(mv.X) && util.Finite(mv.Y) {
		reach := math.Max(p.Stats.Speed*dt, 1) * 2
		w.Mover.MoveWithAvoidance(p, p.Pos.Add(mv.Norm().Scale(reach)), dt)
	}
	if w.input.HasAim {
		if d := w.input.Aim.Sub(p.Pos); !d.IsZero() {
			p.Facing = d.Norm()
		}
	}
}

// castPlayer resolves slot presses. The aim picks the hostile nearest to
// it, else the aim point itself. A press the aim cannot satisfy falls back to
// an untargeted cast.
func (w *World) castPlayer() {
	p, ok := w.Player()
	presses := w.input.Press
	w.input.Press = nil
	if !ok || !p.Alive() {
		return
	}
	for _, slot := range presses {
		tgt := Target{}
		if w.input.HasAim {
			tgt = AtPoint(w.input.Aim)
			best := math.Inf(1)
			for _, h := range w.Store.Hostiles(p) {
				if d := h.Pos.Dist(w.input.Aim); d <= h.Radius*2 && d < best {
					tgt, best = AtUnit(h.ID), d
				}
			}
		}
		if !w.Caster.TryCast(p, slot, tgt) && !tgt.IsZero() {
			w.Caster.TryCast(p, slot, Target{})
		}
	}
}

// commit applies one decided intent. Squad gates are re-checked here since
// decisions were made against the same pre-commit blackboard.
func (w *World) commit(u *Unit, in Intent) {
	now := w.Env.Time
	if in.Calm {
		u.Provoked, u.ProvokedBy = false, ""
		u.AI.TargetID, u.AI.Engaged = "", false
	}
	var ball *GuardBall
	if u.Guard != nil {
		ball, _ = w.Squads.Get(u.Guard.Key)
	}
	if in.Cleanse != "" {
		w.cleanse(u, ball, in)
		return
	}
	if in.Slot >= 0 && (ball == nil || ball.GateOpen(in.Gate, now)) {
		if w.Caster.TryCast(u, in.Slot, in.Cast) {
			if ball != nil {
				ball.TakeGate(in.Gate, now, in.GateFor)
			}
			if meta, ok := w.Reg.Ability(u.Slots[in.Slot]); ok && meta.Tactical {
				u.AI.RecoverUntil = now + w.Tun.AI.RecoveryWindow
			}
			return
		}
	}
	if in.WallSite != "" {
		if s, ok := w.Store.Site(in.WallSite); ok {
			w.Caster.LightAttackWall(u, s)
		}
		return
	}
	if in.Light && in.TargetID != "" {
		if t, ok := w.Store.Living(in.TargetID); ok {
			w.Caster.LightAttack(u, t)
		}
	}
}

func (w *World) cleanse(u *Unit, ball *GuardBall, in Intent) {
	now := w.Env.Time
	ally, ok := w.Store.Living(in.Cleanse)
	if !ok || !Allied(u, ally) || u.Mana < w.Tun.Guard.CleanseMana {
		return
	}
	if u.Pos.Dist(ally.Pos) > w.Tun.Guard.HealerBandMax || (ball != nil && !ball.GateOpen(in.Gate, now)) {
		return
	}
	if _, ok := w.Status.Cleanse(ally); !ok {
		return
	}
	u.Mana = util.Clamp(u.Mana-w.Tun.Guard.CleanseMana, 0, u.MaxMana)
	if ball != nil {
		ball.TakeGate(in.Gate, now, in.GateFor)
	}
	w.FX.Push("cleanse", ally.Pos, ally.Radius, "#fff59d", u.ID)
}

// cleanup handles deaths (kill credit, respawn scheduling, state reset),
// due respawns, and stale squads.
func (w *World) cleanup() {
	now := w.Env.Time
	for _, u := range w.Store.Units() {
		if !u.Alive() && !w.mourned[u.ID] {
			w.mourned[u.ID] = true
			u.Dead, u.HP = true, 0
			killer := u.LastAttacker
			if k, ok := w.Store.Unit(killer); ok && k != u {
				k.XP += u.XPValue
			}
			w.Status.Clear(u)
			u.AI, u.Move = AIState{}, MoveState{}
			u.Shield, u.Blocking = 0, false
			if u.RespawnDelay > 0 {
				u.RespawnAt = now + u.RespawnDelay
			}
			w.Bus.Emit(EvKill, map[string]any{"victim": u.ID, "killer": killer, "xp": u.XPValue})
			w.Log.Debug().Str("victim", u.ID).Str("killer", killer).Float64("t", now).Msg("unit died")
			continue
		}
		if u.Dead && u.RespawnAt > 0 && now >= u.RespawnAt {
			w.respawn(u)
		}
	}
	if n := w.Squads.GC(); n > 0 {
		w.Log.Debug().Int("squads", n).Msg("dropped stale squads")
	}
}

func (w *World) respawn(u *Unit) {
	u.Dead, u.RespawnAt = false, 0
	u.HP, u.Mana, u.Stamina = u.MaxHP, u.MaxMana, u.MaxStamina
	u.Pos = u.Home
	u.Provoked, u.ProvokedBy, u.LastAttacker = false, "", ""
	if u.Guard != nil {
		u.Guard.reset()
	}
	delete(w.mourned, u.ID)
	w.Bus.Emit(EvRespawn, map[string]any{"unit": u.ID, "x": u.Pos.X, "y": u.Pos.Y})
}

func (w *World) living() int {
	n := 0
	for _, u := range w.Store.Units() {
		if u.Alive() {
			n++
		}
	}
	return n
}

// Run steps the world for duration seconds at dt and returns the summary.
func (w *World) Run(duration, dt float64) SimResult {
	if dt <= 0 {
		dt = 0.05
	}
	for w.Env.Time < duration-1e-9 {
		w.Step(dt)
	}
	return w.Result()
}

// Result is the summary of everything stepped so far.
func (w *World) Result() SimResult {
	res := *w.stats
	res.Scenario, res.Seed = w.scenario, w.seed
	res.Duration, res.Ticks = w.Env.Time, w.Env.Tick
	res.Survivors = map[string]int{}
	for _, u := range w.Store.Units() {
		if u.Alive() {
			team := u.Team
			if team == "" {
				team = "neutral"
			}
			res.Survivors[team]++
		}
	}
	if sites := w.Store.Sites(); len(sites) > 0 {
		res.SiteOwners = map[string]string{}
		for _, s := range sites {
			res.SiteOwners[s.ID] = s.Team
		}
	}
	res.Events = w.Bus.Events()
	return res
}

func MarshalPretty(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}
