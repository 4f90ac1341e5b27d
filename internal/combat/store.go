package combat

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var (
	ErrDuplicateID = errors.New("duplicate entity id")
	ErrMissingID   = errors.New("missing entity id")
)

// Store owns every unit, site and obstacle record. Other components hold ids
// or pointers handed out here and never copy the records.
type Store struct {
	units     []*Unit
	byID      map[string]*Unit
	sites     []*Site
	siteByID  map[string]*Site
	obstacles []Obstacle
}

func NewStore() *Store {
	return &Store{
		byID:     map[string]*Unit{},
		siteByID: map[string]*Site{},
	}
}

// NewID returns an unused id of the form prefix_xxxxxxxx.
func (s *Store) NewID(prefix string) string {
	if prefix == "" {
		prefix = "u"
	}
	for {
		id := prefix + "_" + uuid.NewString()[:8]
		if _, taken := s.byID[id]; taken {
			continue
		}
		if _, taken := s.siteByID[id]; taken {
			continue
		}
		return id
	}
}

// AddUnit registers u, assigning an id when it has none.
func (s *Store) AddUnit(u *Unit) error {
	if u == nil {
		return ErrMissingID
	}
	if u.ID == "" {
		u.ID = s.NewID(u.Kind.String())
	}
	if _, dup := s.byID[u.ID]; dup {
		return fmt.Errorf("unit %q: %w", u.ID, ErrDuplicateID)
	}
	s.byID[u.ID] = u
	s.units = append(s.units, u)
	return nil
}

// MustAddUnit is AddUnit for setup code; an id collision is a programming
// error and panics.
func (s *Store) MustAddUnit(u *Unit) *Unit {
	if err := s.AddUnit(u); err != nil {
		panic(err)
	}
	return u
}

func (s *Store) Unit(id string) (*Unit, bool) {
	if id == "" {
		return nil, false
	}
	u, ok := s.byID[id]
	return u, ok
}

// Living returns the unit for id only when it exists and is alive.
func (s *Store) Living(id string) (*Unit, bool) {
	u, ok := s.Unit(id)
	if !ok || !u.Alive() {
		return nil, false
	}
	return u, true
}

// Units returns all units in insertion order. The slice must not be modified.
func (s *Store) Units() []*Unit { return s.units }

// Remove despawns a unit; its id becomes free for lookups to miss.
func (s *Store) Remove(id string) bool {
	u, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	for i, x := range s.units {
		if x == u {
			s.units = append(s.units[:i], s.units[i+1:]...)
			break
		}
	}
	return true
}

func (s *Store) AddSite(site *Site) error {
	if site == nil {
		return ErrMissingID
	}
	if site.ID == "" {
		site.ID = s.NewID("site")
	}
	if _, dup := s.siteByID[site.ID]; dup {
		return fmt.Errorf("site %q: %w", site.ID, ErrDuplicateID)
	}
	s.siteByID[site.ID] = site
	s.sites = append(s.sites, site)
	return nil
}

func (s *Store) Site(id string) (*Site, bool) {
	site, ok := s.siteByID[id]
	return site, ok
}

func (s *Store) Sites() []*Site { return s.sites }

func (s *Store) AddObstacle(o Obstacle) { s.obstacles = append(s.obstacles, o) }

func (s *Store) Obstacles() []Obstacle { return s.obstacles }

// Hostiles returns living units hostile to u, nearest first.
func (s *Store) Hostiles(u *Unit) []*Unit {
	var out []*Unit
	for _, x := range s.units {
		if x.Alive() && Hostile(u, x) {
			out = append(out, x)
		}
	}
	sortByDistance(out, u.Pos)
	return out
}

// Allies returns living allies of u including u itself, nearest first.
func (s *Store) Allies(u *Unit) []*Unit {
	var out []*Unit
	for _, x := range s.units {
		if x.Alive() && Allied(u, x) {
			out = append(out, x)
		}
	}
	sortByDistance(out, u.Pos)
	return out
}

// NearestHostile returns the closest living hostile within radius.
func (s *Store) NearestHostile(u *Unit, radius float64) (*Unit, float64) {
	var best *Unit
	bestD := radius
	for _, x := range s.units {
		if !x.Alive() || !Hostile(u, x) {
			continue
		}
		if d := x.Pos.Dist(u.Pos); d <= bestD {
			if best == nil || d < bestD || (d == bestD && x.ID < best.ID) {
				best, bestD = x, d
			}
		}
	}
	return best, bestD
}

func sortByDistance(us []*Unit, from Vec2) {
	sort.SliceStable(us, func(i, j int) bool {
		di, dj := us[i].Pos.Dist(from), us[j].Pos.Dist(from)
		if di != dj {
			return di < dj
		}
		return us[i].ID < us[j].ID
	})
}
