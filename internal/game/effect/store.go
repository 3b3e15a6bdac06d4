package effect

import "fmt"

// Store tracks every active effect instance on one combatant, grouped by kind.
// Instances of the same kind stack: each is kept in insertion order and
// expires independently.
// It is not safe for concurrent use; the owning character serialises access.
type Store struct {
	instances map[Kind][]*Instance
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{instances: make(map[Kind][]*Instance)}
}

// Add appends a new instance of kind.
//
// Precondition: kind must be valid; duration must be > 0.
// Postcondition: Has(kind) is true and the new instance is last in Instances(kind).
func (s *Store) Add(kind Kind, magnitude, duration int) error {
	if !kind.Valid() {
		return fmt.Errorf("Add: invalid effect kind %d", kind)
	}
	if duration <= 0 {
		return fmt.Errorf("Add: %s duration must be > 0, got %d", kind, duration)
	}
	s.instances[kind] = append(s.instances[kind], &Instance{Kind: kind, Magnitude: magnitude, Duration: duration})
	return nil
}

// Has reports whether at least one instance of kind is active.
func (s *Store) Has(kind Kind) bool {
	return len(s.instances[kind]) > 0
}

// Count returns the number of active instances of kind.
func (s *Store) Count(kind Kind) int {
	return len(s.instances[kind])
}

// Sum returns the total magnitude of all active instances of kind.
func (s *Store) Sum(kind Kind) int {
	total := 0
	for _, in := range s.instances[kind] {
		total += in.Magnitude
	}
	return total
}

// Instances returns copies of the active instances of kind in insertion order.
func (s *Store) Instances(kind Kind) []Instance {
	list := s.instances[kind]
	out := make([]Instance, len(list))
	for i, in := range list {
		out[i] = *in
	}
	return out
}

// RemoveKind drops every instance of kind and returns how many were removed.
//
// Postcondition: Has(kind) is false.
func (s *Store) RemoveKind(kind Kind) int {
	n := len(s.instances[kind])
	delete(s.instances, kind)
	return n
}

// RemoveFirst drops the oldest instance of kind and returns it.
//
// Postcondition: Returns (instance, true) if one was removed, or (zero, false).
func (s *Store) RemoveFirst(kind Kind) (Instance, bool) {
	list := s.instances[kind]
	if len(list) == 0 {
		return Instance{}, false
	}
	first := *list[0]
	s.set(kind, list[1:])
	return first, true
}

// Clear drops every instance.
func (s *Store) Clear() {
	s.instances = make(map[Kind][]*Instance)
}

// Tick decrements the duration of every instance by one and removes those that
// reach zero or below.
//
// Postcondition: every remaining instance has Duration > 0; the returned slice
// lists each kind that lost at least one instance, in id order.
func (s *Store) Tick() []Kind {
	var expired []Kind
	for _, kind := range Kinds() {
		list := s.instances[kind]
		if len(list) == 0 {
			continue
		}
		kept := list[:0]
		for _, in := range list {
			in.Duration--
			if in.Duration > 0 {
				kept = append(kept, in)
			}
		}
		if len(kept) < len(list) {
			expired = append(expired, kind)
		}
		s.set(kind, kept)
	}
	return expired
}

// Absorb consumes shield instances in AbsorptionOrder against amount.
// A shield whose magnitude covers the remainder is reduced and absorption
// stops; otherwise the shield is consumed and absorption continues. Shields
// that reach zero magnitude are removed.
//
// Postcondition: absorbed + remaining == amount when amount > 0;
// returns (0, amount) when amount <= 0.
func (s *Store) Absorb(amount int) (absorbed, remaining int) {
	remaining = amount
	for _, kind := range AbsorptionOrder {
		if remaining <= 0 {
			break
		}
		list := s.instances[kind]
		kept := list[:0]
		for _, in := range list {
			if remaining <= 0 {
				kept = append(kept, in)
				continue
			}
			if in.Magnitude >= remaining {
				in.Magnitude -= remaining
				absorbed += remaining
				remaining = 0
			} else {
				absorbed += in.Magnitude
				remaining -= in.Magnitude
				in.Magnitude = 0
			}
			if in.Magnitude > 0 {
				kept = append(kept, in)
			}
		}
		s.set(kind, kept)
	}
	return absorbed, remaining
}

// ShieldTotal returns the combined magnitude of every shield-kind instance.
func (s *Store) ShieldTotal() int {
	total := 0
	for _, kind := range AbsorptionOrder {
		total += s.Sum(kind)
	}
	return total
}

// All returns copies of every active instance ordered by kind id, then by
// insertion order within a kind.
func (s *Store) All() []Instance {
	var out []Instance
	for _, kind := range Kinds() {
		out = append(out, s.Instances(kind)...)
	}
	return out
}

// Len returns the total number of active instances.
func (s *Store) Len() int {
	n := 0
	for _, list := range s.instances {
		n += len(list)
	}
	return n
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	cp := NewStore()
	for kind, list := range s.instances {
		for _, in := range list {
			c := *in
			cp.instances[kind] = append(cp.instances[kind], &c)
		}
	}
	return cp
}

func (s *Store) set(kind Kind, list []*Instance) {
	if len(list) == 0 {
		delete(s.instances, kind)
		return
	}
	s.instances[kind] = list
}
