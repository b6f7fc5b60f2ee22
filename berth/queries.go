package berth

// GetBerth returns the occupant of a berth, if any.
func (s *State) GetBerth(area, berthID string) (Occupant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	occ, ok := s.berths[Key{Area: area, Berth: berthID}]
	return occ, ok
}

// AllBerths returns a snapshot of every occupied berth.
func (s *State) AllBerths() map[Key]Occupant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Key]Occupant, len(s.berths))
	for k, v := range s.berths {
		out[k] = v
	}
	return out
}

// BerthsInArea returns a snapshot of occupied berths in one TD area, keyed by
// berth ID.
func (s *State) BerthsInArea(area string) map[string]Occupant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Occupant)
	for k, v := range s.berths {
		if k.Area == area {
			out[k.Berth] = v
		}
	}
	return out
}

// OccupiedCount returns the number of currently occupied berths.
func (s *State) OccupiedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.berths)
}

// PlatformState returns the derived state of a platform, if tracked.
func (s *State) PlatformState(platformID string) (Platform, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.platforms[platformID]
	return p, ok
}

// AllPlatformStates returns a snapshot of every tracked platform.
func (s *State) AllPlatformStates() map[string]Platform {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Platform, len(s.platforms))
	for k, v := range s.platforms {
		out[k] = v
	}
	return out
}

// EventHistory returns the recorded berth operations, oldest first. The
// returned slice is a copy.
func (s *State) EventHistory() []EventRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Snapshot()
}
