package hub

import "sync"

// signal is a minimal fan-out registry: subscribers get every emitted value,
// synchronously on the emitter's goroutine. Handlers must be quick and must
// not call back into Subscribe from within themselves.
type signal[T any] struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(T)
}

func (s *signal[T]) subscribe(fn func(T)) func() {
	s.mu.Lock()
	if s.subs == nil {
		s.subs = make(map[int]func(T))
	}
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *signal[T]) emit(v T) {
	s.mu.RLock()
	fns := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

// keyedSignal partitions subscribers by a string key (a STANOX or TD area),
// so per-station and per-area observers only wake for their own traffic.
type keyedSignal[T any] struct {
	mu   sync.RWMutex
	sigs map[string]*signal[T]
}

func (k *keyedSignal[T]) subscribe(key string, fn func(T)) func() {
	k.mu.Lock()
	if k.sigs == nil {
		k.sigs = make(map[string]*signal[T])
	}
	sig, ok := k.sigs[key]
	if !ok {
		sig = &signal[T]{}
		k.sigs[key] = sig
	}
	k.mu.Unlock()

	return sig.subscribe(fn)
}

func (k *keyedSignal[T]) emit(key string, v T) {
	k.mu.RLock()
	sig := k.sigs[key]
	k.mu.RUnlock()

	if sig != nil {
		sig.emit(v)
	}
}
