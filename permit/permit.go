package permit

// Permit is a cooperative execution permit with a single holder.
// The zero value is NOT usable; construct with New.
//
// The permit does not track which goroutine holds it: Release must be
// called by the holder, and the caller is responsible for that
// discipline, as with sync.Mutex.
type Permit struct {
	slot chan struct{}
}

// New creates a released permit.
func New() *Permit {
	return &Permit{slot: make(chan struct{}, 1)}
}

// Acquire blocks until the permit is free, then takes it.
func (p *Permit) Acquire() {
	p.slot <- struct{}{}
}

// TryAcquire takes the permit if it is free and reports success.
func (p *Permit) TryAcquire() bool {
	select {
	case p.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees the permit. Releasing a permit that is not held is a
// programming error and panics.
func (p *Permit) Release() {
	select {
	case <-p.slot:
	default:
		panic("permit: release of unheld permit")
	}
}

// Do runs fn while holding the permit.
func (p *Permit) Do(fn func()) {
	p.Acquire()
	defer p.Release()
	fn()
}

// Detach releases the permit around fn and reacquires it afterwards,
// on every exit path. Use it around blocking work so other goroutines
// can enter the serialized section in the meantime. The caller must
// hold the permit.
func (p *Permit) Detach(fn func()) {
	p.Release()
	defer p.Acquire()
	fn()
}
