package bridge

import "sync"

// callRecord is the unit of cross-thread synchronization: one caller
// and the owner thread share it for the lifetime of exactly one call.
// It is stack-scoped — constructed fresh when a call is admitted and
// discarded when the caller resumes — so overlapping calls can never
// alias each other's wait state. Admission itself is serialized by the
// bridge's call mutex, which is held around the whole post/wait/wake
// window.
type callRecord struct {
	mu        sync.Mutex
	cond      *sync.Cond
	completed bool
	err       error
}

func newCallRecord() *callRecord {
	r := &callRecord{}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// complete stores the call's result and wakes the waiting caller.
// Called on the owner thread. Completing twice is a no-op; the first
// result wins.
func (r *callRecord) complete(err error) {
	r.mu.Lock()
	if !r.completed {
		r.completed = true
		r.err = err
		r.cond.Signal()
	}
	r.mu.Unlock()
}

// wait blocks the caller until the owner thread completes the record.
// r.mu must be held; Wait releases it while suspended and re-acquires
// it before returning.
func (r *callRecord) wait() error {
	for !r.completed {
		r.cond.Wait()
	}
	return r.err
}

// result returns the outcome without blocking, for the owner-thread
// fast path where completion, if it came at all, came synchronously.
func (r *callRecord) result() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed, r.err
}
