package protocol

// reply carries one decoded frame from the reader to the waiter that owns
// the slot.
type reply struct {
	seq uint32
	buf *Buffer
}

// slot is a reusable pipeline station. Its sequence field holds the full
// sequence number of the current in-flight request, or the table's idle
// sentinel when free. Both channels are rendezvous channels that outlive
// individual requests: a receiver must always check the delivered sequence
// against its own, since the sender may be a stale producer racing a
// previous occupant.
type slot struct {
	seq      uint32 // atomic
	deadline uint32 // atomic, epoch seconds since connect, 0 for none
	reply    chan reply
	timeout  chan uint32
}

// table is a lock-free map from sequence numbers to pipeline slots. Lookup
// is seq modulo depth followed by an atomic equality check against the
// slot's current sequence, so a late reply is rejected without any shared
// locking.
//
// Admission control is the seqs channel: it starts with one sequence per
// slot and a request must draw from it before occupying a slot. Releasing a
// slot pushes the next value of its arithmetic progression, which keeps
// successive occupants of a slot unambiguous.
type table struct {
	depth uint32
	span  uint32 // size of the sequence space; doubles as the idle sentinel
	slots []slot
	seqs  chan uint32
}

func newTable(depth int) *table {
	t := &table{
		depth: uint32(depth),
		span:  uint32(depth) * seqSpanPerSlot,
		slots: make([]slot, depth),
		seqs:  make(chan uint32, depth),
	}
	for i := range t.slots {
		t.slots[i].seq = t.span
		t.slots[i].reply = make(chan reply)
		t.slots[i].timeout = make(chan uint32)
		t.seqs <- uint32(i)
	}
	return t
}

// slot returns the pipeline station owning the given sequence.
func (t *table) slot(seq uint32) *slot {
	return &t.slots[seq%t.depth]
}

// next returns the sequence the slot of seq will use for its next occupant.
func (t *table) next(seq uint32) uint32 {
	seq += t.depth
	if seq < t.span {
		return seq
	}
	return seq - t.span
}

// valid reports whether seq is inside the sequence space.
func (t *table) valid(seq uint32) bool {
	return seq < t.span
}
