package embed

// Allocate reserves the first Closed slot for a new embedding.
//
// The slot's window handles and owner thread are reset, parent and rect are
// stored, and the slot moves to Started. When every slot is in use the table is
// left untouched and ErrTableFull is returned.
func (t *SharedTable) Allocate(parent Handle, rect Rect) (int, error) {
	for i := range t.Slots {
		s := &t.Slots[i]
		if s.State != StateClosed {
			continue
		}
		s.ID = uint32(i)
		s.OwnerThread = 0
		s.Primary = 0
		s.Secondary = 0
		s.Parent = parent
		s.Rect = rect
		if err := s.Advance(StateStarted); err != nil {
			return -1, err
		}
		return i, nil
	}
	return -1, ErrTableFull
}

// SetOwner records the viewer UI thread that owns slot id. A thread owns at
// most one slot: any other slot still claiming threadID, left behind by an
// earlier viewer whose thread id was reused, loses its claim.
func (t *SharedTable) SetOwner(id int, threadID uint32) error {
	s, err := t.Slot(id)
	if err != nil {
		return err
	}
	if threadID != 0 {
		for i := range t.Slots {
			if i != id && t.Slots[i].OwnerThread == threadID {
				t.Slots[i].OwnerThread = 0
			}
		}
	}
	s.OwnerThread = threadID
	return nil
}

// FindByThread returns the in-use slot owned by threadID.
func (t *SharedTable) FindByThread(threadID uint32) (int, bool) {
	if threadID == 0 {
		return -1, false
	}
	for i := range t.Slots {
		s := &t.Slots[i]
		if s.State != StateClosed && s.OwnerThread == threadID {
			return i, true
		}
	}
	return -1, false
}

// InUse counts slots that are not Closed.
func (t *SharedTable) InUse() int {
	n := 0
	for i := range t.Slots {
		if t.Slots[i].State != StateClosed {
			n++
		}
	}
	return n
}
