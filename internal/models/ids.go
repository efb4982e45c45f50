package models

// maxNoteID returns the highest identifier currently in use, or 0.
func (d *Document) maxNoteID() int {
	highest := 0
	for _, n := range d.Notes {
		if n.ID > highest {
			highest = n.ID
		}
	}
	return highest
}

// VerifyNoteIDs gives every note without a positive identifier a fresh one.
// Fresh identifiers are max+1, max+2, ... in document order.
// It returns the number of identifiers assigned.
func (d *Document) VerifyNoteIDs() int {
	highest := d.maxNoteID()
	assigned := 0
	for _, n := range d.Notes {
		if n.ID > 0 {
			continue
		}
		highest++
		n.ID = highest
		assigned++
	}
	return assigned
}

// AddNote appends n and returns its index. A note without a positive
// identifier receives max+1.
func (d *Document) AddNote(n *Note) int {
	if n.ID <= 0 {
		n.ID = d.maxNoteID() + 1
	}
	d.Notes = append(d.Notes, n)
	return len(d.Notes) - 1
}

// DeleteNote removes the first note with the given identifier and
// reports whether one was removed. The active note index follows the
// removal so that it keeps pointing at the same note, or none.
func (d *Document) DeleteNote(id int) bool {
	for i, n := range d.Notes {
		if n.ID != id {
			continue
		}
		d.Notes = append(d.Notes[:i], d.Notes[i+1:]...)
		switch {
		case d.ActiveNote == i:
			d.ActiveNote = NoActiveNote
		case d.ActiveNote > i:
			d.ActiveNote--
		}
		return true
	}
	return false
}
