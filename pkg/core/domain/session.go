package domain

import "fmt"

// PendingLinkBatch is the list of links being composed before submission.
// It is never persisted.
type PendingLinkBatch struct {
	links []LinkRecord
}

func (b *PendingLinkBatch) Add(l LinkRecord) int {
	b.links = append(b.links, l)
	return len(b.links) - 1
}

func (b *PendingLinkBatch) Update(index int, l LinkRecord) error {
	if index < 0 || index >= len(b.links) {
		return fmt.Errorf("pending link %d out of range", index)
	}
	b.links[index] = l
	return nil
}

func (b *PendingLinkBatch) Remove(index int) error {
	if index < 0 || index >= len(b.links) {
		return fmt.Errorf("pending link %d out of range", index)
	}
	b.links = append(b.links[:index], b.links[index+1:]...)
	return nil
}

// Links returns a copy of the pending rows.
func (b *PendingLinkBatch) Links() []LinkRecord {
	out := make([]LinkRecord, len(b.links))
	copy(out, b.links)
	return out
}

func (b *PendingLinkBatch) Len() int { return len(b.links) }

func (b *PendingLinkBatch) Clear() { b.links = nil }

// SessionAppendLog accumulates the links saved during one editing session.
// Display only; the CMS stays the source of truth.
type SessionAppendLog struct {
	links []LinkRecord
}

func (s *SessionAppendLog) Record(links ...LinkRecord) {
	s.links = append(s.links, links...)
}

func (s *SessionAppendLog) Entries() []LinkRecord {
	out := make([]LinkRecord, len(s.links))
	copy(out, s.links)
	return out
}

func (s *SessionAppendLog) Len() int { return len(s.links) }
