package entity

import (
	"bytes"
	"sync"

	"github.com/joseph-ayodele/finreport-extractor/constants"
)

// Entry is one document's row in a ResultSet.
type Entry struct {
	DocumentID string
	Record     Record
	Source     constants.RecordSource
}

// ResultSet maps document identifiers to records, preserving insertion order.
type ResultSet struct {
	mu      sync.RWMutex
	index   map[string]int
	entries []Entry
}

func NewResultSet() *ResultSet {
	return &ResultSet{index: map[string]int{}}
}

// Set inserts rec under id. An existing id keeps its position and gets the new value.
func (s *ResultSet) Set(id string, rec Record, src constants.RecordSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		s.index = map[string]int{}
	}
	if i, ok := s.index[id]; ok {
		s.entries[i] = Entry{DocumentID: id, Record: rec, Source: src}
		return
	}
	s.index[id] = len(s.entries)
	s.entries = append(s.entries, Entry{DocumentID: id, Record: rec, Source: src})
}

func (s *ResultSet) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Record{}, false
	}
	return s.entries[i].Record, true
}

func (s *ResultSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Keys returns document ids in insertion order.
func (s *ResultSet) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.DocumentID
	}
	return out
}

// Entries returns a snapshot of the rows in insertion order.
func (s *ResultSet) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// MarshalJSON writes a JSON object whose keys follow insertion order.
func (s *ResultSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := EncodeNoEscape(e.DocumentID)
		if err != nil {
			return nil, err
		}
		v, err := e.Record.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
