package workflow

import (
	"sync"
)

// DraftStore holds in-flight drafts for serve mode. Drafts are
// transient; abandoning one is just deleting it.
type DraftStore struct {
	drafts map[string]*CardDraft
	mu     sync.RWMutex
}

func NewStore() *DraftStore {
	return &DraftStore{
		drafts: make(map[string]*CardDraft),
	}
}

func (s *DraftStore) Get(draftID string) (*CardDraft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft, exists := s.drafts[draftID]
	return draft, exists
}

func (s *DraftStore) Set(draftID string, draft *CardDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draftID] = draft
}

func (s *DraftStore) GetAll() map[string]*CardDraft {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*CardDraft, len(s.drafts))
	for k, v := range s.drafts {
		result[k] = v
	}
	return result
}

func (s *DraftStore) Delete(draftID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, draftID)
}
