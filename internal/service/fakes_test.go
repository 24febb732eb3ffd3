package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"learning_aid_backend/internal/model"

	"gorm.io/gorm"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*model.User)}
}

// Create mirrors the repository upsert: an existing row keeps its password hash.
func (s *memUserStore) Create(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[user.ID]; ok {
		existing.Name = user.Name
		existing.Email = user.Email
		return nil
	}
	u := *user
	s.users[user.ID] = &u
	return nil
}

func (s *memUserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *u
	return &out, nil
}

func (s *memUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memUserStore) UpdateProfile(ctx context.Context, id, name string, level model.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Name = name
	u.CurrentLevel = level
	return nil
}

type memTokenStore struct {
	revoked map[string]time.Time
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{revoked: make(map[string]time.Time)}
}

func (s *memTokenStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	s.revoked[token] = expiresAt
	return nil
}

func (s *memTokenStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	_, ok := s.revoked[token]
	return ok, nil
}

// memProgressStore keys records the way the unique index does.
type memProgressStore struct {
	mu      sync.Mutex
	records map[string]*model.ProgressRecord
	// applyErrs are returned, in order, before Apply starts working normally.
	applyErrs []error
	listErr   error
	applied   int
}

func newMemProgressStore() *memProgressStore {
	return &memProgressStore{records: make(map[string]*model.ProgressRecord)}
}

func progressKey(userID string, itemType model.ItemType, itemID string) string {
	return userID + "|" + string(itemType) + "|" + itemID
}

func (s *memProgressStore) Apply(ctx context.Context, userID string, itemType model.ItemType, itemID string,
	mutate func(existing *model.ProgressRecord) *model.ProgressRecord) (*model.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied++
	if len(s.applyErrs) > 0 {
		err := s.applyErrs[0]
		s.applyErrs = s.applyErrs[1:]
		return nil, err
	}

	key := progressKey(userID, itemType, itemID)
	var existing *model.ProgressRecord
	if rec, ok := s.records[key]; ok {
		cp := *rec
		existing = &cp
	}
	rec := mutate(existing)
	stored := *rec
	s.records[key] = &stored
	return rec, nil
}

func (s *memProgressStore) ListByUser(ctx context.Context, userID string) ([]model.ProgressRecord, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ProgressRecord
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

type memChatStore struct {
	mu         sync.Mutex
	messages   []model.ChatMessage
	appendErr  error
	historyErr error
}

func (s *memChatStore) Append(ctx context.Context, msg *model.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *memChatStore) RecentHistory(ctx context.Context, userID string, limit int) ([]model.ChatMessage, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var mine []model.ChatMessage
	for _, m := range s.messages {
		if m.UserID == userID {
			mine = append(mine, m)
		}
	}
	if len(mine) > limit {
		mine = mine[len(mine)-limit:]
	}
	return mine, nil
}

type memContentStore struct {
	vocabulary []model.VocabularyItem
	grammar    []model.GrammarPoint
	kaiwa      []model.KaiwaScenario
	err        error
}

func (s *memContentStore) ListVocabulary(ctx context.Context, level model.Level, category string) ([]model.VocabularyItem, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []model.VocabularyItem
	for _, v := range s.vocabulary {
		if v.Level == level && (category == "" || v.Category == category) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *memContentStore) ListGrammar(ctx context.Context, level model.Level) ([]model.GrammarPoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []model.GrammarPoint
	for _, g := range s.grammar {
		if g.Level == level {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *memContentStore) ListKaiwa(ctx context.Context, level model.Level) ([]model.KaiwaScenario, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []model.KaiwaScenario
	for _, k := range s.kaiwa {
		if k.Level == level {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *memContentStore) FindVocabulary(ctx context.Context, id string) (*model.VocabularyItem, error) {
	for i := range s.vocabulary {
		if s.vocabulary[i].ID == id {
			return &s.vocabulary[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memContentStore) FindGrammar(ctx context.Context, id string) (*model.GrammarPoint, error) {
	for i := range s.grammar {
		if s.grammar[i].ID == id {
			return &s.grammar[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memContentStore) FindKaiwa(ctx context.Context, id string) (*model.KaiwaScenario, error) {
	if s.err != nil {
		return nil, s.err
	}
	for i := range s.kaiwa {
		if s.kaiwa[i].ID == id {
			return &s.kaiwa[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

var errStoreDown = errors.New("store unavailable")
