package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"learning_aid_backend/internal/model"
	"learning_aid_backend/internal/util"
	"learning_aid_backend/pkg/logger"
	"learning_aid_backend/pkg/monitoring"

	"go.uber.org/zap"
)

type ChatStore interface {
	Append(ctx context.Context, msg *model.ChatMessage) error
	RecentHistory(ctx context.Context, userID string, limit int) ([]model.ChatMessage, error)
}

type ChatState int

const (
	ChatIdle ChatState = iota
	ChatSending
)

func (s ChatState) String() string {
	if s == ChatSending {
		return "sending"
	}
	return "idle"
}

// Exchange is one learner message and the companion's answer.
type Exchange struct {
	Question model.ChatMessage `json:"question"`
	Reply    model.ChatMessage `json:"reply"`
}

// ChatSession is one open conversation with the companion. History is loaded
// once when the session starts; later messages are appended in memory and
// written through to the store.
type ChatSession struct {
	mu         sync.Mutex
	userID     string
	store      ChatStore
	now        func() time.Time
	state      ChatState
	history    []model.ChatMessage
	lastActive time.Time
	lastStamp  time.Time
}

// messageStep keeps consecutive messages apart even on millisecond columns.
const messageStep = time.Millisecond

// stamp returns the creation time of the next message. Times are strictly
// increasing within a session so stored history sorts back into send order.
// Callers hold cs.mu.
func (cs *ChatSession) stamp() time.Time {
	t := cs.now()
	if floor := cs.lastStamp.Add(messageStep); !cs.lastStamp.IsZero() && t.Before(floor) {
		t = floor
	}
	cs.lastStamp = t
	return t
}

func (cs *ChatSession) UserID() string {
	return cs.userID
}

func (cs *ChatSession) State() ChatState {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.state
}

// History returns a copy of the displayed conversation, oldest first.
func (cs *ChatSession) History() []model.ChatMessage {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make([]model.ChatMessage, len(cs.history))
	copy(out, cs.history)
	return out
}

func (cs *ChatSession) idleSince() time.Time {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.lastActive
}

// Send shows the learner's message immediately, stores it, then appends and
// stores the canned reply. Only one Send runs at a time per session; storage
// failures are logged and do not undo the in-memory history.
func (cs *ChatSession) Send(ctx context.Context, text string, lang model.Language) (*Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, util.ErrEmptyMessage
	}

	cs.mu.Lock()
	if cs.state == ChatSending {
		cs.mu.Unlock()
		return nil, util.ErrChatBusy
	}
	cs.state = ChatSending
	question := model.NewChatMessage(cs.userID, text, model.RoleUser, lang, cs.stamp())
	cs.history = append(cs.history, question)
	cs.lastActive = question.CreatedAt
	cs.mu.Unlock()

	defer func() {
		cs.mu.Lock()
		cs.state = ChatIdle
		cs.mu.Unlock()
	}()

	cs.persist(ctx, &question)

	intent := ClassifyIntent(text)
	monitoring.CompanionReplyCounter.WithLabelValues(string(intent), string(lang)).Inc()
	replyText := SelectResponse(text, lang)

	cs.mu.Lock()
	reply := model.NewChatMessage(cs.userID, replyText, model.RoleAssistant, lang, cs.stamp())
	cs.history = append(cs.history, reply)
	cs.lastActive = reply.CreatedAt
	cs.mu.Unlock()

	cs.persist(ctx, &reply)

	return &Exchange{Question: question, Reply: reply}, nil
}

func (cs *ChatSession) persist(ctx context.Context, msg *model.ChatMessage) {
	if err := cs.store.Append(ctx, msg); err != nil {
		logger.Log.Warn("Failed to store chat message",
			zap.String("user_id", cs.userID),
			zap.String("role", string(msg.Role)),
			zap.Error(err),
		)
	}
}

// ChatService hands out chat sessions. The REST API shares one session per
// user; each WebSocket connection gets its own.
type ChatService struct {
	Store        ChatStore
	HistoryLimit int
	Now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*ChatSession
}

func NewChatService(store ChatStore, historyLimit int) *ChatService {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &ChatService{
		Store:        store,
		HistoryLimit: historyLimit,
		Now:          time.Now,
		sessions:     make(map[string]*ChatSession),
	}
}

// NewSession starts a conversation for userID with the most recent stored
// messages. A failed history load starts the session empty.
func (s *ChatService) NewSession(ctx context.Context, userID string) *ChatSession {
	history, err := s.Store.RecentHistory(ctx, userID, s.HistoryLimit)
	if err != nil {
		logger.Log.Warn("Failed to load chat history", zap.String("user_id", userID), zap.Error(err))
		history = nil
	}
	if history == nil {
		history = []model.ChatMessage{}
	}
	cs := &ChatSession{
		userID:     userID,
		store:      s.Store,
		now:        s.Now,
		state:      ChatIdle,
		history:    history,
		lastActive: s.Now(),
	}
	if n := len(history); n > 0 {
		cs.lastStamp = history[n-1].CreatedAt
	}
	return cs
}

// Session returns the shared session of the signed-in user, opening it on first use.
func (s *ChatService) Session(ctx context.Context, sess *Session) (*ChatSession, error) {
	if sess == nil {
		return nil, util.ErrUserNotFound
	}

	s.mu.Lock()
	cs, ok := s.sessions[sess.UserID]
	s.mu.Unlock()
	if ok {
		return cs, nil
	}

	opened := s.NewSession(ctx, sess.UserID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.sessions[sess.UserID]; ok {
		return cs, nil
	}
	s.sessions[sess.UserID] = opened
	monitoring.ActiveChatSessions.Set(float64(len(s.sessions)))
	return opened, nil
}

// Close forgets the user's shared session, e.g. on sign-out.
func (s *ChatService) Close(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	monitoring.ActiveChatSessions.Set(float64(len(s.sessions)))
}

// EvictIdle closes shared sessions untouched for longer than maxIdle.
func (s *ChatService) EvictIdle(now time.Time, maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for userID, cs := range s.sessions {
		if cs.State() == ChatIdle && now.Sub(cs.idleSince()) > maxIdle {
			delete(s.sessions, userID)
			evicted++
		}
	}
	monitoring.ActiveChatSessions.Set(float64(len(s.sessions)))
	return evicted
}
