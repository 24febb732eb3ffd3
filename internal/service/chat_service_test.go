package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"learning_aid_backend/internal/model"
	"learning_aid_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChatService(store ChatStore, limit int) *ChatService {
	svc := NewChatService(store, limit)
	svc.Now = fixedClock(time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC))
	return svc
}

func TestChatSession_Send(t *testing.T) {
	store := &memChatStore{}
	svc := newTestChatService(store, 50)
	cs := svc.NewSession(context.Background(), "user-1")
	require.Empty(t, cs.History())

	exchange, err := cs.Send(context.Background(), "  hello  ", model.LanguageBurmese)
	require.NoError(t, err)

	assert.Equal(t, "hello", exchange.Question.Message)
	assert.Equal(t, model.RoleUser, exchange.Question.Role)
	assert.Equal(t, model.RoleAssistant, exchange.Reply.Role)
	assert.Equal(t, burmeseReplies[IntentGreeting], exchange.Reply.Message)
	assert.Equal(t, model.LanguageBurmese, exchange.Reply.Language)

	history := cs.History()
	require.Len(t, history, 2)
	assert.Equal(t, exchange.Question.ID, history[0].ID)
	assert.Equal(t, exchange.Reply.ID, history[1].ID)
	assert.Len(t, store.messages, 2)
	assert.Equal(t, ChatIdle, cs.State())
}

func TestChatSession_SendRejects(t *testing.T) {
	store := &memChatStore{}
	cs := newTestChatService(store, 50).NewSession(context.Background(), "user-1")

	_, err := cs.Send(context.Background(), "   ", model.LanguageEnglish)
	assert.ErrorIs(t, err, util.ErrEmptyMessage)

	cs.state = ChatSending
	_, err = cs.Send(context.Background(), "hello", model.LanguageEnglish)
	assert.ErrorIs(t, err, util.ErrChatBusy)

	assert.Empty(t, cs.History())
	assert.Empty(t, store.messages)
}

func TestChatSession_SendKeepsHistoryWhenStoreFails(t *testing.T) {
	store := &memChatStore{appendErr: errStoreDown}
	cs := newTestChatService(store, 50).NewSession(context.Background(), "user-1")

	_, err := cs.Send(context.Background(), "grammar", model.LanguageJapanese)
	require.NoError(t, err)

	history := cs.History()
	require.Len(t, history, 2)
	assert.Equal(t, japaneseReplies[IntentGrammar], history[1].Message)
	assert.Equal(t, ChatIdle, cs.State())
}

func TestChatService_NewSessionLoadsRecentHistory(t *testing.T) {
	store := &memChatStore{}
	base := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		store.messages = append(store.messages,
			model.NewChatMessage("user-1", fmt.Sprintf("m%02d", i), model.RoleUser, model.LanguageEnglish, base.Add(time.Duration(i)*time.Minute)))
	}
	store.messages = append(store.messages,
		model.NewChatMessage("user-2", "other", model.RoleUser, model.LanguageEnglish, base))

	cs := newTestChatService(store, 50).NewSession(context.Background(), "user-1")
	history := cs.History()
	require.Len(t, history, 50)
	assert.Equal(t, "m10", history[0].Message)
	assert.Equal(t, "m59", history[49].Message)

	t.Run("load failure starts empty", func(t *testing.T) {
		failing := &memChatStore{historyErr: errStoreDown}
		cs := newTestChatService(failing, 50).NewSession(context.Background(), "user-1")
		assert.NotNil(t, cs.History())
		assert.Empty(t, cs.History())
	})
}

func TestChatService_SharedSessions(t *testing.T) {
	store := &memChatStore{}
	svc := newTestChatService(store, 50)
	ctx := context.Background()

	_, err := svc.Session(ctx, nil)
	assert.Error(t, err)

	first, err := svc.Session(ctx, &Session{UserID: "user-1"})
	require.NoError(t, err)
	again, err := svc.Session(ctx, &Session{UserID: "user-1"})
	require.NoError(t, err)
	assert.Same(t, first, again)

	other, err := svc.Session(ctx, &Session{UserID: "user-2"})
	require.NoError(t, err)
	assert.NotSame(t, first, other)

	svc.Close("user-1")
	reopened, err := svc.Session(ctx, &Session{UserID: "user-1"})
	require.NoError(t, err)
	assert.NotSame(t, first, reopened)
}

func TestChatService_EvictIdle(t *testing.T) {
	svc := NewChatService(&memChatStore{}, 50)
	start := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return start }
	ctx := context.Background()

	stale, err := svc.Session(ctx, &Session{UserID: "stale"})
	require.NoError(t, err)

	svc.Now = func() time.Time { return start.Add(20 * time.Minute) }
	_, err = svc.Session(ctx, &Session{UserID: "fresh"})
	require.NoError(t, err)

	evicted := svc.EvictIdle(start.Add(31*time.Minute), 30*time.Minute)
	assert.Equal(t, 1, evicted)

	again, err := svc.Session(ctx, &Session{UserID: "stale"})
	require.NoError(t, err)
	assert.NotSame(t, stale, again)
}

func TestChatSession_SendStampsStrictlyIncrease(t *testing.T) {
	frozen := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		history []model.ChatMessage
		want    []time.Time
	}{
		{
			name: "frozen clock",
			want: []time.Time{frozen, frozen.Add(time.Millisecond), frozen.Add(2 * time.Millisecond), frozen.Add(3 * time.Millisecond)},
		},
		{
			name: "stored history ahead of the clock",
			history: []model.ChatMessage{
				model.NewChatMessage("user-1", "earlier", model.RoleAssistant, model.LanguageEnglish, frozen.Add(time.Second)),
			},
			want: []time.Time{
				frozen.Add(time.Second + time.Millisecond), frozen.Add(time.Second + 2*time.Millisecond),
				frozen.Add(time.Second + 3*time.Millisecond), frozen.Add(time.Second + 4*time.Millisecond),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memChatStore{messages: tt.history}
			svc := NewChatService(store, 50)
			svc.Now = func() time.Time { return frozen }
			cs := svc.NewSession(context.Background(), "user-1")

			for _, text := range []string{"hello", "grammar"} {
				_, err := cs.Send(context.Background(), text, model.LanguageEnglish)
				require.NoError(t, err)
			}

			stored := store.messages[len(tt.history):]
			require.Len(t, stored, len(tt.want))
			for i, m := range stored {
				assert.True(t, tt.want[i].Equal(m.CreatedAt), "message %d: got %v", i, m.CreatedAt)
			}
			for i := 1; i < len(stored); i++ {
				assert.True(t, stored[i].CreatedAt.Truncate(time.Millisecond).After(stored[i-1].CreatedAt.Truncate(time.Millisecond)))
			}
		})
	}
}
