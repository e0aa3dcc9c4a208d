package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelia-care/aurelia/internal/app/session"
	"github.com/aurelia-care/aurelia/internal/domain"
)

// recordingStore counts saves and can be told to fail them.
type recordingStore struct {
	mu    sync.Mutex
	saves int
	fail  bool
	last  *domain.ProfileSnapshot
}

func (r *recordingStore) Load(ctx context.Context, id domain.ProfileID) (*domain.ProfileSnapshot, error) {
	return nil, nil
}

func (r *recordingStore) Save(ctx context.Context, id domain.ProfileID, snap *domain.ProfileSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	r.last = snap
	if r.fail {
		return domain.ErrPersistenceFailure
	}
	return nil
}

func (r *recordingStore) Profiles(ctx context.Context) ([]domain.ProfileID, error) {
	return nil, nil
}

func (r *recordingStore) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func newStore(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore("profile-1", nil, nil)
}

func TestNewStoreAlwaysHasAnActiveChat(t *testing.T) {
	s := newStore(t)

	active := s.ActiveChatID()
	require.NotEmpty(t, active)

	chat, err := s.Chat(active)
	require.NoError(t, err)
	assert.Equal(t, domain.UntitledChatName, chat.Name)
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, domain.RoleAssistant, chat.Messages[0].Role)
	assert.Equal(t, session.GreetingText, chat.Messages[0].Content)
}

func TestCreateChatBecomesActiveAndIsMostRecent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	first := s.ActiveChatID()

	second := s.CreateChat(ctx)

	assert.Equal(t, second, s.ActiveChatID())
	chats := s.Chats()
	require.Len(t, chats, 2)
	assert.Equal(t, second, chats[0].ID)
	assert.Equal(t, first, chats[1].ID)
}

func TestDeleteActiveChatPromotesMostRecent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	first := s.ActiveChatID()
	second := s.CreateChat(ctx)

	require.NoError(t, s.DeleteChat(ctx, second))

	assert.Equal(t, first, s.ActiveChatID())
	require.Len(t, s.Chats(), 1)
}

func TestDeleteLastChatSynthesizesAFreshOne(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	only := s.ActiveChatID()

	require.NoError(t, s.DeleteChat(ctx, only))

	active := s.ActiveChatID()
	require.NotEmpty(t, active)
	assert.NotEqual(t, only, active)

	chat, err := s.Chat(active)
	require.NoError(t, err)
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, session.GreetingText, chat.Messages[0].Content)
}

func TestDeleteInactiveChatKeepsActiveSelection(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	first := s.ActiveChatID()
	second := s.CreateChat(ctx)

	require.NoError(t, s.DeleteChat(ctx, first))

	assert.Equal(t, second, s.ActiveChatID())
}

func TestDeleteUnknownChat(t *testing.T) {
	s := newStore(t)
	err := s.DeleteChat(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrChatNotFound)
}

func TestAppendMessagePreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	id := s.ActiveChatID()

	for _, content := range []string{"one", "two", "three"} {
		require.NoError(t, s.AppendMessage(ctx, id, &domain.Message{
			Role: domain.RoleUser, Content: content,
		}))
	}

	history, err := s.History(id)
	require.NoError(t, err)
	require.Len(t, history, 4) // greeting + 3
	assert.Equal(t, "one", history[1].Content)
	assert.Equal(t, "two", history[2].Content)
	assert.Equal(t, "three", history[3].Content)

	for _, m := range history {
		assert.NotEmpty(t, m.ID)
		assert.False(t, m.CreatedAt.IsZero())
	}
}

func TestHistoryIsACopy(t *testing.T) {
	s := newStore(t)
	id := s.ActiveChatID()

	history, err := s.History(id)
	require.NoError(t, err)
	history[0].Content = "mutated"

	fresh, err := s.History(id)
	require.NoError(t, err)
	assert.Equal(t, session.GreetingText, fresh[0].Content)
}

func TestRenameChat(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	id := s.ActiveChatID()

	require.NoError(t, s.RenameChat(ctx, id, "Feeling overwhelmed at work"))

	chat, err := s.Chat(id)
	require.NoError(t, err)
	assert.Equal(t, "Feeling overwhelmed at work", chat.Name)
}

func TestSetActiveChatUnknown(t *testing.T) {
	s := newStore(t)
	assert.ErrorIs(t, s.SetActiveChat(context.Background(), "nope"), domain.ErrChatNotFound)
}

func TestSetValuesOnEmptyLongTerm(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	s.SetValues(ctx, "honesty, steadiness")

	assert.Equal(t, "honesty, steadiness", s.LongTerm().ValuesAndGoals)
}

func TestMutationsPersistInBackground(t *testing.T) {
	ctx := context.Background()
	rec := &recordingStore{}
	s := session.NewStore("profile-1", nil, rec)

	id := s.CreateChat(ctx)
	require.NoError(t, s.AppendMessage(ctx, id, &domain.Message{
		Role: domain.RoleUser, Content: "hello",
	}))

	require.Eventually(t, func() bool {
		return rec.saveCount() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestPersistFailureDoesNotAffectOperations(t *testing.T) {
	ctx := context.Background()
	rec := &recordingStore{fail: true}
	s := session.NewStore("profile-1", nil, rec)

	id := s.CreateChat(ctx)
	require.NoError(t, s.AppendMessage(ctx, id, &domain.Message{
		Role: domain.RoleUser, Content: "still works",
	}))

	history, err := s.History(id)
	require.NoError(t, err)
	assert.Equal(t, "still works", history[len(history)-1].Content)
}

func TestManagerLoadFailureStartsEmpty(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(&failingLoadStore{})

	s := m.ForProfile(ctx, "profile-1")

	require.NotNil(t, s)
	assert.NotEmpty(t, s.ActiveChatID())
}

func TestManagerReturnsSameStore(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(&recordingStore{})

	a := m.ForProfile(ctx, "profile-1")
	b := m.ForProfile(ctx, "profile-1")
	other := m.ForProfile(ctx, "profile-2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
}

type failingLoadStore struct{}

func (f *failingLoadStore) Load(ctx context.Context, id domain.ProfileID) (*domain.ProfileSnapshot, error) {
	return nil, errors.New("backend down")
}

func (f *failingLoadStore) Save(ctx context.Context, id domain.ProfileID, snap *domain.ProfileSnapshot) error {
	return nil
}

func (f *failingLoadStore) Profiles(ctx context.Context) ([]domain.ProfileID, error) {
	return nil, nil
}
