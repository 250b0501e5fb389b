package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messagingEnv struct {
	*fixture
	svc      MessageService
	notifier *recordingNotifier
	customer Identity
	staff    Identity
}

func newMessagingEnv(t *testing.T) *messagingEnv {
	f := newFixture(t)
	n := newRecordingNotifier()
	return &messagingEnv{
		fixture:  f,
		svc:      NewMessageService(f.conversations, f.tx, n, nil),
		notifier: n,
		customer: f.user(t, "ana@example.com", model.RoleUser),
		staff:    f.user(t, "mod@example.com", model.RoleModerator),
	}
}

func (e *messagingEnv) open(t *testing.T) *model.Conversation {
	t.Helper()
	conv, err := e.svc.CreateConversation(context.Background(), e.customer, CreateConversationRequest{
		Subject: "Livrare întârziată",
		Message: "Bună ziua, comanda mea nu a ajuns.",
	})
	require.NoError(t, err)
	return conv
}

func (e *messagingEnv) flags(t *testing.T, id uuid.UUID) (unreadAdmin, unreadUser bool) {
	t.Helper()
	conv, err := e.conversations.FindByID(context.Background(), id)
	require.NoError(t, err)
	return conv.UnreadAdmin, conv.UnreadUser
}

func TestCreateConversation(t *testing.T) {
	e := newMessagingEnv(t)
	conv := e.open(t)

	assert.Equal(t, model.ConversationOpen, conv.Status)
	assert.True(t, conv.UnreadAdmin)
	assert.False(t, conv.UnreadUser)
	require.Len(t, conv.Messages, 1)
	assert.False(t, conv.Messages[0].IsFromAdmin)

	_, err := e.svc.CreateConversation(context.Background(), e.customer, CreateConversationRequest{Subject: "x", Message: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	select {
	case <-e.notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("message notification not delivered")
	}
	assert.Equal(t, 1, e.notifier.messageCount())
}

func TestUnreadFlipIsOneDirectional(t *testing.T) {
	e := newMessagingEnv(t)
	ctx := context.Background()
	conv := e.open(t)

	// staff reads the thread
	_, err := e.svc.GetConversation(ctx, e.staff, conv.ID)
	require.NoError(t, err)
	admin, user := e.flags(t, conv.ID)
	assert.False(t, admin)
	assert.False(t, user)

	// customer posts: only the staff side lights up
	msg, err := e.svc.PostMessage(ctx, e.customer, conv.ID, "Mai aștept?")
	require.NoError(t, err)
	assert.False(t, msg.IsFromAdmin)
	admin, user = e.flags(t, conv.ID)
	assert.True(t, admin)
	assert.False(t, user)

	// staff replies: only the customer side lights up
	reply, err := e.svc.PostMessage(ctx, e.staff, conv.ID, "Coletul a plecat azi.")
	require.NoError(t, err)
	assert.True(t, reply.IsFromAdmin)
	admin, user = e.flags(t, conv.ID)
	assert.True(t, admin)
	assert.True(t, user)

	// customer reads: only their own marker clears
	thread, err := e.svc.GetConversation(ctx, e.customer, conv.ID)
	require.NoError(t, err)
	assert.Len(t, thread.Messages, 3)
	admin, user = e.flags(t, conv.ID)
	assert.True(t, admin)
	assert.False(t, user)
}

func TestPostBumpsUpdatedAt(t *testing.T) {
	e := newMessagingEnv(t)
	ctx := context.Background()
	older := e.open(t)
	newer := e.open(t)

	time.Sleep(10 * time.Millisecond)
	_, err := e.svc.PostMessage(ctx, e.staff, older.ID, "Revenim imediat.")
	require.NoError(t, err)

	list, total, err := e.svc.ListConversations(ctx, e.staff, ConversationQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, older.ID, list[0].ID)
	assert.Equal(t, newer.ID, list[1].ID)
}

func TestConversationAccess(t *testing.T) {
	e := newMessagingEnv(t)
	ctx := context.Background()
	conv := e.open(t)
	stranger := e.user(t, "ion@example.com", model.RoleUser)

	_, err := e.svc.GetConversation(ctx, stranger, conv.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = e.svc.PostMessage(ctx, stranger, conv.ID, "salut")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = e.svc.GetConversation(ctx, e.customer, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	mine, total, err := e.svc.ListConversations(ctx, stranger, ConversationQuery{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, mine)
}

func TestConversationClosePermission(t *testing.T) {
	e := newMessagingEnv(t)
	ctx := context.Background()
	conv := e.open(t)

	closed, err := e.svc.SetStatus(ctx, e.customer, conv.ID, model.ConversationClosed)
	require.NoError(t, err)
	assert.Equal(t, model.ConversationClosed, closed.Status)

	_, err = e.svc.SetStatus(ctx, e.customer, conv.ID, model.ConversationOpen)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.svc.PostMessage(ctx, e.customer, conv.ID, "încă o întrebare")
	assert.ErrorIs(t, err, ErrValidation)

	// staff may still answer a closed thread without reopening it
	_, err = e.svc.PostMessage(ctx, e.staff, conv.ID, "Am notat.")
	require.NoError(t, err)
	still, err := e.conversations.FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConversationClosed, still.Status)

	reopened, err := e.svc.SetStatus(ctx, e.staff, conv.ID, model.ConversationOpen)
	require.NoError(t, err)
	assert.Equal(t, model.ConversationOpen, reopened.Status)

	_, err = e.svc.SetStatus(ctx, e.staff, conv.ID, "archived")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEditAndDeleteStaffMessages(t *testing.T) {
	e := newMessagingEnv(t)
	ctx := context.Background()
	conv := e.open(t)
	customerMsg := conv.Messages[0]

	reply, err := e.svc.PostMessage(ctx, e.staff, conv.ID, "Verificăm")
	require.NoError(t, err)

	_, err = e.svc.EditMessage(ctx, e.customer, conv.ID, reply.ID, "hack")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = e.svc.EditMessage(ctx, e.staff, conv.ID, customerMsg.ID, "rescris")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = e.svc.EditMessage(ctx, e.staff, uuid.New(), reply.ID, "alt fir")
	assert.ErrorIs(t, err, ErrNotFound)

	edited, err := e.svc.EditMessage(ctx, e.staff, conv.ID, reply.ID, "Verificăm cu curierul")
	require.NoError(t, err)
	require.NotNil(t, edited.EditedAt)
	assert.Equal(t, "Verificăm cu curierul", edited.Content)

	require.NoError(t, e.svc.DeleteMessage(ctx, e.staff, conv.ID, reply.ID))
	thread, err := e.svc.GetConversation(ctx, e.staff, conv.ID)
	require.NoError(t, err)
	require.Len(t, thread.Messages, 1)
	assert.Equal(t, customerMsg.ID, thread.Messages[0].ID)

	assert.ErrorIs(t, e.svc.DeleteMessage(ctx, e.staff, conv.ID, reply.ID), ErrNotFound)
}

func TestMessageLengthLimit(t *testing.T) {
	e := newMessagingEnv(t)
	conv := e.open(t)
	_, err := e.svc.PostMessage(context.Background(), e.customer, conv.ID, strings.Repeat("ă", maxMessageLength+1))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUnreadCount(t *testing.T) {
	e := newMessagingEnv(t)
	ctx := context.Background()
	conv := e.open(t)
	e.open(t)

	n, err := e.svc.UnreadCount(ctx, e.staff)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = e.svc.PostMessage(ctx, e.staff, conv.ID, "Răspuns")
	require.NoError(t, err)
	n, err = e.svc.UnreadCount(ctx, e.customer)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
