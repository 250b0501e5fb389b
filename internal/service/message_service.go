package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

const (
	maxMessageLength = 5000
	maxSubjectLength = 255
)

// DTOs
type CreateConversationRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

type SetConversationStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ConversationQuery struct {
	Status string
	Unread bool
	Page   int
	Limit  int
}

type UnreadResponse struct {
	Count int64 `json:"count"`
}

type MessageService interface {
	ListConversations(ctx context.Context, caller Identity, q ConversationQuery) ([]model.Conversation, int64, error)
	CreateConversation(ctx context.Context, caller Identity, req CreateConversationRequest) (*model.Conversation, error)
	GetConversation(ctx context.Context, caller Identity, id uuid.UUID) (*model.Conversation, error)
	PostMessage(ctx context.Context, caller Identity, id uuid.UUID, content string) (*model.Message, error)
	SetStatus(ctx context.Context, caller Identity, id uuid.UUID, status string) (*model.Conversation, error)
	EditMessage(ctx context.Context, caller Identity, conversationID, messageID uuid.UUID, content string) (*model.Message, error)
	DeleteMessage(ctx context.Context, caller Identity, conversationID, messageID uuid.UUID) error
	UnreadCount(ctx context.Context, caller Identity) (int64, error)
}

type messageService struct {
	conversations repository.ConversationRepository
	txManager     repository.TransactionManager
	notifier      notify.Notifier
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewMessageService(conversations repository.ConversationRepository, txManager repository.TransactionManager, notifier notify.Notifier, m *metrics.Metrics) MessageService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &messageService{
		conversations: conversations,
		txManager:     txManager,
		notifier:      notifier,
		metrics:       m,
		now:           time.Now,
	}
}

func cleanContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", invalid("Mesajul nu poate fi gol")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return "", invalid(fmt.Sprintf("Mesajul poate avea cel mult %d de caractere", maxMessageLength))
	}
	return content, nil
}

// ListConversations returns the caller's own threads, or every thread for staff.
func (s *messageService) ListConversations(ctx context.Context, caller Identity, q ConversationQuery) ([]model.Conversation, int64, error) {
	if q.Status != "" && q.Status != model.ConversationOpen && q.Status != model.ConversationClosed {
		return nil, 0, invalid("Statusul conversației nu este valid")
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 50
	}
	filter := repository.ConversationFilter{Status: q.Status, Page: q.Page, Limit: q.Limit}
	if caller.IsStaff() {
		filter.UnreadAdmin = q.Unread
	} else {
		filter.UserID = &caller.UserID
	}
	conversations, total, err := s.conversations.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, total, nil
}

// CreateConversation opens a thread together with its first customer message.
func (s *messageService) CreateConversation(ctx context.Context, caller Identity, req CreateConversationRequest) (*model.Conversation, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, invalid("Subiectul este obligatoriu")
	}
	if utf8.RuneCountInString(subject) > maxSubjectLength {
		return nil, invalid("Subiectul este prea lung")
	}
	content, err := cleanContent(req.Message)
	if err != nil {
		return nil, err
	}

	conversation := &model.Conversation{
		UserID:      caller.UserID,
		Subject:     subject,
		Status:      model.ConversationOpen,
		UnreadAdmin: true,
		UnreadUser:  false,
	}
	var first *model.Message
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.conversations.Create(txCtx, conversation); err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}
		first = &model.Message{
			ConversationID: conversation.ID,
			SenderID:       caller.UserID,
			Content:        content,
			IsFromAdmin:    false,
		}
		if err := s.conversations.CreateMessage(txCtx, first); err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	conversation.Messages = []model.Message{*first}
	s.metrics.MessagePosted(false)
	s.notifyPosted(ctx, conversation, first)
	return conversation, nil
}

func (s *messageService) load(ctx context.Context, caller Identity, id uuid.UUID, withMessages bool) (*model.Conversation, error) {
	var (
		conversation *model.Conversation
		err          error
	)
	if withMessages {
		conversation, err = s.conversations.FindByIDWithMessages(ctx, id)
	} else {
		conversation, err = s.conversations.FindByID(ctx, id)
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Conversația nu a fost găsită")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if conversation.UserID != caller.UserID && !caller.IsStaff() {
		return nil, forbidden("Nu aveți acces la această conversație")
	}
	return conversation, nil
}

// GetConversation returns the full thread and clears the caller's own
// unread marker. The other side's marker is left alone.
func (s *messageService) GetConversation(ctx context.Context, caller Identity, id uuid.UUID) (*model.Conversation, error) {
	conversation, err := s.load(ctx, caller, id, true)
	if err != nil {
		return nil, err
	}

	owner := conversation.UserID == caller.UserID
	switch {
	case owner && conversation.UnreadUser:
		if err := s.conversations.ClearUnread(ctx, id, false); err != nil {
			return nil, fmt.Errorf("failed to mark conversation read: %w", err)
		}
		conversation.UnreadUser = false
	case !owner && conversation.UnreadAdmin:
		if err := s.conversations.ClearUnread(ctx, id, true); err != nil {
			return nil, fmt.Errorf("failed to mark conversation read: %w", err)
		}
		conversation.UnreadAdmin = false
	}
	return conversation, nil
}

// PostMessage appends a message and raises the recipient's unread marker.
// IsFromAdmin reflects the sender's role at send time.
func (s *messageService) PostMessage(ctx context.Context, caller Identity, id uuid.UUID, content string) (*model.Message, error) {
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}

	var (
		message      *model.Message
		conversation *model.Conversation
	)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		conversation, err = s.load(txCtx, caller, id, false)
		if err != nil {
			return err
		}
		fromStaff := caller.IsStaff()
		if conversation.Status == model.ConversationClosed && !fromStaff {
			return invalid("Conversația este închisă")
		}

		message = &model.Message{
			ConversationID: id,
			SenderID:       caller.UserID,
			Content:        content,
			IsFromAdmin:    fromStaff,
		}
		if err := s.conversations.CreateMessage(txCtx, message); err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		recipientFlag := "unread_admin"
		if fromStaff {
			recipientFlag = "unread_user"
		}
		return s.conversations.UpdateFields(txCtx, id, map[string]interface{}{recipientFlag: true})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.MessagePosted(message.IsFromAdmin)
	if !message.IsFromAdmin {
		s.notifyPosted(ctx, conversation, message)
	}
	return message, nil
}

func (s *messageService) notifyPosted(ctx context.Context, conversation *model.Conversation, message *model.Message) {
	event := notify.MessageEvent{
		ConversationID: conversation.ID,
		MessageID:      message.ID,
		SenderID:       message.SenderID,
		Subject:        conversation.Subject,
		Preview:        notify.Preview(message.Content, 140),
		IsFromAdmin:    message.IsFromAdmin,
		CreatedAt:      message.CreatedAt,
	}
	go func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()
		if err := s.notifier.MessagePosted(ctx, event); err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "message notification failed", "conversation_id", event.ConversationID, "error", err)
		}
	}(context.WithoutCancel(ctx))
}

// SetStatus lets the owner close a thread; only staff may reopen one.
func (s *messageService) SetStatus(ctx context.Context, caller Identity, id uuid.UUID, status string) (*model.Conversation, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != model.ConversationOpen && status != model.ConversationClosed {
		return nil, invalid("Statusul conversației nu este valid")
	}

	conversation, err := s.load(ctx, caller, id, false)
	if err != nil {
		return nil, err
	}
	if !caller.IsStaff() && status != model.ConversationClosed {
		return nil, forbidden("Doar echipa poate redeschide o conversație")
	}
	if conversation.Status == status {
		return conversation, nil
	}

	if err := s.conversations.UpdateFields(ctx, id, map[string]interface{}{"status": status}); err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}
	return s.conversations.FindByID(ctx, id)
}

func (s *messageService) staffMessage(ctx context.Context, caller Identity, conversationID, messageID uuid.UUID) (*model.Message, error) {
	if !caller.IsStaff() {
		return nil, forbidden("Doar echipa poate modifica mesajele")
	}
	message, err := s.conversations.FindMessage(ctx, conversationID, messageID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Mesajul nu a fost găsit")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !message.IsFromAdmin {
		return nil, forbidden("Mesajele clienților nu pot fi modificate")
	}
	return message, nil
}

func (s *messageService) EditMessage(ctx context.Context, caller Identity, conversationID, messageID uuid.UUID, content string) (*model.Message, error) {
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}
	message, err := s.staffMessage(ctx, caller, conversationID, messageID)
	if err != nil {
		return nil, err
	}

	editedAt := s.now()
	message.Content = content
	message.EditedAt = &editedAt
	if err := s.conversations.UpdateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}
	return message, nil
}

func (s *messageService) DeleteMessage(ctx context.Context, caller Identity, conversationID, messageID uuid.UUID) error {
	message, err := s.staffMessage(ctx, caller, conversationID, messageID)
	if err != nil {
		return err
	}
	if err := s.conversations.DeleteMessage(ctx, message.ID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// UnreadCount counts threads flagged unread for the caller's side.
func (s *messageService) UnreadCount(ctx context.Context, caller Identity) (int64, error) {
	if caller.IsStaff() {
		return s.conversations.CountUnreadForStaff(ctx)
	}
	return s.conversations.CountUnreadForUser(ctx, caller.UserID)
}
