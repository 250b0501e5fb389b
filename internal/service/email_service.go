package service

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"storefront/internal/logging"
	"storefront/internal/mailer"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// sendConcurrency bounds in-flight deliveries of one broadcast.
const sendConcurrency = 4

// DTOs
type EmailTemplateRequest struct {
	Name    string `json:"name" binding:"required"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type SendEmailRequest struct {
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	Audience   string     `json:"audience"`
	Roles      []string   `json:"roles"`
	TemplateID *uuid.UUID `json:"templateId"`
}

type NewsletterRequest struct {
	Email string `json:"email" binding:"required"`
}

type EmailLogsResponse struct {
	Logs  []model.EmailLog `json:"logs"`
	Total int64            `json:"total"`
	Stats EmailStatsView   `json:"stats"`
}

type EmailStatsView struct {
	repository.EmailStats
	ActiveSubscribers int64 `json:"activeSubscribers"`
}

type EmailService interface {
	ListTemplates(ctx context.Context) ([]model.EmailTemplate, error)
	CreateTemplate(ctx context.Context, req EmailTemplateRequest) (*model.EmailTemplate, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, req EmailTemplateRequest) (*model.EmailTemplate, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error

	Subscribe(ctx context.Context, email string) (*model.NewsletterSubscriber, error)
	Unsubscribe(ctx context.Context, email string) error
	ListSubscribers(ctx context.Context, page, limit int) ([]model.NewsletterSubscriber, int64, error)

	Send(ctx context.Context, actor Identity, req SendEmailRequest) (*model.EmailLog, error)
	Logs(ctx context.Context, actor Identity, page, limit int) (*EmailLogsResponse, error)
}

type emailService struct {
	templates  repository.EmailTemplateRepository
	logs       repository.EmailLogRepository
	newsletter repository.NewsletterRepository
	users      repository.UserRepository
	audit      repository.AuditRepository
	mailer     mailer.Mailer
	metrics    *metrics.Metrics
}

func NewEmailService(
	templates repository.EmailTemplateRepository,
	logs repository.EmailLogRepository,
	newsletter repository.NewsletterRepository,
	users repository.UserRepository,
	audit repository.AuditRepository,
	m mailer.Mailer,
	mt *metrics.Metrics,
) EmailService {
	return &emailService{
		templates:  templates,
		logs:       logs,
		newsletter: newsletter,
		users:      users,
		audit:      audit,
		mailer:     m,
		metrics:    mt,
	}
}

func (s *emailService) ListTemplates(ctx context.Context) ([]model.EmailTemplate, error) {
	return s.templates.List(ctx)
}

func (req EmailTemplateRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Body) == "" {
		return invalid("Numele, subiectul și conținutul șablonului sunt obligatorii")
	}
	return nil
}

func (s *emailService) CreateTemplate(ctx context.Context, req EmailTemplateRequest) (*model.EmailTemplate, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	t := &model.EmailTemplate{
		Name:    strings.TrimSpace(req.Name),
		Subject: strings.TrimSpace(req.Subject),
		Body:    req.Body,
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return t, nil
}

func (s *emailService) UpdateTemplate(ctx context.Context, id uuid.UUID, req EmailTemplateRequest) (*model.EmailTemplate, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	t, err := s.templates.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Șablonul nu a fost găsit")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	t.Name = strings.TrimSpace(req.Name)
	t.Subject = strings.TrimSpace(req.Subject)
	t.Body = req.Body
	if err := s.templates.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return t, nil
}

func (s *emailService) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if err := s.templates.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return notFound("Șablonul nu a fost găsit")
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

func (s *emailService) Subscribe(ctx context.Context, email string) (*model.NewsletterSubscriber, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("Adresa de email nu este validă")
	}
	sub, err := s.newsletter.Subscribe(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return sub, nil
}

func (s *emailService) Unsubscribe(ctx context.Context, email string) error {
	if err := s.newsletter.Unsubscribe(ctx, normalizeEmail(email)); err != nil {
		if repository.IsNotFound(err) {
			return notFound("Adresa nu este abonată la newsletter")
		}
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return nil
}

func (s *emailService) ListSubscribers(ctx context.Context, page, limit int) ([]model.NewsletterSubscriber, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	return s.newsletter.List(ctx, page, limit)
}

// recipients resolves the audience into a sorted, de-duplicated address list.
func (s *emailService) recipients(ctx context.Context, req SendEmailRequest) ([]string, error) {
	var sources [][]string
	switch req.Audience {
	case model.AudienceNewsletter:
		emails, err := s.newsletter.ListActiveEmails(ctx)
		if err != nil {
			return nil, err
		}
		sources = append(sources, emails)
	case model.AudienceRoles:
		if len(req.Roles) == 0 {
			return nil, invalid("Selectați cel puțin un rol")
		}
		for _, r := range req.Roles {
			if !model.ValidRole(r) {
				return nil, invalid("Rolul nu este valid: " + r)
			}
		}
		emails, err := s.users.ListEmailsByRoles(ctx, req.Roles)
		if err != nil {
			return nil, err
		}
		sources = append(sources, emails)
	case model.AudienceAll:
		subscribers, err := s.newsletter.ListActiveEmails(ctx)
		if err != nil {
			return nil, err
		}
		users, err := s.users.ListEmailsByRoles(ctx, nil)
		if err != nil {
			return nil, err
		}
		sources = append(sources, subscribers, users)
	default:
		return nil, invalid("Destinatarii trebuie să fie newsletter, roles sau all")
	}

	seen := map[string]struct{}{}
	var out []string
	for _, list := range sources {
		for _, e := range list {
			e = normalizeEmail(e)
			if e == "" {
				continue
			}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Send delivers one individually addressed email per recipient. A failed
// delivery is recorded and never stops the rest of the batch.
func (s *emailService) Send(ctx context.Context, actor Identity, req SendEmailRequest) (*model.EmailLog, error) {
	if !actor.IsAdmin() {
		return nil, forbidden("Doar administratorii pot trimite emailuri")
	}
	if req.TemplateID != nil {
		t, err := s.templates.FindByID(ctx, *req.TemplateID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, notFound("Șablonul nu a fost găsit")
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
		if strings.TrimSpace(req.Subject) == "" {
			req.Subject = t.Subject
		}
		if strings.TrimSpace(req.Body) == "" {
			req.Body = t.Body
		}
	}
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Subject == "" || strings.TrimSpace(req.Body) == "" {
		return nil, invalid("Subiectul și conținutul emailului sunt obligatorii")
	}

	recipients, err := s.recipients(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, invalid("Nu există destinatari pentru audiența selectată")
	}

	results := make([]error, len(recipients))
	var g errgroup.Group
	g.SetLimit(sendConcurrency)
	for i, to := range recipients {
		g.Go(func() error {
			results[i] = s.mailer.Send(ctx, mailer.Message{To: to, Subject: req.Subject, Text: req.Body})
			return nil
		})
	}
	_ = g.Wait()

	entry := &model.EmailLog{
		Subject:        req.Subject,
		Audience:       req.Audience,
		RecipientCount: len(recipients),
	}
	if actor.UserID != uuid.Nil {
		entry.SentBy = &actor.UserID
	}
	for i, err := range results {
		if err != nil {
			entry.FailedCount++
			entry.Errors = append(entry.Errors, model.EmailFailure{Email: recipients[i], Error: err.Error()})
			logging.FromContext(ctx).WarnContext(ctx, "broadcast delivery failed", "to", recipients[i], "error", err)
			continue
		}
		entry.SentCount++
	}
	switch {
	case entry.FailedCount == 0:
		entry.Status = model.EmailStatusSent
	case entry.SentCount == 0:
		entry.Status = model.EmailStatusFailed
	default:
		entry.Status = model.EmailStatusPartial
	}
	if entry.Errors == nil {
		entry.Errors = []model.EmailFailure{}
	}

	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to store email log: %w", err)
	}
	if err := s.audit.Record(ctx, actor.UserID, model.ActionSendBroadcast, entry.ID.String(), entry.Subject,
		map[string]interface{}{"audience": entry.Audience, "sent": entry.SentCount, "failed": entry.FailedCount}); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "audit broadcast failed", "error", err)
	}
	s.metrics.EmailsDelivered(entry.SentCount, entry.FailedCount)
	logging.FromContext(ctx).InfoContext(ctx, "broadcast sent",
		"email_log_id", entry.ID, "recipients", entry.RecipientCount, "sent", entry.SentCount, "failed", entry.FailedCount)
	return entry, nil
}

// Logs returns the broadcast history with aggregate stats. Super admin only.
func (s *emailService) Logs(ctx context.Context, actor Identity, page, limit int) (*EmailLogsResponse, error) {
	if !actor.SuperAdmin {
		return nil, forbidden("Doar super administratorii pot vedea istoricul emailurilor")
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	logs, total, err := s.logs.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list email logs: %w", err)
	}
	stats, err := s.logs.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute email stats: %w", err)
	}
	active, err := s.newsletter.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count subscribers: %w", err)
	}
	return &EmailLogsResponse{
		Logs:  logs,
		Total: total,
		Stats: EmailStatsView{EmailStats: stats, ActiveSubscribers: active},
	}, nil
}
