package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/repository"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	UserEmail  string `json:"userEmail"`
	Action     string `json:"action"`
	EntityID   string `json:"entityId"`
	EntityName string `json:"entityName"`
	Details    string `json:"details"`
	CreatedAt  string `json:"createdAt"`
}

type AuditQuery struct {
	Action   string
	EntityID string
	Page     int
	Limit    int
}

type AuditService interface {
	List(ctx context.Context, actor Identity, q AuditQuery) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// List returns the back-office history, newest first. Admins only.
func (s *auditService) List(ctx context.Context, actor Identity, q AuditQuery) ([]AuditLogResponse, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, forbidden("Doar administratorii pot vedea istoricul modificărilor")
	}

	logs, total, err := s.repo.List(ctx, repository.AuditFilter{
		Action:   strings.ToUpper(strings.TrimSpace(q.Action)),
		EntityID: strings.TrimSpace(q.EntityID),
		Page:     q.Page,
		Limit:    q.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		entry := AuditLogResponse{
			ID:         l.ID.String(),
			UserEmail:  "system",
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format(time.RFC3339),
		}
		if l.UserID != nil {
			entry.UserID = l.UserID.String()
		}
		if l.User != nil {
			entry.UserEmail = l.User.Email
		}
		res = append(res, entry)
	}
	return res, total, nil
}
