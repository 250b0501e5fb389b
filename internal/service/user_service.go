package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// DTOs for Request validation
type UpdateUserRequest struct {
	Role          *string `json:"role"`
	IsBlocked     *bool   `json:"isBlocked"`
	BlockedReason *string `json:"blockedReason"`
}

type UserQuery struct {
	Search string
	Role   string
	Page   int
	Limit  int
}

// UserService is the admin surface over accounts
type UserService interface {
	ListUsers(ctx context.Context, actor Identity, q UserQuery) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actor Identity, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error)
	RevokeRole(ctx context.Context, actor Identity, id uuid.UUID) (*UserResponse, error)
}

type userService struct {
	repo      repository.UserRepository
	audit     repository.AuditRepository
	txManager repository.TransactionManager
	policy    *AccessPolicy
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, audit repository.AuditRepository, txManager repository.TransactionManager, policy *AccessPolicy) UserService {
	return &userService{repo: repo, audit: audit, txManager: txManager, policy: policy}
}

// mapToResponse strips sensitive fields and resolves super admin status at read time
func mapToResponse(policy *AccessPolicy, user *model.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Role:          user.Role,
		IsSuperAdmin:  policy.IsSuperAdmin(user.Email),
		IsBlocked:     user.IsBlocked,
		BlockedReason: user.BlockedReason,
		Provider:      user.Provider,
		Image:         user.Image,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
	}
}

func (s *userService) ListUsers(ctx context.Context, actor Identity, q UserQuery) ([]UserResponse, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, forbidden("Doar administratorii pot gestiona utilizatorii")
	}
	if q.Role != "" && !model.ValidRole(q.Role) {
		return nil, 0, invalid("Rolul nu este valid")
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}

	users, total, err := s.repo.List(ctx, repository.UserFilter{
		Search: strings.TrimSpace(q.Search),
		Role:   q.Role,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, mapToResponse(s.policy, &users[i]))
	}
	return res, total, nil
}

// guardTarget loads the target account and applies the protections shared by
// every admin mutation: missing → 404, super admin → 403, self → 400.
func (s *userService) guardTarget(ctx context.Context, actor Identity, id uuid.UUID) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, forbidden("Doar administratorii pot gestiona utilizatorii")
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Utilizatorul nu a fost găsit")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if s.policy.IsSuperAdmin(user.Email) {
		return nil, forbidden("Contul unui super administrator nu poate fi modificat")
	}
	if user.ID == actor.UserID {
		return nil, invalid("Nu vă puteți modifica propriul cont")
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor Identity, id uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	var user *model.User
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.guardTarget(txCtx, actor, id)
		if err != nil {
			return err
		}

		changes := map[string]interface{}{}
		if req.Role != nil {
			role := strings.ToLower(strings.TrimSpace(*req.Role))
			if !model.ValidRole(role) {
				return invalid("Rolul nu este valid")
			}
			if role != user.Role {
				changes["role"] = map[string]string{"from": user.Role, "to": role}
				user.Role = role
			}
		}
		if req.IsBlocked != nil {
			if *req.IsBlocked {
				reason := ""
				if req.BlockedReason != nil {
					reason = strings.TrimSpace(*req.BlockedReason)
				}
				user.IsBlocked = true
				user.BlockedReason = reason
				changes["blocked"] = reason
			} else if user.IsBlocked {
				user.IsBlocked = false
				user.BlockedReason = ""
				changes["unblocked"] = true
			}
		}
		if len(changes) == 0 {
			return nil
		}

		if err := s.repo.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return s.audit.Record(txCtx, actor.UserID, model.ActionUpdateUser, user.ID.String(), user.Email, changes)
	})
	if err != nil {
		return nil, err
	}

	res := mapToResponse(s.policy, user)
	return &res, nil
}

// RevokeRole demotes the target back to a regular user.
func (s *userService) RevokeRole(ctx context.Context, actor Identity, id uuid.UUID) (*UserResponse, error) {
	var user *model.User
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.guardTarget(txCtx, actor, id)
		if err != nil {
			return err
		}
		previous := user.Role
		user.Role = model.RoleUser
		if err := s.repo.Update(txCtx, user); err != nil {
			return fmt.Errorf("failed to revoke role: %w", err)
		}
		return s.audit.Record(txCtx, actor.UserID, model.ActionRevokeRole, user.ID.String(), user.Email,
			map[string]string{"from": previous, "to": model.RoleUser})
	})
	if err != nil {
		return nil, err
	}

	res := mapToResponse(s.policy, user)
	return &res, nil
}
