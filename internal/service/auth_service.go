package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/session"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is a User without sensitive fields
type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	IsSuperAdmin  bool      `json:"isSuperAdmin"`
	IsBlocked     bool      `json:"isBlocked"`
	BlockedReason string    `json:"blockedReason,omitempty"`
	Provider      string    `json:"provider"`
	Image         string    `json:"image,omitempty"`
	CreatedAt     string    `json:"createdAt"`
}

type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"` // seconds
	User      UserResponse `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*SessionResponse, error)
	Login(ctx context.Context, req LoginRequest) (*SessionResponse, error)
	Logout(ctx context.Context, claims *Claims) error
	Authenticate(ctx context.Context, token string) (Identity, *Claims, error)
	Me(ctx context.Context, identity Identity) (*UserResponse, error)
}

type authService struct {
	users   repository.UserRepository
	tokens  *TokenManager
	revoker session.Revoker
	policy  *AccessPolicy
}

func NewAuthService(users repository.UserRepository, tokens *TokenManager, revoker session.Revoker, policy *AccessPolicy) AuthService {
	return &authService{users: users, tokens: tokens, revoker: revoker, policy: policy}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*SessionResponse, error) {
	email := normalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("Adresa de email nu este validă")
	}
	if len(req.Password) < 6 {
		return nil, invalid("Parola trebuie să aibă cel puțin 6 caractere")
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, invalid("Există deja un cont cu această adresă de email")
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:    email,
		Name:     strings.TrimSpace(req.Name),
		Password: string(hashed),
		Role:     model.RoleUser,
		Provider: model.ProviderCredentials,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*SessionResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &DomainError{Kind: ErrUnauthorized, Message: "Email sau parolă incorectă"}
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, &DomainError{Kind: ErrUnauthorized, Message: "Email sau parolă incorectă"}
	}
	if user.IsBlocked {
		return nil, blockedError(user)
	}
	return s.issue(user)
}

func (s *authService) issue(user *model.User) (*SessionResponse, error) {
	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &SessionResponse{
		Token:     token,
		ExpiresIn: int64(s.tokens.TTL().Seconds()),
		User:      mapToResponse(s.policy, user),
	}, nil
}

func (s *authService) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, s.tokens.Remaining(claims))
}

// Authenticate verifies token and reloads the user so role and block state
// always come from the database, not from the token.
func (s *authService) Authenticate(ctx context.Context, token string) (Identity, *Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Identity{}, nil, &DomainError{Kind: ErrUnauthorized, Message: "Sesiune invalidă sau expirată"}
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		slog.WarnContext(ctx, "token revocation check failed", "error", err)
	}
	if revoked {
		return Identity{}, nil, &DomainError{Kind: ErrUnauthorized, Message: "Sesiunea a fost închisă"}
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, nil, &DomainError{Kind: ErrUnauthorized, Message: "Sesiune invalidă sau expirată"}
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return Identity{}, nil, &DomainError{Kind: ErrUnauthorized, Message: "Contul nu mai există"}
		}
		return Identity{}, nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.IsBlocked {
		return Identity{}, nil, blockedError(user)
	}
	return s.policy.Resolve(user), claims, nil
}

func (s *authService) Me(ctx context.Context, identity Identity) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Utilizatorul nu a fost găsit")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	res := mapToResponse(s.policy, user)
	return &res, nil
}

func blockedError(user *model.User) error {
	msg := "Contul dumneavoastră a fost blocat"
	if user.BlockedReason != "" {
		msg += ": " + user.BlockedReason
	}
	return forbidden(msg)
}
