package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

type TestimonialRequest struct {
	Name      string `json:"name"`
	Location  string `json:"location"`
	Content   string `json:"content"`
	Rating    int    `json:"rating"`
	Image     string `json:"image"`
	IsVisible *bool  `json:"isVisible"`
	Order     int    `json:"order"`
}

type TestimonialService interface {
	ListVisible(ctx context.Context) ([]model.Testimonial, error)
	ListAll(ctx context.Context, actor Identity) ([]model.Testimonial, error)
	Create(ctx context.Context, actor Identity, req TestimonialRequest) (*model.Testimonial, error)
	Update(ctx context.Context, actor Identity, id uuid.UUID, req TestimonialRequest) (*model.Testimonial, error)
	Delete(ctx context.Context, actor Identity, id uuid.UUID) error
}

type testimonialService struct {
	repo repository.TestimonialRepository
}

func NewTestimonialService(repo repository.TestimonialRepository) TestimonialService {
	return &testimonialService{repo: repo}
}

func (req TestimonialRequest) apply(t *model.Testimonial) error {
	name := strings.TrimSpace(req.Name)
	content := strings.TrimSpace(req.Content)
	if name == "" || content == "" {
		return invalid("Numele și conținutul sunt obligatorii")
	}
	if req.Rating == 0 {
		req.Rating = 5
	}
	if req.Rating < 1 || req.Rating > 5 {
		return invalid("Ratingul trebuie să fie între 1 și 5")
	}
	t.Name = name
	t.Location = strings.TrimSpace(req.Location)
	t.Content = content
	t.Rating = req.Rating
	t.Image = strings.TrimSpace(req.Image)
	t.SortOrder = req.Order
	if req.IsVisible != nil {
		t.IsVisible = *req.IsVisible
	}
	return nil
}

func (s *testimonialService) ListVisible(ctx context.Context) ([]model.Testimonial, error) {
	return s.repo.List(ctx, true)
}

func (s *testimonialService) ListAll(ctx context.Context, actor Identity) ([]model.Testimonial, error) {
	if !actor.IsStaff() {
		return nil, forbidden("Acces interzis")
	}
	return s.repo.List(ctx, false)
}

func (s *testimonialService) Create(ctx context.Context, actor Identity, req TestimonialRequest) (*model.Testimonial, error) {
	if !actor.IsStaff() {
		return nil, forbidden("Acces interzis")
	}
	t := &model.Testimonial{IsVisible: true}
	if err := req.apply(t); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create testimonial: %w", err)
	}
	return t, nil
}

func (s *testimonialService) Update(ctx context.Context, actor Identity, id uuid.UUID, req TestimonialRequest) (*model.Testimonial, error) {
	if !actor.IsStaff() {
		return nil, forbidden("Acces interzis")
	}
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Testimonialul nu a fost găsit")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := req.apply(t); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update testimonial: %w", err)
	}
	return t, nil
}

func (s *testimonialService) Delete(ctx context.Context, actor Identity, id uuid.UUID) error {
	if !actor.IsStaff() {
		return forbidden("Acces interzis")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return notFound("Testimonialul nu a fost găsit")
		}
		return fmt.Errorf("failed to delete testimonial: %w", err)
	}
	return nil
}
