package service

import (
	"context"

	"gestock/internal/dto"
	"gestock/internal/model"
	"gestock/internal/repository"
	"gestock/internal/stockerr"

	"github.com/google/uuid"
)

// RecipientService manages who receives stock notifications. The workers read
// the active list at delivery time, so changes here apply immediately.
type RecipientService interface {
	Create(ctx context.Context, req dto.CreateRecipientRequest) (*dto.RecipientResponse, error)
	List(ctx context.Context) ([]dto.RecipientResponse, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type recipientService struct {
	repo repository.RecipientRepository
}

func NewRecipientService(repo repository.RecipientRepository) RecipientService {
	return &recipientService{repo: repo}
}

func (s *recipientService) Create(ctx context.Context, req dto.CreateRecipientRequest) (*dto.RecipientResponse, error) {
	if (req.Phone == nil || *req.Phone == "") && (req.Email == nil || *req.Email == "") {
		return nil, &stockerr.ValidationError{Field: "phone", Message: "un téléphone ou un email est obligatoire"}
	}
	rcpt := &model.StockNotificationRecipient{
		ID:       uuid.New(),
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		IsActive: true,
	}
	if err := s.repo.Create(ctx, rcpt); err != nil {
		return nil, err
	}
	resp := recipientToResponse(rcpt)
	return &resp, nil
}

func (s *recipientService) List(ctx context.Context) ([]dto.RecipientResponse, error) {
	recipients, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.RecipientResponse, 0, len(recipients))
	for i := range recipients {
		items = append(items, recipientToResponse(&recipients[i]))
	}
	return items, nil
}

func (s *recipientService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

func (s *recipientService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func recipientToResponse(r *model.StockNotificationRecipient) dto.RecipientResponse {
	return dto.RecipientResponse{
		ID:       r.ID.String(),
		Name:     r.Name,
		Phone:    r.Phone,
		Email:    r.Email,
		IsActive: r.IsActive,
	}
}
