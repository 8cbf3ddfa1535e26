package service

import (
	"context"
	"fmt"
	"time"

	"gestock/internal/dto"
	"gestock/internal/model"
	"gestock/internal/repository"
	"gestock/internal/stockerr"
	"gestock/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// StockService is the stock movement journal: the only component allowed to
// mutate product quantities. Every mutation is a journal line, every journal
// line is reversible, and every check-then-write runs under a row lock.
type StockService interface {
	CreateMovement(ctx context.Context, req dto.CreateMovementRequest) (*dto.MovementResponse, error)
	GetMovement(ctx context.Context, id uuid.UUID) (*dto.MovementResponse, error)
	ListMovements(ctx context.Context, filter repository.StockMovementFilter) (*dto.MovementListResponse, error)
	SoftDeleteMovement(ctx context.Context, id uuid.UUID) error
	RestoreMovement(ctx context.Context, id uuid.UUID) error

	// Transaction-scoped primitives for the document engine. Each one locks
	// the product row, so check and write serialize against concurrent calls.
	CreateMovementTx(tx *gorm.DB, productID uuid.UUID, movementType string, quantity int, comment string, referenceID *uuid.UUID) (*model.StockMovement, error)
	ReverseMovementTx(tx *gorm.DB, m *model.StockMovement) error
	ReapplyMovementTx(tx *gorm.DB, m *model.StockMovement) error

	// NotifyMovements dispatches post-commit SMS/email notifications.
	// company selects the Orange credential set; empty means the default.
	// Fire-and-forget: failures are logged, never propagated.
	NotifyMovements(ctx context.Context, company string, movements []*model.StockMovement)
}

type stockService struct {
	movements  repository.StockMovementRepository
	products   repository.ProductRepository
	recipients repository.RecipientRepository
	dispatcher *worker.Dispatcher
}

func NewStockService(
	movements repository.StockMovementRepository,
	products repository.ProductRepository,
	recipients repository.RecipientRepository,
	dispatcher *worker.Dispatcher,
) StockService {
	return &stockService{
		movements:  movements,
		products:   products,
		recipients: recipients,
		dispatcher: dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── CreateMovement ────────────────────────────────────────────────────────────

func (s *stockService) CreateMovement(ctx context.Context, req dto.CreateMovementRequest) (*dto.MovementResponse, error) {
	var movement *model.StockMovement
	txErr := runTx(ctx, s.movements.DB(), func(tx *gorm.DB) error {
		m, err := s.CreateMovementTx(tx, req.ProductID, req.MovementType, req.Quantity, req.Comment, nil)
		if err != nil {
			return err
		}
		movement = m
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// Standalone journal entries carry no billing entity; the default
	// credential set applies.
	s.NotifyMovements(ctx, "", []*model.StockMovement{movement})
	return movementToResponse(movement), nil
}

func (s *stockService) CreateMovementTx(tx *gorm.DB, productID uuid.UUID, movementType string, quantity int, comment string, referenceID *uuid.UUID) (*model.StockMovement, error) {
	if movementType != model.MovementEntry && movementType != model.MovementExit {
		return nil, &stockerr.ValidationError{Field: "movement_type", Message: "type de mouvement invalide (ENTRY ou EXIT attendu)"}
	}
	if quantity <= 0 {
		return nil, &stockerr.ValidationError{Field: "quantity", Message: "la quantité doit être strictement positive"}
	}

	p, err := s.products.FindByIDForUpdateTx(tx, productID)
	if err != nil {
		return nil, err
	}
	if p.DeletedAt != nil {
		return nil, &stockerr.NotFoundError{Entity: "produit"}
	}

	delta := quantity
	if movementType == model.MovementExit {
		if p.Quantity < quantity {
			return nil, &stockerr.InsufficientStockError{
				Product:   p.Name,
				Available: p.Quantity,
				Requested: quantity,
			}
		}
		delta = -quantity
	}

	if err := s.products.AdjustStockTx(tx, productID, delta); err != nil {
		return nil, err
	}

	m := &model.StockMovement{
		ID:           uuid.New(),
		ProductID:    productID,
		MovementType: movementType,
		Quantity:     quantity,
		Date:         time.Now(),
		Comment:      comment,
		StockBefore:  p.Quantity,
		StockAfter:   p.Quantity + delta,
		ReferenceID:  referenceID,
	}
	if err := s.movements.CreateTx(tx, m); err != nil {
		return nil, err
	}
	m.Product = p
	return m, nil
}

// ── Reversal and restore ──────────────────────────────────────────────────────
// State machine per movement: ACTIVE → (soft delete) → REVERSED → (restore) →
// ACTIVE. Both directions are idempotent and both re-check non-negativity
// under the product row lock.

func (s *stockService) SoftDeleteMovement(ctx context.Context, id uuid.UUID) error {
	return runTx(ctx, s.movements.DB(), func(tx *gorm.DB) error {
		m, err := s.movements.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		return s.ReverseMovementTx(tx, m)
	})
}

func (s *stockService) ReverseMovementTx(tx *gorm.DB, m *model.StockMovement) error {
	if m.Reversed() {
		return nil // idempotent
	}

	p, err := s.products.FindByIDForUpdateTx(tx, m.ProductID)
	if err != nil {
		return err
	}

	// Reversing an ENTRY subtracts it back; that stock may already have been
	// consumed elsewhere.
	delta := -m.Delta()
	if p.Quantity+delta < 0 {
		return &stockerr.InsufficientStockError{
			Product:   p.Name,
			Available: p.Quantity,
			Requested: m.Quantity,
		}
	}

	if err := s.products.AdjustStockTx(tx, m.ProductID, delta); err != nil {
		return err
	}
	now := time.Now()
	if err := s.movements.SetDeletedAtTx(tx, m.ID, &now); err != nil {
		return err
	}
	m.DeletedAt = &now
	return nil
}

func (s *stockService) RestoreMovement(ctx context.Context, id uuid.UUID) error {
	return runTx(ctx, s.movements.DB(), func(tx *gorm.DB) error {
		m, err := s.movements.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		return s.ReapplyMovementTx(tx, m)
	})
}

func (s *stockService) ReapplyMovementTx(tx *gorm.DB, m *model.StockMovement) error {
	if !m.Reversed() {
		return nil // idempotent
	}

	p, err := s.products.FindByIDForUpdateTx(tx, m.ProductID)
	if err != nil {
		return err
	}

	// Stock may have been consumed since the reversal; an EXIT must still fit.
	if m.MovementType == model.MovementExit && p.Quantity < m.Quantity {
		return &stockerr.InsufficientStockError{
			Product:   p.Name,
			Available: p.Quantity,
			Requested: m.Quantity,
		}
	}

	if err := s.products.AdjustStockTx(tx, m.ProductID, m.Delta()); err != nil {
		return err
	}
	if err := s.movements.SetDeletedAtTx(tx, m.ID, nil); err != nil {
		return err
	}
	m.DeletedAt = nil
	return nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *stockService) GetMovement(ctx context.Context, id uuid.UUID) (*dto.MovementResponse, error) {
	m, err := s.movements.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return movementToResponse(m), nil
}

func (s *stockService) ListMovements(ctx context.Context, filter repository.StockMovementFilter) (*dto.MovementListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	movements, total, err := s.movements.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(movements))
	for i := range movements {
		items = append(items, *movementToResponse(&movements[i]))
	}
	return &dto.MovementListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ── Notifications ─────────────────────────────────────────────────────────────

func (s *stockService) NotifyMovements(ctx context.Context, company string, movements []*model.StockMovement) {
	if s.dispatcher == nil || len(movements) == 0 {
		return
	}

	for _, m := range movements {
		name := "produit"
		threshold := 0
		if m.Product != nil {
			name = m.Product.Name
			threshold = m.Product.AlertThreshold
		}
		label := "Entrée"
		if m.MovementType == model.MovementExit {
			label = "Sortie"
		}

		msg := fmt.Sprintf("%s de stock : %d x %s. Stock actuel : %d", label, m.Quantity, name, m.StockAfter)
		lowStock := m.StockAfter <= threshold
		if lowStock {
			msg += fmt.Sprintf(" — ALERTE STOCK BAS (seuil : %d)", threshold)
		}

		if err := s.dispatcher.EnqueueSMS(ctx, worker.SMSJobPayload{Company: company, Message: msg}); err != nil {
			log.Warn().Err(err).Msg("stock: failed to enqueue SMS notification")
		}

		if lowStock {
			s.notifyLowStockByEmail(ctx, name, m.StockAfter, threshold)
		}
	}
}

func (s *stockService) notifyLowStockByEmail(ctx context.Context, product string, stock, threshold int) {
	if s.recipients == nil {
		return
	}
	recipients, err := s.recipients.ListActive(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("stock: failed to list notification recipients")
		return
	}
	for _, rcpt := range recipients {
		if rcpt.Email == nil || *rcpt.Email == "" {
			continue
		}
		payload := worker.EmailJobPayload{
			ToEmail: *rcpt.Email,
			Subject: fmt.Sprintf("Alerte stock bas — %s", product),
			Body: fmt.Sprintf("Le stock du produit %s est passé à %d unité(s), sous le seuil d'alerte de %d.",
				product, stock, threshold),
		}
		if err := s.dispatcher.EnqueueEmail(ctx, payload); err != nil {
			log.Warn().Err(err).Str("to", *rcpt.Email).Msg("stock: failed to enqueue alert email")
		}
	}
}

func movementToResponse(m *model.StockMovement) *dto.MovementResponse {
	resp := &dto.MovementResponse{
		ID:           m.ID.String(),
		ProductID:    m.ProductID.String(),
		MovementType: m.MovementType,
		Quantity:     m.Quantity,
		Date:         m.Date.Format(time.RFC3339),
		Comment:      m.Comment,
		StockBefore:  m.StockBefore,
		StockAfter:   m.StockAfter,
		Deleted:      m.Reversed(),
	}
	if m.Product != nil {
		resp.ProductName = m.Product.Name
	}
	if m.ReferenceID != nil {
		ref := m.ReferenceID.String()
		resp.ReferenceID = &ref
	}
	return resp
}
