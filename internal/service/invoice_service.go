package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gestock/internal/dto"
	"gestock/internal/model"
	"gestock/internal/repository"
	"gestock/internal/stockerr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceService is the document engine for invoices: item mutations, the
// ACTIVE → CANCELLED → ACTIVE state machine, soft delete, payments, and the
// proforma → definitive conversion. Every stock-affecting operation runs as a
// single all-or-nothing transaction with row locks on the products involved.
type InvoiceService interface {
	Create(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	List(ctx context.Context, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error)
	AddItem(ctx context.Context, invoiceID uuid.UUID, req dto.DocumentItemRequest) (*dto.InvoiceResponse, error)
	RemoveItem(ctx context.Context, invoiceID, itemID uuid.UUID) (*dto.InvoiceResponse, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	RecordPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*dto.InvoiceResponse, error)
	ConvertProforma(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
}

type invoiceService struct {
	repo      repository.InvoiceRepository
	movements repository.StockMovementRepository
	products  repository.ProductRepository
	clients   repository.ClientRepository
	stock     StockService
	taxRate   decimal.Decimal // fraction, e.g. 0.18
}

func NewInvoiceService(
	repo repository.InvoiceRepository,
	movements repository.StockMovementRepository,
	products repository.ProductRepository,
	clients repository.ClientRepository,
	stock StockService,
	taxRate decimal.Decimal,
) InvoiceService {
	return &invoiceService{
		repo:      repo,
		movements: movements,
		products:  products,
		clients:   clients,
		stock:     stock,
		taxRate:   taxRate,
	}
}

// computeTotals derives HT/TTC from the given line subtotals. Totals are
// never accepted from callers; they are recomputed after every item mutation.
func computeTotals(subtotals []decimal.Decimal, taxRate decimal.Decimal) (ht, ttc decimal.Decimal) {
	ht = decimal.Zero
	for _, s := range subtotals {
		ht = ht.Add(s)
	}
	ht = ht.Round(2)
	ttc = ht.Mul(decimal.NewFromInt(1).Add(taxRate)).Round(2)
	return ht, ttc
}

func activeSubtotals(items []model.InvoiceItem) []decimal.Decimal {
	subs := make([]decimal.Decimal, 0, len(items))
	for _, it := range items {
		if it.DeletedAt == nil {
			subs = append(subs, it.Subtotal)
		}
	}
	return subs
}

func validCompany(company string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(company))
	if c != model.CompanyNetsysteme && c != model.CompanySSE {
		return "", &stockerr.ValidationError{Field: "company", Message: "entité de facturation inconnue"}
	}
	return c, nil
}

// ── Create ────────────────────────────────────────────────────────────────────

func (s *invoiceService) Create(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	company, err := validCompany(req.Company)
	if err != nil {
		return nil, err
	}
	if req.ClientID != nil {
		if _, err := s.clients.FindByID(ctx, *req.ClientID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	inv := model.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: model.NewInvoiceNumber(now),
		Date:          now,
		ClientID:      req.ClientID,
		ClientName:    req.ClientName,
		Company:       company,
		TotalHT:       decimal.Zero,
		TotalTTC:      decimal.Zero,
		AmountPaid:    decimal.Zero,
		IsProforma:    req.IsProforma,
	}

	var created []*model.StockMovement
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, &inv); err != nil {
			return err
		}
		for _, itemReq := range req.Items {
			item, mov, err := s.addItemTx(tx, &inv, itemReq)
			if err != nil {
				return err
			}
			inv.Items = append(inv.Items, *item)
			if mov != nil {
				created = append(created, mov)
			}
		}
		ht, ttc := computeTotals(activeSubtotals(inv.Items), s.taxRate)
		inv.TotalHT, inv.TotalTTC = ht, ttc
		return s.repo.UpdateTotalsTx(tx, inv.ID, ht, ttc)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.stock.NotifyMovements(ctx, inv.Company, created)
	return invoiceToResponse(&inv), nil
}

// addItemTx creates one line and, for definitive invoices, its paired EXIT
// movement. The EXIT creation holds the product row lock and re-checks stock
// against a quantity that already reflects earlier lines of the same batch,
// so two lines of the same product cannot jointly overdraw it.
func (s *invoiceService) addItemTx(tx *gorm.DB, inv *model.Invoice, req dto.DocumentItemRequest) (*model.InvoiceItem, *model.StockMovement, error) {
	if req.Quantity <= 0 {
		return nil, nil, &stockerr.ValidationError{Field: "quantity", Message: "la quantité doit être strictement positive"}
	}

	p, err := s.products.FindByIDForUpdateTx(tx, req.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if p.DeletedAt != nil {
		return nil, nil, &stockerr.NotFoundError{Entity: "produit"}
	}

	unitPrice := p.SalePrice
	if req.UnitPrice != nil {
		unitPrice = *req.UnitPrice
	}
	if unitPrice.IsNegative() {
		return nil, nil, &stockerr.ValidationError{Field: "unit_price", Message: "le prix unitaire ne peut pas être négatif"}
	}

	item := &model.InvoiceItem{
		ID:        uuid.New(),
		InvoiceID: inv.ID,
		ProductID: p.ID,
		Quantity:  req.Quantity,
		UnitPrice: unitPrice,
		Subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))).Round(2),
		Product:   p,
	}
	if err := s.repo.CreateItemTx(tx, item); err != nil {
		return nil, nil, err
	}

	var mov *model.StockMovement
	if !inv.IsProforma {
		ref := item.ID
		mov, err = s.stock.CreateMovementTx(tx, p.ID, model.MovementExit, req.Quantity,
			fmt.Sprintf("Facture %s", inv.InvoiceNumber), &ref)
		if err != nil {
			return nil, nil, err
		}
	}
	return item, mov, nil
}

// ── Item mutations ────────────────────────────────────────────────────────────

func (s *invoiceService) AddItem(ctx context.Context, invoiceID uuid.UUID, req dto.DocumentItemRequest) (*dto.InvoiceResponse, error) {
	var created *model.StockMovement
	var company string
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		inv, err := s.repo.FindByIDTx(tx, invoiceID)
		if err != nil {
			return err
		}
		company = inv.Company
		if inv.DeletedAt != nil {
			return &stockerr.NotFoundError{Entity: "facture"}
		}
		if inv.IsCancelled {
			return &stockerr.CancelledDocumentError{Number: inv.InvoiceNumber}
		}

		item, mov, err := s.addItemTx(tx, inv, req)
		if err != nil {
			return err
		}
		created = mov
		inv.Items = append(inv.Items, *item)
		ht, ttc := computeTotals(activeSubtotals(inv.Items), s.taxRate)
		return s.repo.UpdateTotalsTx(tx, inv.ID, ht, ttc)
	})
	if txErr != nil {
		return nil, txErr
	}

	if created != nil {
		s.stock.NotifyMovements(ctx, company, []*model.StockMovement{created})
	}
	return s.Get(ctx, invoiceID)
}

func (s *invoiceService) RemoveItem(ctx context.Context, invoiceID, itemID uuid.UUID) (*dto.InvoiceResponse, error) {
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		inv, err := s.repo.FindByIDTx(tx, invoiceID)
		if err != nil {
			return err
		}
		if inv.DeletedAt != nil {
			return &stockerr.NotFoundError{Entity: "facture"}
		}
		if inv.IsCancelled {
			return &stockerr.CancelledDocumentError{Number: inv.InvoiceNumber}
		}

		item, err := s.repo.FindItemTx(tx, invoiceID, itemID)
		if err != nil {
			return err
		}

		if !inv.IsProforma {
			mov, err := s.movements.FindActiveByReferenceTx(tx, item.ID)
			if err != nil {
				return err
			}
			if err := s.stock.ReverseMovementTx(tx, mov); err != nil {
				return err
			}
		}

		now := time.Now()
		if err := s.repo.SetItemDeletedAtTx(tx, item.ID, &now); err != nil {
			return err
		}

		subs := make([]decimal.Decimal, 0, len(inv.Items))
		for _, it := range inv.Items {
			if it.DeletedAt == nil && it.ID != item.ID {
				subs = append(subs, it.Subtotal)
			}
		}
		ht, ttc := computeTotals(subs, s.taxRate)
		return s.repo.UpdateTotalsTx(tx, inv.ID, ht, ttc)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.Get(ctx, invoiceID)
}

// ── Cancel / Restore / Soft delete ────────────────────────────────────────────

// cancelTx reverses every paired EXIT movement and flags the invoice. The
// movements stay attached (REVERSED) so a later restore can re-apply them.
func (s *invoiceService) cancelTx(tx *gorm.DB, inv *model.Invoice) error {
	if inv.IsCancelled {
		return nil // idempotent
	}
	if !inv.IsProforma {
		for _, item := range inv.ActiveItems() {
			mov, err := s.movements.FindActiveByReferenceTx(tx, item.ID)
			if err != nil {
				return err
			}
			if err := s.stock.ReverseMovementTx(tx, mov); err != nil {
				return err
			}
		}
	}
	if err := s.repo.SetCancelledTx(tx, inv.ID, true); err != nil {
		return err
	}
	inv.IsCancelled = true
	return nil
}

func (s *invoiceService) Cancel(ctx context.Context, id uuid.UUID) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		inv, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		if inv.DeletedAt != nil {
			return &stockerr.NotFoundError{Entity: "facture"}
		}
		return s.cancelTx(tx, inv)
	})
}

// Restore re-applies every reversed EXIT. All items are validated against
// current stock before any effect lands; one failure rolls the whole
// transaction back and the invoice stays cancelled.
func (s *invoiceService) Restore(ctx context.Context, id uuid.UUID) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		inv, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		if inv.DeletedAt != nil {
			return &stockerr.NotFoundError{Entity: "facture"}
		}
		if !inv.IsCancelled {
			return nil // idempotent
		}

		if !inv.IsProforma {
			for _, item := range inv.ActiveItems() {
				mov, err := s.movements.FindReversedByReferenceTx(tx, item.ID)
				if err != nil {
					return err
				}
				if err := s.stock.ReapplyMovementTx(tx, mov); err != nil {
					return err
				}
			}
		}
		return s.repo.SetCancelledTx(tx, id, false)
	})
}

// SoftDelete cancels first (restoring stock) when the invoice is still
// active, then marks it deleted. The row stays in storage for audit.
func (s *invoiceService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		inv, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		if inv.DeletedAt != nil {
			return nil // idempotent
		}
		if err := s.cancelTx(tx, inv); err != nil {
			return err
		}
		now := time.Now()
		return s.repo.SetDeletedAtTx(tx, id, &now)
	})
}

// ── Payments ──────────────────────────────────────────────────────────────────

func (s *invoiceService) RecordPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*dto.InvoiceResponse, error) {
	if !amount.IsPositive() {
		return nil, &stockerr.ValidationError{Field: "amount", Message: "le montant doit être strictement positif"}
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		inv, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		if inv.DeletedAt != nil {
			return &stockerr.NotFoundError{Entity: "facture"}
		}
		if inv.IsCancelled {
			return &stockerr.CancelledDocumentError{Number: inv.InvoiceNumber}
		}

		// Clamped: amount_paid never exceeds total_ttc
		newPaid := inv.AmountPaid.Add(amount)
		if newPaid.GreaterThan(inv.TotalTTC) {
			newPaid = inv.TotalTTC
		}
		return s.repo.UpdateAmountPaidTx(tx, id, newPaid)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.Get(ctx, id)
}

// ── Proforma conversion ───────────────────────────────────────────────────────

// ConvertProforma creates a NEW definitive invoice from a proforma, with
// copied items and one EXIT movement per item. The proforma itself is left
// untouched for audit. All-or-nothing: one failed stock check aborts the
// whole conversion.
func (s *invoiceService) ConvertProforma(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	var newInv model.Invoice
	var created []*model.StockMovement

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		src, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		if src.DeletedAt != nil {
			return &stockerr.NotFoundError{Entity: "facture"}
		}
		if !src.IsProforma {
			return &stockerr.NotProformaError{InvoiceNumber: src.InvoiceNumber}
		}
		if src.IsCancelled {
			return &stockerr.CancelledDocumentError{Number: src.InvoiceNumber}
		}
		items := src.ActiveItems()
		if len(items) == 0 {
			return &stockerr.EmptyDocumentError{Number: src.InvoiceNumber}
		}

		now := time.Now()
		newInv = model.Invoice{
			ID:            uuid.New(),
			InvoiceNumber: model.NewInvoiceNumber(now),
			Date:          now,
			ClientID:      src.ClientID,
			ClientName:    src.ClientName,
			Company:       src.Company,
			TotalHT:       decimal.Zero,
			TotalTTC:      decimal.Zero,
			AmountPaid:    decimal.Zero,
			IsProforma:    false,
		}
		if err := s.repo.CreateTx(tx, &newInv); err != nil {
			return err
		}

		for _, srcItem := range items {
			item, mov, err := s.addItemTx(tx, &newInv, dto.DocumentItemRequest{
				ProductID: srcItem.ProductID,
				Quantity:  srcItem.Quantity,
				UnitPrice: &srcItem.UnitPrice,
			})
			if err != nil {
				return err
			}
			newInv.Items = append(newInv.Items, *item)
			created = append(created, mov)
		}

		ht, ttc := computeTotals(activeSubtotals(newInv.Items), s.taxRate)
		newInv.TotalHT, newInv.TotalTTC = ht, ttc
		return s.repo.UpdateTotalsTx(tx, newInv.ID, ht, ttc)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.stock.NotifyMovements(ctx, newInv.Company, created)
	return invoiceToResponse(&newInv), nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *invoiceService) Get(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.DeletedAt != nil {
		return nil, &stockerr.NotFoundError{Entity: "facture"}
	}
	return invoiceToResponse(inv), nil
}

func (s *invoiceService) List(ctx context.Context, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	invoices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		items = append(items, *invoiceToResponse(&invoices[i]))
	}
	return &dto.InvoiceListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func invoiceToResponse(inv *model.Invoice) *dto.InvoiceResponse {
	items := make([]dto.DocumentItemResponse, 0, len(inv.Items))
	for _, it := range inv.ActiveItems() {
		items = append(items, invoiceItemToResponse(it))
	}
	resp := &dto.InvoiceResponse{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		Date:          inv.Date.Format(time.RFC3339),
		ClientName:    inv.DisplayName(),
		Company:       inv.Company,
		TotalHT:       inv.TotalHT,
		TotalTTC:      inv.TotalTTC,
		AmountPaid:    inv.AmountPaid,
		AmountDue:     inv.TotalTTC.Sub(inv.AmountPaid),
		IsCancelled:   inv.IsCancelled,
		IsProforma:    inv.IsProforma,
		Items:         items,
	}
	if inv.ClientID != nil {
		cid := inv.ClientID.String()
		resp.ClientID = &cid
	}
	return resp
}

func invoiceItemToResponse(it model.InvoiceItem) dto.DocumentItemResponse {
	resp := dto.DocumentItemResponse{
		ID:        it.ID.String(),
		ProductID: it.ProductID.String(),
		Quantity:  it.Quantity,
		UnitPrice: it.UnitPrice,
		Subtotal:  it.Subtotal,
	}
	if it.Product != nil {
		resp.ProductName = it.Product.Name
	}
	return resp
}
