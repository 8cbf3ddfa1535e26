package service

import (
	"context"
	"time"

	"gestock/internal/dto"
	"gestock/internal/model"
	"gestock/internal/repository"
	"gestock/internal/stockerr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuoteService manages quotes. Quotes never touch stock: the only stock
// interaction happens at conversion, which delegates to the invoice path.
type QuoteService interface {
	Create(ctx context.Context, req dto.CreateQuoteRequest) (*dto.QuoteResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.QuoteResponse, error)
	List(ctx context.Context, filter dto.QuoteFilter) (*dto.QuoteListResponse, error)
	AddItem(ctx context.Context, quoteID uuid.UUID, req dto.DocumentItemRequest) (*dto.QuoteResponse, error)
	RemoveItem(ctx context.Context, quoteID, itemID uuid.UUID) (*dto.QuoteResponse, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ConvertToInvoice(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
}

type quoteService struct {
	repo     repository.QuoteRepository
	invoices repository.InvoiceRepository
	products repository.ProductRepository
	clients  repository.ClientRepository
	stock    StockService
	taxRate  decimal.Decimal
}

func NewQuoteService(
	repo repository.QuoteRepository,
	invoices repository.InvoiceRepository,
	products repository.ProductRepository,
	clients repository.ClientRepository,
	stock StockService,
	taxRate decimal.Decimal,
) QuoteService {
	return &quoteService{
		repo:     repo,
		invoices: invoices,
		products: products,
		clients:  clients,
		stock:    stock,
		taxRate:  taxRate,
	}
}

func quoteSubtotals(items []model.QuoteItem) []decimal.Decimal {
	subs := make([]decimal.Decimal, 0, len(items))
	for _, it := range items {
		if it.DeletedAt == nil {
			subs = append(subs, it.Subtotal)
		}
	}
	return subs
}

// ── Create ────────────────────────────────────────────────────────────────────

func (s *quoteService) Create(ctx context.Context, req dto.CreateQuoteRequest) (*dto.QuoteResponse, error) {
	company, err := validCompany(req.Company)
	if err != nil {
		return nil, err
	}
	if req.ClientID != nil {
		if _, err := s.clients.FindByID(ctx, *req.ClientID); err != nil {
			return nil, err
		}
	}

	var expiration *time.Time
	if req.ExpirationDate != nil && *req.ExpirationDate != "" {
		t, err := time.Parse("2006-01-02", *req.ExpirationDate)
		if err != nil {
			return nil, &stockerr.ValidationError{Field: "expiration_date", Message: "format de date invalide (AAAA-MM-JJ attendu)"}
		}
		expiration = &t
	}

	now := time.Now()
	q := model.Quote{
		ID:             uuid.New(),
		QuoteNumber:    model.NewQuoteNumber(now),
		Date:           now,
		ExpirationDate: expiration,
		ClientID:       req.ClientID,
		ClientName:     req.ClientName,
		ClientEmail:    req.ClientEmail,
		ClientPhone:    req.ClientPhone,
		ClientAddress:  req.ClientAddress,
		Company:        company,
		TotalHT:        decimal.Zero,
		TotalTTC:       decimal.Zero,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, &q); err != nil {
			return err
		}
		for _, itemReq := range req.Items {
			item, err := s.addItemTx(tx, &q, itemReq)
			if err != nil {
				return err
			}
			q.Items = append(q.Items, *item)
		}
		ht, ttc := computeTotals(quoteSubtotals(q.Items), s.taxRate)
		q.TotalHT, q.TotalTTC = ht, ttc
		return s.repo.UpdateTotalsTx(tx, q.ID, ht, ttc)
	})
	if txErr != nil {
		return nil, txErr
	}
	return quoteToResponse(&q), nil
}

// addItemTx creates one quote line. No stock check, no movement: a quote is a
// simulation until converted.
func (s *quoteService) addItemTx(tx *gorm.DB, q *model.Quote, req dto.DocumentItemRequest) (*model.QuoteItem, error) {
	if req.Quantity <= 0 {
		return nil, &stockerr.ValidationError{Field: "quantity", Message: "la quantité doit être strictement positive"}
	}

	p, err := s.products.FindByID(contextOrBackground(tx), req.ProductID)
	if err != nil {
		return nil, err
	}
	if p.DeletedAt != nil {
		return nil, &stockerr.NotFoundError{Entity: "produit"}
	}

	unitPrice := p.SalePrice
	if req.UnitPrice != nil {
		unitPrice = *req.UnitPrice
	}
	if unitPrice.IsNegative() {
		return nil, &stockerr.ValidationError{Field: "unit_price", Message: "le prix unitaire ne peut pas être négatif"}
	}

	item := &model.QuoteItem{
		ID:        uuid.New(),
		QuoteID:   q.ID,
		ProductID: p.ID,
		Quantity:  req.Quantity,
		UnitPrice: unitPrice,
		Subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))).Round(2),
		Product:   p,
	}
	if err := s.repo.CreateItemTx(tx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// contextOrBackground extracts the context carried by a live transaction, or
// returns a background context in unit test mode (nil tx).
func contextOrBackground(tx *gorm.DB) context.Context {
	if tx == nil || tx.Statement == nil || tx.Statement.Context == nil {
		return context.Background()
	}
	return tx.Statement.Context
}

// ── Item mutations ────────────────────────────────────────────────────────────

func (s *quoteService) AddItem(ctx context.Context, quoteID uuid.UUID, req dto.DocumentItemRequest) (*dto.QuoteResponse, error) {
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		q, err := s.repo.FindByIDTx(tx, quoteID)
		if err != nil {
			return err
		}
		if q.DeletedAt != nil {
			return &stockerr.NotFoundError{Entity: "devis"}
		}
		if q.ConvertedInvoiceID != nil {
			return &stockerr.AlreadyConvertedError{QuoteNumber: q.QuoteNumber}
		}

		item, err := s.addItemTx(tx, q, req)
		if err != nil {
			return err
		}
		q.Items = append(q.Items, *item)
		ht, ttc := computeTotals(quoteSubtotals(q.Items), s.taxRate)
		return s.repo.UpdateTotalsTx(tx, q.ID, ht, ttc)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.Get(ctx, quoteID)
}

func (s *quoteService) RemoveItem(ctx context.Context, quoteID, itemID uuid.UUID) (*dto.QuoteResponse, error) {
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		q, err := s.repo.FindByIDTx(tx, quoteID)
		if err != nil {
			return err
		}
		if q.DeletedAt != nil {
			return &stockerr.NotFoundError{Entity: "devis"}
		}
		if q.ConvertedInvoiceID != nil {
			return &stockerr.AlreadyConvertedError{QuoteNumber: q.QuoteNumber}
		}

		item, err := s.repo.FindItemTx(tx, quoteID, itemID)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := s.repo.SetItemDeletedAtTx(tx, item.ID, &now); err != nil {
			return err
		}

		subs := make([]decimal.Decimal, 0, len(q.Items))
		for _, it := range q.Items {
			if it.DeletedAt == nil && it.ID != item.ID {
				subs = append(subs, it.Subtotal)
			}
		}
		ht, ttc := computeTotals(subs, s.taxRate)
		return s.repo.UpdateTotalsTx(tx, q.ID, ht, ttc)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.Get(ctx, quoteID)
}

func (s *quoteService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		q, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		if q.DeletedAt != nil {
			return nil // idempotent
		}
		now := time.Now()
		return s.repo.SetDeletedAtTx(tx, id, &now)
	})
}

// ── Conversion ────────────────────────────────────────────────────────────────

// ConvertToInvoice turns the quote into a definitive invoice: one EXIT
// movement per item, all stock checks inside the same transaction. A single
// failed check leaves zero new rows and the quote unconverted.
func (s *quoteService) ConvertToInvoice(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	var inv model.Invoice
	var created []*model.StockMovement

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		q, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		if q.DeletedAt != nil {
			return &stockerr.NotFoundError{Entity: "devis"}
		}
		if q.ConvertedInvoiceID != nil {
			return &stockerr.AlreadyConvertedError{QuoteNumber: q.QuoteNumber}
		}
		items := q.ActiveItems()
		if len(items) == 0 {
			return &stockerr.EmptyDocumentError{Number: q.QuoteNumber}
		}

		now := time.Now()
		inv = model.Invoice{
			ID:            uuid.New(),
			InvoiceNumber: model.NewInvoiceNumber(now),
			Date:          now,
			ClientID:      q.ClientID,
			ClientName:    q.ClientName,
			Company:       q.Company,
			TotalHT:       decimal.Zero,
			TotalTTC:      decimal.Zero,
			AmountPaid:    decimal.Zero,
			IsProforma:    false,
		}
		if err := s.invoices.CreateTx(tx, &inv); err != nil {
			return err
		}

		subs := make([]decimal.Decimal, 0, len(items))
		for _, qi := range items {
			item, mov, err := s.convertItemTx(tx, &inv, qi)
			if err != nil {
				return err
			}
			inv.Items = append(inv.Items, *item)
			subs = append(subs, item.Subtotal)
			created = append(created, mov)
		}

		ht, ttc := computeTotals(subs, s.taxRate)
		inv.TotalHT, inv.TotalTTC = ht, ttc
		if err := s.invoices.UpdateTotalsTx(tx, inv.ID, ht, ttc); err != nil {
			return err
		}
		return s.repo.SetConvertedInvoiceTx(tx, q.ID, inv.ID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.stock.NotifyMovements(ctx, inv.Company, created)
	return invoiceToResponse(&inv), nil
}

// convertItemTx copies one quote line into the invoice and creates its paired
// EXIT movement. The movement creation locks the product row and performs the
// stock check.
func (s *quoteService) convertItemTx(tx *gorm.DB, inv *model.Invoice, qi model.QuoteItem) (*model.InvoiceItem, *model.StockMovement, error) {
	item := &model.InvoiceItem{
		ID:        uuid.New(),
		InvoiceID: inv.ID,
		ProductID: qi.ProductID,
		Quantity:  qi.Quantity,
		UnitPrice: qi.UnitPrice,
		Subtotal:  qi.Subtotal,
	}
	if err := s.invoices.CreateItemTx(tx, item); err != nil {
		return nil, nil, err
	}

	ref := item.ID
	mov, err := s.stock.CreateMovementTx(tx, qi.ProductID, model.MovementExit, qi.Quantity,
		"Conversion devis en facture "+inv.InvoiceNumber, &ref)
	if err != nil {
		return nil, nil, err
	}
	item.Product = mov.Product
	return item, mov, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *quoteService) Get(ctx context.Context, id uuid.UUID) (*dto.QuoteResponse, error) {
	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.DeletedAt != nil {
		return nil, &stockerr.NotFoundError{Entity: "devis"}
	}
	return quoteToResponse(q), nil
}

func (s *quoteService) List(ctx context.Context, filter dto.QuoteFilter) (*dto.QuoteListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	quotes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.QuoteResponse, 0, len(quotes))
	for i := range quotes {
		items = append(items, *quoteToResponse(&quotes[i]))
	}
	return &dto.QuoteListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func quoteToResponse(q *model.Quote) *dto.QuoteResponse {
	items := make([]dto.DocumentItemResponse, 0, len(q.Items))
	for _, it := range q.ActiveItems() {
		item := dto.DocumentItemResponse{
			ID:        it.ID.String(),
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		}
		if it.Product != nil {
			item.ProductName = it.Product.Name
		}
		items = append(items, item)
	}

	name := "Client inconnu"
	if q.Client != nil {
		name = q.Client.Name
	} else if q.ClientName != nil {
		name = *q.ClientName
	}

	resp := &dto.QuoteResponse{
		ID:          q.ID.String(),
		QuoteNumber: q.QuoteNumber,
		Date:        q.Date.Format(time.RFC3339),
		ClientName:  name,
		Company:     q.Company,
		TotalHT:     q.TotalHT,
		TotalTTC:    q.TotalTTC,
		IsExpired:   q.IsExpired(time.Now()),
		Items:       items,
	}
	if q.ExpirationDate != nil {
		exp := q.ExpirationDate.Format("2006-01-02")
		resp.ExpirationDate = &exp
	}
	if q.ClientID != nil {
		cid := q.ClientID.String()
		resp.ClientID = &cid
	}
	if q.ConvertedInvoiceID != nil {
		inv := q.ConvertedInvoiceID.String()
		resp.ConvertedInvoiceID = &inv
	}
	return resp
}
