package service

// In-memory repository stubs. All DB() methods return nil so runTx executes
// the transaction function directly, without rollback semantics: tests that
// need real atomicity live in tests/e2e.

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

// ── Products ──────────────────────────────────────────────────────────────────

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
	// refs simulates rows referencing the product (movements, document lines).
	refs map[uuid.UUID]int64
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{
		products: make(map[uuid.UUID]*model.Product),
		refs:     make(map[uuid.UUID]int64),
	}
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, &stockerr.NotFoundError{Entity: "produit"}
	}
	cp := *p
	return &cp, nil
}

// FindByIDForUpdateTx returns a snapshot, like a SELECT … FOR UPDATE would:
// later AdjustStockTx calls must not retroactively change what the caller read.
func (r *stubProductRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		if p.IsActive && p.DeletedAt == nil {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	stored, ok := r.products[p.ID]
	if !ok {
		return &stockerr.NotFoundError{Entity: "produit"}
	}
	quantity := stored.Quantity // quantity is journal-owned, Save must not move it
	cp := *p
	cp.Quantity = quantity
	r.products[p.ID] = &cp
	return nil
}

func (r *stubProductRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := r.products[id]
	if !ok {
		return &stockerr.NotFoundError{Entity: "produit"}
	}
	now := time.Now()
	p.DeletedAt = &now
	p.IsActive = false
	return nil
}

func (r *stubProductRepo) Restore(_ context.Context, id uuid.UUID) error {
	p, ok := r.products[id]
	if !ok {
		return &stockerr.NotFoundError{Entity: "produit"}
	}
	p.DeletedAt = nil
	p.IsActive = true
	return nil
}

func (r *stubProductRepo) CountReferences(_ context.Context, id uuid.UUID) (int64, error) {
	return r.refs[id], nil
}

func (r *stubProductRepo) HardDelete(_ context.Context, id uuid.UUID) error {
	if r.refs[id] > 0 {
		return &stockerr.ValidationError{
			Field:   "id",
			Message: "produit référencé par des mouvements ou des documents, suppression définitive impossible",
		}
	}
	delete(r.products, id)
	return nil
}

func (r *stubProductRepo) AdjustStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	p, ok := r.products[id]
	if !ok {
		return &stockerr.NotFoundError{Entity: "produit"}
	}
	p.Quantity += delta
	return nil
}

func (r *stubProductRepo) ListLowStock(_ context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.IsActive && p.DeletedAt == nil && p.IsLowStock() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) StockValuation(_ context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range r.products {
		if p.IsActive && p.DeletedAt == nil {
			total = total.Add(p.PurchasePrice.Mul(decimal.NewFromInt(int64(p.Quantity))))
		}
	}
	return total, nil
}

func seedProduct(r *stubProductRepo, name string, quantity, threshold int) *model.Product {
	p := &model.Product{
		ID:             uuid.New(),
		Name:           name,
		Quantity:       quantity,
		PurchasePrice:  decimal.NewFromInt(100),
		SalePrice:      decimal.NewFromInt(250),
		AlertThreshold: threshold,
		IsActive:       true,
	}
	_ = r.Create(context.Background(), p)
	return p
}

// ── Stock movements ───────────────────────────────────────────────────────────

type stubMovementRepo struct {
	movements map[uuid.UUID]*model.StockMovement
}

func newStubMovementRepo() *stubMovementRepo {
	return &stubMovementRepo{movements: make(map[uuid.UUID]*model.StockMovement)}
}

func (r *stubMovementRepo) DB() *gorm.DB { return nil }

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	cp := *m
	r.movements[m.ID] = &cp
	return nil
}

func (r *stubMovementRepo) FindByID(_ context.Context, id uuid.UUID) (*model.StockMovement, error) {
	m, ok := r.movements[id]
	if !ok {
		return nil, &stockerr.NotFoundError{Entity: "mouvement de stock"}
	}
	cp := *m
	return &cp, nil
}

func (r *stubMovementRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.StockMovement, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubMovementRepo) FindActiveByReferenceTx(_ *gorm.DB, referenceID uuid.UUID) (*model.StockMovement, error) {
	for _, m := range r.movements {
		if m.ReferenceID != nil && *m.ReferenceID == referenceID && m.DeletedAt == nil {
			cp := *m
			return &cp, nil
		}
	}
	return nil, &stockerr.NotFoundError{Entity: "mouvement de stock"}
}

func (r *stubMovementRepo) FindReversedByReferenceTx(_ *gorm.DB, referenceID uuid.UUID) (*model.StockMovement, error) {
	for _, m := range r.movements {
		if m.ReferenceID != nil && *m.ReferenceID == referenceID && m.DeletedAt != nil {
			cp := *m
			return &cp, nil
		}
	}
	return nil, &stockerr.NotFoundError{Entity: "mouvement de stock"}
}

func (r *stubMovementRepo) SetDeletedAtTx(_ *gorm.DB, id uuid.UUID, deletedAt *time.Time) error {
	m, ok := r.movements[id]
	if !ok {
		return &stockerr.NotFoundError{Entity: "mouvement de stock"}
	}
	m.DeletedAt = deletedAt
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		if filter.MovementType != "" && m.MovementType != filter.MovementType {
			continue
		}
		if !filter.IncludeDeleted && m.DeletedAt != nil {
			continue
		}
		out = append(out, *m)
	}
	return out, int64(len(out)), nil
}

// ── Invoices ──────────────────────────────────────────────────────────────────

type stubInvoiceRepo struct {
	invoices map[uuid.UUID]*model.Invoice
	items    map[uuid.UUID][]*model.InvoiceItem // by invoice ID
}

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{
		invoices: make(map[uuid.UUID]*model.Invoice),
		items:    make(map[uuid.UUID][]*model.InvoiceItem),
	}
}

func (r *stubInvoiceRepo) DB() *gorm.DB { return nil }

func (r *stubInvoiceRepo) CreateTx(_ *gorm.DB, inv *model.Invoice) error {
	cp := *inv
	cp.Items = nil
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *stubInvoiceRepo) CreateItemTx(_ *gorm.DB, item *model.InvoiceItem) error {
	cp := *item
	r.items[item.InvoiceID] = append(r.items[item.InvoiceID], &cp)
	return nil
}

func (r *stubInvoiceRepo) load(id uuid.UUID) (*model.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, &stockerr.NotFoundError{Entity: "facture"}
	}
	cp := *inv
	cp.Items = make([]model.InvoiceItem, 0, len(r.items[id]))
	for _, it := range r.items[id] {
		cp.Items = append(cp.Items, *it)
	}
	return &cp, nil
}

func (r *stubInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	return r.load(id)
}

func (r *stubInvoiceRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Invoice, error) {
	return r.load(id)
}

func (r *stubInvoiceRepo) FindItemTx(_ *gorm.DB, invoiceID, itemID uuid.UUID) (*model.InvoiceItem, error) {
	for _, it := range r.items[invoiceID] {
		if it.ID == itemID && it.DeletedAt == nil {
			cp := *it
			return &cp, nil
		}
	}
	return nil, &stockerr.NotFoundError{Entity: "ligne de facture"}
}

func (r *stubInvoiceRepo) List(_ context.Context, _ dto.InvoiceFilter) ([]model.Invoice, int64, error) {
	var out []model.Invoice
	for id := range r.invoices {
		inv, _ := r.load(id)
		if inv.DeletedAt == nil {
			out = append(out, *inv)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubInvoiceRepo) UpdateTotalsTx(_ *gorm.DB, id uuid.UUID, totalHT, totalTTC decimal.Decimal) error {
	inv, ok := r.invoices[id]
	if !ok {
		return &stockerr.NotFoundError{Entity: "facture"}
	}
	inv.TotalHT, inv.TotalTTC = totalHT, totalTTC
	return nil
}

func (r *stubInvoiceRepo) SetCancelledTx(_ *gorm.DB, id uuid.UUID, cancelled bool) error {
	inv, ok := r.invoices[id]
	if !ok {
		return &stockerr.NotFoundError{Entity: "facture"}
	}
	inv.IsCancelled = cancelled
	return nil
}

func (r *stubInvoiceRepo) SetDeletedAtTx(_ *gorm.DB, id uuid.UUID, deletedAt *time.Time) error {
	inv, ok := r.invoices[id]
	if !ok {
		return &stockerr.NotFoundError{Entity: "facture"}
	}
	inv.DeletedAt = deletedAt
	return nil
}

func (r *stubInvoiceRepo) SetItemDeletedAtTx(_ *gorm.DB, itemID uuid.UUID, deletedAt *time.Time) error {
	for _, items := range r.items {
		for _, it := range items {
			if it.ID == itemID {
				it.DeletedAt = deletedAt
				return nil
			}
		}
	}
	return &stockerr.NotFoundError{Entity: "ligne de facture"}
}

func (r *stubInvoiceRepo) UpdateAmountPaidTx(_ *gorm.DB, id uuid.UUID, amountPaid decimal.Decimal) error {
	inv, ok := r.invoices[id]
	if !ok {
		return &stockerr.NotFoundError{Entity: "facture"}
	}
	inv.AmountPaid = amountPaid
	return nil
}

func (r *stubInvoiceRepo) CountActive(_ context.Context) (int64, error) {
	var n int64
	for _, inv := range r.invoices {
		if inv.DeletedAt == nil && !inv.IsCancelled && !inv.IsProforma {
			n++
		}
	}
	return n, nil
}

func (r *stubInvoiceRepo) SumUnpaid(_ context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, inv := range r.invoices {
		if inv.DeletedAt == nil && !inv.IsCancelled && !inv.IsProforma &&
			inv.AmountPaid.LessThan(inv.TotalTTC) {
			total = total.Add(inv.TotalTTC.Sub(inv.AmountPaid))
		}
	}
	return total, nil
}

func (r *stubInvoiceRepo) RevenueBetween(_ context.Context, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, inv := range r.invoices {
		if inv.DeletedAt == nil && !inv.IsCancelled && !inv.IsProforma &&
			!inv.Date.Before(from) && inv.Date.Before(to) {
			total = total.Add(inv.TotalTTC)
		}
	}
	return total, nil
}

// ── Quotes ────────────────────────────────────────────────────────────────────

type stubQuoteRepo struct {
	quotes map[uuid.UUID]*model.Quote
	items  map[uuid.UUID][]*model.QuoteItem
}

func newStubQuoteRepo() *stubQuoteRepo {
	return &stubQuoteRepo{
		quotes: make(map[uuid.UUID]*model.Quote),
		items:  make(map[uuid.UUID][]*model.QuoteItem),
	}
}

func (r *stubQuoteRepo) DB() *gorm.DB { return nil }

func (r *stubQuoteRepo) CreateTx(_ *gorm.DB, q *model.Quote) error {
	cp := *q
	cp.Items = nil
	r.quotes[q.ID] = &cp
	return nil
}

func (r *stubQuoteRepo) CreateItemTx(_ *gorm.DB, item *model.QuoteItem) error {
	cp := *item
	r.items[item.QuoteID] = append(r.items[item.QuoteID], &cp)
	return nil
}

func (r *stubQuoteRepo) load(id uuid.UUID) (*model.Quote, error) {
	q, ok := r.quotes[id]
	if !ok {
		return nil, &stockerr.NotFoundError{Entity: "devis"}
	}
	cp := *q
	cp.Items = make([]model.QuoteItem, 0, len(r.items[id]))
	for _, it := range r.items[id] {
		cp.Items = append(cp.Items, *it)
	}
	return &cp, nil
}

func (r *stubQuoteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Quote, error) {
	return r.load(id)
}

func (r *stubQuoteRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Quote, error) {
	return r.load(id)
}

func (r *stubQuoteRepo) FindItemTx(_ *gorm.DB, quoteID, itemID uuid.UUID) (*model.QuoteItem, error) {
	for _, it := range r.items[quoteID] {
		if it.ID == itemID && it.DeletedAt == nil {
			cp := *it
			return &cp, nil
		}
	}
	return nil, &stockerr.NotFoundError{Entity: "ligne de devis"}
}

func (r *stubQuoteRepo) List(_ context.Context, _ dto.QuoteFilter) ([]model.Quote, int64, error) {
	var out []model.Quote
	for id := range r.quotes {
		q, _ := r.load(id)
		if q.DeletedAt == nil {
			out = append(out, *q)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubQuoteRepo) UpdateTotalsTx(_ *gorm.DB, id uuid.UUID, totalHT, totalTTC decimal.Decimal) error {
	q, ok := r.quotes[id]
	if !ok {
		return &stockerr.NotFoundError{Entity: "devis"}
	}
	q.TotalHT, q.TotalTTC = totalHT, totalTTC
	return nil
}

func (r *stubQuoteRepo) SetConvertedInvoiceTx(_ *gorm.DB, quoteID, invoiceID uuid.UUID) error {
	q, ok := r.quotes[quoteID]
	if !ok {
		return &stockerr.NotFoundError{Entity: "devis"}
	}
	q.ConvertedInvoiceID = &invoiceID
	return nil
}

func (r *stubQuoteRepo) SetDeletedAtTx(_ *gorm.DB, id uuid.UUID, deletedAt *time.Time) error {
	q, ok := r.quotes[id]
	if !ok {
		return &stockerr.NotFoundError{Entity: "devis"}
	}
	q.DeletedAt = deletedAt
	return nil
}

func (r *stubQuoteRepo) SetItemDeletedAtTx(_ *gorm.DB, itemID uuid.UUID, deletedAt *time.Time) error {
	for _, items := range r.items {
		for _, it := range items {
			if it.ID == itemID {
				it.DeletedAt = deletedAt
				return nil
			}
		}
	}
	return &stockerr.NotFoundError{Entity: "ligne de devis"}
}

// ── Clients ───────────────────────────────────────────────────────────────────

type stubClientRepo struct {
	clients map[uuid.UUID]*model.Client
}

func newStubClientRepo() *stubClientRepo {
	return &stubClientRepo{clients: make(map[uuid.UUID]*model.Client)}
}

func (r *stubClientRepo) Create(_ context.Context, c *model.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.clients[c.ID] = &cp
	return nil
}

func (r *stubClientRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, &stockerr.NotFoundError{Entity: "client"}
	}
	cp := *c
	return &cp, nil
}

func (r *stubClientRepo) List(_ context.Context, _ string) ([]model.Client, error) {
	var out []model.Client
	for _, c := range r.clients {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubClientRepo) Update(_ context.Context, c *model.Client) error {
	cp := *c
	r.clients[c.ID] = &cp
	return nil
}

func (r *stubClientRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.clients[id]; !ok {
		return &stockerr.NotFoundError{Entity: "client"}
	}
	delete(r.clients, id)
	return nil
}

// ── Recipients ────────────────────────────────────────────────────────────────

type stubRecipientRepo struct {
	recipients map[uuid.UUID]*model.StockNotificationRecipient
}

func newStubRecipientRepo() *stubRecipientRepo {
	return &stubRecipientRepo{recipients: make(map[uuid.UUID]*model.StockNotificationRecipient)}
}

func (r *stubRecipientRepo) Create(_ context.Context, rcpt *model.StockNotificationRecipient) error {
	if rcpt.ID == uuid.Nil {
		rcpt.ID = uuid.New()
	}
	cp := *rcpt
	r.recipients[rcpt.ID] = &cp
	return nil
}

func (r *stubRecipientRepo) ListActive(_ context.Context) ([]model.StockNotificationRecipient, error) {
	var out []model.StockNotificationRecipient
	for _, rcpt := range r.recipients {
		if rcpt.IsActive {
			out = append(out, *rcpt)
		}
	}
	return out, nil
}

func (r *stubRecipientRepo) List(_ context.Context) ([]model.StockNotificationRecipient, error) {
	var out []model.StockNotificationRecipient
	for _, rcpt := range r.recipients {
		out = append(out, *rcpt)
	}
	return out, nil
}

func (r *stubRecipientRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	rcpt, ok := r.recipients[id]
	if !ok {
		return &stockerr.NotFoundError{Entity: "destinataire"}
	}
	rcpt.IsActive = active
	return nil
}

func (r *stubRecipientRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.recipients[id]; !ok {
		return &stockerr.NotFoundError{Entity: "destinataire"}
	}
	delete(r.recipients, id)
	return nil
}

// ── Users ─────────────────────────────────────────────────────────────────────

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, &stockerr.NotFoundError{Entity: "utilisateur"}
	}
	cp := *u
	return &cp, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username && u.Active {
			cp := *u
			return &cp, nil
		}
	}
	return nil, &stockerr.NotFoundError{Entity: "utilisateur"}
}

func (r *stubUserRepo) List(_ context.Context, includeInactive bool) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if includeInactive || u.Active {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubUserRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return &stockerr.NotFoundError{Entity: "utilisateur"}
	}
	u.Active = false
	return nil
}

func (r *stubUserRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return &stockerr.NotFoundError{Entity: "utilisateur"}
	}
	u.Active = true
	return nil
}

// Interface conformance checks.
var (
	_ repository.ProductRepository       = (*stubProductRepo)(nil)
	_ repository.StockMovementRepository = (*stubMovementRepo)(nil)
	_ repository.InvoiceRepository       = (*stubInvoiceRepo)(nil)
	_ repository.QuoteRepository         = (*stubQuoteRepo)(nil)
	_ repository.ClientRepository        = (*stubClientRepo)(nil)
	_ repository.RecipientRepository     = (*stubRecipientRepo)(nil)
	_ repository.UserRepository          = (*stubUserRepo)(nil)
)
