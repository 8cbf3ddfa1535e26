package service

import (
	"context"
	"testing"

	"gestock/internal/dto"
	"gestock/internal/model"
	"gestock/internal/stockerr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildInvoiceSvc() (InvoiceService, *stubProductRepo, *stubMovementRepo, *stubInvoiceRepo) {
	products := newStubProductRepo()
	movements := newStubMovementRepo()
	invoices := newStubInvoiceRepo()
	clients := newStubClientRepo()
	stock := NewStockService(movements, products, newStubRecipientRepo(), nil)
	svc := NewInvoiceService(invoices, movements, products, clients, stock,
		decimal.NewFromFloat(0.18))
	return svc, products, movements, invoices
}

func TestComputeTotals(t *testing.T) {
	rate := decimal.NewFromFloat(0.18)

	ht, ttc := computeTotals([]decimal.Decimal{decimal.NewFromInt(250)}, rate)
	assert.True(t, ht.Equal(decimal.NewFromInt(250)), "ht=%s", ht)
	assert.True(t, ttc.Equal(decimal.NewFromInt(295)), "ttc=%s", ttc)

	// Empty document: zero totals
	ht, ttc = computeTotals(nil, rate)
	assert.True(t, ht.IsZero())
	assert.True(t, ttc.IsZero())

	// Rounding: 33.33 × 1.18 = 39.3294 → 39.33
	ht, ttc = computeTotals([]decimal.Decimal{decimal.NewFromFloat(33.33)}, rate)
	assert.True(t, ht.Equal(decimal.NewFromFloat(33.33)), "ht=%s", ht)
	assert.True(t, ttc.Equal(decimal.NewFromFloat(39.33)), "ttc=%s", ttc)
}

func TestCreateInvoice_TotalsAndStock(t *testing.T) {
	svc, products, movements, _ := buildInvoiceSvc()
	p := seedProduct(products, "Routeur", 10, 2) // sale price 250

	name := "Client Comptoir"
	resp, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		ClientName: &name,
		Company:    model.CompanyNetsysteme,
		Items: []dto.DocumentItemRequest{
			{ProductID: p.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.TotalHT.Equal(decimal.NewFromInt(250)), "ht=%s", resp.TotalHT)
	assert.True(t, resp.TotalTTC.Equal(decimal.NewFromInt(295)), "ttc=%s", resp.TotalTTC)
	assert.Regexp(t, `^INV-\d{8}-[0-9A-F]{8}$`, resp.InvoiceNumber)

	// One paired EXIT referencing the invoice item
	got, _ := products.FindByID(context.Background(), p.ID)
	assert.Equal(t, 9, got.Quantity)
	require.Len(t, movements.movements, 1)
	for _, m := range movements.movements {
		assert.Equal(t, model.MovementExit, m.MovementType)
		require.NotNil(t, m.ReferenceID)
		assert.Equal(t, resp.Items[0].ID, m.ReferenceID.String())
	}
}

func TestCreateInvoice_ProformaLeavesStockUntouched(t *testing.T) {
	svc, products, movements, _ := buildInvoiceSvc()
	p := seedProduct(products, "Switch", 10, 2)

	resp, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		Company:    model.CompanySSE,
		IsProforma: true,
		Items:      []dto.DocumentItemRequest{{ProductID: p.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	assert.True(t, resp.IsProforma)

	got, _ := products.FindByID(context.Background(), p.ID)
	assert.Equal(t, 10, got.Quantity)
	assert.Empty(t, movements.movements)
}

func TestCreateInvoice_InsufficientStock(t *testing.T) {
	svc, products, _, _ := buildInvoiceSvc()
	p := seedProduct(products, "Serveur", 2, 1)

	_, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		Company: model.CompanyNetsysteme,
		Items:   []dto.DocumentItemRequest{{ProductID: p.ID, Quantity: 3}},
	})
	var insuffErr *stockerr.InsufficientStockError
	require.ErrorAs(t, err, &insuffErr)
}

func TestCreateInvoice_TwoLinesSameProductCumulative(t *testing.T) {
	svc, products, _, _ := buildInvoiceSvc()
	p := seedProduct(products, "Onduleur", 5, 1)

	// 3 + 3 = 6 > 5: the second line must see the stock already consumed by
	// the first and fail, even though each line alone would fit.
	_, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		Company: model.CompanyNetsysteme,
		Items: []dto.DocumentItemRequest{
			{ProductID: p.ID, Quantity: 3},
			{ProductID: p.ID, Quantity: 3},
		},
	})
	var insuffErr *stockerr.InsufficientStockError
	require.ErrorAs(t, err, &insuffErr)
	assert.Equal(t, 2, insuffErr.Available)
}

func TestCreateInvoice_CustomUnitPrice(t *testing.T) {
	svc, products, _, _ := buildInvoiceSvc()
	p := seedProduct(products, "Licence", 10, 1)

	price := decimal.NewFromInt(100)
	resp, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		Company: model.CompanyNetsysteme,
		Items:   []dto.DocumentItemRequest{{ProductID: p.ID, Quantity: 2, UnitPrice: &price}},
	})
	require.NoError(t, err)
	assert.True(t, resp.TotalHT.Equal(decimal.NewFromInt(200)), "ht=%s", resp.TotalHT)
	assert.True(t, resp.TotalTTC.Equal(decimal.NewFromInt(236)), "ttc=%s", resp.TotalTTC)
}

func TestCreateInvoice_InvalidCompany(t *testing.T) {
	svc, products, _, _ := buildInvoiceSvc()
	seedProduct(products, "Câble", 10, 1)

	_, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{Company: "ACME"})
	var valErr *stockerr.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "company", valErr.Field)
}

func TestCancelInvoice_RestoresStockAndIsIdempotent(t *testing.T) {
	svc, products, _, _ := buildInvoiceSvc()
	p := seedProduct(products, "Pare-feu", 10, 1)

	resp, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		Company: model.CompanyNetsysteme,
		Items:   []dto.DocumentItemRequest{{ProductID: p.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	invID := uuid.MustParse(resp.ID)

	require.NoError(t, svc.Cancel(context.Background(), invID))
	got, _ := products.FindByID(context.Background(), p.ID)
	assert.Equal(t, 10, got.Quantity)

	// Second cancel is a no-op
	require.NoError(t, svc.Cancel(context.Background(), invID))
	got, _ = products.FindByID(context.Background(), p.ID)
	assert.Equal(t, 10, got.Quantity)

	reloaded, err := svc.Get(context.Background(), invID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsCancelled)
	// Totals survive cancellation; only the stock effect is reversed
	assert.True(t, reloaded.TotalTTC.Equal(decimal.NewFromInt(1180)), "ttc=%s", reloaded.TotalTTC)
}

func TestRestoreInvoice_ReappliesMovements(t *testing.T) {
	svc, products, _, _ := buildInvoiceSvc()
	p := seedProduct(products, "Antenne", 10, 1)

	resp, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		Company: model.CompanyNetsysteme,
		Items:   []dto.DocumentItemRequest{{ProductID: p.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	invID := uuid.MustParse(resp.ID)

	require.NoError(t, svc.Cancel(context.Background(), invID))
	require.NoError(t, svc.Restore(context.Background(), invID))

	got, _ := products.FindByID(context.Background(), p.ID)
	assert.Equal(t, 6, got.Quantity)
	reloaded, _ := svc.Get(context.Background(), invID)
	assert.False(t, reloaded.IsCancelled)
}

func TestRestoreInvoice_FailsWhenStockGone(t *testing.T) {
	svc, products, movements, _ := buildInvoiceSvc()
	p := seedProduct(products, "Borne WiFi", 5, 1)

	resp, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		Company: model.CompanyNetsysteme,
		Items:   []dto.DocumentItemRequest{{ProductID: p.ID, Quantity: 5}},
	})
	require.NoError(t, err)
	invID := uuid.MustParse(resp.ID)

	require.NoError(t, svc.Cancel(context.Background(), invID)) // stock back to 5

	// Drain the stock elsewhere
	stock := NewStockService(movements, products, newStubRecipientRepo(), nil)
	_, err = stock.CreateMovement(context.Background(), dto.CreateMovementRequest{
		ProductID: p.ID, MovementType: model.MovementExit, Quantity: 4,
	})
	require.NoError(t, err)

	err = svc.Restore(context.Background(), invID)
	var insuffErr *stockerr.InsufficientStockError
	require.ErrorAs(t, err, &insuffErr)
}

func TestRemoveItem_ReversesPairedMovement(t *testing.T) {
	svc, products, _, _ := buildInvoiceSvc()
	p1 := seedProduct(products, "Connecteur", 10, 1)
	p2 := seedProduct(products, "Goulotte", 10, 1)

	resp, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		Company: model.CompanyNetsysteme,
		Items: []dto.DocumentItemRequest{
			{ProductID: p1.ID, Quantity: 2},
			{ProductID: p2.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)
	invID := uuid.MustParse(resp.ID)

	var itemID uuid.UUID
	for _, it := range resp.Items {
		if it.ProductID == p1.ID.String() {
			itemID = uuid.MustParse(it.ID)
		}
	}
	require.NotEqual(t, uuid.Nil, itemID)

	after, err := svc.RemoveItem(context.Background(), invID, itemID)
	require.NoError(t, err)

	got, _ := products.FindByID(context.Background(), p1.ID)
	assert.Equal(t, 10, got.Quantity) // line reversed
	got2, _ := products.FindByID(context.Background(), p2.ID)
	assert.Equal(t, 7, got2.Quantity) // other line intact

	// Totals recomputed on the surviving line only: 3 × 250 × 1.18
	assert.True(t, after.TotalTTC.Equal(decimal.NewFromFloat(885)), "ttc=%s", after.TotalTTC)
	assert.Len(t, after.Items, 1)
}

func TestRecordPayment_AccumulatesAndClamps(t *testing.T) {
	svc, products, _, _ := buildInvoiceSvc()
	p := seedProduct(products, "Baie serveur", 10, 1)

	resp, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		Company: model.CompanyNetsysteme,
		Items:   []dto.DocumentItemRequest{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	invID := uuid.MustParse(resp.ID) // TTC = 295

	after, err := svc.RecordPayment(context.Background(), invID, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, after.AmountPaid.Equal(decimal.NewFromInt(100)))
	assert.True(t, after.AmountDue.Equal(decimal.NewFromInt(195)))

	// Overpayment clamps at the TTC total
	after, err = svc.RecordPayment(context.Background(), invID, decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.True(t, after.AmountPaid.Equal(decimal.NewFromInt(295)))
	assert.True(t, after.AmountDue.IsZero())
}

func TestRecordPayment_Rejections(t *testing.T) {
	svc, products, _, _ := buildInvoiceSvc()
	p := seedProduct(products, "Bobine fibre", 10, 1)

	resp, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		Company: model.CompanyNetsysteme,
		Items:   []dto.DocumentItemRequest{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	invID := uuid.MustParse(resp.ID)

	_, err = svc.RecordPayment(context.Background(), invID, decimal.Zero)
	var valErr *stockerr.ValidationError
	require.ErrorAs(t, err, &valErr)

	_, err = svc.RecordPayment(context.Background(), invID, decimal.NewFromInt(-5))
	require.ErrorAs(t, err, &valErr)

	require.NoError(t, svc.Cancel(context.Background(), invID))
	_, err = svc.RecordPayment(context.Background(), invID, decimal.NewFromInt(10))
	var cancelledErr *stockerr.CancelledDocumentError
	require.ErrorAs(t, err, &cancelledErr)
}

func TestConvertProforma_CreatesDefinitiveInvoice(t *testing.T) {
	svc, products, movements, _ := buildInvoiceSvc()
	p := seedProduct(products, "Modem", 10, 1)

	proforma, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		Company:    model.CompanySSE,
		IsProforma: true,
		Items:      []dto.DocumentItemRequest{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Empty(t, movements.movements)

	def, err := svc.ConvertProforma(context.Background(), uuid.MustParse(proforma.ID))
	require.NoError(t, err)
	assert.False(t, def.IsProforma)
	assert.NotEqual(t, proforma.ID, def.ID)
	assert.NotEqual(t, proforma.InvoiceNumber, def.InvoiceNumber)
	assert.True(t, def.TotalTTC.Equal(decimal.NewFromInt(590)), "ttc=%s", def.TotalTTC)

	got, _ := products.FindByID(context.Background(), p.ID)
	assert.Equal(t, 8, got.Quantity)
	assert.Len(t, movements.movements, 1)

	// Original proforma untouched
	src, err := svc.Get(context.Background(), uuid.MustParse(proforma.ID))
	require.NoError(t, err)
	assert.True(t, src.IsProforma)
}

func TestConvertProforma_Guards(t *testing.T) {
	svc, products, _, _ := buildInvoiceSvc()
	p := seedProduct(products, "Casque", 10, 1)

	// Not a proforma
	definitive, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		Company: model.CompanyNetsysteme,
		Items:   []dto.DocumentItemRequest{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = svc.ConvertProforma(context.Background(), uuid.MustParse(definitive.ID))
	var notProformaErr *stockerr.NotProformaError
	require.ErrorAs(t, err, &notProformaErr)

	// Empty proforma
	empty, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		Company:    model.CompanyNetsysteme,
		IsProforma: true,
	})
	require.NoError(t, err)
	_, err = svc.ConvertProforma(context.Background(), uuid.MustParse(empty.ID))
	var emptyErr *stockerr.EmptyDocumentError
	require.ErrorAs(t, err, &emptyErr)

	// Cancelled proforma
	cancelled, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		Company:    model.CompanyNetsysteme,
		IsProforma: true,
		Items:      []dto.DocumentItemRequest{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(context.Background(), uuid.MustParse(cancelled.ID)))
	_, err = svc.ConvertProforma(context.Background(), uuid.MustParse(cancelled.ID))
	var cancelledErr *stockerr.CancelledDocumentError
	require.ErrorAs(t, err, &cancelledErr)
}

func TestSoftDeleteInvoice_CancelsFirst(t *testing.T) {
	svc, products, _, _ := buildInvoiceSvc()
	p := seedProduct(products, "Répéteur", 10, 1)

	resp, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		Company: model.CompanyNetsysteme,
		Items:   []dto.DocumentItemRequest{{ProductID: p.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	invID := uuid.MustParse(resp.ID)

	require.NoError(t, svc.SoftDelete(context.Background(), invID))

	got, _ := products.FindByID(context.Background(), p.ID)
	assert.Equal(t, 10, got.Quantity)

	_, err = svc.Get(context.Background(), invID)
	var nfErr *stockerr.NotFoundError
	assert.ErrorAs(t, err, &nfErr)
}

func TestAddItem_OnCancelledInvoiceRejected(t *testing.T) {
	svc, products, _, _ := buildInvoiceSvc()
	p := seedProduct(products, "Prise RJ45", 10, 1)

	resp, err := svc.Create(context.Background(), dto.CreateInvoiceRequest{
		Company: model.CompanyNetsysteme,
		Items:   []dto.DocumentItemRequest{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	invID := uuid.MustParse(resp.ID)
	require.NoError(t, svc.Cancel(context.Background(), invID))

	_, err = svc.AddItem(context.Background(), invID, dto.DocumentItemRequest{ProductID: p.ID, Quantity: 1})
	var cancelledErr *stockerr.CancelledDocumentError
	require.ErrorAs(t, err, &cancelledErr)
}
