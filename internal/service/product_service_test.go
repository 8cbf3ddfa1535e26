package service

import (
	"context"
	"testing"

	"gestock/internal/dto"
	"gestock/internal/stockerr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildProductSvc() (ProductService, *stubProductRepo) {
	products := newStubProductRepo()
	return NewProductService(products), products
}

func TestCreateProduct(t *testing.T) {
	svc, _ := buildProductSvc()

	resp, err := svc.Create(context.Background(), dto.CreateProductRequest{
		Name:           "Câble HDMI 2m",
		Quantity:       12,
		PurchasePrice:  decimal.NewFromInt(1500),
		SalePrice:      decimal.NewFromInt(2500),
		AlertThreshold: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, resp.Quantity)
	assert.True(t, resp.IsActive)
	assert.False(t, resp.IsLowStock)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, _ := buildProductSvc()
	var valErr *stockerr.ValidationError

	cases := []struct {
		name  string
		req   dto.CreateProductRequest
		field string
	}{
		{
			name:  "negative quantity",
			req:   dto.CreateProductRequest{Name: "X", Quantity: -1},
			field: "quantity",
		},
		{
			name:  "negative threshold",
			req:   dto.CreateProductRequest{Name: "X", AlertThreshold: -1},
			field: "alert_threshold",
		},
		{
			name: "negative purchase price",
			req: dto.CreateProductRequest{
				Name:          "X",
				PurchasePrice: decimal.NewFromInt(-1),
			},
			field: "purchase_price",
		},
		{
			name: "sale below purchase",
			req: dto.CreateProductRequest{
				Name:          "X",
				PurchasePrice: decimal.NewFromInt(200),
				SalePrice:     decimal.NewFromInt(100),
			},
			field: "sale_price",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tc.field, valErr.Field)
		})
	}
}

func TestUpdateProduct_MergesFieldsButNotQuantity(t *testing.T) {
	svc, products := buildProductSvc()
	p := seedProduct(products, "Routeur", 10, 2)

	newSale := decimal.NewFromInt(300)
	resp, err := svc.Update(context.Background(), p.ID, dto.UpdateProductRequest{
		Name:      "Routeur Pro",
		SalePrice: &newSale,
	})
	require.NoError(t, err)
	assert.Equal(t, "Routeur Pro", resp.Name)
	assert.True(t, resp.SalePrice.Equal(newSale))
	// Untouched fields keep their values
	assert.True(t, resp.PurchasePrice.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 2, resp.AlertThreshold)

	// Quantity is journal-owned: the stored row still carries the old value
	got, _ := products.FindByID(context.Background(), p.ID)
	assert.Equal(t, 10, got.Quantity)
}

func TestUpdateProduct_PriceCoherenceAcrossMerge(t *testing.T) {
	svc, products := buildProductSvc()
	p := seedProduct(products, "Switch", 5, 1) // purchase 100, sale 250

	// New purchase price above the existing sale price must be rejected even
	// though the request itself names no sale price.
	newPurchase := decimal.NewFromInt(400)
	_, err := svc.Update(context.Background(), p.ID, dto.UpdateProductRequest{
		PurchasePrice: &newPurchase,
	})
	var valErr *stockerr.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "sale_price", valErr.Field)
}

func TestSoftDeleteRestoreProduct(t *testing.T) {
	svc, products := buildProductSvc()
	p := seedProduct(products, "Onduleur", 5, 1)

	require.NoError(t, svc.SoftDelete(context.Background(), p.ID))
	got, _ := products.FindByID(context.Background(), p.ID)
	assert.False(t, got.IsActive)
	assert.NotNil(t, got.DeletedAt)

	require.NoError(t, svc.Restore(context.Background(), p.ID))
	got, _ = products.FindByID(context.Background(), p.ID)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.DeletedAt)
}

func TestHardDeleteProduct_RefusedWhileReferenced(t *testing.T) {
	svc, products := buildProductSvc()
	p := seedProduct(products, "Serveur", 5, 1)
	products.refs[p.ID] = 3

	err := svc.HardDelete(context.Background(), p.ID)
	var valErr *stockerr.ValidationError
	require.ErrorAs(t, err, &valErr)

	// Still there
	_, err = svc.Get(context.Background(), p.ID)
	require.NoError(t, err)

	// Unreferenced products can go
	products.refs[p.ID] = 0
	require.NoError(t, svc.HardDelete(context.Background(), p.ID))
	_, err = svc.Get(context.Background(), p.ID)
	var nfErr *stockerr.NotFoundError
	assert.ErrorAs(t, err, &nfErr)
}

func TestGetProduct_Unknown(t *testing.T) {
	svc, _ := buildProductSvc()
	_, err := svc.Get(context.Background(), uuid.New())
	var nfErr *stockerr.NotFoundError
	assert.ErrorAs(t, err, &nfErr)
}

func TestListLowStock(t *testing.T) {
	svc, products := buildProductSvc()
	seedProduct(products, "OK", 10, 2)
	low := seedProduct(products, "Bas", 1, 2)
	zero := seedProduct(products, "Épuisé", 0, 0)

	out, err := svc.ListLowStock(context.Background())
	require.NoError(t, err)
	names := make([]string, 0, len(out))
	for _, p := range out {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{low.Name, zero.Name}, names)
}

func TestStockValuation(t *testing.T) {
	svc, products := buildProductSvc()
	seedProduct(products, "A", 10, 1) // 10 × 100
	seedProduct(products, "B", 3, 1)  // 3 × 100

	total, err := svc.StockValuation(context.Background())
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(1300)), "total=%s", total)
}
