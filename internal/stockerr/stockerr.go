// Package stockerr defines the typed business errors of the stock/document
// engine. Handlers map them to HTTP status codes with errors.As; anything not
// defined here is treated as an unexpected persistence failure and surfaces
// as a 500 without retry.
package stockerr

import "fmt"

// InsufficientStockError rejects an EXIT (or any consumption) that exceeds
// the product's current quantity. The engine never clamps: the caller gets
// the product, what is available and what was asked for, and decides.
type InsufficientStockError struct {
	Product   string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuffisant pour le produit %s : disponible %d, demandé %d",
		e.Product, e.Available, e.Requested)
}

// ValidationError rejects malformed or inconsistent input before any
// persistence happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s : %s", e.Field, e.Message)
}

// AlreadyConvertedError rejects a second conversion of the same quote.
type AlreadyConvertedError struct {
	QuoteNumber string
}

func (e *AlreadyConvertedError) Error() string {
	return fmt.Sprintf("le devis %s a déjà été converti en facture", e.QuoteNumber)
}

// NotProformaError rejects proforma-only operations on definitive invoices.
type NotProformaError struct {
	InvoiceNumber string
}

func (e *NotProformaError) Error() string {
	return fmt.Sprintf("la facture %s n'est pas une pro forma", e.InvoiceNumber)
}

// EmptyDocumentError rejects conversions of documents with no active items.
type EmptyDocumentError struct {
	Number string
}

func (e *EmptyDocumentError) Error() string {
	return fmt.Sprintf("le document %s ne contient aucun article", e.Number)
}

// CancelledDocumentError rejects operations that require an active document,
// such as recording a payment on a cancelled invoice.
type CancelledDocumentError struct {
	Number string
}

func (e *CancelledDocumentError) Error() string {
	return fmt.Sprintf("la facture %s est annulée", e.Number)
}

// NotFoundError signals that the operation targeted a nonexistent or
// soft-deleted entity where an active one is required.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " introuvable"
}
