package handler

import (
	"errors"
	"net/http"
	"reflect"

	"gestock/internal/apierror"
	"gestock/internal/stockerr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalide : "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps the engine's typed errors to HTTP status codes. Anything
// untyped is an unexpected persistence failure and surfaces as a 500 without
// leaking internals.
func respondError(c *gin.Context, err error) {
	var (
		insufficientStock *stockerr.InsufficientStockError
		validation        *stockerr.ValidationError
		alreadyConverted  *stockerr.AlreadyConvertedError
		notProforma       *stockerr.NotProformaError
		emptyDocument     *stockerr.EmptyDocumentError
		cancelled         *stockerr.CancelledDocumentError
		notFound          *stockerr.NotFoundError
	)

	switch {
	case errors.As(err, &insufficientStock),
		errors.As(err, &alreadyConverted),
		errors.As(err, &notProforma),
		errors.As(err, &cancelled):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &validation), errors.As(err, &emptyDocument):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, apierror.New("Erreur interne"))
	}
}

// parseID parses a UUID path parameter. Writes the error response itself on
// failure, mirroring bindAndValidate.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalide"))
		return uuid.Nil, false
	}
	return id, true
}
