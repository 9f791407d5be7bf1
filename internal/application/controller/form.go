package controller

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/pkg/utils"
)

// FormSnapshot is the typed content of the new-bill form
type FormSnapshot struct {
	Type       string  `form:"type" validate:"required,billtype"`
	Name       string  `form:"name" validate:"max=200"`
	Date       string  `form:"date" validate:"required,datetime=2006-01-02"`
	Amount     float64 `form:"amount" validate:"gt=0"`
	VAT        float64 `form:"vat" validate:"gte=0"`
	Pct        int     `form:"pct" validate:"gte=0,lte=100"`
	Commentary string  `form:"commentary" validate:"max=1000"`
}

// ValidationError lists the form fields that failed validation
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid form fields: %s", strings.Join(e.Fields, ", "))
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := utils.NewValidator()
	if err := v.RegisterValidation("billtype", func(fl validator.FieldLevel) bool {
		return entity.IsValidBillType(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// ParseFormSnapshot reads the form fields. Blank numbers are left at zero
// except pct, which defaults to 20. Malformed numbers are reported as a
// ValidationError.
func ParseFormSnapshot(values url.Values) (FormSnapshot, error) {
	form := FormSnapshot{
		Type:       strings.TrimSpace(values.Get("type")),
		Name:       utils.SanitizeString(values.Get("name")),
		Date:       strings.TrimSpace(values.Get("date")),
		Commentary: utils.SanitizeString(values.Get("commentary")),
		Pct:        entity.DefaultPct,
	}

	var bad []string
	if s := strings.TrimSpace(values.Get("amount")); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			bad = append(bad, "amount")
		}
		form.Amount = v
	}
	if s := strings.TrimSpace(values.Get("vat")); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			bad = append(bad, "vat")
		}
		form.VAT = v
	}
	if s := strings.TrimSpace(values.Get("pct")); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			bad = append(bad, "pct")
		}
		form.Pct = v
	}

	if len(bad) > 0 {
		return form, &ValidationError{Fields: bad}
	}
	return form, nil
}

// ParseFormMap is ParseFormSnapshot for a plain map of field values
func ParseFormMap(fields map[string]string) (FormSnapshot, error) {
	values := make(url.Values, len(fields))
	for k, v := range fields {
		values.Set(k, v)
	}
	return ParseFormSnapshot(values)
}

// Validate checks the snapshot against the form rules
func (f FormSnapshot) Validate() error {
	err := formValidator.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{Fields: fields}
}

// Bill builds the pending bill described by the snapshot for the given owner
func (f FormSnapshot) Bill(email string) *entity.Bill {
	return &entity.Bill{
		Type:       f.Type,
		Name:       f.Name,
		Date:       f.Date,
		Amount:     f.Amount,
		VAT:        f.VAT,
		Pct:        f.Pct,
		Commentary: f.Commentary,
		Status:     entity.StatusPending,
		Email:      email,
	}
}
