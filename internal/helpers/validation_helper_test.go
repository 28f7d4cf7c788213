package helpers

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestFieldErrors(t *testing.T) {
	type item struct {
		TicketTypeID string `binding:"required,uuid"`
		Quantity     int    `binding:"required,gte=1"`
	}
	type payload struct {
		EventID string `binding:"required,uuid"`
		Items   []item `binding:"required,min=1,dive"`
	}

	v := validator.New()
	v.SetTagName("binding")

	err := v.Struct(payload{
		EventID: "nope",
		Items:   []item{{TicketTypeID: "", Quantity: 0}},
	})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	fieldErrors := FieldErrors(err)
	for _, field := range []string{"event_id", "items[0].ticket_type_id", "items[0].quantity"} {
		if _, ok := fieldErrors[field]; !ok {
			t.Errorf("missing field error for %q, got %v", field, fieldErrors)
		}
	}
}

func TestFieldErrorsNonValidatorError(t *testing.T) {
	fieldErrors := FieldErrors(errors.New("unexpected EOF"))
	if _, ok := fieldErrors["body"]; !ok {
		t.Errorf("expected a body entry for non-validator errors, got %v", fieldErrors)
	}
}
