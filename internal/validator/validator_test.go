package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type sample struct {
	Amount  string `validate:"decimal_amount"`
	Initial string `validate:"omitempty,decimal_nonneg"`
	Type    string `validate:"transaction_type"`
	Color   string `validate:"omitempty,hex_color"`
	Date    string `validate:"omitempty,date_only"`
	Month   int    `validate:"omitempty,budget_month"`
}

func newValidate() *validator.Validate {
	v := validator.New()
	registerOn(v)
	return v
}

func TestCustomTags(t *testing.T) {
	v := newValidate()

	tests := []struct {
		name  string
		input sample
		valid bool
	}{
		{"valid", sample{Amount: "10.50", Type: "expense", Color: "#ff0000", Date: "2024-02-29"}, true},
		{"zero amount", sample{Amount: "0", Type: "expense"}, false},
		{"three decimals", sample{Amount: "1.234", Type: "expense"}, false},
		{"zero initial allowed", sample{Amount: "1", Initial: "0", Type: "income"}, true},
		{"negative initial", sample{Amount: "1", Initial: "-1", Type: "income"}, false},
		{"transfer not supported", sample{Amount: "1", Type: "transfer"}, false},
		{"bad color", sample{Amount: "1", Type: "income", Color: "red"}, false},
		{"bad date", sample{Amount: "1", Type: "income", Date: "2023-02-29"}, false},
		{"month out of range", sample{Amount: "1", Type: "income", Month: 13}, false},
		{"december", sample{Amount: "1", Type: "income", Month: 12}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

type boundRequest struct {
	Amount string `binding:"required,decimal_amount"`
	Type   string `binding:"required,transaction_type"`
}

func TestRegister_GinBinding(t *testing.T) {
	Register()
	Register()

	if err := binding.Validator.ValidateStruct(boundRequest{Amount: "450.00", Type: "expense"}); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if err := binding.Validator.ValidateStruct(boundRequest{Amount: "0", Type: "expense"}); err == nil {
		t.Error("expected zero amount to be rejected")
	}
	if err := binding.Validator.ValidateStruct(boundRequest{Amount: "1", Type: "transfer"}); err == nil {
		t.Error("expected unknown type to be rejected")
	}
}
