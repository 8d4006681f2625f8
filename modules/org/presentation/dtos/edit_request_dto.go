package dtos

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/iota-uz/go-i18n/v2/i18n"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/orgplan/modules/org/domain/orgtree"
	"github.com/iota-uz/orgplan/modules/org/services"
	"github.com/iota-uz/orgplan/pkg/constants"
	"github.com/iota-uz/orgplan/pkg/intl"
)

// EditRequest is a raw single-field edit as typed by a user.
type EditRequest struct {
	RequestID string `json:"request_id" yaml:"request_id"`
	NodeID    string `json:"node_id" yaml:"node_id" validate:"required"`
	Field     string `json:"field" yaml:"field" validate:"required,oneof=headcount target_capacity validated_capacity name person status"`
	Value     string `json:"value" yaml:"value"`
}

func (d *EditRequest) Normalize() {
	d.RequestID = strings.TrimSpace(d.RequestID)
	d.NodeID = strings.TrimSpace(d.NodeID)
	d.Field = strings.ToLower(strings.TrimSpace(d.Field))
	d.Value = strings.TrimSpace(d.Value)
}

// Ok validates the request shape and returns localized messages keyed by
// field name. ctx must carry a localizer.
func (d *EditRequest) Ok(ctx context.Context) (map[string]string, bool) {
	l, ok := intl.UseLocalizer(ctx)
	if !ok {
		panic(intl.ErrNoLocalizer)
	}

	d.Normalize()

	errorMessages := map[string]string{}
	errs := constants.Validate.Struct(d)
	if errs == nil {
		return errorMessages, true
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(errs, &validatorErrs) {
		errorMessages["_"] = errs.Error()
		return errorMessages, false
	}
	for _, err := range validatorErrs {
		translatedFieldName := l.MustLocalize(&i18n.LocalizeConfig{
			MessageID: fmt.Sprintf("EditRequest.Fields.%s", err.Field()),
		})
		tag := err.Tag()
		if tag != "required" && tag != "oneof" {
			tag = "invalid"
		}
		errorMessages[err.Field()] = l.MustLocalize(&i18n.LocalizeConfig{
			MessageID: fmt.Sprintf("ValidationErrors.%s", tag),
			TemplateData: map[string]string{
				"Field": translatedFieldName,
				"Param": err.Param(),
			},
		})
	}
	return errorMessages, len(errorMessages) == 0
}

// ToEdit parses Value according to Field. Call Ok first.
func (d *EditRequest) ToEdit() (services.Edit, error) {
	edit := services.Edit{
		RequestID: d.RequestID,
		NodeID:    orgtree.NodeID(d.NodeID),
		Field:     services.Field(d.Field),
	}
	if edit.Field == services.FieldHeadcount {
		n, err := strconv.Atoi(d.Value)
		if err != nil {
			return services.Edit{}, fmt.Errorf("%w: headcount %q is not a whole number", services.ErrInvalidInput, d.Value)
		}
		edit.Headcount = n
		return edit, nil
	}
	m, err := d.ToMutation()
	if err != nil {
		return services.Edit{}, err
	}
	edit.Mutation = m
	return edit, nil
}

// ToMutation parses Value for every field except headcount. A blank
// validated capacity clears it.
func (d *EditRequest) ToMutation() (services.FieldMutation, error) {
	switch services.Field(d.Field) {
	case services.FieldTargetCapacity:
		amount, err := ParseAmount(d.Value)
		if err != nil {
			return nil, err
		}
		return services.SetTargetCapacity{Amount: amount}, nil
	case services.FieldValidatedCapacity:
		if d.Value == "" {
			return services.SetValidatedCapacity{Capacity: orgtree.Unset()}, nil
		}
		amount, err := ParseAmount(d.Value)
		if err != nil {
			return nil, err
		}
		return services.SetValidatedCapacity{Capacity: orgtree.CapacityOf(amount)}, nil
	case services.FieldName:
		if d.Value == "" {
			return nil, fmt.Errorf("%w: name must not be blank", services.ErrInvalidInput)
		}
		return services.SetName{Name: d.Value}, nil
	case services.FieldPersonLabel:
		return services.SetPersonLabel{Label: d.Value}, nil
	case services.FieldStatus:
		return services.SetStatus{Status: d.Value}, nil
	default:
		return nil, fmt.Errorf("%w: field %q has no mutation", services.ErrInvalidInput, d.Field)
	}
}

// ParseAmount accepts plain decimals with an optional leading "$" and
// thousands separators.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is blank", services.ErrInvalidInput)
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q: %v", services.ErrInvalidInput, raw, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount %s is negative", services.ErrInvalidInput, amount)
	}
	return amount, nil
}
