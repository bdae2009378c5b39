// Package validator wires go-playground/validator into echo and the usecases.
package validator

import (
	"reflect"

	"marketplace/internal/domain/model"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// echo.Validator と usecase.Validator の両方を満たす
type Validator struct {
	v *validatorv10.Validate
}

func New() *Validator {
	v := validatorv10.New()

	//decimalはfloat64として比べる（gt=0などを効かせる）
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	//報酬はkindで中身が決まる
	v.RegisterStructValidation(wageStructValidation, model.WageInfo{})

	return &Validator{v: v}
}

func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// handlerのエラー表示用（フィールド名 → タグ）
func Fields(err error) map[string]string {
	out := map[string]string{}
	if ve, ok := err.(validatorv10.ValidationErrors); ok {
		for _, fe := range ve {
			out[fe.Namespace()] = fe.Tag()
		}
	}
	return out
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func wageStructValidation(sl validatorv10.StructLevel) {
	w := sl.Current().Interface().(model.WageInfo)
	if err := w.Validate(); err != nil {
		sl.ReportError(w.Amount, "amount", "Amount", "wage_amount", "")
	}
}
