package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/sneaker-checkout/internal/model"
)

// assign copies values into scan destinations for the column types the repositories read.
func assign(dest []any, values []any) {
	for i, v := range values {
		if i >= len(dest) {
			return
		}
		switch d := dest[i].(type) {
		case *uuid.UUID:
			*d = v.(uuid.UUID)
		case *string:
			*d = v.(string)
		case **string:
			*d = v.(*string)
		case *int:
			*d = v.(int)
		case **int:
			*d = v.(*int)
		case *bool:
			*d = v.(bool)
		case *decimal.Decimal:
			*d = v.(decimal.Decimal)
		case *decimal.NullDecimal:
			*d = v.(decimal.NullDecimal)
		case *time.Time:
			*d = v.(time.Time)
		case **time.Time:
			*d = v.(*time.Time)
		case *model.ProductStatus:
			*d = v.(model.ProductStatus)
		case *model.DiscountType:
			*d = v.(model.DiscountType)
		case *model.GiftCardStatus:
			*d = v.(model.GiftCardStatus)
		case *model.OrderStatus:
			*d = v.(model.OrderStatus)
		case *model.Address:
			*d = v.(model.Address)
		}
	}
}

func rowOf(values ...any) *mockRow {
	return &mockRow{
		scanFn: func(dest ...any) error {
			assign(dest, values)
			return nil
		},
	}
}

func errRow(err error) *mockRow {
	return &mockRow{
		scanFn: func(dest ...any) error {
			return err
		},
	}
}
