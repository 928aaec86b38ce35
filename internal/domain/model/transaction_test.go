package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/vigil/internal/domain/model"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func validTxn() model.Transaction {
	return model.Transaction{
		ID:         "txn-1",
		UserID:     "user-1",
		MerchantID: "merchant-1",
		Amount:     decimal.NewFromFloat(100),
		Type:       "purchase",
		Timestamp:  time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestTransactionValidate(t *testing.T) {
	Convey("Given a well-formed transaction", t, func() {
		txn := validTxn()

		Convey("Then validation should pass", func() {
			So(txn.Validate(), ShouldBeNil)
		})

		Convey("When the id is blank", func() {
			txn.ID = "  "
			err := txn.Validate()
			So(err, ShouldNotBeNil)
			So(errors.Is(err, model.ErrInvalidTransaction), ShouldBeTrue)
		})

		Convey("When the user id is missing", func() {
			txn.UserID = ""
			So(errors.Is(txn.Validate(), model.ErrInvalidTransaction), ShouldBeTrue)
		})

		Convey("When the merchant id is missing", func() {
			txn.MerchantID = ""
			So(errors.Is(txn.Validate(), model.ErrInvalidTransaction), ShouldBeTrue)
		})

		Convey("When the amount is zero", func() {
			txn.Amount = decimal.Zero
			So(errors.Is(txn.Validate(), model.ErrInvalidTransaction), ShouldBeTrue)
		})

		Convey("When the amount is negative", func() {
			txn.Amount = decimal.NewFromFloat(-5)
			So(errors.Is(txn.Validate(), model.ErrInvalidTransaction), ShouldBeTrue)
		})

		Convey("When the timestamp is zero", func() {
			txn.Timestamp = time.Time{}
			So(errors.Is(txn.Validate(), model.ErrInvalidTransaction), ShouldBeTrue)
		})
	})
}
