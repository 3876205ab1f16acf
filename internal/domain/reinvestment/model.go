// Package reinvestment moves part of a month's profit back into the business
// as owner investment.
package reinvestment

import (
	"time"

	"helmetledger/internal/core/apperror"
	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
)

// CodeInvalidReinvestment rejects an amount outside (0, availableProfit].
const CodeInvalidReinvestment = "INVALID_REINVESTMENT"

// Type selects how Request.Value is read.
type Type string

const (
	TypeFixed      Type = "FIXED"
	TypePercentage Type = "PERCENTAGE"
)

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	return t == TypeFixed || t == TypePercentage
}

// Leg sub-references inside REINVESTMENT#<id>.
const (
	SubBankWithdrawal = "bank-withdrawal"
	SubCashWithdrawal = "cash-withdrawal"
	SubBankDeposit    = "bank-deposit"
	SubCashTransfer   = "cash-transfer"
)

var (
	minAmount     = types.MustMoney("0.01")
	minPercentage = types.MustMoney("0.01")
	maxPercentage = types.FromInt(100)
)

// Request asks to reinvest a fixed amount or a percentage of a month's profit.
type Request struct {
	Month types.Month `json:"month"`
	Type  Type        `json:"type"`
	Value types.Money `json:"value"`
}

// Validate checks the request shape. Amount bounds depend on the profit and
// are checked by the service.
func (r Request) Validate() error {
	if r.Month.IsZero() {
		return apperror.NewValidation("month is required")
	}
	if !r.Type.Valid() {
		return apperror.NewValidation("invalid reinvestment type").WithDetail("type", r.Type)
	}
	if r.Type == TypePercentage && (r.Value.LessThan(minPercentage) || r.Value.GreaterThan(maxPercentage)) {
		return apperror.NewBusinessRule(CodeInvalidReinvestment, "Percentage must be between 0.01 and 100").
			WithDetail("value", r.Value.String())
	}
	return nil
}

// Result describes an executed reinvestment.
type Result struct {
	ID                 id.ID                `json:"id"`
	Month              types.Month          `json:"month"`
	Type               Type                 `json:"type"`
	Amount             types.Money          `json:"amount"`
	AvailableProfit    types.Money          `json:"availableProfit"`
	PercentageOfProfit types.Money          `json:"percentageOfProfit"`
	RemainingProfit    types.Money          `json:"remainingProfit"`
	ExecutedAt         time.Time            `json:"executedAt"`
	Transactions       []ledger.Transaction `json:"transactions"`
}
