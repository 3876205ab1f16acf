package dto

import (
	"time"

	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
	"helmetledger/internal/domain/wallet"
)

// ConvertRequest is the body of POST /wallets/convert.
type ConvertRequest struct {
	From   ledger.Wallet `json:"from" binding:"required,oneof=CASH BANK"`
	To     ledger.Wallet `json:"to" binding:"required,oneof=CASH BANK,nefield=From"`
	Amount types.Money   `json:"amount" binding:"gt=0"`
	Date   *time.Time    `json:"date"`
}

// ToInput converts the request into the domain input.
func (r *ConvertRequest) ToInput() wallet.ConvertInput {
	in := wallet.ConvertInput{From: r.From, To: r.To, Amount: r.Amount}
	if r.Date != nil {
		in.Date = *r.Date
	}
	return in
}

// WalletsResponse lists the accounts with their balances.
type WalletsResponse struct {
	Balances wallet.Balances  `json:"balances"`
	Accounts []wallet.Account `json:"accounts"`
}
