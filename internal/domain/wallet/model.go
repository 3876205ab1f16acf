// Package wallet provides the owner's CASH and BANK accounts and their derived balances.
package wallet

import (
	"time"

	"helmetledger/internal/core/id"
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/ledger"
)

// Account is the booking target of wallet rows. Its balance is never stored.
type Account struct {
	ID         id.ID         `db:"id" json:"id"`
	OwnerID    string        `db:"owner_id" json:"ownerId"`
	WalletType ledger.Wallet `db:"wallet_type" json:"walletType"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
}

// Balances are the current wallet balances of an owner.
type Balances struct {
	Bank  types.Money `json:"bank"`
	Cash  types.Money `json:"cash"`
	Total types.Money `json:"total"`
}

// Of returns the balance of one wallet.
func (b Balances) Of(w ledger.Wallet) types.Money {
	if w == ledger.WalletCash {
		return b.Cash
	}
	return b.Bank
}

// ConvertInput moves money between the owner's wallets.
type ConvertInput struct {
	From   ledger.Wallet
	To     ledger.Wallet
	Amount types.Money
	Date   time.Time
}

// Conversion is the result of a balance conversion.
type Conversion struct {
	ID           id.ID                `json:"id"`
	From         ledger.Wallet        `json:"from"`
	To           ledger.Wallet        `json:"to"`
	Amount       types.Money          `json:"amount"`
	Transactions []ledger.Transaction `json:"transactions"`
	Balances     Balances             `json:"balances"`
}
