package dto

import "helmetledger/internal/domain/ledger"

// SumQuery is the query of GET /reports/sum.
type SumQuery struct {
	Where string `form:"where" binding:"required,max=2000"`
}

// MonthsResponse lists the months that have ledger rows, newest first.
type MonthsResponse struct {
	Months []ledger.MonthCount `json:"months"`
}
