package dto

import (
	"helmetledger/internal/core/types"
	"helmetledger/internal/domain/reinvestment"
)

// ReinvestmentRequest is the body of POST /reinvestments.
type ReinvestmentRequest struct {
	Month types.Month       `json:"month"`
	Type  reinvestment.Type `json:"type" binding:"required,oneof=FIXED PERCENTAGE"`
	Value types.Money       `json:"value" binding:"gt=0"`
}

// ToRequest converts the body into the domain request.
func (r *ReinvestmentRequest) ToRequest() reinvestment.Request {
	return reinvestment.Request{Month: r.Month, Type: r.Type, Value: r.Value}
}
