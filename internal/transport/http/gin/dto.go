package httpgin

import (
	"github.com/kirinyoku/tixmint/internal/domain"
)

type MintRequest struct {
	Buyer string `json:"buyer"`
}

type TransferRequest struct {
	Sender    string `json:"sender" binding:"required"`
	Recipient string `json:"recipient" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MintResponse struct {
	TokenID uint64         `json:"token_id"`
	Events  []domain.Event `json:"events"`
}

type FundResponse struct {
	Amount uint64         `json:"amount"`
	Events []domain.Event `json:"events"`
}

type TransferResponse struct {
	Events []domain.Event `json:"events"`
}

type LastTokenIDResponse struct {
	LastTokenID uint64 `json:"last_token_id"`
}

type OwnerResponse struct {
	TokenID uint64  `json:"token_id"`
	Owner   *string `json:"owner"`
}

type TokenURIResponse struct {
	TokenID uint64  `json:"token_id"`
	URI     *string `json:"uri"`
}

type BalanceResponse struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

func optional(s string, ok bool) *string {
	if !ok {
		return nil
	}
	return &s
}
