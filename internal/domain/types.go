package domain

import (
	"time"

	"github.com/google/uuid"
)

// Address identifies an account. It is supplied by the caller's environment
// and is not verified here.
type Address string

func (a Address) String() string { return string(a) }

type EventKind string

const (
	EventFundsTransfer  EventKind = "funds_transfer"
	EventTicketMint     EventKind = "ticket_mint"
	EventTicketTransfer EventKind = "ticket_transfer"
)

type Ticket struct {
	ID    uint64
	Owner Address
}

// Event is an observational record of a committed state change.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Kind      EventKind `json:"kind"`
	TokenID   uint64    `json:"token_id,omitempty"`
	From      Address   `json:"from,omitempty"`
	To        Address   `json:"to,omitempty"`
	Amount    uint64    `json:"amount,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type SaleParams struct {
	BasePrice      uint64
	Fee            uint64
	TicketCap      uint64
	SlotSize       uint64
	SlotCount      uint64
	Issuer         Address
	FeeBeneficiary Address
}

type SaleInfo struct {
	BasePrice      uint64  `json:"base_price"`
	Fee            uint64  `json:"fee"`
	TicketCap      uint64  `json:"ticket_cap"`
	SlotSize       uint64  `json:"slot_size"`
	SlotCount      uint64  `json:"slot_count"`
	Issuer         Address `json:"issuer"`
	FeeBeneficiary Address `json:"fee_beneficiary"`
	LastTokenID    uint64  `json:"last_token_id"`
	Remaining      uint64  `json:"remaining"`
}
