package sale

import "errors"

var (
	ErrSoldOut           = errors.New("sold out")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotOwner          = errors.New("not owner")
	ErrNotFound          = errors.New("ticket not found")
	ErrInvalidAddress    = errors.New("invalid address")
	ErrInvalidConfig     = errors.New("invalid sale config")
	ErrOutOfSequence     = errors.New("ticket id out of sequence")

	// ErrOverflow means a credit would exceed the representable balance range.
	// It is an invariant violation; the operation is aborted without effect.
	ErrOverflow = errors.New("balance overflow")
)
