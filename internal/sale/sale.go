package sale

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/tixmint/internal/domain"
)

// Receipt describes the committed effect of a mutating operation.
type Receipt struct {
	TokenID uint64
	Amount  uint64
	Events  []domain.Event
}

// Sale is the mint coordinator. It is the only entry point that couples
// funds movement to ticket allocation.
type Sale struct {
	cfg   Config
	store Store
	now   func() time.Time
}

func New(cfg Config, store Store) *Sale {
	return &Sale{
		cfg:   cfg,
		store: store,
		now:   time.Now,
	}
}

func (s *Sale) Config() Config { return s.cfg }

// Mint allocates the next ticket to buyer in exchange for the base price
// (credited to the issuer) and the fee (credited to the fee beneficiary).
//
// Capacity is checked before funds move, so a sold-out buyer is never
// charged. Both payments are validated as one batch.
//
// Returns:
//   - Receipt: the new ticket id and the emitted events.
//   - error: sale.ErrSoldOut if the ticket cap is reached.
//   - error: sale.ErrInsufficientFunds if buyer cannot cover price plus fee.
func (s *Sale) Mint(ctx context.Context, buyer domain.Address) (Receipt, error) {
	const op = "sale.Sale.Mint"

	if buyer == "" {
		return Receipt{}, fmt.Errorf("%s:%w", op, ErrInvalidAddress)
	}

	var rcpt Receipt

	err := s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		id, err := tx.Registry().NextID(ctx)
		if err != nil {
			return err
		}

		if err := tx.Ledger().TransferPair(
			ctx,
			buyer,
			s.cfg.Issuer(), s.cfg.BasePrice(),
			s.cfg.FeeBeneficiary(), s.cfg.Fee(),
		); err != nil {
			return err
		}

		if err := tx.Registry().CommitMint(ctx, id, buyer); err != nil {
			return err
		}

		now := s.now()
		var events []domain.Event
		events = appendFunds(events, now, buyer, s.cfg.Issuer(), s.cfg.BasePrice())
		events = appendFunds(events, now, buyer, s.cfg.FeeBeneficiary(), s.cfg.Fee())
		events = append(events, domain.Event{
			ID:        uuid.New(),
			Kind:      domain.EventTicketMint,
			TokenID:   id,
			To:        buyer,
			CreatedAt: now,
		})

		if err := tx.Journal().Append(ctx, events...); err != nil {
			return err
		}

		rcpt = Receipt{TokenID: id, Amount: s.cfg.MintPrice(), Events: events}

		return nil
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("%s:%w", op, err)
	}

	return rcpt, nil
}

// Fund moves one slot size from caller to the issuer. It is not bounded by
// the slot count.
//
// Returns:
//   - Receipt: Amount is the transferred slot size.
//   - error: sale.ErrInsufficientFunds if caller's balance is short.
func (s *Sale) Fund(ctx context.Context, caller domain.Address) (Receipt, error) {
	const op = "sale.Sale.Fund"

	if caller == "" {
		return Receipt{}, fmt.Errorf("%s:%w", op, ErrInvalidAddress)
	}

	var rcpt Receipt

	err := s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		amount := s.cfg.SlotSize()

		if err := tx.Ledger().Transfer(ctx, caller, s.cfg.Issuer(), amount); err != nil {
			return err
		}

		events := appendFunds(nil, s.now(), caller, s.cfg.Issuer(), amount)
		if err := tx.Journal().Append(ctx, events...); err != nil {
			return err
		}

		rcpt = Receipt{Amount: amount, Events: events}

		return nil
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("%s:%w", op, err)
	}

	return rcpt, nil
}

// Transfer hands ticket id from sender to recipient. Both caller and sender
// must be the current owner.
//
// Returns:
//   - error: sale.ErrNotFound if id was never minted.
//   - error: sale.ErrNotOwner if caller or sender does not hold the ticket.
func (s *Sale) Transfer(
	ctx context.Context,
	id uint64,
	sender, recipient, caller domain.Address,
) (Receipt, error) {
	const op = "sale.Sale.Transfer"

	if recipient == "" || caller == "" {
		return Receipt{}, fmt.Errorf("%s:%w", op, ErrInvalidAddress)
	}

	var rcpt Receipt

	err := s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		owner, ok, err := tx.Registry().Owner(ctx, id)
		if err != nil {
			return err
		}

		if !ok {
			return ErrNotFound
		}

		if sender != owner {
			return ErrNotOwner
		}

		if err := tx.Registry().TransferOwnership(ctx, id, caller, recipient); err != nil {
			return err
		}

		events := []domain.Event{{
			ID:        uuid.New(),
			Kind:      domain.EventTicketTransfer,
			TokenID:   id,
			From:      owner,
			To:        recipient,
			CreatedAt: s.now(),
		}}

		if err := tx.Journal().Append(ctx, events...); err != nil {
			return err
		}

		rcpt = Receipt{TokenID: id, Events: events}

		return nil
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("%s:%w", op, err)
	}

	return rcpt, nil
}

// Owner returns the holder of id; ok is false if id was never minted.
func (s *Sale) Owner(ctx context.Context, id uint64) (owner domain.Address, ok bool, err error) {
	const op = "sale.Sale.Owner"

	err = s.store.View(ctx, func(ctx context.Context, tx Tx) error {
		owner, ok, err = tx.Registry().Owner(ctx, id)
		return err
	})
	if err != nil {
		return "", false, fmt.Errorf("%s:%w", op, err)
	}

	return owner, ok, nil
}

// TokenURI always reports no URI: no metadata scheme is defined.
func (s *Sale) TokenURI(context.Context, uint64) (string, bool, error) {
	return "", false, nil
}

func (s *Sale) LastTokenID(ctx context.Context) (uint64, error) {
	const op = "sale.Sale.LastTokenID"

	var last uint64
	err := s.store.View(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		last, err = tx.Registry().LastTokenID(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return last, nil
}

func (s *Sale) Balance(ctx context.Context, addr domain.Address) (uint64, error) {
	const op = "sale.Sale.Balance"

	var bal uint64
	err := s.store.View(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		bal, err = tx.Ledger().Balance(ctx, addr)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return bal, nil
}

// Events lists the journal entries that reference tokenID, oldest first.
func (s *Sale) Events(ctx context.Context, tokenID uint64) ([]domain.Event, error) {
	const op = "sale.Sale.Events"

	var out []domain.Event
	err := s.store.View(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.Journal().ByToken(ctx, tokenID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Sale) Info(ctx context.Context) (domain.SaleInfo, error) {
	last, err := s.LastTokenID(ctx)
	if err != nil {
		return domain.SaleInfo{}, err
	}

	p := s.cfg.Params()

	return domain.SaleInfo{
		BasePrice:      p.BasePrice,
		Fee:            p.Fee,
		TicketCap:      p.TicketCap,
		SlotSize:       p.SlotSize,
		SlotCount:      p.SlotCount,
		Issuer:         p.Issuer,
		FeeBeneficiary: p.FeeBeneficiary,
		LastTokenID:    last,
		Remaining:      p.TicketCap - last,
	}, nil
}

// appendFunds records a funds transfer; zero amounts move nothing and emit nothing.
func appendFunds(events []domain.Event, at time.Time, from, to domain.Address, amount uint64) []domain.Event {
	if amount == 0 {
		return events
	}

	return append(events, domain.Event{
		ID:        uuid.New(),
		Kind:      domain.EventFundsTransfer,
		From:      from,
		To:        to,
		Amount:    amount,
		CreatedAt: at,
	})
}
