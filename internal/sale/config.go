package sale

import (
	"fmt"

	"github.com/kirinyoku/tixmint/internal/domain"
)

// Config holds the sale parameters fixed at creation. It has no setters.
type Config struct {
	p domain.SaleParams
}

func NewConfig(p domain.SaleParams) (Config, error) {
	const op = "sale.NewConfig"

	if p.TicketCap == 0 {
		return Config{}, fmt.Errorf("%s: ticket cap must be positive:%w", op, ErrInvalidConfig)
	}

	if p.Issuer == "" || p.FeeBeneficiary == "" {
		return Config{}, fmt.Errorf("%s: issuer and fee beneficiary are required:%w", op, ErrInvalidConfig)
	}

	if p.Issuer == p.FeeBeneficiary {
		return Config{}, fmt.Errorf("%s: fee beneficiary must differ from issuer:%w", op, ErrInvalidConfig)
	}

	if p.BasePrice+p.Fee < p.BasePrice {
		return Config{}, fmt.Errorf("%s: price plus fee overflows:%w", op, ErrInvalidConfig)
	}

	return Config{p: p}, nil
}

func (c Config) BasePrice() uint64              { return c.p.BasePrice }
func (c Config) Fee() uint64                    { return c.p.Fee }
func (c Config) TicketCap() uint64              { return c.p.TicketCap }
func (c Config) SlotSize() uint64               { return c.p.SlotSize }
func (c Config) SlotCount() uint64              { return c.p.SlotCount }
func (c Config) Issuer() domain.Address         { return c.p.Issuer }
func (c Config) FeeBeneficiary() domain.Address { return c.p.FeeBeneficiary }

// MintPrice is the total a buyer pays for one ticket.
func (c Config) MintPrice() uint64 { return c.p.BasePrice + c.p.Fee }

func (c Config) Params() domain.SaleParams { return c.p }
