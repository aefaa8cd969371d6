package sale_test

import (
	"math"
	"testing"

	"github.com/kirinyoku/tixmint/internal/domain"
	"github.com/kirinyoku/tixmint/internal/sale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	valid := domain.SaleParams{
		BasePrice:      97,
		Fee:            3,
		TicketCap:      100,
		SlotSize:       100000,
		SlotCount:      4,
		Issuer:         issuer,
		FeeBeneficiary: beneficiary,
	}

	cfg, err := sale.NewConfig(valid)
	require.NoError(t, err)
	assert.Equal(t, uint64(97), cfg.BasePrice())
	assert.Equal(t, uint64(3), cfg.Fee())
	assert.Equal(t, uint64(100), cfg.TicketCap())
	assert.Equal(t, uint64(100000), cfg.SlotSize())
	assert.Equal(t, uint64(4), cfg.SlotCount())
	assert.Equal(t, uint64(100), cfg.MintPrice())
	assert.Equal(t, issuer, cfg.Issuer())
	assert.Equal(t, beneficiary, cfg.FeeBeneficiary())

	tests := []struct {
		name   string
		mutate func(p *domain.SaleParams)
	}{
		{"zero cap", func(p *domain.SaleParams) { p.TicketCap = 0 }},
		{"missing issuer", func(p *domain.SaleParams) { p.Issuer = "" }},
		{"missing beneficiary", func(p *domain.SaleParams) { p.FeeBeneficiary = "" }},
		{"beneficiary is issuer", func(p *domain.SaleParams) { p.FeeBeneficiary = p.Issuer }},
		{"price overflow", func(p *domain.SaleParams) { p.BasePrice = math.MaxUint64 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)

			_, err := sale.NewConfig(p)
			assert.ErrorIs(t, err, sale.ErrInvalidConfig)
		})
	}
}
