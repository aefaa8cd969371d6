package redis

import (
	"fmt"

	"github.com/kirinyoku/tixmint/internal/domain"
)

const ns = "tixmint:v1"

func KeySaleInfo() string {
	return ns + ":sale:info"
}

func KeyLastTokenID() string {
	return ns + ":sale:last_id"
}

func KeyTicketOwner(tokenID uint64) string {
	return fmt.Sprintf("%s:ticket:%d:owner", ns, tokenID)
}

func KeyTicketEvents(tokenID uint64) string {
	return fmt.Sprintf("%s:ticket:%d:events", ns, tokenID)
}

func KeyBalance(addr domain.Address) string {
	return fmt.Sprintf("%s:account:%s:balance", ns, addr)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelSaleEvents() string {
	return ns + ":events:sale"
}

// KeysFor lists the cached entries that committed events make stale.
func KeysFor(events []domain.Event) []string {
	seen := make(map[string]struct{})
	var keys []string

	add := func(k string) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	for _, e := range events {
		switch e.Kind {
		case domain.EventFundsTransfer:
			add(KeyBalance(e.From))
			add(KeyBalance(e.To))
		case domain.EventTicketMint:
			add(KeyLastTokenID())
			add(KeySaleInfo())
			add(KeyTicketOwner(e.TokenID))
			add(KeyTicketEvents(e.TokenID))
		case domain.EventTicketTransfer:
			add(KeyTicketOwner(e.TokenID))
			add(KeyTicketEvents(e.TokenID))
		}
	}

	return keys
}
