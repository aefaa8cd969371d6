package httpgin

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	redisrepo "github.com/kirinyoku/tixmint/internal/repository/redis"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	idemLockTTL          = 60 * time.Second
)

// idempotent runs op at most once per Idempotency-Key. A repeated key
// replays the stored response; a key still in flight gets 409. Without a
// store or a key op simply runs.
func idempotent(
	c *gin.Context,
	idem *redisrepo.IdempotencyStore,
	keyFn func(idemKey string) string,
	status int,
	op func() (any, error),
) {
	idemKey := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
	if idem == nil || idemKey == "" {
		resp, err := op()
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(status, resp)
		return
	}

	ctx := c.Request.Context()
	storageKey := keyFn(idemKey)

	replay := func() bool {
		payload, ok, _ := idem.GetResult(ctx, storageKey)
		if !ok {
			return false
		}
		c.Header(HeaderIdempotencyKey, idemKey)
		c.Data(status, "application/json; charset=utf-8", []byte(payload))
		return true
	}

	if replay() {
		return
	}

	locked, err := idem.AcquireLock(ctx, storageKey, idemLockTTL)
	if err != nil {
		respondErr(c, err)
		return
	}

	if !locked {
		if replay() {
			return
		}
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
		return
	}

	resp, err := op()
	if err != nil {
		_ = idem.Release(ctx, storageKey)
		respondErr(c, err)
		return
	}

	b, err := json.Marshal(resp)
	if err != nil {
		_ = idem.Release(ctx, storageKey)
		respondErr(c, err)
		return
	}

	_ = idem.SaveResult(ctx, storageKey, string(b))

	c.Header(HeaderIdempotencyKey, idemKey)
	c.Data(status, "application/json; charset=utf-8", b)
}
