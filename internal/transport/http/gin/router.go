package httpgin

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/tixmint/internal/domain"
	redisrepo "github.com/kirinyoku/tixmint/internal/repository/redis"
	"github.com/kirinyoku/tixmint/internal/sale"
	"github.com/kirinyoku/tixmint/internal/service"
	"github.com/kirinyoku/tixmint/internal/service/mint"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggingMiddleware(logger), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Read-only API
	r.GET("/sale", handleGetSale(svcs))
	r.GET("/tickets/last-id", handleGetLastTokenID(svcs))
	r.GET("/tickets/:id/owner", handleGetOwner(svcs))
	r.GET("/tickets/:id/uri", handleGetTokenURI(svcs))
	r.GET("/tickets/:id/events", handleGetTicketEvents(svcs))
	r.GET("/accounts/:address/balance", handleGetBalance(svcs))

	// Mutating API, acting on behalf of X-Account-Address
	authed := r.Group("/", RequireCaller())
	{
		authed.POST("/tickets/mint", handleMint(svcs, idem))
		authed.POST("/tickets/:id/transfer", handleTransfer(svcs))
		authed.POST("/fund", handleFund(svcs, idem))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Sale parameters and progress
// @Success  200  {object}  domain.SaleInfo
// @Router   /sale [get]
func handleGetSale(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := svcs.Query.Info(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, info, "public, max-age=5")
	}
}

// @Summary  Highest ticket id minted so far
// @Success  200  {object}  LastTokenIDResponse
// @Router   /tickets/last-id [get]
func handleGetLastTokenID(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		last, err := svcs.Query.LastTokenID(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, LastTokenIDResponse{LastTokenID: last}, "public, max-age=5")
	}
}

// @Summary  Ticket owner
// @Param    id  path  int  true  "Ticket ID"
// @Success  200  {object}  OwnerResponse "owner is null for unminted ids"
// @Failure  400  {object}  ErrorResponse
// @Router   /tickets/{id}/owner [get]
func handleGetOwner(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseTokenID(c)
		if !ok {
			return
		}
		owner, found, err := svcs.Query.Owner(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, OwnerResponse{
			TokenID: id,
			Owner:   optional(owner.String(), found),
		}, "public, max-age=5")
	}
}

// @Summary  Ticket metadata URI
// @Param    id  path  int  true  "Ticket ID"
// @Success  200  {object}  TokenURIResponse "uri is always null"
// @Router   /tickets/{id}/uri [get]
func handleGetTokenURI(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseTokenID(c)
		if !ok {
			return
		}
		uri, found, err := svcs.Query.TokenURI(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, TokenURIResponse{TokenID: id, URI: optional(uri, found)})
	}
}

// @Summary  Ticket event history
// @Param    id  path  int  true  "Ticket ID"
// @Success  200  {array}   domain.Event
// @Failure  404  {object}  ErrorResponse
// @Router   /tickets/{id}/events [get]
func handleGetTicketEvents(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseTokenID(c)
		if !ok {
			return
		}
		events, err := svcs.Query.Events(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		if events == nil {
			events = []domain.Event{}
		}
		writeJSONWithCache(c, http.StatusOK, events, "public, max-age=15")
	}
}

// @Summary  Account balance
// @Param    address  path  string  true  "Account address"
// @Success  200  {object}  BalanceResponse
// @Router   /accounts/{address}/balance [get]
func handleGetBalance(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		addr := strings.TrimSpace(c.Param("address"))
		bal, err := svcs.Query.Balance(c.Request.Context(), domain.Address(addr))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, BalanceResponse{Address: addr, Balance: bal})
	}
}

// @Summary  Mint the next ticket (idempotent)
// @Param    X-Account-Address  header  string       true   "caller"
// @Param    Idempotency-Key    header  string       false  "replay key"
// @Param    req                body    MintRequest  false  "buyer defaults to the caller"
// @Success  201  {object}  MintResponse
// @Failure  402  {object}  ErrorResponse "insufficient funds"
// @Failure  403  {object}  ErrorResponse "buyer is not the caller"
// @Failure  409  {object}  ErrorResponse "sold out / idem in progress"
// @Failure  429  {object}  ErrorResponse "rate limited"
// @Router   /tickets/mint [post]
func handleMint(svcs *service.Services, idem *redisrepo.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MintRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, err.Error())
			return
		}

		caller := callerFrom(c)
		buyer := domain.Address(strings.TrimSpace(req.Buyer))
		if buyer == "" {
			buyer = caller
		}
		if buyer != caller {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "buyer must be the caller"})
			return
		}

		rlKey := "ip:" + c.ClientIP()

		idempotent(c, idem,
			func(k string) string { return redisrepo.KeyIdemMint(caller, k) },
			http.StatusCreated,
			func() (any, error) {
				rcpt, err := svcs.Mint.Mint(c.Request.Context(), buyer, rlKey)
				if err != nil {
					return nil, err
				}
				return MintResponse{TokenID: rcpt.TokenID, Events: rcpt.Events}, nil
			},
		)
	}
}

// @Summary  Transfer a ticket
// @Param    X-Account-Address  header  string           true  "caller, must own the ticket"
// @Param    id                 path    int              true  "Ticket ID"
// @Param    req                body    TransferRequest  true  "payload"
// @Success  200  {object}  TransferResponse
// @Failure  403  {object}  ErrorResponse "not the owner"
// @Failure  404  {object}  ErrorResponse
// @Router   /tickets/{id}/transfer [post]
func handleTransfer(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseTokenID(c)
		if !ok {
			return
		}
		var req TransferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		rcpt, err := svcs.Mint.Transfer(
			c.Request.Context(),
			id,
			domain.Address(strings.TrimSpace(req.Sender)),
			domain.Address(strings.TrimSpace(req.Recipient)),
			callerFrom(c),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, TransferResponse{Events: rcpt.Events})
	}
}

// @Summary  Deposit one slot into the issuer account (idempotent)
// @Param    X-Account-Address  header  string  true   "caller"
// @Param    Idempotency-Key    header  string  false  "replay key"
// @Success  200  {object}  FundResponse
// @Failure  402  {object}  ErrorResponse "insufficient funds"
// @Router   /fund [post]
func handleFund(svcs *service.Services, idem *redisrepo.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := callerFrom(c)

		idempotent(c, idem,
			func(k string) string { return redisrepo.KeyIdemFund(caller, k) },
			http.StatusOK,
			func() (any, error) {
				rcpt, err := svcs.Mint.Fund(c.Request.Context(), caller)
				if err != nil {
					return nil, err
				}
				return FundResponse{Amount: rcpt.Amount, Events: rcpt.Events}, nil
			},
		)
	}
}

// --- Helpers ---

func parseTokenID(c *gin.Context) (uint64, bool) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid id")
		return 0, false
	}
	return v, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var rl mint.RateLimitedError

	switch {
	case errors.As(err, &rl):
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rl.RetryAfter.Seconds()))))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
	case errors.Is(err, sale.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid address"})
	case errors.Is(err, sale.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, ErrorResponse{Error: "insufficient funds"})
	case errors.Is(err, sale.ErrNotOwner):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not the ticket owner"})
	case errors.Is(err, sale.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
	case errors.Is(err, sale.ErrSoldOut):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "sold out"})
	default:
		// overflow and storage failures
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
