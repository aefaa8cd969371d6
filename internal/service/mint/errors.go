package mint

import (
	"errors"
	"fmt"
	"time"
)

var ErrRateLimited = errors.New("rate limited")

type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}

func (e RateLimitedError) Unwrap() error { return ErrRateLimited }
