package domain

import (
	"errors"
	"fmt"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a transport-level failure talking to the exchange
type NetworkError struct {
	Op        string // Operation that failed (e.g., "fetch_ticker", "create_order")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExchangeError is a business-level rejection returned in the exchange response envelope.
type ExchangeError struct {
	Op   string
	Code string
	Msg  string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s: exchange error code=%s msg=%s", e.Op, e.Code, e.Msg)
}

// IsRetriable reports whether the exchange is signalling a transient condition.
// 50001 service unavailable, 50011 rate limit, 50013 system busy.
func (e *ExchangeError) IsRetriable() bool {
	switch e.Code {
	case "50001", "50011", "50013":
		return true
	default:
		return false
	}
}

var (
	// ErrInvalidSymbol is returned when a symbol is malformed (expected BASE/QUOTE). Not retriable.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrSymbolNotFound is returned when the exchange does not list the symbol
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrInvalidParams is returned when the snipe parameters fail validation
	ErrInvalidParams = errors.New("invalid snipe parameters")

	// ErrInsufficientBalance is returned when the free quote balance is below the budget
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBelowMinAmount is returned when the computed quantity is below the market minimum
	ErrBelowMinAmount = errors.New("amount below market minimum")

	// ErrBelowMinCost is returned when the quote budget is below the market minimum cost
	ErrBelowMinCost = errors.New("budget below market minimum cost")

	// ErrPriceUnavailable is returned when the current price cannot be fetched
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
