package domain

import "context"

// PriceOracle returns the current price of a ticker symbol. Implementations
// must honour ctx cancellation; a non-nil error means no usable price.
type PriceOracle interface {
	GetPrice(ctx context.Context, symbol string) (float64, error)
}
