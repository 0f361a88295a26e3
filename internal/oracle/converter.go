package oracle

import (
	"math/big"

	"main/internal/model"
	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

// Converter turns asset quantities into USD values and back using the
// registered price feeds. Prices are read fresh on every call; integer
// division truncates toward zero so collateral value is never overstated.
type Converter struct {
	feeds map[model.AssetID]PriceFeed
}

func NewConverter(feeds map[model.AssetID]PriceFeed) *Converter {
	m := make(map[model.AssetID]PriceFeed, len(feeds))
	for asset, feed := range feeds {
		m[asset] = feed
	}
	return &Converter{feeds: m}
}

// Supported reports whether a feed is registered for the asset.
func (c *Converter) Supported(asset model.AssetID) bool {
	_, ok := c.feeds[asset]
	return ok
}

// ValueOf converts an asset quantity into its USD value at the latest price.
func (c *Converter) ValueOf(asset model.AssetID, quantity *big.Int) (*big.Int, error) {
	price, err := c.priceWad(asset)
	if err != nil {
		return nil, err
	}
	value := new(big.Int).Mul(price, quantity)
	return value.Quo(value, model.Precision), nil
}

// QuantityOf converts a USD value into the asset quantity of equal value at
// the latest price. The inverse of ValueOf up to truncation.
func (c *Converter) QuantityOf(asset model.AssetID, usdValue *big.Int) (*big.Int, error) {
	price, err := c.priceWad(asset)
	if err != nil {
		return nil, err
	}
	quantity := new(big.Int).Mul(usdValue, model.Precision)
	return quantity.Quo(quantity, price), nil
}

// priceWad reads the feed and normalizes the signed raw price into a
// positive protocol-scale magnitude. A zero or negative price is oracle data
// corruption, never silently cast.
func (c *Converter) priceWad(asset model.AssetID) (*big.Int, error) {
	feed, ok := c.feeds[asset]
	if !ok {
		return nil, errors.Wrap(exception.ErrOracleFeedNotFound, asset.String())
	}

	price, decimals, _, err := feed.LatestPrice()
	if err != nil {
		return nil, errors.Wrap(err, "read price feed for "+asset.String())
	}
	if price <= 0 {
		return nil, errors.Wrap(exception.ErrOraclePrice, asset.String())
	}
	if int(decimals) > model.WadScale {
		return nil, errors.Wrap(exception.ErrOracleScaleTooLarge, asset.String())
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(model.WadScale-int(decimals))), nil)
	return scale.Mul(scale, big.NewInt(price)), nil
}
