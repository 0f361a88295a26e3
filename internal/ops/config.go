package ops

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"main/internal/health"
	"main/internal/model"
	"main/internal/oracle"
	"main/pkg/exception"

	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Assets []AssetConfig `json:"assets"`
	Feeds  []FeedConfig  `json:"feeds"`
	Params ParamsConfig  `json:"params"`
}

// AssetConfig describes a supported collateral asset entry.
type AssetConfig struct {
	Symbol string `json:"symbol"`
	Feed   string `json:"feed"`
}

// FeedConfig describes a price feed entry. Price is the quoted decimal value;
// Decimals is the feed's fixed-point precision.
type FeedConfig struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Decimals uint8           `json:"decimals"`
}

// ParamsConfig captures optional protocol parameter overrides.
type ParamsConfig struct {
	LiquidationThresholdPct int64 `json:"liquidationThresholdPct"`
	LiquidationBonusPct     int64 `json:"liquidationBonusPct"`
}

// Loaded is the resolved configuration ready for engine construction.
type Loaded struct {
	Assets []model.AssetID
	Feeds  []oracle.PriceFeed

	// FeedByName keeps the mutable feed handles for scenario price moves.
	FeedByName map[string]*oracle.StaticFeed

	Health              health.Config
	LiquidationBonusPct int64
}

// Load reads a JSON config file and resolves the asset and feed lists.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return Build(cfg)
}

// Build resolves a parsed config into engine construction inputs.
func Build(cfg FileConfig) (Loaded, error) {
	if len(cfg.Assets) == 0 {
		return Loaded{}, exception.ErrConfigEmptyAssets
	}

	feeds := make(map[string]*oracle.StaticFeed, len(cfg.Feeds))
	for _, feed := range cfg.Feeds {
		if feed.Name == "" {
			return Loaded{}, errors.Wrap(exception.ErrConfigInvalidEntry, "feed with empty name")
		}
		if _, ok := feeds[feed.Name]; ok {
			return Loaded{}, errors.Wrap(exception.ErrConfigDuplicate, "feed "+feed.Name)
		}
		raw, err := rawPrice(fmt.Sprint(feed.Price), feed.Decimals)
		if err != nil {
			return Loaded{}, errors.Wrap(err, "feed "+feed.Name)
		}
		feeds[feed.Name] = oracle.NewStaticFeed(raw, feed.Decimals)
	}

	loaded := Loaded{
		Assets:              make([]model.AssetID, 0, len(cfg.Assets)),
		Feeds:               make([]oracle.PriceFeed, 0, len(cfg.Assets)),
		FeedByName:          feeds,
		Health:              health.DefaultConfig(),
		LiquidationBonusPct: cfg.Params.LiquidationBonusPct,
	}
	if cfg.Params.LiquidationThresholdPct != 0 {
		loaded.Health.LiquidationThresholdPct = cfg.Params.LiquidationThresholdPct
	}

	seen := make(map[string]bool, len(cfg.Assets))
	for _, asset := range cfg.Assets {
		if asset.Symbol == "" {
			return Loaded{}, errors.Wrap(exception.ErrConfigInvalidEntry, "asset with empty symbol")
		}
		if seen[asset.Symbol] {
			return Loaded{}, errors.Wrap(exception.ErrConfigDuplicate, "asset "+asset.Symbol)
		}
		seen[asset.Symbol] = true

		feed, ok := feeds[asset.Feed]
		if !ok {
			return Loaded{}, errors.Wrap(exception.ErrConfigUnknownFeed, asset.Symbol+" -> "+asset.Feed)
		}
		loaded.Assets = append(loaded.Assets, model.AssetID(asset.Symbol))
		loaded.Feeds = append(loaded.Feeds, feed)
	}

	return loaded, nil
}

// SetPrice reprices a named feed from a quoted decimal price, keeping the
// feed's configured scale.
func (l Loaded) SetPrice(feedName, price string) error {
	feed, ok := l.FeedByName[feedName]
	if !ok {
		return errors.Wrap(exception.ErrConfigUnknownFeed, feedName)
	}
	_, decimals, _, err := feed.LatestPrice()
	if err != nil {
		return err
	}
	raw, err := rawPrice(price, decimals)
	if err != nil {
		return err
	}
	feed.SetPrice(raw)
	return nil
}

// rawPrice converts a quoted decimal price into the feed's fixed-point
// integer representation.
func rawPrice(text string, decimals uint8) (int64, error) {
	if int(decimals) > model.WadScale {
		return 0, exception.ErrOracleScaleTooLarge
	}
	wad, err := model.ParseWad(text)
	if err != nil {
		return 0, err
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(model.WadScale-int(decimals))), nil)
	rem := new(big.Int)
	raw, _ := new(big.Int).QuoRem(wad, scale, rem)
	if rem.Sign() != 0 {
		return 0, errors.Wrap(exception.ErrConfigInvalidAmount, "price finer than feed precision: "+text)
	}
	if !raw.IsInt64() {
		return 0, errors.Wrap(exception.ErrConfigInvalidAmount, "price out of range: "+text)
	}
	return raw.Int64(), nil
}
