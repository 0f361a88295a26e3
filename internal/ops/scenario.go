package ops

import (
	"encoding/json"
	"os"

	"github.com/yanun0323/decimal"
)

// Scenario is a scripted sequence of protocol operations for the sim binary.
type Scenario struct {
	Steps []ScenarioStep `json:"steps"`
}

// ScenarioStep is one scripted operation. Fields are used according to Op:
//
//	fund            account, asset, amount
//	deposit         account, asset, amount
//	mint            account, debt
//	depositAndMint  account, asset, amount, debt
//	redeemAndBurn   account, asset, amount, debt
//	liquidate       account (liquidator), asset, target, debt
//	price           feed, price
type ScenarioStep struct {
	Op      string          `json:"op"`
	Account string          `json:"account,omitempty"`
	Target  string          `json:"target,omitempty"`
	Asset   string          `json:"asset,omitempty"`
	Amount  decimal.Decimal `json:"amount,omitempty"`
	Debt    decimal.Decimal `json:"debt,omitempty"`
	Feed    string          `json:"feed,omitempty"`
	Price   decimal.Decimal `json:"price,omitempty"`
}

// LoadScenario reads a JSON scenario file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	var sc Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}
