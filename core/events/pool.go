package events

import (
	"math/big"
	"strconv"
	"strings"

	"flashpool/core/types"
	"flashpool/crypto"
)

const (
	// TypeTokenRegistered marks a token being admitted to the pool registry.
	TypeTokenRegistered = "flashpool.token.registered"
	// TypeFeeUpdated marks an admin change to a token's flash-loan fee rate.
	TypeFeeUpdated = "flashpool.fee.updated"
	// TypeLiquidityAdded is emitted when a provider deposits into the pool.
	TypeLiquidityAdded = "flashpool.liquidity.added"
	// TypeLiquidityRemoved is emitted when a provider withdraws from the pool.
	TypeLiquidityRemoved = "flashpool.liquidity.removed"
	// TypeFlashLoanExecuted records a settled flash loan and the fee earned.
	TypeFlashLoanExecuted = "flashpool.loan.executed"
	// TypeFlashLoanFailed records a flash loan that did not settle.
	TypeFlashLoanFailed = "flashpool.loan.failed"
	// TypePoolRebalanced records an admin rebalance across a token set.
	TypePoolRebalanced = "flashpool.pool.rebalanced"
)

// TokenRegistered is emitted once per token admission.
type TokenRegistered struct {
	Asset  string
	FeeBps uint64
}

func (TokenRegistered) EventType() string { return TypeTokenRegistered }

func (e TokenRegistered) Event() *types.Event {
	attrs := map[string]string{
		"feeBps": strconv.FormatUint(e.FeeBps, 10),
	}
	if asset := normalizeAsset(e.Asset); asset != "" {
		attrs["asset"] = asset
	}
	return &types.Event{Type: TypeTokenRegistered, Attributes: attrs}
}

// FeeUpdated captures a fee-rate change for a registered token.
type FeeUpdated struct {
	Asset  string
	FeeBps uint64
}

func (FeeUpdated) EventType() string { return TypeFeeUpdated }

func (e FeeUpdated) Event() *types.Event {
	attrs := map[string]string{
		"feeBps": strconv.FormatUint(e.FeeBps, 10),
	}
	if asset := normalizeAsset(e.Asset); asset != "" {
		attrs["asset"] = asset
	}
	return &types.Event{Type: TypeFeeUpdated, Attributes: attrs}
}

// LiquidityAdded records a provider deposit and the resulting pool balance.
type LiquidityAdded struct {
	Provider    crypto.Address
	Asset       string
	Amount      *big.Int
	PoolBalance *big.Int
	TVL         *big.Int
}

func (LiquidityAdded) EventType() string { return TypeLiquidityAdded }

func (e LiquidityAdded) Event() *types.Event {
	attrs := map[string]string{}
	if !e.Provider.IsZero() {
		attrs["provider"] = e.Provider.String()
	}
	if asset := normalizeAsset(e.Asset); asset != "" {
		attrs["asset"] = asset
	}
	if e.Amount != nil {
		attrs["amount"] = e.Amount.String()
	}
	if e.PoolBalance != nil {
		attrs["poolBalance"] = e.PoolBalance.String()
	}
	if e.TVL != nil {
		attrs["totalValueLocked"] = e.TVL.String()
	}
	return &types.Event{Type: TypeLiquidityAdded, Attributes: attrs}
}

// LiquidityRemoved records a provider withdrawal and the resulting pool
// balance.
type LiquidityRemoved struct {
	Provider    crypto.Address
	Asset       string
	Amount      *big.Int
	PoolBalance *big.Int
	TVL         *big.Int
}

func (LiquidityRemoved) EventType() string { return TypeLiquidityRemoved }

func (e LiquidityRemoved) Event() *types.Event {
	attrs := map[string]string{}
	if !e.Provider.IsZero() {
		attrs["provider"] = e.Provider.String()
	}
	if asset := normalizeAsset(e.Asset); asset != "" {
		attrs["asset"] = asset
	}
	if e.Amount != nil {
		attrs["amount"] = e.Amount.String()
	}
	if e.PoolBalance != nil {
		attrs["poolBalance"] = e.PoolBalance.String()
	}
	if e.TVL != nil {
		attrs["totalValueLocked"] = e.TVL.String()
	}
	return &types.Event{Type: TypeLiquidityRemoved, Attributes: attrs}
}

// FlashLoanExecuted records a completed flash loan, including the fee the
// pool earned.
type FlashLoanExecuted struct {
	Borrower    crypto.Address
	Asset       string
	Principal   *big.Int
	Fee         *big.Int
	PoolBalance *big.Int
	TVL         *big.Int
}

func (FlashLoanExecuted) EventType() string { return TypeFlashLoanExecuted }

func (e FlashLoanExecuted) Event() *types.Event {
	attrs := map[string]string{}
	if !e.Borrower.IsZero() {
		attrs["borrower"] = e.Borrower.String()
	}
	if asset := normalizeAsset(e.Asset); asset != "" {
		attrs["asset"] = asset
	}
	if e.Principal != nil {
		attrs["principal"] = e.Principal.String()
	}
	if e.Fee != nil {
		attrs["fee"] = e.Fee.String()
	}
	if e.PoolBalance != nil {
		attrs["poolBalance"] = e.PoolBalance.String()
	}
	if e.TVL != nil {
		attrs["totalValueLocked"] = e.TVL.String()
	}
	return &types.Event{Type: TypeFlashLoanExecuted, Attributes: attrs}
}

// FlashLoanFailed records a loan that was disbursed but not settled. The
// ledger is untouched by then, so the event carries no balances.
type FlashLoanFailed struct {
	Borrower crypto.Address
	Asset    string
	Reason   string
}

func (FlashLoanFailed) EventType() string { return TypeFlashLoanFailed }

func (e FlashLoanFailed) Event() *types.Event {
	attrs := map[string]string{}
	if !e.Borrower.IsZero() {
		attrs["borrower"] = e.Borrower.String()
	}
	if asset := normalizeAsset(e.Asset); asset != "" {
		attrs["asset"] = asset
	}
	if e.Reason != "" {
		attrs["reason"] = e.Reason
	}
	return &types.Event{Type: TypeFlashLoanFailed, Attributes: attrs}
}

// PoolRebalanced records an admin rebalance over an ordered token set.
type PoolRebalanced struct {
	Assets         []string
	TotalLiquidity *big.Int
}

func (PoolRebalanced) EventType() string { return TypePoolRebalanced }

func (e PoolRebalanced) Event() *types.Event {
	attrs := map[string]string{}
	if len(e.Assets) > 0 {
		normalized := make([]string, 0, len(e.Assets))
		for _, asset := range e.Assets {
			if trimmed := normalizeAsset(asset); trimmed != "" {
				normalized = append(normalized, trimmed)
			}
		}
		attrs["assets"] = strings.Join(normalized, ",")
	}
	if e.TotalLiquidity != nil {
		attrs["totalLiquidity"] = e.TotalLiquidity.String()
	}
	return &types.Event{Type: TypePoolRebalanced, Attributes: attrs}
}

func normalizeAsset(asset string) string {
	trimmed := strings.TrimSpace(asset)
	if trimmed == "" {
		return ""
	}
	return strings.ToUpper(trimmed)
}
