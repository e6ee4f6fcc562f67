package flashpool

import (
	"math/big"
	"sort"
	"strings"

	"flashpool/crypto"
)

var basisPoints = big.NewInt(10_000)

const (
	// maxFeeBasisPoints caps the flash-loan fee rate at 10%.
	maxFeeBasisPoints = 1_000
	// donorShareDivisor bounds how much of a donor token's balance one
	// rebalance pass may reassign (a tenth per donor).
	donorShareDivisor = 10
)

// TokenInfo describes a registry entry for a pooled asset. Fee rates are
// expressed in basis points of the borrowed principal.
type TokenInfo struct {
	Symbol    string
	Supported bool
	FeeBps    uint64
}

// Ledger is the authoritative in-memory accounting state for one pool: the
// token registry, per-token pooled balances, per-provider deposit claims and
// the aggregate total-value-locked counter. All amounts are non-negative
// integers in the token's smallest unit.
type Ledger struct {
	tokens   map[string]*TokenInfo
	pool     map[string]*big.Int
	deposits map[string]map[string]*big.Int
	tvl      *big.Int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		tokens:   make(map[string]*TokenInfo),
		pool:     make(map[string]*big.Int),
		deposits: make(map[string]map[string]*big.Int),
		tvl:      big.NewInt(0),
	}
}

// NormalizeSymbol canonicalises asset tickers for consistent lookups.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (l *Ledger) token(symbol string) *TokenInfo {
	info, ok := l.tokens[symbol]
	if !ok || !info.Supported {
		return nil
	}
	return info
}

func (l *Ledger) poolBalance(symbol string) *big.Int {
	if amount, ok := l.pool[symbol]; ok {
		return amount
	}
	return big.NewInt(0)
}

func (l *Ledger) setPoolBalance(symbol string, amount *big.Int) {
	l.pool[symbol] = amount
}

func (l *Ledger) deposit(provider crypto.Address, symbol string) *big.Int {
	if bySymbol, ok := l.deposits[provider.String()]; ok {
		if amount, ok := bySymbol[symbol]; ok {
			return amount
		}
	}
	return big.NewInt(0)
}

func (l *Ledger) setDeposit(provider crypto.Address, symbol string, amount *big.Int) {
	key := provider.String()
	bySymbol, ok := l.deposits[key]
	if !ok {
		bySymbol = make(map[string]*big.Int)
		l.deposits[key] = bySymbol
	}
	bySymbol[symbol] = amount
}

// Tokens returns the registry entries sorted by symbol.
func (l *Ledger) Tokens() []TokenInfo {
	out := make([]TokenInfo, 0, len(l.tokens))
	for _, info := range l.tokens {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
