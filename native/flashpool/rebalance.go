package flashpool

import (
	"math/big"

	"flashpool/core/events"
	"flashpool/crypto"
	nativecommon "flashpool/native/common"
)

// OptimizeLiquidity reassigns pooled balances across the given token set
// toward the target allocations, expressed in basis points summing to
// exactly 10000. The reshuffle is pure bookkeeping: no external transfers
// occur and the set's total balance is conserved.
//
// Deficit tokens are filled by a single greedy pass in the given order,
// drawing at most a tenth of each donor's current balance. When the caps are
// too tight to cover a deficit it stays partially unfilled; best-effort by
// design, not iterated to convergence.
func (e *Engine) OptimizeLiquidity(caller crypto.Address, symbols []string, targetBps []uint64) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if err := nativecommon.Guard(e.pauses, OpRebalance); err != nil {
		return err
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if len(symbols) != len(targetBps) {
		return ErrArgumentMismatch
	}

	normalized := make([]string, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for i, symbol := range symbols {
		sym := NormalizeSymbol(symbol)
		if _, dup := seen[sym]; dup {
			return ErrArgumentMismatch
		}
		seen[sym] = struct{}{}
		if e.ledger.token(sym) == nil {
			return ErrUnsupportedToken
		}
		normalized[i] = sym
	}

	var sum uint64
	for _, bps := range targetBps {
		sum += bps
	}
	if sum != 10_000 {
		return ErrInvalidAllocation
	}

	total := big.NewInt(0)
	for _, sym := range normalized {
		total.Add(total, e.ledger.poolBalance(sym))
	}

	for i, sym := range normalized {
		target := new(big.Int).Mul(total, new(big.Int).SetUint64(targetBps[i]))
		target.Quo(target, basisPoints)

		current := e.ledger.poolBalance(sym)
		if current.Cmp(target) >= 0 {
			continue
		}
		deficit := new(big.Int).Sub(target, current)

		for j, donor := range normalized {
			if deficit.Sign() == 0 {
				break
			}
			if j == i {
				continue
			}
			donorBalance := e.ledger.poolBalance(donor)
			if donorBalance.Sign() <= 0 {
				continue
			}
			take := new(big.Int).Quo(donorBalance, big.NewInt(donorShareDivisor))
			if take.Cmp(deficit) > 0 {
				take.Set(deficit)
			}
			if take.Sign() <= 0 {
				continue
			}
			e.ledger.setPoolBalance(donor, new(big.Int).Sub(donorBalance, take))
			e.ledger.setPoolBalance(sym, new(big.Int).Add(e.ledger.poolBalance(sym), take))
			deficit.Sub(deficit, take)
		}
	}

	e.emitter.Emit(events.PoolRebalanced{
		Assets:         normalized,
		TotalLiquidity: total,
	})
	return nil
}
