package flashpool

import (
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"flashpool/core/events"
	"flashpool/crypto"
	nativecommon "flashpool/native/common"
)

// Pause switch names checked before each mutating flow.
const (
	OpDeposit   = "flashpool.deposit"
	OpWithdraw  = "flashpool.withdraw"
	OpFlashLoan = "flashpool.flashloan"
	OpRebalance = "flashpool.rebalance"
)

// Engine orchestrates every state transition against the pool ledger. Each
// public operation runs to completion under a single reentrancy guard; a
// guarded call made while another is in flight (notably from inside a
// borrower callback) fails with ErrReentrancy instead of interleaving.
type Engine struct {
	ledger      *Ledger
	owner       crypto.Address
	poolAccount crypto.Address
	transfer    AssetTransfer
	emitter     events.Emitter
	pauses      nativecommon.PauseView

	mu   sync.Mutex
	busy bool
}

// NewEngine constructs an engine bound to the pool's owner identity and the
// module account that holds pooled funds in the transfer layer.
func NewEngine(owner, poolAccount crypto.Address) *Engine {
	return &Engine{
		ledger:      NewLedger(),
		owner:       owner,
		poolAccount: poolAccount,
		emitter:     events.NoopEmitter{},
	}
}

// SetTransfer wires the engine to the external asset-transfer layer.
func (e *Engine) SetTransfer(t AssetTransfer) {
	if e == nil {
		return
	}
	e.transfer = t
}

// SetEmitter configures the sink that receives the engine's audit events.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetPauses wires the per-operation pause switches consulted before each
// mutating flow.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// PoolAccount returns the module account holding pooled funds.
func (e *Engine) PoolAccount() crypto.Address {
	return e.poolAccount
}

func (e *Engine) enter() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return ErrReentrancy
	}
	e.busy = true
	return nil
}

func (e *Engine) exit() {
	e.mu.Lock()
	e.busy = false
	e.mu.Unlock()
}

func (e *Engine) requireOwner(caller crypto.Address) error {
	if !caller.Equal(e.owner) {
		return ErrNotOwner
	}
	return nil
}

// RegisterToken admits a token to the pool registry with an initial fee
// rate. Registering an already-supported token overwrites its fee.
func (e *Engine) RegisterToken(caller crypto.Address, symbol string, feeBps uint64) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if err := e.requireOwner(caller); err != nil {
		return err
	}
	normalized := NormalizeSymbol(symbol)
	if normalized == "" {
		return ErrUnsupportedToken
	}
	if feeBps > maxFeeBasisPoints {
		return ErrInvalidFee
	}

	e.ledger.tokens[normalized] = &TokenInfo{Symbol: normalized, Supported: true, FeeBps: feeBps}
	if _, ok := e.ledger.pool[normalized]; !ok {
		e.ledger.pool[normalized] = big.NewInt(0)
	}

	e.emitter.Emit(events.TokenRegistered{Asset: normalized, FeeBps: feeBps})
	return nil
}

// UpdateFee changes the flash-loan fee rate of a registered token.
func (e *Engine) UpdateFee(caller crypto.Address, symbol string, feeBps uint64) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if err := e.requireOwner(caller); err != nil {
		return err
	}
	info := e.ledger.token(NormalizeSymbol(symbol))
	if info == nil {
		return ErrUnsupportedToken
	}
	if feeBps > maxFeeBasisPoints {
		return ErrInvalidFee
	}

	info.FeeBps = feeBps

	e.emitter.Emit(events.FeeUpdated{Asset: info.Symbol, FeeBps: feeBps})
	return nil
}

// Deposit moves amount of the token from the provider into the pool account
// and records the provider's claim. The external transfer happens first so a
// failed transfer never mutates the ledger.
func (e *Engine) Deposit(provider crypto.Address, symbol string, amount *big.Int) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if err := nativecommon.Guard(e.pauses, OpDeposit); err != nil {
		return err
	}
	if e.transfer == nil {
		return errNilTransfer
	}
	normalized := NormalizeSymbol(symbol)
	if e.ledger.token(normalized) == nil {
		return ErrUnsupportedToken
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	if err := e.transfer.Transfer(provider, e.poolAccount, normalized, amount); err != nil {
		return fmt.Errorf("flashpool engine: deposit transfer: %w", err)
	}

	e.ledger.setDeposit(provider, normalized, new(big.Int).Add(e.ledger.deposit(provider, normalized), amount))
	newBalance := new(big.Int).Add(e.ledger.poolBalance(normalized), amount)
	e.ledger.setPoolBalance(normalized, newBalance)
	e.ledger.tvl = new(big.Int).Add(e.ledger.tvl, amount)

	e.emitter.Emit(events.LiquidityAdded{
		Provider:    provider,
		Asset:       normalized,
		Amount:      new(big.Int).Set(amount),
		PoolBalance: new(big.Int).Set(newBalance),
		TVL:         new(big.Int).Set(e.ledger.tvl),
	})
	return nil
}

// Withdraw releases amount of the token back to the provider. Both the
// provider's recorded claim and the pool's actual balance must cover the
// amount: a nominal claim can exceed live liquidity when fee income or a
// rebalance shifted the pool, and a withdrawal must never push the pool
// negative. The ledger is decremented before the outgoing transfer and
// restored if that transfer fails.
func (e *Engine) Withdraw(provider crypto.Address, symbol string, amount *big.Int) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if err := nativecommon.Guard(e.pauses, OpWithdraw); err != nil {
		return err
	}
	if e.transfer == nil {
		return errNilTransfer
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	normalized := NormalizeSymbol(symbol)

	prevDeposit := e.ledger.deposit(provider, normalized)
	prevPool := e.ledger.poolBalance(normalized)
	prevTVL := e.ledger.tvl
	if prevDeposit.Cmp(amount) < 0 || prevPool.Cmp(amount) < 0 {
		return ErrInsufficientLiquidity
	}

	e.ledger.setDeposit(provider, normalized, new(big.Int).Sub(prevDeposit, amount))
	newBalance := new(big.Int).Sub(prevPool, amount)
	e.ledger.setPoolBalance(normalized, newBalance)
	e.ledger.tvl = new(big.Int).Sub(prevTVL, amount)

	if err := e.transfer.Transfer(e.poolAccount, provider, normalized, amount); err != nil {
		e.ledger.setDeposit(provider, normalized, prevDeposit)
		e.ledger.setPoolBalance(normalized, prevPool)
		e.ledger.tvl = prevTVL
		return fmt.Errorf("flashpool engine: withdraw transfer: %w", err)
	}

	e.emitter.Emit(events.LiquidityRemoved{
		Provider:    provider,
		Asset:       normalized,
		Amount:      new(big.Int).Set(amount),
		PoolBalance: new(big.Int).Set(newBalance),
		TVL:         new(big.Int).Set(e.ledger.tvl),
	})
	return nil
}

// ExecuteFlashLoan lends amount of the token to the borrower for the
// duration of the callback. Repayment is verified against the transfer
// layer's observed pool balance, not the ledger's arithmetic, so the check
// detects real funds. On success the fee is credited to the pool balance;
// the returned principal is already reflected in the observed balance and
// needs no ledger movement.
func (e *Engine) ExecuteFlashLoan(borrower crypto.Address, symbol string, amount *big.Int, data []byte, callback BorrowerCallback) (*big.Int, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.exit()

	if err := nativecommon.Guard(e.pauses, OpFlashLoan); err != nil {
		return nil, err
	}
	if e.transfer == nil {
		return nil, errNilTransfer
	}
	if callback == nil {
		return nil, errNilCallback
	}
	normalized := NormalizeSymbol(symbol)
	info := e.ledger.token(normalized)
	if info == nil {
		return nil, ErrUnsupportedToken
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if e.ledger.poolBalance(normalized).Cmp(amount) < 0 {
		return nil, ErrInsufficientLiquidity
	}

	fee := quoteFee(amount, info.FeeBps)

	balanceBefore, err := e.transfer.BalanceOf(e.poolAccount, normalized)
	if err != nil {
		return nil, fmt.Errorf("flashpool engine: observe pool balance: %w", err)
	}

	reverter, canRevert := e.transfer.(TransferReverter)
	var revision int
	if canRevert {
		revision = reverter.Snapshot()
	}

	if err := e.transfer.Transfer(e.poolAccount, borrower, normalized, amount); err != nil {
		return nil, fmt.Errorf("flashpool engine: disburse principal: %w", err)
	}

	callbackErr := callback.OnFlashLoan(normalized, new(big.Int).Set(amount), new(big.Int).Set(fee), data)

	balanceAfter, err := e.transfer.BalanceOf(e.poolAccount, normalized)
	if err != nil {
		return nil, e.failLoan(reverter, canRevert, revision, borrower, normalized, balanceBefore,
			fmt.Errorf("flashpool engine: observe pool balance: %w", err))
	}

	required := new(big.Int).Add(balanceBefore, fee)
	if callbackErr != nil || balanceAfter.Cmp(required) < 0 {
		failure := ErrFlashLoanNotRepaid
		if callbackErr != nil {
			failure = fmt.Errorf("%w: %v", ErrFlashLoanNotRepaid, callbackErr)
		}
		return nil, e.failLoan(reverter, canRevert, revision, borrower, normalized, balanceBefore, failure)
	}

	newBalance := new(big.Int).Add(e.ledger.poolBalance(normalized), fee)
	e.ledger.setPoolBalance(normalized, newBalance)
	e.ledger.tvl = new(big.Int).Add(e.ledger.tvl, fee)

	e.emitter.Emit(events.FlashLoanExecuted{
		Borrower:    borrower,
		Asset:       normalized,
		Principal:   new(big.Int).Set(amount),
		Fee:         new(big.Int).Set(fee),
		PoolBalance: new(big.Int).Set(newBalance),
		TVL:         new(big.Int).Set(e.ledger.tvl),
	})
	return new(big.Int).Set(fee), nil
}

// failLoan unwinds a failed flash loan. With a revert-capable transfer layer
// the disbursement is rolled back and the failure is clean. Without one, a
// pool balance below its pre-loan level means real funds left that the
// ledger still records, which is surfaced as a ledger inconsistency rather
// than silently absorbed.
func (e *Engine) failLoan(reverter TransferReverter, canRevert bool, revision int, borrower crypto.Address, symbol string, balanceBefore *big.Int, failure error) error {
	if canRevert {
		if err := reverter.RevertTo(revision); err != nil {
			slog.Error("flash loan rollback failed",
				"asset", symbol,
				"err", err,
			)
			failure = fmt.Errorf("%w: rollback failed: %v", ErrLedgerInconsistency, failure)
		}
	} else {
		balanceAfter, err := e.transfer.BalanceOf(e.poolAccount, symbol)
		if err == nil && balanceAfter.Cmp(balanceBefore) < 0 {
			lost := new(big.Int).Sub(balanceBefore, balanceAfter)
			slog.Error("flash loan drained pooled funds without rollback support",
				"asset", symbol,
				"lost", lost.String(),
			)
			failure = fmt.Errorf("%w: pool lost %s %s: %v", ErrLedgerInconsistency, lost, symbol, failure)
		}
	}

	e.emitter.Emit(events.FlashLoanFailed{Borrower: borrower, Asset: symbol, Reason: failure.Error()})
	return failure
}

// AvailableLiquidity reports the ledger's pooled balance for the token.
// Unregistered tokens report zero.
func (e *Engine) AvailableLiquidity(symbol string) *big.Int {
	return new(big.Int).Set(e.ledger.poolBalance(NormalizeSymbol(symbol)))
}

// UserDeposit reports the provider's recorded claim for the token.
func (e *Engine) UserDeposit(provider crypto.Address, symbol string) *big.Int {
	return new(big.Int).Set(e.ledger.deposit(provider, NormalizeSymbol(symbol)))
}

// QuoteFee computes the flash-loan fee for borrowing amount of the token:
// amount * feeBps / 10000 with truncating integer division.
func (e *Engine) QuoteFee(symbol string, amount *big.Int) (*big.Int, error) {
	info := e.ledger.token(NormalizeSymbol(symbol))
	if info == nil {
		return nil, ErrUnsupportedToken
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	return quoteFee(amount, info.FeeBps), nil
}

// TotalValueLocked reports the aggregate counter across all tokens. The sum
// is raw token units with no decimal or price normalization.
func (e *Engine) TotalValueLocked() *big.Int {
	return new(big.Int).Set(e.ledger.tvl)
}

// Tokens lists the registry entries sorted by symbol.
func (e *Engine) Tokens() []TokenInfo {
	return e.ledger.Tokens()
}

func quoteFee(amount *big.Int, feeBps uint64) *big.Int {
	if amount.Sign() == 0 || feeBps == 0 {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(feeBps))
	return fee.Quo(fee, basisPoints)
}
