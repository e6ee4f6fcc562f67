package flashpool

import (
	"math/big"

	"flashpool/crypto"
)

// AssetTransfer abstracts the external mechanism that moves token amounts
// between accounts. Implementations must apply each transfer atomically:
// either both sides move or neither does.
type AssetTransfer interface {
	// Transfer moves amount of the given asset from one account to another.
	Transfer(from, to crypto.Address, symbol string, amount *big.Int) error
	// BalanceOf reports the account's current holdings of the asset as the
	// transfer layer sees them.
	BalanceOf(owner crypto.Address, symbol string) (*big.Int, error)
}

// TransferReverter is optionally implemented by transfer layers that can
// undo a batch of transfers. When available, the flash-loan engine snapshots
// before disbursing so a failed repayment unwinds the principal instead of
// surfacing a ledger inconsistency.
type TransferReverter interface {
	Snapshot() int
	RevertTo(revision int) error
}

// BorrowerCallback runs borrower-supplied logic in the middle of a flash
// loan. The callback is expected to return at least principal plus fee to
// the pool account before it returns control.
type BorrowerCallback interface {
	OnFlashLoan(symbol string, principal, fee *big.Int, data []byte) error
}

// BorrowerCallbackFunc adapts a plain function to the BorrowerCallback
// interface.
type BorrowerCallbackFunc func(symbol string, principal, fee *big.Int, data []byte) error

func (f BorrowerCallbackFunc) OnFlashLoan(symbol string, principal, fee *big.Int, data []byte) error {
	return f(symbol, principal, fee, data)
}
