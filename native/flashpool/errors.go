package flashpool

import "errors"

var (
	// ErrNotOwner rejects privileged calls from anyone but the configured
	// pool owner.
	ErrNotOwner = errors.New("flashpool engine: caller is not the pool owner")
	// ErrUnsupportedToken rejects operations against tokens that were never
	// registered.
	ErrUnsupportedToken = errors.New("flashpool engine: unsupported token")
	// ErrInvalidAmount rejects nil or non-positive monetary amounts.
	ErrInvalidAmount = errors.New("flashpool engine: amount must be positive")
	// ErrInvalidFee rejects fee rates above the 1000 basis-point cap.
	ErrInvalidFee = errors.New("flashpool engine: fee exceeds maximum basis points")
	// ErrInvalidAllocation rejects rebalance targets that do not sum to
	// exactly 10000 basis points.
	ErrInvalidAllocation = errors.New("flashpool engine: allocations must sum to 10000 basis points")
	// ErrArgumentMismatch rejects rebalance calls whose token and target
	// sequences disagree.
	ErrArgumentMismatch = errors.New("flashpool engine: token and allocation arguments mismatch")
	// ErrInsufficientLiquidity rejects withdrawals and loans the pool cannot
	// cover.
	ErrInsufficientLiquidity = errors.New("flashpool engine: insufficient liquidity")
	// ErrFlashLoanNotRepaid marks a loan whose principal plus fee was not
	// returned before the borrower callback ended.
	ErrFlashLoanNotRepaid = errors.New("flashpool engine: flash loan not repaid")
	// ErrReentrancy rejects guarded calls made while another guarded
	// operation, including a borrower callback, is in flight.
	ErrReentrancy = errors.New("flashpool engine: reentrant call")
	// ErrLedgerInconsistency flags the fatal case where the transfer layer
	// lost pooled funds that the ledger still records and no rollback was
	// available.
	ErrLedgerInconsistency = errors.New("flashpool engine: ledger inconsistent with transfer layer")

	errNilTransfer = errors.New("flashpool engine: transfer layer not configured")
	errNilCallback = errors.New("flashpool engine: borrower callback not configured")
)
