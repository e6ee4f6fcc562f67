package observability

import (
	"flashpool/core/events"
)

// Recorder translates ledger events into prometheus metrics. It satisfies
// events.Emitter so the daemon can fan events out to metrics and the audit
// journal from a single engine hook.
type Recorder struct{}

// Emit implements events.Emitter.
func (Recorder) Emit(evt events.Event) {
	switch e := evt.(type) {
	case events.LiquidityAdded:
		Pool().RecordLiquidity("deposit", e.Asset)
		Pool().SetPoolBalance(e.Asset, e.PoolBalance)
		Pool().SetTVL(e.TVL)
	case events.LiquidityRemoved:
		Pool().RecordLiquidity("withdraw", e.Asset)
		Pool().SetPoolBalance(e.Asset, e.PoolBalance)
		Pool().SetTVL(e.TVL)
	case events.FlashLoanExecuted:
		Pool().RecordFlashLoan(e.Asset, "ok")
		Pool().SetPoolBalance(e.Asset, e.PoolBalance)
		Pool().SetTVL(e.TVL)
	case events.FlashLoanFailed:
		Pool().RecordFlashLoan(e.Asset, "failed")
	}
}
