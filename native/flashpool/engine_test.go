package flashpool

import (
	"errors"
	"math/big"
	"testing"

	"flashpool/crypto"
	nativecommon "flashpool/native/common"
)

func makeAddress(fill byte) crypto.Address {
	buf := make([]byte, 20)
	for i := range buf {
		buf[i] = fill
	}
	return crypto.NewAddress(crypto.FSPPrefix, buf)
}

type testFixture struct {
	engine *Engine
	vault  *Vault
	owner  crypto.Address
	pool   crypto.Address
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	owner := makeAddress(0xAA)
	pool := crypto.ModuleAddress("vault")
	vault := NewVault()
	engine := NewEngine(owner, pool)
	engine.SetTransfer(vault)
	return &testFixture{engine: engine, vault: vault, owner: owner, pool: pool}
}

func (f *testFixture) registerToken(t *testing.T, symbol string, feeBps uint64) {
	t.Helper()
	if err := f.engine.RegisterToken(f.owner, symbol, feeBps); err != nil {
		t.Fatalf("register %s: %v", symbol, err)
	}
}

func (f *testFixture) fundAndDeposit(t *testing.T, provider crypto.Address, symbol string, amount int64) {
	t.Helper()
	f.vault.Credit(provider, symbol, big.NewInt(amount))
	if err := f.engine.Deposit(provider, symbol, big.NewInt(amount)); err != nil {
		t.Fatalf("deposit %d %s: %v", amount, symbol, err)
	}
}

func TestRegisterTokenValidation(t *testing.T) {
	f := newTestFixture(t)

	if err := f.engine.RegisterToken(makeAddress(0x01), "NHB", 30); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := f.engine.RegisterToken(f.owner, "NHB", 1001); !errors.Is(err, ErrInvalidFee) {
		t.Fatalf("expected ErrInvalidFee, got %v", err)
	}
	if err := f.engine.RegisterToken(f.owner, "  nhb ", 30); err != nil {
		t.Fatalf("register: %v", err)
	}

	tokens := f.engine.Tokens()
	if len(tokens) != 1 || tokens[0].Symbol != "NHB" || tokens[0].FeeBps != 30 {
		t.Fatalf("unexpected registry contents: %+v", tokens)
	}

	// Re-registration is the fee write path, not an error.
	if err := f.engine.RegisterToken(f.owner, "NHB", 50); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if got := f.engine.Tokens()[0].FeeBps; got != 50 {
		t.Fatalf("expected fee 50 after re-register, got %d", got)
	}
}

func TestUpdateFeeValidation(t *testing.T) {
	f := newTestFixture(t)
	f.registerToken(t, "NHB", 30)

	if err := f.engine.UpdateFee(f.owner, "ZNHB", 10); !errors.Is(err, ErrUnsupportedToken) {
		t.Fatalf("expected ErrUnsupportedToken, got %v", err)
	}
	if err := f.engine.UpdateFee(f.owner, "NHB", 2000); !errors.Is(err, ErrInvalidFee) {
		t.Fatalf("expected ErrInvalidFee, got %v", err)
	}
	if err := f.engine.UpdateFee(makeAddress(0x02), "NHB", 10); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := f.engine.UpdateFee(f.owner, "NHB", 1000); err != nil {
		t.Fatalf("update fee: %v", err)
	}
	if fee, err := f.engine.QuoteFee("NHB", big.NewInt(10_000)); err != nil || fee.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected fee 1000, got %v (%v)", fee, err)
	}
}

func TestDepositValidation(t *testing.T) {
	f := newTestFixture(t)
	f.registerToken(t, "NHB", 30)
	provider := makeAddress(0x10)

	if err := f.engine.Deposit(provider, "ZNHB", big.NewInt(100)); !errors.Is(err, ErrUnsupportedToken) {
		t.Fatalf("expected ErrUnsupportedToken, got %v", err)
	}
	if err := f.engine.Deposit(provider, "NHB", big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := f.engine.Deposit(provider, "NHB", nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for nil amount, got %v", err)
	}

	// Unfunded provider: the transfer fails and the ledger stays untouched.
	if err := f.engine.Deposit(provider, "NHB", big.NewInt(100)); err == nil {
		t.Fatal("expected transfer failure for unfunded provider")
	}
	if got := f.engine.AvailableLiquidity("NHB"); got.Sign() != 0 {
		t.Fatalf("expected empty pool after failed deposit, got %s", got)
	}
	if got := f.engine.TotalValueLocked(); got.Sign() != 0 {
		t.Fatalf("expected zero TVL after failed deposit, got %s", got)
	}
}

func TestDepositWithdrawRoundTrip(t *testing.T) {
	f := newTestFixture(t)
	f.registerToken(t, "NHB", 30)
	provider := makeAddress(0x10)
	f.fundAndDeposit(t, provider, "NHB", 1_000)

	if got := f.engine.AvailableLiquidity("NHB"); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("expected pool 1000, got %s", got)
	}
	if got := f.engine.UserDeposit(provider, "NHB"); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("expected deposit 1000, got %s", got)
	}
	if got := f.engine.TotalValueLocked(); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("expected TVL 1000, got %s", got)
	}

	if err := f.engine.Withdraw(provider, "NHB", big.NewInt(1_000)); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	if got := f.engine.AvailableLiquidity("NHB"); got.Sign() != 0 {
		t.Fatalf("expected empty pool after round trip, got %s", got)
	}
	if got := f.engine.UserDeposit(provider, "NHB"); got.Sign() != 0 {
		t.Fatalf("expected zero deposit after round trip, got %s", got)
	}
	if got := f.engine.TotalValueLocked(); got.Sign() != 0 {
		t.Fatalf("expected zero TVL after round trip, got %s", got)
	}
	balance, err := f.vault.BalanceOf(provider, "NHB")
	if err != nil {
		t.Fatalf("vault balance: %v", err)
	}
	if balance.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("expected provider funds restored, got %s", balance)
	}
}

func TestWithdrawInsufficientLiquidity(t *testing.T) {
	f := newTestFixture(t)
	f.registerToken(t, "NHB", 30)
	provider := makeAddress(0x10)
	f.fundAndDeposit(t, provider, "NHB", 500)

	if err := f.engine.Withdraw(provider, "NHB", big.NewInt(501)); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
	if err := f.engine.Withdraw(provider, "NHB", big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if got := f.engine.AvailableLiquidity("NHB"); got.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected pool unchanged at 500, got %s", got)
	}
}

func TestWithdrawRejectedWhenPoolDrainedBelowClaim(t *testing.T) {
	f := newTestFixture(t)
	f.registerToken(t, "NHB", 30)
	f.registerToken(t, "ZNHB", 30)
	provider := makeAddress(0x10)
	f.fundAndDeposit(t, provider, "NHB", 1_000)

	// Shift a tenth of the NHB balance into ZNHB; the provider's nominal
	// claim now exceeds live NHB liquidity.
	if err := f.engine.OptimizeLiquidity(f.owner, []string{"NHB", "ZNHB"}, []uint64{0, 10_000}); err != nil {
		t.Fatalf("rebalance: %v", err)
	}
	if got := f.engine.AvailableLiquidity("NHB"); got.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("expected NHB pool 900 after rebalance, got %s", got)
	}

	if err := f.engine.Withdraw(provider, "NHB", big.NewInt(1_000)); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
	if err := f.engine.Withdraw(provider, "NHB", big.NewInt(900)); err != nil {
		t.Fatalf("withdraw within live liquidity: %v", err)
	}
}

func TestQuoteFeeExactTruncation(t *testing.T) {
	f := newTestFixture(t)
	f.registerToken(t, "NHB", 30)

	cases := []struct {
		amount int64
		fee    int64
	}{
		{0, 0},
		{1, 0},
		{333, 0},
		{334, 1},
		{10_000, 30},
		{1_000_000, 3_000},
	}
	prev := big.NewInt(-1)
	for _, tc := range cases {
		fee, err := f.engine.QuoteFee("NHB", big.NewInt(tc.amount))
		if err != nil {
			t.Fatalf("quote %d: %v", tc.amount, err)
		}
		if fee.Cmp(big.NewInt(tc.fee)) != 0 {
			t.Fatalf("quote(%d) = %s, want %d", tc.amount, fee, tc.fee)
		}
		if fee.Cmp(prev) < 0 {
			t.Fatalf("fee not monotonic at amount %d", tc.amount)
		}
		prev = fee
	}

	if _, err := f.engine.QuoteFee("ZNHB", big.NewInt(1)); !errors.Is(err, ErrUnsupportedToken) {
		t.Fatalf("expected ErrUnsupportedToken, got %v", err)
	}
}

func TestPausedOperationsRejected(t *testing.T) {
	f := newTestFixture(t)
	f.registerToken(t, "NHB", 30)
	provider := makeAddress(0x10)
	f.vault.Credit(provider, "NHB", big.NewInt(100))

	pauses := NewPauseSet()
	pauses.Set(OpDeposit, true)
	f.engine.SetPauses(pauses)

	if err := f.engine.Deposit(provider, "NHB", big.NewInt(100)); !errors.Is(err, nativecommon.ErrPaused) {
		t.Fatalf("expected ErrPaused, got %v", err)
	}
	if got := f.engine.AvailableLiquidity("NHB"); got.Sign() != 0 {
		t.Fatalf("expected pool untouched while paused, got %s", got)
	}

	pauses.Set(OpDeposit, false)
	if err := f.engine.Deposit(provider, "NHB", big.NewInt(100)); err != nil {
		t.Fatalf("deposit after unpause: %v", err)
	}
}
