package flashpool

import (
	"errors"
	"math/big"
	"sync"

	"flashpool/crypto"
)

var errVaultInsufficientFunds = errors.New("flashpool vault: insufficient funds")

type vaultEntry struct {
	from   string
	to     string
	symbol string
	amount *big.Int
}

// Vault is an in-process AssetTransfer implementation backed by per-account
// balance maps. Every transfer is journalled, so the vault also satisfies
// TransferReverter and a failed flash loan can be unwound. It stands in for
// the real settlement rail in the daemon and in tests.
type Vault struct {
	mu       sync.Mutex
	balances map[string]map[string]*big.Int
	journal  []vaultEntry
}

func NewVault() *Vault {
	return &Vault{balances: make(map[string]map[string]*big.Int)}
}

func (v *Vault) balance(account, symbol string) *big.Int {
	if bySymbol, ok := v.balances[account]; ok {
		if amount, ok := bySymbol[symbol]; ok {
			return amount
		}
	}
	return big.NewInt(0)
}

func (v *Vault) setBalance(account, symbol string, amount *big.Int) {
	bySymbol, ok := v.balances[account]
	if !ok {
		bySymbol = make(map[string]*big.Int)
		v.balances[account] = bySymbol
	}
	bySymbol[symbol] = amount
}

// Credit mints amount of the asset into the account. Used to seed balances.
func (v *Vault) Credit(account crypto.Address, symbol string, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	sym := NormalizeSymbol(symbol)
	key := account.String()
	v.setBalance(key, sym, new(big.Int).Add(v.balance(key, sym), amount))
}

// Transfer implements AssetTransfer. The debit and credit apply together or
// not at all.
func (v *Vault) Transfer(from, to crypto.Address, symbol string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.New("flashpool vault: amount must be positive")
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	sym := NormalizeSymbol(symbol)
	fromKey, toKey := from.String(), to.String()
	available := v.balance(fromKey, sym)
	if available.Cmp(amount) < 0 {
		return errVaultInsufficientFunds
	}

	v.setBalance(fromKey, sym, new(big.Int).Sub(available, amount))
	v.setBalance(toKey, sym, new(big.Int).Add(v.balance(toKey, sym), amount))
	v.journal = append(v.journal, vaultEntry{
		from:   fromKey,
		to:     toKey,
		symbol: sym,
		amount: new(big.Int).Set(amount),
	})
	return nil
}

// BalanceOf implements AssetTransfer.
func (v *Vault) BalanceOf(owner crypto.Address, symbol string) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.balance(owner.String(), NormalizeSymbol(symbol))), nil
}

// Snapshot implements TransferReverter by marking the current journal
// position.
func (v *Vault) Snapshot() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.journal)
}

// RevertTo implements TransferReverter. Transfers recorded after the
// revision are undone in reverse order.
func (v *Vault) RevertTo(revision int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if revision < 0 || revision > len(v.journal) {
		return errors.New("flashpool vault: invalid snapshot revision")
	}
	for i := len(v.journal) - 1; i >= revision; i-- {
		entry := v.journal[i]
		v.setBalance(entry.to, entry.symbol, new(big.Int).Sub(v.balance(entry.to, entry.symbol), entry.amount))
		v.setBalance(entry.from, entry.symbol, new(big.Int).Add(v.balance(entry.from, entry.symbol), entry.amount))
	}
	v.journal = v.journal[:revision]
	return nil
}
