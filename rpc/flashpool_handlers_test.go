package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"flashpool/crypto"
	"flashpool/native/flashpool"
)

const testAuthToken = "test-secret"

type rpcTestEnv struct {
	server   *httptest.Server
	engine   *flashpool.Engine
	vault    *flashpool.Vault
	owner    crypto.Address
	provider crypto.Address
}

func makeAddress(fill byte) crypto.Address {
	buf := make([]byte, 20)
	for i := range buf {
		buf[i] = fill
	}
	return crypto.NewAddress(crypto.FSPPrefix, buf)
}

func newRPCTestEnv(t *testing.T) *rpcTestEnv {
	t.Helper()
	t.Setenv("FLASHPOOL_RPC_TOKEN", testAuthToken)

	owner := makeAddress(0xAA)
	provider := makeAddress(0x10)
	vault := flashpool.NewVault()
	engine := flashpool.NewEngine(owner, crypto.ModuleAddress("vault"))
	engine.SetTransfer(vault)
	pauses := flashpool.NewPauseSet()
	engine.SetPauses(pauses)

	require.NoError(t, engine.RegisterToken(owner, "NHB", 30))
	vault.Credit(provider, "NHB", big.NewInt(10_000))
	require.NoError(t, engine.Deposit(provider, "NHB", big.NewInt(1_000)))

	server := httptest.NewServer(NewServer(engine, owner, pauses))
	t.Cleanup(server.Close)
	return &rpcTestEnv{server: server, engine: engine, vault: vault, owner: owner, provider: provider}
}

func (env *rpcTestEnv) call(t *testing.T, token, method string, params interface{}) (*http.Response, RPCResponse) {
	t.Helper()
	req := map[string]interface{}{
		"jsonrpc": jsonRPCVersion,
		"id":      1,
		"method":  method,
	}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq, err := http.NewRequest(http.MethodPost, env.server.URL, bytes.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded RPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func resultAmount(t *testing.T, decoded RPCResponse) string {
	t.Helper()
	payload, err := json.Marshal(decoded.Result)
	require.NoError(t, err)
	var result amountResult
	require.NoError(t, json.Unmarshal(payload, &result))
	return result.Amount
}

func TestGetLiquidity(t *testing.T) {
	env := newRPCTestEnv(t)
	resp, decoded := env.call(t, "", "flashpool_getLiquidity", symbolParams{Symbol: "nhb"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, decoded.Error)
	require.Equal(t, "1000", resultAmount(t, decoded))
}

func TestQuoteFee(t *testing.T) {
	env := newRPCTestEnv(t)
	_, decoded := env.call(t, "", "flashpool_quoteFee", quoteFeeParams{Symbol: "NHB", Amount: "1000000"})
	require.Nil(t, decoded.Error)
	require.Equal(t, "3000", resultAmount(t, decoded))
}

func TestPrivilegedMethodsRequireAuth(t *testing.T) {
	env := newRPCTestEnv(t)
	resp, decoded := env.call(t, "", "flashpool_registerToken", tokenParams{Symbol: "ZNHB", FeeBps: 10})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, decoded.Error)
	require.Equal(t, codeUnauthorized, decoded.Error.Code)

	resp, decoded = env.call(t, "wrong-token", "flashpool_registerToken", tokenParams{Symbol: "ZNHB", FeeBps: 10})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, decoded.Error)
}

func TestRegisterTokenAndDeposit(t *testing.T) {
	env := newRPCTestEnv(t)
	_, decoded := env.call(t, testAuthToken, "flashpool_registerToken", tokenParams{Symbol: "ZNHB", FeeBps: 10})
	require.Nil(t, decoded.Error)

	env.vault.Credit(env.provider, "ZNHB", big.NewInt(500))
	_, decoded = env.call(t, testAuthToken, "flashpool_deposit", liquidityParams{
		Address: env.provider.String(),
		Symbol:  "ZNHB",
		Amount:  "500",
	})
	require.Nil(t, decoded.Error)

	_, decoded = env.call(t, "", "flashpool_getDeposit", depositQueryParams{
		Address: env.provider.String(),
		Symbol:  "ZNHB",
	})
	require.Nil(t, decoded.Error)
	require.Equal(t, "500", resultAmount(t, decoded))

	_, decoded = env.call(t, "", "flashpool_getTVL", nil)
	require.Nil(t, decoded.Error)
	require.Equal(t, "1500", resultAmount(t, decoded))
}

func TestEngineErrorsMapToStableCodes(t *testing.T) {
	env := newRPCTestEnv(t)

	_, decoded := env.call(t, testAuthToken, "flashpool_withdraw", liquidityParams{
		Address: env.provider.String(),
		Symbol:  "NHB",
		Amount:  "5000",
	})
	require.NotNil(t, decoded.Error)
	require.Equal(t, codeInsufficientLiquidity, decoded.Error.Code)

	_, decoded = env.call(t, testAuthToken, "flashpool_registerToken", tokenParams{Symbol: "BTC", FeeBps: 1001})
	require.NotNil(t, decoded.Error)
	require.Equal(t, codeInvalidAmount, decoded.Error.Code)

	_, decoded = env.call(t, testAuthToken, "flashpool_optimizeLiquidity", optimizeParams{
		Tokens:    []string{"NHB"},
		TargetBps: []uint64{9_999},
	})
	require.NotNil(t, decoded.Error)
	require.Equal(t, codeInvalidAmount, decoded.Error.Code)

	_, decoded = env.call(t, "", "flashpool_quoteFee", quoteFeeParams{Symbol: "DOGE", Amount: "100"})
	require.NotNil(t, decoded.Error)
	require.Equal(t, codeUnsupportedToken, decoded.Error.Code)
}

func TestSetPausedBlocksDeposits(t *testing.T) {
	env := newRPCTestEnv(t)

	_, decoded := env.call(t, testAuthToken, "flashpool_setPaused", setPausedParams{
		Operation: flashpool.OpDeposit,
		Paused:    true,
	})
	require.Nil(t, decoded.Error)

	env.vault.Credit(env.provider, "NHB", big.NewInt(100))
	_, decoded = env.call(t, testAuthToken, "flashpool_deposit", liquidityParams{
		Address: env.provider.String(),
		Symbol:  "NHB",
		Amount:  "100",
	})
	require.NotNil(t, decoded.Error)
	require.Equal(t, codePaused, decoded.Error.Code)
}
