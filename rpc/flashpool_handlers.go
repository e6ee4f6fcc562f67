package rpc

import (
	"net/http"

	"flashpool/crypto"
	"flashpool/native/flashpool"
)

type tokenParams struct {
	Symbol string `json:"symbol"`
	FeeBps uint64 `json:"feeBps"`
}

type liquidityParams struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Amount  string `json:"amount"`
}

type optimizeParams struct {
	Tokens    []string `json:"tokens"`
	TargetBps []uint64 `json:"targetBps"`
}

type setPausedParams struct {
	Operation string `json:"operation"`
	Paused    bool   `json:"paused"`
}

type symbolParams struct {
	Symbol string `json:"symbol"`
}

type depositQueryParams struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
}

type quoteFeeParams struct {
	Symbol string `json:"symbol"`
	Amount string `json:"amount"`
}

type okResult struct {
	OK bool `json:"ok"`
}

type amountResult struct {
	Symbol string `json:"symbol,omitempty"`
	Amount string `json:"amount"`
}

type tokenResult struct {
	Symbol string `json:"symbol"`
	FeeBps uint64 `json:"feeBps"`
}

func (s *Server) handleRegisterToken(w http.ResponseWriter, req *RPCRequest) {
	var params tokenParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	if err := s.engine.RegisterToken(s.owner, params.Symbol, params.FeeBps); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, okResult{OK: true})
}

func (s *Server) handleUpdateFee(w http.ResponseWriter, req *RPCRequest) {
	var params tokenParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	if err := s.engine.UpdateFee(s.owner, params.Symbol, params.FeeBps); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, okResult{OK: true})
}

func (s *Server) handleDeposit(w http.ResponseWriter, req *RPCRequest) {
	var params liquidityParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	provider, err := crypto.DecodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	if err := s.engine.Deposit(provider, params.Symbol, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, okResult{OK: true})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, req *RPCRequest) {
	var params liquidityParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	provider, err := crypto.DecodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	if err := s.engine.Withdraw(provider, params.Symbol, amount); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, okResult{OK: true})
}

func (s *Server) handleOptimizeLiquidity(w http.ResponseWriter, req *RPCRequest) {
	var params optimizeParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	if err := s.engine.OptimizeLiquidity(s.owner, params.Tokens, params.TargetBps); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, okResult{OK: true})
}

func (s *Server) handleSetPaused(w http.ResponseWriter, req *RPCRequest) {
	var params setPausedParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	switch params.Operation {
	case flashpool.OpDeposit, flashpool.OpWithdraw, flashpool.OpFlashLoan, flashpool.OpRebalance:
	default:
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "unknown operation", params.Operation)
		return
	}
	s.pauses.Set(params.Operation, params.Paused)
	writeResult(w, req.ID, okResult{OK: true})
}

func (s *Server) handleGetLiquidity(w http.ResponseWriter, req *RPCRequest) {
	var params symbolParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	amount := s.engine.AvailableLiquidity(params.Symbol)
	writeResult(w, req.ID, amountResult{Symbol: flashpool.NormalizeSymbol(params.Symbol), Amount: amount.String()})
}

func (s *Server) handleGetDeposit(w http.ResponseWriter, req *RPCRequest) {
	var params depositQueryParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	provider, err := crypto.DecodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	amount := s.engine.UserDeposit(provider, params.Symbol)
	writeResult(w, req.ID, amountResult{Symbol: flashpool.NormalizeSymbol(params.Symbol), Amount: amount.String()})
}

func (s *Server) handleQuoteFee(w http.ResponseWriter, req *RPCRequest) {
	var params quoteFeeParams
	if err := singleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	fee, err := s.engine.QuoteFee(params.Symbol, amount)
	if err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Symbol: flashpool.NormalizeSymbol(params.Symbol), Amount: fee.String()})
}

func (s *Server) handleGetTVL(w http.ResponseWriter, req *RPCRequest) {
	if len(req.Params) > 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: s.engine.TotalValueLocked().String()})
}

func (s *Server) handleListTokens(w http.ResponseWriter, req *RPCRequest) {
	if len(req.Params) > 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	tokens := s.engine.Tokens()
	out := make([]tokenResult, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, tokenResult{Symbol: token.Symbol, FeeBps: token.FeeBps})
	}
	writeResult(w, req.ID, out)
}
