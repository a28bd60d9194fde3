package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arcadeops/ledgercore/internal/events"
	"github.com/arcadeops/ledgercore/internal/repos/bonuses"
	"github.com/arcadeops/ledgercore/internal/repos/entries"
	"github.com/arcadeops/ledgercore/internal/repos/games"
	"github.com/arcadeops/ledgercore/internal/repos/players"
	"github.com/arcadeops/ledgercore/internal/repos/wallets"
	"github.com/arcadeops/ledgercore/internal/services/ledger"
)

const maxBodyBytes = 1 << 20 // 1MB cap

// HandlerProvider wraps the ledger service and exposes HTTP handlers.
type HandlerProvider struct {
	svc *ledger.Service
	hub *events.Hub
}

// NewHandler returns a new handler provider.
func NewHandler(svc *ledger.Service, hub *events.Hub) *HandlerProvider {
	return &HandlerProvider{svc: svc, hub: hub}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)

		http.Error(w, `{"error":"internal json encode failure"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps service errors onto HTTP statuses: bad input is 400,
// missing accounts are 404, balance/stock shortfalls and undo conflicts are
// 409, everything else is a 500 with the detail kept server-side.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		ve *ledger.ValidationError
		ie *ledger.InsufficientError
	)

	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &ie):
		writeError(w, http.StatusConflict, ie.Error())
	case errors.Is(err, ledger.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, "transaction already cancelled")
	case errors.Is(err, players.ErrInsufficientFunds), errors.Is(err, wallets.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient funds")
	case errors.Is(err, players.ErrPlayerNotFound):
		writeError(w, http.StatusNotFound, "player not found")
	case errors.Is(err, wallets.ErrWalletNotFound):
		writeError(w, http.StatusNotFound, "wallet not found")
	case errors.Is(err, games.ErrGameNotFound):
		writeError(w, http.StatusNotFound, "game not found")
	case errors.Is(err, entries.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "transaction not found")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parsePlayerIDFromPath(r *http.Request) (int64, error) {
	return parseIDParam(r, "playerId")
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	idStr := chi.URLParam(r, name)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s", name)
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}

	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body")
		}

		return fmt.Errorf("invalid JSON")
	}

	return nil
}

// parseAmountCents converts a decimal string with up to 2 fractional digits
// into cents. "100", "99.5" and "0.01" are all valid; the result must be
// positive.
func parseAmountCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount required")
	}
	neg := false
	if s[0] == '+' {
		s = s[1:]
	}
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, fmt.Errorf("invalid amount")
	}
	intPart := parts[0]
	frac := "00"
	if len(parts) == 2 {
		if len(parts[1]) > 2 {
			return 0, fmt.Errorf("amount supports up to 2 decimals")
		}
		frac = parts[1] + strings.Repeat("0", 2-len(parts[1]))
	}
	ip, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount integer")
	}
	fp, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount fractional")
	}
	total := ip*100 + fp
	if neg {
		total = -total
	}
	if total <= 0 {
		return 0, fmt.Errorf("amount must be > 0")
	}
	return total, nil
}

func parseBonusType(s string) (bonuses.BonusType, error) {
	switch bonuses.BonusType(strings.ToUpper(strings.TrimSpace(s))) {
	case bonuses.TypeStreak:
		return bonuses.TypeStreak, nil
	case bonuses.TypeReferral:
		return bonuses.TypeReferral, nil
	case bonuses.TypeCustom:
		return bonuses.TypeCustom, nil
	default:
		return "", fmt.Errorf("invalid bonus type")
	}
}

// --- Response shapes ---

type entryResponse struct {
	ID            string  `json:"id"`
	PlayerID      int64   `json:"playerId"`
	Kind          string  `json:"kind"`
	Amount        string  `json:"amount"`
	Status        string  `json:"status"`
	WalletID      *int64  `json:"walletId,omitempty"`
	WalletMethod  *string `json:"walletMethod,omitempty"`
	WalletName    *string `json:"walletName,omitempty"`
	GameID        *int64  `json:"gameId,omitempty"`
	BalanceBefore string  `json:"balanceBefore"`
	BalanceAfter  string  `json:"balanceAfter"`
	StockDraw     int64   `json:"stockDrawPoints,omitempty"`
	CorrelationID string  `json:"correlationId"`
	Note          string  `json:"note,omitempty"`
	CreatedAt     string  `json:"createdAt"`
}

func toEntryResponse(e entries.Entry) entryResponse {
	return entryResponse{
		ID:            e.ID.String(),
		PlayerID:      e.PlayerID,
		Kind:          string(e.Kind),
		Amount:        ledger.Dollars(e.AmountCents),
		Status:        string(e.Status),
		WalletID:      e.WalletID,
		WalletMethod:  e.WalletMethod,
		WalletName:    e.WalletName,
		GameID:        e.GameID,
		BalanceBefore: ledger.Dollars(e.BalanceBeforeCents),
		BalanceAfter:  ledger.Dollars(e.BalanceAfterCents),
		StockDraw:     e.StockDrawPoints,
		CorrelationID: e.CorrelationID.String(),
		Note:          e.Note,
		CreatedAt:     e.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

func toEntryResponses(es []entries.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(es))
	for _, e := range es {
		out = append(out, toEntryResponse(e))
	}
	return out
}

type balanceResponse struct {
	PlayerID int64  `json:"playerId"`
	Before   string `json:"before"`
	After    string `json:"after"`
	Streak   int    `json:"streak"`
}

func toBalanceResponse(b ledger.PlayerBalance) balanceResponse {
	return balanceResponse{
		PlayerID: b.PlayerID,
		Before:   ledger.Dollars(b.BeforeCents),
		After:    ledger.Dollars(b.AfterCents),
		Streak:   b.Streak,
	}
}

type walletResponse struct {
	WalletID int64  `json:"walletId"`
	Method   string `json:"method"`
	Name     string `json:"name"`
	Before   string `json:"before"`
	After    string `json:"after"`
}

type stockResponse struct {
	GameID int64  `json:"gameId"`
	Before int64  `json:"beforePoints"`
	After  int64  `json:"afterPoints"`
	Status string `json:"status"`
}

// --- Mutation handlers ---

type depositRequest struct {
	Amount        string `json:"amount"`
	WalletID      int64  `json:"walletId"`
	GameID        *int64 `json:"gameId,omitempty"`
	MatchBonus    bool   `json:"matchBonus"`
	SpecialBonus  bool   `json:"specialBonus"`
	ReferralBonus bool   `json:"referralBonus"`
	Note          string `json:"note,omitempty"`
}

// DepositHandler handles POST /players/{playerId}/deposits.
func (h *HandlerProvider) DepositHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerId in path")
		return
	}

	var req depositRequest
	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amountCents, err := parseAmountCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Deposit(r.Context(), ledger.DepositInput{
		PlayerID:    playerID,
		AmountCents: amountCents,
		WalletID:    req.WalletID,
		GameID:      req.GameID,
		Bonuses: ledger.BonusFlags{
			Match:    req.MatchBonus,
			Special:  req.SpecialBonus,
			Referral: req.ReferralBonus,
		},
		Note: req.Note,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := map[string]any{
		"transaction": toEntryResponse(res.Entry),
		"player":      toBalanceResponse(res.Player),
		"wallet": walletResponse{
			WalletID: res.Wallet.WalletID,
			Method:   res.Wallet.Method,
			Name:     res.Wallet.Name,
			Before:   ledger.Dollars(res.Wallet.BeforeCents),
			After:    ledger.Dollars(res.Wallet.AfterCents),
		},
	}
	if len(res.BonusEntries) > 0 {
		resp["bonusTransactions"] = toEntryResponses(res.BonusEntries)
	}
	if res.Referrer != nil {
		resp["referrer"] = toBalanceResponse(*res.Referrer)
	}
	if res.Game != nil {
		resp["game"] = stockResponse{
			GameID: res.Game.GameID,
			Before: res.Game.BeforePoints,
			After:  res.Game.AfterPoints,
			Status: string(res.Game.Status),
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

type cashoutRequest struct {
	Amount   string `json:"amount"`
	WalletID int64  `json:"walletId"`
	Note     string `json:"note,omitempty"`
}

// CashoutHandler handles POST /players/{playerId}/cashouts.
func (h *HandlerProvider) CashoutHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerId in path")
		return
	}

	var req cashoutRequest
	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amountCents, err := parseAmountCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Cashout(r.Context(), ledger.CashoutInput{
		PlayerID:    playerID,
		AmountCents: amountCents,
		WalletID:    req.WalletID,
		Note:        req.Note,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"transaction": toEntryResponse(res.Entry),
		"player":      toBalanceResponse(res.Player),
		"wallet": walletResponse{
			WalletID: res.Wallet.WalletID,
			Method:   res.Wallet.Method,
			Name:     res.Wallet.Name,
			Before:   ledger.Dollars(res.Wallet.BeforeCents),
			After:    ledger.Dollars(res.Wallet.AfterCents),
		},
	})
}

type grantRequest struct {
	Type   string `json:"bonusType"`
	Amount string `json:"amount"`
	GameID int64  `json:"gameId"`
	Note   string `json:"note,omitempty"`
}

// GrantBonusHandler handles POST /players/{playerId}/bonuses.
func (h *HandlerProvider) GrantBonusHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerId in path")
		return
	}

	var req grantRequest
	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bonusType, err := parseBonusType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amountCents, err := parseAmountCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.GrantBonus(r.Context(), ledger.GrantInput{
		PlayerID:    playerID,
		AmountCents: amountCents,
		GameID:      req.GameID,
		Type:        bonusType,
		Note:        req.Note,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := map[string]any{
		"transactions": toEntryResponses(res.BonusEntries),
		"player":       toBalanceResponse(res.Player),
		"game": stockResponse{
			GameID: res.Game.GameID,
			Before: res.Game.BeforePoints,
			After:  res.Game.AfterPoints,
			Status: string(res.Game.Status),
		},
	}
	if res.Referrer != nil {
		resp["referrer"] = toBalanceResponse(*res.Referrer)
	}

	writeJSON(w, http.StatusCreated, resp)
}

// UndoHandler handles POST /transactions/{entryId}/undo.
func (h *HandlerProvider) UndoHandler(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "entryId")

	entryID, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entryId in path")
		return
	}

	res, err := h.svc.Undo(r.Context(), entryID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	cancelled := make([]string, 0, len(res.CancelledEntryIDs))
	for _, id := range res.CancelledEntryIDs {
		cancelled = append(cancelled, id.String())
	}

	playersOut := make([]balanceResponse, 0, len(res.Players))
	for _, p := range res.Players {
		playersOut = append(playersOut, toBalanceResponse(p))
	}

	resp := map[string]any{
		"rootTransactionId":       res.RootEntryID.String(),
		"cancelledTransactionIds": cancelled,
		"players":                 playersOut,
	}
	if res.Wallet != nil {
		resp["wallet"] = walletResponse{
			WalletID: res.Wallet.WalletID,
			Method:   res.Wallet.Method,
			Name:     res.Wallet.Name,
			Before:   ledger.Dollars(res.Wallet.BeforeCents),
			After:    ledger.Dollars(res.Wallet.AfterCents),
		}
	}
	if len(res.GamesRestored) > 0 {
		gamesOut := make([]stockResponse, 0, len(res.GamesRestored))
		for _, g := range res.GamesRestored {
			gamesOut = append(gamesOut, stockResponse{
				GameID: g.GameID,
				Before: g.BeforePoints,
				After:  g.AfterPoints,
				Status: string(g.Status),
			})
		}
		resp["games"] = gamesOut
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Read handlers ---

// ListTransactionsHandler handles GET /transactions with optional playerId,
// kind, status, correlationId, limit and offset query parameters.
func (h *HandlerProvider) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var f entries.Filter

	if raw := q.Get("playerId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid playerId")
			return
		}
		f.PlayerID = &id
	}
	if raw := q.Get("kind"); raw != "" {
		kind := entries.Kind(strings.ToUpper(raw))
		switch kind {
		case entries.KindDeposit, entries.KindWithdrawal, entries.KindBonus:
		default:
			writeError(w, http.StatusBadRequest, "invalid kind")
			return
		}
		f.Kind = &kind
	}
	if raw := q.Get("status"); raw != "" {
		status := entries.Status(strings.ToUpper(raw))
		switch status {
		case entries.StatusPending, entries.StatusCompleted, entries.StatusCancelled:
		default:
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		f.Status = &status
	}
	if raw := q.Get("correlationId"); raw != "" {
		corr, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid correlationId")
			return
		}
		f.CorrelationID = &corr
	}

	var p entries.Page
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		p.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		p.Offset = n
	}

	list, err := h.svc.ListTransactions(r.Context(), f, p)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": toEntryResponses(list),
	})
}

// GetPlayerHandler handles GET /players/{playerId}/balance.
func (h *HandlerProvider) GetPlayerHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := parsePlayerIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playerId in path")
		return
	}

	p, err := h.svc.GetPlayer(r.Context(), playerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := map[string]any{
		"playerId": p.ID,
		"name":     p.Name,
		"balance":  ledger.Dollars(p.BalanceCents),
		"streak":   p.CurrentStreak,
	}
	if p.ReferrerID != nil {
		resp["referrerId"] = *p.ReferrerID
	}
	if p.LastActivityDate != nil {
		resp["lastActivityDate"] = p.LastActivityDate.UTC().Format("2006-01-02")
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetWalletHandler handles GET /wallets/{walletId}.
func (h *HandlerProvider) GetWalletHandler(w http.ResponseWriter, r *http.Request) {
	walletID, err := parseIDParam(r, "walletId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid walletId in path")
		return
	}

	wlt, err := h.svc.GetWallet(r.Context(), walletID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"walletId": wlt.ID,
		"method":   wlt.Method,
		"name":     wlt.Name,
		"balance":  ledger.Dollars(wlt.BalanceCents),
	})
}

// GetGameHandler handles GET /games/{gameId}.
func (h *HandlerProvider) GetGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := parseIDParam(r, "gameId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid gameId in path")
		return
	}

	g, err := h.svc.GetGame(r.Context(), gameID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"gameId": g.ID,
		"name":   g.Name,
		"stock":  g.StockPoints,
		"status": string(g.Status()),
	})
}
