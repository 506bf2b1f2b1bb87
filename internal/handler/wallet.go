package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AlexZinkM/wallet-payload/internal/journal"
	"github.com/AlexZinkM/wallet-payload/internal/model"
	"github.com/AlexZinkM/wallet-payload/internal/upgrade"

	"go.uber.org/zap"
)

// Wallet is the loaded wallet
type Wallet interface {
	Payload() (json.RawMessage, error)
	PairingQR(ctx context.Context, pairingKey string, size int) ([]byte, error)
}

// Upgrader runs wallet upgrades
type Upgrader interface {
	RequiredUpgrades(ctx context.Context) ([]model.Version, error)
	Stream(ctx context.Context) (<-chan model.Version, <-chan error)
}

// History lists journaled upgrade runs
type History interface {
	Entries() ([]journal.Entry, error)
}

// WalletHandler holds the wallet and its upgrade orchestrator
type WalletHandler struct {
	wallet   Wallet
	upgrader Upgrader
	history  History
	log      *zap.Logger
}

// NewWalletHandler creates a new WalletHandler. history may be nil.
func NewWalletHandler(wallet Wallet, upgrader Upgrader, history History, log *zap.Logger) *WalletHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WalletHandler{
		wallet:   wallet,
		upgrader: upgrader,
		history:  history,
		log:      log.Named("handler"),
	}
}

// Payload handles GET /wallet/payload
// @Summary      Get decrypted wallet
// @Description  Returns the decrypted wallet payload JSON
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  object
// @Failure      500  {object}  model.ErrorResponse
// @Router       /wallet/payload [get]
func (h *WalletHandler) Payload(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	raw, err := h.wallet.Payload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

// Upgrade handles GET and POST /wallet/upgrade
func (h *WalletHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.upgradeStatus(w, r)
	case http.MethodPost:
		h.runUpgrade(w, r)
	default:
		allowMethod(w, r, http.MethodGet+", "+http.MethodPost)
	}
}

// upgradeStatus handles GET /wallet/upgrade
// @Summary      Get required upgrades
// @Description  Lists the wallet upgrades that are still required, in order
// @Tags         wallet
// @Produce      json
// @Success      200  {object}  model.UpgradeStatusResponse
// @Failure      502  {object}  model.ErrorResponse
// @Router       /wallet/upgrade [get]
func (h *WalletHandler) upgradeStatus(w http.ResponseWriter, r *http.Request) {
	versions, err := h.upgrader.RequiredUpgrades(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, codeUpgradeFailed, err)
		return
	}
	if versions == nil {
		versions = []model.Version{}
	}
	writeJSON(w, http.StatusOK, model.UpgradeStatusResponse{
		NeedsUpgrade: len(versions) > 0,
		Versions:     versions,
	})
}

// runUpgrade handles POST /wallet/upgrade
// @Summary      Run wallet upgrades
// @Description  Runs the required upgrades in order and streams one NDJSON line per version as it starts, then a final done or error line
// @Tags         wallet
// @Produce      application/x-ndjson
// @Success      200  {object}  model.UpgradeEvent
// @Router       /wallet/upgrade [post]
func (h *WalletHandler) runUpgrade(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	send := func(ev model.UpgradeEvent) {
		if err := enc.Encode(ev); err != nil {
			h.log.Debug("failed to write upgrade event", zap.Error(err))
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	versions, errc := h.upgrader.Stream(r.Context())
	for v := range versions {
		send(model.UpgradeEvent{Version: v})
	}

	if err := <-errc; err != nil {
		ev := model.UpgradeEvent{Error: err.Error()}
		var failed *upgrade.FailedError
		if errors.As(err, &failed) {
			ev.Version = failed.Version
		}
		send(ev)
		return
	}
	send(model.UpgradeEvent{Done: true})
}

// History handles GET /wallet/upgrade/history
// @Summary      Get upgrade history
// @Description  Lists journaled upgrade workflow runs, oldest first
// @Tags         wallet
// @Produce      json
// @Success      200  {array}   model.JournalEntryResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /wallet/upgrade/history [get]
func (h *WalletHandler) History(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	if h.history == nil {
		writeError(w, http.StatusNotFound, codeNotFound, errors.New("upgrade journal is disabled"))
		return
	}

	entries, err := h.history.Entries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}

	resp := make([]model.JournalEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, model.JournalEntryResponse{
			Sequence: e.Sequence,
			Version:  e.Version,
			Event:    e.Event,
			Error:    e.Error,
			At:       e.At.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// PairingQR handles GET /wallet/pairing/qr
// @Summary      Get pairing QR code
// @Description  Renders the wallet pairing code as a PNG QR code
// @Tags         wallet
// @Produce      png
// @Param        key   query     string  true   "Pairing encryption key"
// @Param        size  query     int     false  "PNG edge length in pixels"
// @Success      200   {file}    binary
// @Failure      400   {object}  model.ErrorResponse
// @Router       /wallet/pairing/qr [get]
func (h *WalletHandler) PairingQR(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, errors.New("key query parameter is required"))
		return
	}

	size := 0
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 2048 {
			writeError(w, http.StatusBadRequest, codeBadRequest, errors.New("size must be between 1 and 2048"))
			return
		}
		size = n
	}

	png, err := h.wallet.PairingQR(r.Context(), key, size)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
