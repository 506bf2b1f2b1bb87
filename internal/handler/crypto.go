package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/wallet-payload/internal/crypto"
	"github.com/AlexZinkM/wallet-payload/internal/model"
)

const maxCryptoBody = 1 << 20

// PayloadCryptor encrypts and decrypts payloads
type PayloadCryptor interface {
	Encrypt(ctx context.Context, pair model.KeyDataPair, iterations uint32) (string, error)
	Decrypt(ctx context.Context, pair model.KeyDataPair, iterations uint32) (string, error)
}

// CryptoHandler exposes the payload cryptor
type CryptoHandler struct {
	cryptor PayloadCryptor
}

// NewCryptoHandler creates a new CryptoHandler
func NewCryptoHandler(cryptor PayloadCryptor) *CryptoHandler {
	return &CryptoHandler{cryptor: cryptor}
}

// Encrypt handles POST /crypto/encrypt
// @Summary      Encrypt payload
// @Description  Encrypts UTF-8 data with PBKDF2-SHA1 + AES-256-CBC, returns base64(iv || ciphertext)
// @Tags         crypto
// @Accept       json
// @Produce      json
// @Param        request  body      model.CryptoRequest  true  "Key, plaintext and iterations"
// @Success      200      {object}  model.CryptoResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /crypto/encrypt [post]
func (h *CryptoHandler) Encrypt(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	pair, iterations, ok := decodeCryptoRequest(w, r)
	if !ok {
		return
	}
	defer pair.Wipe()

	result, err := h.cryptor.Encrypt(r.Context(), pair, iterations)
	if err != nil {
		if crypto.IsConfigurationError(err) {
			writeError(w, http.StatusBadRequest, codeBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, codeInternal, err)
		return
	}

	writeJSON(w, http.StatusOK, model.CryptoResponse{Result: result})
}

// Decrypt handles POST /crypto/decrypt
// @Summary      Decrypt payload
// @Description  Decrypts base64(iv || ciphertext) through the native path with a legacy fallback
// @Tags         crypto
// @Accept       json
// @Produce      json
// @Param        request  body      model.CryptoRequest  true  "Key, ciphertext and iterations"
// @Success      200      {object}  model.CryptoResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      422      {object}  model.ErrorResponse
// @Router       /crypto/decrypt [post]
func (h *CryptoHandler) Decrypt(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	pair, iterations, ok := decodeCryptoRequest(w, r)
	if !ok {
		return
	}
	defer pair.Wipe()

	result, err := h.cryptor.Decrypt(r.Context(), pair, iterations)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeDecryptFailed, err)
		return
	}

	writeJSON(w, http.StatusOK, model.CryptoResponse{Result: result})
}

func decodeCryptoRequest(w http.ResponseWriter, r *http.Request) (model.KeyDataPair, uint32, bool) {
	var req model.CryptoRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCryptoBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, errors.New("invalid request body"))
		return model.KeyDataPair{}, 0, false
	}
	if req.Iterations == 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, errors.New("iterations must be positive"))
		return model.KeyDataPair{}, 0, false
	}
	return model.NewKeyDataPair(req.Key, req.Data), req.Iterations, true
}
