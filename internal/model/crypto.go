package model

// CryptoRequest represents request for POST /crypto/encrypt and /crypto/decrypt
type CryptoRequest struct {
	Key        string `json:"key" binding:"required"`
	Data       string `json:"data" binding:"required"`
	Iterations uint32 `json:"iterations" binding:"required"`
}

// CryptoResponse represents response for POST /crypto/...
type CryptoResponse struct {
	Result string `json:"result"`
}

// JournalEntryResponse represents one entry of GET /wallet/upgrade/history
type JournalEntryResponse struct {
	Sequence uint64  `json:"sequence"`
	Version  Version `json:"version"`
	Event    string  `json:"event"`
	Error    string  `json:"error,omitempty"`
	At       string  `json:"at"`
}
