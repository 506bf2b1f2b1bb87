package model

// WalletPayloadWrapper represents the decoded wallet wrapper envelope
type WalletPayloadWrapper struct {
	Version          int    `json:"version"`
	PBKDF2Iterations uint32 `json:"pbkdf2_iterations"`
	Payload          string `json:"payload"` // base64(iv || ciphertext)
}

// KeyDataPair is the key and operand of a single encrypt or decrypt call.
// For decryption Data is the base64 ciphertext, for encryption the UTF-8 plaintext.
type KeyDataPair struct {
	Key  []byte
	Data []byte
}

// NewKeyDataPair creates a KeyDataPair from strings
func NewKeyDataPair(key, data string) KeyDataPair {
	return KeyDataPair{Key: []byte(key), Data: []byte(data)}
}

// Wipe zeroes the key bytes. Call it once the pair is no longer needed.
func (p KeyDataPair) Wipe() {
	clear(p.Key)
}
