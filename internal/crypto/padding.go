package crypto

import (
	"crypto/aes"
	"fmt"
	"io"
)

// pad appends padding so that len(data) is a multiple of the AES block size
func pad(data []byte, padding Padding, random io.Reader) ([]byte, error) {
	switch padding {
	case NoPadding:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil

	case ISO10126:
		// n-1 random bytes followed by the byte n
		n := aes.BlockSize - len(data)%aes.BlockSize
		out := make([]byte, len(data)+n)
		copy(out, data)
		if _, err := io.ReadFull(random, out[len(data):len(out)-1]); err != nil {
			return nil, fmt.Errorf("failed to generate padding: %w", err)
		}
		out[len(out)-1] = byte(n)
		return out, nil

	case ISO78164:
		// 0x80 followed by zero bytes
		n := aes.BlockSize - len(data)%aes.BlockSize
		out := make([]byte, len(data)+n)
		copy(out, data)
		out[len(data)] = 0x80
		return out, nil

	default:
		return nil, fmt.Errorf("%w: unsupported padding %s", ErrConfiguration, padding)
	}
}

// unpad strips padding, failing with ErrOperationFailed on a malformed trailer
func unpad(data []byte, padding Padding) ([]byte, error) {
	switch padding {
	case NoPadding:
		return data, nil

	case ISO10126:
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: empty padded data", ErrOperationFailed)
		}
		n := int(data[len(data)-1])
		if n == 0 || n > aes.BlockSize || n > len(data) {
			return nil, fmt.Errorf("%w: invalid ISO10126 padding", ErrOperationFailed)
		}
		return data[:len(data)-n], nil

	case ISO78164:
		i := len(data) - 1
		for i >= 0 && len(data)-i <= aes.BlockSize && data[i] == 0x00 {
			i--
		}
		if i < 0 || len(data)-i > aes.BlockSize || data[i] != 0x80 {
			return nil, fmt.Errorf("%w: invalid ISO7816-4 padding", ErrOperationFailed)
		}
		return data[:i], nil

	default:
		return nil, fmt.Errorf("%w: unsupported padding %s", ErrConfiguration, padding)
	}
}
