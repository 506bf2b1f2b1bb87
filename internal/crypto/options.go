package crypto

import "fmt"

// BlockMode is the AES block cipher mode
type BlockMode int

const (
	CBC BlockMode = iota
	OFB
)

func (m BlockMode) String() string {
	switch m {
	case CBC:
		return "CBC"
	case OFB:
		return "OFB"
	default:
		return fmt.Sprintf("BlockMode(%d)", int(m))
	}
}

// Padding is the padding scheme applied before encryption
type Padding int

const (
	ISO10126 Padding = iota
	ISO78164         // ISO/IEC 7816-4, same as ISO/IEC 9797-1 method 2
	NoPadding
)

func (p Padding) String() string {
	switch p {
	case ISO10126:
		return "ISO10126"
	case ISO78164:
		return "ISO7816-4"
	case NoPadding:
		return "NoPadding"
	default:
		return fmt.Sprintf("Padding(%d)", int(p))
	}
}

// Options selects block mode and padding
type Options struct {
	BlockMode BlockMode
	Padding   Padding
}

// DefaultOptions is the configuration used for wallet payloads
var DefaultOptions = Options{BlockMode: CBC, Padding: ISO10126}

func (o Options) String() string {
	return o.BlockMode.String() + "/" + o.Padding.String()
}

func (o Options) validate() error {
	switch o.BlockMode {
	case CBC, OFB:
	default:
		return fmt.Errorf("%w: unsupported block mode %s", ErrConfiguration, o.BlockMode)
	}
	switch o.Padding {
	case ISO10126, ISO78164, NoPadding:
	default:
		return fmt.Errorf("%w: unsupported padding %s", ErrConfiguration, o.Padding)
	}
	return nil
}
