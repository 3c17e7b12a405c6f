package policy

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

const (
	ModeParity   = "parity"
	ModeAllowAll = "allow_all"
)

// Engine decides whether traffic between two endpoint addresses must be
// dropped. Implementations are stateless and depend only on the pair.
type Engine interface {
	IsBlocked(src, dst string) bool
}

func New(mode string) (Engine, error) {
	switch mode {
	case "", ModeParity:
		return ParityPolicy{}, nil
	case ModeAllowAll:
		return AllowAll{}, nil
	default:
		return nil, fmt.Errorf("unknown policy mode %q", mode)
	}
}

// ParityPolicy splits endpoints into two classes by the parity of the
// last character of their address and blocks traffic across classes.
type ParityPolicy struct{}

func (ParityPolicy) IsBlocked(src, dst string) bool {
	blocked := Class(src) != Class(dst)
	if blocked {
		log.Debugf("policy: %s -> %s crosses parity classes", src, dst)
	}
	return blocked
}

// Class returns 0 or 1. Hex digits use their numeric value, any other
// trailing character its byte value. An empty address is class 0.
func Class(addr string) int {
	if addr == "" {
		return 0
	}
	c := addr[len(addr)-1]
	switch {
	case c >= '0' && c <= '9':
		return int(c-'0') % 2
	case c >= 'a' && c <= 'f':
		return int(c-'a'+10) % 2
	case c >= 'A' && c <= 'F':
		return int(c-'A'+10) % 2
	default:
		return int(c) % 2
	}
}

type AllowAll struct{}

func (AllowAll) IsBlocked(string, string) bool { return false }
