package protocol

import (
	"errors"
	"net"
)

const ethHeaderLen = 14

var ErrShortEthernet = errors.New("frame shorter than an ethernet header")

// ParseEthernetAddrs returns the destination and source MAC of a raw
// Ethernet frame in colon-separated lowercase form.
func ParseEthernetAddrs(frame []byte) (dst, src string, err error) {
	if len(frame) < ethHeaderLen {
		return "", "", ErrShortEthernet
	}
	dst = net.HardwareAddr(frame[0:6]).String()
	src = net.HardwareAddr(frame[6:12]).String()
	return dst, src, nil
}

// FillAddrs populates whichever of EthSrc/EthDst the switch agent left
// empty from the raw frame. Addresses already set are kept.
func (p *PacketIn) FillAddrs() error {
	if p.EthSrc != "" && p.EthDst != "" {
		return nil
	}
	dst, src, err := ParseEthernetAddrs(p.Data)
	if err != nil {
		return err
	}
	if p.EthDst == "" {
		p.EthDst = dst
	}
	if p.EthSrc == "" {
		p.EthSrc = src
	}
	return nil
}
