package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame layout, big endian:
//
//	Length   uint32  body length
//	Type     uint8
//	Reserved [3]byte
//	Body     Length bytes
const (
	headerLen    = 8
	MaxFrameBody = 1 << 20
)

var (
	ErrShortFrame      = errors.New("frame shorter than header")
	ErrFrameTooLarge   = errors.New("frame body exceeds limit")
	ErrUnknownMessage  = errors.New("unknown message type")
	errTrailingPayload = errors.New("trailing bytes after message body")
)

type encoder struct {
	buf bytes.Buffer
	err error
}

func (e *encoder) write(v any) {
	if e.err != nil {
		return
	}
	e.err = binary.Write(&e.buf, binary.BigEndian, v)
}

func (e *encoder) str(s string) {
	if len(s) > 0xffff {
		e.err = fmt.Errorf("string of %d bytes does not fit", len(s))
		return
	}
	e.write(uint16(len(s)))
	e.write([]byte(s))
}

func (e *encoder) blob(b []byte) {
	e.write(uint32(len(b)))
	e.write(b)
}

type decoder struct {
	r   *bytes.Reader
	err error
}

func (d *decoder) read(v any) {
	if d.err != nil {
		return
	}
	d.err = binary.Read(d.r, binary.BigEndian, v)
}

func (d *decoder) str() string {
	var n uint16
	d.read(&n)
	if d.err != nil {
		return ""
	}
	b := make([]byte, n)
	d.read(b)
	return string(b)
}

func (d *decoder) blob() []byte {
	var n uint32
	d.read(&n)
	if d.err != nil || n == 0 {
		return nil
	}
	if int64(n) > int64(d.r.Len()) {
		d.err = io.ErrUnexpectedEOF
		return nil
	}
	b := make([]byte, n)
	d.read(b)
	return b
}

func (e *encoder) match(m Match) {
	e.str(m.EthSrc)
	e.str(m.EthDst)
}

func (d *decoder) match() Match {
	return Match{EthSrc: d.str(), EthDst: d.str()}
}

func (e *encoder) actions(actions []Action) {
	e.write(uint16(len(actions)))
	for _, a := range actions {
		e.write(uint8(a.Type))
		e.write(a.Port)
		e.write(a.MaxLen)
	}
}

func (d *decoder) actions() []Action {
	var n uint16
	d.read(&n)
	if d.err != nil || n == 0 {
		return nil
	}
	actions := make([]Action, 0, n)
	for i := 0; i < int(n); i++ {
		var a Action
		var t uint8
		d.read(&t)
		d.read(&a.Port)
		d.read(&a.MaxLen)
		a.Type = ActionType(t)
		actions = append(actions, a)
	}
	return actions
}

func encodeBody(msg Message) ([]byte, error) {
	var e encoder
	switch m := msg.(type) {
	case SwitchConnected:
		e.write(m.SwitchID)
	case PacketIn:
		e.write(m.SwitchID)
		e.write(m.InPort)
		e.write(m.BufferID)
		e.str(m.EthSrc)
		e.str(m.EthDst)
		e.blob(m.Data)
	case TopologySnapshot:
		e.write(uint32(len(m.Switches)))
		for _, id := range m.Switches {
			e.write(id)
		}
		e.write(uint32(len(m.Links)))
		for _, l := range m.Links {
			e.write(l.SrcSwitch)
			e.write(l.DstSwitch)
			e.write(l.SrcPort)
			e.write(l.DstPort)
		}
	case InstallDefaultRule:
		e.write(m.SwitchID)
	case InstallRule:
		e.write(m.SwitchID)
		e.write(m.Priority)
		e.match(m.Match)
		e.actions(m.Actions)
	case ForwardPacket:
		e.write(m.SwitchID)
		e.write(m.InPort)
		e.write(m.OutPort)
		e.write(m.BufferID)
		e.blob(m.Data)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMessage, msg)
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.buf.Bytes(), nil
}

func decodeBody(t MessageType, body []byte) (Message, error) {
	d := decoder{r: bytes.NewReader(body)}
	var msg Message

	switch t {
	case TypeSwitchConnected:
		var m SwitchConnected
		d.read(&m.SwitchID)
		msg = m
	case TypePacketIn:
		var m PacketIn
		d.read(&m.SwitchID)
		d.read(&m.InPort)
		d.read(&m.BufferID)
		m.EthSrc = d.str()
		m.EthDst = d.str()
		m.Data = d.blob()
		msg = m
	case TypeTopologySnapshot:
		var m TopologySnapshot
		var n uint32
		d.read(&n)
		if d.err == nil && int64(n)*8 > int64(d.r.Len()) {
			d.err = io.ErrUnexpectedEOF
		}
		for i := uint32(0); d.err == nil && i < n; i++ {
			var id uint64
			d.read(&id)
			m.Switches = append(m.Switches, id)
		}
		d.read(&n)
		if d.err == nil && int64(n)*24 > int64(d.r.Len()) {
			d.err = io.ErrUnexpectedEOF
		}
		for i := uint32(0); d.err == nil && i < n; i++ {
			var l Link
			d.read(&l.SrcSwitch)
			d.read(&l.DstSwitch)
			d.read(&l.SrcPort)
			d.read(&l.DstPort)
			m.Links = append(m.Links, l)
		}
		msg = m
	case TypeInstallDefaultRule:
		var m InstallDefaultRule
		d.read(&m.SwitchID)
		msg = m
	case TypeInstallRule:
		var m InstallRule
		d.read(&m.SwitchID)
		d.read(&m.Priority)
		m.Match = d.match()
		m.Actions = d.actions()
		msg = m
	case TypeForwardPacket:
		var m ForwardPacket
		d.read(&m.SwitchID)
		d.read(&m.InPort)
		d.read(&m.OutPort)
		d.read(&m.BufferID)
		m.Data = d.blob()
		msg = m
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessage, t)
	}

	if d.err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, d.err)
	}
	if d.r.Len() != 0 {
		return nil, fmt.Errorf("decode %s: %w", t, errTrailingPayload)
	}
	return msg, nil
}

func Pack(msg Message) ([]byte, error) {
	body, err := encodeBody(msg)
	if err != nil {
		return nil, err
	}
	if len(body) > MaxFrameBody {
		return nil, ErrFrameTooLarge
	}

	frame := make([]byte, headerLen+len(body))
	binary.BigEndian.PutUint32(frame[0:4], uint32(len(body)))
	frame[4] = byte(msg.MessageType())
	copy(frame[headerLen:], body)
	return frame, nil
}

func Unpack(data []byte) (Message, error) {
	if len(data) < headerLen {
		return nil, ErrShortFrame
	}
	length := binary.BigEndian.Uint32(data[0:4])
	if length > MaxFrameBody {
		return nil, ErrFrameTooLarge
	}
	if int(length) != len(data)-headerLen {
		return nil, fmt.Errorf("frame length %d does not match %d body bytes", length, len(data)-headerLen)
	}
	return decodeBody(MessageType(data[4]), data[headerLen:])
}

func WriteMessage(w io.Writer, msg Message) error {
	frame, err := Pack(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

func ReadMessage(r io.Reader) (Message, error) {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortFrame
		}
		return nil, err
	}
	length := binary.BigEndian.Uint32(header[0:4])
	if length > MaxFrameBody {
		return nil, ErrFrameTooLarge
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read %d byte body: %w", length, err)
	}
	return decodeBody(MessageType(header[4]), body)
}
