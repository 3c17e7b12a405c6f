package protocol

type MessageType uint8

const (
	TypeSwitchConnected  MessageType = 1
	TypePacketIn         MessageType = 2
	TypeTopologySnapshot MessageType = 3

	TypeInstallDefaultRule MessageType = 16
	TypeInstallRule        MessageType = 17
	TypeForwardPacket      MessageType = 18
)

func (t MessageType) String() string {
	switch t {
	case TypeSwitchConnected:
		return "SwitchConnected"
	case TypePacketIn:
		return "PacketIn"
	case TypeTopologySnapshot:
		return "TopologySnapshot"
	case TypeInstallDefaultRule:
		return "InstallDefaultRule"
	case TypeInstallRule:
		return "InstallRule"
	case TypeForwardPacket:
		return "ForwardPacket"
	default:
		return "Unknown"
	}
}

const (
	// NoBuffer marks a packet-in whose frame is not buffered on the switch.
	NoBuffer uint32 = 0xffffffff
	// MaxLenNoBuffer asks the switch to send the whole frame to the
	// controller instead of buffering it.
	MaxLenNoBuffer uint16 = 0xffff
)

type Message interface {
	MessageType() MessageType
}

// Event is an inbound notification from the switch side.
type Event interface {
	Message
	event()
}

// Command is an outbound instruction addressed to one switch.
type Command interface {
	Message
	Target() uint64
}

// Southbound carries commands towards switches. Sends are fire-and-forget:
// a nil error only means the command was accepted for delivery.
type Southbound interface {
	Send(cmd Command) error
}

type SwitchConnected struct {
	SwitchID uint64
}

type Link struct {
	SrcSwitch uint64
	DstSwitch uint64
	SrcPort   uint32
	DstPort   uint32
}

// TopologySnapshot is the complete current set of switches and links.
type TopologySnapshot struct {
	Switches []uint64
	Links    []Link
}

type PacketIn struct {
	SwitchID uint64
	InPort   uint32
	EthSrc   string
	EthDst   string
	Data     []byte
	BufferID uint32
}

func (SwitchConnected) MessageType() MessageType  { return TypeSwitchConnected }
func (PacketIn) MessageType() MessageType         { return TypePacketIn }
func (TopologySnapshot) MessageType() MessageType { return TypeTopologySnapshot }

func (SwitchConnected) event()  {}
func (PacketIn) event()         {}
func (TopologySnapshot) event() {}

type ActionType uint8

const (
	ActionOutput ActionType = iota + 1
	ActionController
)

type Action struct {
	Type   ActionType
	Port   uint32
	MaxLen uint16
}

func Output(port uint32) Action {
	return Action{Type: ActionOutput, Port: port}
}

func ToController(maxLen uint16) Action {
	return Action{Type: ActionController, MaxLen: maxLen}
}

// Match selects frames by Ethernet addresses. Empty fields are wildcards,
// so the zero value matches everything.
type Match struct {
	EthSrc string
	EthDst string
}

func (m Match) IsAll() bool {
	return m.EthSrc == "" && m.EthDst == ""
}

type InstallDefaultRule struct {
	SwitchID uint64
}

// InstallRule installs one flow rule. An empty Actions list drops.
type InstallRule struct {
	SwitchID uint64
	Priority uint16
	Match    Match
	Actions  []Action
}

func (r InstallRule) IsDrop() bool {
	return len(r.Actions) == 0
}

type ForwardPacket struct {
	SwitchID uint64
	InPort   uint32
	OutPort  uint32
	Data     []byte
	BufferID uint32
}

func (InstallDefaultRule) MessageType() MessageType { return TypeInstallDefaultRule }
func (InstallRule) MessageType() MessageType        { return TypeInstallRule }
func (ForwardPacket) MessageType() MessageType      { return TypeForwardPacket }

func (c InstallDefaultRule) Target() uint64 { return c.SwitchID }
func (c InstallRule) Target() uint64        { return c.SwitchID }
func (c ForwardPacket) Target() uint64      { return c.SwitchID }
