package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpackPacketIn(t *testing.T) {
	pi := PacketIn{
		SwitchID: 3,
		InPort:   1,
		EthSrc:   "00:00:00:00:00:03",
		EthDst:   "00:00:00:00:00:01",
		Data:     []byte{1, 2, 3, 4},
		BufferID: NoBuffer,
	}

	frame, err := Pack(pi)
	require.NoError(t, err)
	assert.Equal(t, byte(TypePacketIn), frame[4])

	msg, err := Unpack(frame)
	require.NoError(t, err)
	assert.Equal(t, pi, msg)
}

func TestInstallRuleDropKeepsNoActions(t *testing.T) {
	rule := InstallRule{
		SwitchID: 1,
		Priority: 2,
		Match:    Match{EthSrc: "00:00:00:00:00:01", EthDst: "00:00:00:00:00:02"},
	}

	frame, err := Pack(rule)
	require.NoError(t, err)
	msg, err := Unpack(frame)
	require.NoError(t, err)

	got, ok := msg.(InstallRule)
	require.True(t, ok)
	assert.True(t, got.IsDrop())
	assert.Equal(t, rule.Match, got.Match)
	assert.Equal(t, uint16(2), got.Priority)
}

func TestReadWriteMessageStream(t *testing.T) {
	var buf bytes.Buffer
	snap := TopologySnapshot{
		Switches: []uint64{1, 2, 3},
		Links:    []Link{{SrcSwitch: 1, DstSwitch: 2, SrcPort: 2, DstPort: 2}},
	}
	fwd := ForwardPacket{SwitchID: 1, InPort: 1, OutPort: 2, Data: []byte("hi"), BufferID: 7}
	def := InstallRule{SwitchID: 9, Actions: []Action{ToController(MaxLenNoBuffer)}}

	require.NoError(t, WriteMessage(&buf, snap))
	require.NoError(t, WriteMessage(&buf, fwd))
	require.NoError(t, WriteMessage(&buf, def))

	for _, want := range []Message{snap, fwd, def} {
		got, err := ReadMessage(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestUnpackErrors(t *testing.T) {
	_, err := Unpack([]byte{0, 0})
	assert.ErrorIs(t, err, ErrShortFrame)

	frame, err := Pack(SwitchConnected{SwitchID: 1})
	require.NoError(t, err)
	frame[4] = 99
	_, err = Unpack(frame)
	assert.ErrorIs(t, err, ErrUnknownMessage)

	frame, err = Pack(SwitchConnected{SwitchID: 1})
	require.NoError(t, err)
	_, err = Unpack(frame[:len(frame)-1])
	assert.Error(t, err)
}

func TestTruncatedSnapshotRejected(t *testing.T) {
	frame, err := Pack(TopologySnapshot{Switches: []uint64{1, 2}})
	require.NoError(t, err)

	// claim more switches than the body holds
	frame[headerLen+3] = 50
	_, err = Unpack(frame)
	assert.Error(t, err)
}

func TestParseEthernetAddrs(t *testing.T) {
	frame := []byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x02,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x00,
	}
	dst, src, err := ParseEthernetAddrs(frame)
	require.NoError(t, err)
	assert.Equal(t, "00:00:00:00:00:02", dst)
	assert.Equal(t, "00:00:00:00:00:01", src)

	pi := PacketIn{Data: frame}
	require.NoError(t, pi.FillAddrs())
	assert.Equal(t, "00:00:00:00:00:01", pi.EthSrc)

	_, _, err = ParseEthernetAddrs(frame[:10])
	assert.ErrorIs(t, err, ErrShortEthernet)
}

func TestFillAddrsKeepsExplicitAddress(t *testing.T) {
	frame := []byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x02,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x00,
	}

	pi := PacketIn{EthSrc: "00:00:00:00:00:aa", Data: frame}
	require.NoError(t, pi.FillAddrs())
	assert.Equal(t, "00:00:00:00:00:aa", pi.EthSrc)
	assert.Equal(t, "00:00:00:00:00:02", pi.EthDst)

	pi = PacketIn{EthDst: "00:00:00:00:00:bb", Data: frame}
	require.NoError(t, pi.FillAddrs())
	assert.Equal(t, "00:00:00:00:00:01", pi.EthSrc)
	assert.Equal(t, "00:00:00:00:00:bb", pi.EthDst)
}
