package discovery

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/a-powelson/Ryu-Firewall/protocol"
	log "github.com/sirupsen/logrus"
)

const (
	switchesDir = "switches/"
	linksDir    = "links/"
)

type SwitchRecord struct {
	DPID uint64 `json:"dpid"`
}

// LinkRecord is one discovered link seen from Src. SrcPort is the port on
// Src that reaches Dst and DstPort the port on Dst that reaches Src.
type LinkRecord struct {
	Src     uint64 `json:"src"`
	Dst     uint64 `json:"dst"`
	SrcPort uint32 `json:"src_port"`
	DstPort uint32 `json:"dst_port"`
}

type KeyValue struct {
	Key   string
	Value []byte
}

func SwitchKey(prefix string, dpid uint64) string {
	return fmt.Sprintf("%s%s%d", prefix, switchesDir, dpid)
}

func LinkKey(prefix string, src, dst uint64) string {
	return fmt.Sprintf("%s%s%d-%d", prefix, linksDir, src, dst)
}

// BuildSnapshot turns the key space under prefix into a full topology
// snapshot. Unparseable entries are skipped and logged.
func BuildSnapshot(prefix string, kvs []KeyValue) protocol.TopologySnapshot {
	var snap protocol.TopologySnapshot
	seen := make(map[uint64]bool)

	for _, kv := range kvs {
		rel := strings.TrimPrefix(kv.Key, prefix)
		switch {
		case strings.HasPrefix(rel, switchesDir):
			var rec SwitchRecord
			if err := json.Unmarshal(kv.Value, &rec); err != nil {
				log.Warnf("skip switch record %s: %v", kv.Key, err)
				continue
			}
			if !seen[rec.DPID] {
				seen[rec.DPID] = true
				snap.Switches = append(snap.Switches, rec.DPID)
			}
		case strings.HasPrefix(rel, linksDir):
			var rec LinkRecord
			if err := json.Unmarshal(kv.Value, &rec); err != nil {
				log.Warnf("skip link record %s: %v", kv.Key, err)
				continue
			}
			snap.Links = append(snap.Links, protocol.Link{
				SrcSwitch: rec.Src,
				DstSwitch: rec.Dst,
				SrcPort:   rec.SrcPort,
				DstPort:   rec.DstPort,
			})
		default:
			log.Debugf("ignoring discovery key %s", kv.Key)
		}
	}

	sort.Slice(snap.Switches, func(i, j int) bool { return snap.Switches[i] < snap.Switches[j] })
	sort.Slice(snap.Links, func(i, j int) bool {
		a, b := snap.Links[i], snap.Links[j]
		if a.SrcSwitch != b.SrcSwitch {
			return a.SrcSwitch < b.SrcSwitch
		}
		return a.DstSwitch < b.DstSwitch
	})
	return snap
}
