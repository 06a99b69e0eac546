package anemo

import (
	"bytes"
	"encoding/json"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// 测量模式
const (
	ModeVelocity = "VEL"
	ModeFlow     = "FLOW"
)

// Settings 由帧首两字节解出的设置位（定长、有序）
// 字段顺序即渲染/CSV 列顺序，不可调整。
type Settings struct {
	Mode     string // VEL / FLOW
	Deg      string // C / F
	MPH      string
	Knot     string
	FtMin    string
	KmH      string
	MS       string
	Max      string
	Min      string
	Avg      string
	TwoThird string
	CmmCfm   string // 仅 FLOW 模式：CFM / CMM
	Hold     string
}

// Field 设置项（名称 + 取值）
type Field struct {
	Name  string
	Value string
}

// gate 设置位生效的前置条件
type gate uint8

const (
	gateAlways gate = iota
	gateVelocity
	gateFlow
)

func (g gate) open(velocity bool) bool {
	switch g {
	case gateVelocity:
		return velocity
	case gateFlow:
		return !velocity
	default:
		return true
	}
}

// settingBit 位表的一行
type settingBit struct {
	name    string
	byteIdx int
	mask    byte
	on, off string
	gate    gate
	ref     func(*Settings) *string
}

// settingTable 位表，按解码与渲染顺序排列
// 前置条件不满足时字段固定为空串（例如 VEL 模式下的 cmm_cfm）。
var settingTable = [...]settingBit{
	{"flw_vel", 0, 0x80, ModeVelocity, ModeFlow, gateAlways, func(s *Settings) *string { return &s.Mode }},
	{"deg", 0, 0x20, "C", "F", gateAlways, func(s *Settings) *string { return &s.Deg }},
	{"mph", 0, 0x10, "mph", "", gateVelocity, func(s *Settings) *string { return &s.MPH }},
	{"knot", 0, 0x08, "knot", "", gateVelocity, func(s *Settings) *string { return &s.Knot }},
	{"ft/min", 0, 0x04, "ft/min", "", gateVelocity, func(s *Settings) *string { return &s.FtMin }},
	{"kmh", 0, 0x02, "km/h", "", gateVelocity, func(s *Settings) *string { return &s.KmH }},
	{"m/s", 0, 0x01, "m/s", "", gateVelocity, func(s *Settings) *string { return &s.MS }},
	{"max", 1, 0x80, "max", "", gateAlways, func(s *Settings) *string { return &s.Max }},
	{"min", 1, 0x40, "min", "", gateAlways, func(s *Settings) *string { return &s.Min }},
	{"avg", 1, 0x20, "avg", "", gateAlways, func(s *Settings) *string { return &s.Avg }},
	{"2/3", 1, 0x10, "2/3", "", gateAlways, func(s *Settings) *string { return &s.TwoThird }},
	{"cmm_cfm", 1, 0x08, "CFM", "CMM", gateFlow, func(s *Settings) *string { return &s.CmmCfm }},
	{"hold", 1, 0x02, "hold", "", gateAlways, func(s *Settings) *string { return &s.Hold }},
}

// FieldCount 设置项数量
const FieldCount = len(settingTable)

// DecodeSettings 按位表解码设置字节（b 为帧第0字节，c 为第1字节）
func DecodeSettings(b, c byte) Settings {
	velocity := b&0x80 != 0
	src := [2]byte{b, c}

	var s Settings
	for _, bit := range settingTable {
		v := ""
		if bit.gate.open(velocity) {
			if src[bit.byteIdx]&bit.mask != 0 {
				v = bit.on
			} else {
				v = bit.off
			}
		}
		*bit.ref(&s) = v
	}
	return s
}

// IsVelocity 是否为风速模式
func (s Settings) IsVelocity() bool { return s.Mode == ModeVelocity }

// Fields 按固定顺序返回全部设置项
func (s Settings) Fields() []Field {
	out := make([]Field, 0, FieldCount)
	for _, bit := range settingTable {
		out = append(out, Field{Name: bit.name, Value: *bit.ref(&s)})
	}
	return out
}

// Lookup 按名称查询设置项
func (s Settings) Lookup(name string) (string, bool) {
	for _, bit := range settingTable {
		if bit.name == name {
			return *bit.ref(&s), true
		}
	}
	return "", false
}

// MarshalJSON 输出保持字段顺序的 JSON 对象
func (s Settings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(f.Name)
		v, _ := json.Marshal(f.Value)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML 输出保持字段顺序的 YAML 映射
func (s Settings) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range s.Fields() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Value},
		)
	}
	return node, nil
}

// MarshalCBOR 输出保持字段顺序的 CBOR 映射
func (s Settings) MarshalCBOR() ([]byte, error) {
	fields := s.Fields()
	// major type 5 (map)，元素数小于24时直接编码在首字节
	buf := []byte{0xA0 | byte(len(fields))}
	for _, f := range fields {
		for _, str := range [2]string{f.Name, f.Value} {
			b, err := cbor.Marshal(str)
			if err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		}
	}
	return buf, nil
}
