package anemo

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrBadLength 响应帧长度不是 8 字节
var ErrBadLength = errors.New("bad frame length")

// Reading 一帧响应解码结果
type Reading struct {
	Primary   float64        `json:"primary" yaml:"primary"`     // 风速或风量
	Secondary float64        `json:"secondary" yaml:"secondary"` // 温度
	Settings  Settings       `json:"settings" yaml:"settings"`
	Raw       [FrameLen]byte `json:"-" yaml:"-"`
}

// DecodeFrame 解码 8 字节响应帧
// 格式：settings(2) + primary(3) + secondary(3)
func DecodeFrame(frame []byte) (*Reading, error) {
	if len(frame) != FrameLen {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrBadLength, len(frame), FrameLen)
	}
	r := &Reading{
		Primary:   value24At(frame, 2),
		Secondary: value24At(frame, 5),
		Settings:  DecodeSettings(frame[0], frame[1]),
	}
	copy(r.Raw[:], frame)
	return r, nil
}

// PrimaryUnit 主测量值单位
func (r *Reading) PrimaryUnit() string { return PrimaryUnit(r.Settings) }

// SecondaryUnit 温度单位
func (r *Reading) SecondaryUnit() string { return SecondaryUnit(r.Settings) }

// RawHex 原始帧十六进制
func (r *Reading) RawHex() string { return hex.EncodeToString(r.Raw[:]) }
