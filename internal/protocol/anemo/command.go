package anemo

import "encoding/hex"

// FrameLen 上下行帧固定长度
const FrameLen = 8

// Command 下行命令帧（8字节定长）
type Command [FrameLen]byte

var (
	// ReadCurrent 读取一次实时测量值
	ReadCurrent = Command{0xB3, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	// ReadRecordsStart 进入记录回传模式：之后每次读取返回一条存储记录，直到读超时
	ReadRecordsStart = Command{0xC4, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
)

// Bytes 返回命令字节副本
func (c Command) Bytes() []byte {
	b := make([]byte, FrameLen)
	copy(b, c[:])
	return b
}

// Code 命令码（首字节）
func (c Command) Code() byte { return c[0] }

func (c Command) String() string {
	switch c {
	case ReadCurrent:
		return "read_current"
	case ReadRecordsStart:
		return "read_records"
	default:
		return "cmd_" + hex.EncodeToString(c[:1])
	}
}
