package anemo

import "math"

// DecodeValue24 解码设备自定义的 24 位十进制浮点数
// 格式：b0 为尾数高字节，b1 为尾数低字节（16位无符号），b2 为有符号十进制指数。
// 结果 = (256*b0 + b1) * 10^exp，b2 > 127 时按补码扩展为 b2-256。
func DecodeValue24(b [3]byte) float64 {
	mantissa := int(b[0])*256 + int(b[1])
	exp := int(b[2])
	if exp > 127 {
		exp -= 256
	}
	return float64(mantissa) * math.Pow10(exp)
}

// value24At 从帧偏移处取三字节解码
func value24At(frame []byte, off int) float64 {
	var t [3]byte
	copy(t[:], frame[off:off+3])
	return DecodeValue24(t)
}
