package anemo

import (
	"fmt"
	"strings"
)

// PrimaryUnit 主测量值单位
// VEL 模式下拼接所有置位的风速单位（设备正常只置一位，不做互斥校验）；FLOW 模式取 cmm_cfm。
func PrimaryUnit(s Settings) string {
	if s.IsVelocity() {
		return s.MPH + s.Knot + s.FtMin + s.KmH + s.MS
	}
	return s.CmmCfm
}

// SecondaryUnit 温度单位，如 "deg-C"
func SecondaryUnit(s Settings) string {
	return "deg-" + s.Deg
}

// Render 按固定顺序将各设置项右对齐到 minWidth 后以逗号拼接
func Render(s Settings, minWidth int) string {
	fields := s.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = fmt.Sprintf("%*s", minWidth, f.Value)
	}
	return strings.Join(out, ",")
}

// FormatValue 测量值定宽输出（6位有效数字，宽度6，与历史日志文件一致）
func FormatValue(v float64) string {
	return fmt.Sprintf("%6.6g", v)
}
