package output

import (
	"fmt"
	"time"

	"github.com/taoyao-code/anemometer/internal/protocol/anemo"
)

// TimeLayout 实时采样时间戳格式
const TimeLayout = "2006/01/02 15:04:05"

// RecordRow 存储记录 CSV 行：index,primary,"unit",secondary,"unit"
func RecordRow(n int, r *anemo.Reading) string {
	return fmt.Sprintf(`%3d,%s,"%s",%s,"%s"`,
		n, anemo.FormatValue(r.Primary), r.PrimaryUnit(), anemo.FormatValue(r.Secondary), r.SecondaryUnit())
}

// LiveRow 实时采样 CSV 行："timestamp",primary,"unit",secondary,"unit"
func LiveRow(ts time.Time, r *anemo.Reading) string {
	return fmt.Sprintf(`"%s",%s,"%s",%s,"%s"`,
		ts.Format(TimeLayout), anemo.FormatValue(r.Primary), r.PrimaryUnit(), anemo.FormatValue(r.Secondary), r.SecondaryUnit())
}

// RecordLine 存储记录控制台行
func RecordLine(n int, r *anemo.Reading) string {
	return fmt.Sprintf("%3d: %s [%s] %s [%s]",
		n, anemo.FormatValue(r.Primary), r.PrimaryUnit(), anemo.FormatValue(r.Secondary), r.SecondaryUnit())
}

// LiveLine 实时采样控制台行
func LiveLine(ts time.Time, r *anemo.Reading) string {
	return fmt.Sprintf("%s %s %s %s %s",
		ts.Format(TimeLayout), anemo.FormatValue(r.Primary), r.PrimaryUnit(), anemo.FormatValue(r.Secondary), r.SecondaryUnit())
}

// ProbeLine 单次读取控制台行，附带设置项
func ProbeLine(r *anemo.Reading) string {
	return fmt.Sprintf("%s [%s] %s [%s] (%s)",
		anemo.FormatValue(r.Primary), r.PrimaryUnit(), anemo.FormatValue(r.Secondary), r.SecondaryUnit(), anemo.Render(r.Settings, 1))
}

// ProbeRecordLine 单次读取模式下的存储记录行，附带设置项
func ProbeRecordLine(n int, r *anemo.Reading) string {
	return fmt.Sprintf("%3d: %s", n, ProbeLine(r))
}
