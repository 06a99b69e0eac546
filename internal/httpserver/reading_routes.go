package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/anemometer/internal/protocol/anemo"
	"github.com/taoyao-code/anemometer/internal/sampler"
)

// ReadingResponse 读数接口响应
type ReadingResponse struct {
	Seq           int            `json:"seq,omitempty"`
	Time          time.Time      `json:"time"`
	Primary       float64        `json:"primary"`
	PrimaryUnit   string         `json:"primary_unit"`
	Secondary     float64        `json:"secondary"`
	SecondaryUnit string         `json:"secondary_unit"`
	Settings      anemo.Settings `json:"settings"`
	Raw           string         `json:"raw"`
}

func newReadingResponse(seq int, ts time.Time, r *anemo.Reading) ReadingResponse {
	return ReadingResponse{
		Seq:           seq,
		Time:          ts,
		Primary:       r.Primary,
		PrimaryUnit:   r.PrimaryUnit(),
		Secondary:     r.Secondary,
		SecondaryUnit: r.SecondaryUnit(),
		Settings:      r.Settings,
		Raw:           r.RawHex(),
	}
}

// ReadingSource 读数接口依赖
type ReadingSource struct {
	// Latest 最近一次后台采样
	Latest func() (sampler.Sample, bool)
	// Current 直接读取设备，可为 nil
	Current func(ctx context.Context) (*anemo.Reading, error)
	Now     func() time.Time
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}

// RegisterReadingRoutes 注册读数查询路由
//
//	GET /api/v1/reading          最近一次后台采样
//	GET /api/v1/reading/current  立即读取设备
func RegisterReadingRoutes(r *gin.Engine, src ReadingSource) {
	if src.Now == nil {
		src.Now = time.Now
	}
	h := &readingHandler{src: src}
	g := r.Group("/api/v1")
	g.GET("/reading", h.Latest)
	g.GET("/reading/current", h.Current)
}

type readingHandler struct {
	src ReadingSource
}

// Latest 最近一次后台采样
// @Summary 查询最近一次采样
// @Description 返回后台采样器最近一次成功读数，设置项按固定顺序输出
// @Tags 读数
// @Produce json
// @Success 200 {object} ReadingResponse "成功"
// @Failure 503 {object} ErrorResponse "尚无样本"
// @Router /api/v1/reading [get]
func (h *readingHandler) Latest(c *gin.Context) {
	if h.src.Latest == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "no sampler"})
		return
	}
	s, ok := h.src.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "no sample yet"})
		return
	}
	c.JSON(http.StatusOK, newReadingResponse(s.Seq, s.Time, s.Reading))
}

// Current 立即读取设备
// @Summary 读取实时值
// @Description 直接向设备发送读取命令，与后台采样串行
// @Tags 读数
// @Produce json
// @Success 200 {object} ReadingResponse "成功"
// @Failure 404 {object} ErrorResponse "未启用直接读取"
// @Failure 502 {object} ErrorResponse "设备读取失败"
// @Router /api/v1/reading/current [get]
func (h *readingHandler) Current(c *gin.Context) {
	if h.src.Current == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "direct read disabled"})
		return
	}
	rd, err := h.src.Current(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, newReadingResponse(0, h.src.Now(), rd))
}
