package httpserver

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/taoyao-code/anemometer/docs"
)

// RegisterSwaggerRoutes 注册 Swagger UI 与文档
// GET /swagger/index.html, /swagger/doc.json
func RegisterSwaggerRoutes(r *gin.Engine) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
