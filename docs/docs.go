// Package docs 风速计服务 OpenAPI 文档（swag 格式，与 handler 注释保持一致）
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/reading": {
            "get": {
                "description": "返回后台采样器最近一次成功读数，设置项按固定顺序输出",
                "produces": ["application/json"],
                "tags": ["读数"],
                "summary": "查询最近一次采样",
                "responses": {
                    "200": {
                        "description": "成功",
                        "schema": {"$ref": "#/definitions/httpserver.ReadingResponse"}
                    },
                    "503": {
                        "description": "尚无样本",
                        "schema": {"$ref": "#/definitions/httpserver.ErrorResponse"}
                    }
                }
            }
        },
        "/api/v1/reading/current": {
            "get": {
                "description": "直接向设备发送读取命令，与后台采样串行",
                "produces": ["application/json"],
                "tags": ["读数"],
                "summary": "读取实时值",
                "responses": {
                    "200": {
                        "description": "成功",
                        "schema": {"$ref": "#/definitions/httpserver.ReadingResponse"}
                    },
                    "404": {
                        "description": "未启用直接读取",
                        "schema": {"$ref": "#/definitions/httpserver.ErrorResponse"}
                    },
                    "502": {
                        "description": "设备读取失败",
                        "schema": {"$ref": "#/definitions/httpserver.ErrorResponse"}
                    }
                }
            }
        },
        "/health": {
            "get": {
                "description": "汇总采样器、设备熔断与 Redis 采样流状态；degraded 仍返回200",
                "produces": ["application/json"],
                "tags": ["健康检查"],
                "summary": "详细健康检查",
                "responses": {
                    "200": {
                        "description": "healthy 或 degraded",
                        "schema": {"type": "object", "additionalProperties": true}
                    },
                    "503": {
                        "description": "unhealthy",
                        "schema": {"type": "object", "additionalProperties": true}
                    }
                }
            }
        }
    },
    "definitions": {
        "anemo.Settings": {
            "type": "object",
            "properties": {
                "flw_vel": {"type": "string", "example": "VEL"},
                "deg": {"type": "string", "example": "C"},
                "mph": {"type": "string"},
                "knot": {"type": "string"},
                "ft/min": {"type": "string"},
                "kmh": {"type": "string"},
                "m/s": {"type": "string", "example": "m/s"},
                "max": {"type": "string"},
                "min": {"type": "string"},
                "avg": {"type": "string"},
                "2/3": {"type": "string"},
                "cmm_cfm": {"type": "string"},
                "hold": {"type": "string"}
            }
        },
        "httpserver.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "httpserver.ReadingResponse": {
            "type": "object",
            "properties": {
                "seq": {"type": "integer"},
                "time": {"type": "string"},
                "primary": {"type": "number"},
                "primary_unit": {"type": "string", "example": "m/s"},
                "secondary": {"type": "number"},
                "secondary_unit": {"type": "string", "example": "deg-C"},
                "settings": {"$ref": "#/definitions/anemo.Settings"},
                "raw": {"type": "string", "example": "a100000fff00d5ff"}
            }
        }
    }
}`

// SwaggerInfo 文档元信息，可在运行时修改
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Anemometer API",
	Description:      "USB 热线风速计采样服务：最近采样、实时读取与健康检查",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
