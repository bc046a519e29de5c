// Package docs REST API 문서(swagger)
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "DarkKaiser"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/commands": {
            "post": {
                "description": "채팅 명령(一覧/追加/削除/通知/ヘルプ)을 실행하고 응답 텍스트를 반환한다.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["command"],
                "summary": "채팅 명령 실행",
                "parameters": [
                    {
                        "description": "명령",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": { "$ref": "#/definitions/handler.CommandRequest" }
                    }
                ],
                "responses": {
                    "200": { "description": "OK", "schema": { "$ref": "#/definitions/handler.Response" } },
                    "400": { "description": "Bad Request" },
                    "429": { "description": "Too Many Requests" }
                }
            }
        },
        "/api/v1/notify": {
            "post": {
                "description": "알림 작업을 비동기로 실행한다.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["notify"],
                "summary": "수동 알림 실행",
                "parameters": [
                    {
                        "description": "요청자",
                        "name": "request",
                        "in": "body",
                        "schema": { "$ref": "#/definitions/handler.NotifyRequest" }
                    }
                ],
                "responses": {
                    "202": { "description": "Accepted", "schema": { "$ref": "#/definitions/handler.Response" } },
                    "409": { "description": "Conflict", "schema": { "$ref": "#/definitions/handler.Response" } }
                }
            }
        },
        "/history/feed.xml": {
            "get": {
                "description": "최근에 알림이 발송된 기사를 RSS 2.0 피드로 반환한다.",
                "produces": ["application/rss+xml"],
                "tags": ["history"],
                "summary": "알림 이력 RSS 피드",
                "responses": {
                    "200": { "description": "OK" },
                    "500": { "description": "Internal Server Error" }
                }
            }
        }
    },
    "definitions": {
        "handler.CommandRequest": {
            "type": "object",
            "required": ["commandText"],
            "properties": {
                "commandText": { "type": "string", "example": "一覧" },
                "callerId": { "type": "string", "example": "U1234567890" }
            }
        },
        "handler.NotifyRequest": {
            "type": "object",
            "properties": {
                "callerId": { "type": "string", "example": "U1234567890" }
            }
        },
        "handler.Response": {
            "type": "object",
            "properties": {
                "response": { "type": "string" }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "RSS Feed Notifier",
	Description:      "RSS/Atom 피드의 새 기사를 LINE으로 알리는 서비스의 REST API",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
