// Package docs registers the OpenAPI document served under /swagger.
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
        "/ctrader/callback": {
            "get": {
                "produces": ["text/html"],
                "tags": ["ctrader"],
                "summary": "Broker OAuth redirect target",
                "parameters": [
                    {"type": "string", "description": "Authorization code", "name": "code", "in": "query", "required": true},
                    {"type": "string", "description": "State issued by /ctrader/connect", "name": "state", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "popup page reporting success", "schema": {"type": "string"}},
                    "400": {"description": "popup page reporting failure", "schema": {"type": "string"}}
                }
            }
        },
        "/ctrader/connect": {
            "post": {
                "security": [{"Passkey": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ctrader"],
                "summary": "Start linking a trading account to cTrader",
                "parameters": [
                    {"description": "Trading account and broker account number", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.ConnectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/usecase.AuthorizationRequest"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/ctrader/sync": {
            "post": {
                "security": [{"Passkey": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ctrader"],
                "summary": "Sync a connected trading account now",
                "parameters": [
                    {"description": "Trading account to sync", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.SyncRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SyncResult"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/ctrader/sweep": {
            "post": {
                "security": [{"Passkey": []}],
                "produces": ["application/json"],
                "tags": ["ctrader"],
                "summary": "Sweep the caller's connected accounts immediately",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SweepSummary"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/passkeys/current": {
            "delete": {
                "security": [{"Passkey": []}],
                "tags": ["auth"],
                "summary": "Disable the passkey used for this request",
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.SweepResult": {
            "type": "object",
            "properties": {
                "tradingAccountId": {"type": "string"},
                "accountNumber": {"type": "string"},
                "status": {"type": "string", "enum": ["synced", "skipped", "failed"]},
                "error": {"type": "string"},
                "errorKind": {"type": "string"},
                "result": {"$ref": "#/definitions/domain.SyncResult"}
            }
        },
        "domain.SweepSummary": {
            "type": "object",
            "properties": {
                "syncedAccounts": {"type": "integer"},
                "skipped": {"type": "integer"},
                "errors": {"type": "integer"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/domain.SweepResult"}},
                "startedAt": {"type": "string"},
                "finishedAt": {"type": "string"}
            }
        },
        "domain.SyncResult": {
            "type": "object",
            "properties": {
                "balance": {"type": "number"},
                "equity": {"type": "number"},
                "currency": {"type": "string"},
                "tradesImported": {"type": "integer"},
                "openPositions": {"type": "integer"},
                "warnings": {"type": "array", "items": {"type": "string"}}
            }
        },
        "http.ConnectRequest": {
            "type": "object",
            "properties": {
                "tradingAccountId": {"type": "string"},
                "accountNumber": {"type": "string"}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"},
                "code": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "http.SyncRequest": {
            "type": "object",
            "properties": {
                "tradingAccountId": {"type": "string"},
                "fullSync": {"type": "boolean"}
            }
        },
        "usecase.AuthorizationRequest": {
            "type": "object",
            "properties": {
                "authUrl": {"type": "string"},
                "state": {"type": "string"},
                "expiresAt": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "Passkey": {"type": "apiKey", "name": "X-Passkey", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Trading Journal cTrader Sync API",
	Description:      "Links trading accounts to cTrader and keeps balances and trades in sync.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
