// Package docs registers the OpenAPI description served under /swagger.
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
        "/sale": {
            "get": {
                "summary": "Sale parameters and progress",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SaleInfo"}}
                }
            }
        },
        "/tickets/last-id": {
            "get": {
                "summary": "Highest ticket id minted so far",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.LastTokenIDResponse"}}
                }
            }
        },
        "/tickets/mint": {
            "post": {
                "summary": "Mint the next ticket (idempotent)",
                "parameters": [
                    {"type": "string", "description": "caller", "name": "X-Account-Address", "in": "header", "required": true},
                    {"type": "string", "description": "replay key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "buyer defaults to the caller", "name": "req", "in": "body", "schema": {"$ref": "#/definitions/httpgin.MintRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/httpgin.MintResponse"}},
                    "402": {"description": "insufficient funds", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "403": {"description": "buyer is not the caller", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "sold out / idem in progress", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "429": {"description": "rate limited", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/tickets/{id}/owner": {
            "get": {
                "summary": "Ticket owner",
                "parameters": [
                    {"type": "integer", "description": "Ticket ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "owner is null for unminted ids", "schema": {"$ref": "#/definitions/httpgin.OwnerResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/tickets/{id}/uri": {
            "get": {
                "summary": "Ticket metadata URI",
                "parameters": [
                    {"type": "integer", "description": "Ticket ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "uri is always null", "schema": {"$ref": "#/definitions/httpgin.TokenURIResponse"}}
                }
            }
        },
        "/tickets/{id}/events": {
            "get": {
                "summary": "Ticket event history",
                "parameters": [
                    {"type": "integer", "description": "Ticket ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Event"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/tickets/{id}/transfer": {
            "post": {
                "summary": "Transfer a ticket",
                "parameters": [
                    {"type": "string", "description": "caller, must own the ticket", "name": "X-Account-Address", "in": "header", "required": true},
                    {"type": "integer", "description": "Ticket ID", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.TransferRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.TransferResponse"}},
                    "403": {"description": "not the owner", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/fund": {
            "post": {
                "summary": "Deposit one slot into the issuer account (idempotent)",
                "parameters": [
                    {"type": "string", "description": "caller", "name": "X-Account-Address", "in": "header", "required": true},
                    {"type": "string", "description": "replay key", "name": "Idempotency-Key", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.FundResponse"}},
                    "402": {"description": "insufficient funds", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/accounts/{address}/balance": {
            "get": {
                "summary": "Account balance",
                "parameters": [
                    {"type": "string", "description": "Account address", "name": "address", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.BalanceResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Event": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "kind": {"type": "string", "enum": ["funds_transfer", "ticket_mint", "ticket_transfer"]},
                "token_id": {"type": "integer"},
                "from": {"type": "string"},
                "to": {"type": "string"},
                "amount": {"type": "integer"},
                "created_at": {"type": "string"}
            }
        },
        "domain.SaleInfo": {
            "type": "object",
            "properties": {
                "base_price": {"type": "integer"},
                "fee": {"type": "integer"},
                "ticket_cap": {"type": "integer"},
                "slot_size": {"type": "integer"},
                "slot_count": {"type": "integer"},
                "issuer": {"type": "string"},
                "fee_beneficiary": {"type": "string"},
                "last_token_id": {"type": "integer"},
                "remaining": {"type": "integer"}
            }
        },
        "httpgin.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "httpgin.MintRequest": {
            "type": "object",
            "properties": {"buyer": {"type": "string"}}
        },
        "httpgin.MintResponse": {
            "type": "object",
            "properties": {
                "token_id": {"type": "integer"},
                "events": {"type": "array", "items": {"$ref": "#/definitions/domain.Event"}}
            }
        },
        "httpgin.TransferRequest": {
            "type": "object",
            "required": ["recipient", "sender"],
            "properties": {
                "sender": {"type": "string"},
                "recipient": {"type": "string"}
            }
        },
        "httpgin.TransferResponse": {
            "type": "object",
            "properties": {
                "events": {"type": "array", "items": {"$ref": "#/definitions/domain.Event"}}
            }
        },
        "httpgin.FundResponse": {
            "type": "object",
            "properties": {
                "amount": {"type": "integer"},
                "events": {"type": "array", "items": {"$ref": "#/definitions/domain.Event"}}
            }
        },
        "httpgin.LastTokenIDResponse": {
            "type": "object",
            "properties": {"last_token_id": {"type": "integer"}}
        },
        "httpgin.OwnerResponse": {
            "type": "object",
            "properties": {
                "token_id": {"type": "integer"},
                "owner": {"type": "string"}
            }
        },
        "httpgin.TokenURIResponse": {
            "type": "object",
            "properties": {
                "token_id": {"type": "integer"},
                "uri": {"type": "string"}
            }
        },
        "httpgin.BalanceResponse": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "balance": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "TixMint API",
	Description:      "Fixed-cap ticket sale: mint, transfer and fund over a balance ledger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
