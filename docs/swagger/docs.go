// Package swagger registers the OpenAPI document for the admin API.
// Keep it in step with the route annotations in feature/scheduler/handler.go.
package swagger

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
        "/characters/{id}/reset": {
            "post": {
                "description": "Clears the consecutive update failure counter so the character is selected again.",
                "tags": ["characters"],
                "summary": "Reset character failures",
                "parameters": [
                    {"type": "integer", "description": "Character ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Invalid ID", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/guilds": {
            "post": {
                "description": "Starts tracking a guild and queues its first sync.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["guilds"],
                "summary": "Register guild",
                "parameters": [
                    {"description": "Guild identity", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/scheduler.registerRequest"}}
                ],
                "responses": {
                    "200": {"description": "Already tracked", "schema": {"type": "object", "additionalProperties": true}},
                    "201": {"description": "Registered", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/guilds/{id}/include": {
            "post": {
                "description": "Clears the exclusion flag of a guild and queues a sync.",
                "tags": ["guilds"],
                "summary": "Include guild",
                "parameters": [
                    {"type": "integer", "description": "Guild ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Invalid ID", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/guilds/{id}/ranks/{rank}": {
            "put": {
                "description": "Sets a custom display name for a guild rank.",
                "consumes": ["application/json"],
                "tags": ["guilds"],
                "summary": "Rename rank",
                "parameters": [
                    {"type": "integer", "description": "Guild ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Rank ID", "name": "rank", "in": "path", "required": true},
                    {"description": "New name", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/scheduler.renameRankRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/sync/abort": {
            "post": {
                "description": "Asks the running cycle to stop after the item in progress.",
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Abort sync cycle",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}}
                }
            }
        },
        "/sync/run": {
            "post": {
                "description": "Starts a sync cycle in the background.",
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Run sync cycle",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Already running", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/sync/status": {
            "get": {
                "description": "Returns the orchestrator state and the report of the last finished cycle.",
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Sync status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/scheduler.statusResponse"}}
                }
            }
        }
    },
    "definitions": {
        "scheduler.Report": {
            "type": "object",
            "properties": {
                "aborted": {"type": "boolean"},
                "characters": {"$ref": "#/definitions/scheduler.StageReport"},
                "finished_at": {"type": "string"},
                "guilds": {"$ref": "#/definitions/scheduler.StageReport"},
                "started_at": {"type": "string"},
                "tasks": {"$ref": "#/definitions/scheduler.StageReport"}
            }
        },
        "scheduler.StageReport": {
            "type": "object",
            "properties": {
                "disabled": {"type": "integer"},
                "failed": {"type": "integer"},
                "selected": {"type": "integer"},
                "skipped": {"type": "integer"},
                "succeeded": {"type": "integer"}
            }
        },
        "scheduler.registerRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "realm": {"type": "string"},
                "region": {"type": "string"}
            }
        },
        "scheduler.renameRankRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"}
            }
        },
        "scheduler.statusResponse": {
            "type": "object",
            "properties": {
                "last_report": {"$ref": "#/definitions/scheduler.Report"},
                "state": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Roster Sync API",
	Description:      "Admin API for the guild roster sync engine.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
