// Package docs holds the OpenAPI description of the operator API.
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
        "/auth/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Who the bearer token belongs to",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Identity"}}
                }
            }
        },
        "/liverooms": {
            "get": {
                "produces": ["application/json"],
                "tags": ["liverooms"],
                "summary": "List active live rooms",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.RoomSummary"}}}
                }
            }
        },
        "/liverooms/mine": {
            "get": {
                "produces": ["application/json"],
                "tags": ["liverooms"],
                "summary": "Durable records of the caller's rooms",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.LiveRoomRecord"}}},
                    "501": {"description": "Not Implemented", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/liverooms/{roomId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["liverooms"],
                "summary": "Current shared state of a room",
                "parameters": [{"type": "string", "description": "Room ID", "name": "roomId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.RoomSession"}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/liverooms/{roomId}/roster": {
            "get": {
                "produces": ["application/json"],
                "tags": ["liverooms"],
                "summary": "Participants of a room in join order",
                "parameters": [{"type": "string", "description": "Room ID", "name": "roomId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.RosterEntry"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/liverooms/{roomId}/audit": {
            "get": {
                "produces": ["application/json"],
                "tags": ["liverooms"],
                "summary": "Activity log of a room (mentor only)",
                "parameters": [
                    {"type": "string", "description": "Room ID", "name": "roomId", "in": "path", "required": true},
                    {"type": "integer", "description": "Max entries (default 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.AuditEntry"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/liverooms/{roomId}/end": {
            "post": {
                "tags": ["liverooms"],
                "summary": "End a live room (mentor only)",
                "parameters": [{"type": "string", "description": "Room ID", "name": "roomId", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "model.Identity": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "username": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "role": {"type": "string", "enum": ["mentor", "learner"]}
            }
        },
        "model.MentorIdentity": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"}
            }
        },
        "model.EditorAuthority": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["none", "mentor", "delegated"]},
                "connectionId": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "model.RosterEntry": {
            "type": "object",
            "properties": {
                "connectionId": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "model.RoomSummary": {
            "type": "object",
            "properties": {
                "roomId": {"type": "string"},
                "mentor": {"$ref": "#/definitions/model.MentorIdentity"},
                "participants": {"type": "integer"},
                "callActive": {"type": "boolean"},
                "frozen": {"type": "boolean"},
                "updatedAt": {"type": "string"}
            }
        },
        "model.AuditEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "roomId": {"type": "string"},
                "actor": {"type": "string"},
                "message": {"type": "string"},
                "at": {"type": "string"}
            }
        },
        "model.LiveRoomRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "mentor": {"$ref": "#/definitions/model.MentorIdentity"},
                "code": {"type": "string"},
                "languageUsed": {"type": "string"},
                "testCase": {"type": "string"},
                "callLink": {"type": "string"},
                "frozen": {"type": "boolean"},
                "hiddenFromAll": {"type": "boolean"},
                "selectedProblem": {"type": "string"},
                "editor": {"type": "string"},
                "learners": {"type": "array", "items": {"type": "string"}},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "model.RoomSession": {
            "type": "object",
            "properties": {
                "roomId": {"type": "string"},
                "code": {"type": "string"},
                "languageUsed": {"type": "string"},
                "testCase": {"type": "object"},
                "callLink": {"type": "string"},
                "frozen": {"type": "boolean"},
                "hiddenFromAll": {"type": "boolean"},
                "frozenFor": {"type": "object", "additionalProperties": {"type": "boolean"}},
                "hiddenFor": {"type": "object", "additionalProperties": {"type": "boolean"}},
                "selectedProblem": {"type": "object"},
                "editor": {"$ref": "#/definitions/model.EditorAuthority"},
                "mentor": {"$ref": "#/definitions/model.MentorIdentity"},
                "version": {"type": "integer"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Code Live Relay API",
	Description:      "Operator API for live collaborative coding rooms",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
