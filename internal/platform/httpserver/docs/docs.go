// Package docs registers the OpenAPI document served under /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/jobs": {
            "get": {
                "tags": ["jobs"],
                "summary": "List jobs for the caller",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "user_id", "in": "query"},
                    {"type": "string", "name": "contract_id", "in": "query"},
                    {"type": "string", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["jobs"],
                "summary": "Start a job on an open contract",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StartJobRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "404": {"description": "Contract not found or closed"}, "409": {"description": "Job already exists"}}
            }
        },
        "/v1/jobs/{job_id}": {
            "get": {
                "tags": ["jobs"],
                "summary": "Get a job",
                "parameters": [{"type": "string", "name": "job_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/v1/jobs/{job_id}/stages/{stage_number}/submit": {
            "post": {
                "tags": ["jobs"],
                "summary": "Submit work for the current stage",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "job_id", "in": "path", "required": true},
                    {"type": "integer", "name": "stage_number", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitStageRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Empty submission"}, "409": {"description": "Wrong stage or state"}}
            }
        },
        "/v1/jobs/{job_id}/approve": {
            "post": {
                "tags": ["review"],
                "summary": "Approve the stage pending review and settle its reward",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "X-User-Role", "in": "header", "required": true},
                    {"type": "string", "name": "job_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Not awaiting review or concurrent update"}, "503": {"description": "Store unavailable"}}
            }
        },
        "/v1/jobs/{job_id}/reject": {
            "post": {
                "tags": ["review"],
                "summary": "Return the pending stage with feedback",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "X-User-Role", "in": "header", "required": true},
                    {"type": "string", "name": "job_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/jobs/{job_id}/settlements": {
            "get": {
                "tags": ["review"],
                "summary": "List reward settlements of a job",
                "parameters": [{"type": "string", "name": "job_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/profiles/{user_id}": {
            "get": {
                "tags": ["profiles"],
                "summary": "Get a user profile",
                "parameters": [{"type": "string", "name": "user_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["profiles"],
                "summary": "Create or update a user profile",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "user_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/events/active": {
            "get": {
                "tags": ["events"],
                "summary": "List events currently active for a class and submission type",
                "parameters": [
                    {"type": "string", "name": "class_id", "in": "query"},
                    {"type": "string", "name": "org_id", "in": "query"},
                    {"type": "string", "name": "submission_type", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/leaderboard": {
            "get": {
                "tags": ["leaderboard"],
                "summary": "Overall XP leaderboard visible to the caller",
                "parameters": [{"type": "string", "name": "X-User-Id", "in": "header", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/leaderboard/contracts": {
            "get": {
                "tags": ["leaderboard"],
                "summary": "Contract titles with ranked participants",
                "parameters": [{"type": "string", "name": "X-User-Id", "in": "header", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/leaderboard/contracts/{title}": {
            "get": {
                "tags": ["leaderboard"],
                "summary": "Progress leaderboard for one contract title",
                "parameters": [
                    {"type": "string", "name": "X-User-Id", "in": "header", "required": true},
                    {"type": "string", "name": "title", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "StartJobRequest": {
            "type": "object",
            "required": ["contract_id"],
            "properties": {"contract_id": {"type": "string"}}
        },
        "SubmitStageRequest": {
            "type": "object",
            "required": ["content"],
            "properties": {"content": {"type": "string"}}
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "contracthub API",
	Description:      "Staged contracts, reward events and leaderboards.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
