package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Feedback Desk API",
        "description": "Collects user feedback and lets administrators review, resolve and export it",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Demo login and identity"},
        {"name": "Feedback", "description": "Submission, review and export of feedback"},
        {"name": "Profile", "description": "Identity profile of the caller"},
        {"name": "Activity", "description": "Activity trail (admin)"},
        {"name": "Ops", "description": "Probes and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Ops"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "tags": ["Ops"],
                "summary": "Readiness check against the slot backend",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Slot backend unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Ops"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {"200": {"description": "Exposition format"}}
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in with a demo account",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Claims of the current token",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/profile": {
            "get": {
                "tags": ["Profile"],
                "summary": "Resolve the caller's display identity",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Profile"],
                "summary": "Update the caller's display identity",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/Profile"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/feedback/form": {
            "get": {
                "tags": ["Feedback"],
                "summary": "Form defaults and limits",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/feedback": {
            "post": {
                "tags": ["Feedback"],
                "summary": "Submit feedback",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/FeedbackSubmission"}}
                ],
                "responses": {
                    "201": {"description": "Stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Feedback"],
                "summary": "List feedback with filters, sorting and statistics",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "category", "type": "string"},
                    {"in": "query", "name": "status", "type": "string"},
                    {"in": "query", "name": "rating", "type": "string"},
                    {"in": "query", "name": "search", "type": "string"},
                    {"in": "query", "name": "sort", "type": "string", "enum": ["createdAt", "updatedAt", "userName", "userEmail", "rating", "subject", "category", "status"]},
                    {"in": "query", "name": "order", "type": "string", "enum": ["asc", "desc"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admin only", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/feedback/statistics": {
            "get": {
                "tags": ["Feedback"],
                "summary": "Statistics over the whole collection",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/feedback/{id}": {
            "get": {
                "tags": ["Feedback"],
                "summary": "Get one feedback record",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/feedback/{id}/status": {
            "patch": {
                "tags": ["Feedback"],
                "summary": "Advance the review status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "required": true, "type": "string"},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/StatusUpdate"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Transition not allowed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/feedback/export": {
            "get": {
                "tags": ["Feedback"],
                "summary": "Download the filtered view",
                "security": [{"BearerAuth": []}],
                "produces": ["application/json", "text/csv", "application/pdf"],
                "parameters": [{"in": "query", "name": "format", "type": "string", "enum": ["json", "csv", "pdf"]}],
                "responses": {"200": {"description": "Attachment"}}
            }
        },
        "/api/v1/feedback/exports": {
            "post": {
                "tags": ["Feedback"],
                "summary": "Store an export and return a signed download link",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "query", "name": "format", "type": "string", "enum": ["json", "csv", "pdf"]}],
                "responses": {"201": {"description": "Link issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/api/v1/exports/{token}": {
            "get": {
                "tags": ["Feedback"],
                "summary": "Download a stored export",
                "parameters": [{"in": "path", "name": "token", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Attachment"},
                    "404": {"description": "Unknown token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "410": {"description": "Link expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/activity": {
            "get": {
                "tags": ["Activity"],
                "summary": "List activity, newest first",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "action", "type": "string"},
                    {"in": "query", "name": "search", "type": "string"},
                    {"in": "query", "name": "limit", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Activity"],
                "summary": "Clear the activity trail",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "Cleared"}}
            }
        },
        "/api/v1/activity/{id}": {
            "delete": {
                "tags": ["Activity"],
                "summary": "Delete one activity entry",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/metrics/summary": {
            "get": {
                "tags": ["Ops"],
                "summary": "Aggregated service counters",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "Profile": {
            "type": "object",
            "required": ["name", "email"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "FeedbackSubmission": {
            "type": "object",
            "required": ["subject", "message", "rating"],
            "properties": {
                "category": {"type": "string", "enum": ["bug", "feature", "general", "ui", "performance"]},
                "subject": {"type": "string", "minLength": 5, "maxLength": 100},
                "message": {"type": "string", "minLength": 10, "maxLength": 1000},
                "rating": {"type": "integer", "minimum": 1, "maximum": 5}
            }
        },
        "StatusUpdate": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["pending", "reviewed", "resolved"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
