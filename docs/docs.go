// Package docs holds the hand-maintained OpenAPI document served under
// /swagger. Keep it in step with the handler annotations when routes change.
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
        "/requests": {
            "get": {
                "description": "Filters, sorts and pages requests. Unknown sortBy falls back to createdAt; \"all\" disables an enum filter. Supports weak ETag via If-None-Match and may return 304.",
                "produces": ["application/json"],
                "tags": ["Requests"],
                "summary": "List maintenance requests",
                "operationId": "listRequests",
                "parameters": [
                    {"type": "integer", "example": 1, "description": "Acting user id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"enum": ["all", "Pending", "In Progress", "On Hold", "Completed", "Cancelled"], "type": "string", "description": "Status filter", "name": "status", "in": "query"},
                    {"enum": ["all", "Low", "Medium", "High", "Critical"], "type": "string", "description": "Priority filter", "name": "priority", "in": "query"},
                    {"type": "string", "description": "Category filter", "name": "category", "in": "query"},
                    {"type": "integer", "description": "Assigned engineer id", "name": "assignedTo", "in": "query"},
                    {"type": "integer", "description": "Creator id", "name": "createdBy", "in": "query"},
                    {"type": "string", "description": "Case-insensitive match on title, description and notes", "name": "search", "in": "query"},
                    {"enum": ["createdAt", "updatedAt", "scheduledDate", "priority", "status", "title"], "type": "string", "description": "Sort key", "name": "sortBy", "in": "query"},
                    {"enum": ["asc", "desc"], "type": "string", "description": "Sort direction", "name": "sortOrder", "in": "query"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 10, "description": "Items per page", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/handlers.ListRequestsResponse"},
                        "headers": {"ETag": {"type": "string", "description": "Weak ETag for current result"}}
                    },
                    "304": {"description": "Not Modified", "schema": {"type": "string"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Creates a request in Pending status and assigns its request number. Supports idempotency via the Idempotency-Key header (same key → same request).",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Requests"],
                "summary": "Create a maintenance request",
                "operationId": "createRequest",
                "parameters": [
                    {"type": "integer", "example": 1, "description": "Acting user id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "example": "admin", "description": "Acting user role", "name": "X-User-Role", "in": "header"},
                    {"type": "string", "description": "Idempotency key for safe retries", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Request payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.CreateRequestInput"}}
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {"$ref": "#/definitions/domain.MaintenanceRequest"},
                        "headers": {"Idempotency-Replayed": {"type": "string", "description": "true when served from a previous identical request"}}
                    },
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Missing identity", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/requests/by-number/{number}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Requests"],
                "summary": "Get a maintenance request by number",
                "operationId": "getRequestByNumber",
                "parameters": [
                    {"type": "integer", "example": 1, "description": "Acting user id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "example": "MR-ACX-20240115-001", "description": "Request number", "name": "number", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.RequestDetail"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/requests/{id}": {
            "get": {
                "description": "Returns the request with its work logs (newest first) and status history (oldest first).",
                "produces": ["application/json"],
                "tags": ["Requests"],
                "summary": "Get a maintenance request",
                "operationId": "getRequest",
                "parameters": [
                    {"type": "integer", "example": 1, "description": "Acting user id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "example": 42, "description": "Request id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.RequestDetail"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "Removes the request together with its status history and work logs.",
                "tags": ["Requests"],
                "summary": "Delete a maintenance request",
                "operationId": "deleteRequest",
                "parameters": [
                    {"type": "integer", "example": 1, "description": "Acting user id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "example": 42, "description": "Request id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "patch": {
                "description": "Patches non-status fields. Status changes go through the status endpoint; the request number is immutable.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Requests"],
                "summary": "Update request fields",
                "operationId": "updateRequest",
                "parameters": [
                    {"type": "integer", "example": 1, "description": "Acting user id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "example": 42, "description": "Request id", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.RequestPatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.MaintenanceRequest"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/requests/{id}/status": {
            "post": {
                "description": "Sets the status and appends one status history row atomically. Any status may follow any other.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Requests"],
                "summary": "Change request status",
                "operationId": "transitionStatus",
                "parameters": [
                    {"type": "integer", "example": 1, "description": "Acting user id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "example": 42, "description": "Request id", "name": "id", "in": "path", "required": true},
                    {"description": "Target status", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.TransitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.MaintenanceRequest"}},
                    "400": {"description": "Invalid status", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/requests/{id}/work-logs": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Requests"],
                "summary": "Append a work log entry",
                "operationId": "addWorkLog",
                "parameters": [
                    {"type": "integer", "example": 1, "description": "Acting user id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "integer", "example": 42, "description": "Request id", "name": "id", "in": "path", "required": true},
                    {"description": "Work log", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.WorkLogInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.WorkLogEntry"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.MaintenanceRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "request_number": {"type": "string", "example": "MR-ACX-20240115-001"},
                "client_name": {"type": "string"},
                "client_email": {"type": "string"},
                "client_phone": {"type": "string"},
                "client_company": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "notes": {"type": "string"},
                "category": {"type": "string"},
                "priority": {"type": "string"},
                "status": {"type": "string"},
                "scheduled_date": {"type": "string"},
                "completed_date": {"type": "string"},
                "assigned_engineer_id": {"type": "integer"},
                "assigned_engineer_name": {"type": "string"},
                "created_by_id": {"type": "integer"},
                "created_by_name": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.StatusHistoryEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "request_id": {"type": "integer"},
                "old_status": {"type": "string"},
                "new_status": {"type": "string"},
                "changed_by_id": {"type": "integer"},
                "changed_by_name": {"type": "string"},
                "change_reason": {"type": "string"},
                "changed_at": {"type": "string"}
            }
        },
        "domain.WorkLogEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "request_id": {"type": "integer"},
                "description": {"type": "string"},
                "hours_spent": {"type": "number"},
                "engineer_id": {"type": "integer"},
                "engineer_name": {"type": "string"},
                "logged_at": {"type": "string"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "not_found"},
                "message": {"type": "string", "example": "request not found"},
                "request_id": {"type": "string"}
            }
        },
        "handlers.ListRequestsResponse": {
            "type": "object",
            "properties": {
                "requests": {"type": "array", "items": {"$ref": "#/definitions/domain.MaintenanceRequest"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"},
                "sort": {"$ref": "#/definitions/handlers.Sort"}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "handlers.Sort": {
            "type": "object",
            "properties": {
                "by": {"type": "string"},
                "order": {"type": "string"}
            }
        },
        "handlers.TransitionRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "In Progress"},
                "reason": {"type": "string"},
                "completed_date": {"type": "string"}
            }
        },
        "services.CreateRequestInput": {
            "type": "object",
            "required": ["client_name", "client_email", "title", "description", "priority"],
            "properties": {
                "client_name": {"type": "string", "maxLength": 255},
                "client_email": {"type": "string", "maxLength": 255},
                "client_phone": {"type": "string", "maxLength": 64},
                "client_company": {"type": "string", "maxLength": 255},
                "title": {"type": "string", "maxLength": 255},
                "description": {"type": "string", "maxLength": 10000},
                "notes": {"type": "string", "maxLength": 10000},
                "priority": {"type": "string"},
                "category": {"type": "string"},
                "assigned_engineer_id": {"type": "integer"},
                "scheduled_date": {"type": "string"}
            }
        },
        "services.RequestDetail": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "request_number": {"type": "string"},
                "status": {"type": "string"},
                "work_logs": {"type": "array", "items": {"$ref": "#/definitions/domain.WorkLogEntry"}},
                "status_history": {"type": "array", "items": {"$ref": "#/definitions/domain.StatusHistoryEntry"}}
            }
        },
        "services.RequestPatch": {
            "type": "object",
            "properties": {
                "title": {"type": "string", "maxLength": 255},
                "description": {"type": "string", "maxLength": 10000},
                "notes": {"type": "string", "maxLength": 10000},
                "category": {"type": "string"},
                "priority": {"type": "string"},
                "assigned_engineer_id": {"type": "integer"},
                "scheduled_date": {"type": "string"}
            }
        },
        "services.WorkLogInput": {
            "type": "object",
            "required": ["description"],
            "properties": {
                "description": {"type": "string", "maxLength": 5000},
                "hours_spent": {"type": "number"},
                "engineer_id": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "TechOps Maintenance Requests API",
	Description:      "Lifecycle of client maintenance requests: numbering, status history and work logs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
