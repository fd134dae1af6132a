package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Attendance API",
        "description": "Attendance tracking and correction service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Attendance", "description": "Marking, correction and deletion"},
        {"name": "Sync", "description": "Offline sync reconciliation"},
        {"name": "Alerts", "description": "Attendance percentage and threshold alerts"},
        {"name": "Reports", "description": "Class and student attendance views"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance for a class on a date",
                "parameters": [
                    {"name": "classId", "in": "query", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "period", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark or correct a student's attendance",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkAttendanceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Correction window exceeded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/{id}": {
            "delete": {
                "tags": ["Attendance"],
                "summary": "Delete an attendance record inside the deletion window",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found"},
                    "409": {"description": "Deletion window exceeded"}
                }
            }
        },
        "/attendance/can-correct": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Pre-check whether a record marked at the given time is editable",
                "parameters": [
                    {"name": "markedAt", "in": "query", "required": true, "type": "string", "description": "RFC 3339 timestamp"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/bulk-present": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark a whole class present",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkMarkPresentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Empty batch or invalid payload"}
                }
            }
        },
        "/attendance/sync/pending": {
            "get": {
                "tags": ["Sync"],
                "summary": "List records awaiting offline sync",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/sync/errors": {
            "get": {
                "tags": ["Sync"],
                "summary": "List records whose sync attempt failed",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/{id}/sync": {
            "patch": {
                "tags": ["Sync"],
                "summary": "Set the sync flag on one record",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSyncRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/attendance/sync": {
            "patch": {
                "tags": ["Sync"],
                "summary": "Flag a batch of records as reconciled",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkSyncedRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/attendance/low-check": {
            "post": {
                "tags": ["Alerts"],
                "summary": "Evaluate a set of students against the low-attendance threshold",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchCheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentId}/attendance/percentage": {
            "get": {
                "tags": ["Alerts"],
                "summary": "Get a student's attendance percentage",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentId}/attendance/low-check": {
            "post": {
                "tags": ["Alerts"],
                "summary": "Evaluate a student against the low-attendance threshold",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentId}/attendance/history": {
            "get": {
                "tags": ["Reports"],
                "summary": "A student's attendance history",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentId}/attendance/summary": {
            "get": {
                "tags": ["Reports"],
                "summary": "A student's attendance counts and percentage",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{classId}/attendance/report": {
            "get": {
                "tags": ["Reports"],
                "summary": "Class attendance report with student names",
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "period", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/classes/{classId}/attendance/report/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download the class report as CSV or PDF",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "period", "in": "query", "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        }
    },
    "definitions": {
        "AttendanceRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_id": {"type": "string"},
                "class_id": {"type": "string"},
                "date": {"type": "string"},
                "period_number": {"type": "integer"},
                "status": {"type": "string", "enum": ["PRESENT", "ABSENT", "LATE", "EXCUSED"]},
                "marked_by": {"type": "string"},
                "marked_at": {"type": "string"},
                "sync_status": {"type": "string", "enum": ["PENDING", "SYNCED", "ERROR"]},
                "remarks": {"type": "string"},
                "bs_date": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "MarkAttendanceRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "class_id": {"type": "string"},
                "date": {"type": "string"},
                "period_number": {"type": "integer"},
                "status": {"type": "string", "enum": ["PRESENT", "ABSENT", "LATE", "EXCUSED"]},
                "remarks": {"type": "string"},
                "sync_status": {"type": "string"},
                "bs_date": {"type": "string"}
            },
            "required": ["student_id", "class_id", "date", "status"]
        },
        "BulkMarkPresentRequest": {
            "type": "object",
            "properties": {
                "class_id": {"type": "string"},
                "student_ids": {"type": "array", "items": {"type": "string"}},
                "date": {"type": "string"},
                "bs_date": {"type": "string"},
                "period_number": {"type": "integer"}
            },
            "required": ["class_id", "student_ids", "date"]
        },
        "UpdateSyncRequest": {
            "type": "object",
            "properties": {
                "sync_status": {"type": "string", "enum": ["PENDING", "SYNCED", "ERROR"]}
            },
            "required": ["sync_status"]
        },
        "MarkSyncedRequest": {
            "type": "object",
            "properties": {
                "ids": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["ids"]
        },
        "BatchCheckRequest": {
            "type": "object",
            "properties": {
                "student_ids": {"type": "array", "items": {"type": "string"}},
                "from": {"type": "string"},
                "to": {"type": "string"}
            },
            "required": ["student_ids"]
        },
        "LowAttendanceResult": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "attendance_percentage": {"type": "number"},
                "below_threshold": {"type": "boolean"},
                "alert_sent": {"type": "boolean"},
                "alert_details": {"$ref": "#/definitions/AlertDetails"}
            }
        },
        "AlertDetails": {
            "type": "object",
            "properties": {
                "parent_notified": {"type": "boolean"},
                "admin_notified": {"type": "boolean"}
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
                "pagination": {"type": "object"},
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
