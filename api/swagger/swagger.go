package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "DORA Orientations API",
        "description": "Orientation lifecycle, contact relay and notifications for the DORA service directory.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Orientations", "description": "Orientation requests and their processing"},
        {"name": "Health", "description": "Probes"}
    ],
    "paths": {
        "/orientations": {
            "post": {
                "tags": ["Orientations"],
                "summary": "Submit an orientation",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateOrientationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthenticated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/orientations/{query_id}": {
            "get": {
                "tags": ["Orientations"],
                "summary": "Get an orientation",
                "parameters": [
                    {"name": "query_id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown capability id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/orientations/{query_id}/validate": {
            "post": {
                "tags": ["Orientations"],
                "summary": "Accept an orientation",
                "parameters": [
                    {"name": "query_id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ValidateOrientationRequest"}}
                ],
                "responses": {
                    "204": {"description": "Accepted"},
                    "404": {"description": "Unknown capability id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already processed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/orientations/{query_id}/reject": {
            "post": {
                "tags": ["Orientations"],
                "summary": "Reject an orientation",
                "parameters": [
                    {"name": "query_id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/RejectOrientationRequest"}}
                ],
                "responses": {
                    "204": {"description": "Rejected"},
                    "404": {"description": "Unknown capability id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already processed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/orientations/{query_id}/contact/beneficiary": {
            "post": {
                "tags": ["Orientations"],
                "summary": "Send a message to the beneficiary",
                "parameters": [
                    {"name": "query_id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ContactBeneficiaryRequest"}}
                ],
                "responses": {
                    "204": {"description": "Sent"},
                    "400": {"description": "Missing message or beneficiary email", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown capability id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/orientations/{query_id}/contact/prescriber": {
            "post": {
                "tags": ["Orientations"],
                "summary": "Send a message to the prescriber",
                "parameters": [
                    {"name": "query_id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ContactPrescriberRequest"}}
                ],
                "responses": {
                    "204": {"description": "Sent"},
                    "400": {"description": "Missing message", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown capability id", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/orientations-rejection-reasons": {
            "get": {
                "tags": ["Orientations"],
                "summary": "List rejection reasons",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateOrientationRequest": {
            "type": "object",
            "properties": {
                "prescriberStructure": {"type": "string"},
                "structure": {"type": "string"},
                "service": {"type": "string"},
                "beneficiaryFirstName": {"type": "string"},
                "beneficiaryLastName": {"type": "string"},
                "beneficiaryEmail": {"type": "string"},
                "beneficiaryPhone": {"type": "string"},
                "referentFirstName": {"type": "string"},
                "referentLastName": {"type": "string"},
                "referentEmail": {"type": "string"},
                "referentPhone": {"type": "string"},
                "situation": {"type": "string"},
                "requirements": {"type": "string"},
                "orientationReasons": {"type": "string"}
            },
            "required": ["structure", "beneficiaryFirstName", "beneficiaryLastName"]
        },
        "ValidateOrientationRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "beneficiary_message": {"type": "string"}
            }
        },
        "RejectOrientationRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "reasons": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ContactBeneficiaryRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "cc_prescriber": {"type": "boolean"},
                "cc_referent": {"type": "boolean"}
            },
            "required": ["message"]
        },
        "ContactPrescriberRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "cc_beneficiary": {"type": "boolean"},
                "cc_referent": {"type": "boolean"}
            },
            "required": ["message"]
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
