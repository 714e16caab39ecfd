// Package docs holds the OpenAPI description of the HTTP API served under /swagger.
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
		"/mnemonics": {
			"post": {
				"security": [
					{
						"ApiKeyAuth": []
					}
				],
				"description": "Runs mnemonic, visual prompt, image, bounding box and quiz generation",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"mnemonics"
				],
				"summary": "Generate a mnemonic",
				"parameters": [
					{
						"description": "Topic and options",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.CreateMnemonicRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "Generated without saving",
						"schema": {
							"$ref": "#/definitions/dto.GenerationResponse"
						}
					},
					"201": {
						"description": "Generated and saved",
						"schema": {
							"$ref": "#/definitions/dto.GenerationResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/middleware.ValidationErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/middleware.ErrorResponse"
						}
					},
					"502": {
						"description": "Bad Gateway",
						"schema": {
							"$ref": "#/definitions/middleware.ErrorResponse"
						}
					}
				}
			}
		},
		"/generations": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"generations"
				],
				"summary": "List saved generations",
				"parameters": [
					{
						"type": "string",
						"description": "Specialty filter",
						"name": "specialty",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/dto.GenerationListResponse"
						}
					}
				}
			}
		},
		"/generations/{specialty}/{name}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"generations"
				],
				"summary": "Load a saved generation",
				"parameters": [
					{
						"type": "string",
						"description": "Specialty folder",
						"name": "specialty",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Generation folder",
						"name": "name",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/dto.GenerationResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/middleware.ValidationErrorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/middleware.ErrorResponse"
						}
					}
				}
			}
		},
		"/generations/{specialty}/{name}/image": {
			"get": {
				"produces": [
					"image/png"
				],
				"tags": [
					"generations"
				],
				"summary": "Download the image of a saved generation",
				"parameters": [
					{
						"type": "string",
						"description": "Specialty folder",
						"name": "specialty",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "Generation folder",
						"name": "name",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "file"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/middleware.ErrorResponse"
						}
					}
				}
			}
		},
		"/batch/stage": {
			"post": {
				"security": [
					{
						"ApiKeyAuth": []
					}
				],
				"description": "Breaks a topic down (unless inputs are given) and runs the text stages for each item",
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"batch"
				],
				"summary": "Stage batch records",
				"parameters": [
					{
						"description": "Topic or inputs",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dto.StageRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/dto.StageResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/middleware.ValidationErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/middleware.ErrorResponse"
						}
					},
					"502": {
						"description": "Bad Gateway",
						"schema": {
							"$ref": "#/definitions/middleware.ErrorResponse"
						}
					}
				}
			}
		},
		"/batch/submit": {
			"post": {
				"security": [
					{
						"ApiKeyAuth": []
					}
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"batch"
				],
				"summary": "Submit the staged records as one batch image job",
				"responses": {
					"202": {
						"description": "Accepted",
						"schema": {
							"$ref": "#/definitions/dto.BatchJobResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/middleware.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/middleware.ErrorResponse"
						}
					},
					"500": {
						"description": "Internal Server Error",
						"schema": {
							"$ref": "#/definitions/middleware.ErrorResponse"
						}
					}
				}
			}
		},
		"/batch/status": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"batch"
				],
				"summary": "Poll a batch job",
				"parameters": [
					{
						"type": "string",
						"description": "Job name; defaults to the last submitted job",
						"name": "job",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.BatchJobSnapshot"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/middleware.ErrorResponse"
						}
					}
				}
			}
		},
		"/batch/retrieve": {
			"post": {
				"security": [
					{
						"ApiKeyAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"batch"
				],
				"summary": "Retrieve and save the results of a batch job",
				"parameters": [
					{
						"description": "Job name and mode",
						"name": "request",
						"in": "body",
						"schema": {
							"$ref": "#/definitions/dto.RetrieveRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/domain.RetrieveReport"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/middleware.ErrorResponse"
						}
					},
					"409": {
						"description": "Job failed or already retrieved",
						"schema": {
							"$ref": "#/definitions/middleware.ErrorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"domain.Association": {
			"type": "object",
			"properties": {
				"character": {
					"type": "string"
				},
				"explanation": {
					"type": "string"
				},
				"medicalTerm": {
					"type": "string"
				}
			}
		},
		"domain.BatchInput": {
			"type": "object",
			"properties": {
				"title": {
					"type": "string"
				},
				"topic": {
					"type": "string"
				}
			}
		},
		"domain.BatchJobSnapshot": {
			"type": "object",
			"properties": {
				"display_name": {
					"type": "string"
				},
				"failure_reason": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"provider_state": {
					"type": "string"
				},
				"request_count": {
					"type": "integer"
				},
				"status": {
					"$ref": "#/definitions/domain.JobStatus"
				}
			}
		},
		"domain.BboxSet": {
			"type": "object",
			"properties": {
				"boxes": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.CharBox"
					}
				}
			}
		},
		"domain.CharBox": {
			"type": "object",
			"properties": {
				"box_2d": {
					"type": "array",
					"items": {
						"type": "integer"
					}
				},
				"character": {
					"type": "string"
				}
			}
		},
		"domain.GenerationMetadata": {
			"type": "object",
			"properties": {
				"batch_job": {
					"type": "string"
				},
				"parent_id": {
					"type": "string"
				},
				"specialty": {
					"type": "string"
				},
				"timestamp": {
					"type": "string"
				},
				"topic": {
					"type": "string"
				},
				"topic_id": {
					"type": "string"
				}
			}
		},
		"domain.GenerationSummary": {
			"type": "object",
			"properties": {
				"batch_job": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				},
				"id": {
					"type": "string"
				},
				"path": {
					"type": "string"
				},
				"specialty": {
					"type": "string"
				},
				"topic": {
					"type": "string"
				}
			}
		},
		"domain.JobStatus": {
			"type": "string",
			"enum": [
				"pending",
				"running",
				"succeeded",
				"failed"
			],
			"x-enum-varnames": [
				"JobPending",
				"JobRunning",
				"JobSucceeded",
				"JobFailed"
			]
		},
		"domain.MnemonicRecord": {
			"type": "object",
			"properties": {
				"associations": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.Association"
					}
				},
				"facts": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"id": {
					"type": "string"
				},
				"story": {
					"type": "string"
				},
				"topic": {
					"type": "string"
				},
				"visualPrompt": {
					"type": "string"
				}
			}
		},
		"domain.QuizItem": {
			"type": "object",
			"properties": {
				"character": {
					"type": "string"
				},
				"correctOptionIndex": {
					"type": "integer"
				},
				"explanation": {
					"type": "string"
				},
				"options": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"question": {
					"type": "string"
				}
			}
		},
		"domain.RecordFailure": {
			"type": "object",
			"properties": {
				"reason": {
					"type": "string"
				},
				"tag": {
					"type": "string"
				}
			}
		},
		"domain.RetrieveReport": {
			"type": "object",
			"properties": {
				"failures": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.RecordFailure"
					}
				},
				"job": {
					"$ref": "#/definitions/domain.BatchJobSnapshot"
				},
				"saved": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.GenerationSummary"
					}
				}
			}
		},
		"domain.ValidationError": {
			"type": "object",
			"properties": {
				"field": {
					"type": "string"
				},
				"message": {
					"type": "string"
				},
				"value": {}
			}
		},
		"dto.BatchJobResponse": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"record_count": {
					"type": "integer"
				},
				"status": {
					"type": "string"
				},
				"submitted_at": {
					"type": "string"
				}
			}
		},
		"dto.CreateMnemonicRequest": {
			"type": "object",
			"properties": {
				"facts": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"language": {
					"type": "string"
				},
				"save": {
					"description": "Save defaults to true.",
					"type": "boolean"
				},
				"specialty": {
					"type": "string"
				},
				"theme": {
					"type": "string"
				},
				"topic": {
					"type": "string"
				},
				"visual_style": {
					"type": "string"
				}
			}
		},
		"dto.GenerationListResponse": {
			"type": "object",
			"properties": {
				"items": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.GenerationSummary"
					}
				},
				"total": {
					"type": "integer"
				}
			}
		},
		"dto.GenerationResponse": {
			"type": "object",
			"properties": {
				"bbox_data": {
					"$ref": "#/definitions/domain.BboxSet"
				},
				"id": {
					"type": "string"
				},
				"image": {
					"$ref": "#/definitions/dto.ImageResponse"
				},
				"metadata": {
					"$ref": "#/definitions/domain.GenerationMetadata"
				},
				"mnemonic_data": {
					"$ref": "#/definitions/domain.MnemonicRecord"
				},
				"quizzes": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.QuizItem"
					}
				}
			}
		},
		"dto.ImageResponse": {
			"type": "object",
			"properties": {
				"data": {
					"type": "array",
					"items": {
						"type": "integer"
					}
				},
				"fallback": {
					"type": "boolean"
				},
				"mime_type": {
					"type": "string"
				},
				"prompt": {
					"type": "string"
				},
				"url": {
					"type": "string"
				}
			}
		},
		"dto.RetrieveRequest": {
			"type": "object",
			"properties": {
				"job_name": {
					"type": "string"
				},
				"status_only": {
					"type": "boolean"
				}
			}
		},
		"dto.StageRequest": {
			"type": "object",
			"properties": {
				"inputs": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.BatchInput"
					}
				},
				"language": {
					"type": "string"
				},
				"specialty": {
					"type": "string"
				},
				"theme": {
					"type": "string"
				},
				"topic": {
					"type": "string"
				},
				"visual_style": {
					"type": "string"
				}
			}
		},
		"dto.StageResponse": {
			"type": "object",
			"properties": {
				"ids": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"staged": {
					"type": "integer"
				}
			}
		},
		"middleware.ErrorResponse": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				},
				"details": {
					"type": "object",
					"additionalProperties": true
				},
				"message": {
					"type": "string"
				},
				"status": {
					"type": "integer"
				}
			}
		},
		"middleware.ValidationErrorResponse": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				},
				"errors": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/domain.ValidationError"
					}
				},
				"message": {
					"type": "string"
				},
				"status": {
					"type": "integer"
				}
			}
		}
	},
	"securityDefinitions": {
		"ApiKeyAuth": {
			"description": "Static key from server.api_key; Authorization: Bearer <key> is also accepted.",
			"type": "apiKey",
			"name": "X-API-Key",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8090",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "MedMonics API",
	Description:      "Generates illustrated medical mnemonics with quizzes, one at a time or as Gemini batch jobs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
