// Package docs holds the OpenAPI document served at /swagger/index.html.
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
		"/auth/create-account": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Register an unconfirmed account",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.RegisterRequest"
						}
					}
				]
			}
		},
		"/auth/confirm-account": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Confirm an account with its code",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.TokenRequest"
						}
					}
				]
			}
		},
		"/auth/login": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Log in and receive a session token",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "Session token",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.LoginRequest"
						}
					}
				]
			}
		},
		"/auth/request-code": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Send a new confirmation code",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.EmailRequest"
						}
					}
				]
			}
		},
		"/auth/forgot-password": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Send a password reset code",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.EmailRequest"
						}
					}
				]
			}
		},
		"/auth/validate-token": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Check a password reset code",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.TokenRequest"
						}
					}
				]
			}
		},
		"/auth/update-password/{token}": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Set a new password with a reset code",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "path",
						"name": "token",
						"required": true,
						"type": "string",
						"description": "Reset code"
					},
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.NewPasswordRequest"
						}
					}
				]
			}
		},
		"/auth/user": {
			"get": {
				"tags": [
					"Auth"
				],
				"summary": "Current user",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.UserResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/auth/profile": {
			"put": {
				"tags": [
					"Auth"
				],
				"summary": "Update name and email",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.ProfileRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/auth/update-password": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Change the password",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.UpdatePasswordRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/auth/check-password": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Verify the current password",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.CheckPasswordRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/projects": {
			"post": {
				"tags": [
					"Projects"
				],
				"summary": "Create a project",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.ProjectRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"get": {
				"tags": [
					"Projects"
				],
				"summary": "List managed and shared projects",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/handler.ProjectResponse"
							}
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/projects/{projectId}": {
			"get": {
				"tags": [
					"Projects"
				],
				"summary": "Get a project with its tasks",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.ProjectResponse"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "path",
						"name": "projectId",
						"required": true,
						"type": "string",
						"description": "Project ID"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"put": {
				"tags": [
					"Projects"
				],
				"summary": "Update a project",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "path",
						"name": "projectId",
						"required": true,
						"type": "string",
						"description": "Project ID"
					},
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.ProjectRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"delete": {
				"tags": [
					"Projects"
				],
				"summary": "Delete a project",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "path",
						"name": "projectId",
						"required": true,
						"type": "string",
						"description": "Project ID"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/projects/{projectId}/tasks": {
			"post": {
				"tags": [
					"Tasks"
				],
				"summary": "Create a task",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "path",
						"name": "projectId",
						"required": true,
						"type": "string",
						"description": "Project ID"
					},
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.TaskRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"get": {
				"tags": [
					"Tasks"
				],
				"summary": "List tasks",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/handler.TaskResponse"
							}
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "path",
						"name": "projectId",
						"required": true,
						"type": "string",
						"description": "Project ID"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/projects/{projectId}/tasks/{id}": {
			"get": {
				"tags": [
					"Tasks"
				],
				"summary": "Get a task with history and notes",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.TaskResponse"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "path",
						"name": "projectId",
						"required": true,
						"type": "string",
						"description": "Project ID"
					},
					{
						"in": "path",
						"name": "id",
						"required": true,
						"type": "string",
						"description": "Task ID"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"put": {
				"tags": [
					"Tasks"
				],
				"summary": "Update a task",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "path",
						"name": "projectId",
						"required": true,
						"type": "string",
						"description": "Project ID"
					},
					{
						"in": "path",
						"name": "id",
						"required": true,
						"type": "string",
						"description": "Task ID"
					},
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.TaskRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"delete": {
				"tags": [
					"Tasks"
				],
				"summary": "Delete a task",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "path",
						"name": "projectId",
						"required": true,
						"type": "string",
						"description": "Project ID"
					},
					{
						"in": "path",
						"name": "id",
						"required": true,
						"type": "string",
						"description": "Task ID"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/projects/{projectId}/tasks/{id}/status": {
			"post": {
				"tags": [
					"Tasks"
				],
				"summary": "Change a task's status",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "path",
						"name": "projectId",
						"required": true,
						"type": "string",
						"description": "Project ID"
					},
					{
						"in": "path",
						"name": "id",
						"required": true,
						"type": "string",
						"description": "Task ID"
					},
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.StatusRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/projects/{projectId}/tasks/{id}/notes": {
			"post": {
				"tags": [
					"Notes"
				],
				"summary": "Add a note",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "path",
						"name": "projectId",
						"required": true,
						"type": "string",
						"description": "Project ID"
					},
					{
						"in": "path",
						"name": "id",
						"required": true,
						"type": "string",
						"description": "Task ID"
					},
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.NoteRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"get": {
				"tags": [
					"Notes"
				],
				"summary": "List notes",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/handler.NoteResponse"
							}
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "path",
						"name": "projectId",
						"required": true,
						"type": "string",
						"description": "Project ID"
					},
					{
						"in": "path",
						"name": "id",
						"required": true,
						"type": "string",
						"description": "Task ID"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/projects/{projectId}/tasks/{id}/notes/{noteId}": {
			"delete": {
				"tags": [
					"Notes"
				],
				"summary": "Delete own note",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "path",
						"name": "projectId",
						"required": true,
						"type": "string",
						"description": "Project ID"
					},
					{
						"in": "path",
						"name": "id",
						"required": true,
						"type": "string",
						"description": "Task ID"
					},
					{
						"in": "path",
						"name": "noteId",
						"required": true,
						"type": "string",
						"description": "Note ID"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/projects/{projectId}/team/find": {
			"post": {
				"tags": [
					"Team"
				],
				"summary": "Find a user by email",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.UserResponse"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "path",
						"name": "projectId",
						"required": true,
						"type": "string",
						"description": "Project ID"
					},
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.FindMemberRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/projects/{projectId}/team": {
			"post": {
				"tags": [
					"Team"
				],
				"summary": "Add a team member",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "path",
						"name": "projectId",
						"required": true,
						"type": "string",
						"description": "Project ID"
					},
					{
						"in": "body",
						"name": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.AddMemberRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"get": {
				"tags": [
					"Team"
				],
				"summary": "List team members",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/handler.UserResponse"
							}
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "path",
						"name": "projectId",
						"required": true,
						"type": "string",
						"description": "Project ID"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/projects/{projectId}/team/{userId}": {
			"delete": {
				"tags": [
					"Team"
				],
				"summary": "Remove a team member",
				"produces": [
					"application/json",
					"text/plain"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "string"
						}
					},
					"400": {
						"description": "Validation failed",
						"schema": {
							"$ref": "#/definitions/apperr.ValidationResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/apperr.ErrorResponse"
						}
					}
				},
				"parameters": [
					{
						"in": "path",
						"name": "projectId",
						"required": true,
						"type": "string",
						"description": "Project ID"
					},
					{
						"in": "path",
						"name": "userId",
						"required": true,
						"type": "string",
						"description": "User ID"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		}
	},
	"definitions": {
		"apperr.ErrorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				}
			}
		},
		"apperr.FieldError": {
			"type": "object",
			"properties": {
				"field": {
					"type": "string"
				},
				"msg": {
					"type": "string"
				}
			}
		},
		"apperr.ValidationResponse": {
			"type": "object",
			"properties": {
				"errors": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/apperr.FieldError"
					}
				}
			}
		},
		"handler.RegisterRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				},
				"password_confirmation": {
					"type": "string"
				}
			},
			"required": [
				"name",
				"email",
				"password",
				"password_confirmation"
			]
		},
		"handler.TokenRequest": {
			"type": "object",
			"properties": {
				"token": {
					"type": "string"
				}
			},
			"required": [
				"token"
			]
		},
		"handler.LoginRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			},
			"required": [
				"email",
				"password"
			]
		},
		"handler.EmailRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				}
			},
			"required": [
				"email"
			]
		},
		"handler.NewPasswordRequest": {
			"type": "object",
			"properties": {
				"password": {
					"type": "string"
				},
				"password_confirmation": {
					"type": "string"
				}
			},
			"required": [
				"password",
				"password_confirmation"
			]
		},
		"handler.ProfileRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"email": {
					"type": "string"
				}
			},
			"required": [
				"name",
				"email"
			]
		},
		"handler.UpdatePasswordRequest": {
			"type": "object",
			"properties": {
				"current_password": {
					"type": "string"
				},
				"password": {
					"type": "string"
				},
				"password_confirmation": {
					"type": "string"
				}
			},
			"required": [
				"current_password",
				"password",
				"password_confirmation"
			]
		},
		"handler.CheckPasswordRequest": {
			"type": "object",
			"properties": {
				"password": {
					"type": "string"
				}
			},
			"required": [
				"password"
			]
		},
		"handler.ProjectRequest": {
			"type": "object",
			"properties": {
				"projectName": {
					"type": "string"
				},
				"clientName": {
					"type": "string"
				},
				"description": {
					"type": "string"
				}
			},
			"required": [
				"projectName",
				"clientName",
				"description"
			]
		},
		"handler.TaskRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"description": {
					"type": "string"
				}
			},
			"required": [
				"name",
				"description"
			]
		},
		"handler.StatusRequest": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string",
					"enum": [
						"pending",
						"onHold",
						"inProgress",
						"underReview",
						"completed"
					]
				}
			},
			"required": [
				"status"
			]
		},
		"handler.NoteRequest": {
			"type": "object",
			"properties": {
				"content": {
					"type": "string"
				}
			},
			"required": [
				"content"
			]
		},
		"handler.FindMemberRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				}
			},
			"required": [
				"email"
			]
		},
		"handler.AddMemberRequest": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				}
			},
			"required": [
				"id"
			]
		},
		"handler.UserResponse": {
			"type": "object",
			"properties": {
				"_id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"email": {
					"type": "string"
				}
			}
		},
		"handler.StatusChangeResponse": {
			"type": "object",
			"properties": {
				"_id": {
					"type": "string"
				},
				"user": {
					"$ref": "#/definitions/handler.UserResponse"
				},
				"status": {
					"type": "string",
					"enum": [
						"pending",
						"onHold",
						"inProgress",
						"underReview",
						"completed"
					]
				}
			}
		},
		"handler.NoteResponse": {
			"type": "object",
			"properties": {
				"_id": {
					"type": "string"
				},
				"content": {
					"type": "string"
				},
				"createdBy": {
					"$ref": "#/definitions/handler.UserResponse"
				},
				"task": {
					"type": "string"
				},
				"createdAt": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				}
			}
		},
		"handler.TaskResponse": {
			"type": "object",
			"properties": {
				"_id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"project": {
					"type": "string"
				},
				"status": {
					"type": "string",
					"enum": [
						"pending",
						"onHold",
						"inProgress",
						"underReview",
						"completed"
					]
				},
				"completedBy": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/handler.StatusChangeResponse"
					}
				},
				"notes": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/handler.NoteResponse"
					}
				},
				"createdAt": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				}
			}
		},
		"handler.ProjectResponse": {
			"type": "object",
			"properties": {
				"_id": {
					"type": "string"
				},
				"projectName": {
					"type": "string"
				},
				"clientName": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"manager": {
					"type": "string"
				},
				"team": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"tasks": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/handler.TaskResponse"
					}
				},
				"createdAt": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "Type \"Bearer\" followed by a space and the session token.",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:4000",
	BasePath:         "/api",
	Schemes:          []string{"http"},
	Title:            "UpTask API",
	Description:      "Projects, tasks, teams and notes with e-mail confirmed accounts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
