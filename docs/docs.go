// Package docs registers the OpenAPI description served under /swagger/.
// Regenerate with swag init -g cmd/backend/main.go when handlers change.
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
		"/api/auth/register": {
			"post": {
				"tags": [
					"Authentication"
				],
				"summary": "Register a new user",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/api/auth/login": {
			"post": {
				"tags": [
					"Authentication"
				],
				"summary": "Log in",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/api/auth/verify": {
			"get": {
				"tags": [
					"Authentication"
				],
				"summary": "Verify an email address",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				}
			}
		},
		"/api/auth/resend-verification": {
			"post": {
				"tags": [
					"Authentication"
				],
				"summary": "Resend the verification email",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/api/auth/refresh": {
			"post": {
				"tags": [
					"Authentication"
				],
				"summary": "Exchange a refresh token for a new token pair",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/api/auth/logout": {
			"post": {
				"tags": [
					"Authentication"
				],
				"summary": "Revoke the session of a refresh token",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/api/auth/password/reset": {
			"post": {
				"tags": [
					"Authentication"
				],
				"summary": "Email a password reset link",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/api/auth/password/confirm": {
			"post": {
				"tags": [
					"Authentication"
				],
				"summary": "Set a new password with a reset token",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				]
			}
		},
		"/api/account/password": {
			"put": {
				"tags": [
					"Account"
				],
				"summary": "Change the password",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
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
		"/api/account/name": {
			"put": {
				"tags": [
					"Account"
				],
				"summary": "Change the user name",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
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
		"/api/users/{userID}": {
			"get": {
				"tags": [
					"Users"
				],
				"summary": "Get a public user profile",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"name": "userID",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/users/{userID}/maps": {
			"get": {
				"tags": [
					"Users"
				],
				"summary": "List a user's published maps",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"name": "userID",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/account": {
			"delete": {
				"tags": [
					"Account"
				],
				"summary": "Delete the account with all its maps and likes",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
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
		"/api/account/picture": {
			"put": {
				"tags": [
					"Account"
				],
				"summary": "Replace the profile picture",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
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
		"/api/account/maps": {
			"get": {
				"tags": [
					"Maps"
				],
				"summary": "List own maps",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
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
		"/api/account/likes": {
			"get": {
				"tags": [
					"Likes"
				],
				"summary": "List liked maps",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
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
		"/api/maps": {
			"get": {
				"tags": [
					"Maps"
				],
				"summary": "Search published maps",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				}
			},
			"post": {
				"tags": [
					"Maps"
				],
				"summary": "Create a map",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
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
		"/api/maps/{mapID}": {
			"get": {
				"tags": [
					"Maps"
				],
				"summary": "Get map details",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"name": "mapID",
						"in": "path",
						"required": true
					}
				]
			},
			"put": {
				"tags": [
					"Maps"
				],
				"summary": "Save a map",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"name": "mapID",
						"in": "path",
						"required": true
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
					"Maps"
				],
				"summary": "Delete a map",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"name": "mapID",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/maps/{mapID}/publish": {
			"post": {
				"tags": [
					"Maps"
				],
				"summary": "Publish a map",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"name": "mapID",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/maps/{mapID}/draft": {
			"post": {
				"tags": [
					"Maps"
				],
				"summary": "Move a map back to drafts",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"name": "mapID",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/maps/{mapID}/countries": {
			"post": {
				"tags": [
					"Maps"
				],
				"summary": "Attribute a country to a map",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"name": "mapID",
						"in": "path",
						"required": true
					},
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
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
		"/api/maps/{mapID}/places": {
			"post": {
				"tags": [
					"Places"
				],
				"summary": "Add a place",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"name": "mapID",
						"in": "path",
						"required": true
					},
					{
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
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
		"/api/maps/{mapID}/markers": {
			"get": {
				"tags": [
					"Places"
				],
				"summary": "List map markers",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"name": "mapID",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/maps/{mapID}/circles": {
			"get": {
				"tags": [
					"Places"
				],
				"summary": "List map circles",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"name": "mapID",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/maps/{mapID}/like": {
			"get": {
				"tags": [
					"Likes"
				],
				"summary": "Check own like",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"name": "mapID",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"post": {
				"tags": [
					"Likes"
				],
				"summary": "Like a map",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"name": "mapID",
						"in": "path",
						"required": true
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
					"Likes"
				],
				"summary": "Remove a like",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"name": "mapID",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/places/{placeID}": {
			"put": {
				"tags": [
					"Places"
				],
				"summary": "Update place info",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"name": "placeID",
						"in": "path",
						"required": true
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
					"Places"
				],
				"summary": "Remove a place",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"name": "placeID",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/tags/popular": {
			"get": {
				"tags": [
					"Maps"
				],
				"summary": "Popular tags",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				}
			}
		},
		"/api/countries": {
			"get": {
				"tags": [
					"Maps"
				],
				"summary": "List countries",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				}
			}
		},
		"/media/{ref}": {
			"get": {
				"tags": [
					"Media"
				],
				"summary": "Download a blob",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"name": "ref",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/health": {
			"get": {
				"tags": [
					"System"
				],
				"summary": "Health check",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/response.Envelope"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"response.Envelope": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean"
				},
				"data": {},
				"error": {
					"$ref": "#/definitions/response.ErrorBody"
				}
			}
		},
		"response.ErrorBody": {
			"type": "object",
			"properties": {
				"kind": {
					"type": "string"
				},
				"field": {
					"type": "string"
				},
				"message": {
					"type": "string"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "JWT Authorization header. Format: \"Bearer {token}\"",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "MapHub API",
	Description:      "Map sharing platform: maps, places, tags, countries and likes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
