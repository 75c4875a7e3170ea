package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers the API docs.
// - GET /swagger/index.html  -> Swagger UI loading the document below
// - GET /swagger/doc.json    -> OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>devblog-api Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "devblog-api", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Message": { "type": "object", "properties": { "message": { "type": "string" } } },
      "PostInput": { "type": "object", "required": ["title","content"], "properties": { "title": {"type":"string"}, "content": {"type":"string"}, "tags": {"type":"array","items":{"type":"string"}} } },
      "PostSummary": { "type": "object", "properties": { "id": {"type":"string"}, "title": {"type":"string"}, "excerpt": {"type":"string"}, "date": {"type":"string"}, "tags": {"type":"array","items":{"type":"string"}}, "author": {"type":"string"} } }
    }
  },
  "paths": {
    "/api/posts": {
      "get": { "summary": "List posts, newest first", "responses": { "200": { "description": "post summaries" } } },
      "post": { "summary": "Create post", "security": [{"bearer":[]}], "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/PostInput"} } } }, "responses": { "201": { "description": "id and title" }, "400": { "description": "missing title or content" }, "401": { "description": "missing or invalid token" } } }
    },
    "/api/posts/author/{authorId}": {
      "get": { "summary": "List posts by author", "parameters": [{"name":"authorId","in":"path","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "post summaries" } } }
    },
    "/api/posts/{id}": {
      "get": { "summary": "Get post", "responses": { "200": { "description": "post with content" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update own post (title, content, tags)", "security": [{"bearer":[]}], "responses": { "200": { "description": "updated" }, "400": { "description": "invalid update" }, "403": { "description": "not the author" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete own post", "security": [{"bearer":[]}], "responses": { "200": { "description": "deleted" }, "403": { "description": "not the author" }, "404": { "description": "not found" } } }
    },
    "/api/user": {
      "patch": { "summary": "Update display name and start email verification", "security": [{"bearer":[]}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"displayName":{"type":"string"},"email":{"type":"string"}}} } } }, "responses": { "200": { "description": "verification email sent" }, "400": { "description": "invalid email format" } } }
    },
    "/api/user/verify-email": {
      "get": { "summary": "Redeem email verification token", "parameters": [{"name":"token","in":"query","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "email verified" }, "400": { "description": "invalid or expired token" } } }
    },
    "/api/user/me": {
      "get": { "summary": "Current user profile", "security": [{"bearer":[]}], "responses": { "200": { "description": "user" } } }
    },
    "/api/uploads": {
      "post": { "summary": "Upload a post image", "security": [{"bearer":[]}], "responses": { "201": { "description": "key and presigned url" }, "413": { "description": "file too large" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
