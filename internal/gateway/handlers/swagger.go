package handlers

import (
	_ "embed"
	"fmt"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// API Docs
// ============================================================

// DocsSpecPath is where the gateway serves the OpenAPI document.
const DocsSpecPath = "/docs/openapi.yaml"

//go:embed openapi.yaml
var openAPISpec []byte

// SwaggerSpec serves the embedded OpenAPI document.
func SwaggerSpec(c fiber.Ctx) error {
	c.Type("yaml")
	return c.Send(openAPISpec)
}

// Operations are grouped by tag in the order auth, editor, objects, scenes
// and the bearer token survives page reloads so workspace calls can be tried
// after /auth/signin.
var docsPage = fmt.Sprintf(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Scene Editor API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
<div id="docs"></div>
<script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
  const tagOrder = ["auth", "editor", "objects", "scenes"];
  SwaggerUIBundle({
    url: %q,
    dom_id: "#docs",
    deepLinking: true,
    persistAuthorization: true,
    docExpansion: "list",
    defaultModelsExpandDepth: 0,
    filter: true,
    tagsSorter: (a, b) => tagOrder.indexOf(a) - tagOrder.indexOf(b),
    operationsSorter: "alpha",
  });
</script>
</body>
</html>`, DocsSpecPath)

// SwaggerUI serves the interactive docs page for the scene editor API.
func SwaggerUI(c fiber.Ctx) error {
	c.Type("html")
	return c.SendString(docsPage)
}
