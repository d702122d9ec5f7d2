// Package swagger embeds the OpenAPI document of the REST API.
package swagger

import _ "embed"

// Spec is the Swagger 2.0 document served at /swagger/doc.json.
//
//go:embed registry.swagger.json
var Spec []byte
