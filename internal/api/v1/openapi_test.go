package apiv1

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The served OpenAPI document must stay a valid spec and keep describing the
// operations this package registers.
func TestOpenAPIDocumentIsValid(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("../../../public/docs/v1/openapi.yml")
	require.NoError(t, err)

	require.NoError(t, doc.Validate(context.Background()))

	for _, path := range []string{"/ping", "/extract-text", "/usage", "/user", "/history"} {
		assert.NotNil(t, doc.Paths.Find(path), "path %s missing from OpenAPI document", path)
	}
}
