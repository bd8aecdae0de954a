package router

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const openapiSpecPath = "../../../public/docs/v1/openapi.yml"

func TestOpenAPIDocumentIsValid(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(openapiSpecPath)
	require.NoError(t, err, "openapi.yml must be loadable")

	err = doc.Validate(context.Background())
	require.NoError(t, err, "openapi.yml must be a valid OpenAPI 3 document")

	assert.Equal(t, "Codigarte API", doc.Info.Title)
}

func TestOpenAPIDocumentCoversAPIRoutes(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(openapiSpecPath)
	require.NoError(t, err)

	// Every JSON endpoint the router exposes must be documented.
	wantGet := []string{
		"/api/lives",
	}
	wantPost := []string{
		"/api/check-answer",
		"/api/checkout/subscription",
		"/api/checkout/lives/{quantity}",
		"/api/cancel-subscription",
		"/api/refund-lives/{publicID}",
		"/webhooks/stripe",
	}

	for _, path := range wantGet {
		item := doc.Paths.Find(path)
		require.NotNilf(t, item, "path %s missing from openapi.yml", path)
		assert.NotNilf(t, item.Get, "GET %s missing from openapi.yml", path)
	}
	for _, path := range wantPost {
		item := doc.Paths.Find(path)
		require.NotNilf(t, item, "path %s missing from openapi.yml", path)
		assert.NotNilf(t, item.Post, "POST %s missing from openapi.yml", path)
	}
}
