package apidoc

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentValidates(t *testing.T) {
	doc := Document()
	require.NoError(t, doc.Validate(context.Background()))
}

func TestDocumentCoversAllRoutes(t *testing.T) {
	doc := Document()

	for _, path := range []string{
		"/",
		"/data",
		"/products/{lender}",
		"/regions/{lender}/{product}",
		"/calculate",
		"/health",
		"/ready",
	} {
		assert.NotNil(t, doc.Paths.Find(path), "missing path %s", path)
	}
}

func TestJSONIsPrettyPrinted(t *testing.T) {
	body, err := JSON()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(body), "{\n  "),
		"contract should use a two-space indent")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "3.0.3", decoded["openapi"])
}
