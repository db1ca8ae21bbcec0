package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestRegisteredDocDescribesRoutes(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		BasePath    string                                `json:"basePath"`
		Paths       map[string]map[string]json.RawMessage `json:"paths"`
		Definitions map[string]json.RawMessage            `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, "/api", doc.BasePath)
	for path, method := range map[string]string{
		"/auth/login":           "post",
		"/leads":                "get",
		"/leads/{id}/attempts":  "post",
		"/leads/{id}/outcome":   "post",
		"/quotes/{id}/status":   "post",
		"/quotes/{id}/pdf":      "get",
		"/payments/{id}/send":   "post",
		"/reports/export/csv":   "get",
		"/users/{id}":           "delete",
		"/attempts/{id}/status": "post",
	} {
		ops, ok := doc.Paths[path]
		if assert.True(t, ok, path) {
			assert.Contains(t, ops, method, path)
		}
	}
	assert.NotEmpty(t, doc.Definitions)
}
