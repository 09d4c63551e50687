package hellosvc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humbornjo/mizuhello/service/hellosvc"
)

func TestNewOpenAPI(t *testing.T) {
	doc := hellosvc.NewOpenAPI("1.2.3")
	require.NoError(t, doc.Validate(context.Background()))

	assert.Equal(t, "1.2.3", doc.Info.Version)
	assert.Equal(t, 2, doc.Paths.Len())

	hello := doc.Paths.Value("/hello")
	require.NotNil(t, hello)
	require.NotNil(t, hello.Get)
	assert.Equal(t, "getGreeting", hello.Get.OperationID)

	named := doc.Paths.Value("/hello/{name}")
	require.NotNil(t, named)
	require.NotNil(t, named.Get)
	require.Len(t, named.Get.Parameters, 1)
	assert.Equal(t, "name", named.Get.Parameters[0].Value.Name)
	assert.Equal(t, openapi3.ParameterInPath, named.Get.Parameters[0].Value.In)
	assert.True(t, named.Get.Parameters[0].Value.Required)

	ok := named.Get.Responses.Status(http.StatusOK)
	require.NotNil(t, ok)
	assert.NotNil(t, ok.Value.Content.Get("text/plain"))
}

func TestHandler_ServesOpenAPI(t *testing.T) {
	handler := newTestServer(t, "Hello!", nil)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	doc, err := openapi3.NewLoader().LoadFromData(rr.Body.Bytes())
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))
	assert.NotNil(t, doc.Paths.Value("/hello/{name}"))
}
