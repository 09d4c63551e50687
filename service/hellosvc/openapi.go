package hellosvc

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// NewOpenAPI describes the greeting routes.
func NewOpenAPI(version string) *openapi3.T {
	text := openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/plain"})
	ok := func(description string) *openapi3.Responses {
		return openapi3.NewResponses(openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription(description).WithContent(text),
		}))
	}

	greeting := openapi3.NewOperation()
	greeting.OperationID = "getGreeting"
	greeting.Summary = "Default greeting"
	greeting.Responses = ok("The configured default greeting, verbatim.")

	greetingFor := openapi3.NewOperation()
	greetingFor.OperationID = "getGreetingForName"
	greetingFor.Summary = "Greeting addressed to a name"
	greetingFor.Parameters = openapi3.Parameters{{
		Value: openapi3.NewPathParameter("name").
			WithDescription("Appended to the greeting as is.").
			WithSchema(openapi3.NewStringSchema()),
	}}
	greetingFor.Responses = ok(`"<greeting>, <name>"`)

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   "mizuhello",
			Version: version,
		},
		Paths: openapi3.NewPaths(
			openapi3.WithPath(ROUTE_HELLO, &openapi3.PathItem{Get: greeting}),
			openapi3.WithPath(ROUTE_HELLO_NAME, &openapi3.PathItem{Get: greetingFor}),
		),
	}
}
