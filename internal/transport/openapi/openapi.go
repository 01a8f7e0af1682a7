package openapi

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	httpSwagger "github.com/swaggo/http-swagger"

	internal "github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/transport"
)

// DocumentPath is where the raw document is served.
const DocumentPath = "/openapi.yml"

// Spec is a loaded and validated API document.
type Spec struct {
	Doc    *openapi3.T
	raw    []byte
	router routers.Router
}

// LoadSpec reads the document at path and checks it is a valid OpenAPI 3
// description before the server starts.
func LoadSpec(ctx context.Context, path string) (*Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read openapi document: %w", err)
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	return &Spec{Doc: doc, raw: raw, router: router}, nil
}

// DocumentHandler serves the raw document.
func (s *Spec) DocumentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(s.raw)
	}
}

// Handler serves the Swagger UI pointed at the served document.
func Handler() http.Handler {
	return httpSwagger.Handler(
		httpSwagger.URL(DocumentPath),
	)
}

// ValidationMiddleware checks documented requests against the document and
// answers 400 with the error envelope when they do not match. Routes the
// document does not describe pass through. Authentication is left to the
// auth middleware.
func (s *Spec) ValidationMiddleware(base *transport.BaseHandler) func(http.Handler) http.Handler {
	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		ExcludeRequestBody: false,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := s.router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				base.Logger.Debug("request failed openapi validation", "path", r.URL.Path, "error", err)
				base.HandleServiceError(w, internal.NewValidationError("Request does not match the API description", internal.ErrCodeValidationFailed).WithCause(err))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
