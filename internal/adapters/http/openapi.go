package httpadapter

import (
	_ "embed"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openAPISpecYAML []byte

var (
	openAPIOnce sync.Once
	openAPIJSON []byte
	openAPIErr  error
)

// loadOpenAPISpec parses and validates the embedded contract once, then
// caches its JSON rendering.
func loadOpenAPISpec() ([]byte, error) {
	openAPIOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(openAPISpecYAML)
		if err != nil {
			openAPIErr = err
			return
		}
		if err := doc.Validate(loader.Context); err != nil {
			openAPIErr = err
			return
		}
		openAPIJSON, openAPIErr = doc.MarshalJSON()
	})
	return openAPIJSON, openAPIErr
}

func (rt *Router) openAPISpec(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	spec, err := loadOpenAPISpec()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "openapi spec unavailable"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(spec)
}
