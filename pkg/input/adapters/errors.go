// Package adapters exposes gin, echo and fiber requests as input.Request values and
// provides middleware that binds a request onto a struct before the handler runs.
package adapters

import (
	"github.com/toyz/axon-input/pkg/input"
)

// errorBody is the JSON body written for a failed bind
func errorBody(err *input.HTTPError) map[string]any {
	body := map[string]any{"error": err.Message}
	if err.Details != nil {
		body["details"] = err.Details
	}
	return body
}
