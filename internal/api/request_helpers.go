package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// queryInt parses the named query parameter as an int. A missing parameter
// yields def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidRequest, name)
	}
	return n, nil
}
