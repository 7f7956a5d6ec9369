// Package fiber mounts a versioned API into a Fiber v3 application and
// offers a native middleware for guarding routes registered directly on the
// app with the same bearer tokens.
package fiber

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"

	"github.com/restio/restio/core"
)

// Mount wires every request under the API's root prefix into the shared
// router. Method matching, the endpoint pipeline, and error handling all run
// inside the router; Fiber only carries the bytes.
func Mount(app *fiber.App, api *core.API) {
	handler := adaptor.HTTPHandler(api.Router().Handler())
	app.Use(rootPrefix(api.BasePath()), handler)
}

// rootPrefix reduces "/api/v1" to "/api" so sibling versions sharing the
// router reach it through one mount point.
func rootPrefix(basePath string) string {
	path := basePath
	for i := 1; i < len(path); i++ {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return path
}
