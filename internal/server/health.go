package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"zyboard/internal/objectstore"
	"zyboard/internal/pkg/response"
	"zyboard/internal/repository"
)

const healthCheckTimeout = 5 * time.Second

type HealthStatus struct {
	Status      string    `json:"status"`
	Database    bool      `json:"database"`
	ObjectStore bool      `json:"objectStore"`
	Timestamp   time.Time `json:"timestamp"`
}

// healthHandler answers 200 even when a dependency is down; the status field
// reports "degraded" in that case.
func healthHandler(store repository.Store, objects objectstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		st := HealthStatus{
			Database:    store.Ping(ctx),
			ObjectStore: objects.CheckConnection(ctx),
			Timestamp:   time.Now(),
		}
		st.Status = "ok"
		if !st.Database || !st.ObjectStore {
			st.Status = "degraded"
		}
		response.Success(c, http.StatusOK, st)
	}
}
