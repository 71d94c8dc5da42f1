package reqlog

import (
	"net/http"
	"time"

	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Middleware logs every request with its status and duration.
type Middleware struct {
	logger *zap.Logger
}

// New creates a new request logging middleware.
func New(logger *zap.Logger) *Middleware {
	return &Middleware{logger: logger.Named("http")}
}

// AsRESTMiddleware returns a bunrouter middleware that logs requests.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		err := next(recorder, req)

		m.logger.Debug("Request handled",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", recorder.status),
			zap.Duration("duration", time.Since(start)))

		return err
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
