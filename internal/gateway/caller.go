// Package gateway holds the plumbing shared by the Remote Service Gateways:
// request instrumentation, client-side throttling, and error classification.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"

	"gcloud-go/internal/domain"
)

var requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "gcloud",
	Name:      "request_duration_seconds",
	Help:      "Time spent doing Google Cloud API requests.",

	// REST calls range from a few ms for lookups to tens of seconds for
	// long-polling query results.
	Buckets: prometheus.ExponentialBuckets(0.004, 4, 8),
}, []string{"service", "operation", "status_code"})

func init() {
	prometheus.MustRegister(requestDuration)
}

// RequestDuration returns the request histogram, for registries and tests.
func RequestDuration() *prometheus.HistogramVec {
	return requestDuration
}

// Caller wraps every gateway request with throttling, instrumentation and
// error classification.
type Caller struct {
	service string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewCaller creates a Caller for service. A non-positive rps disables
// throttling.
func NewCaller(service string, rps float64, burst int, logger *slog.Logger) *Caller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Caller{service: service, logger: logger}
	if rps > 0 {
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return c
}

// Do runs fn as operation op.
func (c *Caller) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &domain.RemoteCallError{Op: op, Message: err.Error(), Err: err}
		}
	}

	start := time.Now()
	err := fn(ctx)
	requestDuration.WithLabelValues(c.service, op, StatusCode(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		c.logger.Debug("remote call failed", "service", c.service, "op", op, "error", err)
		return Classify(op, err)
	}
	return nil
}

// StatusCode renders the HTTP status of err for metric labels.
func StatusCode(err error) string {
	if err == nil {
		return "200"
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return strconv.Itoa(apiErr.Code)
	}
	if errors.Is(err, context.Canceled) {
		return "cancel"
	}
	return "500"
}

// Classify maps a client library error to the domain taxonomy: 404 becomes
// *domain.NotFoundError, anything else *domain.RemoteCallError. A
// NotFoundError produced by fn itself is returned as is.
func Classify(op string, err error) error {
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return nf
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusNotFound {
			return domain.ErrNotFound("%s: %s", op, apiErr.Message)
		}
		rce := &domain.RemoteCallError{
			Op:         op,
			StatusCode: apiErr.Code,
			Message:    apiErr.Message,
			Err:        err,
		}
		if len(apiErr.Errors) > 0 {
			rce.Reason = apiErr.Errors[0].Reason
			if rce.Message == "" {
				rce.Message = apiErr.Errors[0].Message
			}
		}
		return rce
	}
	return &domain.RemoteCallError{Op: op, Message: err.Error(), Err: err}
}
