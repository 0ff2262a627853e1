package adapters

import (
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// retryLogger routes retryablehttp messages into zap. Attempts are debug
// noise; only errors surface at the default level.
type retryLogger struct {
	log *zap.SugaredLogger
}

var _ retryablehttp.LeveledLogger = retryLogger{}

func (l retryLogger) Error(msg string, kv ...interface{}) { l.log.Errorw(msg, kv...) }
func (l retryLogger) Info(msg string, kv ...interface{})  { l.log.Debugw(msg, kv...) }
func (l retryLogger) Debug(msg string, kv ...interface{}) { l.log.Debugw(msg, kv...) }
func (l retryLogger) Warn(msg string, kv ...interface{})  { l.log.Warnw(msg, kv...) }

// newRetryClient returns a retrying client that sends requests through
// base, which usually carries the OAuth token.
func newRetryClient(base *http.Client, retries int, logger *zap.Logger) *http.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = base
	rc.RetryMax = retries
	rc.Logger = retryLogger{log: logger.Sugar()}
	return rc.StandardClient()
}
