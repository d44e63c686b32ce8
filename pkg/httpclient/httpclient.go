package httpclient

import (
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// New returns a resty client for one upstream. Callers inspect status codes
// themselves; the client never retries.
func New(name string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	log := zap.L().With(zap.String("upstream", name))

	return resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "stampcard/"+name).
		OnError(func(req *resty.Request, err error) {
			log.Warn("upstream request failed",
				zap.String("method", req.Method),
				zap.String("url", req.URL),
				zap.Error(err),
			)
		}).
		OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			if resp.IsError() {
				log.Debug("upstream error status",
					zap.String("url", resp.Request.URL),
					zap.Int("status", resp.StatusCode()),
				)
			}
			return nil
		})
}
