package dispatch

import (
	"log/slog"
)

// Middleware wraps a Handler to add behavior around every method.
type Middleware func(next Handler) Handler

// Logging reports each call and its failure at debug level.
func Logging(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(c *Call) (Result, error) {
			logger.Debug("calling method", slog.String("method", c.Method), slog.Int("input_len", len(c.Input)))
			res, err := next(c)
			if err != nil {
				logger.Debug("method failed", slog.String("method", c.Method), slog.String("error", err.Error()))
				return res, err
			}
			logger.Debug("method completed", slog.String("method", c.Method), slog.Int("result_len", len(res.Value)))
			return res, nil
		}
	}
}
