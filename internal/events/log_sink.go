package events

import (
	"context"

	"go.uber.org/zap"
)

// LogSink 把事件写成结构化日志
func LogSink(logger *zap.Logger) Processor {
	return func(_ context.Context, event Event) error {
		fields := []zap.Field{
			zap.String("event_id", event.ID),
			zap.Int("node", event.Node),
			zap.String("node_name", event.NodeName),
			zap.Stringer("available", event.Available),
		}

		switch event.Type {
		case TypeGranted:
			logger.Info("Request granted", append(fields, zap.Stringer("request", event.Request))...)
		case TypeDenied:
			logger.Info("Request denied", append(fields,
				zap.Stringer("request", event.Request),
				zap.String("reason", event.Reason))...)
		case TypeRejected:
			logger.Warn("Request rejected", append(fields,
				zap.Stringer("request", event.Request),
				zap.String("error", event.Error))...)
		case TypeReleased:
			logger.Info("Resources released", append(fields, zap.Stringer("released", event.Released))...)
		default:
			logger.Debug("Event", append(fields, zap.String("type", string(event.Type)))...)
		}
		return nil
	}
}
