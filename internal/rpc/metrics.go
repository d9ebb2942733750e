package rpc

import (
	"context"
	"time"

	"artemis/internal/domain/models"

	"google.golang.org/grpc"
)

type EventProducer interface {
	SendEvent(event map[string]interface{}, topic models.Topic)
}

// MetricsInterceptor publishes per-call duration and error events for
// offline analysis. Prometheus covers live metrics; this feed goes to the
// audit pipeline.
func MetricsInterceptor(producer EventProducer) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		if producer != nil {
			event := map[string]interface{}{
				"method":   info.FullMethod,
				"duration": time.Since(start).Seconds(),
			}
			if err != nil {
				event["error"] = err.Error()
			}
			producer.SendEvent(event, models.RPCMetricTopic)
		}

		return resp, err
	}
}
