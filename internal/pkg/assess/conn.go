package assess

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCConfig holds configuration for the assessment health probe.
type GRPCConfig struct {
	Address string // gRPC health address, e.g. "assess-lb:50051"
	Timeout time.Duration
}

// DefaultGRPCConfig returns a default gRPC config.
func DefaultGRPCConfig(addr string) GRPCConfig {
	return GRPCConfig{
		Address: addr,
		Timeout: 5 * time.Second,
	}
}

// Dial creates a new gRPC client connection to the assessment tier.
// Caller is responsible for closing the connection.
func Dial(cfg GRPCConfig) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(
		cfg.Address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("assess: failed to dial %s: %w", cfg.Address, err)
	}
	return conn, nil
}

// Ping checks the assessment tier via the standard gRPC health protocol.
func Ping(ctx context.Context, conn *grpc.ClientConn, cfg GRPCConfig) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("assess: health check failed: %w", err)
	}
	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		return fmt.Errorf("assess: service not serving: %s", resp.Status)
	}
	return nil
}
