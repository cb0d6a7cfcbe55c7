package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/mailotp/internal/pkg/goerror"
)

// Health reports whether the backing database is reachable.
func (s *Usecase) Health(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Health")
	defer span.End()

	if err := s.repoDB.Ping(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to repo ping", "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
