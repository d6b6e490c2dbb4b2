package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder writes audit records best-effort. A failed write is logged and
// swallowed so it can never abort the operation being audited. Callers
// record after their transaction commits.
type Recorder interface {
	Record(ctx context.Context, actorID *uuid.UUID, action, resourceType string, resourceID *uuid.UUID, metadata map[string]any)
}

type recorder struct {
	repo   Repository
	logger *zap.Logger
}

func NewRecorder(repo Repository, logger ...*zap.Logger) Recorder {
	l := zap.L().Named("audit.recorder")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit.recorder")
	}
	return &recorder{repo: repo, logger: l}
}

func (r *recorder) Record(
	ctx context.Context,
	actorID *uuid.UUID,
	action, resourceType string,
	resourceID *uuid.UUID,
	metadata map[string]any,
) {
	var payload []byte
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			r.logger.Error("marshal audit metadata failed",
				zap.String("action", action),
				zap.Error(err),
			)
		} else {
			payload = b
		}
	}

	rec := &Record{
		ID:           uuid.New(),
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     payload,
	}

	if err := r.repo.Append(ctx, rec); err != nil {
		r.logger.Error("append audit record failed",
			zap.String("action", action),
			zap.String("resource_type", resourceType),
			zap.Error(err),
		)
	}
}

// NopRecorder discards everything. For tests.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, *uuid.UUID, string, string, *uuid.UUID, map[string]any) {}
