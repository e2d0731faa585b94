package requestdata

import (
	"context"

	"github.com/google/uuid"

	types "github.com/harvlabs/harv-backend/internal/domain"
)

var requestDataKey = struct{}{}

// RequestData carries the pre-authenticated caller identity. The engine never
// authenticates; the upstream gateway resolves the session and forwards the
// user id.
type RequestData struct {
	UserID uuid.UUID
	Role   types.Role
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey)
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}
