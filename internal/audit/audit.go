// Package audit deja rastro estructurado de los eventos de seguridad
// (logins, códigos, refresh). Sale por el mismo sink que los logs, con
// event= para filtrarlo; a futuro puede colgarse un sink dedicado.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/ssojohn/internal/observability/logger"
)

func Log(ctx context.Context, event string, fields ...zap.Field) {
	all := make([]zap.Field, 0, len(fields)+1)
	all = append(all, zap.String("event", event))
	all = append(all, fields...)
	logger.From(ctx).Info("audit", all...)
}
