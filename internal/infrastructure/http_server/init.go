package httpserver

import (
	"github.com/google/wire"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProviderSet 提供 HTTP Server 及就绪探针。
var ProviderSet = wire.NewSet(
	NewHTTPServer,
	wire.Bind(new(ReadinessProbe), new(*pgxpool.Pool)),
)
