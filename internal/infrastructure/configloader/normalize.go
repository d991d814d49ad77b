package configloader

import "time"

const (
	defaultHandlerTimeout = 5 * time.Second
	defaultQueryTimeout   = 3 * time.Second
	defaultUploadTimeout  = 2 * time.Minute
	defaultMuxBaseURL     = "https://api.mux.com"
	defaultMuxTimeout     = 15 * time.Second
	defaultSchema         = "course"
	defaultHTTPAddr       = ":8000"
	defaultMaxUploadBytes = 512 << 20
)

func fromBootstrap(b *Bootstrap) RuntimeConfig {
	if b == nil {
		return RuntimeConfig{}
	}
	return RuntimeConfig{
		Server:        serverFromFile(b.Server),
		Database:      databaseFromFile(b.Data),
		Storage:       storageFromFile(b.Storage),
		Video:         videoFromFile(b.Video),
		Observability: observabilityFromFile(b.Observability),
		Messaging:     messagingFromFile(b.Messaging, b.Data),
	}
}

func serverFromFile(s FileServer) ServerConfig {
	server := ServerConfig{
		Address:          s.HTTP.Addr,
		Timeout:          s.HTTP.Timeout.Std(),
		MetadataKeys:     append([]string(nil), s.MetadataKeys...),
		RateLimitEnabled: s.RateLimitEnabled == nil || *s.RateLimitEnabled,
		MaxUploadBytes:   s.MaxUploadBytes,
		JWT: ServerJWTConfig{
			ExpectedAudience: s.JWT.ExpectedAudience,
			SkipValidate:     s.JWT.SkipValidate,
			Required:         s.JWT.Required,
			HeaderKey:        firstNonEmpty(s.JWT.HeaderKey, "authorization"),
		},
	}

	handlers := HandlerTimeoutConfig{Default: defaultHandlerTimeout, Query: defaultQueryTimeout}
	if d := s.Handlers.DefaultTimeout.Std(); d > 0 {
		handlers.Default = d
	}
	handlers.Command = firstNonZero(s.Handlers.CommandTimeout.Std(), handlers.Default)
	handlers.Query = firstNonZero(s.Handlers.QueryTimeout.Std(), handlers.Query, handlers.Default)
	handlers.Upload = s.Handlers.UploadTimeout.Std()
	server.Handlers = handlers
	return server
}

func databaseFromFile(d FileData) DatabaseConfig {
	pg := d.Postgres
	return DatabaseConfig{
		DSN:               pg.DSN,
		MaxOpenConns:      pg.MaxOpenConns,
		MinOpenConns:      pg.MinOpenConns,
		MaxConnLifetime:   pg.MaxConnLifetime.Std(),
		MaxConnIdleTime:   pg.MaxConnIdleTime.Std(),
		HealthCheckPeriod: pg.HealthCheckPeriod.Std(),
		Schema:            pg.Schema,
		PreparedStmts:     pg.PreparedStatementsEnabled,
		PoolMetrics:       pg.PoolMetricsEnabled,
		Transaction: TransactionConfig{
			DefaultIsolation: pg.Transaction.DefaultIsolation,
			DefaultTimeout:   pg.Transaction.DefaultTimeout.Std(),
			LockTimeout:      pg.Transaction.LockTimeout.Std(),
			MaxRetries:       pg.Transaction.MaxRetries,
			MetricsEnabled:   pg.Transaction.MetricsEnabled,
		},
	}
}

func storageFromFile(s FileStorage) StorageConfig {
	g := s.GCS
	return StorageConfig{
		ProjectID:             g.ProjectID,
		Endpoint:              g.Endpoint,
		WithoutAuthentication: g.WithoutAuthentication,
		PublicBaseURL:         g.PublicBaseURL,
		UploadTimeout:         g.UploadTimeout.Std(),
		CourseImagesBucket:    g.Buckets.CourseImages,
		AttachmentsBucket:     g.Buckets.Attachments,
		ChapterVideosBucket:   g.Buckets.ChapterVideos,
	}
}

func videoFromFile(v FileVideo) VideoEncodingConfig {
	return VideoEncodingConfig{
		BaseURL:     v.Mux.BaseURL,
		TokenID:     v.Mux.TokenID,
		TokenSecret: v.Mux.TokenSecret,
		Timeout:     v.Mux.Timeout.Std(),
	}
}

func observabilityFromFile(o FileObservability) ObservabilityConfig {
	return ObservabilityConfig{
		GlobalAttributes: mapCopy(o.GlobalAttributes),
		Tracing: TracingConfig{
			Enabled:            o.Tracing.Enabled,
			Exporter:           o.Tracing.Exporter,
			Endpoint:           o.Tracing.Endpoint,
			Headers:            mapCopy(o.Tracing.Headers),
			Insecure:           o.Tracing.Insecure,
			SamplingRatio:      o.Tracing.SamplingRatio,
			BatchTimeout:       o.Tracing.BatchTimeout.Std(),
			ExportTimeout:      o.Tracing.ExportTimeout.Std(),
			MaxQueueSize:       o.Tracing.MaxQueueSize,
			MaxExportBatchSize: o.Tracing.MaxExportBatchSize,
			Required:           o.Tracing.Required,
			Attributes:         mapCopy(o.Tracing.Attributes),
		},
		Metrics: MetricsConfig{
			Enabled:             o.Metrics.Enabled,
			Exporter:            o.Metrics.Exporter,
			Endpoint:            o.Metrics.Endpoint,
			Headers:             mapCopy(o.Metrics.Headers),
			Insecure:            o.Metrics.Insecure,
			Interval:            o.Metrics.Interval.Std(),
			DisableRuntimeStats: o.Metrics.DisableRuntimeStats,
			Required:            o.Metrics.Required,
			ResourceAttributes:  mapCopy(o.Metrics.ResourceAttributes),
		},
	}
}

func messagingFromFile(m FileMessaging, data FileData) MessagingConfig {
	ob := m.Outbox
	return MessagingConfig{
		Schema:    data.Postgres.Schema,
		PubSub:    pubsubFromFile(m.PubSub),
		Reconcile: pubsubFromFile(m.Reconcile),
		Outbox: OutboxPublisherConfig{
			BatchSize:      ob.BatchSize,
			TickInterval:   ob.TickInterval.Std(),
			InitialBackoff: ob.InitialBackoff.Std(),
			MaxBackoff:     ob.MaxBackoff.Std(),
			MaxAttempts:    ob.MaxAttempts,
			PublishTimeout: ob.PublishTimeout.Std(),
			Workers:        ob.Workers,
			LockTTL:        ob.LockTTL.Std(),
			LoggingEnabled: ob.LoggingEnabled,
			MetricsEnabled: ob.MetricsEnabled,
		},
		Inbox: InboxConfig{
			SourceService:  m.Inbox.SourceService,
			MaxConcurrency: m.Inbox.MaxConcurrency,
			LoggingEnabled: m.Inbox.LoggingEnabled,
			MetricsEnabled: m.Inbox.MetricsEnabled,
		},
	}
}

func pubsubFromFile(p FilePubSub) PubSubConfig {
	return PubSubConfig{
		ProjectID:           p.ProjectID,
		TopicID:             p.TopicID,
		SubscriptionID:      p.SubscriptionID,
		OrderingKeyEnabled:  p.OrderingKeyEnabled,
		LoggingEnabled:      p.LoggingEnabled,
		MetricsEnabled:      p.MetricsEnabled,
		EmulatorEndpoint:    p.EmulatorEndpoint,
		PublishTimeout:      p.PublishTimeout.Std(),
		ExactlyOnceDelivery: p.ExactlyOnceDelivery,
		DeadLetterTopicID:   p.DeadLetterTopicID,
		Receive: PubSubReceiveConfig{
			NumGoroutines:          p.Receive.NumGoroutines,
			MaxOutstandingMessages: p.Receive.MaxOutstandingMessages,
			MaxOutstandingBytes:    p.Receive.MaxOutstandingBytes,
			MaxExtension:           p.Receive.MaxExtension.Std(),
			MaxExtensionPeriod:     p.Receive.MaxExtensionPeriod.Std(),
		},
	}
}

func mapCopy(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func firstNonZero(durations ...time.Duration) time.Duration {
	for _, d := range durations {
		if d > 0 {
			return d
		}
	}
	return 0
}

func fillDefaults(cfg *RuntimeConfig) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultHTTPAddr
	}
	if cfg.Server.JWT.HeaderKey == "" {
		cfg.Server.JWT.HeaderKey = "authorization"
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = defaultMaxUploadBytes
	}
	defaultKeys := []string{
		"x-apigateway-api-userinfo",
		"x-md-",
		"x-md-global-user-id",
		"x-md-idempotency-key",
	}
	if len(cfg.Server.MetadataKeys) == 0 {
		cfg.Server.MetadataKeys = append([]string(nil), defaultKeys...)
	}
	if cfg.Database.Schema == "" {
		cfg.Database.Schema = defaultSchema
	}
	if cfg.Messaging.Schema == "" {
		cfg.Messaging.Schema = cfg.Database.Schema
	}
	if cfg.Storage.UploadTimeout <= 0 {
		cfg.Storage.UploadTimeout = defaultUploadTimeout
	}
	if cfg.Server.Handlers.Upload <= 0 {
		cfg.Server.Handlers.Upload = cfg.Storage.UploadTimeout + cfg.Server.Handlers.Command
	}
	// Server 级超时作用于每个请求，不能短于上传路由的预算。
	if cfg.Server.Timeout < cfg.Server.Handlers.Upload {
		cfg.Server.Timeout = cfg.Server.Handlers.Upload
	}
	if cfg.Video.BaseURL == "" {
		cfg.Video.BaseURL = defaultMuxBaseURL
	}
	if cfg.Video.Timeout <= 0 {
		cfg.Video.Timeout = defaultMuxTimeout
	}
	if cfg.Messaging.Inbox.SourceService == "" {
		cfg.Messaging.Inbox.SourceService = cfg.Service.Name
	}
}
