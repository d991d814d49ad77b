package configloader

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bootstrap 对应 configs/config.yaml 的文件结构，由 Kratos config 扫描得到。
type Bootstrap struct {
	Server        FileServer        `json:"server"`
	Data          FileData          `json:"data"`
	Storage       FileStorage       `json:"storage"`
	Video         FileVideo         `json:"video"`
	Observability FileObservability `json:"observability"`
	Messaging     FileMessaging     `json:"messaging"`
}

// FileServer 描述 HTTP 入站配置。
type FileServer struct {
	HTTP struct {
		Addr    string   `json:"addr"`
		Timeout Duration `json:"timeout"`
	} `json:"http"`
	JWT struct {
		ExpectedAudience string `json:"expected_audience"`
		SkipValidate     bool   `json:"skip_validate"`
		Required         bool   `json:"required"`
		HeaderKey        string `json:"header_key"`
	} `json:"jwt"`
	Handlers struct {
		DefaultTimeout Duration `json:"default_timeout"`
		CommandTimeout Duration `json:"command_timeout"`
		QueryTimeout   Duration `json:"query_timeout"`
		UploadTimeout  Duration `json:"upload_timeout"`
	} `json:"handlers"`
	MetadataKeys     []string `json:"metadata_keys"`
	RateLimitEnabled *bool    `json:"rate_limit_enabled"`
	MaxUploadBytes   int64    `json:"max_upload_bytes" validate:"gte=0"`
}

// FileData 描述数据源。
type FileData struct {
	Postgres struct {
		DSN                       string   `json:"dsn" validate:"required"`
		MaxOpenConns              int      `json:"max_open_conns" validate:"gte=0"`
		MinOpenConns              int      `json:"min_open_conns" validate:"gte=0"`
		MaxConnLifetime           Duration `json:"max_conn_lifetime"`
		MaxConnIdleTime           Duration `json:"max_conn_idle_time"`
		HealthCheckPeriod         Duration `json:"health_check_period"`
		Schema                    string   `json:"schema"`
		PreparedStatementsEnabled bool     `json:"prepared_statements_enabled"`
		PoolMetricsEnabled        bool     `json:"pool_metrics_enabled"`
		Transaction               struct {
			DefaultIsolation string   `json:"default_isolation"`
			DefaultTimeout   Duration `json:"default_timeout"`
			LockTimeout      Duration `json:"lock_timeout"`
			MaxRetries       int      `json:"max_retries" validate:"gte=0"`
			MetricsEnabled   bool     `json:"metrics_enabled"`
		} `json:"transaction"`
	} `json:"postgres"`
}

// FileStorage 描述对象存储，三个命名空间各自对应一个 bucket。
type FileStorage struct {
	GCS struct {
		ProjectID             string   `json:"project_id"`
		Endpoint              string   `json:"endpoint" validate:"omitempty,url"`
		WithoutAuthentication bool     `json:"without_authentication"`
		PublicBaseURL         string   `json:"public_base_url" validate:"omitempty,url"`
		UploadTimeout         Duration `json:"upload_timeout"`
		Buckets               struct {
			CourseImages  string `json:"course_images" validate:"required"`
			Attachments   string `json:"attachments" validate:"required"`
			ChapterVideos string `json:"chapter_videos" validate:"required"`
		} `json:"buckets"`
	} `json:"gcs"`
}

// FileVideo 描述视频编码服务。
type FileVideo struct {
	Mux struct {
		BaseURL     string   `json:"base_url" validate:"omitempty,url"`
		TokenID     string   `json:"token_id"`
		TokenSecret string   `json:"token_secret"`
		Timeout     Duration `json:"timeout"`
	} `json:"mux"`
}

// FileObservability 描述 tracing 与 metrics。
type FileObservability struct {
	GlobalAttributes map[string]string `json:"global_attributes"`
	Tracing          struct {
		Enabled            bool              `json:"enabled"`
		Exporter           string            `json:"exporter"`
		Endpoint           string            `json:"endpoint"`
		Headers            map[string]string `json:"headers"`
		Insecure           bool              `json:"insecure"`
		SamplingRatio      float64           `json:"sampling_ratio" validate:"gte=0,lte=1"`
		BatchTimeout       Duration          `json:"batch_timeout"`
		ExportTimeout      Duration          `json:"export_timeout"`
		MaxQueueSize       int               `json:"max_queue_size"`
		MaxExportBatchSize int               `json:"max_export_batch_size"`
		Required           bool              `json:"required"`
		Attributes         map[string]string `json:"attributes"`
	} `json:"tracing"`
	Metrics struct {
		Enabled             bool              `json:"enabled"`
		Exporter            string            `json:"exporter"`
		Endpoint            string            `json:"endpoint"`
		Headers             map[string]string `json:"headers"`
		Insecure            bool              `json:"insecure"`
		Interval            Duration          `json:"interval"`
		DisableRuntimeStats bool              `json:"disable_runtime_stats"`
		Required            bool              `json:"required"`
		ResourceAttributes  map[string]string `json:"resource_attributes"`
	} `json:"metrics"`
}

// FileMessaging 描述 Pub/Sub 与 Outbox/Inbox。
type FileMessaging struct {
	PubSub    FilePubSub `json:"pubsub"`
	Reconcile FilePubSub `json:"reconcile"`
	Outbox    struct {
		BatchSize      int      `json:"batch_size" validate:"gte=0"`
		TickInterval   Duration `json:"tick_interval"`
		InitialBackoff Duration `json:"initial_backoff"`
		MaxBackoff     Duration `json:"max_backoff"`
		MaxAttempts    int      `json:"max_attempts" validate:"gte=0"`
		PublishTimeout Duration `json:"publish_timeout"`
		Workers        int      `json:"workers" validate:"gte=0"`
		LockTTL        Duration `json:"lock_ttl"`
		LoggingEnabled *bool    `json:"logging_enabled"`
		MetricsEnabled *bool    `json:"metrics_enabled"`
	} `json:"outbox"`
	Inbox struct {
		SourceService  string `json:"source_service"`
		MaxConcurrency int    `json:"max_concurrency" validate:"gte=0"`
		LoggingEnabled *bool  `json:"logging_enabled"`
		MetricsEnabled *bool  `json:"metrics_enabled"`
	} `json:"inbox"`
}

// FilePubSub 为单个 topic/subscription 配置。
type FilePubSub struct {
	ProjectID           string   `json:"project_id"`
	TopicID             string   `json:"topic_id"`
	SubscriptionID      string   `json:"subscription_id"`
	OrderingKeyEnabled  bool     `json:"ordering_key_enabled"`
	LoggingEnabled      bool     `json:"logging_enabled"`
	MetricsEnabled      bool     `json:"metrics_enabled"`
	EmulatorEndpoint    string   `json:"emulator_endpoint"`
	PublishTimeout      Duration `json:"publish_timeout"`
	ExactlyOnceDelivery bool     `json:"exactly_once_delivery"`
	DeadLetterTopicID   string   `json:"dead_letter_topic_id"`
	Receive             struct {
		NumGoroutines          int      `json:"num_goroutines"`
		MaxOutstandingMessages int      `json:"max_outstanding_messages"`
		MaxOutstandingBytes    int      `json:"max_outstanding_bytes"`
		MaxExtension           Duration `json:"max_extension"`
		MaxExtensionPeriod     Duration `json:"max_extension_period"`
	} `json:"receive"`
}

// Duration 支持 "5s" 形式的字符串或纳秒整数。
type Duration time.Duration

// UnmarshalJSON 实现 json.Unmarshaler。
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*d = 0
	case float64:
		*d = Duration(time.Duration(v))
	case string:
		if v == "" {
			*d = 0
			return nil
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
	return nil
}

// Std 返回 time.Duration。
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
