package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"clover-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`

	// PostgreSQL (item reports and usage ledger)
	DatabaseDriver              string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                string        `env:"DB_HOST" env-default:""`
	DatabasePort                string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword            string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                string        `env:"DB_NAME" env-default:"clover"`
	DatabaseSSLMode             string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`

	// Redis (quota counting store)
	RedisHost      string `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort      int    `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword  string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB        int    `env:"REDIS_DB" env-default:"0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" env-default:"clover:quota:"`

	// Auth
	AuthEnabled   bool   `env:"AUTH_ENABLED" env-default:"false"`
	AuthIssuerURL string `env:"AUTH_ISSUER_URL" env-default:""`
	AuthClientID  string `env:"AUTH_CLIENT_ID" env-default:""`

	// Kafka Producer settings
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" env-default:"true"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"clover-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// AI attribute extractor
	ExtractorEndpoint string        `env:"EXTRACTOR_ENDPOINT" env-default:""`
	ExtractorAPIKey   string        `env:"EXTRACTOR_API_KEY" env-default:""`
	ExtractorTimeout  time.Duration `env:"EXTRACTOR_TIMEOUT" env-default:"10s"`

	// Scoring
	ScoreTextWeight            float64 `env:"SCORE_TEXT_WEIGHT" env-default:"0.35"`
	ScoreCategoryWeight        float64 `env:"SCORE_CATEGORY_WEIGHT" env-default:"0.20"`
	ScoreLocationWeight        float64 `env:"SCORE_LOCATION_WEIGHT" env-default:"0.20"`
	ScoreDateWeight            float64 `env:"SCORE_DATE_WEIGHT" env-default:"0.25"`
	ScoreDecayDays             int     `env:"SCORE_DECAY_DAYS" env-default:"14"`
	ScoreZoneCredit            float64 `env:"SCORE_ZONE_CREDIT" env-default:"0.5"`
	ScoreUnknownCategoryCredit float64 `env:"SCORE_UNKNOWN_CATEGORY_CREDIT" env-default:"0.25"`

	// Ranking
	MatchMinScore      float64 `env:"MATCH_MIN_SCORE" env-default:"0.15"`
	MatchMaxCandidates int     `env:"MATCH_MAX_CANDIDATES" env-default:"50"`

	// Quota Guard
	RateLimitEnabled       bool  `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	RateLimitPerUserMinute int64 `env:"RATE_LIMIT_PER_USER_MINUTE" env-default:"5"`
	RateLimitPerUserHour   int64 `env:"RATE_LIMIT_PER_USER_HOUR" env-default:"50"`
	RateLimitSystemEnabled bool  `env:"RATE_LIMIT_SYSTEM_ENABLED" env-default:"true"`
	RateLimitSystemMinute  int64 `env:"RATE_LIMIT_SYSTEM_MINUTE" env-default:"60"`
	RateLimitSystemHour    int64 `env:"RATE_LIMIT_SYSTEM_HOUR" env-default:"1000"`

	// Tracing
	TracingEnabled  bool   `env:"TRACING_ENABLED" env-default:"false"`
	TracingEndpoint string `env:"TRACING_ENDPOINT" env-default:"localhost:4317"`
	TracingProtocol string `env:"TRACING_PROTOCOL" env-default:"grpc"`
	TracingInsecure bool   `env:"TRACING_INSECURE" env-default:"true"`
}
