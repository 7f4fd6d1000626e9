package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// Blob storage. "local" keeps project artifacts on the filesystem under
	// StorageRoot; "s3" uses the bucket settings below with the same layout.
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"local"`
	StorageRoot    string `envconfig:"STORAGE_ROOT" default:"./data/storage"`
	S3URL          string `envconfig:"S3_URL"`
	S3Bucket       string `envconfig:"S3_BUCKET"`
	S3Region       string `envconfig:"S3_REGION"`
	S3AccessKey    string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey    string `envconfig:"S3_SECRET_KEY"`
	S3Prefix       string `envconfig:"S3_PREFIX"`

	// Shared provider API keys for instruction interpretation. When a key is
	// empty the interpreter falls back to the user's own key in Secret
	// Manager before failing with a not-configured error.
	GoogleAIAPIKey  string `envconfig:"GOOGLE_AI_API_KEY"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`

	// New users are subscribed to this plan on first use.
	DefaultPlanName string `envconfig:"DEFAULT_PLAN_NAME" default:"Free"`

	GCPProjectID    string `envconfig:"GCP_PROJECT_ID"`
	PubSubEditTopic string `envconfig:"PUBSUB_EDIT_TOPIC" default:"edit_events"`

	// Reconcile worker settings
	ReconcileQueueName           string `envconfig:"RECONCILE_QUEUE_NAME" default:"edit_reconcile"`
	ReconcilePollTimeoutSec      int    `envconfig:"RECONCILE_POLL_TIMEOUT_SEC" default:"30"`
	ReconcilePollMaxMsg          int    `envconfig:"RECONCILE_POLL_MAX_MSG" default:"1"`
	ReconcileMaxRetries          int    `envconfig:"RECONCILE_MAX_RETRIES" default:"5"`
	ReconcileBackoffInitialSec   int    `envconfig:"RECONCILE_BACKOFF_INITIAL_SEC" default:"1"`
	ReconcileBackoffMaxSec       int    `envconfig:"RECONCILE_BACKOFF_MAX_SEC" default:"60"`
	ReconcileDeadLetterQueueName string `envconfig:"RECONCILE_DEAD_LETTER_QUEUE_NAME" default:"edit_reconcile_dlq"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
