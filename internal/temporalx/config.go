package temporalx

import (
	"strings"

	"github.com/yungbote/veritas-backend/internal/platform/envutil"
)

type Config struct {
	Address   string `yaml:"address"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"task_queue"`

	ClientCertPath string `yaml:"client_cert_path,omitempty"`
	ClientKeyPath  string `yaml:"client_key_path,omitempty"`
	ClientCAPath   string `yaml:"client_ca_path,omitempty"`

	AutoRegisterNamespace bool `yaml:"auto_register_namespace"`
	WorkerConcurrency     int  `yaml:"worker_concurrency"`
}

// LoadConfig reads the TEMPORAL_* environment.
func LoadConfig() Config {
	return Config{
		Address:   envutil.String("TEMPORAL_ADDRESS", ""),
		Namespace: envutil.String("TEMPORAL_NAMESPACE", "veritas"),
		TaskQueue: envutil.String("TEMPORAL_TASK_QUEUE", "veritas-recompute"),

		ClientCertPath: envutil.String("TEMPORAL_CLIENT_CERT_PATH", ""),
		ClientKeyPath:  envutil.String("TEMPORAL_CLIENT_KEY_PATH", ""),
		ClientCAPath:   envutil.String("TEMPORAL_CLIENT_CA_PATH", ""),

		AutoRegisterNamespace: envutil.Bool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false),
		WorkerConcurrency:     envutil.Int("WORKER_CONCURRENCY", 4),
	}
}

// Merge fills empty fields of c from fallback.
func (c Config) Merge(fallback Config) Config {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = fallback.Address
	}
	if strings.TrimSpace(c.Namespace) == "" {
		c.Namespace = fallback.Namespace
	}
	if strings.TrimSpace(c.TaskQueue) == "" {
		c.TaskQueue = fallback.TaskQueue
	}
	if c.ClientCertPath == "" {
		c.ClientCertPath = fallback.ClientCertPath
	}
	if c.ClientKeyPath == "" {
		c.ClientKeyPath = fallback.ClientKeyPath
	}
	if c.ClientCAPath == "" {
		c.ClientCAPath = fallback.ClientCAPath
	}
	if !c.AutoRegisterNamespace {
		c.AutoRegisterNamespace = fallback.AutoRegisterNamespace
	}
	if c.WorkerConcurrency <= 0 {
		c.WorkerConcurrency = fallback.WorkerConcurrency
	}
	return c
}

func (c Config) hasTLS() bool {
	return c.ClientCertPath != "" || c.ClientKeyPath != "" || c.ClientCAPath != ""
}
