package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds process-wide settings resolved from the environment. Audit
// scoping (namespaces, thresholds) comes from command flags instead.
type Config struct {
	KubeConfig string
	KubeMaster string
	LogLevel   string
	LogFormat  string
	Output     string
}

// Load resolves configuration from PODAUDIT_* env vars, falling back to the
// standard KUBECONFIG / KUBERNETES_MASTER variables for cluster access.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "text")
	v.SetDefault(keyOutput, "json")

	// Explicit bindings so the kubectl-standard variables act as fallbacks,
	// checked after the prefixed ones.
	if err := v.BindEnv(keyKubeConfig, envKeyKubeConfig, envKeyKubeConfigFallback); err != nil {
		return nil, err
	}

	if err := v.BindEnv(keyKubeMaster, envKeyKubeMaster, envKeyKubeMasterFallback); err != nil {
		return nil, err
	}

	cfg := &Config{
		KubeConfig: v.GetString(keyKubeConfig),
		KubeMaster: v.GetString(keyKubeMaster),
		LogLevel:   v.GetString(keyLogLevel),
		LogFormat:  v.GetString(keyLogFormat),
		Output:     v.GetString(keyOutput),
	}

	return cfg, nil
}
