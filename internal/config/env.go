package config

// Env key constants. All podaudit configuration env vars use the PODAUDIT_
// prefix; the standard kubectl variables are honored as fallbacks.

const envPrefix = "PODAUDIT"

// Viper keys. With the prefix these resolve to PODAUDIT_KUBECONFIG,
// PODAUDIT_LOG_LEVEL and so on.
const (
	keyKubeConfig = "kubeconfig"
	keyKubeMaster = "kube-master"
	keyLogLevel   = "log-level"
	keyLogFormat  = "log-format"
	keyOutput     = "output"
)

// Path to kubeconfig file. If unset, KUBECONFIG is used as fallback.
const envKeyKubeConfig = "PODAUDIT_KUBECONFIG"

// Kubernetes API server URL. If unset, KUBERNETES_MASTER is used as fallback.
const envKeyKubeMaster = "PODAUDIT_KUBE_MASTER"

// Standard k8s env keys used as fallback when PODAUDIT_* are unset.
const (
	envKeyKubeConfigFallback = "KUBECONFIG"
	envKeyKubeMasterFallback = "KUBERNETES_MASTER"
)
