package workload

import "context"

// Kinds the ownership resolver is allowed to expand with one extra lookup.
const (
	KindReplicaSet = "ReplicaSet"
	KindJob        = "Job"
)

// PodSource is the port for listing pods. Implementations are provided by
// adapters in the outbound layer.
type PodSource interface {
	ListPodsQuery(
		ctx context.Context,
		namespaces []string,
		allNamespaces bool,
	) ([]Pod, error)
}

// ObjectSource is the port for fetching a single intermediate workload object
// by name. kind must be KindReplicaSet or KindJob. A lookup that does not
// match exactly one object fails with a not-found or ambiguous error.
type ObjectSource interface {
	GetByNameQuery(
		ctx context.Context,
		namespace,
		name,
		kind string,
	) (*ControlledObject, error)
}

// MetricsSource is the port for fetching live pod metrics.
type MetricsSource interface {
	GetPodMetricsQuery(
		ctx context.Context,
		namespace,
		name string,
	) (*PodUsage, error)
}

// NotFound is a private-style interface for checking "not found" errors
// without importing the adapter package.
type NotFound interface {
	IsNotFound()
}

// Ambiguous marks lookups that matched more than one object.
type Ambiguous interface {
	IsAmbiguous()
}
