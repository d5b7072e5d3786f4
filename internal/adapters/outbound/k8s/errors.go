package k8s

import "fmt"

// ObjectNotFoundError means an ownership lookup matched no object.
type ObjectNotFoundError struct {
	Kind      string
	Namespace string
	Name      string
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("%s %s/%s not found", e.Kind, e.Namespace, e.Name)
}

func (e *ObjectNotFoundError) IsNotFound() {}

// AmbiguousObjectError means an ownership lookup matched more than one object.
type AmbiguousObjectError struct {
	Kind      string
	Namespace string
	Name      string
	Count     int
}

func (e *AmbiguousObjectError) Error() string {
	return fmt.Sprintf("expected 1 %s named %s/%s, got %d", e.Kind, e.Namespace, e.Name, e.Count)
}

func (e *AmbiguousObjectError) IsAmbiguous() {}

// MetricsNotFoundError means the metrics API has no data for the pod yet.
type MetricsNotFoundError struct {
	Namespace string
	Name      string
}

func (e *MetricsNotFoundError) Error() string {
	return fmt.Sprintf("metrics for pod %s/%s not found", e.Namespace, e.Name)
}

func (e *MetricsNotFoundError) IsNotFound() {}
