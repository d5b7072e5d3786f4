package k8s

import (
	"context"
	"fmt"
	"log/slog"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/podaudit/podaudit/internal/logic/workload"
)

type adapter struct {
	logger           *slog.Logger
	clientset        kubernetes.Interface
	metricsClientset metricsv.Interface
}

// Source bundles the three ports the audits consume, all backed by the same
// pair of clientsets.
type Source interface {
	workload.PodSource
	workload.ObjectSource
	workload.MetricsSource
}

// New creates a new K8s adapter.
func New(
	logger *slog.Logger,
	clientset kubernetes.Interface,
	metricsClientset metricsv.Interface,
) Source {
	return &adapter{
		logger:           logger,
		clientset:        clientset,
		metricsClientset: metricsClientset,
	}
}

var _ Source = (*adapter)(nil)

// ListPodsQuery lists pods across the given namespaces, or cluster-wide when
// allNamespaces is set. The caller resolves the default namespace, so the
// namespace list is never empty unless allNamespaces is true.
func (a *adapter) ListPodsQuery(
	ctx context.Context,
	namespaces []string,
	allNamespaces bool,
) ([]workload.Pod, error) {
	if allNamespaces {
		namespaces = []string{metav1.NamespaceAll}
	}

	var pods []workload.Pod

	for _, namespace := range namespaces {
		podList, err := a.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
		if err != nil {
			return nil, fmt.Errorf("list pods in %q: %w", namespace, err)
		}

		for i := range podList.Items {
			pods = append(pods, toDomainPod(&podList.Items[i]))
		}
	}

	return pods, nil
}

// GetByNameQuery fetches a ReplicaSet or Job by name via a field-selector
// list, failing when the match count is not exactly one.
func (a *adapter) GetByNameQuery(
	ctx context.Context,
	namespace,
	name,
	kind string,
) (*workload.ControlledObject, error) {
	opts := metav1.ListOptions{
		FieldSelector: "metadata.name=" + name,
	}

	var metas []metav1.ObjectMeta

	switch kind {
	case workload.KindReplicaSet:
		list, err := a.clientset.AppsV1().ReplicaSets(namespace).List(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("list replicasets: %w", err)
		}

		for i := range list.Items {
			metas = append(metas, list.Items[i].ObjectMeta)
		}
	case workload.KindJob:
		list, err := a.clientset.BatchV1().Jobs(namespace).List(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}

		for i := range list.Items {
			metas = append(metas, list.Items[i].ObjectMeta)
		}
	default:
		return nil, fmt.Errorf("get %s/%s: unsupported kind %q", namespace, name, kind)
	}

	switch len(metas) {
	case 0:
		return nil, fmt.Errorf("get %s: %w", kind, &ObjectNotFoundError{
			Kind:      kind,
			Namespace: namespace,
			Name:      name,
		})
	case 1:
	default:
		return nil, fmt.Errorf("get %s: %w", kind, &AmbiguousObjectError{
			Kind:      kind,
			Namespace: namespace,
			Name:      name,
			Count:     len(metas),
		})
	}

	return toDomainControlledObject(kind, &metas[0]), nil
}

// GetPodMetricsQuery fetches live usage for one pod from the metrics API.
func (a *adapter) GetPodMetricsQuery(
	ctx context.Context,
	namespace,
	name string,
) (*workload.PodUsage, error) {
	podMetrics, err := a.metricsClientset.MetricsV1beta1().PodMetricses(namespace).Get(
		ctx,
		name,
		metav1.GetOptions{},
	)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, fmt.Errorf("get pod metrics: %w", &MetricsNotFoundError{
				Namespace: namespace,
				Name:      name,
			})
		}

		return nil, fmt.Errorf("get pod metrics: %w", err)
	}

	return toDomainPodUsage(podMetrics), nil
}
