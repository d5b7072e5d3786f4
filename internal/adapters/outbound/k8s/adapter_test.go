package k8s_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	k8sfake "k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	metricsfake "k8s.io/metrics/pkg/client/clientset/versioned/fake"

	"github.com/podaudit/podaudit/internal/adapters/outbound/k8s"
	"github.com/podaudit/podaudit/internal/logic/workload"
)

func boolPtr(v bool) *bool {
	return &v
}

func testPod(namespace, name string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
			OwnerReferences: []metav1.OwnerReference{
				{Name: "rs1", Kind: "ReplicaSet", Controller: boolPtr(true)},
			},
		},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{
				{
					Name: "app",
					Resources: corev1.ResourceRequirements{
						Requests: corev1.ResourceList{
							corev1.ResourceCPU:    resource.MustParse("100m"),
							corev1.ResourceMemory: resource.MustParse("512Mi"),
						},
						Limits: corev1.ResourceList{
							corev1.ResourceCPU: resource.MustParse("200m"),
						},
					},
					LivenessProbe: &corev1.Probe{
						ProbeHandler: corev1.ProbeHandler{
							HTTPGet: &corev1.HTTPGetAction{Path: "/healthz"},
						},
					},
					SecurityContext: &corev1.SecurityContext{
						ReadOnlyRootFilesystem: boolPtr(false),
					},
				},
			},
		},
		Status: corev1.PodStatus{Phase: corev1.PodRunning},
	}
}

func newAdapter(clientset *k8sfake.Clientset, metricsClientset *metricsfake.Clientset) k8s.Source {
	return k8s.New(slog.Default(), clientset, metricsClientset)
}

func TestListPodsQuery(t *testing.T) {
	t.Parallel()

	t.Run("converts pods to the domain model", func(t *testing.T) {
		t.Parallel()

		clientset := k8sfake.NewSimpleClientset(testPod("prod", "web-1"))
		source := newAdapter(clientset, metricsfake.NewSimpleClientset())

		pods, err := source.ListPodsQuery(t.Context(), []string{"prod"}, false)
		require.NoError(t, err)
		require.Len(t, pods, 1)

		pod := pods[0]
		require.Equal(t, "web-1", pod.Name)
		require.Equal(t, "prod", pod.Namespace)
		require.Equal(t, "Running", pod.Phase)
		require.True(t, pod.HasSpec)
		require.Equal(t, []workload.OwnerReference{
			{Name: "rs1", Kind: "ReplicaSet", Controller: true},
		}, pod.OwnerReferences)

		require.Len(t, pod.Containers, 1)
		container := pod.Containers[0]
		require.Equal(t, "app", container.Name)
		require.Equal(t, "100m", container.Requests.CPU)
		require.Equal(t, "512Mi", container.Requests.Memory)
		require.Equal(t, "200m", container.Limits.CPU)
		require.Empty(t, container.Limits.Memory)
		require.True(t, container.HasLivenessProbe)
		require.False(t, container.HasReadinessProbe)
		require.NotNil(t, container.ReadOnlyRootFilesystem)
		require.False(t, *container.ReadOnlyRootFilesystem)
	})

	t.Run("scopes to the requested namespaces", func(t *testing.T) {
		t.Parallel()

		clientset := k8sfake.NewSimpleClientset(
			testPod("prod", "web-1"),
			testPod("staging", "web-1"),
			testPod("dev", "web-1"),
		)
		source := newAdapter(clientset, metricsfake.NewSimpleClientset())

		pods, err := source.ListPodsQuery(t.Context(), []string{"prod", "staging"}, false)
		require.NoError(t, err)
		require.Len(t, pods, 2)
	})

	t.Run("all namespaces lists cluster-wide", func(t *testing.T) {
		t.Parallel()

		clientset := k8sfake.NewSimpleClientset(
			testPod("prod", "web-1"),
			testPod("staging", "web-1"),
		)
		source := newAdapter(clientset, metricsfake.NewSimpleClientset())

		pods, err := source.ListPodsQuery(t.Context(), nil, true)
		require.NoError(t, err)
		require.Len(t, pods, 2)
	})
}

func TestGetByNameQuery(t *testing.T) {
	t.Parallel()

	t.Run("replicaset found with owner references", func(t *testing.T) {
		t.Parallel()

		rs := &appsv1.ReplicaSet{
			ObjectMeta: metav1.ObjectMeta{
				Name:      "rs1",
				Namespace: "prod",
				OwnerReferences: []metav1.OwnerReference{
					{Name: "dep1", Kind: "Deployment", Controller: boolPtr(true)},
				},
			},
		}

		source := newAdapter(k8sfake.NewSimpleClientset(rs), metricsfake.NewSimpleClientset())

		object, err := source.GetByNameQuery(t.Context(), "prod", "rs1", workload.KindReplicaSet)
		require.NoError(t, err)
		require.Equal(t, "rs1", object.Name)
		require.Equal(t, workload.KindReplicaSet, object.Kind)
		require.Equal(t, []workload.OwnerReference{
			{Name: "dep1", Kind: "Deployment", Controller: true},
		}, object.OwnerReferences)
	})

	t.Run("no match is a not-found error", func(t *testing.T) {
		t.Parallel()

		source := newAdapter(k8sfake.NewSimpleClientset(), metricsfake.NewSimpleClientset())

		object, err := source.GetByNameQuery(t.Context(), "prod", "rs1", workload.KindReplicaSet)
		require.Error(t, err)
		require.Nil(t, object)

		var notFound *k8s.ObjectNotFoundError
		require.ErrorAs(t, err, &notFound)

		var marker workload.NotFound
		require.ErrorAs(t, err, &marker)
	})

	t.Run("more than one match is ambiguous", func(t *testing.T) {
		t.Parallel()

		clientset := k8sfake.NewSimpleClientset()
		clientset.PrependReactor("list", "replicasets",
			func(action k8stesting.Action) (bool, runtime.Object, error) {
				return true, &appsv1.ReplicaSetList{Items: []appsv1.ReplicaSet{
					{ObjectMeta: metav1.ObjectMeta{Name: "rs1", Namespace: "prod"}},
					{ObjectMeta: metav1.ObjectMeta{Name: "rs1", Namespace: "prod"}},
				}}, nil
			})

		source := newAdapter(clientset, metricsfake.NewSimpleClientset())

		object, err := source.GetByNameQuery(t.Context(), "prod", "rs1", workload.KindReplicaSet)
		require.Error(t, err)
		require.Nil(t, object)

		var ambiguous *k8s.AmbiguousObjectError
		require.ErrorAs(t, err, &ambiguous)
		require.Equal(t, 2, ambiguous.Count)

		var marker workload.Ambiguous
		require.ErrorAs(t, err, &marker)
	})

	t.Run("unsupported kind is rejected", func(t *testing.T) {
		t.Parallel()

		source := newAdapter(k8sfake.NewSimpleClientset(), metricsfake.NewSimpleClientset())

		object, err := source.GetByNameQuery(t.Context(), "prod", "sts1", "StatefulSet")
		require.Error(t, err)
		require.Nil(t, object)
	})
}

func TestGetPodMetricsQuery(t *testing.T) {
	t.Parallel()

	t.Run("converts usage to raw quantity strings", func(t *testing.T) {
		t.Parallel()

		podMetrics := &metricsv1beta1.PodMetrics{
			ObjectMeta: metav1.ObjectMeta{Name: "web-1", Namespace: "prod"},
			Containers: []metricsv1beta1.ContainerMetrics{
				{
					Name: "app",
					Usage: corev1.ResourceList{
						corev1.ResourceCPU:    resource.MustParse("150m"),
						corev1.ResourceMemory: resource.MustParse("512Mi"),
					},
				},
			},
		}

		// The generated metrics fake serves PodMetrics under the "pods"
		// resource, but NewSimpleClientset seeds the tracker under the
		// guessed "podmetricses" resource, so seed the tracker directly.
		metricsClientset := metricsfake.NewSimpleClientset()
		require.NoError(t, metricsClientset.Tracker().Create(
			metricsv1beta1.SchemeGroupVersion.WithResource("pods"), podMetrics, "prod"))

		source := newAdapter(k8sfake.NewSimpleClientset(), metricsClientset)

		usage, err := source.GetPodMetricsQuery(t.Context(), "prod", "web-1")
		require.NoError(t, err)
		require.Len(t, usage.Containers, 1)
		require.Equal(t, "app", usage.Containers[0].Name)
		require.Equal(t, "150m", usage.Containers[0].CPU)
		require.Equal(t, "512Mi", usage.Containers[0].Memory)
	})

	t.Run("missing metrics is a not-found error", func(t *testing.T) {
		t.Parallel()

		source := newAdapter(k8sfake.NewSimpleClientset(), metricsfake.NewSimpleClientset())

		usage, err := source.GetPodMetricsQuery(t.Context(), "prod", "web-1")
		require.Error(t, err)
		require.Nil(t, usage)

		var notFound *k8s.MetricsNotFoundError
		require.ErrorAs(t, err, &notFound)

		var marker workload.NotFound
		require.ErrorAs(t, err, &marker)
		require.False(t, errors.As(err, new(workload.Ambiguous)))
	})
}
