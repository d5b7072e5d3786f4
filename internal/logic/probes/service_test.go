package probes_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/podaudit/podaudit/internal/logic/probes"
	"github.com/podaudit/podaudit/internal/logic/workload"
)

type fakePodSource struct {
	pods []workload.Pod
	err  error
}

func (f *fakePodSource) ListPodsQuery(_ context.Context, _ []string, _ bool) ([]workload.Pod, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.pods, nil
}

func runningPod(namespace, name string, containers ...workload.Container) workload.Pod {
	return workload.Pod{
		Name:       name,
		Namespace:  namespace,
		Phase:      "Running",
		HasSpec:    true,
		Containers: containers,
	}
}

func TestProbesRunQuery(t *testing.T) {
	t.Parallel()

	t.Run("list failure aborts", func(t *testing.T) {
		t.Parallel()

		svc := probes.New(slog.Default(), &fakePodSource{err: errors.New("boom")})

		findings, err := svc.RunQuery(t.Context(), nil, true)
		require.Error(t, err)
		require.Nil(t, findings)
	})

	t.Run("reports all containers of unprobed pods", func(t *testing.T) {
		t.Parallel()

		svc := probes.New(slog.Default(), &fakePodSource{pods: []workload.Pod{
			runningPod("prod", "unprobed",
				workload.Container{Name: "app"},
				workload.Container{Name: "sidecar"},
			),
		}})

		findings, err := svc.RunQuery(t.Context(), nil, true)
		require.NoError(t, err)
		require.Len(t, findings, 2)
		require.Equal(t, "app", findings[0].ContainerName)
		require.Equal(t, "sidecar", findings[1].ContainerName)
		require.Nil(t, findings[0].LivenessProbe)
		require.Nil(t, findings[0].ReadinessProbe)
	})

	t.Run("one probed container clears the whole pod", func(t *testing.T) {
		t.Parallel()

		svc := probes.New(slog.Default(), &fakePodSource{pods: []workload.Pod{
			runningPod("prod", "half-probed",
				workload.Container{Name: "app", HasLivenessProbe: true, LivenessProbe: "httpGet /healthz"},
				workload.Container{Name: "sidecar"},
			),
		}})

		findings, err := svc.RunQuery(t.Context(), nil, true)
		require.NoError(t, err)
		require.Empty(t, findings)
	})

	t.Run("non-running pods are skipped", func(t *testing.T) {
		t.Parallel()

		pod := runningPod("prod", "done", workload.Container{Name: "app"})
		pod.Phase = "Succeeded"

		svc := probes.New(slog.Default(), &fakePodSource{pods: []workload.Pod{pod}})

		findings, err := svc.RunQuery(t.Context(), nil, true)
		require.NoError(t, err)
		require.Empty(t, findings)
	})

	t.Run("findings sorted by key", func(t *testing.T) {
		t.Parallel()

		svc := probes.New(slog.Default(), &fakePodSource{pods: []workload.Pod{
			runningPod("prod", "zz", workload.Container{Name: "app"}),
			runningPod("dev", "aa", workload.Container{Name: "app"}),
		}})

		findings, err := svc.RunQuery(t.Context(), nil, true)
		require.NoError(t, err)
		require.Len(t, findings, 2)
		require.Equal(t, "dev", findings[0].Namespace)
		require.Equal(t, "prod", findings[1].Namespace)
	})
}
