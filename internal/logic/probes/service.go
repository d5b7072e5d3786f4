// Package probes audits running pods in which no container declares a
// liveness or readiness probe.
package probes

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/podaudit/podaudit/internal/logic/workload"
)

// Finding is one container of a pod that has no health probes at all.
type Finding struct {
	Namespace      string  `json:"namespace" yaml:"namespace"`
	PodName        string  `json:"pod_name" yaml:"pod_name"`
	ContainerName  string  `json:"container_name" yaml:"container_name"`
	LivenessProbe  *string `json:"liveness_probe" yaml:"liveness_probe"`
	ReadinessProbe *string `json:"readiness_probe" yaml:"readiness_probe"`
}

// Service lists containers of running pods whose pod declares no probes.
type Service struct {
	logger *slog.Logger
	pods   workload.PodSource
}

// New creates the missing-health-probes audit service.
func New(logger *slog.Logger, pods workload.PodSource) *Service {
	return &Service{logger: logger, pods: pods}
}

// RunQuery returns one finding per container of every running pod in which
// no container has a liveness or readiness probe.
func (s *Service) RunQuery(ctx context.Context, namespaces []string, allNamespaces bool) ([]Finding, error) {
	pods, err := s.pods.ListPodsQuery(ctx, namespaces, allNamespaces)
	if err != nil {
		return nil, fmt.Errorf("list pods: %w", err)
	}

	findings := []Finding{}

	for i := range pods {
		pod := pods[i]
		if pod.Phase != "Running" || !pod.HasSpec {
			continue
		}

		if anyContainerProbed(pod) {
			continue
		}

		for j := range pod.Containers {
			findings = append(findings, Finding{
				Namespace:      pod.Namespace,
				PodName:        pod.Name,
				ContainerName:  pod.Containers[j].Name,
				LivenessProbe:  probeSummary(pod.Containers[j].HasLivenessProbe, pod.Containers[j].LivenessProbe),
				ReadinessProbe: probeSummary(pod.Containers[j].HasReadinessProbe, pod.Containers[j].ReadinessProbe),
			})
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		if a.PodName != b.PodName {
			return a.PodName < b.PodName
		}

		return a.ContainerName < b.ContainerName
	})

	s.logger.InfoContext(ctx, "audit complete", "audit", "missing-health-probes", "findings", len(findings))

	return findings, nil
}

func anyContainerProbed(pod workload.Pod) bool {
	for i := range pod.Containers {
		if pod.Containers[i].HasLivenessProbe || pod.Containers[i].HasReadinessProbe {
			return true
		}
	}

	return false
}

func probeSummary(present bool, summary string) *string {
	if !present {
		return nil
	}

	return &summary
}
