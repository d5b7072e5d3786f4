// Package rootfs audits containers that do not run on a read-only root
// filesystem.
package rootfs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/podaudit/podaudit/internal/logic/workload"
)

// Finding is one container whose root filesystem is writable.
type Finding struct {
	Namespace     string `json:"namespace" yaml:"namespace"`
	PodName       string `json:"pod_name" yaml:"pod_name"`
	ContainerName string `json:"container_name" yaml:"container_name"`
}

// Service lists containers whose security context does not explicitly set
// readOnlyRootFilesystem to true.
type Service struct {
	logger *slog.Logger
	pods   workload.PodSource
}

// New creates the readonly-root-filesystem audit service.
func New(logger *slog.Logger, pods workload.PodSource) *Service {
	return &Service{logger: logger, pods: pods}
}

// RunQuery returns a finding for every container that leaves its root
// filesystem writable, i.e. readOnlyRootFilesystem unset or false.
func (s *Service) RunQuery(ctx context.Context, namespaces []string, allNamespaces bool) ([]Finding, error) {
	pods, err := s.pods.ListPodsQuery(ctx, namespaces, allNamespaces)
	if err != nil {
		return nil, fmt.Errorf("list pods: %w", err)
	}

	findings := []Finding{}

	for i := range pods {
		pod := pods[i]
		if !pod.HasSpec {
			continue
		}

		for j := range pod.Containers {
			readOnly := pod.Containers[j].ReadOnlyRootFilesystem
			if readOnly != nil && *readOnly {
				continue
			}

			findings = append(findings, Finding{
				Namespace:     pod.Namespace,
				PodName:       pod.Name,
				ContainerName: pod.Containers[j].Name,
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

	s.logger.InfoContext(ctx, "audit complete", "audit", "readonly-root-filesystem", "findings", len(findings))

	return findings, nil
}
