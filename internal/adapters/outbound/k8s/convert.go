package k8s

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"

	"github.com/podaudit/podaudit/internal/logic/workload"
)

// toDomainPod converts a corev1 pod to the domain model. Declared and
// measured quantities cross the boundary as raw strings so the logic layer
// owns all parsing.
func toDomainPod(pod *corev1.Pod) workload.Pod {
	out := workload.Pod{
		Name:            pod.Name,
		Namespace:       pod.Namespace,
		Phase:           string(pod.Status.Phase),
		HasSpec:         len(pod.Spec.Containers) > 0,
		OwnerReferences: toDomainOwnerReferences(pod.OwnerReferences),
		Containers:      make([]workload.Container, 0, len(pod.Spec.Containers)),
	}

	for i := range pod.Spec.Containers {
		container := &pod.Spec.Containers[i]

		domain := workload.Container{
			Name: container.Name,
			Requests: workload.QuantitySet{
				CPU:    quantityString(container.Resources.Requests, corev1.ResourceCPU),
				Memory: quantityString(container.Resources.Requests, corev1.ResourceMemory),
			},
			Limits: workload.QuantitySet{
				CPU:    quantityString(container.Resources.Limits, corev1.ResourceCPU),
				Memory: quantityString(container.Resources.Limits, corev1.ResourceMemory),
			},
		}

		if container.LivenessProbe != nil {
			domain.HasLivenessProbe = true
			domain.LivenessProbe = container.LivenessProbe.String()
		}

		if container.ReadinessProbe != nil {
			domain.HasReadinessProbe = true
			domain.ReadinessProbe = container.ReadinessProbe.String()
		}

		if container.SecurityContext != nil {
			domain.ReadOnlyRootFilesystem = container.SecurityContext.ReadOnlyRootFilesystem
		}

		out.Containers = append(out.Containers, domain)
	}

	return out
}

func toDomainControlledObject(kind string, meta *metav1.ObjectMeta) *workload.ControlledObject {
	return &workload.ControlledObject{
		Name:            meta.Name,
		Namespace:       meta.Namespace,
		Kind:            kind,
		OwnerReferences: toDomainOwnerReferences(meta.OwnerReferences),
	}
}

func toDomainOwnerReferences(refs []metav1.OwnerReference) []workload.OwnerReference {
	if len(refs) == 0 {
		return nil
	}

	out := make([]workload.OwnerReference, 0, len(refs))
	for i := range refs {
		out = append(out, workload.OwnerReference{
			Name:       refs[i].Name,
			Kind:       refs[i].Kind,
			Controller: refs[i].Controller != nil && *refs[i].Controller,
		})
	}

	return out
}

func toDomainPodUsage(podMetrics *metricsv1beta1.PodMetrics) *workload.PodUsage {
	usage := &workload.PodUsage{
		Containers: make([]workload.ContainerUsage, 0, len(podMetrics.Containers)),
	}

	for i := range podMetrics.Containers {
		usage.Containers = append(usage.Containers, workload.ContainerUsage{
			Name:   podMetrics.Containers[i].Name,
			CPU:    quantityString(podMetrics.Containers[i].Usage, corev1.ResourceCPU),
			Memory: quantityString(podMetrics.Containers[i].Usage, corev1.ResourceMemory),
		})
	}

	return usage
}

func quantityString(list corev1.ResourceList, name corev1.ResourceName) string {
	quantity, ok := list[name]
	if !ok {
		return ""
	}

	return quantity.String()
}
