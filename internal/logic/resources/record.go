package resources

import (
	"fmt"

	"github.com/podaudit/podaudit/internal/logic/workload"
)

// ResourcePair is an optional cpu/memory amount pair. nil means the amount
// was never declared or measured, which is distinct from zero.
type ResourcePair struct {
	CPU    *Cpu    `json:"cpu,omitempty" yaml:"cpu,omitempty"`
	Memory *Memory `json:"memory,omitempty" yaml:"memory,omitempty"`
}

// Add combines two pairs with the coalescing rule: absent acts as identity.
func (p ResourcePair) Add(rhs ResourcePair) ResourcePair {
	return ResourcePair{
		CPU:    addOption(p.CPU, rhs.CPU),
		Memory: addOption(p.Memory, rhs.Memory),
	}
}

// SaturatingSub subtracts rhs field-wise, clamped at zero. A component is
// present in the result only when both operands carry it.
func (p ResourcePair) SaturatingSub(rhs ResourcePair) ResourcePair {
	return ResourcePair{
		CPU:    subOption(p.CPU, rhs.CPU),
		Memory: subOption(p.Memory, rhs.Memory),
	}
}

// Difference holds the per-record saturated headroom between declarations
// and measured usage.
type Difference struct {
	Requests ResourcePair `json:"requests" yaml:"requests"`
	Limits   ResourcePair `json:"limits" yaml:"limits"`
}

// Owner is the resolved top controller of a pod.
type Owner struct {
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"`
}

// Record is one audited container of one running pod. Its key
// (namespace, pod, container) is unique within a run.
type Record struct {
	Namespace     string `json:"namespace" yaml:"namespace"`
	PodName       string `json:"pod_name" yaml:"pod_name"`
	ContainerName string `json:"container_name" yaml:"container_name"`

	Owner *Owner `json:"owner,omitempty" yaml:"owner,omitempty"`

	Requests   ResourcePair `json:"requests" yaml:"requests"`
	Limits     ResourcePair `json:"limits" yaml:"limits"`
	Usage      ResourcePair `json:"usage" yaml:"usage"`
	Difference Difference   `json:"difference" yaml:"difference"`
}

type recordKey struct {
	namespace string
	pod       string
	container string
}

func (r *Record) key() recordKey {
	return recordKey{namespace: r.Namespace, pod: r.PodName, container: r.ContainerName}
}

// buildRecord parses one container's declared resources into a Record.
// Parse failures are fatal for the run and carry enough context to find the
// offending field.
func buildRecord(pod workload.Pod, container workload.Container, owner *Owner) (Record, error) {
	rec := Record{
		Namespace:     pod.Namespace,
		PodName:       pod.Name,
		ContainerName: container.Name,
		Owner:         owner,
	}

	var err error

	rec.Requests, err = parsePair(container.Requests)
	if err != nil {
		return Record{}, recordFieldError(rec, "requests", err)
	}

	rec.Limits, err = parsePair(container.Limits)
	if err != nil {
		return Record{}, recordFieldError(rec, "limits", err)
	}

	return rec, nil
}

// mergeUsage fills in measured consumption for the record's container, if the
// pod's metrics carry an entry with a matching name. Malformed live metrics
// are fatal like malformed declarations.
func (r *Record) mergeUsage(usage *workload.PodUsage) error {
	if usage == nil {
		return nil
	}

	for i := range usage.Containers {
		if usage.Containers[i].Name != r.ContainerName {
			continue
		}

		pair, err := parsePair(workload.QuantitySet{
			CPU:    usage.Containers[i].CPU,
			Memory: usage.Containers[i].Memory,
		})
		if err != nil {
			return recordFieldError(*r, "usage", err)
		}

		r.Usage = pair

		return nil
	}

	return nil
}

// computeDifference derives the saturated request/limit headroom. Called once
// per record after the usage merge, before aggregation.
func (r *Record) computeDifference() {
	r.Difference = Difference{
		Requests: r.Requests.SaturatingSub(r.Usage),
		Limits:   r.Limits.SaturatingSub(r.Usage),
	}
}

func parsePair(set workload.QuantitySet) (ResourcePair, error) {
	var pair ResourcePair

	if set.CPU != "" {
		cpu, err := ParseCPU(set.CPU)
		if err != nil {
			return ResourcePair{}, fmt.Errorf("cpu: %w", err)
		}

		pair.CPU = &cpu
	}

	if set.Memory != "" {
		mem, err := ParseMemory(set.Memory)
		if err != nil {
			return ResourcePair{}, fmt.Errorf("memory: %w", err)
		}

		pair.Memory = &mem
	}

	return pair, nil
}

func recordFieldError(rec Record, field string, err error) error {
	return fmt.Errorf(
		"pod %s/%s container %s: %s: %w",
		rec.Namespace, rec.PodName, rec.ContainerName, field, err,
	)
}
