package workload

// Pod is the slice of a Kubernetes pod the audits need, converted by the
// outbound adapter so the logic layer never touches client-go types.
type Pod struct {
	Name            string
	Namespace       string
	Phase           string
	HasSpec         bool
	OwnerReferences []OwnerReference
	Containers      []Container
}

// Container carries declared resources as raw quantity strings; an empty
// string means the quantity was not declared, never zero.
type Container struct {
	Name     string
	Requests QuantitySet
	Limits   QuantitySet

	HasLivenessProbe  bool
	HasReadinessProbe bool
	LivenessProbe     string
	ReadinessProbe    string

	// ReadOnlyRootFilesystem is nil when the security context does not set it.
	ReadOnlyRootFilesystem *bool
}

// QuantitySet holds the raw cpu/memory quantity strings of one resource block.
type QuantitySet struct {
	CPU    string
	Memory string
}

// Empty reports whether no quantity is declared in the set.
func (q QuantitySet) Empty() bool {
	return q.CPU == "" && q.Memory == ""
}

// OwnerReference mirrors the metadata owner reference of a pod or workload object.
type OwnerReference struct {
	Name       string
	Kind       string
	Controller bool
}

// ControlledObject is an intermediate workload object (ReplicaSet, Job)
// fetched during ownership resolution.
type ControlledObject struct {
	Name            string
	Namespace       string
	Kind            string
	OwnerReferences []OwnerReference
}

// PodUsage is the measured consumption of one pod, per container.
type PodUsage struct {
	Containers []ContainerUsage
}

// ContainerUsage carries measured quantities as raw strings, same convention
// as Container: empty string means no data.
type ContainerUsage struct {
	Name   string
	CPU    string
	Memory string
}
