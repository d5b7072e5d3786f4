package resources

import "sort"

// addOption is the coalescing sum over optional amounts: absence is the
// identity, not zero. Used uniformly for requests, limits, usage and
// difference folding.
func addOption[T Cpu | Memory](a, b *T) *T {
	switch {
	case a != nil && b != nil:
		sum := *a + *b

		return &sum
	case a != nil:
		v := *a

		return &v
	case b != nil:
		v := *b

		return &v
	}

	return nil
}

// subOption is saturating subtraction over optional amounts. Unlike addition
// there is no identity element, so the result is present only when both
// operands are.
func subOption[T Cpu | Memory](a, b *T) *T {
	if a == nil || b == nil {
		return nil
	}

	if *b >= *a {
		zero := T(0)

		return &zero
	}

	diff := *a - *b

	return &diff
}

// Totals is the coalescing sum of the resource pairs of a group of records.
type Totals struct {
	Usage      ResourcePair `json:"usage" yaml:"usage"`
	Requests   ResourcePair `json:"requests" yaml:"requests"`
	Limits     ResourcePair `json:"limits" yaml:"limits"`
	Difference Difference   `json:"difference" yaml:"difference"`
}

func (t Totals) addRecord(rec Record) Totals {
	return Totals{
		Usage:    t.Usage.Add(rec.Usage),
		Requests: t.Requests.Add(rec.Requests),
		Limits:   t.Limits.Add(rec.Limits),
		Difference: Difference{
			Requests: t.Difference.Requests.Add(rec.Difference.Requests),
			Limits:   t.Difference.Limits.Add(rec.Difference.Limits),
		},
	}
}

// NamespaceTotal is the per-namespace sum over retained records.
type NamespaceTotal struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	Resources Totals `json:"resources" yaml:"resources"`
}

// OwnerTotal is the per-owner sum over retained records. The key includes
// the namespace so same-named workloads in different namespaces stay apart.
type OwnerTotal struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	Owner     Owner  `json:"owner" yaml:"owner"`
	Resources Totals `json:"resources" yaml:"resources"`
}

// Report is the assembled audit output.
type Report struct {
	NamespaceTotals []NamespaceTotal `json:"namespace_totals" yaml:"namespace_totals"`
	OwnerTotals     []OwnerTotal     `json:"owner_totals" yaml:"owner_totals"`
	Records         []Record         `json:"records" yaml:"records"`
}

type ownerKey struct {
	namespace string
	kind      string
	name      string
}

// aggregate folds the retained records into namespace and owner totals.
// Coalescing addition is commutative and associative and the output slices
// are sorted by key, so fold order never changes the report.
func aggregate(records []Record) Report {
	byNamespace := make(map[string]Totals)
	byOwner := make(map[ownerKey]Totals)

	for i := range records {
		rec := records[i]

		byNamespace[rec.Namespace] = byNamespace[rec.Namespace].addRecord(rec)

		if rec.Owner == nil {
			continue
		}

		key := ownerKey{namespace: rec.Namespace, kind: rec.Owner.Kind, name: rec.Owner.Name}
		byOwner[key] = byOwner[key].addRecord(rec)
	}

	report := Report{
		NamespaceTotals: make([]NamespaceTotal, 0, len(byNamespace)),
		OwnerTotals:     make([]OwnerTotal, 0, len(byOwner)),
		Records:         records,
	}

	for namespace, totals := range byNamespace {
		report.NamespaceTotals = append(report.NamespaceTotals, NamespaceTotal{
			Namespace: namespace,
			Resources: totals,
		})
	}

	for key, totals := range byOwner {
		report.OwnerTotals = append(report.OwnerTotals, OwnerTotal{
			Namespace: key.namespace,
			Owner:     Owner{Name: key.name, Kind: key.kind},
			Resources: totals,
		})
	}

	sort.Slice(report.NamespaceTotals, func(i, j int) bool {
		return report.NamespaceTotals[i].Namespace < report.NamespaceTotals[j].Namespace
	})

	sort.Slice(report.OwnerTotals, func(i, j int) bool {
		a, b := report.OwnerTotals[i], report.OwnerTotals[j]
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		if a.Owner.Kind != b.Owner.Kind {
			return a.Owner.Kind < b.Owner.Kind
		}

		return a.Owner.Name < b.Owner.Name
	})

	sortRecords(report.Records)

	return report
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		if a.PodName != b.PodName {
			return a.PodName < b.PodName
		}

		return a.ContainerName < b.ContainerName
	})
}
