package resources

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/podaudit/podaudit/internal/logic/workload"
)

const (
	// runningPhase is the only pod phase worth auditing; pending and
	// terminated pods have no meaningful live usage.
	runningPhase = "Running"

	// maxInFlightFetches bounds concurrent per-pod API calls so a large
	// cluster does not turn the audit into a thundering herd.
	maxInFlightFetches = 8
)

// Service runs the resource-requests audit: one point-in-time pass that
// builds a record per resource-bearing container of every running pod,
// merges live usage, filters anomalies and aggregates totals.
type Service struct {
	logger  *slog.Logger
	pods    workload.PodSource
	objects workload.ObjectSource
	metrics workload.MetricsSource
}

// Options scope one audit run.
type Options struct {
	Namespaces           []string
	AllNamespaces        bool
	Threshold            *Cpu
	SkipUnderUtilization bool
}

// New creates the resource audit service.
func New(
	logger *slog.Logger,
	pods workload.PodSource,
	objects workload.ObjectSource,
	metrics workload.MetricsSource,
) *Service {
	return &Service{
		logger:  logger,
		pods:    pods,
		objects: objects,
		metrics: metrics,
	}
}

// podAudit is the per-pod working state: the pod itself plus the two
// independently fetched attachments (owner, usage). Each slot is written by
// exactly one goroutine and read only after the group finishes.
type podAudit struct {
	pod   workload.Pod
	owner *Owner
	usage *workload.PodUsage
}

// RunQuery performs the audit. A pod list failure aborts the run; a metrics
// failure degrades the affected pod to usage-none; quantity parse failures
// are fatal because the input itself is invalid.
func (s *Service) RunQuery(ctx context.Context, opts Options) (*Report, error) {
	logger := s.logger.With("audit", "resource-requests")

	pods, err := s.pods.ListPodsQuery(ctx, opts.Namespaces, opts.AllNamespaces)
	if err != nil {
		return nil, fmt.Errorf("list pods: %w", err)
	}

	audits := make([]*podAudit, 0, len(pods))

	for i := range pods {
		if pods[i].Phase != runningPhase || !pods[i].HasSpec {
			continue
		}

		if !hasResourceBearingContainer(pods[i]) {
			continue
		}

		audits = append(audits, &podAudit{pod: pods[i]})
	}

	logger.DebugContext(ctx, "auditing pods", "listed", len(pods), "qualifying", len(audits))

	if err := s.fetchAttachments(ctx, logger, audits); err != nil {
		return nil, err
	}

	records, err := s.buildRecords(ctx, logger, audits)
	if err != nil {
		return nil, err
	}

	filter := Filter{Threshold: opts.Threshold, SkipUnderUtilization: opts.SkipUnderUtilization}

	retained := records[:0]
	for _, rec := range records {
		if filter.Retain(rec) {
			retained = append(retained, rec)
		}
	}

	report := aggregate(retained)

	logger.InfoContext(ctx, "audit complete",
		"records", len(report.Records),
		"namespaces", len(report.NamespaceTotals),
		"owners", len(report.OwnerTotals),
	)

	return &report, nil
}

// fetchAttachments resolves owners and fetches metrics for all audited pods.
// The fetches are independent per pod, so they fan out under one bounded
// group; each goroutine writes only its own slot.
func (s *Service) fetchAttachments(ctx context.Context, logger *slog.Logger, audits []*podAudit) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxInFlightFetches)

	for _, audit := range audits {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			audit.owner = s.resolveOwner(groupCtx, logger, audit.pod)

			usage, err := s.metrics.GetPodMetricsQuery(groupCtx, audit.pod.Namespace, audit.pod.Name)
			if err != nil {
				logger.WarnContext(groupCtx, "failed to get usage for pod, continuing without",
					"pod", audit.pod.Name,
					"namespace", audit.pod.Namespace,
					"reason", err,
				)

				return nil
			}

			audit.usage = usage

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("fetch pod attachments: %w", err)
	}

	return nil
}

// buildRecords parses declarations and merges usage into one record per
// container. Duplicate (namespace, pod, container) keys collapse last-wins
// with a warning.
func (s *Service) buildRecords(ctx context.Context, logger *slog.Logger, audits []*podAudit) ([]Record, error) {
	byKey := make(map[recordKey]int)
	records := make([]Record, 0, len(audits))

	for _, audit := range audits {
		for _, container := range audit.pod.Containers {
			if container.Requests.Empty() && container.Limits.Empty() {
				continue
			}

			rec, err := buildRecord(audit.pod, container, audit.owner)
			if err != nil {
				return nil, err
			}

			if err := rec.mergeUsage(audit.usage); err != nil {
				return nil, err
			}

			rec.computeDifference()

			if at, ok := byKey[rec.key()]; ok {
				logger.WarnContext(ctx, "duplicate record key, keeping last",
					"pod", rec.PodName,
					"namespace", rec.Namespace,
					"container", rec.ContainerName,
				)

				records[at] = rec

				continue
			}

			byKey[rec.key()] = len(records)
			records = append(records, rec)
		}
	}

	return records, nil
}

func hasResourceBearingContainer(pod workload.Pod) bool {
	for i := range pod.Containers {
		if !pod.Containers[i].Requests.Empty() || !pod.Containers[i].Limits.Empty() {
			return true
		}
	}

	return false
}
