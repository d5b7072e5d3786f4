package resources

import (
	"context"
	"log/slog"

	"github.com/podaudit/podaudit/internal/logic/workload"
)

// controllerReference returns the first owner reference flagged as
// controller, or nil when there is none. The API guarantees at most one, so
// taking the first is safe either way.
func controllerReference(refs []workload.OwnerReference) *workload.OwnerReference {
	for i := range refs {
		if refs[i].Controller {
			return &refs[i]
		}
	}

	return nil
}

// resolveOwner walks at most two hops up the ownership chain of a pod:
// Deployment→ReplicaSet→Pod and CronJob→Job→Pod are the only two-level
// idioms, so only ReplicaSet and Job references trigger the extra lookup.
// Every other kind is already the top controller.
//
// A failed intermediate lookup does not abort the audit; the pod is
// attributed to the one-hop reference and a warning is logged.
func (s *Service) resolveOwner(ctx context.Context, logger *slog.Logger, pod workload.Pod) *Owner {
	ref := controllerReference(pod.OwnerReferences)
	if ref == nil {
		return nil
	}

	owner := &Owner{Name: ref.Name, Kind: ref.Kind}

	if ref.Kind != workload.KindReplicaSet && ref.Kind != workload.KindJob {
		return owner
	}

	object, err := s.objects.GetByNameQuery(ctx, pod.Namespace, ref.Name, ref.Kind)
	if err != nil {
		logger.WarnContext(ctx, "owner lookup failed, keeping direct controller",
			"pod", pod.Name,
			"namespace", pod.Namespace,
			"kind", ref.Kind,
			"owner", ref.Name,
			"reason", err,
		)

		return owner
	}

	if parent := controllerReference(object.OwnerReferences); parent != nil {
		return &Owner{Name: parent.Name, Kind: parent.Kind}
	}

	return owner
}
