package resources

// Filter decides which records survive into the report.
//
// A record is dropped only when usage is known to be both within its request
// and within the configured slack. Whenever the data needed for that
// judgement is missing, or no threshold is configured, or under-utilization
// checking is disabled, the record is retained.
type Filter struct {
	// Threshold is the minimum CPU headroom (request minus usage) that counts
	// as significant under-utilization. nil disables the check and with it
	// the only path that drops records.
	Threshold *Cpu

	// SkipUnderUtilization disables the threshold check even when a
	// threshold is configured.
	SkipUnderUtilization bool
}

// Retain reports whether the record appears in the final report.
func (f Filter) Retain(rec Record) bool {
	usage := rec.Usage.CPU
	requests := rec.Requests.CPU

	// Over-consumption is always reported.
	if usage != nil && requests != nil && *usage > *requests {
		return true
	}

	if !f.SkipUnderUtilization && f.Threshold != nil && usage != nil && requests != nil {
		return requests.SaturatingSub(*usage) > *f.Threshold
	}

	return true
}
