package metrics

import "time"

// Attempt outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AttemptRecorded counts one completion call for a channel
func AttemptRecorded(channel, outcome string) {
	CompletionAttemptsTotal.WithLabelValues(channel, outcome).Inc()
}

// TokensUsed adds token usage from a completion call
func TokensUsed(input, output int) {
	if input > 0 {
		AITokensTotal.WithLabelValues("input").Add(float64(input))
	}
	if output > 0 {
		AITokensTotal.WithLabelValues("output").Add(float64(output))
	}
}

// GenerationCompleted records a successful generation
func GenerationCompleted(duration time.Duration) {
	GenerationsTotal.WithLabelValues("succeeded").Inc()
	GenerationDuration.Observe(duration.Seconds())
}

// GenerationFailed records a failed generation, labelled by error code
func GenerationFailed(code string) {
	GenerationsTotal.WithLabelValues("failed_" + code).Inc()
}

// ArchiveWritten records the outcome of an archive write
func ArchiveWritten(ok bool) {
	if ok {
		ArchiveWritesTotal.WithLabelValues("ok").Inc()
		return
	}
	ArchiveWritesTotal.WithLabelValues("error").Inc()
}
