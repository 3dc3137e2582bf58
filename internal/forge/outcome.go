package forge

// Stage names, in pipeline order.
const (
	StageContext    = "context"
	StageDraft      = "draft"
	StageIdentity   = "identity"
	StageAttributes = "attributes"
	StageImage      = "image"
)

// Outcome is the tri-state result of one pipeline stage. The orchestrator
// branches on it explicitly: Degraded continues with reduced input, Fatal
// aborts composition.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeDegraded
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeFatal:
		return "fatal"
	}
	return "unknown"
}

// StageDiag is the diagnostic record for one stage execution.
type StageDiag struct {
	Stage     string   `json:"stage"`
	Outcome   Outcome  `json:"-"`
	Status    string   `json:"status"`
	ElapsedMs int64    `json:"elapsed_ms"`
	Error     string   `json:"error,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

func okDiag(stage string, elapsedMs int64) StageDiag {
	return StageDiag{Stage: stage, Outcome: OutcomeOK, Status: OutcomeOK.String(), ElapsedMs: elapsedMs}
}

func degradedDiag(stage string, elapsedMs int64, err error) StageDiag {
	d := StageDiag{Stage: stage, Outcome: OutcomeDegraded, Status: OutcomeDegraded.String(), ElapsedMs: elapsedMs}
	if err != nil {
		d.Error = err.Error()
	}
	return d
}

func fatalDiag(stage string, elapsedMs int64, err error) StageDiag {
	d := StageDiag{Stage: stage, Outcome: OutcomeFatal, Status: OutcomeFatal.String(), ElapsedMs: elapsedMs}
	if err != nil {
		d.Error = err.Error()
	}
	return d
}

// Timing aggregates per-stage elapsed time plus the total.
type Timing struct {
	ContextMs    int64 `json:"context_ms"`
	DraftMs      int64 `json:"draft_ms"`
	AttributesMs int64 `json:"attributes_ms"`
	ImageMs      int64 `json:"image_ms"`
	TotalMs      int64 `json:"total_ms"`
}
