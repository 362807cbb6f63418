package protocol

// The wire protocol is a single JSON document per transport read, in each
// direction. There is no length prefix, no delimiter and no version field;
// one buffered read is assumed to hold exactly one complete document, which
// makes MaxMessageSize a hard ceiling on message size.

// MaxMessageSize is the read buffer size and therefore the largest message
// either side can exchange.
const MaxMessageSize = 2048

// Assignment is the coordinator -> worker message handing out one job.
type Assignment struct {
	Next    string `json:"next"`
	Command string `json:"command"`
}

// Report is the worker -> coordinator message. An empty object is a probe
// ("no report, give me work"). Otherwise exactly one of Done or Failed
// carries the job id; Reason accompanies Failed and holds a JSON-encoded
// FailureDetail as a string.
type Report struct {
	Done   string `json:"done,omitempty"`
	Failed string `json:"failed,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// IsProbe reports whether r carries no outcome.
func (r *Report) IsProbe() bool {
	return r.Done == "" && r.Failed == ""
}

// FailureDetail is the captured output of a failed command. It travels
// string-encoded inside Report.Reason.
type FailureDetail struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}
