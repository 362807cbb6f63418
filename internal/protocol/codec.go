package protocol

import (
	"encoding/json"
	"fmt"
	"io"
)

// ReadMessage performs one buffered read and returns the bytes of what must
// be a complete message. Messages never span reads (see MaxMessageSize).
func ReadMessage(r io.Reader, buf []byte) ([]byte, error) {
	if len(buf) == 0 {
		buf = make([]byte, MaxMessageSize)
	}
	n, err := r.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	msg := make([]byte, n)
	copy(msg, buf[:n])
	return msg, nil
}

// WriteMessage marshals v and writes it as a single message. The raw JSON
// bytes go out in one Write with no trailing delimiter.
func WriteMessage(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if len(data) > MaxMessageSize {
		return fmt.Errorf("message of %d bytes exceeds %d byte ceiling", len(data), MaxMessageSize)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// DecodeReport parses a worker message. A parse failure is recoverable:
// callers log it, discard the message and keep the connection open.
func DecodeReport(data []byte) (*Report, error) {
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if rep.Done != "" && rep.Failed != "" {
		return nil, fmt.Errorf("decode report: both done and failed set")
	}
	return &rep, nil
}

// DecodeAssignment parses a coordinator message on the worker side.
func DecodeAssignment(data []byte) (*Assignment, error) {
	var a Assignment
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode assignment: %w", err)
	}
	if a.Next == "" {
		return nil, fmt.Errorf("decode assignment: missing next")
	}
	return &a, nil
}

// DoneReport builds the success report for a job.
func DoneReport(id string) *Report {
	return &Report{Done: id}
}

// FailedReport builds the failure report for a job, embedding detail as a
// JSON string in Reason.
func FailedReport(id string, detail FailureDetail) *Report {
	data, err := json.Marshal(detail)
	if err != nil {
		// FailureDetail is two strings; this cannot fail.
		data = []byte("{}")
	}
	return &Report{Failed: id, Reason: string(data)}
}

// ParseFailureDetail unpacks the Reason payload of a failed report.
func ParseFailureDetail(reason string) (FailureDetail, error) {
	var d FailureDetail
	if err := json.Unmarshal([]byte(reason), &d); err != nil {
		return FailureDetail{}, fmt.Errorf("decode failure detail: %w", err)
	}
	return d, nil
}
