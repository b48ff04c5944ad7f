package storage

import (
	"encoding/json"
	"fmt"

	"github.com/scopeworks/kbpipeline/core"
)

// Records are stored as JSON. The format is internal to the backend and
// versioned implicitly by field names, which makes record evolution a
// matter of adding fields.

// MarshalDocument serializes a document record.
func MarshalDocument(doc *core.Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: document %q: %v", ErrSerializationFailed, doc.Path, err)
	}
	return data, nil
}

// UnmarshalDocument deserializes a document record.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	var doc core.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: document: %v", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalApproval serializes an approval ticket.
func MarshalApproval(ticket *core.PendingApproval) ([]byte, error) {
	data, err := json.Marshal(ticket)
	if err != nil {
		return nil, fmt.Errorf("%w: approval %q: %v", ErrSerializationFailed, ticket.ID, err)
	}
	return data, nil
}

// UnmarshalApproval deserializes an approval ticket.
func UnmarshalApproval(data []byte) (*core.PendingApproval, error) {
	var ticket core.PendingApproval
	if err := json.Unmarshal(data, &ticket); err != nil {
		return nil, fmt.Errorf("%w: approval: %v", ErrSerializationFailed, err)
	}
	return &ticket, nil
}

// MarshalJob serializes a vectorization job record.
func MarshalJob(job *core.VectorizationJob) ([]byte, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("%w: job %q: %v", ErrSerializationFailed, job.ID, err)
	}
	return data, nil
}

// UnmarshalJob deserializes a vectorization job record.
func UnmarshalJob(data []byte) (*core.VectorizationJob, error) {
	var job core.VectorizationJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("%w: job: %v", ErrSerializationFailed, err)
	}
	return &job, nil
}
