package queue

type TaskType string

const (
	TaskTypeSourcingRequest TaskType = "sourcing_request"
)

// messageValues rebuilds the stream field map for a message, used when
// requeueing or forwarding to the DLQ.
func messageValues(msg Message, attempt int) map[string]any {
	values := map[string]any{
		"task_type":  string(TaskTypeSourcingRequest),
		"request_id": msg.RequestID,
		"attempt":    attempt,
	}

	if msg.TenantID != "" {
		values["tenant_id"] = msg.TenantID
	}
	if msg.ExternalJobID != "" {
		values["external_job_id"] = msg.ExternalJobID
	}
	if msg.TraceID != "" {
		values["trace_id"] = msg.TraceID
	}

	return values
}
