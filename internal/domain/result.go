// internal/domain/result.go
package domain

// StatusUnknown is the status code reported when the core never produced one:
// SOAP faults, connection failures, validation errors, missing StatusCode.
const StatusUnknown = -1

// Keys used in Result.Data.
const (
	DataKeyMessageID   = "messageId"
	DataKeyRawResponse = "rawResponse"
	DataKeyMock        = "mock"
)

// Result is the uniform outcome of one core banking call.
type Result struct {
	Success            bool                   `json:"success"`
	ConfirmationNumber string                 `json:"confirmationNumber,omitempty"`
	StatusCode         int                    `json:"statusCode"`
	Message            string                 `json:"message"`
	Data               map[string]interface{} `json:"data,omitempty"`
}

func Failure(statusCode int, message string) *Result {
	return &Result{
		Success:    false,
		StatusCode: statusCode,
		Message:    message,
	}
}

// Public returns a copy that is safe to hand to the portal: the raw core
// response stays server side.
func (r *Result) Public() *Result {
	out := *r
	if len(r.Data) == 0 {
		out.Data = nil
		return &out
	}
	out.Data = make(map[string]interface{}, len(r.Data))
	for k, v := range r.Data {
		if k == DataKeyRawResponse {
			continue
		}
		out.Data[k] = v
	}
	if len(out.Data) == 0 {
		out.Data = nil
	}
	return &out
}

// Summary is the part of a result that is persisted in the audit log.
func (r *Result) Summary() map[string]interface{} {
	summary := map[string]interface{}{
		"success":    r.Success,
		"statusCode": r.StatusCode,
		"message":    r.Message,
	}
	if r.ConfirmationNumber != "" {
		summary["confirmationNumber"] = r.ConfirmationNumber
	}
	return summary
}
