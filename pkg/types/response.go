package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ListEnvelope wraps finance list payloads; Items always encodes as an array.
type ListEnvelope[T any] struct {
	Items []T `json:"items"`
}

func NewList[T any](items []T) ListEnvelope[T] {
	if items == nil {
		items = []T{}
	}
	return ListEnvelope[T]{Items: items}
}

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
	Details   any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
