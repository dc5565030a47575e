package handler

// dataEnvelope wraps every successful payload under the data key the API
// contract uses for 2xx responses.
type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

func envelope[T any](data T) dataEnvelope[T] {
	return dataEnvelope[T]{Data: data}
}
