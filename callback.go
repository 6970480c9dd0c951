package magnet

// Callback receives the outcome of an executed call. Exactly one of its
// methods is called, exactly once.
type Callback[T any] interface {
	// Succeeded is called when the response was received and decoded.
	Succeeded(statusCode int, value T)

	// Offline is called when the request timed out or the host did not
	// resolve.
	Offline()

	// Failed is called on any other error: bad arguments, transport
	// errors, error statuses, decoding errors.
	Failed(err error)
}

// CallbackFuncs implements Callback with optional functions.
// Outcomes with nil functions are dropped.
type CallbackFuncs[T any] struct {
	OnSuccess func(statusCode int, value T)
	OnOffline func()
	OnFailure func(err error)
}

func (f CallbackFuncs[T]) Succeeded(statusCode int, value T) {
	if f.OnSuccess != nil {
		f.OnSuccess(statusCode, value)
	}
}

func (f CallbackFuncs[T]) Offline() {
	if f.OnOffline != nil {
		f.OnOffline()
	}
}

func (f CallbackFuncs[T]) Failed(err error) {
	if f.OnFailure != nil {
		f.OnFailure(err)
	}
}
