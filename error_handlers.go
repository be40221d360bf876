package taskq

// reportInternalError reports an internal pool error.
//
// Internal errors are non-task-related failures such as an unexpected
// dequeue error. If no handler is registered, the error is silently
// ignored.
func (p *Pool[T]) reportInternalError(e error) {
	if p.OnInternalError != nil {
		p.OnInternalError(e)
	}
}

// reportTaskError reports an error returned by a task body or
// produced by panic recovery.
//
// Task errors do not stop pool execution and are reported
// via the configured handler.
func (p *Pool[T]) reportTaskError(err error, task Task[T]) {
	if p.OnTaskError != nil {
		p.OnTaskError(err, task)
	}
}
