package errors

type Exception struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     string `json:"error,omitempty"`
}

func (e *Exception) Error() string {
	return e.Message
}

type ExceptionOption func(*Exception)

func WithCode(code int) ExceptionOption {
	return func(e *Exception) {
		e.Code = code
	}
}

func WithMessage(message string) ExceptionOption {
	return func(e *Exception) {
		e.Message = message
	}
}

func WithError(err error) ExceptionOption {
	return func(e *Exception) {
		e.Err = err.Error()
	}
}

func NotFound(opts ...ExceptionOption) *Exception {
	defaultOpts := []ExceptionOption{
		WithCode(404),
		WithMessage("no entities found with given parameters"),
	}
	return New(append(defaultOpts, opts...)...)
}

func BadRequest(opts ...ExceptionOption) *Exception {
	defaultOpts := []ExceptionOption{
		WithCode(400),
		WithMessage("bad request"),
	}
	return New(append(defaultOpts, opts...)...)
}

func Unauthorized(opts ...ExceptionOption) *Exception {
	defaultOpts := []ExceptionOption{
		WithCode(401),
		WithMessage("unauthorized"),
	}
	return New(append(defaultOpts, opts...)...)
}

func Conflict(opts ...ExceptionOption) *Exception {
	defaultOpts := []ExceptionOption{
		WithCode(409),
		WithMessage("conflict"),
	}
	return New(append(defaultOpts, opts...)...)
}

// UnprocessableEntity covers requests that parse but cannot be honored,
// such as a debit against insufficient funds.
func UnprocessableEntity(opts ...ExceptionOption) *Exception {
	defaultOpts := []ExceptionOption{
		WithCode(422),
		WithMessage("unprocessable entity"),
	}
	return New(append(defaultOpts, opts...)...)
}

func Unexpected(opts ...ExceptionOption) *Exception {
	defaultOpts := []ExceptionOption{
		WithCode(500),
		WithMessage("internal server error"),
	}
	return New(append(defaultOpts, opts...)...)
}

func New(opts ...ExceptionOption) *Exception {
	e := &Exception{
		Code:    500,
		Message: "internal server error",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
