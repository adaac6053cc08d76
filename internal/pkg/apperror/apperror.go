package apperror

// AppError is a custom error type that includes an HTTP status code and an optional internal error code.
type AppError struct {
	Code      int    // HTTP Status Code (e.g., 400, 404)
	Message   string // User-facing error message
	Invariant string // Stable machine-readable name of the violated rule
	Current   string // State the entity was in when the operation was rejected
	Attempted string // State the caller asked for
	Err       error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same invariant name, so copies produced
// by WithState or WithMessage still satisfy errors.Is against the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Invariant != "" && e.Invariant == t.Invariant
}

// WithState returns a copy annotated with the current and attempted state.
func (e *AppError) WithState(current, attempted string) *AppError {
	cp := *e
	cp.Current = current
	cp.Attempted = attempted
	return &cp
}

// WithMessage returns a copy with a more specific user-facing message.
func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	return &cp
}

// Wrap returns a copy that carries err as its cause.
func (e *AppError) Wrap(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Invariant creates a named AppError that can be matched with errors.Is.
func Invariant(code int, invariant, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Invariant: invariant,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
