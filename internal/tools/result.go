package tools

import "fmt"

// FailureKind classifies why a tool did not produce a value.
type FailureKind string

const (
	KindInvalidInput  FailureKind = "invalid_input"
	KindExecution     FailureKind = "execution"
	KindTransport     FailureKind = "transport"
	KindNotFound      FailureKind = "not_found"
	KindDenied        FailureKind = "denied"
	KindUnknownAction FailureKind = "unknown_action"
)

// Failure is the error half of a Result.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Result is either a value (Err == nil) or a Failure. Failure is structural:
// an Output that merely mentions the word "error" is still a success.
type Result struct {
	Output string
	Err    *Failure
}

func OK(output string) Result {
	return Result{Output: output}
}

func Fail(kind FailureKind, format string, args ...any) Result {
	return Result{Err: &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// Text renders the result the way a model sees it.
func (r Result) Text() string {
	if r.Err != nil {
		return "Error: " + r.Err.Message
	}
	return r.Output
}
