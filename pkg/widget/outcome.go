package widget

import "github.com/pkg/errors"

var errUnspecifiedFailure = errors.New("request failed")

// Outcome is the result of one exchange with the remote endpoint: either the
// response text or a failure.
type Outcome struct {
	text   string
	err    error
	failed bool
}

func Success(text string) Outcome {
	return Outcome{text: text}
}

// Failure builds a failed outcome. A nil error still counts as a failure.
func Failure(err error) Outcome {
	if err == nil {
		err = errUnspecifiedFailure
	}
	return Outcome{err: err, failed: true}
}

func (o Outcome) Failed() bool { return o.failed }

func (o Outcome) Err() error { return o.err }

func (o Outcome) Text() string { return o.text }

// Content is what the bot message will display once the placeholder is replaced.
func (o Outcome) Content() string {
	if o.failed {
		return ErrorContent
	}
	return o.text
}
