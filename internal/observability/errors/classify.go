// Package errors normalizes error values into stable class names for metric
// and log tagging.
package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	"github.com/callgrade/callgrade/internal/domain/model"
)

// The pipeline's sentinel errors all share the unexported errorString type,
// so reflection alone would collapse them into one class. Give each a stable
// name of its own.
var sentinelClasses = []struct {
	err   error
	class string
}{
	{model.ErrJobNotFound, "job_not_found"},
	{model.ErrItemNotFound, "item_not_found"},
	{model.ErrScorecardNotFound, "scorecard_not_found"},
	{model.ErrAccountNotFound, "account_not_found"},
	{model.ErrNoMessages, "no_messages"},
}

// Classify returns a normalized class name for an error: a dedicated name for
// the pipeline's sentinel errors, otherwise the innermost error's type name,
// lowercased with package qualifiers flattened. A nil error yields "".
func Classify(err error) string {
	if err == nil {
		return ""
	}

	for _, s := range sentinelClasses {
		if goerrors.Is(err, s.err) {
			return s.class
		}
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
