package executor

import (
	"fmt"
	"strconv"

	"github.com/jmespath-community/go-jmespath"

	"github.com/callgrade/callgrade/internal/core"
	"github.com/callgrade/callgrade/internal/domain/model"
)

// ExtractValue derives a result value from an executor output. When the score
// configuration carries a result path it is evaluated as a JMESPath
// expression against the raw output map; otherwise the output's own value is
// used unchanged.
func ExtractValue(out *core.ScoreOutput, score model.ScoreConfig) (string, error) {
	if score.ResultPath == "" {
		return out.Value, nil
	}
	if out.Raw == nil {
		return "", fmt.Errorf("result path %q configured but executor produced no raw output", score.ResultPath)
	}

	matched, err := jmespath.Search(score.ResultPath, out.Raw)
	if err != nil {
		return "", fmt.Errorf("evaluate result path %q: %w", score.ResultPath, err)
	}
	if matched == nil {
		return "", fmt.Errorf("result path %q matched nothing", score.ResultPath)
	}
	return formatValue(matched), nil
}

func formatValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", value)
	}
}
