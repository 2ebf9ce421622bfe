package analysis

import (
	"errors"
	"fmt"
	"strings"

	"contract-risk-rag/types"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks a report against the Risk Report schema.
func Validate(report *types.RiskReport) error {
	err := validate.Struct(report)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}
