package document

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks the document structure and that block ids are unique.
// Blank ids are allowed; they are assigned on render.
func Validate(out Output) error {
	var problems []string

	if err := validatorInstance().Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, formatFieldError(fe))
		}
	}

	seen := make(map[string]int, len(out.Blocks))
	for i, b := range out.Blocks {
		if b.ID == "" {
			continue
		}
		if j, ok := seen[b.ID]; ok {
			problems = append(problems, fmt.Sprintf("blocks[%d]: id %q already used by blocks[%d]", i, b.ID, j))
			continue
		}
		seen[b.ID] = i
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Output.")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
