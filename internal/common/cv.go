package common

import (
	"encoding/json"
	"fmt"

	"cvpilot/internal/types"

	"github.com/go-playground/validator/v10"
)

var cvValidator = validator.New()

// ParseCVDocument decodes a JSON CV file and checks its required fields.
func ParseCVDocument(content string) (types.CVDocument, error) {
	var cv types.CVDocument
	if err := json.Unmarshal([]byte(content), &cv); err != nil {
		return types.CVDocument{}, fmt.Errorf("failed to parse CV JSON: %w", err)
	}
	if err := cvValidator.Struct(cv); err != nil {
		return types.CVDocument{}, fmt.Errorf("invalid CV: %w", err)
	}
	return cv, nil
}
