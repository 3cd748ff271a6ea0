package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/charlesng35/roadboard/internal/models"
	appErrors "github.com/charlesng35/roadboard/pkg/errors"
	"github.com/charlesng35/roadboard/pkg/response"
	appValidator "github.com/charlesng35/roadboard/pkg/validator"
)

func init() {
	err := appValidator.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseStatus(fl.Field().String())
		return ok
	})
	if err != nil {
		panic(fmt.Sprintf("register status validation: %v", err))
	}
}

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// When validation fails, an error response is automatically written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	return validate(c, dest)
}

// validate runs struct validation and writes a 400 carrying every field issue.
func validate(c *gin.Context, value any) bool {
	if err := appValidator.ValidateStruct(value); err != nil {
		var details any
		if ve, ok := err.(appValidator.ValidationErrors); ok {
			details = ve
		}
		response.Error(c, appErrors.NewValidation(formatValidationError(err), details))
		return false
	}
	return true
}

func formatValidationError(err error) string {
	if err == nil {
		return "invalid request payload"
	}

	if ve, ok := err.(appValidator.ValidationErrors); ok {
		if len(ve) == 0 {
			return "invalid request payload"
		}

		messages := make([]string, 0, len(ve))
		for _, failure := range ve {
			field := prettifyFieldName(failure.Field)
			switch failure.Tag {
			case "required":
				messages = append(messages, fmt.Sprintf("%s is required", field))
			case "email":
				messages = append(messages, fmt.Sprintf("%s must be a valid email address", field))
			case "min":
				messages = append(messages, fmt.Sprintf("%s must be at least %s characters", field, failure.Param))
			case "max":
				messages = append(messages, fmt.Sprintf("%s must be at most %s characters", field, failure.Param))
			case "url":
				messages = append(messages, fmt.Sprintf("%s must be a valid URL", field))
			case "hexcolor":
				messages = append(messages, fmt.Sprintf("%s must be a hex colour", field))
			case "username":
				messages = append(messages, fmt.Sprintf("%s may only contain letters, digits and underscores", field))
			case "status":
				messages = append(messages, fmt.Sprintf("%s must be one of %s", field, statusList()))
			default:
				if failure.Param != "" {
					messages = append(messages, fmt.Sprintf("%s failed validation: %s=%s", field, failure.Tag, failure.Param))
				} else {
					messages = append(messages, fmt.Sprintf("%s failed validation: %s", field, failure.Tag))
				}
			}
		}
		return strings.Join(messages, "; ")
	}

	return "invalid request payload"
}

func prettifyFieldName(name string) string {
	if name == "" {
		return "field"
	}
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ToLower(name)
}

func statusList() string {
	names := make([]string, len(models.Statuses))
	for i, status := range models.Statuses {
		names[i] = string(status)
	}
	return strings.Join(names, ", ")
}

func parseBoolQuery(c *gin.Context, key string) bool {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return false
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return parsed
}

// parseStatusQuery reads an optional status filter. An unknown value is a 400.
func parseStatusQuery(c *gin.Context, key string) (models.Status, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return "", true
	}
	status, ok := models.ParseStatus(raw)
	if !ok {
		response.Error(c, appErrors.NewBadRequest(fmt.Sprintf("%s must be one of %s", key, statusList())))
		return "", false
	}
	return status, true
}

// nullableString distinguishes an absent JSON field from an explicit null.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	n.Value = &value
	return nil
}
