package service

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/law-makers/parscrape/internal/engine"
	urlutil "github.com/law-makers/parscrape/internal/utils/url"
	"github.com/law-makers/parscrape/pkg/models"
)

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names so messages match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// applyDefaults fills request fields left empty by the client.
func applyDefaults(req *models.ScrapeRequest, defaultBackend string) {
	req.URL = strings.TrimSpace(req.URL)
	req.FetchUsing = strings.ToLower(strings.TrimSpace(req.FetchUsing))
	if req.FetchUsing == "" {
		req.FetchUsing = defaultBackend
	}
	req.WaitType = strings.ToLower(strings.TrimSpace(req.WaitType))
	if req.WaitType == "" {
		req.WaitType = models.WaitSleep
	}
}

// validateRequest checks a request with defaults applied.
func (s *Scraper) validateRequest(req *models.ScrapeRequest) *Error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s %s", fe.Field(), formatValidationError(fe)))
			}
			return validationError(http.StatusUnprocessableEntity, strings.Join(msgs, "; "), err)
		}
		return validationError(http.StatusUnprocessableEntity, err.Error(), err)
	}

	if err := urlutil.ValidateURL(req.URL); err != nil {
		return invalidURLError(req.URL, err)
	}

	if wt := engine.ParseWaitType(req.WaitType); wt.RequiresSelector() && strings.TrimSpace(req.WaitSelector) == "" {
		return validationError(http.StatusBadRequest,
			fmt.Sprintf("wait_selector is required when wait_type is '%s'", wt), nil)
	}

	if !s.registry.Has(req.FetchUsing) {
		return validationError(http.StatusBadRequest, fmt.Sprintf("unknown backend: %s", req.FetchUsing), engine.ErrUnknownBackend)
	}
	return nil
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
