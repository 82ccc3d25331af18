package watch

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// addRequest mirrors the external inputs to AddWatch for struct-tag
// validation. WebhookURL is optional but must be a URL when present.
type addRequest struct {
	URL             string  `validate:"required,url"`
	WebhookURL      string  `validate:"omitempty,url"`
	ChangeThreshold float64 `validate:"gte=0"`
}

var validate = validator.New()

func validateAddWatch(url string, opt AddOptions) error {
	req := addRequest{URL: url, WebhookURL: opt.WebhookURL, ChangeThreshold: opt.ChangeThreshold}
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("watch: invalid request: %w", err)
	}
	return nil
}
