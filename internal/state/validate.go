package state

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Validate checks a record for values a window cannot be built from. Load
// never rejects records; this is for diagnostics.
func (r WindowRecord) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Width, validation.Required, validation.Min(1)),
		validation.Field(&r.Height, validation.Required, validation.Min(1)),
		validation.Field(&r.BackgroundColor, validation.Required, validation.Match(hexColor)),
		validation.Field(&r.TextColor, validation.Match(hexColor)),
		validation.Field(&r.FontSize, validation.Required, validation.Min(1)),
		validation.Field(&r.MonitorSize, validation.By(positiveSize)),
	)
}

func positiveSize(value interface{}) error {
	s, _ := value.(*Size)
	if s == nil {
		return nil
	}
	if s.Width() <= 0 || s.Height() <= 0 {
		return validation.NewError("validation_monitor_size", "must have a positive width and height")
	}
	return nil
}
