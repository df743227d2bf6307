package commands

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func (p *WindowPayload) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.WindowLabel, validation.Required),
	)
}

func (p *UpdateMetadataPayload) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.WindowLabel, validation.Required),
		validation.Field(&p.BackgroundColor, validation.NilOrNotEmpty),
		validation.Field(&p.Mode, validation.NilOrNotEmpty),
		validation.Field(&p.FontSize, validation.NilOrNotEmpty, validation.Min(1)),
	)
}

func (p *ColorPickerPayload) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.ParentLabel, validation.Required),
	)
}

func (p *ApplyColorPayload) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.ParentLabel, validation.Required),
		validation.Field(&p.Color, validation.Required),
	)
}

func (p *NotePayload) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.NoteID, validation.Required),
	)
}
