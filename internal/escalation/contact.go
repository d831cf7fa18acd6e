package escalation

import "strings"

// Field identifies a contact form field.
type Field string

const (
	FieldName         Field = "name"
	FieldEmail        Field = "email"
	FieldOrganization Field = "organization"
)

// Label is the user-facing name of the field.
func (f Field) Label() string {
	switch f {
	case FieldName:
		return "nombre"
	case FieldEmail:
		return "correo electrónico"
	case FieldOrganization:
		return "organización"
	}
	return string(f)
}

// ContactForm is a contact submission.
type ContactForm struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
}

// Normalize trims surrounding whitespace from every field.
func (f ContactForm) Normalize() ContactForm {
	return ContactForm{
		Name:         strings.TrimSpace(f.Name),
		Email:        strings.TrimSpace(f.Email),
		Organization: strings.TrimSpace(f.Organization),
	}
}

// Validate returns a *MissingFieldsError listing blank fields in form order,
// or nil when every field is present.
func (f ContactForm) Validate() error {
	n := f.Normalize()
	var missing []Field
	if n.Name == "" {
		missing = append(missing, FieldName)
	}
	if n.Email == "" {
		missing = append(missing, FieldEmail)
	}
	if n.Organization == "" {
		missing = append(missing, FieldOrganization)
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingFieldsError{Fields: missing}
}

// MissingFieldsError reports required contact fields that were left blank.
type MissingFieldsError struct {
	Fields []Field
}

func (e *MissingFieldsError) Error() string {
	labels := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		labels[i] = f.Label()
	}
	return "Por favor proporciona tu " + strings.Join(labels, " y ") + "."
}
