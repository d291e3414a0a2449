package editor

type Mode int

const (
	ModeEditing Mode = iota + 1
	ModeViewing
)

func (m Mode) String() string {
	switch m {
	case ModeEditing:
		return "editing"
	case ModeViewing:
		return "viewing"
	default:
		return "unknown"
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Field names accepted by UpdateField.
type Field string

const (
	FieldDisplayName Field = "display_name"
	FieldPronouns    Field = "pronouns"
	FieldTagline     Field = "tagline"
	FieldBio         Field = "bio"
	FieldBanner      Field = "banner"
	FieldFont        Field = "font"
)

type LinkField string

const (
	LinkFieldLabel LinkField = "label"
	LinkFieldUrl   LinkField = "url"
)
