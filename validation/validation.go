package validation

import (
	"regexp"

	"github.com/ArmandoArias/ia-videodog/errors"
)

// canonicalPattern accepts the long-form watch URL, the embed form and the
// youtu.be short form. The capture group is the 11 character video id;
// trailing parameters are ignored.
var canonicalPattern = regexp.MustCompile(
	`^(?:https?://)?(?:www\.)?(?:youtube\.com/(?:watch\?(?:.*&)?v=|embed/)|youtu\.be/)([a-zA-Z0-9_-]{11})(?:\S+)?$`,
)

// NormalizeURL reduces any accepted YouTube URL shape to the canonical
// long form used as the durable record key and for derived job names.
// It is pure and idempotent; unrecognized input returns ok=false.
func NormalizeURL(raw string) (string, bool) {
	match := canonicalPattern.FindStringSubmatch(raw)
	if match == nil {
		return "", false
	}
	return "https://www.youtube.com/watch?v=" + match[1], true
}

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// CanonicalURL validates a submitted URL and returns its canonical form.
func (v *Validator) CanonicalURL(raw string) (string, error) {
	const op = "Validator.CanonicalURL"

	if raw == "" {
		return "", errors.InvalidInput(op, nil, "No se proporcionó una URL de video.")
	}

	canonical, ok := NormalizeURL(raw)
	if !ok {
		return "", errors.InvalidInput(op, nil, "La URL proporcionada no es válida.")
	}
	return canonical, nil
}
