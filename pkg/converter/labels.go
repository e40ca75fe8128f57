package converter

import (
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

var labelUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// labelValue turns s into a valid label value.
// Disallowed characters become "-" and the value is cut to the maximum length; leading and trailing
// characters that aren't alphanumeric are dropped. The unmodified value is kept in the annotations.
func labelValue(s string) string {
	v := labelUnsafe.ReplaceAllString(s, "-")
	if len(v) > validation.LabelValueMaxLength {
		v = v[:validation.LabelValueMaxLength]
	}
	v = strings.TrimFunc(v, func(r rune) bool {
		return !isAlphanumeric(r)
	})
	if len(validation.IsValidLabelValue(v)) > 0 {
		return ""
	}
	return v
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
