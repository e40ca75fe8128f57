package converter

import (
	"fmt"
	"unicode/utf8"

	"github.com/jlewi/tesk/api/v1alpha1"
	"github.com/pkg/errors"
)

// normalizeInputs returns copies of the inputs with the type defaulted and exactly one source.
// Inline content takes precedence over the URL.
func normalizeInputs(inputs []v1alpha1.TesInput) []v1alpha1.TesInput {
	out := make([]v1alpha1.TesInput, 0, len(inputs))
	for _, i := range inputs {
		n := v1alpha1.TesInput{
			Name:        i.Name,
			Description: i.Description,
			Path:        i.Path,
			Type:        defaultType(i.Type),
		}
		if i.Content != "" {
			n.Content = i.Content
		} else {
			n.URL = i.URL
		}
		out = append(out, n)
	}
	return out
}

// normalizeOutputs returns copies of the outputs with the type defaulted.
func normalizeOutputs(outputs []v1alpha1.TesOutput) []v1alpha1.TesOutput {
	out := make([]v1alpha1.TesOutput, 0, len(outputs))
	for _, o := range outputs {
		n := o
		n.Type = defaultType(o.Type)
		out = append(out, n)
	}
	return out
}

func defaultType(t v1alpha1.FileType) v1alpha1.FileType {
	if t == "" {
		return v1alpha1.FileTypeFile
	}
	return t
}

// checkContent verifies inline content can be embedded in JSON without being altered.
func checkContent(inputs []v1alpha1.TesInput) error {
	for i, in := range inputs {
		if !utf8.ValidString(in.Content) {
			return v1alpha1.NewConversionError(v1alpha1.EncodingFailed, v1alpha1.NoExecutor, fmt.Sprintf("inputs[%d].content", i), errors.New("content isn't valid UTF-8"))
		}
	}
	return nil
}
