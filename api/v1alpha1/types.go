package v1alpha1

const (
	// Group for tesk resources.
	Group = "tesk.jlewi.dev"
	// Version for tesk resources.
	Version = "v1alpha1"
)

// Metadata holds an optional name of the resource.
type Metadata struct {
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Labels      map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}
