package templates

import (
	"github.com/jlewi/tesk/api/v1alpha1"
)

// Overrides are the fields the converter sets on a template.
// Zero values leave the template untouched.
type Overrides struct {
	// Name is used as the name of the job, of the pod template and of the container.
	Name               string
	Labels             map[string]string
	Annotations        map[string]string
	ServiceAccountName string
	RestartPolicy      string
	// Container holds the container fields to set. Its name is ignored.
	Container v1alpha1.Container
}

// Merge returns a copy of base with the overrides applied. base isn't modified and may be nil.
//
// Labels, annotations, environment variables and resource requests are merged key by key; everything
// else set in the overrides replaces the value in base.
func Merge(base *v1alpha1.Job, o Overrides) *v1alpha1.Job {
	j := base.DeepCopy()
	if j == nil {
		j = &v1alpha1.Job{}
	}

	if o.Name != "" {
		j.Metadata.Name = o.Name
		j.Spec.Template.Metadata.Name = o.Name
	}
	j.Metadata.Labels = mergeMaps(j.Metadata.Labels, o.Labels)
	j.Metadata.Annotations = mergeMaps(j.Metadata.Annotations, o.Annotations)

	pod := &j.Spec.Template.Spec
	if o.ServiceAccountName != "" {
		pod.ServiceAccountName = o.ServiceAccountName
	}
	if o.RestartPolicy != "" {
		pod.RestartPolicy = o.RestartPolicy
	}

	if len(pod.Containers) == 0 {
		pod.Containers = []v1alpha1.Container{{}}
	}
	c := &pod.Containers[0]
	if o.Name != "" {
		c.Name = o.Name
	}
	mergeContainer(c, o.Container)
	return j
}

func mergeContainer(c *v1alpha1.Container, o v1alpha1.Container) {
	if o.Image != "" {
		c.Image = o.Image
	}
	if o.ImagePullPolicy != "" {
		c.ImagePullPolicy = o.ImagePullPolicy
	}
	if o.Command != nil {
		c.Command = append([]string{}, o.Command...)
	}
	if o.Args != nil {
		c.Args = append([]string{}, o.Args...)
	}
	if o.WorkingDir != "" {
		c.WorkingDir = o.WorkingDir
	}
	c.Env = mergeEnv(c.Env, o.Env)
	c.Resources.Requests = mergeMaps(c.Resources.Requests, o.Resources.Requests)
}

func mergeMaps(base map[string]string, overrides map[string]string) map[string]string {
	if len(overrides) == 0 {
		return base
	}
	if base == nil {
		base = make(map[string]string, len(overrides))
	}
	for k, v := range overrides {
		base[k] = v
	}
	return base
}

// mergeEnv replaces variables in base that are overridden and appends the others in order.
func mergeEnv(base []v1alpha1.EnvVar, overrides []v1alpha1.EnvVar) []v1alpha1.EnvVar {
	if len(overrides) == 0 {
		return base
	}
	index := map[string]int{}
	for i, e := range base {
		index[e.Name] = i
	}
	for _, e := range overrides {
		if i, ok := index[e.Name]; ok {
			base[i] = e
			continue
		}
		index[e.Name] = len(base)
		base = append(base, e)
	}
	return base
}
