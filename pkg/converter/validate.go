package converter

import (
	"fmt"
	"path"

	"github.com/jlewi/tesk/api/v1alpha1"
	"github.com/jlewi/tesk/pkg/util"
	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/validation"
)

// validate checks the structural preconditions of a task and that the user can be used in labels.
// All violations are reported; the returned error is an InvalidTask ConversionError describing the first
// violation and wrapping all of them.
func validate(task *v1alpha1.TesTask, user v1alpha1.User) error {
	allErrors := &util.ListOfErrors{}

	invalid := func(executor int, field string, format string, args ...interface{}) {
		allErrors.AddCause(v1alpha1.NewConversionError(v1alpha1.InvalidTask, executor, field, errors.Errorf(format, args...)))
	}

	if len(task.Executors) == 0 {
		invalid(v1alpha1.NoExecutor, "executors", "task must have at least one executor")
	}

	for i, e := range task.Executors {
		field := fmt.Sprintf("executors[%d]", i)
		if _, err := util.ParseImage(e.Image); err != nil {
			invalid(i, field+".image", "%v", err)
		}
		if len(e.Command) == 0 {
			invalid(i, field+".command", "command is required")
		}
		if e.Workdir != "" && !path.IsAbs(e.Workdir) {
			invalid(i, field+".workdir", "workdir %v must be an absolute path", e.Workdir)
		}
	}

	for i, in := range task.Inputs {
		field := fmt.Sprintf("inputs[%d]", i)
		if !path.IsAbs(in.Path) {
			invalid(v1alpha1.NoExecutor, field+".path", "path %q must be an absolute path", in.Path)
		}
		if in.URL == "" && in.Content == "" {
			invalid(v1alpha1.NoExecutor, field, "one of url and content is required")
		}
		if !validType(in.Type) {
			invalid(v1alpha1.NoExecutor, field+".type", "unknown type %v", in.Type)
		}
		if in.Content != "" && in.Type == v1alpha1.FileTypeDirectory {
			invalid(v1alpha1.NoExecutor, field+".content", "content can't be used with a DIRECTORY input")
		}
	}

	for i, o := range task.Outputs {
		field := fmt.Sprintf("outputs[%d]", i)
		if !path.IsAbs(o.Path) {
			invalid(v1alpha1.NoExecutor, field+".path", "path %q must be an absolute path", o.Path)
		}
		if o.URL == "" {
			invalid(v1alpha1.NoExecutor, field+".url", "url is required")
		}
		if !validType(o.Type) {
			invalid(v1alpha1.NoExecutor, field+".type", "unknown type %v", o.Type)
		}
	}

	if r := task.Resources; r != nil {
		if r.CPUCores != nil && *r.CPUCores < 0 {
			invalid(v1alpha1.NoExecutor, "resources.cpu_cores", "cpu_cores can't be negative")
		}
		if r.RAMGb != nil && *r.RAMGb < 0 {
			invalid(v1alpha1.NoExecutor, "resources.ram_gb", "ram_gb can't be negative")
		}
		if r.DiskGb < 0 {
			invalid(v1alpha1.NoExecutor, "resources.disk_gb", "disk_gb can't be negative")
		}
	}

	// The task name is sanitized for its label but the user's identity can't be altered.
	if msgs := validation.IsValidLabelValue(user.ID); len(msgs) > 0 {
		invalid(v1alpha1.NoExecutor, "user.id", "user id %q can't be used as a label value: %v", user.ID, msgs)
	}
	if msgs := validation.IsValidLabelValue(user.PrimaryGroup()); len(msgs) > 0 {
		invalid(v1alpha1.NoExecutor, "user.groups[0]", "group %q can't be used as a label value: %v", user.PrimaryGroup(), msgs)
	}

	if allErrors.ErrorOrNil() == nil {
		return nil
	}
	first := allErrors.Causes[0].(*v1alpha1.ConversionError)
	if len(allErrors.Causes) == 1 {
		return first
	}
	allErrors.Final = errors.Errorf("task has %d problems", len(allErrors.Causes))
	return v1alpha1.NewConversionError(v1alpha1.InvalidTask, first.Executor, first.Field, allErrors)
}

func validType(t v1alpha1.FileType) bool {
	switch t {
	case "", v1alpha1.FileTypeFile, v1alpha1.FileTypeDirectory:
		return true
	default:
		return false
	}
}
