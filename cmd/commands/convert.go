package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/jlewi/tesk/api/v1alpha1"
	"github.com/jlewi/tesk/pkg/codec"
	"github.com/jlewi/tesk/pkg/config"
	"github.com/jlewi/tesk/pkg/converter"
	"github.com/jlewi/tesk/pkg/render"
	"github.com/jlewi/tesk/pkg/templates"
	"github.com/jlewi/tesk/pkg/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ConvertArgs are the arguments of the convert command.
type ConvertArgs struct {
	TaskFile   string
	ConfigFile string
	User       string
	Groups     []string
	Executors  bool
}

// NewConvertCmd creates a command to convert a TES task into the taskmaster job.
func NewConvertCmd(configFile *string) *cobra.Command {
	args := ConvertArgs{}
	cmd := &cobra.Command{
		Use:   "convert --task=task.json --user=<id>",
		Short: "Convert a TES task into the K8s job that runs it and print it as YAML",
		Example: `tesk convert --task=task.json --user=alice --group=genomics
cat task.json | tesk convert --task=- --user=alice --executors`,
		Run: func(cmd *cobra.Command, _ []string) {
			log := zapr.NewLogger(zap.L())
			args.ConfigFile = *configFile
			if err := Convert(cmd.Context(), args, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				log.Error(err, "Failed to convert task", "task", args.TaskFile)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVarP(&args.TaskFile, "task", "t", "", "Path of the JSON file with the TES task. Use - to read from stdin.")
	cmd.Flags().StringVarP(&args.User, "user", "u", "", "ID of the user submitting the task.")
	cmd.Flags().StringSliceVarP(&args.Groups, "group", "g", []string{}, "Groups of the user. Only the first group is used to label the job.")
	cmd.Flags().BoolVarP(&args.Executors, "executors", "", false, "Also print the executor jobs embedded in the taskmaster job.")
	_ = cmd.MarkFlagRequired("task")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// Convert converts the task read from args.TaskFile and writes the jobs to w.
func Convert(ctx context.Context, args ConvertArgs, stdin io.Reader, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := zapr.NewLogger(zap.L())
	ctx = logr.NewContext(ctx, log)

	cfg, err := config.Load(args.ConfigFile)
	if err != nil {
		return err
	}

	tpl, err := templates.Load(cfg.Spec.TaskmasterTemplate, cfg.Spec.ExecutorTemplate)
	if err != nil {
		return err
	}

	cd := codec.JSON{}
	c, err := converter.New(cfg.Spec, converter.WithTemplates(tpl), converter.WithCodec(cd))
	if err != nil {
		return err
	}

	task, err := readTask(args.TaskFile, stdin, cd)
	if err != nil {
		return err
	}

	job, err := c.Convert(ctx, task, v1alpha1.User{ID: args.User, Groups: args.Groups})
	if err != nil {
		return err
	}
	log.Info("Converted task", "name", job.Metadata.Name, "executors", len(task.Executors))

	return render.Write(w, job, cd, render.Options{Executors: args.Executors})
}

func readTask(path string, stdin io.Reader, cd codec.Codec) (*v1alpha1.TesTask, error) {
	var b []byte
	var err error
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read task from %v", path)
	}

	task := &v1alpha1.TesTask{}
	if err := cd.Unmarshal(string(b), task); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse task from %v", path)
	}
	return task, nil
}

// NewConfigCmd creates a command to print the effective configuration.
func NewConfigCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the configuration after applying defaults and environment overrides",
		Run: func(cmd *cobra.Command, args []string) {
			log := zapr.NewLogger(zap.L())
			cfg, err := config.Load(*configFile)
			if err != nil {
				log.Error(err, "Failed to load configuration")
				os.Exit(1)
			}
			fmt.Fprint(cmd.OutOrStdout(), util.PrettyString(cfg))
		},
	}
}
