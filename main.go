// Command manipgym runs batched manipulation environments from the
// command line: listing tasks, inspecting their spaces, and rolling
// out random-action episodes with optional trajectory recording.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/manipgym/manipgym/environment"
	"github.com/manipgym/manipgym/environment/envconfig"
	"github.com/manipgym/manipgym/environment/tasks"
	"github.com/manipgym/manipgym/environment/wrappers"
	"github.com/manipgym/manipgym/utils/progressbar"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "manipgym",
		Short:         "batched robot manipulation environments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(tasksCmd(), infoCmd(), rolloutCmd())
	return root
}

func tasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "list registered tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range tasks.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func infoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <task>",
		Short: "print the spaces and configuration of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := tasks.New(args[0])
			if err != nil {
				return err
			}
			env, err := environment.New(task, environment.Options{})
			if err != nil {
				return err
			}
			defer env.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "task:            %s\n", task.Name())
			fmt.Fprintf(out, "robots:          %v\n", task.Robots())
			fmt.Fprintf(out, "control mode:    %s\n", env.ControlMode())
			fmt.Fprintf(out, "action dim:      %d\n", env.ActionSpace().Dim())
			fmt.Fprintf(out, "obs dim (state): %d\n",
				env.ObservationSpace().Dim())
			fmt.Fprintf(out, "state dim:       %d\n", env.StateDim())
			fmt.Fprintf(out, "sub-steps:       %d\n", env.SimStepsPerControl())
			return nil
		},
	}
	return cmd
}

func rolloutCmd() *cobra.Command {
	var (
		configPath string
		steps      int
		seed       uint64
		recordPath string
	)
	cmd := &cobra.Command{
		Use:   "rollout",
		Short: "run a random-action rollout from a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logrus.StandardLogger()
			cfg, err := envconfig.Load(configPath)
			if err != nil {
				return err
			}
			env, err := cfg.Create(logger)
			if err != nil {
				return err
			}
			defer env.Close()

			var stepper wrappers.Stepper = env
			if cfg.MaxEpisodeSteps > 0 {
				stepper = wrappers.NewTimeLimit(stepper, cfg.MaxEpisodeSteps)
			}
			if recordPath != "" {
				f, err := os.Create(recordPath)
				if err != nil {
					return err
				}
				defer f.Close()
				stepper = wrappers.NewRecordEpisode(stepper, f)
			}

			if _, _, err := stepper.Reset(&seed, nil); err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(seed))
			space := env.ActionSpace()
			n := env.NumEnvs()

			bar := progressbar.New(40, steps, time.Second, true)
			bar.Display()
			defer bar.Close()

			successes := 0
			episodes := 0
			for i := 0; i < steps; i++ {
				res, err := stepper.Step(randomAction(rng, n, space.Dim(),
					space.LowerBound, space.UpperBound))
				if err != nil {
					return err
				}
				done := false
				for j := 0; j < n; j++ {
					if res.Terminated[j] || res.Truncated[j] {
						done = true
						episodes++
						if s := res.Info.Success(); s != nil && s[j] {
							successes++
						}
					}
				}
				if done {
					if _, _, err := stepper.Reset(nil, nil); err != nil {
						return err
					}
				}
				bar.Increment()
			}
			logger.WithFields(logrus.Fields{
				"steps":     steps,
				"episodes":  episodes,
				"successes": successes,
			}).Info("rollout finished")
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "environment "+
		"config file")
	cmd.Flags().IntVarP(&steps, "steps", "n", 1000, "number of control steps")
	cmd.Flags().Uint64Var(&seed, "seed", 2022, "rollout seed")
	cmd.Flags().StringVar(&recordPath, "record", "", "record trajectories "+
		"to this JSON lines file")
	cobra.CheckErr(cmd.MarkFlagRequired("config"))
	return cmd
}

// randomAction samples a uniform batched action within the space
// bounds
func randomAction(rng *rand.Rand, n, dim int, low,
	high mat.Vector) *environment.Action {
	values := mat.NewDense(n, dim, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < dim; j++ {
			lo, hi := low.AtVec(j), high.AtVec(j)
			values.Set(i, j, lo+rng.Float64()*(hi-lo))
		}
	}
	return environment.BatchAction(values)
}
