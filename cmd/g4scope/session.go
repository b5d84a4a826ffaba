package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ava12/g4scope/config"
	"github.com/ava12/g4scope/internal/ctxlog"
	"github.com/ava12/g4scope/workbench"
)

func (a *app) sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session <session.hcl>",
		Short: "Execute runs described in a session file",
		Long: "Session executes runs of an HCL session file and prints results in declaration order.\n" +
			"Session expressions may refer to environment variables as env.NAME.",
		Args: cobra.ExactArgs(1),
		RunE: a.session,
	}
	flags := cmd.Flags()
	flags.StringSliceP("run", "r", nil, "names of runs to execute (default: all)")
	flags.IntP("jobs", "j", runtime.NumCPU(), "maximum number of concurrent runs")
	flags.Bool("list", false, "list run names and exit")
	return cmd
}

func (a *app) session(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	s, e := config.LoadSession(args[0], config.Environ(os.Environ()))
	if e != nil {
		return e
	}

	if list, _ := flags.GetBool("list"); list {
		for _, name := range s.RunNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	reqs, e := s.Requests(a.cfg.Engine)
	if e != nil {
		return e
	}
	names, _ := flags.GetStringSlice("run")
	if reqs, e = selectRuns(reqs, names); e != nil {
		return e
	}

	jobs, _ := flags.GetInt("jobs")
	if jobs < 1 {
		jobs = 1
	}
	log := ctxlog.FromContext(cmd.Context())
	resps := make([]*workbench.Response, len(reqs))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, r := range reqs {
		i, r := i, r
		g.Go(func() error {
			log.Info("running", "run", r.Name, "engine", r.Request.Engine)
			resps[i] = a.bench.Run(cmd.Context(), r.Request)
			resps[i].Run = r.Name
			return nil
		})
	}
	_ = g.Wait()

	rep := newReporter(cmd.OutOrStdout(), a.cfg.Format)
	failed := 0
	for _, resp := range resps {
		if e = rep.Response(resp); e != nil {
			return e
		}
		if !resp.Result.OK() {
			failed++
		}
	}
	if failed > 0 {
		log.Info("session finished", "runs", len(resps), "failed", failed)
		return errFailed
	}
	return nil
}

// selectRuns keeps named runs in declaration order, empty names keep all runs.
func selectRuns(reqs []config.NamedRequest, names []string) ([]config.NamedRequest, error) {
	if len(names) == 0 {
		return reqs, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	res := make([]config.NamedRequest, 0, len(names))
	for _, r := range reqs {
		if wanted[r.Name] {
			res = append(res, r)
			delete(wanted, r.Name)
		}
	}
	for _, n := range names {
		if wanted[n] {
			return nil, fmt.Errorf("unknown run %q", n)
		}
	}
	return res, nil
}
