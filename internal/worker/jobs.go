package worker

import "context"

type funcJob struct {
	name string
	run  func(context.Context) error
}

func (j *funcJob) Name() string { return j.name }

func (j *funcJob) Run(ctx context.Context) error { return j.run(ctx) }

// Func adapts fn to a Job.
func Func(name string, fn func(context.Context) error) Job {
	return &funcJob{name: name, run: fn}
}
