package core

import (
	"fmt"
	"log"

	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"

	"filemetahx/config"
)

// Runner schedules tasks on their cron expressions. Tasks without a cron
// expression only take part in RunOnce.
type Runner struct {
	Config     *config.Config
	Transcoder *Transcoder
	Cron       *cron.Cron
}

func NewRunner(cfg *config.Config, tc *Transcoder) *Runner {
	return &Runner{
		Config:     cfg,
		Transcoder: tc,
		Cron:       cron.New(),
	}
}

func (r *Runner) Start() {
	for _, task := range r.Config.Tasks {
		if task.Cron == "" {
			continue
		}
		task := task
		_, err := r.Cron.AddFunc(task.Cron, func() {
			if err := r.Transcoder.RunTask(task); err != nil {
				log.Printf("Task %s failed: %v", task.Name, err)
			}
		})
		if err != nil {
			log.Printf("Failed to schedule task %s: %v", task.Name, err)
			continue
		}
		log.Printf("Scheduled task %s with cron %s", task.Name, task.Cron)

		// Run immediately in background
		go func(t config.Task) {
			log.Printf("Executing immediate run for task: %s", t.Name)
			if err := r.Transcoder.RunTask(t); err != nil {
				log.Printf("Immediate run of task %s failed: %v", t.Name, err)
			}
		}(task)
	}
	r.Cron.Start()
}

// RunOnce runs every configured task once, in order, and reports every
// failure.
func (r *Runner) RunOnce() error {
	var errs *multierror.Error
	for _, task := range r.Config.Tasks {
		if err := r.Transcoder.RunTask(task); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("task %s: %w", task.Name, err))
		}
	}
	return errs.ErrorOrNil()
}

func (r *Runner) Stop() {
	r.Cron.Stop()
}
