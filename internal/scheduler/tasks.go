// Package scheduler drives the periodic jobs: it computes when each job is
// next due, enqueues it on asynq, and executes it in the worker.
package scheduler

import "github.com/hibiken/asynq"

const TaskCatalogSync = "catalog.sync"

const TaskIdentityFullSync = "identity.full_sync"

const TaskFollowUps = "customers.follow_ups"

const TaskBirthdayGreetings = "customers.birthdays"

const TaskWeeklyGreeting = "customers.weekly_greeting"

// newTask builds a payload-free periodic task. The jobs derive everything
// they need from the database at execution time, so a stale payload cannot
// act on stale state.
func newTask(name string) *asynq.Task {
	return asynq.NewTask(name, nil)
}
