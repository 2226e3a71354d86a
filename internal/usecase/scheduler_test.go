package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AWSNewsBot/internal/domain"
	"AWSNewsBot/internal/logging"
)

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

type countingRunner struct {
	calls int
	err   error
}

func (r *countingRunner) Run(context.Context) (domain.RunReport, error) {
	r.calls++
	return domain.RunReport{RunID: "r", Outcome: domain.OutcomeNoNews}, r.err
}

func TestSchedulerRunsPipelineOnTrigger(t *testing.T) {
	t.Parallel()

	driver := &manualDriver{}
	runner := &countingRunner{}
	s := NewScheduler(driver, runner, logging.Discard())

	require.NoError(t, s.Start(context.Background()))
	require.NotNil(t, driver.job)

	driver.job(time.Now())
	runner.err = errors.New("boom")
	driver.job(time.Now())
	assert.Equal(t, 2, runner.calls)

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, driver.stopped)
}

func TestSchedulerWithoutDriverIsNoop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, &countingRunner{}, nil)
	assert.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}
