package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/wa-automations/internal/apperrors"
	"gitlab.com/timkado/api/wa-automations/internal/model"
)

type stubJob struct {
	summary *model.RunSummary
	err     error
}

func (j stubJob) Name() string { return "marketing_automations" }

func (j stubJob) Run(context.Context) (*model.RunSummary, error) { return j.summary, j.err }

func TestRunJob_PrintsSummary(t *testing.T) {
	var out bytes.Buffer
	summary := model.NewRunSummary("no tenants with automation enabled")

	require.NoError(t, runJob(context.Background(), &out, stubJob{summary: summary}))

	assert.JSONEq(t, `{"message":"no tenants with automation enabled","sent":0,"skipped":0,"failed":0,"ignored":0,"results":[]}`, out.String())
}

func TestRunJob_ConfigurationError(t *testing.T) {
	var out bytes.Buffer
	err := runJob(context.Background(), &out, stubJob{
		err: apperrors.NewFatal(apperrors.ErrConfiguration, "evolution API URL is not configured"),
	})

	assert.True(t, apperrors.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "marketing_automations run failed")
	assert.Empty(t, out.String())
}

func TestCommand_HasJobSubcommands(t *testing.T) {
	root := Command()
	for _, name := range []string{"reminders", "marketing"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}
