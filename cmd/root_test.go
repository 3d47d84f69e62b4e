package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cratecheck.dev/pkg/cratecheck/internal/domain"
	m "cratecheck.dev/pkg/cratecheck/internal/model"
)

type recordingWorkflow struct {
	args domain.CheckArgs
	err  error
}

func (r *recordingWorkflow) Analyze(_ context.Context, args domain.CheckArgs) (m.Comparison, error) {
	r.args = args
	return m.Comparison{}, r.err
}

func (r *recordingWorkflow) Check(_ context.Context, args domain.CheckArgs) error {
	r.args = args
	return r.err
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "cratecheck", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Equal(t, rootLongDescription, cmd.Long)
}

func TestRootCmd_HelpOutput(t *testing.T) {
	cmd := newRootCmd()
	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, output.String(), "Usage:")
	assert.Contains(t, output.String(), "does not exist")
}

func TestRootCmd_Flags(t *testing.T) {
	tests := []struct {
		name       string
		persistent bool
		shorthand  string
	}{
		{dirFlagName, false, "d"},
		{oidFlagName, false, "o"},
		{summaryFlagName, false, ""},
		{diffFlagName, false, ""},
		{verboseFlagName, true, "v"},
		{logFileFlagName, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := rootCmd.Flags()
			if tt.persistent {
				flags = rootCmd.PersistentFlags()
			}

			flag := flags.Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
		})
	}

	assert.Equal(t, defaultDir, rootCmd.Flags().Lookup(dirFlagName).DefValue)
}

func TestRootCmd_RejectsPositionalArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})

	require.Error(t, cmd.Execute())
}

func TestInit(t *testing.T) {
	assert.NotNil(t, ui)
	assert.NotNil(t, sourceFSAdapter)
	assert.NotNil(t, manifestAdapter)
	assert.NotNil(t, gitAdapter)
	assert.NotNil(t, rustFileAdapter)
	assert.NotNil(t, workflow)
}

func TestRunCheck_PassesConfig(t *testing.T) {
	viper.Set(dirConfigKey, "crates/foo")
	viper.Set(oidConfigKey, "v1.0.0")
	viper.Set(summaryConfigKey, true)
	t.Cleanup(func() {
		viper.Set(dirConfigKey, defaultDir)
		viper.Set(oidConfigKey, defaultOid)
		viper.Set(summaryConfigKey, defaultSummary)
	})

	wf := &recordingWorkflow{}
	cmd := &cobra.Command{}
	cmd.SetContext(t.Context())

	require.NoError(t, runCheck(cmd, wf))
	assert.Equal(t, domain.CheckArgs{
		Dir:     m.Path("crates/foo"),
		Oid:     "v1.0.0",
		Summary: true,
		Diff:    false,
	}, wf.args)
}

func TestRunCheck_PropagatesError(t *testing.T) {
	wf := &recordingWorkflow{err: m.ErrUnsupported}
	cmd := &cobra.Command{}
	cmd.SetContext(t.Context())

	err := runCheck(cmd, wf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, m.ErrUnsupported))
}

func TestRunCheck_NilWorkflow(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(t.Context())

	require.Error(t, runCheck(cmd, nil))
}

func TestExecute_WithError(t *testing.T) {
	originalRootCmd := rootCmd
	defer func() {
		rootCmd = originalRootCmd
	}()

	mockCmd := &cobra.Command{
		Use: "test",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("command failed")
		},
	}
	mockCmd.SetOut(&bytes.Buffer{})
	mockCmd.SetErr(&bytes.Buffer{})

	rootCmd = mockCmd

	err := rootCmd.Execute()
	require.Error(t, err)
}

func TestExecute_ProcessLevel_Success(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS") == "1" {
		originalRootCmd := rootCmd
		mockCmd := &cobra.Command{
			Use: "test",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Println("success")
				return nil
			},
		}
		mockCmd.SetOut(os.Stdout)
		mockCmd.SetErr(os.Stderr)
		mockCmd.SetArgs([]string{})
		rootCmd = mockCmd
		defer func() { rootCmd = originalRootCmd }()

		Execute()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestExecute_ProcessLevel_Success")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_SUBPROCESS=1")
	output, err := cmd.CombinedOutput()

	require.NoError(t, err, "output: %s", output)
	assert.Contains(t, string(output), "success")
}

func TestExecute_ProcessLevel_Failure(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS_FAIL") == "1" {
		originalRootCmd := rootCmd
		mockCmd := &cobra.Command{
			Use: "test",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(os.Stderr, "error occurred")
				return fmt.Errorf("command failed")
			},
		}
		mockCmd.SetOut(os.Stdout)
		mockCmd.SetErr(os.Stderr)
		mockCmd.SetArgs([]string{})
		rootCmd = mockCmd
		defer func() { rootCmd = originalRootCmd }()

		Execute()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestExecute_ProcessLevel_Failure")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_SUBPROCESS_FAIL=1")
	output, err := cmd.CombinedOutput()

	require.Error(t, err)

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		assert.Equal(t, 1, exitErr.ExitCode())
	} else {
		assert.Fail(t, "expected exec.ExitError", "got %T", err)
	}

	assert.Contains(t, string(output), "error occurred")
}
