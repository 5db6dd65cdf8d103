package cmd

import (
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/FengmingYu-tech/JobSyncd/pkg/agent"
	"github.com/FengmingYu-tech/JobSyncd/pkg/console"
	"github.com/FengmingYu-tech/JobSyncd/pkg/input"
	"github.com/FengmingYu-tech/JobSyncd/pkg/logging"
	"github.com/FengmingYu-tech/JobSyncd/pkg/workspace"
)

// config keys
const (
	keyPollInterval    = "workspace.poll_interval"
	keyStackCapacity   = "workspace.stack_capacity"
	keyLogCapacity     = "workspace.log_capacity"
	keyRefreshInterval = "console.refresh_interval"
	keyDiagBreakpoint  = "keys.breakpoint"
	keyDiagWatch       = "keys.watch"
	keyMailQuery       = "mail.query"
	keyMailLimit       = "mail.limit"
	keyCredentials     = "mail.credentials_file"
	keyToken           = "mail.token_file"
	keyTasksFile       = "tasks.file"
	keyLogLevel        = "log.level"
	keyLogFormat       = "log.format"
	keyLogFile         = "log.file"
)

func setDefaults(v *viper.Viper) {
	diag := input.DefaultDiagnostics()

	v.SetDefault(keyPollInterval, workspace.DefaultPollInterval)
	v.SetDefault(keyStackCapacity, workspace.DefaultStackCapacity)
	v.SetDefault(keyLogCapacity, workspace.DefaultLogCapacity)
	v.SetDefault(keyRefreshInterval, console.DefaultRefresh)
	v.SetDefault(keyDiagBreakpoint, diag.Breakpoint)
	v.SetDefault(keyDiagWatch, diag.Watches)
	v.SetDefault(keyMailQuery, agent.DefaultQuery)
	v.SetDefault(keyMailLimit, agent.DefaultLimit)
	v.SetDefault(keyCredentials, "~/.jobsyncd/credentials.json")
	v.SetDefault(keyToken, "~/.jobsyncd/gmail.token")
	v.SetDefault(keyTasksFile, "tasks.jsonl")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, string(logging.FormatText))
	v.SetDefault(keyLogFile, "")
}

// settings is the resolved configuration of one command run.
type settings struct {
	PollInterval    time.Duration
	StackCapacity   int
	LogCapacity     int
	RefreshInterval time.Duration

	Diagnostics input.Diagnostics

	Query           string
	Limit           int
	CredentialsFile string
	TokenFile       string
	TasksFile       string

	Log logging.Config
}

func loadSettings(v *viper.Viper) settings {
	return settings{
		PollInterval:    v.GetDuration(keyPollInterval),
		StackCapacity:   v.GetInt(keyStackCapacity),
		LogCapacity:     v.GetInt(keyLogCapacity),
		RefreshInterval: v.GetDuration(keyRefreshInterval),
		Diagnostics:     diagnostics(v),
		Query:           v.GetString(keyMailQuery),
		Limit:           v.GetInt(keyMailLimit),
		CredentialsFile: expand(v.GetString(keyCredentials)),
		TokenFile:       expand(v.GetString(keyToken)),
		TasksFile:       expand(v.GetString(keyTasksFile)),
		Log: logging.Config{
			Level:  v.GetString(keyLogLevel),
			Format: logging.Format(v.GetString(keyLogFormat)),
			File:   expand(v.GetString(keyLogFile)),
		},
	}
}

func diagnostics(v *viper.Viper) input.Diagnostics {
	return input.Diagnostics{
		Breakpoint: v.GetString(keyDiagBreakpoint),
		Watches:    v.GetStringSlice(keyDiagWatch),
	}
}

func (s settings) workspaceOptions() workspace.Options {
	return workspace.Options{
		StackCapacity: s.StackCapacity,
		LogCapacity:   s.LogCapacity,
		PollInterval:  s.PollInterval,
	}
}

func expand(path string) string {
	if path == "" {
		return ""
	}
	if p, err := homedir.Expand(path); err == nil {
		return p
	}
	return path
}
