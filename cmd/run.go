/*
Copyright © 2025 FengmingYu-tech

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/api/option"

	"github.com/FengmingYu-tech/JobSyncd/pkg/mail"
)

var runFlags sessionFlags

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "同步Gmail中的求职邮件",
	Long: `Fetch recent Gmail messages, classify them and append one task per
relevant message to the task file, under the debug workspace.

Authorize first with "jobsyncd auth".`,
	Args:    cobra.NoArgs,
	PreRunE: bindMailFlags,
	RunE: func(cmd *cobra.Command, args []string) error {
		auth, err := mail.NewAuth(expand(viper.GetString(keyCredentials)), expand(viper.GetString(keyToken)))
		if err != nil {
			return err
		}
		client, err := auth.HTTPClient(cmd.Context())
		if err != nil {
			return err
		}
		fetcher, err := mail.NewGmailFetcher(cmd.Context(), option.WithHTTPClient(client))
		if err != nil {
			return fmt.Errorf("gmail client: %w", err)
		}
		return runWorkflow(cmd, &runFlags, fetcher)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runFlags.register(runCmd)
	registerMailFlags(runCmd)
}

// registerMailFlags adds the flags that override mail.* and tasks.* config.
func registerMailFlags(cmd *cobra.Command) {
	cmd.Flags().String("query", "", "gmail search query (default newer_than:1d)")
	cmd.Flags().Int("limit", 0, "max messages per run")
	cmd.Flags().String("tasks", "", "task file, - for stdout")
}

// bindMailFlags binds the flags of the command being run. Binding happens
// here rather than in init because run and demo share the keys.
func bindMailFlags(cmd *cobra.Command, args []string) error {
	for key, name := range map[string]string{
		keyMailQuery: "query",
		keyMailLimit: "limit",
		keyTasksFile: "tasks",
	} {
		if !cmd.Flags().Changed(name) {
			continue
		}
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}
