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
	"github.com/spf13/cobra"

	"github.com/FengmingYu-tech/JobSyncd/pkg/mail"
)

var demoFlags sessionFlags

// demoCmd represents the demo command
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "用内置样例邮件演示调试工作区",
	Long: `Run the sync against a fixed set of sample messages, no Gmail account
needed. Useful to try breakpoints, stepping and watches:

  jobsyncd demo --pause -b createTask -b 'classify:arg0.Subject contains "Offer"'`,
	Args:    cobra.NoArgs,
	PreRunE: bindMailFlags,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkflow(cmd, &demoFlags, &mail.StaticFetcher{Messages: mail.SampleMessages()})
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoFlags.register(demoCmd)
	registerMailFlags(demoCmd)
}
