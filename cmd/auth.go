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
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FengmingYu-tech/JobSyncd/pkg/mail"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "授权访问Gmail(只读)",
	Long: `Authorize read-only Gmail access. Open the printed URL, grant access
and paste the code back. The token is stored at mail.token_file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tokenFile := expand(viper.GetString(keyToken))
		auth, err := mail.NewAuth(expand(viper.GetString(keyCredentials)), tokenFile)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if auth.HasToken() {
			fmt.Fprintf(out, "a token already exists at %s, it will be replaced\n", tokenFile)
		}
		fmt.Fprintf(out, "Visit this URL to authorize Gmail access:\n\n%s\n\nCode: ", auth.URL("jobsyncd"))

		code, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && code == "" {
			return fmt.Errorf("read code: %w", err)
		}
		if strings.TrimSpace(code) == "" {
			return errors.New("empty authorization code")
		}
		if err := auth.Exchange(cmd.Context(), code); err != nil {
			return err
		}
		fmt.Fprintf(out, "token saved to %s\n", tokenFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
