package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	cliapi "abc-dashboard/internal/cli"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start a dashboard session",
	Long: `Log in to the dashboard and save the session token under
~/.abc-dashboard so later commands are authenticated. The password is read
from --password, the ABC_DASHBOARD_CLI_PASSWORD variable, or standard input.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the dashboard session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var (
	loginUsername string
	loginPassword string
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)

	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Dashboard username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Dashboard password")
}

func runLogin(cmd *cobra.Command, args []string) error {
	_, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	username, password, err := credentials(cmd.InOrStdin(), loginUsername, loginPassword)
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	s, err := client.Login(username, password)
	if err != nil {
		formatter.PrintError(err)
		return err
	}

	if err := cliapi.SaveToken(s.Token); err != nil {
		formatter.PrintError(err)
		return err
	}

	formatter.PrintSuccess(fmt.Sprintf("Logged in as %s until %s", s.Username, s.ExpiresAt.Local().Format("02/01/2006 15:04")))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	_, formatter, client, err := initializeClient(cmd)
	if err != nil {
		return err
	}

	if err := client.Logout(); err != nil {
		formatter.PrintError(err)
		return err
	}
	if err := cliapi.ClearToken(); err != nil {
		formatter.PrintError(err)
		return err
	}

	formatter.PrintSuccess("Logged out")
	return nil
}

// credentials fills in whatever the flags left out from the environment
// and then from in, one line each
func credentials(in io.Reader, username, password string) (string, string, error) {
	if password == "" {
		password = os.Getenv("ABC_DASHBOARD_CLI_PASSWORD")
	}

	reader := bufio.NewReader(in)
	readLine := func(prompt string) (string, error) {
		fmt.Fprint(os.Stderr, prompt)
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", fmt.Errorf("failed to read %s", strings.TrimSuffix(strings.ToLower(prompt), ": "))
		}
		return strings.TrimSpace(line), nil
	}

	var err error
	if strings.TrimSpace(username) == "" {
		if username, err = readLine("Username: "); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = readLine("Password: "); err != nil {
			return "", "", err
		}
	}

	if username == "" || password == "" {
		return "", "", fmt.Errorf("username and password are required")
	}
	return username, password, nil
}
