package cli

import (
	"fmt"

	"github.com/Sternrassler/seal-preview/internal/config"
	"github.com/Sternrassler/seal-preview/pkg/client"
	"github.com/spf13/cobra"
)

var (
	loginUser     string
	loginPassword string
	loginPrint    bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Obtain a session token and store it in the config file",
	Long: `Exchange user credentials for a Seal session token.

Credentials default to the user/password config keys (or SEAL_USER and
SEAL_PASS). The token is written to the config file unless --print is set,
in which case it is only printed.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUser, "user", "u", "", "Seal user (principal)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Seal password")
	loginCmd.Flags().BoolVar(&loginPrint, "print", false, "print the token instead of saving it")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if cfg.URL == "" {
		return fmt.Errorf("seal url is required (set url in config or %s)", config.EnvURL)
	}

	user := firstNonEmpty(loginUser, cfg.User)
	password := firstNonEmpty(loginPassword, cfg.Password)
	if user == "" || password == "" {
		return fmt.Errorf("user and password are required (flags, config, or %s/%s)", config.EnvUser, config.EnvPassword)
	}

	token, err := client.Login(cmd.Context(), nil, client.LoginRequest{
		URL:      cfg.URL,
		User:     user,
		Password: password,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if loginPrint {
		fmt.Fprintln(out, token)
		return nil
	}

	path, err := configFile()
	if err != nil {
		return err
	}
	// only the token is persisted; env overrides never reach the file
	fileCfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	fileCfg.Token = token
	if err := config.Save(path, fileCfg); err != nil {
		return err
	}
	cfg.Token = token
	printOK(out, user, "session token saved to "+path)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
