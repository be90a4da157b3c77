package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/emrgen/folio"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configDir      = "./.tmp"
	configFileName = "folio"
	defaultServer  = "http://localhost:4001"
)

var contextCommand = &cobra.Command{
	Use:   "context",
	Short: "context commands",
}

func init() {
	contextCommand.AddCommand(setContextCommand())
	contextCommand.AddCommand(currentContextCommand())
	contextCommand.AddCommand(resetContextCommand())
}

// Context is the cli state kept between invocations.
type Context struct {
	Server  string `mapstructure:"server"`
	Owner   string `mapstructure:"owner"`
	Admin   bool   `mapstructure:"admin"`
	Session string `mapstructure:"session"`
}

// saves the context info to the config file in ./.tmp
func setContextCommand() *cobra.Command {
	var serverURL string
	var owner string
	var admin bool

	command := &cobra.Command{
		Use:   "set",
		Short: "set context",
		Run: func(cmd *cobra.Command, args []string) {
			if !cmd.Flag("server").Changed && !cmd.Flag("owner").Changed && !cmd.Flag("admin").Changed {
				color.Red(`missing: --server or --owner or --admin`)
				return
			}

			ctx := readContext()
			if cmd.Flag("server").Changed {
				ctx.Server = serverURL
			}
			if cmd.Flag("owner").Changed {
				// sessions belong to an owner
				if ctx.Owner != owner {
					ctx.Session = ""
				}
				ctx.Owner = owner
			}
			if cmd.Flag("admin").Changed {
				ctx.Admin = admin
			}

			if err := writeContext(ctx); err != nil {
				fmt.Println("error writing config file: ", err)
				return
			}
			fmt.Println("context saved")
		},
	}

	command.Flags().StringVarP(&serverURL, "server", "s", defaultServer, "api address")
	command.Flags().StringVarP(&owner, "owner", "o", "", "user id")
	command.Flags().BoolVar(&admin, "admin", false, "send requests with the admin role")
	command.Flags().SortFlags = false

	return command
}

func currentContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "current",
		Short: "current context",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := readContext()
			printField("server", ctx.Server)
			printField("owner", ctx.Owner)
			printField("admin", fmt.Sprint(ctx.Admin))
			printField("session", ctx.Session)
		},
	}

	return command
}

func resetContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "reset",
		Short: "reset context",
		Run: func(cmd *cobra.Command, args []string) {
			if err := writeContext(Context{Server: defaultServer}); err != nil {
				fmt.Println("error writing config file: ", err)
				return
			}
			fmt.Println("context reset")
		},
	}

	return command
}

func printField(name, value string) {
	color.Set(color.FgCyan)
	fmt.Print(name)
	color.Unset()
	if value == "" {
		value = "-"
	}
	fmt.Printf(": %s\n", value)
}

func configPath() string {
	return filepath.Join(configDir, configFileName+".yml")
}

func writeContext(ctx Context) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("yml")
	v.Set("context.server", ctx.Server)
	v.Set("context.owner", ctx.Owner)
	v.Set("context.admin", ctx.Admin)
	v.Set("context.session", ctx.Session)

	return v.WriteConfigAs(configPath())
}

func readContext() Context {
	ctx := Context{Server: defaultServer}

	if _, err := os.Stat(configPath()); os.IsNotExist(err) {
		return ctx
	}

	v := viper.New()
	v.SetConfigFile(configPath())
	v.SetConfigType("yml")
	v.SetEnvPrefix("folio")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("error reading config file: ", err)
		return ctx
	}

	if err := v.UnmarshalKey("context", &ctx); err != nil {
		fmt.Println("error unmarshalling config file: ", err)
	}
	if ctx.Server == "" {
		ctx.Server = defaultServer
	}

	return ctx
}

// currentSession returns the session flag or the session saved in the context.
func currentSession(flag string) (string, bool) {
	if flag != "" {
		return flag, true
	}
	if id := readContext().Session; id != "" {
		return id, true
	}
	color.Red("missing: --session (or run `folio session start`)")
	return "", false
}

func newClient() *folio.Client {
	ctx := readContext()
	c := folio.NewClient(ctx.Server, ctx.Owner)
	if ctx.Admin {
		c = c.AsAdmin()
	}
	return c
}

func timeoutContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
