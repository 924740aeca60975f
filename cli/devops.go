package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BishopFox/devopsfox/devops"
	"github.com/BishopFox/devopsfox/globals"
	"github.com/BishopFox/devopsfox/internal"
	"github.com/BishopFox/devopsfox/internal/prompt"
	"github.com/aws/smithy-go/ptr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	DevOpsOrganizations   []string
	DevOpsOrgListFile     string
	DevOpsToken           string
	DevOpsAPIVersion      string
	DevOpsExportFormat    string
	DevOpsExportPath      string
	DevOpsInteractive     bool
	DevOpsWorkItemLimit   int
	DevOpsPullRequestTop  int
	DevOpsTimeout         time.Duration
	DevOpsRetries         int
	DevOpsGoroutines      int
	DevOpsOutputDirectory string
	DevOpsWrapTable       bool
	DevOpsDebug           bool
	DevOpsConfigFile      string

	defaultOutputDir = ptr.ToString(internal.GetLogDirPath())

	DevOpsCommands = &cobra.Command{
		Use:     "devops",
		Aliases: []string{"ado"},
		Long:    `See "Available Commands" for Azure DevOps Modules below`,
		Short:   "See \"Available Commands\" for Azure DevOps Modules below",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	DevOpsInventoryCommand = &cobra.Command{
		Use:     globals.DEVOPS_INVENTORY_MODULE_NAME,
		Aliases: []string{"inv"},
		Short:   "Enumerate projects and their resources for one or more Azure DevOps organizations",
		Long: `
Enumerate an organization with a personal access token:
./devopsfox devops inventory --org contoso --token $AZURE_DEVOPS_EXT_PAT

Enumerate several organizations and export a workbook per organization:
./devopsfox devops inventory --org contoso=PAT1 --org fabrikam=PAT2 --export Excel

Enter organizations and tokens interactively:
./devopsfox devops inventory --interactive`,
		Run: runDevOpsInventoryCommand,
	}

	DevOpsCheckCommand = &cobra.Command{
		Use:     globals.DEVOPS_CHECK_MODULE_NAME,
		Aliases: []string{"whoami"},
		Short:   "Check that the configured tokens can read their organizations",
		Long: `
Check every configured organization:
./devopsfox devops check --org contoso --token $AZURE_DEVOPS_EXT_PAT`,
		Run: runDevOpsCheckCommand,
	}
)

type organizationEntry struct {
	Name  string `mapstructure:"name"`
	Token string `mapstructure:"token"`
}

func initDevOpsConfig() {
	if DevOpsConfigFile != "" {
		viper.SetConfigFile(DevOpsConfigFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(globals.DEVOPSFOX_CONFIG_FILE_NAME)
	}

	viper.SetEnvPrefix("DEVOPSFOX")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.BindEnv("token", globals.DEVOPS_PAT_ENV_VAR)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// devopsConfigFromViper reads the run configuration. Flags win over the
// config file and environment, which win over the defaults.
func devopsConfigFromViper() devops.Config {
	cfg := devops.DefaultConfig()
	cfg.APIVersion = viper.GetString("api-version")
	cfg.WorkItemLimit = viper.GetInt("work-item-limit")
	cfg.PullRequestTop = viper.GetInt("pr-top")
	cfg.Timeout = viper.GetDuration("timeout")
	cfg.Retries = viper.GetInt("retries")
	cfg.MaxGoroutines = viper.GetInt("max-goroutines")
	return cfg
}

// configuredCredentials gathers the organizations from --org, --org-list and
// the config file. Entries without an inline token use --token. Invalid
// entries are skipped with a warning.
func configuredCredentials(log internal.Logger) []devops.Credential {
	defaultToken := viper.GetString("token")

	var entries []string
	entries = append(entries, viper.GetStringSlice("org")...)
	if listFile := viper.GetString("org-list"); listFile != "" {
		entries = append(entries, internal.LoadFileLinesIntoArray(listFile)...)
	}

	var fromFile []organizationEntry
	if err := viper.UnmarshalKey("organizations", &fromFile); err != nil {
		log.Warnf("Could not read organizations from config file: %v", err)
	}
	for _, o := range fromFile {
		if o.Token != "" {
			entries = append(entries, o.Name+"="+o.Token)
		} else {
			entries = append(entries, o.Name)
		}
	}

	var creds []devops.Credential
	var seen []string
	for _, entry := range entries {
		cred, err := devops.ParseCredential(entry, defaultToken)
		if err != nil {
			log.Warnf("Skipping organization: %v", err)
			continue
		}
		key := strings.ToLower(cred.Organization)
		if internal.Contains(key, seen) {
			continue
		}
		seen = append(seen, key)
		creds = append(creds, cred)
	}
	return creds
}

// resolveCredentials returns the configured organizations and, when asked
// to or when none are configured, the ones entered interactively.
func resolveCredentials(ctx context.Context, p prompt.Prompter, probe devops.ProbeFunc, interactive bool, log internal.Logger) []devops.Credential {
	creds := configuredCredentials(log)
	if !interactive && len(creds) > 0 {
		return creds
	}

	entered, err := devops.AcquireCredentials(ctx, p, probe, internal.NewLogger(globals.DEVOPS_CREDENTIALS_MODULE_NAME))
	if err != nil {
		log.Warnf("Interactive entry stopped: %v", err)
	}
	for _, cred := range entered {
		duplicate := false
		for _, c := range creds {
			if strings.EqualFold(c.Organization, cred.Organization) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			creds = append(creds, cred)
		}
	}
	return creds
}

// exportLocation splits --export-path into a directory and a file prefix.
// A bare prefix lands under the devopsfox output directory.
func exportLocation(outputDirectory, exportPath string) (string, string) {
	if exportPath == "" {
		exportPath = "devops-inventory"
	}
	dir, prefix := filepath.Split(exportPath)
	if dir != "" {
		return filepath.Clean(dir), prefix
	}
	return filepath.Join(outputDirectory, globals.DEVOPSFOX_BASE_DIRECTORY, globals.DEVOPS_OUTPUT_DIRECTORY), prefix
}

func openTxtLog(log internal.Logger) func() {
	f, err := internal.InitTxtLog(viper.GetBool("debug"))
	if err != nil {
		log.Warnf("Could not open the log file: %v", err)
		return func() {}
	}
	return func() { f.Close() }
}

func runDevOpsInventoryCommand(cmd *cobra.Command, args []string) {
	log := internal.NewLogger(globals.DEVOPS_INVENTORY_MODULE_NAME)
	defer openTxtLog(log)()

	format, err := devops.ParseExportFormat(viper.GetString("export"))
	if err != nil {
		log.Fatal(err.Error())
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := devopsConfigFromViper()

	creds := resolveCredentials(ctx, prompt.New(), devops.NewProbe(cfg), viper.GetBool("interactive"), log)
	if len(creds) == 0 {
		log.Info("No organizations configured, nothing to inventory.")
		return
	}

	exporter := devops.NewExporter()
	exportDir, exportPrefix := exportLocation(viper.GetString("outdir"), viper.GetString("export-path"))

	for _, cred := range creds {
		m := devops.NewInventoryModule(cred, cfg)
		m.ShowStatus = true
		inv := m.Collect(ctx)

		devops.Render(os.Stdout, &inv, viper.GetBool("wrap"))

		if format == devops.ExportNone {
			continue
		}
		basePath := devops.ArtifactBasePath(exportDir, exportPrefix, inv.CollectedAt, inv.Organization)
		paths, err := exporter.Export(&inv, basePath, format)
		if err != nil {
			log.Error(err.Error())
			continue
		}
		internal.PrintWrittenPaths(os.Stdout, globals.DEVOPS_EXPORT_MODULE_NAME, inv.Organization, paths)
	}
}

func runDevOpsCheckCommand(cmd *cobra.Command, args []string) {
	log := internal.NewLogger(globals.DEVOPS_CHECK_MODULE_NAME)
	defer openTxtLog(log)()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := devopsConfigFromViper()

	creds := configuredCredentials(log)
	if len(creds) == 0 {
		log.Info("No organizations configured, nothing to check.")
		return
	}

	var body [][]string
	for _, cred := range creds {
		status := "ok"
		if err := devops.ProbeCredential(ctx, cred, cfg); err != nil {
			status = err.Error()
		}
		body = append(body, []string{cred.Organization, status})
	}
	internal.PrintTableToScreen(os.Stdout, []string{"Organization", "Status"}, body, viper.GetBool("wrap"))
}

func init() {
	cobra.OnInitialize(initDevOpsConfig)

	defaults := devops.DefaultConfig()

	// Global flags
	DevOpsCommands.PersistentFlags().StringArrayVarP(&DevOpsOrganizations, "org", "g", []string{}, "Organization name, or name=token, repeatable")
	DevOpsCommands.PersistentFlags().StringVar(&DevOpsOrgListFile, "org-list", "", "File with one organization (or name=token) per line")
	DevOpsCommands.PersistentFlags().StringVarP(&DevOpsToken, "token", "t", "", fmt.Sprintf("Personal access token for organizations without an inline token (default $%s)", globals.DEVOPS_PAT_ENV_VAR))
	DevOpsCommands.PersistentFlags().StringVar(&DevOpsAPIVersion, "api-version", defaults.APIVersion, "Default REST API version")
	DevOpsCommands.PersistentFlags().DurationVar(&DevOpsTimeout, "timeout", defaults.Timeout, "Timeout of a single API call")
	DevOpsCommands.PersistentFlags().IntVar(&DevOpsRetries, "retries", defaults.Retries, "Retries of a failed API call")
	DevOpsCommands.PersistentFlags().IntVarP(&DevOpsGoroutines, "max-goroutines", "q", defaults.MaxGoroutines, "Maximum concurrent calls per resource type")
	DevOpsCommands.PersistentFlags().StringVar(&DevOpsOutputDirectory, "outdir", defaultOutputDir, "Output Directory ")
	DevOpsCommands.PersistentFlags().BoolVarP(&DevOpsWrapTable, "wrap", "w", false, "Wrap table to fit in terminal (complicates grepping)")
	DevOpsCommands.PersistentFlags().BoolVar(&DevOpsDebug, "debug", false, "Write request URLs to the log file")
	DevOpsCommands.PersistentFlags().StringVar(&DevOpsConfigFile, "config", "", fmt.Sprintf("Config file (default $HOME/%s.yaml)", globals.DEVOPSFOX_CONFIG_FILE_NAME))

	DevOpsInventoryCommand.Flags().StringVarP(&DevOpsExportFormat, "export", "e", "None", "[\"None\" | \"CSV\" | \"Excel\" | \"Markdown\"]")
	DevOpsInventoryCommand.Flags().StringVar(&DevOpsExportPath, "export-path", "devops-inventory", "Export file prefix, optionally with a directory")
	DevOpsInventoryCommand.Flags().BoolVarP(&DevOpsInteractive, "interactive", "i", false, "Prompt for organizations and tokens")
	DevOpsInventoryCommand.Flags().IntVar(&DevOpsWorkItemLimit, "work-item-limit", defaults.WorkItemLimit, "Most recently changed work items kept per project")
	DevOpsInventoryCommand.Flags().IntVar(&DevOpsPullRequestTop, "pr-top", defaults.PullRequestTop, "Pull requests requested per repository and status")

	viper.BindPFlags(DevOpsCommands.PersistentFlags())
	viper.BindPFlags(DevOpsInventoryCommand.Flags())

	DevOpsCommands.AddCommand(
		DevOpsInventoryCommand,
		DevOpsCheckCommand)
}
