package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"stagectl/internal/auth"
	"stagectl/internal/environment"
	apperrors "stagectl/internal/errors"
	"stagectl/internal/loader"
	"stagectl/internal/ui"
)

// version is set at build time via ldflags
var version = "dev"

var console = ui.NewConsole()

var rootCmd = &cobra.Command{
	Use:     "stagectl",
	Short:   "stagectl - manage deployable services across stages and clusters",
	Version: version,
	Long: `stagectl loads a service definition file (service.yml), resolves its
stage-to-cluster bindings, assembles the datamodel schema, and issues signed
service tokens. Edits to the definition preserve the file's formatting,
comments, and key order.`,
}

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List resolved stage-to-cluster bindings",
	Long: `Stages loads the definition, resolves stage aliases, validates every
cluster against the cluster registry, and prints the resulting bindings.`,
	Run: func(cmd *cobra.Command, args []string) {
		def := mustLoad(cmd)

		stages := make([]string, 0, len(def.Stages()))
		for stage := range def.Stages() {
			stages = append(stages, stage)
		}
		sort.Strings(stages)

		for _, stage := range stages {
			cluster := def.Stages()[stage]
			if raw := def.RawStages()[stage]; raw != cluster {
				fmt.Printf("%s -> %s (via %s)\n", stage, cluster, raw)
			} else {
				fmt.Printf("%s -> %s\n", stage, cluster)
			}
		}
	},
}

var addStageCmd = &cobra.Command{
	Use:   "add-stage <stage> <cluster>",
	Short: "Add a stage binding to the definition file",
	Long: `Add-stage inserts a new stage-to-cluster binding into the definition
file. The edit is surgical: comments, quoting, and the order of unrelated
keys are preserved byte-for-byte.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		stage, cluster := args[0], args[1]

		registry := mustRegistry(cmd)
		if !registry.Has(cluster) {
			fail(&apperrors.UnknownClusterError{Stage: stage, Cluster: cluster})
		}

		def := mustLoad(cmd)
		if err := def.AddStage(stage, cluster); err != nil {
			fail(err)
		}
		if err := def.Save(); err != nil {
			fail(err)
		}

		console.PrintSuccess(fmt.Sprintf("Added stage %s -> %s to %s", stage, cluster, def.Path()))
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <stage>",
	Short: "Issue a signed service token for a stage",
	Long: `Token signs a one-hour service identity token for the given stage
using the first configured secret. When the definition disables
authentication, no token is issued.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		stage := args[0]
		def := mustLoad(cmd)

		service, _ := cmd.Flags().GetString("service")
		if service == "" {
			service = def.Service()
		}

		token, issued, err := auth.NewIssuer(def.Secrets()).Issue(service, stage)
		if err != nil {
			fail(err)
		}
		if !issued {
			console.PrintInfo("Authentication is disabled for this service; no token issued.")
			return
		}
		fmt.Println(token)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the full definition load pipeline and report the result",
	Run: func(cmd *cobra.Command, args []string) {
		def := mustLoad(cmd)
		console.PrintSuccess(fmt.Sprintf("Definition %s is valid (%d stages, auth %s)",
			def.Path(), len(def.Stages()), authState(def.Secrets())))
	},
}

func authState(secrets auth.Secrets) string {
	if secrets.Enabled() {
		return "enabled"
	}
	return "disabled"
}

// mustRegistry loads the cluster registry from the --clusters flag.
func mustRegistry(cmd *cobra.Command) *environment.Registry {
	path, _ := cmd.Flags().GetString("clusters")
	registry, err := environment.Load(path)
	if err != nil {
		fail(err)
	}
	return registry
}

// mustLoad runs the load pipeline with the command's flags, exiting on error.
func mustLoad(cmd *cobra.Command) *loader.Definition {
	file, _ := cmd.Flags().GetString("file")
	envFile, _ := cmd.Flags().GetString("env-file")

	def, err := loader.Load(loader.Options{
		Path:     file,
		EnvFile:  envFile,
		Registry: mustRegistry(cmd),
	})
	if err != nil {
		fail(err)
	}
	return def
}

func fail(err error) {
	apperrors.HandleError(err)
	os.Exit(1)
}

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "service.yml", "Path to the service definition file")
	cmd.Flags().String("clusters", "clusters.yml", "Path to the cluster registry file")
	cmd.Flags().String("env-file", "", "Optional env file loaded before parsing")
}

func init() {
	addCommonFlags(stagesCmd)
	rootCmd.AddCommand(stagesCmd)

	addCommonFlags(addStageCmd)
	rootCmd.AddCommand(addStageCmd)

	addCommonFlags(tokenCmd)
	tokenCmd.Flags().String("service", "", "Service name override for the token's identity claim")
	rootCmd.AddCommand(tokenCmd)

	addCommonFlags(validateCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	slog.SetLogLoggerLevel(slog.LevelWarn)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
