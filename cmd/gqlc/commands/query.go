package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/huykn/gqlcache"
)

func (c *CLI) newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Send a document to an endpoint and print the result as JSON",
		RunE:  runQuery,
	}

	cmd.Flags().StringP("endpoint", "e", "", "GraphQL endpoint URL")
	cmd.Flags().String("rest-endpoint", "", "Base URL for @rest fields")
	cmd.Flags().StringP("file", "f", "", "Path to the document")
	cmd.Flags().String("vars", "", "Path to a YAML file of variables")
	cmd.Flags().StringP("operation", "o", "", "Operation name when the document has several")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runQuery(cmd *cobra.Command, _ []string) error {
	endpoint, _ := cmd.Flags().GetString("endpoint")
	restEndpoint, _ := cmd.Flags().GetString("rest-endpoint")
	file, _ := cmd.Flags().GetString("file")
	varsFile, _ := cmd.Flags().GetString("vars")
	operation, _ := cmd.Flags().GetString("operation")
	debug, _ := cmd.Flags().GetBool("debug")

	src, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	vars, err := loadVars(varsFile)
	if err != nil {
		return err
	}

	cfg := gqlcache.DefaultConfig()
	cfg.Endpoint = endpoint
	cfg.RESTEndpoint = restEndpoint
	if debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		cfg.Logger = gqlcache.NewZapLogger(logger)
		cfg.DebugMode = true
	}

	client, err := gqlcache.New(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.Query(cmd.Context(), gqlcache.Request{
		Query:         string(src),
		OperationName: operation,
		Variables:     vars,
	}, gqlcache.WithFetchPolicy(gqlcache.NetworkOnly))
	if err != nil {
		return err
	}

	out := map[string]any{"data": res.Data}
	if len(res.Errors) > 0 {
		out["errors"] = res.Errors
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func loadVars(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var vars map[string]any
	if err := yaml.Unmarshal(raw, &vars); err != nil {
		return nil, fmt.Errorf("parse variables %s: %w", path, err)
	}
	return vars, nil
}
