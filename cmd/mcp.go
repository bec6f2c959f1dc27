// mcp.go implements the "mcp" subcommand group (spec §6): "mcp {add
// [--advanced], edit <id>, token {add <id>|list [id]}, oauth {add [-a]
// <id>|list [id]}}". The OAuth browser-redirect flow itself is out of
// scope (spec §1); "mcp oauth add" here stores a grant entered directly,
// which is the token-lifecycle surface spec §4.3 actually specifies.
package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chabeau/chabeau/internal/config"
	"github.com/chabeau/chabeau/internal/credentials"
)

var mcpAddAdvanced bool
var mcpOAuthAdvanced bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Manage configured MCP servers",
}

var mcpAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an MCP server",
	RunE:  runMCPAdd,
}

var mcpEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an MCP server's configuration in $EDITOR",
	Args:  cobra.ExactArgs(1),
	RunE:  runMCPEdit,
}

var mcpTokenCmd = &cobra.Command{Use: "token", Short: "Manage an MCP server's bearer token"}
var mcpTokenAddCmd = &cobra.Command{Use: "add <id>", Short: "Store a bearer token for an MCP server", Args: cobra.ExactArgs(1), RunE: runMCPTokenAdd}
var mcpTokenListCmd = &cobra.Command{Use: "list [id]", Short: "List MCP servers with a stored bearer token", Args: cobra.MaximumNArgs(1), RunE: runMCPTokenList}

var mcpOAuthCmd = &cobra.Command{Use: "oauth", Short: "Manage an MCP server's OAuth grant"}
var mcpOAuthAddCmd = &cobra.Command{Use: "add <id>", Short: "Store an OAuth grant for an MCP server", Args: cobra.ExactArgs(1), RunE: runMCPOAuthAdd}
var mcpOAuthListCmd = &cobra.Command{Use: "list [id]", Short: "List MCP servers with a stored OAuth grant", Args: cobra.MaximumNArgs(1), RunE: runMCPOAuthList}

func init() {
	mcpAddCmd.Flags().BoolVarP(&mcpAddAdvanced, "advanced", "a", false, "prompt for env vars and tool-payload window too")
	mcpOAuthAddCmd.Flags().BoolVarP(&mcpOAuthAdvanced, "advanced", "a", false, "prompt for the full grant (client id, endpoints) instead of just the tokens")

	mcpTokenCmd.AddCommand(mcpTokenAddCmd, mcpTokenListCmd)
	mcpOAuthCmd.AddCommand(mcpOAuthAddCmd, mcpOAuthListCmd)
	mcpCmd.AddCommand(mcpAddCmd, mcpEditCmd, mcpTokenCmd, mcpOAuthCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPAdd(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	id := config.CanonicalCustomID(prompt(cmd, reader, "Server id: "))
	if id == "" {
		return fmt.Errorf("server id is required")
	}
	transport := strings.ToLower(prompt(cmd, reader, "Transport (stdio/http): "))
	if transport != "stdio" && transport != "http" {
		return fmt.Errorf("transport must be \"stdio\" or \"http\", got %q", transport)
	}

	srv := config.MCPServer{ID: id, Transport: transport, Enabled: true}
	switch transport {
	case "stdio":
		srv.Command = prompt(cmd, reader, "Command: ")
		if argsLine := prompt(cmd, reader, "Args (space separated, optional): "); argsLine != "" {
			srv.Args = strings.Fields(argsLine)
		}
		if mcpAddAdvanced {
			srv.Env = map[string]string{}
			for {
				line := prompt(cmd, reader, "Env var (KEY=VALUE, blank to stop): ")
				if line == "" {
					break
				}
				k, v, ok := strings.Cut(line, "=")
				if !ok {
					continue
				}
				srv.Env[k] = v
			}
		}
	case "http":
		srv.URL = prompt(cmd, reader, "Base URL: ")
		if srv.URL == "" {
			return fmt.Errorf("base URL is required for an http transport")
		}
	}

	if mcpAddAdvanced {
		if n := prompt(cmd, reader, "Tool payload window (blank for default): "); n != "" {
			if w, err := strconv.Atoi(n); err == nil {
				srv.ToolPayloadWindow = w
			}
		}
	}

	err := config.Mutate(func(c *config.Config) error {
		for i, existing := range c.MCPServers {
			if existing.ID == id {
				c.MCPServers[i] = srv
				return nil
			}
		}
		c.MCPServers = append(c.MCPServers, srv)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving MCP server: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added MCP server %q\n", id)
	return nil
}

func runMCPEdit(cmd *cobra.Command, args []string) error {
	id := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	srv, ok := cfg.FindMCPServer(id)
	if !ok {
		return &SettingError{Kind: ErrUnknownItem, Message: fmt.Sprintf("unknown MCP server %q", id)}
	}

	body, err := json.MarshalIndent(srv, "", "  ")
	if err != nil {
		return err
	}
	edited, err := editInEditor(body)
	if err != nil {
		return fmt.Errorf("editing server: %w", err)
	}
	var updated config.MCPServer
	if err := json.Unmarshal(edited, &updated); err != nil {
		return fmt.Errorf("parsing edited server: %w", err)
	}
	updated.ID = srv.ID

	err = config.Mutate(func(c *config.Config) error {
		for i, existing := range c.MCPServers {
			if existing.ID == id {
				c.MCPServers[i] = updated
				return nil
			}
		}
		return fmt.Errorf("server %q disappeared during edit", id)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "updated MCP server %q\n", id)
	return nil
}

func runMCPTokenAdd(cmd *cobra.Command, args []string) error {
	id := args[0]
	token, err := readSecret(cmd, "Bearer token: ")
	if err != nil {
		return err
	}
	store := credentials.NewStore(credentials.ServiceMCP)
	if err := store.Set(credentials.MCPBearerAccount(id), token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored bearer token for %q\n", id)
	return nil
}

func runMCPTokenList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store := credentials.NewStore(credentials.ServiceMCP)
	ids := mcpServerIDs(cfg, args)
	out := cmd.OutOrStdout()
	for _, id := range ids {
		_, ok, _ := store.Get(credentials.MCPBearerAccount(id))
		status := "absent"
		if ok {
			status = "present"
		}
		fmt.Fprintf(out, "%-16s %s\n", id, status)
	}
	return nil
}

func runMCPOAuthAdd(cmd *cobra.Command, args []string) error {
	id := args[0]
	reader := bufio.NewReader(cmd.InOrStdin())
	grant := credentials.OAuthGrant{
		AccessToken:  prompt(cmd, reader, "Access token: "),
		RefreshToken: prompt(cmd, reader, "Refresh token (optional): "),
	}
	if grant.AccessToken == "" {
		return fmt.Errorf("access token is required")
	}
	if mcpOAuthAdvanced {
		grant.ClientID = prompt(cmd, reader, "Client id (optional): ")
		grant.AuthorizationEndpoint = prompt(cmd, reader, "Authorization endpoint (optional): ")
		grant.TokenEndpoint = prompt(cmd, reader, "Token endpoint (optional): ")
	}
	store := credentials.NewStore(credentials.ServiceMCP)
	if err := credentials.SetOAuthGrant(store, id, grant); err != nil {
		return fmt.Errorf("storing grant: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored OAuth grant for %q\n", id)
	return nil
}

func runMCPOAuthList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store := credentials.NewStore(credentials.ServiceMCP)
	ids := mcpServerIDs(cfg, args)
	out := cmd.OutOrStdout()
	for _, id := range ids {
		_, ok, _ := credentials.GetOAuthGrant(store, id)
		status := "absent"
		if ok {
			status = "present"
		}
		fmt.Fprintf(out, "%-16s %s\n", id, status)
	}
	return nil
}

// editInEditor runs $EDITOR (falling back to $VISUAL, then vi) against a
// temp file seeded with body, returning its contents after the editor
// exits. Outside the TUI there is no bubbletea program to suspend, so
// this blocks on exec.Command directly rather than going through
// tea.ExecProcess the way the in-chat editor command does.
func editInEditor(body []byte) ([]byte, error) {
	f, err := os.CreateTemp("", "chabeau-mcp-*.json")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.Write(body); err != nil {
		f.Close()
		return nil, err
	}
	f.Close()

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = "vi"
	}
	c := exec.Command(editor, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func mcpServerIDs(cfg *config.Config, args []string) []string {
	if len(args) == 1 {
		return []string{args[0]}
	}
	ids := make([]string, len(cfg.MCPServers))
	for i, s := range cfg.MCPServers {
		ids[i] = s.ID
	}
	return ids
}
